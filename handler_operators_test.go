package main

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"oqcgate/internal/models"
	"oqcgate/internal/testutil"
)

func TestHandleValidatePin(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	body := `{"employee_id":"OP100","pin":"4321"}`
	req := httptest.NewRequest("POST", "/api/v1/operators/validate-pin", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleValidatePin(w, req)
	if w.Code != 200 {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var op models.Operator
	testutil.DecodeEnvelope(t, w, &op)
	if op.EmployeeID != "OP100" {
		t.Errorf("Expected employee OP100, got %s", op.EmployeeID)
	}
	if op.Pin != "" {
		t.Error("PIN must never be echoed back")
	}
}

func TestHandleValidatePin_Wrong(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	cases := []struct {
		name string
		body string
	}{
		{"wrong pin", `{"employee_id":"OP100","pin":"9999"}`},
		{"unknown employee", `{"employee_id":"OP999","pin":"4321"}`},
		{"pin of another operator", `{"employee_id":"OP100","pin":"1234"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/operators/validate-pin", bytes.NewBufferString(tc.body))
			w := httptest.NewRecorder()
			handleValidatePin(w, req)
			if w.Code != 401 {
				t.Errorf("Expected status 401, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleValidateSupervisorPin(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	req := httptest.NewRequest("POST", "/api/v1/operators/validate-supervisor", bytes.NewBufferString(`{"pin":"1234"}`))
	w := httptest.NewRecorder()
	handleValidateSupervisorPin(w, req)
	if w.Code != 200 {
		t.Fatalf("Expected status 200 for supervisor PIN, got %d: %s", w.Code, w.Body.String())
	}

	var op models.Operator
	testutil.DecodeEnvelope(t, w, &op)
	if !op.IsSupervisor {
		t.Error("Expected a supervisor")
	}

	// A valid operator PIN that belongs to a non-supervisor does not pass
	// the gate.
	w2 := httptest.NewRecorder()
	handleValidateSupervisorPin(w2, httptest.NewRequest("POST", "/api/v1/operators/validate-supervisor", bytes.NewBufferString(`{"pin":"4321"}`)))
	if w2.Code != 401 {
		t.Errorf("Expected status 401 for non-supervisor PIN, got %d", w2.Code)
	}
}

func TestCreateOperator_PinRoundTrip(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	body := `{"employee_id":"OP200","name":"New Operator","pin":"5678"}`
	req := httptest.NewRequest("POST", "/api/v1/operators", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleCreateOperator(w, req)
	if w.Code != 201 {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	login := httptest.NewRequest("POST", "/api/v1/operators/validate-pin",
		bytes.NewBufferString(`{"employee_id":"OP200","pin":"5678"}`))
	w2 := httptest.NewRecorder()
	handleValidatePin(w2, login)
	if w2.Code != 200 {
		t.Errorf("New operator PIN should validate, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestCreateOperator_DuplicateEmployeeID(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	body := `{"employee_id":"OP100","name":"Clone","pin":"0000"}`
	req := httptest.NewRequest("POST", "/api/v1/operators", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleCreateOperator(w, req)
	if w.Code != 400 {
		t.Errorf("Expected status 400 for duplicate employee id, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateOperator_BadPin(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	body := `{"employee_id":"OP300","name":"Bad Pin","pin":"12"}`
	req := httptest.NewRequest("POST", "/api/v1/operators", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleCreateOperator(w, req)
	if w.Code != 400 {
		t.Errorf("Expected status 400 for short PIN, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateOperatorPin(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	req := httptest.NewRequest("PATCH", "/api/v1/operators/2/pin", bytes.NewBufferString(`{"pin":"8765"}`))
	w := httptest.NewRecorder()
	handleUpdateOperatorPin(w, req, 2)
	if w.Code != 200 {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	old := httptest.NewRequest("POST", "/api/v1/operators/validate-pin",
		bytes.NewBufferString(`{"employee_id":"OP100","pin":"4321"}`))
	w2 := httptest.NewRecorder()
	handleValidatePin(w2, old)
	if w2.Code != 401 {
		t.Errorf("Old PIN must stop validating, got %d", w2.Code)
	}

	fresh := httptest.NewRequest("POST", "/api/v1/operators/validate-pin",
		bytes.NewBufferString(`{"employee_id":"OP100","pin":"8765"}`))
	w3 := httptest.NewRecorder()
	handleValidatePin(w3, fresh)
	if w3.Code != 200 {
		t.Errorf("New PIN should validate, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestDeleteOperator_SoftDelete(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	req := httptest.NewRequest("DELETE", "/api/v1/operators/2", nil)
	w := httptest.NewRecorder()
	handleDeleteOperator(w, req, 2)
	if w.Code != 200 {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Row survives, but a deactivated operator cannot authenticate.
	var active int
	db.QueryRow("SELECT active FROM operators WHERE id = 2").Scan(&active)
	if active != 0 {
		t.Errorf("Expected active = 0, got %d", active)
	}

	login := httptest.NewRequest("POST", "/api/v1/operators/validate-pin",
		bytes.NewBufferString(`{"employee_id":"OP100","pin":"4321"}`))
	w2 := httptest.NewRecorder()
	handleValidatePin(w2, login)
	if w2.Code != 401 {
		t.Errorf("Deactivated operator must not validate, got %d", w2.Code)
	}
}
