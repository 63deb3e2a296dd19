package main

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"testing"

	"oqcgate/internal/models"
	"oqcgate/internal/testutil"
)

func postRejection(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/rejections", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleCreateRejection(w, req)
	return w
}

func createTestRejection(t *testing.T, partID, expected, actual int) models.OqcRejection {
	t.Helper()
	body := fmt.Sprintf(`{
		"part_number_id": %d,
		"operator_id": 1,
		"expected_quantity": %d,
		"actual_quantity": %d,
		"rejection_reason": "Quantity mismatch at OQC",
		"box_codes": "BOX-R1,BOX-R2"
	}`, partID, expected, actual)
	w := postRejection(t, body)
	if w.Code != 201 {
		t.Fatalf("Failed to create rejection: %d %s", w.Code, w.Body.String())
	}
	var rej models.OqcRejection
	testutil.DecodeEnvelope(t, w, &rej)
	return rej
}

func TestCreateRejection_SignedDifference(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")

	short := createTestRejection(t, partID, 100, 92)
	if short.QuantityDifference != -8 {
		t.Errorf("Expected difference -8 for short count, got %d", short.QuantityDifference)
	}
	if short.Status != "pending" {
		t.Errorf("Expected new rejection status pending, got %s", short.Status)
	}
	if short.RejectionFolio == "" {
		t.Error("Expected a rejection folio")
	}
	if short.ExitRecordID != nil {
		t.Errorf("Expected nil exit_record_id, got %v", *short.ExitRecordID)
	}

	over := createTestRejection(t, partID, 100, 105)
	if over.QuantityDifference != 5 {
		t.Errorf("Expected difference +5 for overage, got %d", over.QuantityDifference)
	}
	if over.RejectionFolio == short.RejectionFolio {
		t.Error("Rejection folios must be unique")
	}
}

func TestCreateRejection_LinkedExitRecord(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	exitID := insertExitRow(t, partID, "OQC2603150001", "BOX-LINK", 100, 0)

	body := fmt.Sprintf(`{
		"exit_record_id": %d,
		"part_number_id": %d,
		"operator_id": 1,
		"expected_quantity": 100,
		"actual_quantity": 92,
		"rejection_reason": "Short count"
	}`, exitID, partID)
	w := postRejection(t, body)
	if w.Code != 201 {
		t.Fatalf("Failed to create rejection: %d %s", w.Code, w.Body.String())
	}
	var rej models.OqcRejection
	testutil.DecodeEnvelope(t, w, &rej)
	if rej.ExitRecordID == nil || *rej.ExitRecordID != exitID {
		t.Errorf("Expected exit_record_id %d, got %v", exitID, rej.ExitRecordID)
	}
	if rej.ExitFolio != "OQC2603150001" {
		t.Errorf("Expected joined exit folio, got %s", rej.ExitFolio)
	}
}

func TestCreateRejection_MissingReason(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	body := fmt.Sprintf(`{"part_number_id": %d, "operator_id": 1, "expected_quantity": 10, "actual_quantity": 8}`, partID)
	w := postRejection(t, body)
	if w.Code != 400 {
		t.Errorf("Expected status 400 for missing reason, got %d: %s", w.Code, w.Body.String())
	}
}

func patchRejectionStatus(t *testing.T, id int, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("PATCH", fmt.Sprintf("/api/v1/rejections/%d/status", id), bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleUpdateRejectionStatus(w, req, id)
	return w
}

func TestUpdateRejectionStatus_CorrectionRequiresCorrector(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	rej := createTestRejection(t, partID, 100, 92)

	if w := patchRejectionStatus(t, rej.ID, `{"status":"in_review"}`); w.Code != 200 {
		t.Fatalf("pending -> in_review failed: %d %s", w.Code, w.Body.String())
	}

	// corrected without corrected_by is refused.
	if w := patchRejectionStatus(t, rej.ID, `{"status":"corrected"}`); w.Code != 400 {
		t.Errorf("Expected status 400 for corrected without corrected_by, got %d", w.Code)
	}

	w := patchRejectionStatus(t, rej.ID, `{"status":"corrected","corrected_by":1,"correction_notes":"Recounted, 8 pcs found in adjacent box"}`)
	if w.Code != 200 {
		t.Fatalf("in_review -> corrected failed: %d %s", w.Code, w.Body.String())
	}
	var updated models.OqcRejection
	testutil.DecodeEnvelope(t, w, &updated)
	if updated.CorrectedBy == nil || *updated.CorrectedBy != 1 {
		t.Errorf("Expected corrected_by 1, got %v", updated.CorrectedBy)
	}
	if updated.CorrectedAt == nil || *updated.CorrectedAt == "" {
		t.Error("Expected corrected_at to be stamped")
	}
	if updated.CorrectionNotes == "" {
		t.Error("Expected correction notes to be stored")
	}
}

func TestUpdateRejectionStatus_ReturnedNeedsLink(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	rej := createTestRejection(t, partID, 100, 92)

	// returned is only reachable through the return-link endpoint, which
	// guarantees a return folio is recorded with it.
	if w := patchRejectionStatus(t, rej.ID, `{"status":"returned"}`); w.Code != 400 {
		t.Errorf("Expected status 400 patching directly to returned, got %d", w.Code)
	}
}

func TestUpdateRejectionStatus_NoBackwardMoves(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	rej := createTestRejection(t, partID, 100, 92)
	patchRejectionStatus(t, rej.ID, `{"status":"in_review"}`)

	if w := patchRejectionStatus(t, rej.ID, `{"status":"pending"}`); w.Code != 400 {
		t.Errorf("Expected status 400 for in_review -> pending, got %d", w.Code)
	}
}

func linkReturn(t *testing.T, id int, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/rejections/%d/return", id), bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handleLinkReturn(w, req, id)
	return w
}

func TestLinkReturn(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	rej := createTestRejection(t, partID, 100, 92)
	patchRejectionStatus(t, rej.ID, `{"status":"in_review"}`)
	patchRejectionStatus(t, rej.ID, `{"status":"corrected","corrected_by":1}`)

	w := linkReturn(t, rej.ID, `{"return_folio":"OQC2603160004"}`)
	if w.Code != 200 {
		t.Fatalf("Return link failed: %d %s", w.Code, w.Body.String())
	}
	var returned models.OqcRejection
	testutil.DecodeEnvelope(t, w, &returned)
	if returned.Status != "returned" {
		t.Errorf("Expected status returned, got %s", returned.Status)
	}
	if returned.ReturnFolio != "OQC2603160004" {
		t.Errorf("Expected return folio OQC2603160004, got %s", returned.ReturnFolio)
	}

	// returned is terminal.
	if w := linkReturn(t, rej.ID, `{"return_folio":"OQC2603160005"}`); w.Code != 400 {
		t.Errorf("Expected status 400 re-linking a returned rejection, got %d", w.Code)
	}
	if w := patchRejectionStatus(t, rej.ID, `{"status":"in_review"}`); w.Code != 400 {
		t.Errorf("Expected status 400 moving a returned rejection, got %d", w.Code)
	}
}

func TestLinkReturn_RequiresFolio(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	rej := createTestRejection(t, partID, 100, 92)

	if w := linkReturn(t, rej.ID, `{}`); w.Code != 400 {
		t.Errorf("Expected status 400 for missing return_folio, got %d", w.Code)
	}
	if w := linkReturn(t, 99999, `{"return_folio":"OQC2603160004"}`); w.Code != 404 {
		t.Errorf("Expected status 404 for missing rejection, got %d", w.Code)
	}
}

func TestPendingRejectionCount(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	createTestRejection(t, partID, 100, 92)
	second := createTestRejection(t, partID, 50, 45)
	patchRejectionStatus(t, second.ID, `{"status":"in_review"}`)
	third := createTestRejection(t, partID, 10, 9)
	patchRejectionStatus(t, third.ID, `{"status":"in_review"}`)
	patchRejectionStatus(t, third.ID, `{"status":"corrected","corrected_by":1}`)

	req := httptest.NewRequest("GET", "/api/v1/rejections/pending-count", nil)
	w := httptest.NewRecorder()
	handlePendingRejectionCount(w, req)
	if w.Code != 200 {
		t.Fatalf("Pending count failed: %d %s", w.Code, w.Body.String())
	}

	var counts map[string]int
	testutil.DecodeEnvelope(t, w, &counts)
	if counts["count"] != 2 {
		t.Errorf("Expected 2 open rejections, got %d", counts["count"])
	}
}

func TestRejectionStats(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	createTestRejection(t, partID, 100, 92) // -8
	createTestRejection(t, partID, 50, 53)  // +3

	req := httptest.NewRequest("GET", "/api/v1/rejections/stats?startDate=2020-01-01&endDate=2099-12-31", nil)
	w := httptest.NewRecorder()
	handleRejectionStats(w, req)
	if w.Code != 200 {
		t.Fatalf("Stats failed: %d %s", w.Code, w.Body.String())
	}

	var stats models.RejectionStats
	testutil.DecodeEnvelope(t, w, &stats)
	if stats.TotalRejections != 2 {
		t.Errorf("Expected 2 rejections, got %d", stats.TotalRejections)
	}
	if stats.TotalDifference != 11 {
		t.Errorf("Expected absolute difference 11, got %d", stats.TotalDifference)
	}
	if stats.Pending != 2 {
		t.Errorf("Expected 2 pending, got %d", stats.Pending)
	}

	// Date range is mandatory for stats.
	w2 := httptest.NewRecorder()
	handleRejectionStats(w2, httptest.NewRequest("GET", "/api/v1/rejections/stats", nil))
	if w2.Code != 400 {
		t.Errorf("Expected status 400 without date range, got %d", w2.Code)
	}
}

func TestGetRejectionByFolio(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")
	rej := createTestRejection(t, partID, 100, 92)

	req := httptest.NewRequest("GET", "/api/v1/rejections/folio/"+rej.RejectionFolio, nil)
	w := httptest.NewRecorder()
	handleGetRejectionByFolio(w, req, rej.RejectionFolio)
	if w.Code != 200 {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var got models.OqcRejection
	testutil.DecodeEnvelope(t, w, &got)
	if got.ID != rej.ID {
		t.Errorf("Expected rejection %d, got %d", rej.ID, got.ID)
	}

	w2 := httptest.NewRecorder()
	handleGetRejectionByFolio(w2, req, "REJ-19990101-001")
	if w2.Code != 404 {
		t.Errorf("Expected status 404 for unknown folio, got %d", w2.Code)
	}
}
