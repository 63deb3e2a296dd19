package main

import (
	"net/http"
	"strconv"

	"oqcgate/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const operatorSelect = `SELECT id, employee_id, name, is_supervisor, COALESCE(department,''),
	active, created_at FROM operators`

func scanOperator(row interface{ Scan(...any) error }) (*Operator, error) {
	var op Operator
	var supervisor, active int
	err := row.Scan(&op.ID, &op.EmployeeID, &op.Name, &supervisor, &op.Department, &active, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	op.IsSupervisor = supervisor == 1
	op.Active = active == 1
	return &op, nil
}

func handleListOperators(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(operatorSelect + " WHERE active = 1 ORDER BY name")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []Operator{}
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, *op)
	}
	jsonResp(w, items)
}

func handleGetOperator(w http.ResponseWriter, r *http.Request, id int) {
	op, err := scanOperator(db.QueryRow(operatorSelect+" WHERE id = ?", id))
	if err != nil {
		jsonErr(w, "operator not found", 404)
		return
	}
	jsonResp(w, op)
}

func handleGetOperatorByEmployeeID(w http.ResponseWriter, r *http.Request, employeeID string) {
	op, err := scanOperator(db.QueryRow(operatorSelect+" WHERE employee_id = ? AND active = 1", employeeID))
	if err != nil {
		jsonErr(w, "operator not found", 404)
		return
	}
	jsonResp(w, op)
}

// handleValidatePin authorizes an operator by employee id + PIN. The PIN
// is a shared secret; only its bcrypt hash is stored.
func handleValidatePin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID string `json:"employee_id"`
		Pin        string `json:"pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	var id int
	var hash string
	err := db.QueryRow("SELECT id, pin_hash FROM operators WHERE employee_id = ? AND active = 1", req.EmployeeID).
		Scan(&id, &hash)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Pin)) != nil {
		jsonErr(w, "employee id or PIN incorrect", 401)
		return
	}
	handleGetOperator(w, r, id)
}

// handleValidateSupervisorPin is the supervisor gate: any active
// supervisor whose PIN matches authorizes the action.
func handleValidateSupervisorPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	rows, err := db.Query("SELECT id, pin_hash FROM operators WHERE is_supervisor = 1 AND active = 1")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var hash string
		if err := rows.Scan(&id, &hash); err != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Pin)) == nil {
			rows.Close()
			handleGetOperator(w, r, id)
			return
		}
	}
	jsonErr(w, "supervisor PIN incorrect", 401)
}

func handleCreateOperator(w http.ResponseWriter, r *http.Request) {
	var op Operator
	if err := decodeBody(r, &op); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "employee_id", op.EmployeeID)
	validation.RequireField(ve, "name", op.Name)
	if op.Pin == "" {
		op.Pin = "0000"
	}
	validation.ValidatePin(ve, "pin", op.Pin)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if op.Department == "" {
		op.Department = "OQC"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(op.Pin), bcrypt.DefaultCost)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	supervisor := 0
	if op.IsSupervisor {
		supervisor = 1
	}

	res, err := db.Exec(`INSERT INTO operators (employee_id, name, pin_hash, is_supervisor, department)
		VALUES (?, ?, ?, ?, ?)`, op.EmployeeID, op.Name, string(hash), supervisor, op.Department)
	if err != nil {
		if isUniqueViolation(err) {
			jsonErr(w, "employee id already exists", 400)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}

	id, _ := res.LastInsertId()
	logAudit(db, "", AuditActionCreate, "operator", op.EmployeeID, "Created operator "+op.Name)
	w.WriteHeader(201)
	handleGetOperator(w, r, int(id))
}

func handleUpdateOperator(w http.ResponseWriter, r *http.Request, id int) {
	var op Operator
	if err := decodeBody(r, &op); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	supervisor := 0
	if op.IsSupervisor {
		supervisor = 1
	}
	active := 0
	if op.Active {
		active = 1
	}
	_, err := db.Exec(`UPDATE operators SET employee_id = ?, name = ?, is_supervisor = ?,
			department = ?, active = ? WHERE id = ?`,
		op.EmployeeID, op.Name, supervisor, op.Department, active, id)
	if err != nil {
		if isUniqueViolation(err) {
			jsonErr(w, "employee id already exists", 400)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionUpdate, "operator", strconv.Itoa(id), "Updated operator "+op.Name)
	handleGetOperator(w, r, id)
}

func handleUpdateOperatorPin(w http.ResponseWriter, r *http.Request, id int) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.ValidatePin(ve, "pin", req.Pin)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if _, err := db.Exec("UPDATE operators SET pin_hash = ? WHERE id = ?", string(hash), id); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionUpdate, "operator", strconv.Itoa(id), "PIN updated")
	jsonResp(w, map[string]string{"updated": strconv.Itoa(id)})
}

// handleDeleteOperator soft-deletes so historical records keep their
// operator reference.
func handleDeleteOperator(w http.ResponseWriter, r *http.Request, id int) {
	_, err := db.Exec("UPDATE operators SET active = 0 WHERE id = ?", id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionDelete, "operator", strconv.Itoa(id), "Deactivated operator")
	jsonResp(w, map[string]string{"deleted": strconv.Itoa(id)})
}
