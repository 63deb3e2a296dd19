package main

import (
	"database/sql"
	"net/http"
	"strconv"

	"oqcgate/internal/validation"
)

// Inspection details are a pure append log under an exit record. They are
// cascade-deleted with their parent and never edited.

func handleListInspections(w http.ResponseWriter, r *http.Request, exitRecordID int) {
	rows, err := db.Query(`SELECT id, exit_record_id, inspection_type, result, COALESCE(notes,''),
			inspected_by, inspected_at
		FROM inspection_details WHERE exit_record_id = ? ORDER BY inspected_at`, exitRecordID)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []InspectionDetail{}
	for rows.Next() {
		var d InspectionDetail
		var inspectedBy sql.NullInt64
		if err := rows.Scan(&d.ID, &d.ExitRecordID, &d.InspectionType, &d.Result, &d.Notes,
			&inspectedBy, &d.InspectedAt); err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		d.InspectedBy = ip(inspectedBy)
		items = append(items, d)
	}
	jsonResp(w, items)
}

func handleAddInspection(w http.ResponseWriter, r *http.Request, exitRecordID int) {
	var d InspectionDetail
	if err := decodeBody(r, &d); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "inspection_type", d.InspectionType)
	validation.ValidateEnum(ve, "result", d.Result, validation.ValidInspectionResults)
	validation.RequireField(ve, "result", d.Result)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	if _, err := getExitRecord(exitRecordID); err == errNotFound {
		jsonErr(w, "exit record not found", 404)
		return
	} else if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	var inspectedBy any
	if d.InspectedBy != nil && *d.InspectedBy != 0 {
		inspectedBy = *d.InspectedBy
	}

	res, err := db.Exec(`INSERT INTO inspection_details (exit_record_id, inspection_type, result, notes, inspected_by)
		VALUES (?, ?, ?, ?, ?)`, exitRecordID, d.InspectionType, d.Result, d.Notes, inspectedBy)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	id, _ := res.LastInsertId()
	d.ID = int(id)
	d.ExitRecordID = exitRecordID
	logAudit(db, "", AuditActionCreate, "inspection", strconv.Itoa(exitRecordID),
		d.InspectionType+": "+d.Result)
	w.WriteHeader(201)
	jsonResp(w, d)
}
