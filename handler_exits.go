package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"oqcgate/internal/validation"
)

func handleListExitRecords(w http.ResponseWriter, r *http.Request) {
	query := exitRecordSelect + " WHERE 1=1"
	var args []any

	if status := r.URL.Query().Get("status"); status != "" {
		query += " AND er.status = ?"
		args = append(args, status)
	}
	// qcPassed filter: true = releases, false = containment holds
	if qc := r.URL.Query().Get("qcPassed"); qc != "" {
		v := 0
		if qc == "true" {
			v = 1
		}
		query += " AND er.qc_passed = ?"
		args = append(args, v)
	}
	if start := r.URL.Query().Get("startDate"); start != "" {
		query += " AND DATE(er.exit_date) >= ?"
		args = append(args, start)
	}
	if end := r.URL.Query().Get("endDate"); end != "" {
		query += " AND DATE(er.exit_date) <= ?"
		args = append(args, end)
	}
	if pn := r.URL.Query().Get("partNumber"); pn != "" {
		query += " AND pn.part_number LIKE ?"
		args = append(args, "%"+pn+"%")
	}
	query += " ORDER BY er.created_at DESC"
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			query += " LIMIT ?"
			args = append(args, n)
		}
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []ExitRecord{}
	for rows.Next() {
		rec, err := scanExitRecord(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, *rec)
	}
	jsonResp(w, items)
}

func handleExitStats(w http.ResponseWriter, r *http.Request) {
	today := folioNow().Format("2006-01-02")
	start := r.URL.Query().Get("startDate")
	if start == "" {
		start = today
	}
	end := r.URL.Query().Get("endDate")
	if end == "" {
		end = today
	}

	var s ExitStats
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(quantity),0), COUNT(DISTINCT part_number_id),
			COUNT(CASE WHEN status = 'released' THEN 1 END),
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'shipped' THEN 1 END)
		FROM exit_records
		WHERE DATE(exit_date) BETWEEN ? AND ? AND status != 'cancelled'`, start, end).
		Scan(&s.TotalRecords, &s.TotalQuantity, &s.UniqueParts, &s.Released, &s.Pending, &s.Shipped)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, s)
}

func handleExitStatsByPart(w http.ResponseWriter, r *http.Request) {
	today := folioNow().Format("2006-01-02")
	start := r.URL.Query().Get("startDate")
	if start == "" {
		start = today
	}
	end := r.URL.Query().Get("endDate")
	if end == "" {
		end = today
	}

	rows, err := db.Query(`SELECT pn.part_number, COALESCE(pn.description,''),
			COUNT(*), COALESCE(SUM(er.quantity),0)
		FROM exit_records er
		JOIN part_numbers pn ON er.part_number_id = pn.id
		WHERE DATE(er.exit_date) BETWEEN ? AND ? AND er.status != 'cancelled'
		GROUP BY pn.id
		ORDER BY SUM(er.quantity) DESC`, start, end)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []PartStats{}
	for rows.Next() {
		var p PartStats
		if err := rows.Scan(&p.PartNumber, &p.Description, &p.RecordCount, &p.TotalQuantity); err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, p)
	}
	jsonResp(w, items)
}

func handleValidateBox(w http.ResponseWriter, r *http.Request, boxCode string) {
	result, err := checkBox(db, boxCode)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, result)
}

func handleValidateBoxes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BoxCodes []string `json:"boxCodes"`
	}
	if err := decodeBody(r, &req); err != nil || req.BoxCodes == nil {
		jsonErr(w, "boxCodes must be an array", 400)
		return
	}
	results, err := checkBoxes(db, req.BoxCodes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, results)
}

func handleGetExitByFolio(w http.ResponseWriter, r *http.Request, folio string) {
	records, err := getExitRecordsByFolio(folio)
	if err == errNotFound {
		jsonErr(w, "exit record not found", 404)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, records)
}

func handleGetExitRecord(w http.ResponseWriter, r *http.Request, id int) {
	rec, err := getExitRecord(id)
	if err == errNotFound {
		jsonErr(w, "exit record not found", 404)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, rec)
}

func validateExitBatch(req *ExitBatchRequest) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.ValidatePositiveInt(ve, "part_number_id", req.PartNumberID)
	validation.ValidatePositiveInt(ve, "esd_box_id", req.EsdBoxID)
	validation.ValidatePositiveInt(ve, "operator_id", req.OperatorID)
	validation.RequireField(ve, "inspection_date", req.InspectionDate)
	validation.ValidateDate(ve, "inspection_date", req.InspectionDate)
	return ve
}

// handleCreateExitRecord is the legacy single-record form: one implicit
// box entry with no box code.
func handleCreateExitRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExitBatchRequest
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := validateExitBatch(&req.ExitBatchRequest)
	validation.ValidatePositiveInt(ve, "quantity", req.Quantity)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	req.Boxes = []BoxEntry{{Quantity: req.Quantity}}

	result, err := createExitBatch(req.ExitBatchRequest)
	if err != nil {
		writeExitError(w, err)
		return
	}
	logAudit(db, result.Records[0].OperatorName, AuditActionRelease, "exit_record", result.Folio,
		"Released "+strconv.Itoa(result.TotalQuantity)+" pcs under "+result.Folio)
	broadcast("exit_record", "create", result.Folio)
	w.WriteHeader(201)
	jsonResp(w, result)
}

// handleCreateExitBatch releases N boxes under one shared folio.
func handleCreateExitBatch(w http.ResponseWriter, r *http.Request) {
	var req ExitBatchRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateExitBatch(&req); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	result, err := createExitBatch(req)
	if err != nil {
		writeExitError(w, err)
		return
	}
	logAudit(db, result.Records[0].OperatorName, AuditActionRelease, "exit_record", result.Folio,
		"Released "+strconv.Itoa(result.RecordsCreated)+" boxes, "+strconv.Itoa(result.TotalQuantity)+" pcs under "+result.Folio)
	broadcast("exit_record", "create", result.Folio)
	w.WriteHeader(201)
	jsonResp(w, result)
}

func writeExitError(w http.ResponseWriter, err error) {
	var conflict *boxConflictError
	switch {
	case errors.Is(err, errEmptyBatch), errors.Is(err, errBadQuantity):
		jsonErr(w, err.Error(), 400)
	case errors.As(err, &conflict):
		jsonErr(w, err.Error(), 409)
	default:
		jsonErr(w, err.Error(), 500)
	}
}

// handleUpdateExitRecord applies corrective edits before shipment. Status
// moves go through the status endpoint, not here.
func handleUpdateExitRecord(w http.ResponseWriter, r *http.Request, id int) {
	current, err := getExitRecord(id)
	if err == errNotFound {
		jsonErr(w, "exit record not found", 404)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if current.Status == "shipped" || current.Status == "cancelled" {
		jsonErr(w, "record is "+current.Status+" and can no longer be edited", 400)
		return
	}

	var req struct {
		PartNumberID   int    `json:"part_number_id"`
		EsdBoxID       int    `json:"esd_box_id"`
		OperatorID     int    `json:"operator_id"`
		Quantity       int    `json:"quantity"`
		InspectionDate string `json:"inspection_date"`
		Destination    string `json:"destination"`
		Observations   string `json:"observations"`
		QCPassed       *bool  `json:"qc_passed"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.ValidatePositiveInt(ve, "part_number_id", req.PartNumberID)
	validation.ValidatePositiveInt(ve, "esd_box_id", req.EsdBoxID)
	validation.ValidatePositiveInt(ve, "operator_id", req.OperatorID)
	validation.ValidatePositiveInt(ve, "quantity", req.Quantity)
	validation.ValidateDate(ve, "inspection_date", req.InspectionDate)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	qcPassed := 1
	if req.QCPassed != nil && !*req.QCPassed {
		qcPassed = 0
	}
	_, err = db.Exec(`UPDATE exit_records SET part_number_id = ?, esd_box_id = ?, operator_id = ?,
			quantity = ?, inspection_date = ?, destination = ?, observations = ?, qc_passed = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		req.PartNumberID, req.EsdBoxID, req.OperatorID, req.Quantity, req.InspectionDate,
		req.Destination, req.Observations, qcPassed, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionUpdate, "exit_record", strconv.Itoa(id), "Corrected exit record "+current.Folio)
	broadcast("exit_record", "update", id)
	handleGetExitRecord(w, r, id)
}

func handleUpdateExitStatus(w http.ResponseWriter, r *http.Request, id int) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	err := updateExitStatus(id, req.Status)
	var transition *invalidTransitionError
	switch {
	case err == nil:
	case errors.Is(err, errNotFound):
		jsonErr(w, "exit record not found", 404)
		return
	case errors.Is(err, errInvalidStatus):
		jsonErr(w, "status must be one of: pending, released, shipped, cancelled", 400)
		return
	case errors.As(err, &transition):
		jsonErr(w, err.Error(), 400)
		return
	default:
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(db, "", AuditActionUpdate, "exit_record", strconv.Itoa(id), "Status changed to "+req.Status)
	broadcast("exit_record", "update", id)
	handleGetExitRecord(w, r, id)
}

// handleCancelExitRecord cancels a record. The row is never deleted; the
// box becomes eligible for re-release under a new folio.
func handleCancelExitRecord(w http.ResponseWriter, r *http.Request, id int) {
	err := cancelExitRecord(id)
	var transition *invalidTransitionError
	switch {
	case err == nil:
	case errors.Is(err, errNotFound):
		jsonErr(w, "exit record not found", 404)
		return
	case errors.As(err, &transition):
		jsonErr(w, err.Error(), 400)
		return
	default:
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(db, "", AuditActionCancel, "exit_record", strconv.Itoa(id), "Cancelled exit record")
	broadcast("exit_record", "cancel", id)
	jsonResp(w, map[string]string{"cancelled": strconv.Itoa(id), "at": time.Now().Format(time.RFC3339)})
}
