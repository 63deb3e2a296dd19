package main

import (
	"errors"
	"net/http"
	"strconv"

	"oqcgate/internal/validation"
)

func handleListRejections(w http.ResponseWriter, r *http.Request) {
	query := rejectionSelect + " WHERE 1=1"
	var args []any

	if status := r.URL.Query().Get("status"); status != "" {
		query += " AND r.status = ?"
		args = append(args, status)
	}
	if pid := r.URL.Query().Get("partNumberId"); pid != "" {
		query += " AND r.part_number_id = ?"
		args = append(args, pid)
	}
	if pn := r.URL.Query().Get("partNumber"); pn != "" {
		query += " AND pn.part_number LIKE ?"
		args = append(args, "%"+pn+"%")
	}
	if start := r.URL.Query().Get("startDate"); start != "" {
		query += " AND DATE(r.rejection_date) >= ?"
		args = append(args, start)
	}
	if end := r.URL.Query().Get("endDate"); end != "" {
		query += " AND DATE(r.rejection_date) <= ?"
		args = append(args, end)
	}
	query += " ORDER BY r.rejection_date DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []OqcRejection{}
	for rows.Next() {
		rej, err := scanRejection(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, *rej)
	}
	jsonResp(w, items)
}

func handlePendingRejectionCount(w http.ResponseWriter, r *http.Request) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM oqc_rejections WHERE status IN ('pending','in_review')").Scan(&count)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, map[string]int{"count": count})
}

func handleRejectionStats(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if start == "" || end == "" {
		jsonErr(w, "startDate and endDate are required", 400)
		return
	}

	var s RejectionStats
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(ABS(quantity_difference)),0),
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'in_review' THEN 1 END),
			COUNT(CASE WHEN status = 'corrected' THEN 1 END),
			COUNT(CASE WHEN status = 'returned' THEN 1 END)
		FROM oqc_rejections
		WHERE DATE(rejection_date) BETWEEN ? AND ?`, start, end).
		Scan(&s.TotalRejections, &s.TotalDifference, &s.Pending, &s.InReview, &s.Corrected, &s.Returned)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, s)
}

func handleGetRejection(w http.ResponseWriter, r *http.Request, id int) {
	rej, err := getRejection(id)
	if err == errNotFound {
		jsonErr(w, "rejection not found", 404)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, rej)
}

func handleGetRejectionByFolio(w http.ResponseWriter, r *http.Request, folio string) {
	rej, err := getRejectionByFolio(folio)
	if err == errNotFound {
		jsonErr(w, "rejection not found", 404)
		return
	}
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, rej)
}

func handleCreateRejection(w http.ResponseWriter, r *http.Request) {
	var req RejectionRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.ValidatePositiveInt(ve, "part_number_id", req.PartNumberID)
	validation.ValidatePositiveInt(ve, "operator_id", req.OperatorID)
	validation.ValidateNonNegativeInt(ve, "expected_quantity", req.ExpectedQuantity)
	validation.ValidateNonNegativeInt(ve, "actual_quantity", req.ActualQuantity)
	validation.RequireField(ve, "rejection_reason", req.RejectionReason)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	id, folio, err := createRejection(req)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(db, "", AuditActionReject, "rejection", folio,
		"Rejected "+strconv.Itoa(req.ActualQuantity)+"/"+strconv.Itoa(req.ExpectedQuantity)+" pcs")
	broadcast("rejection", "create", folio)

	rej, err := getRejection(id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	w.WriteHeader(201)
	jsonResp(w, rej)
}

func handleUpdateRejectionStatus(w http.ResponseWriter, r *http.Request, id int) {
	var req struct {
		Status          string `json:"status"`
		CorrectedBy     *int   `json:"corrected_by"`
		CorrectionNotes string `json:"correction_notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	err := updateRejectionStatus(id, req.Status, req.CorrectedBy, req.CorrectionNotes)
	var transition *invalidTransitionError
	switch {
	case err == nil:
	case errors.Is(err, errNotFound):
		jsonErr(w, "rejection not found", 404)
		return
	case errors.Is(err, errInvalidStatus):
		jsonErr(w, "status must be one of: pending, in_review, corrected, returned", 400)
		return
	case errors.Is(err, errCorrectedByRequired):
		jsonErr(w, err.Error(), 400)
		return
	case errors.As(err, &transition):
		jsonErr(w, err.Error(), 400)
		return
	default:
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(db, "", AuditActionUpdate, "rejection", strconv.Itoa(id), "Status changed to "+req.Status)
	broadcast("rejection", "update", id)
	handleGetRejection(w, r, id)
}

// handleLinkReturn records the hand-off back to the exit workflow: the
// corrected material was re-released under return_folio.
func handleLinkReturn(w http.ResponseWriter, r *http.Request, id int) {
	var req struct {
		ReturnFolio string `json:"return_folio"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if req.ReturnFolio == "" {
		jsonErr(w, "return_folio is required", 400)
		return
	}

	err := linkReturnFolio(id, req.ReturnFolio)
	var transition *invalidTransitionError
	switch {
	case err == nil:
	case errors.Is(err, errNotFound):
		jsonErr(w, "rejection not found", 404)
		return
	case errors.As(err, &transition):
		jsonErr(w, "rejection is already returned", 400)
		return
	default:
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(db, "", AuditActionReturn, "rejection", strconv.Itoa(id), "Returned under "+req.ReturnFolio)
	broadcast("rejection", "return", id)
	handleGetRejection(w, r, id)
}
