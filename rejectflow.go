package main

import (
	"database/sql"
	"errors"
	"fmt"

	"oqcgate/internal/validation"
)

var errCorrectedByRequired = errors.New("corrected_by is required when marking corrected")

// folioRetries bounds the regenerate-and-retry loop on rejection folio
// collisions. Collisions are a concurrency artifact, not a data problem,
// so they are retried rather than surfaced.
const folioRetries = 3

// createRejection persists a new OQC rejection with status pending.
// quantity_difference is signed: negative means short, positive overage.
// A zero exit-record reference is stored as NULL, never as a dangling
// foreign key.
func createRejection(req RejectionRequest) (int, string, error) {
	diff := req.ActualQuantity - req.ExpectedQuantity

	var employeeID string
	db.QueryRow("SELECT employee_id FROM operators WHERE id = ?", req.OperatorID).Scan(&employeeID)

	var exitRecordID any
	if req.ExitRecordID != 0 {
		exitRecordID = req.ExitRecordID
	}

	var lastErr error
	for attempt := 0; attempt < folioRetries; attempt++ {
		tx, err := db.Begin()
		if err != nil {
			return 0, "", err
		}

		folio := nextRejectionFolio(tx)
		res, err := tx.Exec(`INSERT INTO oqc_rejections
			(rejection_folio, exit_record_id, part_number_id, operator_id, employee_id,
			 expected_quantity, actual_quantity, quantity_difference, rejection_reason, box_codes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			folio, exitRecordID, req.PartNumberID, req.OperatorID, employeeID,
			req.ExpectedQuantity, req.ActualQuantity, diff, req.RejectionReason, req.BoxCodes)
		if err != nil {
			tx.Rollback()
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return 0, "", err
		}
		if err := tx.Commit(); err != nil {
			return 0, "", err
		}
		id, _ := res.LastInsertId()
		return int(id), folio, nil
	}
	return 0, "", fmt.Errorf("rejection folio collision persisted after %d attempts: %w", folioRetries, lastErr)
}

const rejectionSelect = `SELECT r.id, r.rejection_folio, r.exit_record_id, r.part_number_id,
		r.operator_id, r.employee_id, r.expected_quantity, r.actual_quantity, r.quantity_difference,
		r.rejection_reason, r.box_codes, r.rejection_date, r.status,
		r.corrected_by, r.corrected_at, r.correction_notes, r.return_folio,
		r.created_at, r.updated_at,
		COALESCE(pn.part_number,''), COALESCE(pn.model,''), COALESCE(pn.description,''),
		COALESCE(op.name,''), COALESCE(cop.name,''), COALESCE(er.folio,'')
	FROM oqc_rejections r
	LEFT JOIN part_numbers pn ON r.part_number_id = pn.id
	LEFT JOIN operators op ON r.operator_id = op.id
	LEFT JOIN operators cop ON r.corrected_by = cop.id
	LEFT JOIN exit_records er ON r.exit_record_id = er.id`

func scanRejection(row interface{ Scan(...any) error }) (*OqcRejection, error) {
	var rej OqcRejection
	var exitRecordID, correctedBy sql.NullInt64
	var correctedAt sql.NullString
	err := row.Scan(&rej.ID, &rej.RejectionFolio, &exitRecordID, &rej.PartNumberID,
		&rej.OperatorID, &rej.EmployeeID, &rej.ExpectedQuantity, &rej.ActualQuantity, &rej.QuantityDifference,
		&rej.RejectionReason, &rej.BoxCodes, &rej.RejectionDate, &rej.Status,
		&correctedBy, &correctedAt, &rej.CorrectionNotes, &rej.ReturnFolio,
		&rej.CreatedAt, &rej.UpdatedAt,
		&rej.PartNumber, &rej.PartModel, &rej.PartDescription,
		&rej.OperatorName, &rej.CorrectedByName, &rej.ExitFolio)
	if err != nil {
		return nil, err
	}
	rej.ExitRecordID = ip(exitRecordID)
	rej.CorrectedBy = ip(correctedBy)
	rej.CorrectedAt = sp(correctedAt)
	return &rej, nil
}

func getRejection(id int) (*OqcRejection, error) {
	rej, err := scanRejection(db.QueryRow(rejectionSelect+" WHERE r.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	return rej, err
}

func getRejectionByFolio(folio string) (*OqcRejection, error) {
	rej, err := scanRejection(db.QueryRow(rejectionSelect+" WHERE r.rejection_folio = ?", folio))
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	return rej, err
}

// updateRejectionStatus moves a rejection forward through
// pending -> in_review -> corrected, enforcing that corrected_by,
// corrected_at, and correction_notes are populated exactly on entry to
// corrected. Entry to returned goes through linkReturnFolio only, so a
// return folio is always recorded with it.
func updateRejectionStatus(id int, status string, correctedBy *int, correctionNotes string) error {
	valid := false
	for _, s := range validation.ValidRejectionStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		return errInvalidStatus
	}
	if status == "returned" {
		return &invalidTransitionError{From: "status update", To: "returned (use the return link)"}
	}

	var current string
	err := db.QueryRow("SELECT status FROM oqc_rejections WHERE id = ?", id).Scan(&current)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	if err != nil {
		return err
	}
	if !validation.CanTransition(validation.RejectionTransitions, current, status) {
		return &invalidTransitionError{From: current, To: status}
	}

	if status == "corrected" {
		if correctedBy == nil || *correctedBy == 0 {
			return errCorrectedByRequired
		}
		_, err = db.Exec(`UPDATE oqc_rejections
			SET status = ?, corrected_by = ?, corrected_at = CURRENT_TIMESTAMP,
			    correction_notes = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, status, *correctedBy, correctionNotes, id)
		return err
	}

	_, err = db.Exec("UPDATE oqc_rejections SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, id)
	return err
}

// linkReturnFolio is the hand-off back to the exit workflow: corrected
// material re-released under a new exit folio. It forces status returned
// from any non-terminal state.
func linkReturnFolio(id int, returnFolio string) error {
	var current string
	err := db.QueryRow("SELECT status FROM oqc_rejections WHERE id = ?", id).Scan(&current)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	if err != nil {
		return err
	}
	if current == "returned" {
		return &invalidTransitionError{From: "returned", To: "returned"}
	}

	_, err = db.Exec(`UPDATE oqc_rejections
		SET return_folio = ?, status = 'returned', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, returnFolio, id)
	return err
}
