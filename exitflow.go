package main

import (
	"database/sql"
	"errors"
	"fmt"

	"oqcgate/internal/validation"
)

var (
	errNotFound      = errors.New("not found")
	errEmptyBatch    = errors.New("at least one box is required")
	errBadQuantity   = errors.New("quantity must be positive")
	errInvalidStatus = errors.New("invalid status")
)

// boxConflictError signals that a box in a release batch is already
// covered by an active exit record.
type boxConflictError struct {
	BoxCode string
	Folio   string
}

func (e *boxConflictError) Error() string {
	return fmt.Sprintf("box %s already released under folio %s", e.BoxCode, e.Folio)
}

// invalidTransitionError signals a status move the lifecycle forbids.
type invalidTransitionError struct {
	From, To string
}

func (e *invalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// createExitBatch releases one-or-many boxes under a single folio: one
// exit record per box, all sharing the folio. Folio generation, the
// per-box duplication re-check, and the inserts run in one write
// transaction, so concurrent releases on the same day prefix serialize
// and a box can never slip through between check and insert.
func createExitBatch(req ExitBatchRequest) (*ExitBatchResult, error) {
	if len(req.Boxes) == 0 {
		return nil, errEmptyBatch
	}
	for _, b := range req.Boxes {
		if b.Quantity <= 0 {
			return nil, fmt.Errorf("box %s: %w", b.BoxCode, errBadQuantity)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, b := range req.Boxes {
		if b.BoxCode == "" {
			continue
		}
		check, err := checkBox(tx, b.BoxCode)
		if err != nil {
			return nil, err
		}
		if check.Exists {
			return nil, &boxConflictError{BoxCode: b.BoxCode, Folio: check.Folio}
		}
	}

	folio := nextExitFolio(tx)

	var employeeID string
	tx.QueryRow("SELECT employee_id FROM operators WHERE id = ?", req.OperatorID).Scan(&employeeID)

	qcPassed := 1
	if req.QCPassed != nil && !*req.QCPassed {
		qcPassed = 0
	}
	destination := req.Destination
	if destination == "" {
		destination = appConfig.DefaultDestination
	}
	exitDate := req.ExitDate
	if exitDate == "" {
		exitDate = folioNow().Format("2006-01-02 15:04:05")
	}

	result := &ExitBatchResult{Folio: folio}
	var ids []int64
	for _, b := range req.Boxes {
		var boxCode any
		if b.BoxCode != "" {
			boxCode = b.BoxCode
		}
		res, err := tx.Exec(`INSERT INTO exit_records
			(folio, box_code, part_number_id, esd_box_id, operator_id, employee_id,
			 quantity, inspection_date, exit_date, destination, status, observations, qc_passed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
			folio, boxCode, req.PartNumberID, req.EsdBoxID, req.OperatorID, employeeID,
			b.Quantity, req.InspectionDate, exitDate, destination, req.Observations, qcPassed)
		if err != nil {
			return nil, err
		}
		id, _ := res.LastInsertId()
		ids = append(ids, id)
		result.TotalQuantity += b.Quantity
	}
	result.RecordsCreated = len(ids)

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		rec, err := getExitRecord(int(id))
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, *rec)
	}
	return result, nil
}

const exitRecordSelect = `SELECT er.id, er.folio, er.box_code, er.part_number_id, er.esd_box_id,
		er.operator_id, er.employee_id, er.quantity, er.inspection_date, er.exit_date,
		er.destination, er.status, er.observations, er.qc_passed, er.created_at, er.updated_at,
		pn.part_number, COALESCE(pn.description,''), COALESCE(pn.model,''),
		eb.box_code, eb.capacity, op.name
	FROM exit_records er
	JOIN part_numbers pn ON er.part_number_id = pn.id
	JOIN esd_boxes eb ON er.esd_box_id = eb.id
	JOIN operators op ON er.operator_id = op.id`

func scanExitRecord(row interface{ Scan(...any) error }) (*ExitRecord, error) {
	var rec ExitRecord
	var boxCode sql.NullString
	var qc int
	err := row.Scan(&rec.ID, &rec.Folio, &boxCode, &rec.PartNumberID, &rec.EsdBoxID,
		&rec.OperatorID, &rec.EmployeeID, &rec.Quantity, &rec.InspectionDate, &rec.ExitDate,
		&rec.Destination, &rec.Status, &rec.Observations, &qc, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.PartNumber, &rec.PartDescription, &rec.PartModel,
		&rec.EsdBoxCode, &rec.EsdBoxCapacity, &rec.OperatorName)
	if err != nil {
		return nil, err
	}
	rec.BoxCode = sp(boxCode)
	rec.QCPassed = qc == 1
	return &rec, nil
}

func getExitRecord(id int) (*ExitRecord, error) {
	rec, err := scanExitRecord(db.QueryRow(exitRecordSelect+" WHERE er.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, errNotFound
	}
	return rec, err
}

func getExitRecordsByFolio(folio string) ([]ExitRecord, error) {
	rows, err := db.Query(exitRecordSelect+" WHERE er.folio = ? ORDER BY er.id", folio)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ExitRecord
	for rows.Next() {
		rec, err := scanExitRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if len(records) == 0 {
		return nil, errNotFound
	}
	return records, rows.Err()
}

// updateExitStatus advances the exit-record lifecycle:
// pending -> released -> shipped, with pending|released -> cancelled.
// Shipped and cancelled are terminal.
func updateExitStatus(id int, status string) error {
	valid := false
	for _, s := range validation.ValidExitStatuses {
		if s == status {
			valid = true
			break
		}
	}
	if !valid {
		return errInvalidStatus
	}

	var current string
	err := db.QueryRow("SELECT status FROM exit_records WHERE id = ?", id).Scan(&current)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	if err != nil {
		return err
	}

	if !validation.CanTransition(validation.ExitTransitions, current, status) {
		return &invalidTransitionError{From: current, To: status}
	}

	_, err = db.Exec("UPDATE exit_records SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, id)
	return err
}

// cancelExitRecord is the only supported undo. The row survives with
// status cancelled so the box becomes re-releasable while history stays.
func cancelExitRecord(id int) error {
	return updateExitStatus(id, "cancelled")
}
