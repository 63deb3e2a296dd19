package main

import "database/sql"

// Dispositions classify a box's prior fate: released to the warehouse
// (clean QC pass) or held in containment (rejection-adjacent).
const (
	dispositionWarehouse   = "warehouse"
	dispositionContainment = "containment"
)

// checkBox looks up the most recent non-cancelled exit record for a box
// code. A box with only cancelled history reads as never released and may
// be re-released under a new folio.
func checkBox(q queryer, boxCode string) (BoxCheckResult, error) {
	var r BoxCheckResult
	var qc int
	err := q.QueryRow(`SELECT folio, destination, status, qc_passed, exit_date
		FROM exit_records
		WHERE box_code = ? AND status != 'cancelled'
		ORDER BY exit_date DESC LIMIT 1`, boxCode).
		Scan(&r.Folio, &r.Destination, &r.Status, &qc, &r.ExitDate)
	if err == sql.ErrNoRows {
		return BoxCheckResult{Exists: false}, nil
	}
	if err != nil {
		return BoxCheckResult{}, err
	}

	r.Exists = true
	r.QCPassed = qc == 1
	if r.QCPassed {
		r.Disposition = dispositionWarehouse
	} else {
		r.Disposition = dispositionContainment
	}
	return r, nil
}

// checkBoxes evaluates each code independently, preserving input order in
// the keyed result. A code with no history yields {exists:false}, never
// an error.
func checkBoxes(q queryer, boxCodes []string) (map[string]BoxCheckResult, error) {
	results := make(map[string]BoxCheckResult, len(boxCodes))
	for _, code := range boxCodes {
		r, err := checkBox(q, code)
		if err != nil {
			return nil, err
		}
		results[code] = r
	}
	return results, nil
}
