package main

import (
	"database/sql"
	"strings"
)

// The scan ledger (box_scans) is populated by the LQC scanning line and
// read here as ground truth for how many units a box physically holds.

// boxQuantity aggregates the scan ledger for one box code. Returns nil
// when the box was never scanned, which is distinct from "box already
// released" (see checkBox).
func boxQuantity(boxCode string) (*BoxScanInfo, error) {
	var info BoxScanInfo
	err := db.QueryRow(`SELECT box_code, COUNT(*),
			COALESCE(MIN(first_scan),''), COALESCE(MAX(last_scan),''), COALESCE(folder_date,''),
			(SELECT serial FROM box_scans WHERE box_code = ? LIMIT 1)
		FROM box_scans WHERE box_code = ?
		GROUP BY box_code, folder_date`, boxCode, boxCode).
		Scan(&info.BoxCode, &info.Quantity, &info.FirstScan, &info.LastScan, &info.FolderDate, &info.SampleSerial)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info.PartNumber = extractPartNumber(info.SampleSerial)
	return &info, nil
}

// boxScanExists reports whether the ledger has any scans for the box.
func boxScanExists(boxCode string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM box_scans WHERE box_code = ?", boxCode).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// boxQuantities is the batch variant of boxQuantity. An empty input
// yields an empty slice without touching the store.
func boxQuantities(boxCodes []string) ([]BoxScanInfo, error) {
	if len(boxCodes) == 0 {
		return []BoxScanInfo{}, nil
	}

	placeholders := strings.Repeat("?,", len(boxCodes))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(boxCodes))
	for i, c := range boxCodes {
		args[i] = c
	}

	rows, err := db.Query(`SELECT box_code, COUNT(*),
			COALESCE(MIN(first_scan),''), COALESCE(MAX(last_scan),''), COALESCE(folder_date,'')
		FROM box_scans WHERE box_code IN (`+placeholders+`)
		GROUP BY box_code, folder_date`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []BoxScanInfo{}
	for rows.Next() {
		var info BoxScanInfo
		if err := rows.Scan(&info.BoxCode, &info.Quantity, &info.FirstScan, &info.LastScan, &info.FolderDate); err != nil {
			return nil, err
		}
		items = append(items, info)
	}
	return items, rows.Err()
}
