package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// queryer lets folio generation run against either the pooled *sql.DB or
// an open *sql.Tx. Workflows always pass the transaction that also
// performs the insert, so the read-then-write on a day prefix serializes
// on SQLite's single writer.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

// folioNow supplies the sequencing date. Swapped in tests to simulate day
// rollover deterministically.
var folioNow = time.Now

// nextExitFolio returns the next folio for today's prefix, OQCyymmdd + a
// 4-digit sequence. Sequence restarts at 1 whenever the prefix changes.
func nextExitFolio(q queryer) string {
	prefix := "OQC" + folioNow().Format("060102")
	var last sql.NullString
	q.QueryRow("SELECT folio FROM exit_records WHERE folio LIKE ? ORDER BY folio DESC LIMIT 1", prefix+"%").Scan(&last)

	seq := 1
	if last.Valid && len(last.String) >= 4 {
		if n, err := strconv.Atoi(last.String[len(last.String)-4:]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// nextRejectionFolio returns the next rejection folio, REJ-yyyymmdd-NNN.
// rejection_folio carries a UNIQUE constraint, so a lost race surfaces as
// a constraint violation at insert time and the caller regenerates.
func nextRejectionFolio(q queryer) string {
	prefix := "REJ-" + folioNow().Format("20060102")
	var last sql.NullString
	q.QueryRow("SELECT rejection_folio FROM oqc_rejections WHERE rejection_folio LIKE ? ORDER BY rejection_folio DESC LIMIT 1", prefix+"%").Scan(&last)

	seq := 1
	if last.Valid {
		parts := strings.Split(last.String, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, seq)
}
