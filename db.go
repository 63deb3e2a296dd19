package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Explicitly set pragmas (some drivers don't parse connection string params)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

// runMigrations creates the fixed schema. The shape is versioned with the
// binary: no runtime column probes, no conditional ALTERs. box_code and
// employee_id are first-class columns, exit folios are indexed but not
// unique (one folio spans every box in a release batch), and rejection
// folios are unique at the schema level.
func runMigrations() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS part_numbers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			part_number TEXT NOT NULL UNIQUE,
			description TEXT DEFAULT '',
			standard_pack INTEGER NOT NULL DEFAULT 10 CHECK(standard_pack > 0),
			model TEXT DEFAULT '',
			customer TEXT DEFAULT 'LG',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS esd_boxes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			box_code TEXT NOT NULL UNIQUE,
			capacity INTEGER NOT NULL CHECK(capacity > 0),
			description TEXT DEFAULT '',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS operators (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			pin_hash TEXT NOT NULL,
			is_supervisor INTEGER DEFAULT 0,
			department TEXT DEFAULT 'OQC',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS exit_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			folio TEXT NOT NULL,
			box_code TEXT,
			part_number_id INTEGER NOT NULL,
			esd_box_id INTEGER NOT NULL,
			operator_id INTEGER NOT NULL,
			employee_id TEXT DEFAULT '',
			quantity INTEGER NOT NULL CHECK(quantity > 0),
			inspection_date TEXT NOT NULL,
			exit_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			destination TEXT DEFAULT 'Warehouse',
			status TEXT DEFAULT 'pending' CHECK(status IN ('pending','released','shipped','cancelled')),
			observations TEXT DEFAULT '',
			qc_passed INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (part_number_id) REFERENCES part_numbers(id),
			FOREIGN KEY (esd_box_id) REFERENCES esd_boxes(id),
			FOREIGN KEY (operator_id) REFERENCES operators(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exit_records_folio ON exit_records(folio)`,
		`CREATE INDEX IF NOT EXISTS idx_exit_records_box_code ON exit_records(box_code)`,
		`CREATE TABLE IF NOT EXISTS inspection_details (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			exit_record_id INTEGER NOT NULL,
			inspection_type TEXT NOT NULL,
			result TEXT NOT NULL CHECK(result IN ('pass','fail','na')),
			notes TEXT DEFAULT '',
			inspected_by INTEGER,
			inspected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (exit_record_id) REFERENCES exit_records(id) ON DELETE CASCADE,
			FOREIGN KEY (inspected_by) REFERENCES operators(id)
		)`,
		`CREATE TABLE IF NOT EXISTS oqc_rejections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			rejection_folio TEXT NOT NULL UNIQUE,
			exit_record_id INTEGER,
			part_number_id INTEGER NOT NULL,
			operator_id INTEGER NOT NULL,
			employee_id TEXT DEFAULT '',
			expected_quantity INTEGER NOT NULL,
			actual_quantity INTEGER NOT NULL,
			quantity_difference INTEGER NOT NULL,
			rejection_reason TEXT NOT NULL,
			box_codes TEXT DEFAULT '',
			rejection_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			status TEXT DEFAULT 'pending' CHECK(status IN ('pending','in_review','corrected','returned')),
			corrected_by INTEGER,
			corrected_at DATETIME,
			correction_notes TEXT DEFAULT '',
			return_folio TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (exit_record_id) REFERENCES exit_records(id),
			FOREIGN KEY (part_number_id) REFERENCES part_numbers(id),
			FOREIGN KEY (operator_id) REFERENCES operators(id),
			FOREIGN KEY (corrected_by) REFERENCES operators(id)
		)`,
		// Scan ledger. Populated externally by the LQC scanning line;
		// this service only reads it.
		`CREATE TABLE IF NOT EXISTS box_scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			box_code TEXT NOT NULL,
			serial TEXT NOT NULL,
			first_scan DATETIME,
			last_scan DATETIME,
			folder_date TEXT DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_box_scans_box_code ON box_scans(box_code)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operator TEXT DEFAULT '',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT DEFAULT '',
			summary TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}

// seedDB inserts the ESD box catalog and the default supervisor when the
// database is empty. Safe to run on every startup.
func seedDB() {
	boxes := []struct {
		code     string
		capacity int
		desc     string
	}{
		{"ESD-10", 10, "ESD box standard pack 10"},
		{"ESD-20", 20, "ESD box standard pack 20"},
		{"ESD-40", 40, "ESD box standard pack 40"},
		{"ESD-80", 80, "ESD box standard pack 80"},
		{"ESD-100", 100, "ESD box standard pack 100"},
	}
	for _, b := range boxes {
		db.Exec("INSERT OR IGNORE INTO esd_boxes (box_code, capacity, description) VALUES (?, ?, ?)",
			b.code, b.capacity, b.desc)
	}

	var opCount int
	db.QueryRow("SELECT COUNT(*) FROM operators WHERE employee_id = 'OQC001'").Scan(&opCount)
	if opCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash supervisor PIN: %v", err)
			return
		}
		db.Exec("INSERT INTO operators (employee_id, name, pin_hash, is_supervisor, department) VALUES (?, ?, ?, 1, 'OQC')",
			"OQC001", "OQC Supervisor", string(hash))
	}
}

func ns(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func sp(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func ni(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func ip(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// from the sqlite driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
