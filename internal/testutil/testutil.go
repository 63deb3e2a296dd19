package testutil

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// SetupTestDB creates an in-memory SQLite database with the full schema,
// foreign keys enabled, the ESD box catalog, and two known operators:
// OQC001 (supervisor, PIN 1234) and OP100 (operator, PIN 4321).
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	createTables(t, testDB)
	seed(t, testDB)
	return testDB
}

func createTables(t *testing.T, db *sql.DB) {
	t.Helper()
	tables := []struct {
		name string
		ddl  string
	}{
		{"part_numbers", `CREATE TABLE IF NOT EXISTS part_numbers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			part_number TEXT NOT NULL UNIQUE,
			description TEXT DEFAULT '',
			standard_pack INTEGER NOT NULL DEFAULT 10 CHECK(standard_pack > 0),
			model TEXT DEFAULT '',
			customer TEXT DEFAULT 'LG',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
		{"esd_boxes", `CREATE TABLE IF NOT EXISTS esd_boxes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			box_code TEXT NOT NULL UNIQUE,
			capacity INTEGER NOT NULL CHECK(capacity > 0),
			description TEXT DEFAULT '',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
		{"operators", `CREATE TABLE IF NOT EXISTS operators (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			pin_hash TEXT NOT NULL,
			is_supervisor INTEGER DEFAULT 0,
			department TEXT DEFAULT 'OQC',
			active INTEGER DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
		{"exit_records", `CREATE TABLE IF NOT EXISTS exit_records (
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
		)`},
		{"inspection_details", `CREATE TABLE IF NOT EXISTS inspection_details (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			exit_record_id INTEGER NOT NULL,
			inspection_type TEXT NOT NULL,
			result TEXT NOT NULL CHECK(result IN ('pass','fail','na')),
			notes TEXT DEFAULT '',
			inspected_by INTEGER,
			inspected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (exit_record_id) REFERENCES exit_records(id) ON DELETE CASCADE,
			FOREIGN KEY (inspected_by) REFERENCES operators(id)
		)`},
		{"oqc_rejections", `CREATE TABLE IF NOT EXISTS oqc_rejections (
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
		)`},
		{"box_scans", `CREATE TABLE IF NOT EXISTS box_scans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			box_code TEXT NOT NULL,
			serial TEXT NOT NULL,
			first_scan DATETIME,
			last_scan DATETIME,
			folder_date TEXT DEFAULT ''
		)`},
		{"audit_log", `CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operator TEXT DEFAULT '',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT DEFAULT '',
			summary TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`},
	}
	for _, tbl := range tables {
		if _, err := db.Exec(tbl.ddl); err != nil {
			t.Fatalf("Failed to create %s table: %v", tbl.name, err)
		}
	}
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	boxes := [][2]any{{"ESD-10", 10}, {"ESD-20", 20}, {"ESD-40", 40}, {"ESD-80", 80}, {"ESD-100", 100}}
	for _, b := range boxes {
		if _, err := db.Exec("INSERT INTO esd_boxes (box_code, capacity) VALUES (?, ?)", b[0], b[1]); err != nil {
			t.Fatalf("Failed to seed esd_boxes: %v", err)
		}
	}

	ops := []struct {
		employeeID, name, pin string
		supervisor            int
	}{
		{"OQC001", "OQC Supervisor", "1234", 1},
		{"OP100", "Line Operator", "4321", 0},
	}
	for _, op := range ops {
		hash, err := bcrypt.GenerateFromPassword([]byte(op.pin), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Failed to hash PIN: %v", err)
		}
		if _, err := db.Exec("INSERT INTO operators (employee_id, name, pin_hash, is_supervisor) VALUES (?, ?, ?, ?)",
			op.employeeID, op.name, string(hash), op.supervisor); err != nil {
			t.Fatalf("Failed to seed operators: %v", err)
		}
	}
}

// SeedPartNumber inserts one part number and returns its id.
func SeedPartNumber(t *testing.T, db *sql.DB, partNumber string) int {
	t.Helper()
	res, err := db.Exec("INSERT INTO part_numbers (part_number, description, standard_pack, model) VALUES (?, 'Test part', 10, 'Z100')",
		partNumber)
	if err != nil {
		t.Fatalf("Failed to seed part number: %v", err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

// SeedBoxScans inserts n unit scans for one box code.
func SeedBoxScans(t *testing.T, db *sql.DB, boxCode, serial string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := db.Exec(`INSERT INTO box_scans (box_code, serial, first_scan, last_scan, folder_date)
			VALUES (?, ?, '2025-01-01 08:00:00', '2025-01-01 09:30:00', '2025-01-01')`, boxCode, serial); err != nil {
			t.Fatalf("Failed to seed box scans: %v", err)
		}
	}
}

// DecodeEnvelope decodes the standard {data} response envelope into v.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("Failed to decode envelope data: %v", err)
	}
}
