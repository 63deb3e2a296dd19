package main

import (
	"net/http"
	"strconv"

	"oqcgate/internal/validation"

	"github.com/xuri/excelize/v2"
)

const partNumberSelect = `SELECT id, part_number, COALESCE(description,''), standard_pack,
	COALESCE(model,''), COALESCE(customer,''), active, created_at, updated_at FROM part_numbers`

func scanPartNumber(row interface{ Scan(...any) error }) (*PartNumber, error) {
	var p PartNumber
	var active int
	err := row.Scan(&p.ID, &p.PartNumber, &p.Description, &p.StandardPack,
		&p.Model, &p.Customer, &active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Active = active == 1
	return &p, nil
}

func handleListPartNumbers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(partNumberSelect + " WHERE active = 1 ORDER BY part_number")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []PartNumber{}
	for rows.Next() {
		p, err := scanPartNumber(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, *p)
	}
	jsonResp(w, items)
}

func handleSearchPartNumbers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	rows, err := db.Query(partNumberSelect+` WHERE active = 1
		AND (part_number LIKE ? OR description LIKE ? OR model LIKE ?)
		ORDER BY part_number LIMIT 50`, "%"+q+"%", "%"+q+"%", "%"+q+"%")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []PartNumber{}
	for rows.Next() {
		p, err := scanPartNumber(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, *p)
	}
	jsonResp(w, items)
}

func handleGetPartNumber(w http.ResponseWriter, r *http.Request, id int) {
	p, err := scanPartNumber(db.QueryRow(partNumberSelect+" WHERE id = ?", id))
	if err != nil {
		jsonErr(w, "part number not found", 404)
		return
	}
	jsonResp(w, p)
}

func handleCreatePartNumber(w http.ResponseWriter, r *http.Request) {
	var p PartNumber
	if err := decodeBody(r, &p); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "part_number", p.PartNumber)
	if p.StandardPack == 0 {
		p.StandardPack = 10
	}
	validation.ValidatePositiveInt(ve, "standard_pack", p.StandardPack)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if p.Customer == "" {
		p.Customer = appConfig.DefaultCustomer
	}

	res, err := db.Exec(`INSERT INTO part_numbers (part_number, description, standard_pack, model, customer)
		VALUES (?, ?, ?, ?, ?)`,
		p.PartNumber, p.Description, p.StandardPack, p.Model, p.Customer)
	if err != nil {
		if isUniqueViolation(err) {
			jsonErr(w, "part number already exists", 400)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}

	id, _ := res.LastInsertId()
	logAudit(db, "", AuditActionCreate, "part_number", p.PartNumber, "Created part number "+p.PartNumber)
	w.WriteHeader(201)
	handleGetPartNumberByID(w, int(id))
}

func handleGetPartNumberByID(w http.ResponseWriter, id int) {
	p, err := scanPartNumber(db.QueryRow(partNumberSelect+" WHERE id = ?", id))
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, p)
}

func handleUpdatePartNumber(w http.ResponseWriter, r *http.Request, id int) {
	var p PartNumber
	if err := decodeBody(r, &p); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	active := 0
	if p.Active {
		active = 1
	}
	_, err := db.Exec(`UPDATE part_numbers SET part_number = ?, description = ?, standard_pack = ?,
			model = ?, customer = ?, active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		p.PartNumber, p.Description, p.StandardPack, p.Model, p.Customer, active, id)
	if err != nil {
		if isUniqueViolation(err) {
			jsonErr(w, "part number already exists", 400)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionUpdate, "part_number", strconv.Itoa(id), "Updated part number "+p.PartNumber)
	handleGetPartNumber(w, r, id)
}

// handleDeletePartNumber soft-deletes. Part numbers referenced by exit
// records keep their identity forever.
func handleDeletePartNumber(w http.ResponseWriter, r *http.Request, id int) {
	_, err := db.Exec("UPDATE part_numbers SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionDelete, "part_number", strconv.Itoa(id), "Deactivated part number")
	jsonResp(w, map[string]string{"deleted": strconv.Itoa(id)})
}

func handleBulkCreatePartNumbers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []PartNumber `json:"records"`
	}
	if err := decodeBody(r, &req); err != nil || req.Records == nil {
		jsonErr(w, "records must be an array", 400)
		return
	}

	count := 0
	for _, p := range req.Records {
		if p.PartNumber == "" {
			continue
		}
		if p.StandardPack == 0 {
			p.StandardPack = 10
		}
		if p.Customer == "" {
			p.Customer = appConfig.DefaultCustomer
		}
		_, err := db.Exec(`INSERT INTO part_numbers (part_number, description, standard_pack, model, customer)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(part_number) DO UPDATE SET description = excluded.description,
				standard_pack = excluded.standard_pack, model = excluded.model,
				customer = excluded.customer, updated_at = CURRENT_TIMESTAMP`,
			p.PartNumber, p.Description, p.StandardPack, p.Model, p.Customer)
		if err == nil {
			count++
		}
	}
	logAudit(db, "", AuditActionCreate, "part_number", "bulk", strconv.Itoa(count)+" part numbers loaded")
	jsonResp(w, map[string]int{"loaded": count})
}

// handleImportPartNumbers loads the part catalog from an uploaded XLSX.
// Expected columns: part_number, description, standard_pack, model,
// customer. The first row is a header.
func handleImportPartNumbers(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		jsonErr(w, "file is required", 400)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		jsonErr(w, "invalid xlsx file", 400)
		return
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	xrows, err := f.GetRows(sheet)
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}

	count := 0
	for i, row := range xrows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		p := PartNumber{PartNumber: row[0], StandardPack: 10, Customer: appConfig.DefaultCustomer}
		if len(row) > 1 {
			p.Description = row[1]
		}
		if len(row) > 2 {
			if n, err := strconv.Atoi(row[2]); err == nil && n > 0 {
				p.StandardPack = n
			}
		}
		if len(row) > 3 {
			p.Model = row[3]
		}
		if len(row) > 4 && row[4] != "" {
			p.Customer = row[4]
		}
		_, err := db.Exec(`INSERT INTO part_numbers (part_number, description, standard_pack, model, customer)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(part_number) DO UPDATE SET description = excluded.description,
				standard_pack = excluded.standard_pack, model = excluded.model,
				customer = excluded.customer, updated_at = CURRENT_TIMESTAMP`,
			p.PartNumber, p.Description, p.StandardPack, p.Model, p.Customer)
		if err == nil {
			count++
		}
	}

	logAudit(db, "", AuditActionCreate, "part_number", "import", strconv.Itoa(count)+" part numbers imported")
	jsonResp(w, map[string]int{"imported": count})
}
