package main

import (
	"net/http"
	"strconv"

	"oqcgate/internal/validation"
)

const esdBoxSelect = `SELECT id, box_code, capacity, COALESCE(description,''), active, created_at FROM esd_boxes`

func scanEsdBox(row interface{ Scan(...any) error }) (*EsdBox, error) {
	var b EsdBox
	var active int
	err := row.Scan(&b.ID, &b.BoxCode, &b.Capacity, &b.Description, &active, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Active = active == 1
	return &b, nil
}

func handleListEsdBoxes(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(esdBoxSelect + " WHERE active = 1 ORDER BY capacity")
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []EsdBox{}
	for rows.Next() {
		b, err := scanEsdBox(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		items = append(items, *b)
	}
	jsonResp(w, items)
}

func handleGetEsdBox(w http.ResponseWriter, r *http.Request, id int) {
	b, err := scanEsdBox(db.QueryRow(esdBoxSelect+" WHERE id = ?", id))
	if err != nil {
		jsonErr(w, "ESD box not found", 404)
		return
	}
	jsonResp(w, b)
}

func handleCreateEsdBox(w http.ResponseWriter, r *http.Request) {
	var b EsdBox
	if err := decodeBody(r, &b); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "box_code", b.BoxCode)
	validation.ValidatePositiveInt(ve, "capacity", b.Capacity)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	res, err := db.Exec("INSERT INTO esd_boxes (box_code, capacity, description) VALUES (?, ?, ?)",
		b.BoxCode, b.Capacity, b.Description)
	if err != nil {
		if isUniqueViolation(err) {
			jsonErr(w, "box code already exists", 400)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}

	id, _ := res.LastInsertId()
	logAudit(db, "", AuditActionCreate, "esd_box", b.BoxCode, "Created ESD box type "+b.BoxCode)
	w.WriteHeader(201)
	handleGetEsdBox(w, r, int(id))
}

func handleUpdateEsdBox(w http.ResponseWriter, r *http.Request, id int) {
	var b EsdBox
	if err := decodeBody(r, &b); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	active := 0
	if b.Active {
		active = 1
	}
	_, err := db.Exec("UPDATE esd_boxes SET box_code = ?, capacity = ?, description = ?, active = ? WHERE id = ?",
		b.BoxCode, b.Capacity, b.Description, active, id)
	if err != nil {
		if isUniqueViolation(err) {
			jsonErr(w, "box code already exists", 400)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}
	logAudit(db, "", AuditActionUpdate, "esd_box", strconv.Itoa(id), "Updated ESD box type "+b.BoxCode)
	handleGetEsdBox(w, r, id)
}
