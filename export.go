package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"
)

func exportCSV(w http.ResponseWriter, filename string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		http.Error(w, "Failed to write CSV headers", 500)
		return
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			http.Error(w, "Failed to write CSV row", 500)
			return
		}
	}
}

func exportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, "Failed to create Excel sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		http.Error(w, "Failed to create header style", 500)
		return
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	f.DeleteSheet("Sheet1")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", sheetName))
	f.Write(w)
}

// handleExportExitRecords exports the release log for a date range.
func handleExportExitRecords(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	query := exitRecordSelect + " WHERE 1=1"
	var args []any
	if start := r.URL.Query().Get("startDate"); start != "" {
		query += " AND DATE(er.exit_date) >= ?"
		args = append(args, start)
	}
	if end := r.URL.Query().Get("endDate"); end != "" {
		query += " AND DATE(er.exit_date) <= ?"
		args = append(args, end)
	}
	query += " ORDER BY er.folio, er.id"

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	headers := []string{"Folio", "Box Code", "Part Number", "Model", "Quantity",
		"Inspection Date", "Exit Date", "Destination", "Status", "QC Passed", "Operator"}
	var data [][]string
	for rows.Next() {
		rec, err := scanExitRecord(rows)
		if err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
		boxCode := ""
		if rec.BoxCode != nil {
			boxCode = *rec.BoxCode
		}
		data = append(data, []string{
			rec.Folio, boxCode, rec.PartNumber, rec.PartModel, strconv.Itoa(rec.Quantity),
			rec.InspectionDate, rec.ExitDate, rec.Destination, rec.Status,
			strconv.FormatBool(rec.QCPassed), rec.OperatorName,
		})
	}

	logAudit(db, "", AuditActionExport, "exit_record", format, strconv.Itoa(len(data))+" records exported")

	if format == "xlsx" {
		exportExcel(w, "ExitRecords", headers, data)
	} else {
		exportCSV(w, "exit_records.csv", headers, data)
	}
}
