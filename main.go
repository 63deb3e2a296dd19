package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"oqcgate/internal/response"
)

func main() {
	port := flag.Int("port", 9000, "HTTP port")
	dbPath := flag.String("db", "oqcgate.db", "SQLite database path")
	configPath := flag.String("config", "oqcgate.yaml", "Plant config file (YAML, optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("Config load failed:", err)
	}
	appConfig = cfg

	// Folio day-prefixes follow plant local time, not server time.
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		folioNow = func() time.Time { return time.Now().In(loc) }
	} else {
		log.Printf("Unknown timezone %q, folios use server time", cfg.Timezone)
	}

	if err := initDB(*dbPath); err != nil {
		log.Fatal("DB init failed:", err)
	}
	seedDB()

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", handleWebSocket)
	mux.HandleFunc("/api/v1/", routeAPI)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("%s OQC gate server starting on http://localhost%s", cfg.PlantName, addr)
	log.Fatal(http.ListenAndServe(addr, logging(mux)))
}

// routeAPI dispatches /api/v1/ requests with a simple path switch.
func routeAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
	path = strings.TrimSuffix(path, "/")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "exit-records":
		routeExitRecords(w, r, parts)
	case "rejections":
		routeRejections(w, r, parts)
	case "box-scans":
		routeBoxScans(w, r, parts)
	case "part-numbers":
		routePartNumbers(w, r, parts)
	case "operators":
		routeOperators(w, r, parts)
	case "esd-boxes":
		routeEsdBoxes(w, r, parts)
	case "export":
		if len(parts) == 2 && parts[1] == "exit-records" && r.Method == "GET" {
			handleExportExitRecords(w, r)
			return
		}
		jsonErr(w, "not found", 404)
	default:
		jsonErr(w, "not found", 404)
	}
}

func routeExitRecords(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && r.Method == "GET":
		handleListExitRecords(w, r)
	case len(parts) == 1 && r.Method == "POST":
		handleCreateExitRecord(w, r)
	case len(parts) == 2 && parts[1] == "batch" && r.Method == "POST":
		handleCreateExitBatch(w, r)
	case len(parts) == 2 && parts[1] == "stats" && r.Method == "GET":
		handleExitStats(w, r)
	case len(parts) == 3 && parts[1] == "stats" && parts[2] == "by-part" && r.Method == "GET":
		handleExitStatsByPart(w, r)
	case len(parts) == 3 && parts[1] == "validate-box" && r.Method == "GET":
		handleValidateBox(w, r, parts[2])
	case len(parts) == 2 && parts[1] == "validate-boxes" && r.Method == "POST":
		handleValidateBoxes(w, r)
	case len(parts) == 3 && parts[1] == "folio" && r.Method == "GET":
		handleGetExitByFolio(w, r, parts[2])
	case len(parts) == 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			jsonErr(w, "invalid id", 400)
			return
		}
		switch r.Method {
		case "GET":
			handleGetExitRecord(w, r, id)
		case "PUT":
			handleUpdateExitRecord(w, r, id)
		case "DELETE":
			handleCancelExitRecord(w, r, id)
		default:
			jsonErr(w, "method not allowed", 405)
		}
	case len(parts) == 3:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			jsonErr(w, "invalid id", 400)
			return
		}
		switch {
		case parts[2] == "status" && r.Method == "PATCH":
			handleUpdateExitStatus(w, r, id)
		case parts[2] == "inspections" && r.Method == "GET":
			handleListInspections(w, r, id)
		case parts[2] == "inspections" && r.Method == "POST":
			handleAddInspection(w, r, id)
		default:
			jsonErr(w, "not found", 404)
		}
	default:
		jsonErr(w, "not found", 404)
	}
}

func routeRejections(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && r.Method == "GET":
		handleListRejections(w, r)
	case len(parts) == 1 && r.Method == "POST":
		handleCreateRejection(w, r)
	case len(parts) == 2 && parts[1] == "pending-count" && r.Method == "GET":
		handlePendingRejectionCount(w, r)
	case len(parts) == 2 && parts[1] == "stats" && r.Method == "GET":
		handleRejectionStats(w, r)
	case len(parts) == 3 && parts[1] == "folio" && r.Method == "GET":
		handleGetRejectionByFolio(w, r, parts[2])
	case len(parts) >= 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			jsonErr(w, "invalid id", 400)
			return
		}
		switch {
		case len(parts) == 2 && r.Method == "GET":
			handleGetRejection(w, r, id)
		case len(parts) == 3 && parts[2] == "status" && r.Method == "PATCH":
			handleUpdateRejectionStatus(w, r, id)
		case len(parts) == 3 && parts[2] == "return" && r.Method == "PATCH":
			handleLinkReturn(w, r, id)
		default:
			jsonErr(w, "not found", 404)
		}
	default:
		jsonErr(w, "not found", 404)
	}
}

func routeBoxScans(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 3 && parts[1] == "quantity" && r.Method == "GET":
		handleBoxQuantity(w, r, parts[2])
	case len(parts) == 3 && parts[1] == "exists" && r.Method == "GET":
		handleBoxExists(w, r, parts[2])
	case len(parts) == 2 && parts[1] == "multiple" && r.Method == "POST":
		handleMultipleBoxes(w, r)
	default:
		jsonErr(w, "not found", 404)
	}
}

func routePartNumbers(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && r.Method == "GET":
		handleListPartNumbers(w, r)
	case len(parts) == 1 && r.Method == "POST":
		handleCreatePartNumber(w, r)
	case len(parts) == 2 && parts[1] == "search" && r.Method == "GET":
		handleSearchPartNumbers(w, r)
	case len(parts) == 2 && parts[1] == "bulk" && r.Method == "POST":
		handleBulkCreatePartNumbers(w, r)
	case len(parts) == 2 && parts[1] == "import" && r.Method == "POST":
		handleImportPartNumbers(w, r)
	case len(parts) == 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			jsonErr(w, "invalid id", 400)
			return
		}
		switch r.Method {
		case "GET":
			handleGetPartNumber(w, r, id)
		case "PUT":
			handleUpdatePartNumber(w, r, id)
		case "DELETE":
			handleDeletePartNumber(w, r, id)
		default:
			jsonErr(w, "method not allowed", 405)
		}
	default:
		jsonErr(w, "not found", 404)
	}
}

func routeOperators(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && r.Method == "GET":
		handleListOperators(w, r)
	case len(parts) == 1 && r.Method == "POST":
		handleCreateOperator(w, r)
	case len(parts) == 2 && parts[1] == "validate-pin" && r.Method == "POST":
		handleValidatePin(w, r)
	case len(parts) == 2 && parts[1] == "validate-supervisor" && r.Method == "POST":
		handleValidateSupervisorPin(w, r)
	case len(parts) == 3 && parts[1] == "employee" && r.Method == "GET":
		handleGetOperatorByEmployeeID(w, r, parts[2])
	case len(parts) >= 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			jsonErr(w, "invalid id", 400)
			return
		}
		switch {
		case len(parts) == 2 && r.Method == "GET":
			handleGetOperator(w, r, id)
		case len(parts) == 2 && r.Method == "PUT":
			handleUpdateOperator(w, r, id)
		case len(parts) == 2 && r.Method == "DELETE":
			handleDeleteOperator(w, r, id)
		case len(parts) == 3 && parts[2] == "pin" && r.Method == "PUT":
			handleUpdateOperatorPin(w, r, id)
		default:
			jsonErr(w, "not found", 404)
		}
	default:
		jsonErr(w, "not found", 404)
	}
}

func routeEsdBoxes(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case len(parts) == 1 && r.Method == "GET":
		handleListEsdBoxes(w, r)
	case len(parts) == 1 && r.Method == "POST":
		handleCreateEsdBox(w, r)
	case len(parts) == 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			jsonErr(w, "invalid id", 400)
			return
		}
		switch r.Method {
		case "GET":
			handleGetEsdBox(w, r, id)
		case "PUT":
			handleUpdateEsdBox(w, r, id)
		default:
			jsonErr(w, "method not allowed", 405)
		}
	default:
		jsonErr(w, "not found", 404)
	}
}

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func jsonResp(w http.ResponseWriter, data interface{}) {
	response.JSON(w, data)
}

func jsonRespMeta(w http.ResponseWriter, data interface{}, total, page, limit int) {
	response.JSONMeta(w, data, total, page, limit)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	response.Err(w, msg, code)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}
