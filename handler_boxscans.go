package main

import (
	"net/http"
	"strings"
)

func handleBoxQuantity(w http.ResponseWriter, r *http.Request, boxCode string) {
	boxCode = strings.TrimSpace(boxCode)
	if boxCode == "" {
		jsonErr(w, "box code is required", 400)
		return
	}

	info, err := boxQuantity(boxCode)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if info == nil {
		jsonErr(w, "box code not found in scan ledger", 404)
		return
	}
	jsonResp(w, info)
}

func handleBoxExists(w http.ResponseWriter, r *http.Request, boxCode string) {
	exists, err := boxScanExists(boxCode)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, map[string]bool{"exists": exists})
}

func handleMultipleBoxes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BoxCodes []string `json:"boxCodes"`
	}
	if err := decodeBody(r, &req); err != nil || req.BoxCodes == nil {
		jsonErr(w, "boxCodes must be an array", 400)
		return
	}

	boxes, err := boxQuantities(req.BoxCodes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, boxes)
}
