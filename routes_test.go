package main

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"testing"

	"oqcgate/internal/models"
	"oqcgate/internal/testutil"
)

func TestRouteAPI(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	partID := testutil.SeedPartNumber(t, db, "EBR30299301")

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list exit records", "GET", "/api/v1/exit-records", "", 200},
		{"exit stats", "GET", "/api/v1/exit-records/stats", "", 200},
		{"validate box", "GET", "/api/v1/exit-records/validate-box/BOX-RT", "", 200},
		{"unknown folio", "GET", "/api/v1/exit-records/folio/OQC9901010001", "", 404},
		{"bad exit id", "GET", "/api/v1/exit-records/abc", "", 400},
		{"list rejections", "GET", "/api/v1/rejections", "", 200},
		{"pending count", "GET", "/api/v1/rejections/pending-count", "", 200},
		{"list part numbers", "GET", "/api/v1/part-numbers", "", 200},
		{"get part", "GET", fmt.Sprintf("/api/v1/part-numbers/%d", partID), "", 200},
		{"list operators", "GET", "/api/v1/operators", "", 200},
		{"operator by employee id", "GET", "/api/v1/operators/employee/OQC001", "", 200},
		{"list esd boxes", "GET", "/api/v1/esd-boxes", "", 200},
		{"box scan exists", "GET", "/api/v1/box-scans/exists/BOX-RT", "", 200},
		{"export csv", "GET", "/api/v1/export/exit-records", "", 200},
		{"unknown resource", "GET", "/api/v1/nothing-here", "", 404},
		{"unknown subpath", "GET", "/api/v1/box-scans/bogus/x/y", "", 404},
		{"method not allowed", "DELETE", fmt.Sprintf("/api/v1/esd-boxes/%d", 1), "", 405},
		{"create then route batch", "POST", "/api/v1/exit-records/batch",
			fmt.Sprintf(`{"part_number_id":%d,"esd_box_id":1,"operator_id":1,"inspection_date":"2026-03-15","boxes":[{"boxCode":"BOX-RT","quantity":10}]}`, partID), 201},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			routeAPI(w, r)
			if w.Code != tc.want {
				t.Errorf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouteAPI_TrailingSlash(t *testing.T) {
	oldDB := db
	db = testutil.SetupTestDB(t)
	defer func() { db.Close(); db = oldDB }()

	r := httptest.NewRequest("GET", "/api/v1/exit-records/", nil)
	w := httptest.NewRecorder()
	routeAPI(w, r)
	if w.Code != 200 {
		t.Errorf("Expected trailing slash to route, got %d", w.Code)
	}

	var items []models.ExitRecord
	testutil.DecodeEnvelope(t, w, &items)
	if items == nil {
		t.Error("Expected empty array, not null")
	}
}
