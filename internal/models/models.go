package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type PartNumber struct {
	ID           int    `json:"id"`
	PartNumber   string `json:"part_number"`
	Description  string `json:"description"`
	StandardPack int    `json:"standard_pack"`
	Model        string `json:"model"`
	Customer     string `json:"customer"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type EsdBox struct {
	ID          int    `json:"id"`
	BoxCode     string `json:"box_code"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

type Operator struct {
	ID           int    `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Name         string `json:"name"`
	Pin          string `json:"pin,omitempty"`
	IsSupervisor bool   `json:"is_supervisor"`
	Department   string `json:"department"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
}

type ExitRecord struct {
	ID             int     `json:"id"`
	Folio          string  `json:"folio"`
	BoxCode        *string `json:"box_code"`
	PartNumberID   int     `json:"part_number_id"`
	EsdBoxID       int     `json:"esd_box_id"`
	OperatorID     int     `json:"operator_id"`
	EmployeeID     string  `json:"employee_id"`
	Quantity       int     `json:"quantity"`
	InspectionDate string  `json:"inspection_date"`
	ExitDate       string  `json:"exit_date"`
	Destination    string  `json:"destination"`
	Status         string  `json:"status"`
	Observations   string  `json:"observations"`
	QCPassed       bool    `json:"qc_passed"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`

	// Denormalized joins for list/detail views.
	PartNumber      string `json:"part_number,omitempty"`
	PartDescription string `json:"part_description,omitempty"`
	PartModel       string `json:"model,omitempty"`
	EsdBoxCode      string `json:"esd_box_code,omitempty"`
	EsdBoxCapacity  int    `json:"capacity,omitempty"`
	OperatorName    string `json:"operator_name,omitempty"`
}

type InspectionDetail struct {
	ID             int    `json:"id"`
	ExitRecordID   int    `json:"exit_record_id"`
	InspectionType string `json:"inspection_type"`
	Result         string `json:"result"`
	Notes          string `json:"notes"`
	InspectedBy    *int   `json:"inspected_by"`
	InspectedAt    string `json:"inspected_at"`
}

type OqcRejection struct {
	ID                 int     `json:"id"`
	RejectionFolio     string  `json:"rejection_folio"`
	ExitRecordID       *int    `json:"exit_record_id"`
	PartNumberID       int     `json:"part_number_id"`
	OperatorID         int     `json:"operator_id"`
	EmployeeID         string  `json:"employee_id"`
	ExpectedQuantity   int     `json:"expected_quantity"`
	ActualQuantity     int     `json:"actual_quantity"`
	QuantityDifference int     `json:"quantity_difference"`
	RejectionReason    string  `json:"rejection_reason"`
	BoxCodes           string  `json:"box_codes"`
	RejectionDate      string  `json:"rejection_date"`
	Status             string  `json:"status"`
	CorrectedBy        *int    `json:"corrected_by"`
	CorrectedAt        *string `json:"corrected_at"`
	CorrectionNotes    string  `json:"correction_notes"`
	ReturnFolio        string  `json:"return_folio"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`

	PartNumber      string `json:"part_number,omitempty"`
	PartModel       string `json:"model,omitempty"`
	PartDescription string `json:"part_description,omitempty"`
	OperatorName    string `json:"operator_name,omitempty"`
	CorrectedByName string `json:"corrected_by_name,omitempty"`
	ExitFolio       string `json:"exit_folio,omitempty"`
}

// BoxScanInfo is the aggregate view over the external scan ledger for
// one box code. Quantity is the number of unit scans recorded.
type BoxScanInfo struct {
	BoxCode      string `json:"box_code"`
	Quantity     int    `json:"quantity"`
	FirstScan    string `json:"first_scan"`
	LastScan     string `json:"last_scan"`
	FolderDate   string `json:"folder_date"`
	SampleSerial string `json:"sample_serial,omitempty"`
	PartNumber   string `json:"part_number"`
}

// BoxCheckResult reports the prior fate of a box code in exit_records.
type BoxCheckResult struct {
	Exists      bool   `json:"exists"`
	Folio       string `json:"folio,omitempty"`
	Destination string `json:"destination,omitempty"`
	Status      string `json:"status,omitempty"`
	QCPassed    bool   `json:"qc_passed,omitempty"`
	ExitDate    string `json:"exit_date,omitempty"`
	Disposition string `json:"disposition,omitempty"`
}

// BoxEntry is one box in a release batch.
type BoxEntry struct {
	BoxCode  string `json:"boxCode"`
	Quantity int    `json:"quantity"`
}

// ExitBatchRequest creates one folio covering one exit record per box.
type ExitBatchRequest struct {
	PartNumberID   int        `json:"part_number_id"`
	EsdBoxID       int        `json:"esd_box_id"`
	OperatorID     int        `json:"operator_id"`
	InspectionDate string     `json:"inspection_date"`
	ExitDate       string     `json:"exit_date"`
	Destination    string     `json:"destination"`
	Observations   string     `json:"observations"`
	QCPassed       *bool      `json:"qc_passed"`
	Boxes          []BoxEntry `json:"boxes"`
}

// ExitBatchResult is the outcome of a batch release.
type ExitBatchResult struct {
	Folio          string       `json:"folio"`
	RecordsCreated int          `json:"recordsCreated"`
	TotalQuantity  int          `json:"totalQuantity"`
	Records        []ExitRecord `json:"records"`
}

// RejectionRequest creates a new OQC rejection.
type RejectionRequest struct {
	ExitRecordID     int    `json:"exit_record_id"`
	PartNumberID     int    `json:"part_number_id"`
	OperatorID       int    `json:"operator_id"`
	ExpectedQuantity int    `json:"expected_quantity"`
	ActualQuantity   int    `json:"actual_quantity"`
	RejectionReason  string `json:"rejection_reason"`
	BoxCodes         string `json:"box_codes"`
}

type ExitStats struct {
	TotalRecords  int `json:"total_records"`
	TotalQuantity int `json:"total_quantity"`
	UniqueParts   int `json:"unique_parts"`
	Released      int `json:"released"`
	Pending       int `json:"pending"`
	Shipped       int `json:"shipped"`
}

type PartStats struct {
	PartNumber    string `json:"part_number"`
	Description   string `json:"description"`
	RecordCount   int    `json:"record_count"`
	TotalQuantity int    `json:"total_quantity"`
}

type RejectionStats struct {
	TotalRejections int `json:"total_rejections"`
	TotalDifference int `json:"total_difference"`
	Pending         int `json:"pending"`
	InReview        int `json:"in_review"`
	Corrected       int `json:"corrected"`
	Returned        int `json:"returned"`
}
