package main

import "oqcgate/internal/models"

// Type aliases so handler code and tests can use the unqualified names
// while the definitions live in internal/models.

type APIResponse = models.APIResponse
type Meta = models.Meta
type PartNumber = models.PartNumber
type EsdBox = models.EsdBox
type Operator = models.Operator
type ExitRecord = models.ExitRecord
type InspectionDetail = models.InspectionDetail
type OqcRejection = models.OqcRejection
type BoxScanInfo = models.BoxScanInfo
type BoxCheckResult = models.BoxCheckResult
type BoxEntry = models.BoxEntry
type ExitBatchRequest = models.ExitBatchRequest
type ExitBatchResult = models.ExitBatchResult
type RejectionRequest = models.RejectionRequest
type ExitStats = models.ExitStats
type PartStats = models.PartStats
type RejectionStats = models.RejectionStats
