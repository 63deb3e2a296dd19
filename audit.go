package main

import (
	"database/sql"

	"oqcgate/internal/audit"
)

// Audit action constant aliases.
const (
	AuditActionCreate  = audit.ActionCreate
	AuditActionUpdate  = audit.ActionUpdate
	AuditActionDelete  = audit.ActionDelete
	AuditActionExport  = audit.ActionExport
	AuditActionRelease = audit.ActionRelease
	AuditActionCancel  = audit.ActionCancel
	AuditActionReject  = audit.ActionReject
	AuditActionReturn  = audit.ActionReturn
)

// logAudit delegates to internal/audit, injecting the global db and hub.
func logAudit(db *sql.DB, operator, action, module, recordID, summary string) {
	audit.LogAudit(db, wsHub, operator, action, module, recordID, summary)
}
