package audit

import (
	"database/sql"
	"log"
	"strings"

	"oqcgate/internal/websocket"
)

// Action constants.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionExport  = "EXPORT"
	ActionRelease = "RELEASE"
	ActionCancel  = "CANCEL"
	ActionReject  = "REJECT"
	ActionReturn  = "RETURN"
)

// LogAudit records one audit row and broadcasts the change. Failures are
// logged, never surfaced: the audit trail must not break the workflow.
func LogAudit(db *sql.DB, hub *websocket.Hub, operator, action, module, recordID, summary string) {
	_, err := db.Exec("INSERT INTO audit_log (operator, action, module, record_id, summary) VALUES (?, ?, ?, ?, ?)",
		operator, action, module, recordID, summary)
	if err != nil {
		log.Printf("audit log error: %v", err)
	}
	if hub != nil {
		hub.Broadcast(websocket.Event{
			Type:   module + "_" + strings.ToLower(action) + "d",
			ID:     recordID,
			Action: action,
		})
	}
}
