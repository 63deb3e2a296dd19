package validation

// Enum values - these MUST match the DB CHECK constraints in the migrations.
var (
	ValidExitStatuses      = []string{"pending", "released", "shipped", "cancelled"}
	ValidRejectionStatuses = []string{"pending", "in_review", "corrected", "returned"}
	ValidInspectionResults = []string{"pass", "fail", "na"}
)

// ExitTransitions lists the allowed exit-record status moves. Cancelled
// and shipped are terminal.
var ExitTransitions = map[string][]string{
	"pending":   {"released", "cancelled"},
	"released":  {"shipped", "cancelled"},
	"shipped":   {},
	"cancelled": {},
}

// RejectionTransitions lists the allowed rejection status moves. The path
// is forward-only but correction may be bypassed; returned is terminal.
var RejectionTransitions = map[string][]string{
	"pending":   {"in_review", "corrected", "returned"},
	"in_review": {"corrected", "returned"},
	"corrected": {"returned"},
	"returned":  {},
}

// CanTransition reports whether a status move is allowed by the given table.
func CanTransition(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}
