package monitor

import (
	"strings"

	"github.com/nexioai/nexio-ingest/internal/db"
)

// ClassifySeverity maps an execution error message to a severity by
// case-insensitive keyword match. The rule chain is order-sensitive and
// the first match wins. Isolated here so the monitor's control flow
// never changes if the rules do.
func ClassifySeverity(message string) db.Severity {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "critical"), strings.Contains(lower, "fatal"):
		return db.SeverityCritical
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "connection"):
		return db.SeverityHigh
	case strings.Contains(lower, "warning"):
		return db.SeverityLow
	default:
		return db.SeverityMedium
	}
}
