// internal/app/system/status/status.go
package status

// Record statuses shared across collections. Stored as plain strings so
// queries and indexes stay simple.
const (
	Active   = "active"
	Disabled = "disabled"
)
