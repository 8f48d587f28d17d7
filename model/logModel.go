// model/log.go
package model

import "time"

// LogEntry is one line of the activity log. Writes are best-effort and never
// part of a business transaction.
type LogEntry struct {
	ID        int64     `json:"id" db:"id"`
	UserID    *int64    `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Entity    string    `json:"entity" db:"entity"`
	EntityID  *int64    `json:"entity_id,omitempty" db:"entity_id"`
	Detail    string    `json:"detail" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
