package entity

import "time"

// AuditLogEntry is one append-only record of a mutation. Old/new values and
// metadata are stored as JSON text; empty strings mean "not captured".
type AuditLogEntry struct {
	ID            int64     `json:"id"`
	CorrelationID string    `json:"correlation_id"`
	ActorID       int64     `json:"actor_id"`
	ActorName     string    `json:"actor_name"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      int64     `json:"entity_id"`
	Description   string    `json:"description,omitempty"`
	OldValues     string    `json:"old_values,omitempty"`
	NewValues     string    `json:"new_values,omitempty"`
	Metadata      string    `json:"metadata,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Actor identifies who performed a mutation, for audit stamping.
type Actor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
