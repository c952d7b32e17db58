package domain

import "time"

// AuditFields is embedded by every persisted record. Version backs
// optimistic locking on row updates; the By fields record the acting user,
// or a system marker for scheduler-driven writes.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
	Version       int64     `json:"version"`       // Incremented on every write
}
