package models

import "time"

// ActivityLogEntry — append-only operational record. Entries are never
// updated or deleted; they have no identity beyond insertion order.
type ActivityLogEntry struct {
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Message   string         `bson:"message"   json:"message"`
	Context   map[string]any `bson:"context"   json:"context"`
}
