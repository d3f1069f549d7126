// internal/models/progress.go
package models

import "time"

// ProgressTTL is the expiry window for resumable progress. Records older than
// this are purged rather than resumed.
const ProgressTTL = 24 * time.Hour

// StoredProgress is the serialized snapshot enabling session resumption.
// It is a cache of the machine's state, never a source of truth.
type StoredProgress struct {
	Data        *AssessmentDraft `json:"data"`
	CurrentStep int              `json:"currentStep"`
	Timestamp   int64            `json:"timestamp"` // epoch millis
}

// SavedAt returns the snapshot time.
func (p *StoredProgress) SavedAt() time.Time {
	return time.UnixMilli(p.Timestamp)
}

// IsExpired reports whether the snapshot is older than the expiry window.
func (p *StoredProgress) IsExpired(now time.Time) bool {
	return now.Sub(p.SavedAt()) > ProgressTTL
}
