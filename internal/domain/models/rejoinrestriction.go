// internal/domain/models/rejoinrestriction.go
package models

import "time"

// RejoinRestriction records a withdrawn identity by phone number so that
// re-registration can be refused while the cool-down window is open.
// The document is written once at withdrawal and never updated or cleaned
// up; it expires by time comparison, not deletion. A stale entry past the
// window never denies anyone again.
type RejoinRestriction struct {
	Phone       string    `bson:"_id" json:"phone"`
	WithdrawnAt time.Time `bson:"withdrawn_at" json:"withdrawn_at"`
}
