package model

import "time"

// SlotLock is an advisory lock keyed by (professional, date, time) that
// serializes concurrent booking attempts on the same slot. Locks auto-expire
// via a TTL index on expires_at.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
