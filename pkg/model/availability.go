package model

import "time"

// Window is a contiguous bookable time range on a weekday. Times are
// zone-naive "HH:MM" strings; an inactive window is ignored entirely.
type Window struct {
	StartTime string `json:"start_time" bson:"start_time" validate:"omitempty,time_hhmm"`
	EndTime   string `json:"end_time" bson:"end_time" validate:"omitempty,time_hhmm"`
	IsActive  bool   `json:"is_active" bson:"is_active"`
}

// DayAvailability describes one weekday of a recurring schedule. A day may
// carry zero, one, or two active windows; morning must end no later than
// evening starts.
type DayAvailability struct {
	IsAvailable bool   `json:"is_available" bson:"is_available"`
	Morning     Window `json:"morning" bson:"morning"`
	Evening     Window `json:"evening" bson:"evening"`
}

// AvailabilityTemplate is a professional's recurring weekly schedule, the
// single source of truth slots are lazily expanded from. Days are indexed
// Sunday through Saturday, matching time.Weekday ordinals.
type AvailabilityTemplate struct {
	ID             string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProfessionalID string            `json:"professional_id" bson:"professional_id" validate:"required"`
	Days           []DayAvailability `json:"days" bson:"days" validate:"required,len=7,dive"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// DaySlots is one date's worth of candidate or available "HH:MM" times.
// It is never persisted; its lifetime is a single query.
type DaySlots struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}
