package model

import "time"

type AppointmentStatus string

const (
	StatusRequested   AppointmentStatus = "requested"
	StatusApproved    AppointmentStatus = "approved"
	StatusRejected    AppointmentStatus = "rejected"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
)

// SlotHoldingStatuses are the statuses that keep a (professional, date,
// time) slot occupied. Only rejection and cancellation free a slot.
var SlotHoldingStatuses = []AppointmentStatus{
	StatusRequested,
	StatusApproved,
	StatusRescheduled,
	StatusCompleted,
}

// CancellableStatuses are the non-terminal statuses a cancel may act on.
var CancellableStatuses = []AppointmentStatus{
	StatusRequested,
	StatusApproved,
	StatusRescheduled,
}

// Terminal reports whether no further transition may leave the status.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type AppointmentType string

const (
	TypeDirect              AppointmentType = "direct"
	TypeThroughOrganization AppointmentType = "through_organization"
)

type UrgencyLevel string

const (
	UrgencyRoutine   UrgencyLevel = "routine"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyEmergency UrgencyLevel = "emergency"
)

// SuggestedTime is an alternative slot offered on reschedule.
type SuggestedTime struct {
	Date string `json:"date" bson:"date" validate:"required,date_ymd"`
	Time string `json:"time" bson:"time" validate:"required,time_hhmm"`
}

// Appointment is never deleted; it only transitions between statuses.
// Dates are zone-naive "YYYY-MM-DD" strings and times "HH:MM" strings,
// which makes the uniqueness tuple (professional_id, appointment_date,
// appointment_time) directly indexable.
type Appointment struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PatientID       string            `json:"patient_id" bson:"patient_id" validate:"required"`
	ProfessionalID  string            `json:"professional_id" bson:"professional_id" validate:"required"`
	OrganizationID  string            `json:"organization_id,omitempty" bson:"organization_id,omitempty" validate:"omitempty"`
	AppointmentDate string            `json:"appointment_date" bson:"appointment_date" validate:"required,date_ymd"`
	AppointmentTime string            `json:"appointment_time" bson:"appointment_time" validate:"required,time_hhmm"`
	DurationMin     int               `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	Status          AppointmentStatus `json:"status" bson:"status" validate:"required,oneof=requested approved rejected rescheduled completed cancelled"`
	UrgencyLevel    UrgencyLevel      `json:"urgency_level" bson:"urgency_level" validate:"required,oneof=routine urgent emergency"`
	Reason          string            `json:"reason" bson:"reason" validate:"required,min=2,max=500"`
	PatientNotes    string            `json:"patient_notes,omitempty" bson:"patient_notes,omitempty" validate:"omitempty,max=1000"`
	ProfNotes       string            `json:"professional_notes,omitempty" bson:"professional_notes,omitempty" validate:"omitempty,max=1000"`
	RejectionReason string            `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty" validate:"omitempty,max=500"`
	SuggestedTimes  []SuggestedTime   `json:"suggested_times,omitempty" bson:"suggested_times,omitempty" validate:"omitempty,max=5,dive"`
	Type            AppointmentType   `json:"type" bson:"type" validate:"required,oneof=direct through_organization"`
	Department      string            `json:"department,omitempty" bson:"department,omitempty" validate:"omitempty,max=100"`
	SubmittedAt     time.Time         `json:"submitted_at" bson:"submitted_at" validate:"omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty" validate:"omitempty"`
}

type ReviewAction string

const (
	ActionApprove    ReviewAction = "approve"
	ActionReject     ReviewAction = "reject"
	ActionReschedule ReviewAction = "reschedule"
)

// ReviewRequest is the payload of a review decision on a requested
// appointment. RejectionReason is required for reject, SuggestedTimes for
// reschedule; the validator enforces both.
type ReviewRequest struct {
	Action          ReviewAction    `json:"action" validate:"required,oneof=approve reject reschedule"`
	ActorID         string          `json:"actor_id" validate:"required"`
	ProfNotes       string          `json:"professional_notes,omitempty" validate:"omitempty,max=1000"`
	RejectionReason string          `json:"rejection_reason,omitempty" validate:"omitempty,max=500"`
	SuggestedTimes  []SuggestedTime `json:"suggested_times,omitempty" validate:"omitempty,max=5,dive"`
}

// StatusUpdate is a compare-and-swap payload for a single transition: the
// repository applies it only if the appointment's current status is one of
// the expected set.
type StatusUpdate struct {
	Status          AppointmentStatus
	ProfNotes       string
	RejectionReason string
	SuggestedTimes  []SuggestedTime
	ReviewedAt      *time.Time
}

// AppointmentFilter narrows appointment list queries. Empty fields are
// ignored; dates bound appointment_date inclusively.
type AppointmentFilter struct {
	ProfessionalID string
	PatientID      string
	OrganizationID string
	Status         AppointmentStatus
	StartDate      string
	EndDate        string
}

// BookedSlot is a (date, time) pair occupied by a slot-holding appointment.
type BookedSlot struct {
	Date string `bson:"appointment_date"`
	Time string `bson:"appointment_time"`
}

// AppointmentStats is a per-status count rollup for one actor; Total always
// equals the sum of the individual counts.
type AppointmentStats struct {
	Requested   int64 `json:"requested"`
	Approved    int64 `json:"approved"`
	Completed   int64 `json:"completed"`
	Rejected    int64 `json:"rejected"`
	Cancelled   int64 `json:"cancelled"`
	Rescheduled int64 `json:"rescheduled"`
	Total       int64 `json:"total"`
}
