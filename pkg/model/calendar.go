package model

// RosterEntry links a professional to an organization department. The
// roster itself is owned by the external directory service.
type RosterEntry struct {
	ProfessionalID string `json:"professional_id"`
	Department     string `json:"department,omitempty"`
}

// ProfessionalStatusCounts is one professional's contribution to a calendar
// date: approved appointments plus those still awaiting review.
type ProfessionalStatusCounts struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}

// CalendarDate merges all successful per-professional fetches for one date.
type CalendarDate struct {
	Total          int                                 `json:"total"`
	HasOpenSlots   bool                                `json:"has_open_slots"`
	ByProfessional map[string]ProfessionalStatusCounts `json:"by_professional"`
}

// CalendarProfessional carries the display metadata computed per
// aggregation call. ColorIndex is the professional's position in the input
// roster modulo the palette size; it is deterministic and never persisted.
type CalendarProfessional struct {
	ProfessionalID string `json:"professional_id"`
	Department     string `json:"department,omitempty"`
	ColorIndex     int    `json:"color_index"`
}

// CalendarView is the organization-wide merge. A professional whose fetch
// failed contributes nothing to ByDate and appears in FailedProfessionalIDs
// instead; the call as a whole still succeeds.
type CalendarView struct {
	OrganizationID        string                   `json:"organization_id"`
	StartDate             string                   `json:"start_date"`
	EndDate               string                   `json:"end_date"`
	ByDate                map[string]*CalendarDate `json:"by_date"`
	Professionals         []CalendarProfessional   `json:"professionals"`
	FailedProfessionalIDs []string                 `json:"failed_professional_ids"`
}
