package service

import (
	"context"
	"sort"
	"sync"

	"medcal/pkg/config"
	apperrors "medcal/pkg/errors"
	"medcal/pkg/model"
	"medcal/pkg/sanitizer"
)

// RosterProvider resolves an organization's professional membership. The
// roster lives in the external directory service.
type RosterProvider interface {
	Roster(ctx context.Context, organizationID string) ([]model.RosterEntry, error)
}

// ProfessionalCalendarSource serves one professional's open slots and
// appointments for a date range. Backed by the availability and appointment
// services, remote or in-process.
type ProfessionalCalendarSource interface {
	AvailableSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.DaySlots, error)
	Appointments(ctx context.Context, professionalID, startDate, endDate string) ([]*model.Appointment, error)
}

type CalendarService interface {
	OrganizationCalendar(ctx context.Context, organizationID, startDate, endDate string) (*model.CalendarView, error)
}

type calendarService struct {
	roster RosterProvider
	source ProfessionalCalendarSource
	cfg    *config.Config
}

func NewCalendarService(roster RosterProvider, source ProfessionalCalendarSource, cfg *config.Config) CalendarService {
	return &calendarService{
		roster: roster,
		source: source,
		cfg:    cfg,
	}
}

// professionalFetch is one professional's slice of the fan-out: either both
// reads succeeded, or err records the failure and the rest is ignored.
type professionalFetch struct {
	professionalID string
	slots          []model.DaySlots
	appointments   []*model.Appointment
	err            error
}

// OrganizationCalendar fans out one availability read and one appointment
// read per roster member, then merges per date. A professional whose fetch
// fails is dropped from the merge and reported in FailedProfessionalIDs; the
// aggregation itself still succeeds.
func (s *calendarService) OrganizationCalendar(ctx context.Context, organizationID, startDate, endDate string) (*model.CalendarView, error) {
	organizationID = sanitizer.NormalizeID(organizationID)
	if organizationID == "" {
		return nil, apperrors.InvalidInput("Organization ID cannot be empty")
	}
	if startDate == "" || endDate == "" {
		return nil, apperrors.InvalidInput("start_date and end_date are required")
	}

	roster, err := s.roster.Roster(ctx, organizationID)
	if err != nil {
		s.cfg.Log.Error("Failed to fetch organization roster",
			"organization_id", organizationID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve organization roster", err)
	}

	view := &model.CalendarView{
		OrganizationID:        organizationID,
		StartDate:             startDate,
		EndDate:               endDate,
		ByDate:                map[string]*model.CalendarDate{},
		Professionals:         make([]model.CalendarProfessional, 0, len(roster)),
		FailedProfessionalIDs: []string{},
	}

	for i, entry := range roster {
		view.Professionals = append(view.Professionals, model.CalendarProfessional{
			ProfessionalID: entry.ProfessionalID,
			Department:     entry.Department,
			ColorIndex:     i % s.cfg.CalendarPaletteSize,
		})
	}

	if len(roster) == 0 {
		return view, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.CalendarFetchTimeout)
	defer cancel()

	results := make(chan professionalFetch, len(roster))
	var wg sync.WaitGroup
	for _, entry := range roster {
		wg.Add(1)
		go func(professionalID string) {
			defer wg.Done()
			results <- s.fetchProfessional(fetchCtx, professionalID, startDate, endDate)
		}(entry.ProfessionalID)
	}
	wg.Wait()
	close(results)

	for fetch := range results {
		if fetch.err != nil {
			s.cfg.Log.Warn("Professional calendar fetch failed",
				"organization_id", organizationID,
				"professional_id", fetch.professionalID,
				"error", fetch.err,
			)
			view.FailedProfessionalIDs = append(view.FailedProfessionalIDs, fetch.professionalID)
			continue
		}
		s.merge(view, fetch)
	}
	sort.Strings(view.FailedProfessionalIDs)

	s.cfg.Log.Debug("Organization calendar aggregated",
		"organization_id", organizationID,
		"professionals", len(roster),
		"failed", len(view.FailedProfessionalIDs),
		"dates", len(view.ByDate),
	)
	return view, nil
}

func (s *calendarService) fetchProfessional(ctx context.Context, professionalID, startDate, endDate string) professionalFetch {
	fetch := professionalFetch{professionalID: professionalID}

	var wg sync.WaitGroup
	var slotsErr, apptsErr error
	wg.Add(2)

	go func() {
		defer wg.Done()
		fetch.slots, slotsErr = s.source.AvailableSlots(ctx, professionalID, startDate, endDate)
	}()

	go func() {
		defer wg.Done()
		fetch.appointments, apptsErr = s.source.Appointments(ctx, professionalID, startDate, endDate)
	}()

	wg.Wait()
	if slotsErr != nil {
		// A professional without a template simply has no open slots.
		if appErr := apperrors.AsAppError(slotsErr); appErr != nil && appErr.Code == apperrors.CodeNotFound {
			fetch.slots = nil
		} else {
			fetch.err = slotsErr
			return fetch
		}
	}
	if apptsErr != nil {
		fetch.err = apptsErr
	}
	return fetch
}

func (s *calendarService) merge(view *model.CalendarView, fetch professionalFetch) {
	dateEntry := func(date string) *model.CalendarDate {
		entry, ok := view.ByDate[date]
		if !ok {
			entry = &model.CalendarDate{
				ByProfessional: map[string]model.ProfessionalStatusCounts{},
			}
			view.ByDate[date] = entry
		}
		return entry
	}

	for _, day := range fetch.slots {
		if len(day.Times) == 0 {
			continue
		}
		dateEntry(day.Date).HasOpenSlots = true
	}

	for _, appt := range fetch.appointments {
		// Rejected and cancelled appointments hold no slot and are not
		// part of the calendar picture.
		if appt.Status == model.StatusRejected || appt.Status == model.StatusCancelled {
			continue
		}
		entry := dateEntry(appt.AppointmentDate)
		entry.Total++

		counts := entry.ByProfessional[fetch.professionalID]
		switch appt.Status {
		case model.StatusApproved:
			counts.Approved++
		case model.StatusRequested, model.StatusRescheduled:
			counts.Pending++
		}
		entry.ByProfessional[fetch.professionalID] = counts
	}
}
