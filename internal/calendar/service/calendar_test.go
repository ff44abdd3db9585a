package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"medcal/pkg/config"
	apperrors "medcal/pkg/errors"
	"medcal/pkg/logger"
	"medcal/pkg/model"
)

type mockRosterProvider struct {
	roster []model.RosterEntry
	err    error
}

func (m *mockRosterProvider) Roster(ctx context.Context, organizationID string) ([]model.RosterEntry, error) {
	return m.roster, m.err
}

type mockCalendarSource struct {
	slots        map[string][]model.DaySlots
	appointments map[string][]*model.Appointment
	failSlots    map[string]error
	failAppts    map[string]error
}

func (m *mockCalendarSource) AvailableSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.DaySlots, error) {
	if err, ok := m.failSlots[professionalID]; ok {
		return nil, err
	}
	return m.slots[professionalID], nil
}

func (m *mockCalendarSource) Appointments(ctx context.Context, professionalID, startDate, endDate string) ([]*model.Appointment, error) {
	if err, ok := m.failAppts[professionalID]; ok {
		return nil, err
	}
	return m.appointments[professionalID], nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})

	return &config.Config{
		Log:                  log,
		CalendarPaletteSize:  8,
		CalendarFetchTimeout: 5 * time.Second,
	}
}

func appt(professionalID, date string, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		ProfessionalID:  professionalID,
		PatientID:       "patient-1",
		AppointmentDate: date,
		AppointmentTime: "10:00",
		Status:          status,
	}
}

func TestOrganizationCalendarMergesByDate(t *testing.T) {
	cfg := testConfig()

	roster := &mockRosterProvider{roster: []model.RosterEntry{
		{ProfessionalID: "prof-a", Department: "cardiology"},
		{ProfessionalID: "prof-b", Department: "oncology"},
	}}
	source := &mockCalendarSource{
		appointments: map[string][]*model.Appointment{
			"prof-a": {appt("prof-a", "2025-03-03", model.StatusRequested)},
			"prof-b": {
				appt("prof-b", "2025-03-03", model.StatusApproved),
				appt("prof-b", "2025-03-03", model.StatusApproved),
			},
		},
	}

	svc := NewCalendarService(roster, source, cfg)

	view, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	day, ok := view.ByDate["2025-03-03"]
	if !ok {
		t.Fatal("expected an entry for 2025-03-03")
	}
	if day.Total != 3 {
		t.Errorf("expected total 3, got %d", day.Total)
	}
	if got := day.ByProfessional["prof-a"]; got.Pending != 1 || got.Approved != 0 {
		t.Errorf("prof-a counts = %+v, want 1 pending", got)
	}
	if got := day.ByProfessional["prof-b"]; got.Approved != 2 || got.Pending != 0 {
		t.Errorf("prof-b counts = %+v, want 2 approved", got)
	}
	if len(view.FailedProfessionalIDs) != 0 {
		t.Errorf("expected no failures, got %v", view.FailedProfessionalIDs)
	}
}

func TestOrganizationCalendarPartialFailure(t *testing.T) {
	cfg := testConfig()

	roster := &mockRosterProvider{roster: []model.RosterEntry{
		{ProfessionalID: "prof-a"},
		{ProfessionalID: "prof-b"},
	}}
	source := &mockCalendarSource{
		appointments: map[string][]*model.Appointment{
			"prof-a": {appt("prof-a", "2025-03-03", model.StatusApproved)},
		},
		failAppts: map[string]error{
			"prof-b": errors.New("connection refused"),
		},
	}

	svc := NewCalendarService(roster, source, cfg)

	view, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("aggregation must not fail on a partial fetch error: %v", err)
	}

	if len(view.FailedProfessionalIDs) != 1 || view.FailedProfessionalIDs[0] != "prof-b" {
		t.Errorf("expected [prof-b] failed, got %v", view.FailedProfessionalIDs)
	}
	if day := view.ByDate["2025-03-03"]; day == nil || day.Total != 1 {
		t.Errorf("totals must reflect only the surviving professionals, got %+v", day)
	}
}

func TestOrganizationCalendarOpenSlotsFlag(t *testing.T) {
	cfg := testConfig()

	roster := &mockRosterProvider{roster: []model.RosterEntry{
		{ProfessionalID: "prof-a"},
	}}
	source := &mockCalendarSource{
		slots: map[string][]model.DaySlots{
			"prof-a": {{Date: "2025-03-04", Times: []string{"09:00"}}},
		},
		appointments: map[string][]*model.Appointment{
			"prof-a": {appt("prof-a", "2025-03-03", model.StatusApproved)},
		},
	}

	svc := NewCalendarService(roster, source, cfg)

	view, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if day := view.ByDate["2025-03-04"]; day == nil || !day.HasOpenSlots {
		t.Error("expected 2025-03-04 to report open slots")
	}
	if day := view.ByDate["2025-03-03"]; day == nil || day.HasOpenSlots {
		t.Error("expected 2025-03-03 to report no open slots")
	}
}

func TestOrganizationCalendarMissingTemplateIsNotFailure(t *testing.T) {
	cfg := testConfig()

	roster := &mockRosterProvider{roster: []model.RosterEntry{
		{ProfessionalID: "prof-a"},
	}}
	source := &mockCalendarSource{
		failSlots: map[string]error{
			"prof-a": apperrors.NotFoundWithID("Availability template", "prof-a"),
		},
		appointments: map[string][]*model.Appointment{
			"prof-a": {appt("prof-a", "2025-03-03", model.StatusApproved)},
		},
	}

	svc := NewCalendarService(roster, source, cfg)

	view, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.FailedProfessionalIDs) != 0 {
		t.Errorf("a professional without a template must not count as failed, got %v", view.FailedProfessionalIDs)
	}
	if day := view.ByDate["2025-03-03"]; day == nil || day.Total != 1 {
		t.Errorf("appointments must still merge, got %+v", day)
	}
}

func TestOrganizationCalendarDeterministicColors(t *testing.T) {
	cfg := testConfig()
	cfg.CalendarPaletteSize = 3

	roster := &mockRosterProvider{roster: []model.RosterEntry{
		{ProfessionalID: "prof-0"},
		{ProfessionalID: "prof-1"},
		{ProfessionalID: "prof-2"},
		{ProfessionalID: "prof-3"},
	}}
	svc := NewCalendarService(roster, &mockCalendarSource{}, cfg)

	for run := 0; run < 2; run++ {
		view, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-03")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []int{0, 1, 2, 0}
		for i, prof := range view.Professionals {
			if prof.ColorIndex != want[i] {
				t.Errorf("run %d: professional %d color = %d, want %d", run, i, prof.ColorIndex, want[i])
			}
		}
	}
}

func TestOrganizationCalendarEmptyRoster(t *testing.T) {
	cfg := testConfig()
	svc := NewCalendarService(&mockRosterProvider{}, &mockCalendarSource{}, cfg)

	view, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.ByDate) != 0 || len(view.Professionals) != 0 {
		t.Errorf("expected empty view, got %+v", view)
	}
}

func TestOrganizationCalendarRosterFailure(t *testing.T) {
	cfg := testConfig()
	svc := NewCalendarService(&mockRosterProvider{err: errors.New("directory down")}, &mockCalendarSource{}, cfg)

	_, err := svc.OrganizationCalendar(context.Background(), "org-1", "2025-03-03", "2025-03-09")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInternal {
		t.Errorf("expected INTERNAL_ERROR when the roster itself is unavailable, got %v", err)
	}
}
