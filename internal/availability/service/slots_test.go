package service

import (
	"reflect"
	"testing"
	"time"

	"medcal/pkg/model"
)

func TestWindowTimes(t *testing.T) {
	tests := []struct {
		name        string
		window      model.Window
		granularity int
		want        []string
	}{
		{
			name:        "morning window at 30 minutes",
			window:      model.Window{StartTime: "09:00", EndTime: "12:00", IsActive: true},
			granularity: 30,
			want:        []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"},
		},
		{
			name:        "slot starting at end time is excluded",
			window:      model.Window{StartTime: "09:00", EndTime: "10:00", IsActive: true},
			granularity: 30,
			want:        []string{"09:00", "09:30"},
		},
		{
			name:        "inactive window yields nothing",
			window:      model.Window{StartTime: "09:00", EndTime: "12:00", IsActive: false},
			granularity: 30,
			want:        nil,
		},
		{
			name:        "window shorter than granularity yields one slot",
			window:      model.Window{StartTime: "09:00", EndTime: "09:15", IsActive: true},
			granularity: 30,
			want:        []string{"09:00"},
		},
		{
			name:        "hourly granularity",
			window:      model.Window{StartTime: "14:00", EndTime: "18:00", IsActive: true},
			granularity: 60,
			want:        []string{"14:00", "15:00", "16:00", "17:00"},
		},
		{
			name:        "malformed time yields nothing",
			window:      model.Window{StartTime: "9am", EndTime: "12:00", IsActive: true},
			granularity: 30,
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := windowTimes(tt.window, tt.granularity)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("windowTimes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayCandidatesOrdering(t *testing.T) {
	day := model.DayAvailability{
		IsAvailable: true,
		Morning:     model.Window{StartTime: "09:00", EndTime: "10:00", IsActive: true},
		Evening:     model.Window{StartTime: "16:00", EndTime: "17:00", IsActive: true},
	}

	got := dayCandidates(day, 30)
	want := []string{"09:00", "09:30", "16:00", "16:30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dayCandidates() = %v, want %v", got, want)
	}
}

func TestDayCandidatesUnavailableDay(t *testing.T) {
	day := model.DayAvailability{
		IsAvailable: false,
		Morning:     model.Window{StartTime: "09:00", EndTime: "12:00", IsActive: true},
	}

	if got := dayCandidates(day, 30); got != nil {
		t.Errorf("expected no candidates for unavailable day, got %v", got)
	}
}

func TestDatesInRange(t *testing.T) {
	dates, err := datesInRange("2025-03-03", "2025-03-05", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(dates))
	}
	if dates[0].Format(dateLayout) != "2025-03-03" || dates[2].Format(dateLayout) != "2025-03-05" {
		t.Errorf("unexpected bounds: %v .. %v", dates[0], dates[2])
	}
}

func TestDatesInRangeErrors(t *testing.T) {
	if _, err := datesInRange("2025-03-05", "2025-03-03", 90); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := datesInRange("03/03/2025", "2025-03-05", 90); err == nil {
		t.Error("expected error for malformed start date")
	}
	if _, err := datesInRange("2025-01-01", "2025-12-31", 90); err == nil {
		t.Error("expected error for range exceeding the cap")
	}
}

func mondayMorningTemplate() *model.AvailabilityTemplate {
	days := make([]model.DayAvailability, 7)
	days[1] = model.DayAvailability{
		IsAvailable: true,
		Morning:     model.Window{StartTime: "09:00", EndTime: "12:00", IsActive: true},
	}
	return &model.AvailabilityTemplate{
		ProfessionalID: "prof-1",
		Days:           days,
	}
}

func TestExpandTemplateMondayMorning(t *testing.T) {
	// 2025-03-03 is a Monday
	slots, err := expandTemplate(mondayMorningTemplate(), "2025-03-03", "2025-03-03", 30, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.DaySlots{
		{Date: "2025-03-03", Times: []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}},
	}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("expandTemplate() = %v, want %v", slots, want)
	}
}

func TestExpandTemplateSkipsUnavailableWeekdays(t *testing.T) {
	// 2025-03-03 through 2025-03-09: only the Monday produces candidates
	slots, err := expandTemplate(mondayMorningTemplate(), "2025-03-03", "2025-03-09", 30, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 || slots[0].Date != "2025-03-03" {
		t.Errorf("expected a single Monday entry, got %v", slots)
	}
}

// Every generated time must fall inside [start, end) of an active window for
// that weekday.
func TestExpandTemplateTimesWithinWindows(t *testing.T) {
	tmpl := &model.AvailabilityTemplate{
		ProfessionalID: "prof-1",
		Days: []model.DayAvailability{
			{},
			{IsAvailable: true, Morning: model.Window{StartTime: "08:00", EndTime: "11:30", IsActive: true}},
			{IsAvailable: true, Evening: model.Window{StartTime: "15:00", EndTime: "19:00", IsActive: true}},
			{IsAvailable: true,
				Morning: model.Window{StartTime: "09:00", EndTime: "12:00", IsActive: true},
				Evening: model.Window{StartTime: "13:00", EndTime: "17:00", IsActive: true}},
			{},
			{},
			{},
		},
	}

	slots, err := expandTemplate(tmpl, "2025-03-02", "2025-03-08", 30, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, day := range slots {
		d, err := time.Parse(dateLayout, day.Date)
		if err != nil {
			t.Fatalf("bad date %q: %v", day.Date, err)
		}
		entry := tmpl.Days[int(d.Weekday())]
		for _, tm := range day.Times {
			if !inWindow(tm, entry.Morning) && !inWindow(tm, entry.Evening) {
				t.Errorf("time %s on %s falls outside every active window", tm, day.Date)
			}
		}
	}
}

func inWindow(tm string, w model.Window) bool {
	return w.IsActive && tm >= w.StartTime && tm < w.EndTime
}
