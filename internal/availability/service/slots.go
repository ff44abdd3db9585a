package service

import (
	"fmt"
	"time"

	"medcal/pkg/model"
)

const dateLayout = "2006-01-02"
const timeLayout = "15:04"

// windowTimes expands one active window into discrete "HH:MM" starts at the
// given granularity. The interval is half-open: a slot whose start equals
// end_time is excluded.
func windowTimes(w model.Window, granularityMin int) []string {
	if !w.IsActive {
		return nil
	}

	start, err := time.Parse(timeLayout, w.StartTime)
	if err != nil {
		return nil
	}
	end, err := time.Parse(timeLayout, w.EndTime)
	if err != nil {
		return nil
	}

	step := time.Duration(granularityMin) * time.Minute
	var times []string
	for t := start; t.Before(end); t = t.Add(step) {
		times = append(times, t.Format(timeLayout))
	}
	return times
}

// dayCandidates concatenates morning then evening expansions. Windows never
// overlap (morning ends before evening starts), so the result is already in
// chronological order with no duplicates.
func dayCandidates(day model.DayAvailability, granularityMin int) []string {
	if !day.IsAvailable {
		return nil
	}

	times := windowTimes(day.Morning, granularityMin)
	times = append(times, windowTimes(day.Evening, granularityMin)...)
	return times
}

// datesInRange lists every calendar date from start through end inclusive,
// capped at maxDays to bound the expansion work per query.
func datesInRange(startDate, endDate string, maxDays int) ([]time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s", endDate, startDate)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > maxDays {
		return nil, fmt.Errorf("date range spans %d days, maximum is %d", days, maxDays)
	}

	dates := make([]time.Time, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// expandTemplate generates candidate slots for every date in the range. Dates
// whose weekday is unavailable produce no entry.
func expandTemplate(tmpl *model.AvailabilityTemplate, startDate, endDate string, granularityMin, maxDays int) ([]model.DaySlots, error) {
	dates, err := datesInRange(startDate, endDate, maxDays)
	if err != nil {
		return nil, err
	}

	var out []model.DaySlots
	for _, d := range dates {
		day := tmpl.Days[int(d.Weekday())]
		times := dayCandidates(day, granularityMin)
		if len(times) == 0 {
			continue
		}
		out = append(out, model.DaySlots{
			Date:  d.Format(dateLayout),
			Times: times,
		})
	}
	return out, nil
}
