package service

import (
	"context"
	"net/http"

	"medcal/pkg/client"
	apperrors "medcal/pkg/errors"
	"medcal/pkg/model"
)

// httpCalendarSource reads per-professional slots and appointments from the
// availability and appointment services over HTTP.
type httpCalendarSource struct {
	availability *client.AvailabilityClient
	appointments *client.AppointmentClient
	pageLimit    int
}

func NewHTTPCalendarSource(
	availability *client.AvailabilityClient,
	appointments *client.AppointmentClient,
	pageLimit int,
) ProfessionalCalendarSource {
	return &httpCalendarSource{
		availability: availability,
		appointments: appointments,
		pageLimit:    pageLimit,
	}
}

func (s *httpCalendarSource) AvailableSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.DaySlots, error) {
	resp, err := s.availability.Slots(ctx, professionalID, startDate, endDate)
	if err != nil {
		return nil, apperrors.Unavailable("availability service")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFoundWithID("Availability template", professionalID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Internal("Availability read failed: "+client.GetErrorMessage(resp), nil)
	}

	return s.availability.DecodeSlots(resp)
}

// Appointments pages through the appointment list until the reported total
// is drained.
func (s *httpCalendarSource) Appointments(ctx context.Context, professionalID, startDate, endDate string) ([]*model.Appointment, error) {
	filter := model.AppointmentFilter{
		ProfessionalID: professionalID,
		StartDate:      startDate,
		EndDate:        endDate,
	}

	var all []*model.Appointment
	var offset int64
	for {
		resp, err := s.appointments.List(ctx, filter, s.pageLimit, offset)
		if err != nil {
			return nil, apperrors.Unavailable("appointment service")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.Internal("Appointment read failed: "+client.GetErrorMessage(resp), nil)
		}

		page, metadata, err := s.appointments.DecodeAppointments(resp)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		offset += int64(len(page))
		if len(page) == 0 || offset >= metadata.TotalCount {
			return all, nil
		}
	}
}
