package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"medcal/pkg/model"
)

type AppointmentClient struct {
	httpClient *HttpClient
}

func NewAppointmentClient(baseURL string, timeout time.Duration) *AppointmentClient {
	return &AppointmentClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

func (c *AppointmentClient) Create(ctx context.Context, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/appointments", body)
}

func (c *AppointmentClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/appointments/id/"+url.PathEscape(id))
}

func (c *AppointmentClient) List(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if filter.ProfessionalID != "" {
		q.Set("professional_id", filter.ProfessionalID)
	}
	if filter.PatientID != "" {
		q.Set("patient_id", filter.PatientID)
	}
	if filter.OrganizationID != "" {
		q.Set("organization_id", filter.OrganizationID)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.StartDate != "" {
		q.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("end_date", filter.EndDate)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET(ctx, "/api/v1/appointments?"+q.Encode())
}

func (c *AppointmentClient) Review(ctx context.Context, id string, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/appointments/id/"+url.PathEscape(id)+"/review", body)
}

func (c *AppointmentClient) Cancel(ctx context.Context, id string, body any) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/appointments/id/"+url.PathEscape(id)+"/cancel", body)
}

func (c *AppointmentClient) DecodeAppointment(resp *Response) (*model.Appointment, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode appointment wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var appt model.Appointment
	if err := json.Unmarshal(wrapper.Data, &appt); err != nil {
		return nil, fmt.Errorf("could not decode appointment json:\n%+v\n%s", resp.ToString(), err)
	}

	return &appt, nil
}

type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int64
}

func (c *AppointmentClient) DecodeAppointments(resp *Response) ([]*model.Appointment, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var appointments []*model.Appointment
	if err := json.Unmarshal(wrapper.Data, &appointments); err != nil {
		return nil, nil, fmt.Errorf("could not decode appointment list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return appointments, metadata, nil
}
