package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"medcal/pkg/model"
)

type AvailabilityClient struct {
	httpClient *HttpClient
}

func NewAvailabilityClient(baseURL string, timeout time.Duration) *AvailabilityClient {
	return &AvailabilityClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

func (c *AvailabilityClient) GetTemplate(ctx context.Context, professionalID string) (*Response, error) {
	path := "/api/v1/availability/professional/" + url.PathEscape(professionalID)
	return c.httpClient.GET(ctx, path)
}

func (c *AvailabilityClient) SetTemplate(ctx context.Context, professionalID string, body any) (*Response, error) {
	path := "/api/v1/availability/professional/" + url.PathEscape(professionalID)
	return c.httpClient.PUT(ctx, path, body)
}

func (c *AvailabilityClient) Slots(ctx context.Context, professionalID, startDate, endDate string) (*Response, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)

	path := "/api/v1/availability/professional/" + url.PathEscape(professionalID) + "/slots?" + q.Encode()
	return c.httpClient.GET(ctx, path)
}

func (c *AvailabilityClient) DecodeSlots(resp *Response) ([]model.DaySlots, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode slots wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var slots []model.DaySlots
	if err := json.Unmarshal(wrapper.Data, &slots); err != nil {
		return nil, fmt.Errorf("could not decode slots json:\n%+v\n%s", resp.ToString(), err)
	}

	return slots, nil
}

func (c *AvailabilityClient) DecodeTemplate(resp *Response) (*model.AvailabilityTemplate, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode template wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var tmpl model.AvailabilityTemplate
	if err := json.Unmarshal(wrapper.Data, &tmpl); err != nil {
		return nil, fmt.Errorf("could not decode template json:\n%+v\n%s", resp.ToString(), err)
	}

	return &tmpl, nil
}
