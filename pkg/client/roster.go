package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"medcal/pkg/model"
)

// RosterClient reads organization membership from the external directory
// service. The roster is consumed read-only; it never gates scheduling.
type RosterClient struct {
	httpClient *HttpClient
}

func NewRosterClient(baseURL string, timeout time.Duration) *RosterClient {
	return &RosterClient{
		httpClient: NewHttpClient(baseURL, timeout),
	}
}

func (c *RosterClient) Roster(ctx context.Context, organizationID string) ([]model.RosterEntry, error) {
	path := "/api/v1/organizations/" + url.PathEscape(organizationID) + "/roster"

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("organization %s not found in directory", organizationID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned %s", resp.Status)
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode roster wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var entries []model.RosterEntry
	if err := json.Unmarshal(wrapper.Data, &entries); err != nil {
		return nil, fmt.Errorf("could not decode roster json:\n%+v\n%s", resp.ToString(), err)
	}

	return entries, nil
}
