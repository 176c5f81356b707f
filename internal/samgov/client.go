// Package samgov fetches contracting opportunities from the sam.gov
// opportunities API.
package samgov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	APIKey  string
	BaseURL string

	HTTPClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Opportunity is the subset of the sam.gov payload the workflow stores.
type Opportunity struct {
	NoticeID           string   `json:"noticeId"`
	Title              string   `json:"title"`
	SolicitationNumber string   `json:"solicitationNumber"`
	Department         string   `json:"department"`
	Description        string   `json:"description"`
	PostedDate         string   `json:"postedDate"`
	ResponseDeadline   string   `json:"responseDeadLine"`
	Type               string   `json:"type"`
	SetAside           string   `json:"typeOfSetAsideDescription"`
	UILink             string   `json:"uiLink"`
	ResourceLinks      []string `json:"resourceLinks"`
}

type searchResponse struct {
	TotalRecords      int           `json:"totalRecords"`
	OpportunitiesData []Opportunity `json:"opportunitiesData"`
}

// Search pulls opportunities posted in the given window.
func (c *Client) Search(ctx context.Context, postedFrom, postedTo time.Time, limit int) ([]Opportunity, error) {
	params := url.Values{}
	params.Set("api_key", c.APIKey)
	params.Set("postedFrom", postedFrom.Format("01/02/2006"))
	params.Set("postedTo", postedTo.Format("01/02/2006"))
	params.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sam.gov request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sam.gov request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode sam.gov response: %w", err)
	}

	return parsed.OpportunitiesData, nil
}

// RawJSON re-encodes an opportunity for storage alongside the parsed fields.
func (o Opportunity) RawJSON() []byte {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil
	}
	return raw
}
