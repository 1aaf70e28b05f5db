// Package inspection calls the external AI phone-inspection service. The
// service is opaque: one REST call in, a verdict out, stored as-is.
package inspection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/phonely/marketplace/internal/core/domain"
)

type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

type inspectRequest struct {
	Brand     string   `json:"brand"`
	Model     string   `json:"model"`
	Condition string   `json:"condition"`
	Images    []string `json:"images"`
}

type inspectResponse struct {
	Grade   string `json:"grade"`
	Summary string `json:"summary"`
}

func (c *Client) Inspect(ctx context.Context, listing *domain.Listing) (*domain.InspectionReport, error) {
	payload, err := json.Marshal(inspectRequest{
		Brand:     listing.Brand,
		Model:     listing.Model,
		Condition: listing.Condition,
		Images:    listing.Images,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inspection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inspection request: unexpected status %d", resp.StatusCode)
	}

	var out inspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("inspection response: %w", err)
	}

	return &domain.InspectionReport{
		Grade:       out.Grade,
		Summary:     out.Summary,
		RequestedAt: time.Now().UTC(),
	}, nil
}
