package nlp

import (
	"context"
	"time"
)

// SubmitClient creates opportunities from collected guided-dialogue fields.
type SubmitClient struct {
	apiClient
}

// NewSubmitClient creates a submission client.
func NewSubmitClient(baseURL string, timeout time.Duration) *SubmitClient {
	return &SubmitClient{apiClient: newAPIClient(baseURL, timeout, "opportunity-submit")}
}

// CreateResult is the backend's answer to an opportunity submission.
type CreateResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Create submits the collected field values as a new opportunity.
func (c *SubmitClient) Create(ctx context.Context, fields map[string]string) (*CreateResult, error) {
	var out CreateResult
	if err := c.postJSON(ctx, "opportunity_create", "/api/opportunities/create", fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
