package nlp

import (
	"context"
	"net/url"
	"time"

	"voice-session-orchestrator/internal/models"
)

// LookupClient resolves free-text names against the account and contact
// directories behind the opportunity service.
type LookupClient struct {
	apiClient
}

// NewLookupClient creates a lookup client.
func NewLookupClient(baseURL string, timeout time.Duration) *LookupClient {
	return &LookupClient{apiClient: newAPIClient(baseURL, timeout, "opportunity-lookup")}
}

/// searchResponse matches the wire shape: candidates arrive as [id, label]
// pairs, not objects.
type searchResponse struct {
	Accounts [][]string `json:"accounts"`
	Contacts [][]string `json:"contacts"`
}

// Search returns the account and contact candidates for a spoken name.
// Candidate order is the backend's ranking and must be preserved.
func (c *LookupClient) Search(ctx context.Context, query string) (*models.LookupResult, error) {
	var raw searchResponse
	params := url.Values{"q": []string{query}}
	if err := c.getJSON(ctx, "lookup_search", "/api/opportunities/search", params, &raw); err != nil {
		return nil, err
	}
	return &models.LookupResult{
		Query:    query,
		Accounts: toChoices(raw.Accounts),
		Contacts: toChoices(raw.Contacts),
	}, nil
}

func toChoices(pairs [][]string) []models.Choice {
	out := make([]models.Choice, 0, len(pairs))
	for _, p := range pairs {
		if len(p) == 0 {
			continue
		}
		choice := models.Choice{ID: p[0]}
		if len(p) > 1 {
			choice.Label = p[1]
		} else {
			choice.Label = p[0]
		}
		out = append(out, choice)
	}
	return out
}
