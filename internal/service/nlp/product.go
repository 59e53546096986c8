package nlp

import (
	"context"
	"time"

	"voice-session-orchestrator/internal/models"
)

// ProductClient talks to the product NLP backend.
type ProductClient struct {
	apiClient
}

// NewProductClient creates a product NLP client.
func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return &ProductClient{apiClient: newAPIClient(baseURL, timeout, "product-nlp")}
}

// Analyze sends a raw utterance for intent and entity extraction. The
// response carries the matching products and a spoken summary.
func (c *ProductClient) Analyze(ctx context.Context, text string) (*models.NlpResult, error) {
	var out models.NlpResult
	if err := c.postJSON(ctx, "product_analyze", "/products/voice", map[string]string{"query": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductQuery is a structured search request, used for facet follow-ups
// where the filter is already known and no intent extraction is needed.
type ProductQuery struct {
	Query    string              `json:"query"`
	Filters  map[string][]string `json:"filters"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// Query runs a structured product query.
func (c *ProductClient) Query(ctx context.Context, q ProductQuery) (*models.NlpResult, error) {
	var out models.NlpResult
	if err := c.postJSON(ctx, "product_query", "/api/products/query", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detail fetches a single product by id.
func (c *ProductClient) Detail(ctx context.Context, productID string) (*models.NlpResult, error) {
	var out models.NlpResult
	if err := c.postJSON(ctx, "product_detail", "/api/products/detail", map[string]string{"product_id": productID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
