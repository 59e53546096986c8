package nlp

import (
	"context"
	"time"

	"voice-session-orchestrator/internal/models"
)

// OrderClient talks to the order NLP backend.
type OrderClient struct {
	apiClient
}

// NewOrderClient creates an order NLP client.
func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{apiClient: newAPIClient(baseURL, timeout, "order-nlp")}
}

// Analyze sends a raw utterance for order intent extraction.
func (c *OrderClient) Analyze(ctx context.Context, text string) (*models.OrderNlpResult, error) {
	var out models.OrderNlpResult
	if err := c.postJSON(ctx, "order_analyze", "/api/orders/voice", map[string]string{"query": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
