// Package models defines the data structures shared by the voice session
// orchestrator: utterances, NLP results and the tagged events carried by the
// result bus.
package models

// Target identifies which view domain an event is addressed to. Result bus
// consumers must ignore events whose target does not match their own domain.
type Target string

const (
	TargetProducts Target = "products"
	TargetOrders   Target = "orders"
	TargetOther    Target = "other"
)

// IntentReset is published when the product journey is (re)entered so the
// product view clears its results and facets.
const IntentReset = "__reset__"

// Utterance is one recognized chunk of user speech. Ephemeral: produced by
// the speech gateway, consumed exactly once by the session arbiter.
type Utterance struct {
	Seq       int64  `json:"seq"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// NlpResult is the product NLP backend response.
type NlpResult struct {
	Input     string   `json:"input"`
	Intent    string   `json:"intent"`
	Entities  []string `json:"entities"`
	SolrQuery string   `json:"solr_query"`

	Products []map[string]any `json:"products,omitempty"`
	// Product carries a single item on detail responses.
	Product   map[string]any `json:"product,omitempty"`
	ProductID string         `json:"product_id,omitempty"`

	Facets map[string]any `json:"facets,omitempty"`

	NumFound   int `json:"numFound,omitempty"`
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"pageSize,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`

	Speech string `json:"speech,omitempty"`
}

// OrderEntities is the structured entity payload of an order NLP response.
type OrderEntities struct {
	AccountID string              `json:"account_id,omitempty"`
	SuperUser bool                `json:"super_user,omitempty"`
	Filters   map[string][]string `json:"filters,omitempty"`
	Sort      string              `json:"sort,omitempty"`
	Page      int                 `json:"page,omitempty"`
	Action    string              `json:"action,omitempty"`
}

// OrderNlpResult is the order NLP backend response.
type OrderNlpResult struct {
	Intent   string        `json:"intent"`
	Entities OrderEntities `json:"entities"`

	Orders []map[string]any `json:"orders,omitempty"`
	Facets map[string]any   `json:"facets,omitempty"`

	NumFound   int `json:"numFound,omitempty"`
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"pageSize,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`

	Speech string `json:"speech,omitempty"`
}

// Choice is a disambiguation candidate from an account or contact lookup,
// ranked by the order the lookup service returned it.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LookupResult groups account and contact candidates for a free-text query.
type LookupResult struct {
	Query    string   `json:"query"`
	Accounts []Choice `json:"accounts"`
	Contacts []Choice `json:"contacts"`
}

// Event is the envelope broadcast on the result bus. Exactly one target per
// event; at most one of the payload fields is set.
type Event struct {
	Target    Target          `json:"target"`
	Product   *NlpResult      `json:"product,omitempty"`
	Order     *OrderNlpResult `json:"order,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// ResetEvent builds the product-domain reset event: empty results, cleared
// facets, page 1.
func ResetEvent() Event {
	return Event{
		Target: TargetProducts,
		Product: &NlpResult{
			Intent:   IntentReset,
			Entities: []string{},
			Products: []map[string]any{},
			Facets:   map[string]any{},
			Page:     1,
			PageSize: 20,
		},
	}
}
