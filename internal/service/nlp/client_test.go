package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProductClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/voice" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["query"] != "show me red drills" {
			t.Errorf("unexpected query %q", body["query"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"input":      "show me red drills",
			"intent":     "search_products",
			"entities":   []string{"color:red", "category:drills"},
			"solr_query": "color:red AND category:drills",
			"numFound":   3,
			"speech":     "I found 3 red drills.",
		})
	}))
	defer srv.Close()

	client := NewProductClient(srv.URL, time.Second)
	result, err := client.Analyze(context.Background(), "show me red drills")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Intent != "search_products" {
		t.Errorf("expected intent search_products, got %q", result.Intent)
	}
	if result.NumFound != 3 {
		t.Errorf("expected 3 found, got %d", result.NumFound)
	}
	if len(result.Entities) != 2 {
		t.Errorf("expected 2 entities, got %d", len(result.Entities))
	}
}

func TestProductClient_Detail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products/detail" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["product_id"] != "P-100" {
			t.Errorf("unexpected product_id %q", body["product_id"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"intent":  "product_detail",
			"product": map[string]any{"id": "P-100", "name": "Impact Drill"},
			"speech":  "Impact Drill, 129 dollars.",
		})
	}))
	defer srv.Close()

	client := NewProductClient(srv.URL, time.Second)
	result, err := client.Detail(context.Background(), "P-100")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if result.Product["name"] != "Impact Drill" {
		t.Errorf("unexpected product payload: %v", result.Product)
	}
}

func TestOrderClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/voice" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"intent": "filter_orders",
			"entities": map[string]any{
				"account_id": "ACC123",
				"filters":    map[string][]string{"status": {"pending"}},
			},
			"numFound": 7,
		})
	}))
	defer srv.Close()

	client := NewOrderClient(srv.URL, time.Second)
	result, err := client.Analyze(context.Background(), "any pending payment")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Entities.AccountID != "ACC123" {
		t.Errorf("expected account ACC123, got %q", result.Entities.AccountID)
	}
	if got := result.Entities.Filters["status"]; len(got) != 1 || got[0] != "pending" {
		t.Errorf("unexpected filters: %v", result.Entities.Filters)
	}
}

func TestLookupClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/opportunities/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "acme" {
			t.Errorf("unexpected q %q", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accounts": [][]string{{"ACC1", "Acme Corp"}, {"ACC2", "Acme West"}},
			"contacts": [][]string{{"CON9", "Amy Acker"}},
		})
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL, time.Second)
	result, err := client.Search(context.Background(), "acme")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(result.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(result.Accounts))
	}
	// Backend ranking is preserved as-is.
	if result.Accounts[0].ID != "ACC1" || result.Accounts[0].Label != "Acme Corp" {
		t.Errorf("unexpected first account: %+v", result.Accounts[0])
	}
	if len(result.Contacts) != 1 || result.Contacts[0].Label != "Amy Acker" {
		t.Errorf("unexpected contacts: %+v", result.Contacts)
	}
}

func TestSubmitClient_Create(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/opportunities/create" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var fields map[string]string
		json.NewDecoder(r.Body).Decode(&fields)
		if fields["opportunity_name"] != "Acme expansion" {
			t.Errorf("unexpected fields: %v", fields)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "OPP-2001"})
	}))
	defer srv.Close()

	client := NewSubmitClient(srv.URL, time.Second)
	result, err := client.Create(context.Background(), map[string]string{
		"opportunity_name": "Acme expansion",
		"account_id":       "ACC1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !result.Success || result.ID != "OPP-2001" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestAPIClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewProductClient(srv.URL, time.Second)
	if _, err := client.Analyze(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on non-OK status")
	}
}
