package journey

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Journey
	}{
		{"order keyword", "show my orders", Orders},
		{"payment keyword", "any pending payment", Orders},
		{"shipment keyword", "where is my shipment", Orders},
		{"invoice number phrase", "invoice number 9921", Orders},
		{"account code compact", "acc1002 history", Orders},
		{"account code spaced", "account 1002 please", Orders},

		{"opp code", "opp 1044", Opportunity},
		{"op code", "op 1044", Opportunity},
		{"opp code spoken digits", "op one zero four four", Opportunity},
		{"start opportunity", "start opportunity", Opportunity},
		{"stop opportunity", "stop opportunity", Opportunity},

		{"product keyword", "show me red drills", Products},
		{"catalog keyword", "open the catalog", Products},
		{"brand keyword", "brand makita", Products},
		{"find keyword", "find hammers", Products},

		{"view opportunities", "view opportunities", OppView},
		{"view opportunity singular", "please view opportunity", OppView},
		{"go to opportunities view", "go to opportunities view", OppView},

		{"create opportunity", "create opportunity", OppCreate},
		{"go to opportunities create", "go to opportunities create", OppCreate},

		{"noise", "hello there", Other},
		{"empty", "", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// Ordering rules: an utterance matching both order and product vocabulary
// must classify as orders, and a product utterance carrying a status word
// stays in the order journey.
func TestClassify_RuleOrder(t *testing.T) {
	if got := Classify("order the red product"); got != Orders {
		t.Errorf("expected Orders to win over Products, got %v", got)
	}
	if got := Classify("status of my item"); got != Orders {
		t.Errorf("expected Orders to win over Products, got %v", got)
	}
	// Order keywords also win over an embedded opportunity code.
	if got := Classify("order for opp 10"); got != Orders {
		t.Errorf("expected Orders to win over Opportunity, got %v", got)
	}
}
