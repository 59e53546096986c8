package arbiter

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// View names the arbiter navigates between. Rendering is external; the
// orchestrator only tracks which view is mounted.
const (
	ViewProducts          = "products"
	ViewOrders            = "orders"
	ViewOpportunityList   = "opportunity-list"
	ViewOpportunityCreate = "opportunity-create"
)

// Navigator is the routing collaborator the view layer implements.
type Navigator interface {
	Navigate(view string)
	Current() string
}

// MemoryNavigator tracks the mounted view in memory. It is the default
// Navigator for headless runs and tests.
type MemoryNavigator struct {
	mu      sync.Mutex
	current string
	log     zerolog.Logger
}

// NewMemoryNavigator starts on the products view.
func NewMemoryNavigator() *MemoryNavigator {
	return &MemoryNavigator{
		current: ViewProducts,
		log:     log.With().Str("component", "navigator").Logger(),
	}
}

// Navigate mounts the named view.
func (n *MemoryNavigator) Navigate(view string) {
	n.mu.Lock()
	prev := n.current
	n.current = view
	n.mu.Unlock()

	if prev != view {
		n.log.Debug().Str("from", prev).Str("to", view).Msg("Navigated")
	}
}

// Current returns the mounted view.
func (n *MemoryNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
