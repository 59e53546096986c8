// Package arbiter decides, per utterance, which consumer owns it: the guided
// dialogue, a mode switch, navigation, or a domain NLP handler. Rules run in
// a strict priority order and short-circuit through the Outcome discriminant.
package arbiter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"voice-session-orchestrator/internal/models"
	"voice-session-orchestrator/internal/observability/logging"
	"voice-session-orchestrator/internal/observability/metrics"
	"voice-session-orchestrator/internal/service/journey"
	"voice-session-orchestrator/internal/service/mode"
	"voice-session-orchestrator/internal/service/nlp"
)

// GuidedFlow is the guided dialogue engine as the arbiter sees it.
type GuidedFlow interface {
	Active() bool
	Start()
	Process(text string)
}

// Gate is the subset of the speech gateway the arbiter controls.
type Gate interface {
	StopListening()
	MuteToAPI()
	UnmuteToAPI()
	MutedToAPI() bool
	Speak(text string)
}

// ProductAPI is the product NLP backend contract.
type ProductAPI interface {
	Analyze(ctx context.Context, text string) (*models.NlpResult, error)
	Query(ctx context.Context, q nlp.ProductQuery) (*models.NlpResult, error)
	Detail(ctx context.Context, productID string) (*models.NlpResult, error)
}

// OrderAPI is the order NLP backend contract.
type OrderAPI interface {
	Analyze(ctx context.Context, text string) (*models.OrderNlpResult, error)
}

// Publisher is the result bus contract.
type Publisher interface {
	Publish(ev models.Event)
}

// openCommands trigger a detail fetch for the first item of the last result.
var openCommands = []string{
	"open product", "open this", "show product",
	"show details", "view product", "view item",
	"detail product", "details",
}

var facetKeys = []string{"brand", "color", "category", "material", "price"}

// orderSkipWords is product vocabulary that must not reach the order NLP
// backend even while order mode owns the stream.
var orderSkipWords = []string{"product", "catalog", "brand", "color", "material", "category"}

// productFilter is one stage of the product handling chain. handle returns
// true when it consumed the utterance; stages run in order with early return.
type productFilter struct {
	name   string
	handle func(text string) bool
}

// Arbiter routes utterances. Handle must be called from the session loop
// goroutine, one utterance at a time; backend continuations are posted back
// onto the loop.
type Arbiter struct {
	modes    *mode.Context
	guided   GuidedFlow
	gate     Gate
	products ProductAPI
	orders   OrderAPI
	bus      Publisher
	nav      Navigator
	post     func(func())

	chain []productFilter
	last  *models.NlpResult

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New creates an arbiter. post schedules a continuation onto the session
// loop; pass nil to run continuations inline (tests).
func New(modes *mode.Context, guided GuidedFlow, gate Gate, products ProductAPI, orders OrderAPI, bus Publisher, nav Navigator, post func(func())) *Arbiter {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	a := &Arbiter{
		modes:    modes,
		guided:   guided,
		gate:     gate,
		products: products,
		orders:   orders,
		bus:      bus,
		nav:      nav,
		post:     post,
		metrics:  metrics.DefaultMetrics,
		log:      logging.WithComponent("arbiter"),
	}
	a.chain = []productFilter{
		{name: "open_command", handle: a.filterOpenCommand},
		{name: "facet", handle: a.filterFacet},
		{name: "nlp", handle: a.filterDefault},
	}
	return a
}

// Handle arbitrates one utterance and returns how it was resolved.
func (a *Arbiter) Handle(utt models.Utterance) Outcome {
	text := strings.TrimSpace(utt.Text)
	if text == "" {
		a.metrics.UtterancesDropped.WithLabelValues("empty").Inc()
		return Continue
	}

	// An active guided flow owns every utterance unconditionally.
	if a.guided.Active() {
		a.guided.Process(text)
		return a.routed("guided", Handled)
	}

	j := journey.Classify(text)
	jlog := logging.WithJourney(utt.SessionID, string(j))
	jlog.Debug().Str("text", text).Msg("Utterance classified")

	switch j {
	case journey.OppView:
		a.switchMode(mode.Opportunity)
		a.navigate(ViewOpportunityList)
		a.gate.StopListening()
		return a.routed(string(j), Aborted)

	case journey.OppCreate:
		a.switchMode(mode.Opportunity)
		a.navigate(ViewOpportunityCreate)
		a.gate.StopListening()
		return a.routed(string(j), Aborted)

	case journey.Opportunity:
		if a.modes.Get() != mode.Opportunity {
			a.switchMode(mode.Opportunity)
			a.navigate(ViewOpportunityCreate)
			// The triggering utterance is not replayed into the flow.
			a.guided.Start()
			return a.routed(string(j), Aborted)
		}
	}

	// Opportunity mode retains absolute ownership even when the flow itself
	// is idle; the engine decides what to do with the text.
	if a.modes.IsOpportunity() {
		a.guided.Process(text)
		return a.routed(string(j), Aborted)
	}

	switch j {
	case journey.Orders:
		a.switchMode(mode.Orders)
		a.gate.MuteToAPI()
		a.navigate(ViewOrders)
	case journey.Products:
		a.switchMode(mode.Products)
		a.gate.UnmuteToAPI()
		a.bus.Publish(models.ResetEvent())
		a.navigate(ViewProducts)
	}

	if a.modes.IsOrders() {
		a.handleOrders(text)
		return a.routed(string(j), Handled)
	}

	if a.modes.IsProducts() && !a.gate.MutedToAPI() {
		a.runProductChain(text)
		return a.routed(string(j), Handled)
	}

	a.metrics.UtterancesDropped.WithLabelValues("no_owner").Inc()
	return a.routed(string(j), Continue)
}

// LatestResult returns the last product result the arbiter retained.
func (a *Arbiter) LatestResult() *models.NlpResult {
	return a.last
}

func (a *Arbiter) routed(j string, o Outcome) Outcome {
	a.metrics.UtterancesRouted.WithLabelValues(j, o.String()).Inc()
	return o
}

func (a *Arbiter) switchMode(m mode.Mode) {
	if a.modes.Get() == m {
		return
	}
	a.modes.Set(m)
	a.metrics.ModeSwitches.WithLabelValues(string(m)).Inc()
}

func (a *Arbiter) navigate(view string) {
	if a.nav.Current() != view {
		a.nav.Navigate(view)
	}
}

// handleOrders forwards order-mode utterances to the order NLP backend,
// skipping the handover phrases and product vocabulary.
func (a *Arbiter) handleOrders(text string) {
	u := strings.ToLower(text)

	if u == "go to orders" || u == "orders" || u == "show orders" {
		a.log.Debug().Str("text", u).Msg("Handover utterance skipped")
		return
	}
	for _, w := range orderSkipWords {
		if strings.Contains(u, w) {
			a.log.Debug().Str("text", u).Msg("Product query ignored in order mode")
			return
		}
	}

	go func() {
		result, err := a.orders.Analyze(context.Background(), text)
		a.post(func() {
			if err != nil {
				a.log.Warn().Err(err).Msg("Order NLP call failed")
				return
			}
			a.bus.Publish(models.Event{Target: models.TargetOrders, Order: result})
			if result.Speech != "" {
				a.gate.Speak(result.Speech)
			}
		})
	}()
}

func (a *Arbiter) runProductChain(text string) {
	for _, f := range a.chain {
		if f.handle(text) {
			a.log.Debug().Str("filter", f.name).Msg("Product filter consumed utterance")
			return
		}
	}
}

// filterOpenCommand fetches the detail of the first item of the last result
// when the user asks to open it. An open command with nothing to open is
// consumed silently.
func (a *Arbiter) filterOpenCommand(text string) bool {
	u := strings.ToLower(strings.TrimSpace(text))

	matched := false
	for _, cmd := range openCommands {
		if strings.Contains(u, cmd) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if a.last == nil || len(a.last.Products) == 0 {
		return true
	}
	id := productID(a.last.Products[0])
	if id == "" {
		return true
	}

	go func() {
		result, err := a.products.Detail(context.Background(), id)
		a.post(func() {
			if err != nil {
				a.log.Warn().Err(err).Str("productId", id).Msg("Product detail failed")
				return
			}
			a.last = result
			a.bus.Publish(models.Event{Target: models.TargetProducts, Product: result})
			a.navigate(ViewProducts)
			if result.Speech != "" {
				a.gate.Speak(result.Speech)
			}
		})
	}()
	return true
}

// filterFacet treats "<facet key> <value>" as a refinement of the current
// results, when the product view is mounted and results exist.
func (a *Arbiter) filterFacet(text string) bool {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(words) == 0 {
		return false
	}

	key := words[0]
	known := false
	for _, k := range facetKeys {
		if key == k {
			known = true
			break
		}
	}
	if !known || a.nav.Current() != ViewProducts || a.last == nil || len(a.last.Products) == 0 {
		return false
	}

	value := strings.Join(words[1:], " ")
	if value == "" {
		return true
	}

	query := a.last.SolrQuery
	if query == "" {
		query = "*:*"
	}
	req := nlp.ProductQuery{
		Query:    query,
		Filters:  map[string][]string{key: {value}},
		Page:     1,
		PageSize: 20,
	}

	go func() {
		result, err := a.products.Query(context.Background(), req)
		a.post(func() {
			if err != nil {
				a.log.Warn().Err(err).Str("facet", key).Msg("Facet query failed")
				return
			}
			a.last = result
			a.bus.Publish(models.Event{Target: models.TargetProducts, Product: result})
		})
	}()
	return true
}

// filterDefault forwards the full text to the product NLP backend. It always
// consumes.
func (a *Arbiter) filterDefault(text string) bool {
	go func() {
		result, err := a.products.Analyze(context.Background(), text)
		a.post(func() { a.finishProductAnalyze(text, result, err) })
	}()
	return true
}

func (a *Arbiter) finishProductAnalyze(text string, result *models.NlpResult, err error) {
	if err != nil {
		a.log.Error().Err(err).Msg("Product NLP call failed")
		a.modes.Disable()
		return
	}

	a.modes.Enable()
	a.last = result
	a.bus.Publish(models.Event{Target: models.TargetProducts, Product: result})

	intent := strings.ToLower(result.Intent)

	// A filter intent means the extracted entities describe a refinement;
	// re-query with them and publish the wrapped result.
	if strings.HasPrefix(intent, "search_by_") || intent == "facet_filter" {
		a.refineByEntities(text, result)
		return
	}

	if result.Speech != "" {
		a.gate.Speak(result.Speech)
	}
	if strings.HasPrefix(intent, "product_") || strings.HasPrefix(intent, "search_") || intent == "filter_products" {
		a.navigate(ViewProducts)
	}
	a.modes.Disable()
}

// refineByEntities converts "key:value" entities into a filtered query and
// republishes the result with a spoken summary.
func (a *Arbiter) refineByEntities(text string, result *models.NlpResult) {
	filters := make(map[string][]string)
	for _, e := range result.Entities {
		k, v, ok := strings.Cut(e, ":")
		if ok && v != "" {
			filters[k] = append(filters[k], v)
		}
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	req := nlp.ProductQuery{Query: "", Filters: filters, Page: 1, PageSize: 20}

	go func() {
		filtered, err := a.products.Query(context.Background(), req)
		a.post(func() {
			defer a.modes.Disable()
			if err != nil {
				a.log.Warn().Err(err).Msg("Entity filter query failed")
				return
			}

			wrapped := &models.NlpResult{
				Input:      text,
				Intent:     result.Intent,
				Entities:   result.Entities,
				SolrQuery:  "*:*",
				Products:   filtered.Products,
				Facets:     filtered.Facets,
				NumFound:   filtered.NumFound,
				Page:       filtered.Page,
				PageSize:   filtered.PageSize,
				TotalPages: filtered.TotalPages,
				Speech:     fmt.Sprintf("Showing %d products filtered by %s.", filtered.NumFound, strings.Join(keys, ", ")),
			}

			a.last = wrapped
			a.bus.Publish(models.Event{Target: models.TargetProducts, Product: wrapped})
			a.gate.Speak(wrapped.Speech)
		})
	}()
}

func productID(item map[string]any) string {
	if id, ok := item["id"].(string); ok && id != "" {
		return id
	}
	if id, ok := item["product_id"].(string); ok && id != "" {
		return id
	}
	return ""
}
