// Package aggregate drives concurrent quote collection across all
// configured providers and computes the comparison result.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/swap-compare-ea/internal/health"
	"github.com/yourorg/swap-compare-ea/internal/model"
	"github.com/yourorg/swap-compare-ea/internal/provider"
	"github.com/yourorg/swap-compare-ea/internal/validation"
)

// timeoutErrMsg fills a provider slot whose call outlived its deadline.
const timeoutErrMsg = "provider timeout"

// Aggregator owns the provider clients (one long-lived client per
// source, injected at construction) and exposes the comparison and
// single-provider operations on top of them.
type Aggregator struct {
	providers []provider.Client
	byName    map[string]provider.Client
	timeout   time.Duration
	tracker   *health.Tracker
}

// New creates an aggregator over the given providers. Dispatch order of
// the comparison result follows the slice order. timeout bounds each
// provider call individually; tracker may be nil.
func New(providers []provider.Client, timeout time.Duration, tracker *health.Tracker) (*Aggregator, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	byName := make(map[string]provider.Client, len(providers))
	for _, p := range providers {
		if _, dup := byName[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate provider: %s", p.Name())
		}
		byName[p.Name()] = p
	}

	return &Aggregator{
		providers: providers,
		byName:    byName,
		timeout:   timeout,
		tracker:   tracker,
	}, nil
}

// Compare validates the request, fans out GetQuote to every configured
// provider concurrently, and composes the comparison. Once validation
// passes it never fails: a comparison where every provider errored is a
// valid (if unhelpful) result.
func (a *Aggregator) Compare(ctx context.Context, req model.QuoteRequest) (model.ComparisonResult, error) {
	if err := validation.ValidateQuoteRequest(&req); err != nil {
		return model.ComparisonResult{}, err
	}
	if err := validation.ValidateChainPair(&req, false); err != nil {
		return model.ComparisonResult{}, err
	}

	quotes := make([]model.NormalizedQuote, len(a.providers))
	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(slot int, p provider.Client) {
			defer wg.Done()
			quotes[slot] = a.collectQuote(ctx, p, req)
		}(i, p)
	}
	wg.Wait()

	result := model.ComparisonResult{Quotes: quotes}
	result.BestQuote, result.Savings = bestAndSavings(quotes)

	logrus.WithFields(logrus.Fields{
		"providers": len(quotes),
		"succeeded": countSuccesses(quotes),
		"best":      bestSource(result.BestQuote),
	}).Debug("Comparison complete")

	return result, nil
}

// QuoteBy runs a single provider's quote operation. Validation failures
// and provider failures both surface as request-level errors here, since
// a single-source endpoint has no partial result to fall back on.
func (a *Aggregator) QuoteBy(ctx context.Context, source string, req model.QuoteRequest) (model.NormalizedQuote, error) {
	p, err := a.lookup(source)
	if err != nil {
		return model.NormalizedQuote{}, err
	}
	if err := a.validateFor(source, &req); err != nil {
		return model.NormalizedQuote{}, err
	}

	quote := a.collectQuote(ctx, p, req)
	if !quote.Succeeded() {
		return model.NormalizedQuote{}, &provider.Error{
			Provider: source,
			Message:  quote.Error,
			Timeout:  quote.Error == timeoutErrMsg,
		}
	}
	return quote, nil
}

// SwapBy builds an executable swap or order descriptor via one provider.
func (a *Aggregator) SwapBy(ctx context.Context, source string, req model.QuoteRequest) (*model.SwapOrderDescriptor, error) {
	p, err := a.lookup(source)
	if err != nil {
		return nil, err
	}
	if err := validation.RequireWalletAddress(req); err != nil {
		return nil, err
	}
	if err := a.validateFor(source, &req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return p.GetSwap(ctx, req)
}

// SubmitOrderBy forwards an order descriptor to the provider that owns
// it. The payload itself is opaque; only structural presence is checked.
func (a *Aggregator) SubmitOrderBy(ctx context.Context, source string, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	p, err := a.lookup(source)
	if err != nil {
		return nil, err
	}
	if len(desc.Payload) == 0 {
		return nil, &provider.Error{Provider: source, Message: "order descriptor has no payload"}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return p.SubmitOrder(ctx, desc)
}

// collectQuote runs one provider call under the per-provider timeout and
// enforces the slot invariant (exactly one of OutputAmount or Error). A
// provider that outlives its deadline is abandoned and its slot filled
// with a timeout error, so one slow source never holds up the rest.
func (a *Aggregator) collectQuote(ctx context.Context, p provider.Client, req model.QuoteRequest) model.NormalizedQuote {
	start := time.Now()

	qctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan model.NormalizedQuote, 1)
	go func() {
		done <- p.GetQuote(qctx, req)
	}()

	var quote model.NormalizedQuote
	select {
	case quote = <-done:
	case <-qctx.Done():
		if errors.Is(qctx.Err(), context.DeadlineExceeded) {
			quote = model.ErrorQuote(p.Name(), timeoutErrMsg)
		} else {
			quote = model.ErrorQuote(p.Name(), "request canceled")
		}
	}

	quote = normalizeSlot(p.Name(), quote)
	a.record(p.Name(), quote, time.Since(start))
	return quote
}

// normalizeSlot repairs quotes that violate the one-of invariant rather
// than letting a misbehaving provider corrupt the comparison.
func normalizeSlot(source string, q model.NormalizedQuote) model.NormalizedQuote {
	if q.SourceName == "" {
		q.SourceName = source
	}
	if q.Error != "" {
		q.OutputAmount = ""
		return q
	}
	if q.OutputAmount == "" {
		return model.ErrorQuote(source, "provider returned an empty quote")
	}
	if _, ok := q.OutputAmountInt(); !ok {
		return model.ErrorQuote(source, fmt.Sprintf("provider returned a non-integer amount: %q", q.OutputAmount))
	}
	return q
}

func (a *Aggregator) record(source string, q model.NormalizedQuote, latency time.Duration) {
	if a.tracker == nil {
		return
	}
	if q.Succeeded() {
		a.tracker.RecordSuccess(source, latency)
		return
	}
	a.tracker.RecordFailure(source, q.Error, strings.Contains(q.Error, timeoutErrMsg), latency)
}

func (a *Aggregator) lookup(source string) (provider.Client, error) {
	p, ok := a.byName[source]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", source)
	}
	return p, nil
}

// validateFor applies the shared checks plus the source's own
// preconditions, before any outbound call is made.
func (a *Aggregator) validateFor(source string, req *model.QuoteRequest) error {
	if err := validation.ValidateQuoteRequest(req); err != nil {
		return err
	}
	if provider.RequiresWalletForQuote(source) {
		if err := validation.RequireWalletAddress(*req); err != nil {
			return err
		}
	}
	return validation.ValidateChainPair(req, provider.RequiresDistinctChains(source))
}

// bestAndSavings picks the successful quote with the numerically
// greatest output amount and the difference to the worst one. Amounts
// are compared as big integers in minor units, never as floats. Ties go
// to the higher-priority provider.
func bestAndSavings(quotes []model.NormalizedQuote) (*model.NormalizedQuote, *string) {
	var (
		bestIdx   = -1
		bestVal   *big.Int
		worstVal  *big.Int
		successes int
	)

	for i, q := range quotes {
		n, ok := q.OutputAmountInt()
		if !ok {
			continue
		}
		successes++

		if bestVal == nil || n.Cmp(bestVal) > 0 ||
			(n.Cmp(bestVal) == 0 && provider.Priority(q.SourceName) < provider.Priority(quotes[bestIdx].SourceName)) {
			bestIdx, bestVal = i, n
		}
		if worstVal == nil || n.Cmp(worstVal) < 0 {
			worstVal = n
		}
	}

	if bestIdx < 0 {
		return nil, nil
	}

	best := quotes[bestIdx]
	if successes < 2 {
		return &best, nil
	}

	savings := new(big.Int).Sub(bestVal, worstVal).String()
	return &best, &savings
}

func countSuccesses(quotes []model.NormalizedQuote) int {
	n := 0
	for _, q := range quotes {
		if q.Succeeded() {
			n++
		}
	}
	return n
}

func bestSource(q *model.NormalizedQuote) string {
	if q == nil {
		return "none"
	}
	return q.SourceName
}
