// Package provider contains the quote-source clients. Every source
// (classic DEX aggregator, intent-based Fusion, cross-chain bridge,
// alternative DEX fallback) implements the same Client contract so the
// aggregator can dispatch to them uniformly.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/swap-compare-ea/internal/config"
	"github.com/yourorg/swap-compare-ea/internal/model"
)

// Provider source names as they appear in NormalizedQuote.SourceName
const (
	NameClassic    = "1inch"
	NameFusion     = "fusion"
	NameCrossChain = "cross-chain"
	NameAltDex     = "alt-dex"
)

// priority breaks output-amount ties between successful quotes; lower is
// better. Ordering reflects integration maturity.
var priority = map[string]int{
	NameFusion:     0,
	NameClassic:    1,
	NameCrossChain: 2,
	NameAltDex:     3,
}

// Priority returns the tie-break rank for a source name. Unknown sources
// rank last.
func Priority(source string) int {
	if p, ok := priority[source]; ok {
		return p
	}
	return len(priority)
}

// Client is the contract every quote source implements.
type Client interface {
	// Name returns the stable source identifier
	Name() string

	// GetQuote issues one outbound quote call. It never returns a Go
	// error: transport failures, non-2xx statuses, malformed payloads
	// and timeouts are all captured in the returned quote's Error field
	// so the aggregator can proceed with partial results.
	GetQuote(ctx context.Context, req model.QuoteRequest) model.NormalizedQuote

	// GetSwap builds an executable transaction or intent order. Unlike
	// quotes, failures propagate: a partial swap result is not
	// actionable.
	GetSwap(ctx context.Context, req model.QuoteRequest) (*model.SwapOrderDescriptor, error)

	// SubmitOrder forwards a previously built order descriptor to the
	// provider's order endpoint. Only intent-based sources support it.
	SubmitOrder(ctx context.Context, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error)
}

// RequiresWalletForQuote reports whether a source's intent model binds
// pricing to a settlement address, making the wallet mandatory even for
// a plain quote.
func RequiresWalletForQuote(source string) bool {
	return source == NameFusion || source == NameCrossChain
}

// RequiresDistinctChains reports whether a source only accepts requests
// spanning two different chains.
func RequiresDistinctChains(source string) bool {
	return source == NameCrossChain
}

// ErrOrderSubmissionUnsupported is returned by sources without an order
// endpoint (classic swaps execute via a signed transaction, not an order).
var ErrOrderSubmissionUnsupported = errors.New("order submission is not supported by this provider")

// Error is a typed provider failure for swap and order operations.
type Error struct {
	// Provider is the source that failed
	Provider string

	// Status is the upstream HTTP status, 0 for transport failures
	Status int

	// Message is the upstream or transport error text
	Message string

	// Timeout marks per-provider deadline expiry
	Timeout bool
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsTimeout reports whether err is a provider timeout.
func IsTimeout(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Timeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// newHTTPClient builds the outbound transport shared by the live
// providers. RetryMax defaults to 0: a quote is a point-in-time estimate
// and each provider call is attempted exactly once unless an operator
// opts in via PROVIDER_RETRY_MAX.
func newHTTPClient(cfg config.Config) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.ProviderRetryMax
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = cfg.ProviderTimeout
	c.Logger = nil
	// Only transport failures are retryable. A 5xx body still carries the
	// provider's error message, which must reach the normalized quote
	// instead of being swallowed by the retry loop.
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}
	return c.StandardClient()
}

// doJSON executes a request and returns the status code and raw body.
// Transport failures come back as *Error with Timeout set when the
// context deadline expired.
func doJSON(client *http.Client, providerName string, req *http.Request) (int, []byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(req.Context().Err(), context.DeadlineExceeded) {
			return 0, nil, &Error{Provider: providerName, Message: "provider timeout", Timeout: true}
		}
		return 0, nil, &Error{Provider: providerName, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Provider: providerName, Status: resp.StatusCode, Message: fmt.Sprintf("reading response: %v", err)}
	}

	logrus.WithFields(logrus.Fields{
		"provider": providerName,
		"status":   resp.StatusCode,
		"url":      req.URL.Path,
	}).Debug("Provider call completed")

	return resp.StatusCode, body, nil
}

// quoteFailure converts a swap-layer error into the degraded quote shape
// GetQuote must return.
func quoteFailure(source string, err error) model.NormalizedQuote {
	if IsTimeout(err) {
		return model.ErrorQuote(source, "provider timeout")
	}
	return model.ErrorQuote(source, err.Error())
}
