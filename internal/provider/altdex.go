package provider

import (
	"context"

	"github.com/yourorg/swap-compare-ea/internal/model"
)

// AltDexMessage is the fixed response body for the fallback source until
// a live integration lands.
const AltDexMessage = "Alternative DEX quote not implemented yet."

// AltDexClient is the alternative-DEX fallback slot. No live integration
// exists, so every quote resolves deterministically to a "not
// implemented" result. That is a legitimate terminal state, represented
// as a normal negative quote so the aggregator's dispatch loop stays
// uniform.
type AltDexClient struct{}

// NewAltDexClient creates the placeholder fallback client.
func NewAltDexClient() *AltDexClient {
	return &AltDexClient{}
}

func (c *AltDexClient) Name() string { return NameAltDex }

// GetQuote always returns the terminal "not implemented" quote. Never an
// outbound call, never a panic, never a Go error.
func (c *AltDexClient) GetQuote(ctx context.Context, req model.QuoteRequest) model.NormalizedQuote {
	return model.ErrorQuote(NameAltDex, "not implemented")
}

// GetSwap fails: there is no integration to build transactions against.
func (c *AltDexClient) GetSwap(ctx context.Context, req model.QuoteRequest) (*model.SwapOrderDescriptor, error) {
	return nil, &Error{Provider: NameAltDex, Message: "not implemented"}
}

// SubmitOrder is unsupported.
func (c *AltDexClient) SubmitOrder(ctx context.Context, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	return nil, ErrOrderSubmissionUnsupported
}
