// Package model defines the core data structures for the swap-compare-ea.
package model

import (
	"encoding/json"
	"math/big"
)

// QuoteRequest describes a single swap-quote lookup. All entities are
// request-scoped values; nothing here survives the response.
type QuoteRequest struct {
	// FromToken is the source token contract address (or symbol for
	// providers that accept symbols)
	FromToken string `json:"fromToken"`

	// ToToken is the destination token contract address
	ToToken string `json:"toToken"`

	// Amount is the trade size as a decimal string in minor units (wei
	// for 18-decimals tokens). Kept as a string end to end; parsing into
	// big.Int happens only where arithmetic is needed.
	Amount string `json:"amount"`

	// ChainID is the source chain
	ChainID int64 `json:"chainId"`

	// DstChainID is the destination chain for cross-chain requests.
	// Zero means "same as ChainID" until validation fills it in.
	DstChainID int64 `json:"dstChainId,omitempty"`

	// WalletAddress binds intent-based quotes to a settlement address.
	// Optional for classic quotes, mandatory for Fusion and cross-chain.
	WalletAddress string `json:"walletAddress,omitempty"`

	// EnableEstimate asks the provider to include a fill estimate
	EnableEstimate bool `json:"enableEstimate"`
}

// IsCrossChain reports whether the request spans two different chains.
func (r QuoteRequest) IsCrossChain() bool {
	return r.DstChainID != 0 && r.DstChainID != r.ChainID
}

// NormalizedQuote is the common comparable shape every provider produces.
// Invariant: exactly one of OutputAmount or Error is set.
type NormalizedQuote struct {
	// SourceName identifies the provider that produced this quote
	SourceName string `json:"sourceName"`

	// OutputAmount is the quoted destination amount as a decimal string
	// in minor units, same convention as QuoteRequest.Amount
	OutputAmount string `json:"outputAmount,omitempty"`

	// EstimatedGasCost is the provider's gas estimate in native-token
	// units, when the provider reports one
	EstimatedGasCost string `json:"estimatedGasCost,omitempty"`

	// RawResponse retains the opaque provider payload for debugging
	RawResponse json.RawMessage `json:"rawResponse,omitempty"`

	// Error carries the provider failure when no quote was obtained
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the provider returned a usable quote.
func (q NormalizedQuote) Succeeded() bool {
	return q.Error == "" && q.OutputAmount != ""
}

// OutputAmountInt parses OutputAmount into a big.Int. Returns false when
// the quote failed or the provider sent a non-integer amount.
func (q NormalizedQuote) OutputAmountInt() (*big.Int, bool) {
	if !q.Succeeded() {
		return nil, false
	}
	n, ok := new(big.Int).SetString(q.OutputAmount, 10)
	if !ok || n.Sign() < 0 {
		return nil, false
	}
	return n, true
}

// SuccessQuote builds a quote carrying an output amount.
func SuccessQuote(source, outputAmount string, raw json.RawMessage) NormalizedQuote {
	return NormalizedQuote{
		SourceName:   source,
		OutputAmount: outputAmount,
		RawResponse:  raw,
	}
}

// ErrorQuote builds a quote carrying a provider failure.
func ErrorQuote(source, errMsg string) NormalizedQuote {
	return NormalizedQuote{
		SourceName: source,
		Error:      errMsg,
	}
}

// ComparisonResult is the aggregator output: one entry per attempted
// provider, plus the best quote and the savings versus the worst
// successful quote.
type ComparisonResult struct {
	// Quotes holds one NormalizedQuote per configured provider, in
	// dispatch order, success or failure
	Quotes []NormalizedQuote `json:"quotes"`

	// BestQuote is the successful quote with the greatest OutputAmount,
	// nil when no provider succeeded
	BestQuote *NormalizedQuote `json:"bestQuote,omitempty"`

	// Savings is BestQuote.OutputAmount minus the worst successful
	// OutputAmount, in minor units; nil when fewer than two providers
	// succeeded
	Savings *string `json:"savings,omitempty"`
}

// SwapOrderDescriptor is a provider-specific payload describing an order
// to submit. Opaque to the aggregator; only structural presence is
// checked before it is passed through to the owning provider.
type SwapOrderDescriptor struct {
	// Provider names the client that produced (and can submit) the order
	Provider string `json:"provider"`

	// Payload is the provider-native order or transaction body
	Payload json.RawMessage `json:"payload"`
}

// OrderReceipt is the provider acknowledgement for a submitted order.
type OrderReceipt struct {
	Provider  string          `json:"provider"`
	OrderHash string          `json:"orderHash,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}
