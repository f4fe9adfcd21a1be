package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/swap-compare-ea/internal/config"
	"github.com/yourorg/swap-compare-ea/internal/model"
	"github.com/yourorg/swap-compare-ea/internal/validation"
)

// ClassicSwapClient quotes through the classic on-chain DEX aggregator
// API ({base}/{chainId}/quote). Quotes do not require a wallet; swaps do.
type ClassicSwapClient struct {
	baseURL    string
	apiKey     string
	slippage   float64
	httpClient *http.Client
}

// NewClassicSwapClient creates a classic aggregator client from config.
func NewClassicSwapClient(cfg config.Config) *ClassicSwapClient {
	return &ClassicSwapClient{
		baseURL:    cfg.ClassicSwapURL,
		apiKey:     cfg.OneInchAPIKey,
		slippage:   cfg.SwapSlippage,
		httpClient: newHTTPClient(cfg),
	}
}

func (c *ClassicSwapClient) Name() string { return NameClassic }

// GetQuote maps {src, dst, amount} onto the aggregator's quote route. A
// 4xx from the provider is a user-facing "quote unavailable", carried on
// the quote's Error field like any other degraded result.
func (c *ClassicSwapClient) GetQuote(ctx context.Context, req model.QuoteRequest) model.NormalizedQuote {
	params := url.Values{}
	params.Set("src", req.FromToken)
	params.Set("dst", req.ToToken)
	params.Set("amount", req.Amount)
	params.Set("includeGas", "true")

	status, body, err := c.get(ctx, fmt.Sprintf("/%d/quote", req.ChainID), params)
	if err != nil {
		return quoteFailure(NameClassic, err)
	}
	if status >= 400 && status < 500 {
		return model.ErrorQuote(NameClassic, fmt.Sprintf("quote unavailable: %s", upstreamMessage(body)))
	}
	if status != http.StatusOK {
		return model.ErrorQuote(NameClassic, fmt.Sprintf("unexpected status %d: %s", status, upstreamMessage(body)))
	}

	var payload struct {
		DstAmount string `json:"dstAmount"`
		// v5-era field name, kept for compatibility
		ToAmount string `json:"toAmount"`
		Gas      int64  `json:"gas"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.ErrorQuote(NameClassic, fmt.Sprintf("malformed response: %v", err))
	}

	amount := payload.DstAmount
	if amount == "" {
		amount = payload.ToAmount
	}
	if amount == "" {
		return model.ErrorQuote(NameClassic, "malformed response: no destination amount")
	}

	quote := model.SuccessQuote(NameClassic, amount, body)
	if payload.Gas > 0 {
		quote.EstimatedGasCost = strconv.FormatInt(payload.Gas, 10)
	}
	return quote
}

// GetSwap builds an executable swap transaction. The wallet address
// becomes the tx sender, so it is mandatory here even though quotes get
// by without one.
func (c *ClassicSwapClient) GetSwap(ctx context.Context, req model.QuoteRequest) (*model.SwapOrderDescriptor, error) {
	if err := validation.RequireWalletAddress(req); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("src", req.FromToken)
	params.Set("dst", req.ToToken)
	params.Set("amount", req.Amount)
	params.Set("from", req.WalletAddress)
	params.Set("slippage", strconv.FormatFloat(c.slippage, 'f', -1, 64))

	status, body, err := c.get(ctx, fmt.Sprintf("/%d/swap", req.ChainID), params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &Error{Provider: NameClassic, Status: status, Message: upstreamMessage(body)}
	}

	return &model.SwapOrderDescriptor{Provider: NameClassic, Payload: body}, nil
}

// SubmitOrder is unsupported: classic swaps execute as signed
// transactions broadcast by the wallet, never as provider-held orders.
func (c *ClassicSwapClient) SubmitOrder(ctx context.Context, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	return nil, ErrOrderSubmissionUnsupported
}

func (c *ClassicSwapClient) get(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, &Error{Provider: NameClassic, Message: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logrus.Debugf("Fetching classic quote: %s", path)
	return doJSON(c.httpClient, NameClassic, req)
}

// upstreamMessage pulls a human-readable message out of a provider error
// body, falling back to the raw body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Description string `json:"description"`
		Message     string `json:"message"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Description != "":
			return payload.Description
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}
