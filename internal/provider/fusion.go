package provider

import (
	"bytes"
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

// FusionClient quotes through the intent-based (Fusion) quoter. Pricing
// is bound to a settlement wallet, so the wallet address is mandatory
// even for a plain quote. Same-chain requests are permitted; a missing
// destination chain defaults to the source chain.
type FusionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewFusionClient creates a Fusion quoter client from config.
func NewFusionClient(cfg config.Config) *FusionClient {
	return &FusionClient{
		baseURL:    cfg.FusionURL,
		apiKey:     cfg.OneInchAPIKey,
		httpClient: newHTTPClient(cfg),
	}
}

func (c *FusionClient) Name() string { return NameFusion }

// GetQuote requests an intent quote. The wallet precondition is checked
// locally first so an invalid request never spends provider quota.
func (c *FusionClient) GetQuote(ctx context.Context, req model.QuoteRequest) model.NormalizedQuote {
	if err := validation.RequireWalletAddress(req); err != nil {
		return model.ErrorQuote(NameFusion, err.Error())
	}
	if err := validation.ValidateChainPair(&req, false); err != nil {
		return model.ErrorQuote(NameFusion, err.Error())
	}

	status, body, err := c.quote(ctx, req)
	if err != nil {
		return quoteFailure(NameFusion, err)
	}
	if status != http.StatusOK {
		return model.ErrorQuote(NameFusion, fmt.Sprintf("unexpected status %d: %s", status, upstreamMessage(body)))
	}

	amount, err := intentOutputAmount(body)
	if err != nil {
		return model.ErrorQuote(NameFusion, err.Error())
	}
	return model.SuccessQuote(NameFusion, amount, body)
}

// GetSwap asks the quoter to build a signable intent order from the same
// parameters a quote takes.
func (c *FusionClient) GetSwap(ctx context.Context, req model.QuoteRequest) (*model.SwapOrderDescriptor, error) {
	if err := validation.RequireWalletAddress(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateChainPair(&req, false); err != nil {
		return nil, err
	}

	status, body, err := c.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &Error{Provider: NameFusion, Status: status, Message: upstreamMessage(body)}
	}

	return &model.SwapOrderDescriptor{Provider: NameFusion, Payload: body}, nil
}

// SubmitOrder forwards the descriptor payload verbatim to the relayer.
func (c *FusionClient) SubmitOrder(ctx context.Context, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	return submitToRelayer(ctx, c.httpClient, NameFusion, c.baseURL, c.apiKey, desc)
}

func (c *FusionClient) quote(ctx context.Context, req model.QuoteRequest) (int, []byte, error) {
	params := intentQuoteParams(req)
	u := c.baseURL + "/quoter/v1.0/quote/receive?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, &Error{Provider: NameFusion, Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	logrus.WithFields(logrus.Fields{
		"srcChain": req.ChainID,
		"dstChain": req.DstChainID,
	}).Debug("Fetching fusion quote")
	return doJSON(c.httpClient, NameFusion, httpReq)
}

func (c *FusionClient) buildOrder(ctx context.Context, req model.QuoteRequest) (int, []byte, error) {
	params := intentQuoteParams(req)
	u := c.baseURL + "/quoter/v1.0/quote/build?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, &Error{Provider: NameFusion, Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	return doJSON(c.httpClient, NameFusion, httpReq)
}

// intentQuoteParams maps a QuoteRequest onto the quoter's field names,
// shared by the Fusion and cross-chain clients.
func intentQuoteParams(req model.QuoteRequest) url.Values {
	params := url.Values{}
	params.Set("srcChain", strconv.FormatInt(req.ChainID, 10))
	params.Set("dstChain", strconv.FormatInt(req.DstChainID, 10))
	params.Set("srcTokenAddress", req.FromToken)
	params.Set("dstTokenAddress", req.ToToken)
	params.Set("amount", req.Amount)
	params.Set("walletAddress", req.WalletAddress)
	params.Set("enableEstimate", strconv.FormatBool(req.EnableEstimate))
	return params
}

// intentOutputAmount extracts the destination amount from a quoter
// response. The quoter has shipped both dstTokenAmount and toTokenAmount
// over time.
func intentOutputAmount(body []byte) (string, error) {
	var payload struct {
		DstTokenAmount string `json:"dstTokenAmount"`
		ToTokenAmount  string `json:"toTokenAmount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if payload.DstTokenAmount != "" {
		return payload.DstTokenAmount, nil
	}
	if payload.ToTokenAmount != "" {
		return payload.ToTokenAmount, nil
	}
	return "", fmt.Errorf("malformed response: no destination amount")
}

// submitToRelayer posts an order payload to the relayer endpoint shared
// by the intent-based providers.
func submitToRelayer(ctx context.Context, client *http.Client, providerName, baseURL, apiKey string, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	if len(desc.Payload) == 0 {
		return nil, &Error{Provider: providerName, Message: "order descriptor has no payload"}
	}

	u := baseURL + "/relayer/v1.0/submit"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(desc.Payload))
	if err != nil {
		return nil, &Error{Provider: providerName, Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	status, body, err := doJSON(client, providerName, httpReq)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusAccepted {
		return nil, &Error{Provider: providerName, Status: status, Message: upstreamMessage(body)}
	}

	var ack struct {
		OrderHash string `json:"orderHash"`
	}
	_ = json.Unmarshal(body, &ack)

	return &model.OrderReceipt{Provider: providerName, OrderHash: ack.OrderHash, Raw: body}, nil
}
