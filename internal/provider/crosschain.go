package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/swap-compare-ea/internal/config"
	"github.com/yourorg/swap-compare-ea/internal/model"
	"github.com/yourorg/swap-compare-ea/internal/validation"
)

// CrossChainClient quotes bridge transfers between two different chains.
// Like Fusion it prices against a settlement wallet, but unlike Fusion
// the chain pair must be distinct: a same-chain bridge is meaningless.
type CrossChainClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCrossChainClient creates a cross-chain quoter client from config.
func NewCrossChainClient(cfg config.Config) *CrossChainClient {
	return &CrossChainClient{
		baseURL:    cfg.CrossChainURL,
		apiKey:     cfg.OneInchAPIKey,
		httpClient: newHTTPClient(cfg),
	}
}

func (c *CrossChainClient) Name() string { return NameCrossChain }

// GetQuote requests a bridge quote. Inside a same-chain comparison the
// chain-pair precondition fails locally and the slot degrades to an
// error quote without an outbound call.
func (c *CrossChainClient) GetQuote(ctx context.Context, req model.QuoteRequest) model.NormalizedQuote {
	if err := validation.RequireWalletAddress(req); err != nil {
		return model.ErrorQuote(NameCrossChain, err.Error())
	}
	if err := validation.ValidateChainPair(&req, true); err != nil {
		return model.ErrorQuote(NameCrossChain, err.Error())
	}

	status, body, err := c.call(ctx, "/quoter/v1.0/quote/receive", req)
	if err != nil {
		return quoteFailure(NameCrossChain, err)
	}
	if status != http.StatusOK {
		return model.ErrorQuote(NameCrossChain, fmt.Sprintf("unexpected status %d: %s", status, upstreamMessage(body)))
	}

	amount, err := intentOutputAmount(body)
	if err != nil {
		return model.ErrorQuote(NameCrossChain, err.Error())
	}
	return model.SuccessQuote(NameCrossChain, amount, body)
}

// GetSwap builds a bridge order descriptor ready for signing.
func (c *CrossChainClient) GetSwap(ctx context.Context, req model.QuoteRequest) (*model.SwapOrderDescriptor, error) {
	if err := validation.RequireWalletAddress(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateChainPair(&req, true); err != nil {
		return nil, err
	}

	status, body, err := c.call(ctx, "/quoter/v1.0/quote/build", req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &Error{Provider: NameCrossChain, Status: status, Message: upstreamMessage(body)}
	}

	return &model.SwapOrderDescriptor{Provider: NameCrossChain, Payload: body}, nil
}

// SubmitOrder forwards a bridge order descriptor to the relayer.
func (c *CrossChainClient) SubmitOrder(ctx context.Context, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	return submitToRelayer(ctx, c.httpClient, NameCrossChain, c.baseURL, c.apiKey, desc)
}

func (c *CrossChainClient) call(ctx context.Context, path string, req model.QuoteRequest) (int, []byte, error) {
	params := intentQuoteParams(req)
	u := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, &Error{Provider: NameCrossChain, Message: fmt.Sprintf("creating request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	logrus.WithFields(logrus.Fields{
		"srcChain": req.ChainID,
		"dstChain": req.DstChainID,
	}).Debug("Fetching cross-chain quote")
	return doJSON(c.httpClient, NameCrossChain, httpReq)
}
