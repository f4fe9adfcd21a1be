package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/swap-compare-ea/internal/aggregate"
	"github.com/yourorg/swap-compare-ea/internal/config"
	"github.com/yourorg/swap-compare-ea/internal/health"
	"github.com/yourorg/swap-compare-ea/internal/model"
	"github.com/yourorg/swap-compare-ea/internal/provider"
)

type stubProvider struct {
	name  string
	quote model.NormalizedQuote
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) GetQuote(ctx context.Context, req model.QuoteRequest) model.NormalizedQuote {
	s.calls.Add(1)
	return s.quote
}

func (s *stubProvider) GetSwap(ctx context.Context, req model.QuoteRequest) (*model.SwapOrderDescriptor, error) {
	s.calls.Add(1)
	return &model.SwapOrderDescriptor{Provider: s.name, Payload: []byte(`{"order":{}}`)}, nil
}

func (s *stubProvider) SubmitOrder(ctx context.Context, desc model.SwapOrderDescriptor) (*model.OrderReceipt, error) {
	s.calls.Add(1)
	return &model.OrderReceipt{Provider: s.name, OrderHash: "0xhash", Raw: desc.Payload}, nil
}

type stubRPC struct {
	blockNumber uint64
	err         error
}

func (s *stubRPC) BlockNumber(ctx context.Context) (uint64, error) {
	return s.blockNumber, s.err
}

type testGateway struct {
	server    *Server
	mux       *http.ServeMux
	providers map[string]*stubProvider
}

func newTestGateway(t *testing.T, rpc blockNumberReader) *testGateway {
	t.Helper()

	providers := map[string]*stubProvider{
		provider.NameFusion:     {name: provider.NameFusion, quote: model.SuccessQuote(provider.NameFusion, "1200", nil)},
		provider.NameClassic:    {name: provider.NameClassic, quote: model.SuccessQuote(provider.NameClassic, "1000", nil)},
		provider.NameCrossChain: {name: provider.NameCrossChain, quote: model.ErrorQuote(provider.NameCrossChain, "unexpected status 500")},
		provider.NameAltDex:     {name: provider.NameAltDex, quote: model.ErrorQuote(provider.NameAltDex, "not implemented")},
	}

	tracker := health.NewTracker()
	agg, err := aggregate.New([]provider.Client{
		providers[provider.NameFusion],
		providers[provider.NameClassic],
		providers[provider.NameCrossChain],
		providers[provider.NameAltDex],
	}, time.Second, tracker)
	require.NoError(t, err)

	cfg := config.Config{Port: "3001", ProviderTimeout: time.Second}
	srv := NewServer(cfg, agg, rpc, tracker, prometheus.NewRegistry())

	return &testGateway{server: srv, mux: srv.Routes(), providers: providers}
}

func (g *testGateway) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	g.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestClassicQuoteEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/1inch-quote", []byte(`{
		"fromToken": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"toToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"chainId": 1
	}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, provider.NameClassic, body["sourceName"])
	assert.Equal(t, "1000", body["outputAmount"])
}

func TestClassicQuoteEndpointBadBody(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})
	rec := g.do(http.MethodPost, "/api/1inch-quote", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassicQuoteEndpointProviderFailure(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})
	g.providers[provider.NameClassic].quote = model.ErrorQuote(provider.NameClassic, "unexpected status 502")

	rec := g.do(http.MethodPost, "/api/1inch-quote", []byte(`{
		"fromToken": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"toToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"chainId": 1
	}`))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "unexpected status 502")
}

func TestFusionQuoteEndpointMissingWallet(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/fusion-quote", []byte(`{
		"srcChainId": 1,
		"srcTokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"dstTokenAddress": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000"
	}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "walletAddress is required and must be a valid Ethereum address.", body["error"])
	assert.Zero(t, g.providers[provider.NameFusion].calls.Load(), "validation must reject before dispatch")
}

func TestFusionQuoteEndpointShortWallet(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/fusion-quote", []byte(`{
		"srcChainId": 1,
		"srcTokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"dstTokenAddress": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"walletAddress": "0x123"
	}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, g.providers[provider.NameFusion].calls.Load())
}

func TestFusionQuoteEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/fusion-quote", []byte(`{
		"srcChainId": 1,
		"srcTokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"dstTokenAddress": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"walletAddress": "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "1200", body["outputAmount"])
}

func TestCrossChainQuoteEndpointRequiresDistinctChains(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/cross-chain-quote", []byte(`{
		"srcChainId": 1,
		"dstChainId": 1,
		"srcTokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"dstTokenAddress": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"walletAddress": "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, g.providers[provider.NameCrossChain].calls.Load())
}

func TestCrossChainSwapEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/cross-chain-swap", []byte(`{
		"srcChainId": 1,
		"dstChainId": 137,
		"srcTokenAddress": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"dstTokenAddress": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"walletAddress": "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, provider.NameCrossChain, body["provider"])
}

func TestAltQuoteEndpointFixedResponse(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	for _, payload := range []string{
		`{"fromToken":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","toToken":"x","amount":"1","chainId":1}`,
		`total garbage`,
		``,
	} {
		rec := g.do(http.MethodPost, "/api/alt-quote", []byte(payload))
		require.Equal(t, http.StatusOK, rec.Code, "alt-quote must succeed regardless of input")

		body := decodeBody(t, rec)
		assert.Nil(t, body["price"])
		assert.Equal(t, "Alternative DEX quote not implemented yet.", body["message"])
	}
}

func TestCompareEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/compare", []byte(`{
		"fromToken": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"toToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1000000",
		"chainId": 1
	}`))

	require.Equal(t, http.StatusOK, rec.Code)

	var result model.ComparisonResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Len(t, result.Quotes, 4, "one slot per configured provider")
	require.NotNil(t, result.BestQuote)
	assert.Equal(t, provider.NameFusion, result.BestQuote.SourceName)
	assert.Equal(t, "1200", result.BestQuote.OutputAmount)
	require.NotNil(t, result.Savings)
	assert.Equal(t, "200", *result.Savings)
}

func TestCompareEndpointInvalidAmount(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	rec := g.do(http.MethodPost, "/api/compare", []byte(`{
		"fromToken": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"toToken": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"amount": "1.5",
		"chainId": 1
	}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	for _, p := range g.providers {
		assert.Zero(t, p.calls.Load())
	}
}

func TestFusionOrderEndpointForwardsPayload(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	payload := `{"order":{"salt":"1"},"signature":"0xsig"}`
	rec := g.do(http.MethodPost, "/api/fusion-order", []byte(payload))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "0xhash", body["orderHash"])
	assert.Equal(t, int32(1), g.providers[provider.NameFusion].calls.Load())
}

func TestFusionOrderEndpointEmptyBody(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})
	rec := g.do(http.MethodPost, "/api/fusion-order", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})
	rec := g.do(http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNetworkInfoEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{blockNumber: 19876543})
	rec := g.do(http.MethodGet, "/api/network-info", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"blockNumber":19876543}`, rec.Body.String())
}

func TestNetworkInfoEndpointRPCFailure(t *testing.T) {
	g := newTestGateway(t, &stubRPC{err: errors.New("rpc node unreachable")})
	rec := g.do(http.MethodGet, "/api/network-info", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "unreachable")
}

func TestPostOnlyEndpointsRejectGet(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})

	for _, path := range []string{"/api/1inch-quote", "/api/fusion-quote", "/api/compare", "/api/fusion-order"} {
		rec := g.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestStatusEndpoint(t *testing.T) {
	g := newTestGateway(t, &stubRPC{})
	rec := g.do(http.MethodGet, "/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "operational", body["status"])
	assert.Contains(t, body, "providers")
}
