// Package main is the entry point for the swap-compare external adapter:
// an HTTP service that quotes a token swap against several independent
// sources, compares the results, and reports the best price and savings.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/yourorg/swap-compare-ea/internal/aggregate"
	"github.com/yourorg/swap-compare-ea/internal/config"
	"github.com/yourorg/swap-compare-ea/internal/health"
	"github.com/yourorg/swap-compare-ea/internal/model"
	"github.com/yourorg/swap-compare-ea/internal/otel"
	"github.com/yourorg/swap-compare-ea/internal/provider"
	"github.com/yourorg/swap-compare-ea/internal/rpcnode"
	"github.com/yourorg/swap-compare-ea/internal/validation"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// blockNumberReader is the chain-read dependency of /api/network-info.
type blockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Server is the HTTP gateway over the aggregator.
type Server struct {
	cfg        config.Config
	aggregator *aggregate.Aggregator
	rpc        blockNumberReader
	tracker    *health.Tracker
	metrics    *serverMetrics
	limiter    *rate.Limiter
	server     *http.Server
}

// serverMetrics holds Prometheus metrics for the gateway
type serverMetrics struct {
	requestCounter    *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	providerErrors    *prometheus.CounterVec
	compareSuccessful prometheus.Gauge
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapcompare_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swapcompare_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapcompare_provider_errors_total",
				Help: "Total number of provider quote failures",
			},
			[]string{"provider"},
		),
		compareSuccessful: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapcompare_last_comparison_successes",
				Help: "Providers that returned a usable quote in the most recent comparison",
			},
		),
	}

	reg.MustRegister(m.requestCounter, m.requestDuration, m.providerErrors, m.compareSuccessful)
	return m
}

func main() {
	// A missing .env is fine; the environment may be set by the runtime
	_ = godotenv.Load()

	setupLogging()

	cfg := config.Load()

	shutdownTracer := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracer()

	tracker := health.NewTracker()
	aggregator, err := aggregate.New(createProviders(cfg), cfg.ProviderTimeout, tracker)
	if err != nil {
		logrus.Fatalf("Error building aggregator: %v", err)
	}

	rpc, err := rpcnode.Dial(cfg.RPCEndpoint)
	if err != nil {
		logrus.Fatalf("Error dialing RPC endpoint: %v", err)
	}
	defer rpc.Close()

	server := NewServer(cfg, aggregator, rpc, tracker, prometheus.DefaultRegisterer)
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// createProviders builds the quote sources in comparison priority order.
func createProviders(cfg config.Config) []provider.Client {
	return []provider.Client{
		provider.NewFusionClient(cfg),
		provider.NewClassicSwapClient(cfg),
		provider.NewCrossChainClient(cfg),
		provider.NewAltDexClient(),
	}
}

// NewServer wires the gateway with its injected dependencies. Metrics
// register against reg so tests can use a private registry.
func NewServer(cfg config.Config, aggregator *aggregate.Aggregator, rpc blockNumberReader, tracker *health.Tracker, reg prometheus.Registerer) *Server {
	s := &Server{
		cfg:        cfg,
		aggregator: aggregator,
		rpc:        rpc,
		tracker:    tracker,
		metrics:    registerMetrics(reg),
	}

	if cfg.EnableRateLimit {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		logrus.Infof("Rate limiting enabled: %v req/s, burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	logrus.WithFields(logrus.Fields{
		"port":             cfg.Port,
		"provider_timeout": cfg.ProviderTimeout,
		"retry_max":        cfg.ProviderRetryMax,
	}).Info("Server initialized")

	return s
}

// Routes builds the HTTP mux. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/1inch-quote", s.post(s.handleClassicQuote))
	mux.HandleFunc("/api/fusion-quote", s.post(s.handleFusionQuote))
	mux.HandleFunc("/api/cross-chain-quote", s.post(s.handleCrossChainQuote))
	mux.HandleFunc("/api/cross-chain-swap", s.post(s.handleCrossChainSwap))
	mux.HandleFunc("/api/alt-quote", s.post(s.handleAltQuote))
	mux.HandleFunc("/api/compare", s.post(s.handleCompare))
	mux.HandleFunc("/api/fusion-order", s.post(s.handleFusionOrder))
	mux.HandleFunc("/api/network-info", s.handleNetworkInfo)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}

// post restricts a handler to POST, applies rate limiting and wraps it
// with request metrics.
func (s *Server) post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if s.limiter != nil && !s.limiter.Allow() {
			s.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		start := time.Now()
		h(w, r)
		s.metrics.requestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	}
}

// classicQuoteBody is the wire shape of /api/1inch-quote and /api/compare.
type classicQuoteBody struct {
	FromToken     string `json:"fromToken"`
	ToToken       string `json:"toToken"`
	Amount        string `json:"amount"`
	ChainID       int64  `json:"chainId"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

func (b classicQuoteBody) toRequest() model.QuoteRequest {
	return model.QuoteRequest{
		FromToken:      b.FromToken,
		ToToken:        b.ToToken,
		Amount:         b.Amount,
		ChainID:        b.ChainID,
		WalletAddress:  b.WalletAddress,
		EnableEstimate: true,
	}
}

// intentQuoteBody is the wire shape of the Fusion and cross-chain
// endpoints. EnableEstimate is a pointer so an absent field defaults to
// true rather than false.
type intentQuoteBody struct {
	SrcChainID      int64  `json:"srcChainId"`
	DstChainID      int64  `json:"dstChainId,omitempty"`
	SrcTokenAddress string `json:"srcTokenAddress"`
	DstTokenAddress string `json:"dstTokenAddress"`
	Amount          string `json:"amount"`
	WalletAddress   string `json:"walletAddress"`
	EnableEstimate  *bool  `json:"enableEstimate,omitempty"`
}

func (b intentQuoteBody) toRequest() model.QuoteRequest {
	enableEstimate := true
	if b.EnableEstimate != nil {
		enableEstimate = *b.EnableEstimate
	}
	return model.QuoteRequest{
		FromToken:      b.SrcTokenAddress,
		ToToken:        b.DstTokenAddress,
		Amount:         b.Amount,
		ChainID:        b.SrcChainID,
		DstChainID:     b.DstChainID,
		WalletAddress:  b.WalletAddress,
		EnableEstimate: enableEstimate,
	}
}

func (s *Server) handleClassicQuote(w http.ResponseWriter, r *http.Request) {
	var body classicQuoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	quote, err := s.aggregator.QuoteBy(r.Context(), provider.NameClassic, body.toRequest())
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, quote)
}

func (s *Server) handleFusionQuote(w http.ResponseWriter, r *http.Request) {
	s.handleIntentQuote(w, r, provider.NameFusion)
}

func (s *Server) handleCrossChainQuote(w http.ResponseWriter, r *http.Request) {
	s.handleIntentQuote(w, r, provider.NameCrossChain)
}

func (s *Server) handleIntentQuote(w http.ResponseWriter, r *http.Request, source string) {
	var body intentQuoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	quote, err := s.aggregator.QuoteBy(r.Context(), source, body.toRequest())
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, quote)
}

func (s *Server) handleCrossChainSwap(w http.ResponseWriter, r *http.Request) {
	var body intentQuoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	desc, err := s.aggregator.SwapBy(r.Context(), provider.NameCrossChain, body.toRequest())
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, desc)
}

// handleAltQuote is the placeholder fallback endpoint. It answers the
// same fixed payload regardless of input; the body is drained but never
// validated.
func (s *Server) handleAltQuote(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"price":   nil,
		"message": provider.AltDexMessage,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body classicQuoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, span := otel.Tracer().Start(r.Context(), "compare")
	span.SetAttributes(
		attribute.Int64("chain_id", body.ChainID),
		attribute.String("from_token", body.FromToken),
		attribute.String("to_token", body.ToToken),
	)
	defer span.End()

	result, err := s.aggregator.Compare(ctx, body.toRequest())
	if err != nil {
		otel.RecordError(ctx, err)
		s.writeOperationError(w, r, err)
		return
	}

	successes := 0
	for _, q := range result.Quotes {
		if q.Succeeded() {
			successes++
			continue
		}
		s.metrics.providerErrors.WithLabelValues(q.SourceName).Inc()
	}
	s.metrics.compareSuccessful.Set(float64(successes))

	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleFusionOrder(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil || len(payload) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := s.aggregator.SubmitOrderBy(r.Context(), provider.NameFusion, model.SwapOrderDescriptor{
		Provider: provider.NameFusion,
		Payload:  payload,
	})
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, receipt)
}

func (s *Server) handleNetworkInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	blockNumber, err := s.rpc.BlockNumber(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]uint64{"blockNumber": blockNumber})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus provides uptime and per-provider health for operators.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "operational",
		"uptime":    time.Since(startTime).String(),
		"providers": s.tracker.Snapshot(),
	})
}

// writeOperationError maps aggregator errors onto the HTTP contract:
// validation failures are the caller's fault (400), everything else is a
// provider or upstream failure (500).
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, err error) {
	if validation.IsValidation(err) {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.writeError(w, r, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	s.metrics.requestCounter.WithLabelValues(r.URL.Path, "success").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Warnf("Error writing response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	logrus.WithFields(logrus.Fields{
		"endpoint": r.URL.Path,
		"status":   status,
	}).Warn(msg)
	s.metrics.requestCounter.WithLabelValues(r.URL.Path, "error").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
