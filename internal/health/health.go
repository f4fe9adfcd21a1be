// Package health tracks per-provider outcomes so operators can see which
// quote sources are degrading. It is purely observational: comparison
// results never depend on it, so every request stays independent.
package health

import (
	"sync"
	"time"
)

// ProviderStats is an accumulated view of one provider's recent behavior.
type ProviderStats struct {
	// Successes and Failures count completed quote attempts
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`

	// Timeouts is the subset of Failures caused by deadline expiry
	Timeouts uint64 `json:"timeouts"`

	// LastError is the most recent failure message, "" while healthy
	LastError string `json:"lastError,omitempty"`

	// LastLatencyMs is the duration of the most recent attempt
	LastLatencyMs int64 `json:"lastLatencyMs"`

	// LastAttempt is when the provider was last called
	LastAttempt time.Time `json:"lastAttempt"`
}

// Tracker aggregates stats per provider name.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*ProviderStats
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{stats: make(map[string]*ProviderStats)}
}

// RecordSuccess notes a successful quote attempt.
func (t *Tracker) RecordSuccess(provider string, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(provider)
	s.Successes++
	s.LastError = ""
	s.LastLatencyMs = latency.Milliseconds()
	s.LastAttempt = time.Now().UTC()
}

// RecordFailure notes a failed quote attempt.
func (t *Tracker) RecordFailure(provider, errMsg string, timedOut bool, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.get(provider)
	s.Failures++
	if timedOut {
		s.Timeouts++
	}
	s.LastError = errMsg
	s.LastLatencyMs = latency.Milliseconds()
	s.LastAttempt = time.Now().UTC()
}

// Snapshot returns a copy of all provider stats for status reporting.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ProviderStats, len(t.stats))
	for name, s := range t.stats {
		out[name] = *s
	}
	return out
}

// get returns the stats entry for a provider, creating it on first use.
// Caller must hold the write lock.
func (t *Tracker) get(provider string) *ProviderStats {
	s, ok := t.stats[provider]
	if !ok {
		s = &ProviderStats{}
		t.stats[provider] = s
	}
	return s
}
