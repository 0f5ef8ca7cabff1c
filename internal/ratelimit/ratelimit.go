// Package ratelimit caps how many calls a paid API may receive per window.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/deusflow/haulnews/internal/logger"
)

// ErrBudgetExhausted is returned by Use once the window's quota is spent.
var ErrBudgetExhausted = errors.New("request budget exhausted")

// Budget counts requests and cache hits for one service. Counters reset when
// the window elapses.
type Budget struct {
	mu          sync.Mutex
	name        string
	used        int
	max         int
	window      time.Duration
	resetTime   time.Time
	cacheHits   int
	cacheMisses int
	now         func() time.Time
}

// NewBudget allows max requests per window. max <= 0 means unlimited.
func NewBudget(name string, max int, window time.Duration) *Budget {
	if window <= 0 {
		window = 24 * time.Hour
	}
	b := &Budget{name: name, max: max, window: window, now: time.Now}
	b.resetTime = b.now().Add(window)
	return b
}

// Allow reports whether another request fits without consuming it.
func (b *Budget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return b.max <= 0 || b.used < b.max
}

// Use consumes one request.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	if b.max > 0 && b.used >= b.max {
		logger.Warn("request budget reached", "service", b.name, "used", b.used, "limit", b.max)
		return ErrBudgetExhausted
	}
	b.used++
	b.cacheMisses++
	logger.Debug("request budget", "service", b.name, "used", b.used, "limit", b.max)
	return nil
}

// RecordCacheHit notes a request answered without calling the service.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheHits++
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Service      string    `json:"service"`
	Used         int       `json:"used"`
	Limit        int       `json:"limit"`
	CacheHits    int       `json:"cache_hits"`
	CacheMisses  int       `json:"cache_misses"`
	CacheHitRate float64   `json:"cache_hit_rate"`
	ResetTime    time.Time `json:"reset_time"`
}

func (b *Budget) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Stats{
		Service:     b.name,
		Used:        b.used,
		Limit:       b.max,
		CacheHits:   b.cacheHits,
		CacheMisses: b.cacheMisses,
		ResetTime:   b.resetTime,
	}
	if total := b.cacheHits + b.cacheMisses; total > 0 {
		s.CacheHitRate = float64(b.cacheHits) / float64(total) * 100
	}
	return s
}

// State is the part of a Budget carried between runs.
type State struct {
	Used        int       `json:"used"`
	CacheHits   int       `json:"cache_hits"`
	CacheMisses int       `json:"cache_misses"`
	ResetTime   time.Time `json:"reset_time"`
}

func (b *Budget) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{Used: b.used, CacheHits: b.cacheHits, CacheMisses: b.cacheMisses, ResetTime: b.resetTime}
}

// Restore replaces the counters with a saved State. A state without a reset
// time is ignored; one whose window has already closed starts a new window.
func (b *Budget) Restore(s State) {
	if s.ResetTime.IsZero() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.used = s.Used
	b.cacheHits = s.CacheHits
	b.cacheMisses = s.CacheMisses
	b.resetTime = s.ResetTime
	b.checkReset()
}

// checkReset must be called with b.mu held.
func (b *Budget) checkReset() {
	now := b.now()
	if !now.After(b.resetTime) {
		return
	}
	logger.Info("resetting request budget", "service", b.name, "used", b.used, "cache_hits", b.cacheHits)
	b.used = 0
	b.cacheHits = 0
	b.cacheMisses = 0
	b.resetTime = now.Add(b.window)
}
