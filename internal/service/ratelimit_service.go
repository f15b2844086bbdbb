package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/biblioteca-api/internal/models"
	"github.com/noah-isme/biblioteca-api/pkg/config"
)

// Endpoint classes with independent per-minute quotas.
const (
	EndpointSearch          = "search"
	EndpointBooks           = "books"
	EndpointCaptchaGenerate = "captcha_generate"
	EndpointCaptchaVerify   = "captcha_verify"
)

// Global counter scopes, applied across all limited endpoints.
const (
	scopeGlobalHour = "global_hour"
	scopeGlobalDay  = "global_day"
)

type quota struct {
	scope  string
	limit  int
	period time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimitService enforces fixed-window quotas keyed by client
// identity. State is in-process; acceptable for this traffic profile,
// an external store would be needed to share limits across replicas.
type RateLimitService struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     config.RateLimitConfig
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewRateLimitService constructs the limiter.
func NewRateLimitService(cfg config.RateLimitConfig, metrics *MetricsService, logger *zap.Logger) *RateLimitService {
	return &RateLimitService{
		windows: make(map[string]*window),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *RateLimitService) quotasFor(endpoint string) []quota {
	var endpointLimit int
	switch endpoint {
	case EndpointSearch:
		endpointLimit = s.cfg.SearchPerMinute
	case EndpointBooks:
		endpointLimit = s.cfg.BooksPerMinute
	case EndpointCaptchaGenerate:
		endpointLimit = s.cfg.CaptchaGeneratePerMinute
	case EndpointCaptchaVerify:
		endpointLimit = s.cfg.CaptchaVerifyPerMinute
	default:
		endpointLimit = s.cfg.BooksPerMinute
	}

	return []quota{
		{scope: endpoint, limit: endpointLimit, period: time.Minute},
		{scope: scopeGlobalHour, limit: s.cfg.GlobalPerHour, period: time.Hour},
		{scope: scopeGlobalDay, limit: s.cfg.GlobalPerDay, period: 24 * time.Hour},
	}
}

// Admit checks every applicable counter for the client and, only when
// all of them have headroom, increments them. A denial leaves every
// counter untouched and reports the time until the nearest tripped
// window resets.
func (s *RateLimitService) Admit(clientID, endpoint string) models.RateLimitDecision {
	quotas := s.quotasFor(endpoint)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: find any counter already at its ceiling.
	var denied *quota
	var retryAfter time.Duration
	for i := range quotas {
		q := quotas[i]
		w := s.windowFor(clientID, q, now)
		if q.limit > 0 && w.count >= q.limit {
			wait := w.resetAt.Sub(now)
			if denied == nil || wait < retryAfter {
				denied = &quotas[i]
				retryAfter = wait
			}
		}
	}

	if denied != nil {
		if s.metrics != nil {
			s.metrics.RecordRateLimitDenial(denied.scope)
		}
		if s.logger != nil {
			s.logger.Warn("rate limit exceeded",
				zap.String("client", clientID),
				zap.String("endpoint", endpoint),
				zap.String("scope", denied.scope),
				zap.Duration("retry_after", retryAfter))
		}
		return models.RateLimitDecision{
			Allowed:    false,
			Scope:      denied.scope,
			Limit:      denied.limit,
			RetryAfter: retryAfter,
		}
	}

	// Second pass: the request is admitted, count it everywhere.
	var remaining int
	for i, q := range quotas {
		w := s.windowFor(clientID, q, now)
		w.count++
		if i == 0 {
			remaining = q.limit - w.count
		}
	}

	return models.RateLimitDecision{
		Allowed:   true,
		Scope:     endpoint,
		Limit:     quotas[0].limit,
		Remaining: remaining,
	}
}

// windowFor returns the live window for a client/scope pair, rolling
// over atomically once the window end is reached. Caller holds the lock.
func (s *RateLimitService) windowFor(clientID string, q quota, now time.Time) *window {
	key := clientID + "|" + q.scope
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Truncate(q.period).Add(q.period)}
		s.windows[key] = w
	}
	return w
}

// Cleanup drops windows that have already reset. Run from a periodic
// sweep so idle clients do not accumulate forever.
func (s *RateLimitService) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
