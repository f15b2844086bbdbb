package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/biblioteca-api/pkg/config"
)

func limiterAt(cfg config.RateLimitConfig, at time.Time) (*RateLimitService, *time.Time) {
	now := at
	s := NewRateLimitService(cfg, nil, nil)
	s.now = func() time.Time { return now }
	return s, &now
}

func defaultLimits() config.RateLimitConfig {
	return config.RateLimitConfig{
		SearchPerMinute:          30,
		BooksPerMinute:           20,
		CaptchaVerifyPerMinute:   20,
		CaptchaGeneratePerMinute: 10,
		GlobalPerHour:            50,
		GlobalPerDay:             200,
	}
}

func TestAdmitDeniesThirtyFirstSearchInOneMinute(t *testing.T) {
	s, _ := limiterAt(defaultLimits(), time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))

	for i := 0; i < 30; i++ {
		d := s.Admit("10.0.0.1", EndpointSearch)
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
	}

	d := s.Admit("10.0.0.1", EndpointSearch)
	assert.False(t, d.Allowed)
	assert.Equal(t, EndpointSearch, d.Scope)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestAdmitIsKeyedByClient(t *testing.T) {
	cfg := defaultLimits()
	cfg.SearchPerMinute = 1
	s, _ := limiterAt(cfg, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))

	require.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
	assert.False(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
	assert.True(t, s.Admit("10.0.0.2", EndpointSearch).Allowed)
}

func TestAdmitWindowResetsAtBoundary(t *testing.T) {
	cfg := defaultLimits()
	cfg.SearchPerMinute = 1
	s, now := limiterAt(cfg, time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC))

	require.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
	denied := s.Admit("10.0.0.1", EndpointSearch)
	require.False(t, denied.Allowed)
	assert.LessOrEqual(t, denied.RetryAfter, 30*time.Second)

	*now = now.Add(31 * time.Second)
	assert.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
}

func TestGlobalDailyCeilingDeniesAllEndpoints(t *testing.T) {
	cfg := defaultLimits()
	cfg.SearchPerMinute = 1000
	cfg.BooksPerMinute = 1000
	cfg.GlobalPerHour = 1000
	cfg.GlobalPerDay = 5
	s, _ := limiterAt(cfg, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))

	for i := 0; i < 5; i++ {
		require.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
	}

	// Per-endpoint counters still have headroom; the day ceiling wins.
	d := s.Admit("10.0.0.1", EndpointBooks)
	assert.False(t, d.Allowed)
	assert.Equal(t, "global_day", d.Scope)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	d = s.Admit("10.0.0.1", EndpointCaptchaGenerate)
	assert.False(t, d.Allowed)
	assert.Equal(t, "global_day", d.Scope)
}

func TestDeniedRequestsDoNotConsumeGlobalQuota(t *testing.T) {
	cfg := defaultLimits()
	cfg.SearchPerMinute = 2
	cfg.GlobalPerHour = 3
	cfg.GlobalPerDay = 1000
	s, now := limiterAt(cfg, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))

	require.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
	require.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)

	// Denied by the minute window; must not count against the hour.
	require.False(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
	require.False(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)

	*now = now.Add(time.Minute)
	assert.True(t, s.Admit("10.0.0.1", EndpointSearch).Allowed)
}

func TestAdmitReportsRemaining(t *testing.T) {
	s, _ := limiterAt(defaultLimits(), time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))

	d := s.Admit("10.0.0.1", EndpointBooks)
	require.True(t, d.Allowed)
	assert.Equal(t, 20, d.Limit)
	assert.Equal(t, 19, d.Remaining)
}

func TestCleanupDropsExpiredWindows(t *testing.T) {
	cfg := defaultLimits()
	s, now := limiterAt(cfg, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC))

	s.Admit("10.0.0.1", EndpointSearch)
	require.NotEmpty(t, s.windows)

	*now = now.Add(25 * time.Hour)
	s.Cleanup()
	assert.Empty(t, s.windows)
}
