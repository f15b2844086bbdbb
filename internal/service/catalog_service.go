package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/biblioteca-api/internal/models"
)

// rowCacheKey is the single cache entry holding the full catalog.
const rowCacheKey = "catalog:rows"

// RowFetcher is the upstream boundary: something that can read the
// whole catalog and name its category tabs.
type RowFetcher interface {
	FetchRows(ctx context.Context) ([]models.BookRow, error)
	SheetNames() []string
}

// CatalogService serves catalog reads through a short-lived cache so
// a burst of searches does not refetch the spreadsheet every time.
// When the upstream is down it serves the last good snapshot if one
// exists.
type CatalogService struct {
	fetcher RowFetcher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	memRows   []models.BookRow
	memExpiry time.Time
	lastGood  []models.BookRow
}

// NewCatalogService constructs the catalog service. cache may be a
// disabled CacheService; the in-process snapshot still applies.
func NewCatalogService(fetcher RowFetcher, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Rows returns the full catalog, served from cache when fresh.
func (s *CatalogService) Rows(ctx context.Context) ([]models.BookRow, error) {
	if s.cache.Enabled() {
		var cached []models.BookRow
		if hit, _ := s.cache.Get(ctx, rowCacheKey, &cached); hit {
			return cached, nil
		}
	} else {
		s.mu.Lock()
		if s.memRows != nil && s.now().Before(s.memExpiry) {
			rows := s.memRows
			s.mu.Unlock()
			return rows, nil
		}
		s.mu.Unlock()
	}

	start := s.now()
	rows, err := s.fetcher.FetchRows(ctx)
	if s.metrics != nil {
		s.metrics.ObserveUpstreamFetch(s.now().Sub(start))
	}
	if err != nil {
		s.mu.Lock()
		stale := s.lastGood
		s.mu.Unlock()
		if stale != nil {
			if s.logger != nil {
				s.logger.Warn("serving stale catalog, upstream fetch failed", zap.Error(err))
			}
			return stale, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.memRows = rows
	s.memExpiry = s.now().Add(s.ttl)
	s.lastGood = rows
	s.mu.Unlock()

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, rowCacheKey, rows, s.ttl)
	}

	return rows, nil
}

// Search returns the rows matching the sanitized query, optionally
// restricted to one category. An empty query yields an empty result
// set; full dumps go through Books instead.
func (s *CatalogService) Search(ctx context.Context, query, category string) ([]models.BookRow, error) {
	if strings.TrimSpace(query) == "" {
		return []models.BookRow{}, nil
	}

	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	return matchRows(query, category, rows), nil
}

// Books returns the full catalog, optionally filtered by category.
func (s *CatalogService) Books(ctx context.Context, category string) ([]models.BookRow, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return nil, err
	}

	if category == "" {
		return rows, nil
	}

	filtered := make([]models.BookRow, 0)
	for _, row := range rows {
		if strings.EqualFold(row.Category(), category) {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// Categories lists the configured sheet tabs.
func (s *CatalogService) Categories() []string {
	return s.fetcher.SheetNames()
}

// matchRows is a pure case-insensitive substring search across every
// column value of every row. A row matches if any column contains the
// query; source order is preserved and inputs are not mutated.
func matchRows(query, category string, rows []models.BookRow) []models.BookRow {
	queryLower := strings.ToLower(query)

	matches := make([]models.BookRow, 0)
	for _, row := range rows {
		if category != "" && !strings.EqualFold(row.Category(), category) {
			continue
		}
		for _, value := range row {
			if strings.Contains(strings.ToLower(value), queryLower) {
				matches = append(matches, row)
				break
			}
		}
	}

	return matches
}
