package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/biblioteca-api/internal/models"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
)

type fakeFetcher struct {
	rows  []models.BookRow
	err   error
	calls int
}

func (f *fakeFetcher) FetchRows(context.Context) ([]models.BookRow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeFetcher) SheetNames() []string {
	return []string{"LIT. ADULTO", "LIT. INFANTIL"}
}

func sampleRows() []models.BookRow {
	return []models.BookRow{
		{"CÓDIGO": "A-1", "TÍTULO": "El Hobbit", "AUTOR": "J.R.R. Tolkien", models.CategoryColumn: "LIT. ADULTO"},
		{"CÓDIGO": "A-2", "TÍTULO": "EL SEÑOR DE LOS ANILLOS", "AUTOR": "TOLKIEN", models.CategoryColumn: "LIT. ADULTO"},
		{"CÓDIGO": "I-1", "TÍTULO": "El Principito", "AUTOR": "Saint-Exupéry", models.CategoryColumn: "LIT. INFANTIL"},
	}
}

func newCatalog(fetcher RowFetcher, ttl time.Duration) *CatalogService {
	cache := NewCacheService(nil, nil, ttl, nil, false)
	return NewCatalogService(fetcher, cache, nil, ttl, nil)
}

func TestSearchMatchesAnyColumnCaseInsensitive(t *testing.T) {
	svc := newCatalog(&fakeFetcher{rows: sampleRows()}, time.Minute)

	books, err := svc.Search(context.Background(), "tolkien", "")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "El Hobbit", books[0]["TÍTULO"])
	assert.Equal(t, "EL SEÑOR DE LOS ANILLOS", books[1]["TÍTULO"])

	// Matching is not limited to the author column.
	books, err = svc.Search(context.Background(), "a-1", "")
	require.NoError(t, err)
	require.Len(t, books, 1)
}

func TestSearchPreservesSourceOrder(t *testing.T) {
	svc := newCatalog(&fakeFetcher{rows: sampleRows()}, time.Minute)

	books, err := svc.Search(context.Background(), "el", "")
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "A-1", books[0]["CÓDIGO"])
	assert.Equal(t, "A-2", books[1]["CÓDIGO"])
	assert.Equal(t, "I-1", books[2]["CÓDIGO"])
}

func TestSearchEmptyQueryYieldsEmptyResult(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc := newCatalog(fetcher, time.Minute)

	for i := 0; i < 3; i++ {
		books, err := svc.Search(context.Background(), "", "")
		require.NoError(t, err)
		assert.Empty(t, books)
	}
	// No reason to touch the upstream for an empty query.
	assert.Zero(t, fetcher.calls)
}

func TestSearchCategoryFilter(t *testing.T) {
	svc := newCatalog(&fakeFetcher{rows: sampleRows()}, time.Minute)

	books, err := svc.Search(context.Background(), "el", "lit. infantil")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "El Principito", books[0]["TÍTULO"])
}

func TestBooksCategoryFilter(t *testing.T) {
	svc := newCatalog(&fakeFetcher{rows: sampleRows()}, time.Minute)

	books, err := svc.Books(context.Background(), "LIT. ADULTO")
	require.NoError(t, err)
	assert.Len(t, books, 2)

	books, err = svc.Books(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, books, 3)
}

func TestRowsServedFromCacheWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc := newCatalog(fetcher, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Rows(context.Background())
	require.NoError(t, err)
	_, err = svc.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)

	now = now.Add(2 * time.Minute)
	_, err = svc.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRowsServesStaleSnapshotWhenUpstreamFails(t *testing.T) {
	fetcher := &fakeFetcher{rows: sampleRows()}
	svc := newCatalog(fetcher, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Rows(context.Background())
	require.NoError(t, err)

	fetcher.err = errors.New("upstream down")
	now = now.Add(2 * time.Minute)

	rows, err := svc.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRowsFailsWithoutSnapshot(t *testing.T) {
	upstreamErr := appErrors.Clone(appErrors.ErrUpstreamUnavailable, "")
	svc := newCatalog(&fakeFetcher{err: upstreamErr}, time.Minute)

	_, err := svc.Rows(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErrors.FromError(err).Code)
}

func TestSearchDoesNotMutateInputRows(t *testing.T) {
	rows := sampleRows()
	svc := newCatalog(&fakeFetcher{rows: rows}, time.Minute)

	_, err := svc.Search(context.Background(), "tolkien", "")
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func TestCategories(t *testing.T) {
	svc := newCatalog(&fakeFetcher{}, time.Minute)
	assert.Equal(t, []string{"LIT. ADULTO", "LIT. INFANTIL"}, svc.Categories())
}
