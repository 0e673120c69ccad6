package airquality

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider fails configured cities and counts calls per INSEE code.
type countingProvider struct {
	calls   map[string]int
	failing map[string]bool
}

func (c *countingProvider) Fetch(ctx context.Context, insee string, date time.Time) (Snapshot, error) {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[insee]++
	if c.failing[insee] {
		return Snapshot{}, assert.AnError
	}
	return Snapshot{Date: date, Label: LabelGood}, nil
}

func TestBulkFetcher_CachesPerCityAndDate(t *testing.T) {
	t.Parallel()

	provider := &countingProvider{}
	fetcher := NewBulkFetcher(provider, time.Hour)
	date := time.Date(2024, time.July, 16, 0, 0, 0, 0, time.UTC)

	first, err := fetcher.Fetch(context.Background(), "13055", date)
	require.NoError(t, err)
	second, err := fetcher.Fetch(context.Background(), "13055", date)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls["13055"], "second fetch must hit the cache")

	_, err = fetcher.Fetch(context.Background(), "13055", date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls["13055"], "a different date is a different cache entry")
}

func TestBulkFetcher_FetchAll(t *testing.T) {
	t.Parallel()

	provider := &countingProvider{failing: map[string]bool{"75056": true}}
	fetcher := NewBulkFetcher(provider, time.Hour)
	date := time.Date(2024, time.July, 16, 0, 0, 0, 0, time.UTC)

	snapshots := fetcher.FetchAll(context.Background(),
		[]string{"13055", "75056", "13055", "", "69123"}, date)

	assert.Len(t, snapshots, 2)
	assert.Contains(t, snapshots, "13055")
	assert.Contains(t, snapshots, "69123")
	assert.NotContains(t, snapshots, "75056", "failed cities are absent, not zero valued")

	assert.Equal(t, 1, provider.calls["13055"], "duplicate INSEE codes fetch once")
}

func TestBulkFetcher_FetchAllStopsOnCancel(t *testing.T) {
	t.Parallel()

	provider := &countingProvider{}
	fetcher := NewBulkFetcher(provider, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snapshots := fetcher.FetchAll(ctx, []string{"13055", "69123"}, time.Now())
	assert.Empty(t, snapshots)
}
