package airquality

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// BulkFetcher fetches snapshots for many cities, deduplicating by INSEE
// code and caching results so a batch run performs one fetch per city.
type BulkFetcher struct {
	provider Provider
	cache    *cache.Cache
}

// NewBulkFetcher wraps a provider with a TTL cache.
func NewBulkFetcher(provider Provider, ttl time.Duration) *BulkFetcher {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &BulkFetcher{
		provider: provider,
		cache:    cache.New(ttl, 2*ttl),
	}
}

// Fetch returns the snapshot for one city, from cache when possible.
func (b *BulkFetcher) Fetch(ctx context.Context, insee string, date time.Time) (Snapshot, error) {
	key := cacheKey(insee, date)
	if cached, found := b.cache.Get(key); found {
		return cached.(Snapshot), nil
	}

	snapshot, err := b.provider.Fetch(ctx, insee, date)
	if err != nil {
		return Snapshot{}, err
	}
	b.cache.SetDefault(key, snapshot)
	return snapshot, nil
}

// FetchAll returns a snapshot per INSEE code. Cities whose fetch failed are
// absent from the result map; callers treat them as unknown environmental
// data, log, and continue.
func (b *BulkFetcher) FetchAll(ctx context.Context, insees []string, date time.Time) map[string]Snapshot {
	snapshots := make(map[string]Snapshot, len(insees))
	seen := make(map[string]bool, len(insees))

	for _, insee := range insees {
		if insee == "" || seen[insee] {
			continue
		}
		seen[insee] = true

		if ctx.Err() != nil {
			break
		}

		snapshot, err := b.Fetch(ctx, insee, date)
		if err != nil {
			aqLogger.Error("Bulk fetch failed for city", "insee", insee, "error", err)
			continue
		}
		snapshots[insee] = snapshot
	}
	return snapshots
}

func cacheKey(insee string, date time.Time) string {
	return fmt.Sprintf("%s:%s", insee, date.Format("2006-01-02"))
}
