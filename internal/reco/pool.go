// Package reco implements the recommendation matching core: candidate pool
// construction, the relevance predicate and history-aware selection.
package reco

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/logging"
)

// Package-level logger for the recommendation core
var recoLogger *slog.Logger

func init() {
	var err error
	recoLogger, _, err = logging.NewFileLogger("logs/reco.log", "reco", slog.LevelInfo)
	if err != nil || recoLogger == nil {
		recoLogger = slog.Default().With("service", "reco")
	}
}

// PoolBuilder produces the ordered candidate list selection scans.
type PoolBuilder struct {
	store datastore.RecommendationStore
	log   *slog.Logger
}

// NewPoolBuilder creates a pool builder on top of a recommendation store.
func NewPoolBuilder(store datastore.RecommendationStore) *PoolBuilder {
	return &PoolBuilder{
		store: store,
		log:   recoLogger,
	}
}

// Build returns all published recommendations in a shuffled order.
//
// The shuffle is seeded from seedToken, so the same token over the same
// published set always yields the same ordering. That keeps one user's
// daily recommendation stable across re-evaluation within a batch while
// varying across users and runs. An empty token falls back to a random
// seed.
//
// Recommendations whose id is in excludeIDs are removed, preserving
// relative order. If preferredID is nonzero that recommendation is fetched
// and prepended ahead of the shuffled order; an unresolvable preferredID
// fails the build.
func (b *PoolBuilder) Build(seedToken string, preferredID uint, excludeIDs []uint) ([]datastore.Recommendation, error) {
	pool, err := b.store.PublishedRecommendations()
	if err != nil {
		return nil, fmt.Errorf("loading published recommendations: %w", err)
	}

	rng := rand.New(rand.NewSource(seedFromToken(seedToken)))
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(excludeIDs) > 0 {
		pool = slices.DeleteFunc(pool, func(r datastore.Recommendation) bool {
			return slices.Contains(excludeIDs, r.ID)
		})
	}

	if preferredID != 0 {
		preferred, err := b.store.GetRecommendation(preferredID)
		if err != nil {
			return nil, fmt.Errorf("resolving preferred recommendation %d: %w", preferredID, err)
		}
		pool = append([]datastore.Recommendation{*preferred}, pool...)
	}

	b.log.Debug("Built candidate pool",
		"size", len(pool),
		"seeded", seedToken != "",
		"preferred", preferredID,
		"excluded", len(excludeIDs),
	)

	return pool, nil
}

// seedFromToken derives a deterministic shuffle seed from an arbitrary
// token string. Only determinism per token matters, not the seed's
// distribution.
func seedFromToken(token string) int64 {
	if token == "" {
		return rand.Int63()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return int64(h.Sum64())
}
