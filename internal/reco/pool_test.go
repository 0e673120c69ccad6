package reco

import (
	"testing"

	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecommendationStore serves a fixed published set from memory.
type fakeRecommendationStore struct {
	published []datastore.Recommendation
	err       error
}

func (f *fakeRecommendationStore) PublishedRecommendations() ([]datastore.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]datastore.Recommendation, len(f.published))
	copy(out, f.published)
	return out, nil
}

func (f *fakeRecommendationStore) GetRecommendation(id uint) (*datastore.Recommendation, error) {
	for i := range f.published {
		if f.published[i].ID == id {
			rec := f.published[i]
			return &rec, nil
		}
	}
	return nil, datastore.ErrNotFound
}

func (f *fakeRecommendationStore) SaveRecommendation(rec *datastore.Recommendation) error {
	return nil
}

func (f *fakeRecommendationStore) DeleteRecommendation(id uint) error {
	return nil
}

func publishedSet(n int) []datastore.Recommendation {
	recs := make([]datastore.Recommendation, n)
	for i := range recs {
		recs[i] = datastore.Recommendation{ID: uint(i + 1), Status: datastore.StatusPublished}
	}
	return recs
}

func poolIDs(pool []datastore.Recommendation) []uint {
	ids := make([]uint, len(pool))
	for i := range pool {
		ids[i] = pool[i].ID
	}
	return ids
}

func TestPoolBuilder_DeterministicPerSeed(t *testing.T) {
	t.Parallel()

	builder := NewPoolBuilder(&fakeRecommendationStore{published: publishedSet(20)})

	first, err := builder.Build("profile-42:2024-07-16", 0, nil)
	require.NoError(t, err)
	second, err := builder.Build("profile-42:2024-07-16", 0, nil)
	require.NoError(t, err)

	assert.Equal(t, poolIDs(first), poolIDs(second), "same seed must yield the same order")

	other, err := builder.Build("profile-43:2024-07-16", 0, nil)
	require.NoError(t, err)
	assert.NotEqual(t, poolIDs(first), poolIDs(other), "different seeds should diverge on 20 items")
}

func TestPoolBuilder_Exclusions(t *testing.T) {
	t.Parallel()

	builder := NewPoolBuilder(&fakeRecommendationStore{published: publishedSet(10)})

	pool, err := builder.Build("seed", 0, []uint{3, 7})
	require.NoError(t, err)

	assert.Len(t, pool, 8)
	assert.NotContains(t, poolIDs(pool), uint(3))
	assert.NotContains(t, poolIDs(pool), uint(7))

	full, err := builder.Build("seed", 0, nil)
	require.NoError(t, err)
	kept := poolIDs(full)
	kept = deleteIDs(kept, 3, 7)
	assert.Equal(t, kept, poolIDs(pool), "exclusion must preserve relative order")
}

func deleteIDs(ids []uint, remove ...uint) []uint {
	out := ids[:0]
	for _, id := range ids {
		skip := false
		for _, r := range remove {
			if id == r {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, id)
		}
	}
	return out
}

func TestPoolBuilder_PreferredFirst(t *testing.T) {
	t.Parallel()

	builder := NewPoolBuilder(&fakeRecommendationStore{published: publishedSet(10)})

	pool, err := builder.Build("seed", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, pool)
	assert.Equal(t, uint(5), pool[0].ID)
}

func TestPoolBuilder_PreferredUnknownFails(t *testing.T) {
	t.Parallel()

	builder := NewPoolBuilder(&fakeRecommendationStore{published: publishedSet(3)})

	_, err := builder.Build("seed", 99, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestPoolBuilder_EmptySeedStillBuilds(t *testing.T) {
	t.Parallel()

	builder := NewPoolBuilder(&fakeRecommendationStore{published: publishedSet(5)})

	pool, err := builder.Build("", 0, nil)
	require.NoError(t, err)
	assert.Len(t, pool, 5)
}

func TestSeedFromToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, seedFromToken("abc"), seedFromToken("abc"))
	assert.NotEqual(t, seedFromToken("abc"), seedFromToken("abd"))
}
