package reco

import (
	"testing"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSendRecordStore serves canned history, newest first like the real
// store.
type fakeSendRecordStore struct {
	records []datastore.SendRecord
	err     error
}

func (f *fakeSendRecordStore) InsertSendRecord(record *datastore.SendRecord) error { return nil }

func (f *fakeSendRecordStore) RecentSendRecords(profileID uint, since time.Time) ([]datastore.SendRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSendRecordStore) SendRecordsForDate(date time.Time) ([]datastore.SendRecord, error) {
	return nil, nil
}

func (f *fakeSendRecordStore) UpdateFeedback(shortID string, applied *bool, opinion string) error {
	return nil
}

func sentRecord(recID uint, category string) datastore.SendRecord {
	return datastore.SendRecord{
		RecommendationID: recID,
		Recommendation:   &datastore.Recommendation{ID: recID, Category: category},
	}
}

func TestSelector_PrefersUnsentRecommendation(t *testing.T) {
	t.Parallel()

	pool := []datastore.Recommendation{
		{ID: 1, Category: "chauffage"},
		{ID: 2, Category: "transport"},
	}
	history := &fakeSendRecordStore{records: []datastore.SendRecord{sentRecord(1, "chauffage")}}
	selector := NewSelector(history, 30)

	selected, err := selector.Select(pool, &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	require.NoError(t, err)
	assert.Equal(t, uint(2), selected.ID, "recently sent candidate must lose to a fresh one")
}

func TestSelector_SameCategoryIsReluctantSecond(t *testing.T) {
	t.Parallel()

	pool := []datastore.Recommendation{
		{ID: 2, Category: "chauffage"},
		{ID: 3, Category: "transport"},
	}
	history := &fakeSendRecordStore{records: []datastore.SendRecord{sentRecord(1, "chauffage")}}
	selector := NewSelector(history, 30)

	selected, err := selector.Select(pool, &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	require.NoError(t, err)
	assert.Equal(t, uint(3), selected.ID, "a different category must beat repeating the last one")
}

func TestSelector_RecentlySentIsLastResort(t *testing.T) {
	t.Parallel()

	// The only relevant candidate was sent yesterday. It still wins over
	// sending nothing.
	pool := []datastore.Recommendation{{ID: 1, Category: "chauffage"}}
	history := &fakeSendRecordStore{records: []datastore.SendRecord{sentRecord(1, "chauffage")}}
	selector := NewSelector(history, 30)

	selected, err := selector.Select(pool, &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	require.NoError(t, err)
	assert.Equal(t, uint(1), selected.ID)
}

func TestSelector_HistoryOrderingSkipsIrrelevant(t *testing.T) {
	t.Parallel()

	// The fresh candidate is irrelevant for this profile, so the
	// recently sent one is selected despite its penalty.
	pool := []datastore.Recommendation{
		{ID: 1, Category: "sport", Activities: datastore.StringSet{datastore.ActivitySport}},
		{ID: 2, Category: "chauffage"},
	}
	history := &fakeSendRecordStore{records: []datastore.SendRecord{sentRecord(2, "chauffage")}}
	selector := NewSelector(history, 30)

	selected, err := selector.Select(pool, &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	require.NoError(t, err)
	assert.Equal(t, uint(2), selected.ID)
}

func TestSelector_NoMatch(t *testing.T) {
	t.Parallel()

	pool := []datastore.Recommendation{
		{ID: 1, Activities: datastore.StringSet{datastore.ActivitySport}},
		{ID: 2, Pollutants: datastore.StringSet{datastore.PollutantOzone}},
	}
	selector := NewSelector(&fakeSendRecordStore{}, 30)

	_, err := selector.Select(pool, &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSelector_EmptyPool(t *testing.T) {
	t.Parallel()

	selector := NewSelector(&fakeSendRecordStore{}, 30)

	_, err := selector.Select(nil, &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSelector_HistoryErrorPropagates(t *testing.T) {
	t.Parallel()

	storeErr := assert.AnError
	selector := NewSelector(&fakeSendRecordStore{err: storeErr}, 30)

	_, err := selector.Select(publishedSet(3), &datastore.Profile{ID: 7}, goodAir(), summerTuesday)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrNoMatch)
}

func TestSelector_NilProfileSkipsHistory(t *testing.T) {
	t.Parallel()

	// The store would fail if consulted; the widget path must not touch it.
	selector := NewSelector(&fakeSendRecordStore{err: assert.AnError}, 30)

	pool := []datastore.Recommendation{
		{ID: 1},
		{ID: 2, Widget: true},
	}
	selected, err := selector.Select(pool, nil, airquality.Snapshot{}, summerTuesday)
	require.NoError(t, err)
	assert.Equal(t, uint(2), selected.ID)
}

func TestPartitionByHistory_PreservesOrderWithinBuckets(t *testing.T) {
	t.Parallel()

	pool := []datastore.Recommendation{
		{ID: 1, Category: "a"},
		{ID: 2, Category: "b"},
		{ID: 3, Category: "a"},
		{ID: 4, Category: "c"},
	}
	recent := map[uint]bool{4: true}

	ordered := partitionByHistory(pool, recent, "a")
	assert.Equal(t, []uint{2, 1, 3, 4}, poolIDs(ordered))
}

func TestPartitionByHistory_NoHistoryKeepsPoolOrder(t *testing.T) {
	t.Parallel()

	pool := []datastore.Recommendation{
		{ID: 1},
		{ID: 2, Category: "a"},
		{ID: 3},
	}

	ordered := partitionByHistory(pool, nil, "")
	assert.Equal(t, []uint{1, 2, 3}, poolIDs(ordered))
}
