package reco

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/errors"
)

// ErrNoMatch is returned when no recommendation satisfies every constraint
// for a profile on a given day. The caller skips that profile's send.
var ErrNoMatch = errors.NewStd("no relevant recommendation")

// Selector picks the first relevant candidate from a pool, reordered by
// the profile's recent send history.
type Selector struct {
	history datastore.SendRecordStore
	window  time.Duration
	log     *slog.Logger
}

// NewSelector creates a selector with the given anti-repetition window in
// days. A non-positive value falls back to the default 30 days.
func NewSelector(history datastore.SendRecordStore, windowDays int) *Selector {
	if windowDays <= 0 {
		windowDays = conf.DefaultHistoryWindowDays
	}
	return &Selector{
		history: history,
		window:  time.Duration(windowDays) * 24 * time.Hour,
		log:     recoLogger,
	}
}

// Select scans the pool in history-biased order and returns the first
// recommendation the relevance predicate accepts, or ErrNoMatch.
//
// The pool is partitioned, preserving relative order, into candidates that
// were not recently sent and differ from the last sent category, candidates
// that were not recently sent but repeat that category, and candidates sent
// within the window. Fresh content wins; repeating a category is a
// reluctant second; resending a specific recommendation is the last resort.
//
// A nil profile is the anonymous widget context: no history applies and
// only widget-flagged recommendations are eligible.
func (s *Selector) Select(pool []datastore.Recommendation, profile *datastore.Profile, env airquality.Snapshot, date time.Time) (*datastore.Recommendation, error) {
	ordered := pool
	if profile != nil {
		recentIDs, lastCategory, err := s.recentHistory(profile.ID, date)
		if err != nil {
			return nil, err
		}
		ordered = partitionByHistory(pool, recentIDs, lastCategory)
	}

	for i := range ordered {
		if IsRelevant(&ordered[i], profile, env, date) {
			return &ordered[i], nil
		}
	}

	if profile != nil {
		s.log.Info("No relevant recommendation",
			"profile_id", profile.ID,
			"pool_size", len(pool),
			"label", env.Label,
			"pollutants", env.Pollutants,
			"raep", env.RAEP,
			"date", date.Format("2006-01-02"),
		)
	}
	return nil, ErrNoMatch
}

// recentHistory returns the ids of recommendations sent to the profile
// within the window, and the category tag of the most recently sent one
// (empty string when there is none).
func (s *Selector) recentHistory(profileID uint, date time.Time) (map[uint]bool, string, error) {
	since := date.Add(-s.window)
	records, err := s.history.RecentSendRecords(profileID, since)
	if err != nil {
		return nil, "", fmt.Errorf("loading send history for profile %d: %w", profileID, err)
	}

	recentIDs := make(map[uint]bool, len(records))
	for i := range records {
		recentIDs[records[i].RecommendationID] = true
	}

	lastCategory := ""
	if len(records) > 0 && records[0].Recommendation != nil {
		lastCategory = records[0].Recommendation.Category
	}
	return recentIDs, lastCategory, nil
}

// partitionByHistory splits the pool into the three history buckets and
// concatenates them, preserving relative order within each bucket.
func partitionByHistory(pool []datastore.Recommendation, recentIDs map[uint]bool, lastCategory string) []datastore.Recommendation {
	fresh := make([]datastore.Recommendation, 0, len(pool))
	var sameCategory, recentlySent []datastore.Recommendation

	for i := range pool {
		switch {
		case recentIDs[pool[i].ID]:
			recentlySent = append(recentlySent, pool[i])
		case lastCategory != "" && pool[i].Category == lastCategory:
			sameCategory = append(sameCategory, pool[i])
		default:
			fresh = append(fresh, pool[i])
		}
	}

	ordered := fresh
	ordered = append(ordered, sameCategory...)
	ordered = append(ordered, recentlySent...)
	return ordered
}
