package newsletter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/errors"
	"github.com/ecosante/ecosante-go/internal/observability/metrics"
	"github.com/ecosante/ecosante-go/internal/reco"
	"golang.org/x/sync/errgroup"
)

// Dispatcher sends an assembled newsletter over the profile's channel.
// Implemented by the delivery package.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *Newsletter) error
}

// Options control one batch run.
type Options struct {
	Date        time.Time // evaluation date, defaults to today
	Seed        string    // seed token for the pool shuffle
	PreferredID uint      // recommendation forced to the front, admin preview
	ExcludeIDs  []uint    // recommendations removed from the pool
	DryRun      bool      // assemble and persist nothing, dispatch nothing
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Profiles    int // active profiles considered
	Sent        int // newsletters dispatched (or assembled in dry run)
	Skipped     int // frequency preference not met today
	NoMatch     int // no relevant recommendation
	MissingData int // no environmental data for the profile's city
	Failed      int // persistence or dispatch failures
}

// Runner executes the daily selection and send over the subscriber base.
type Runner struct {
	store      datastore.Interface
	fetcher    *airquality.BulkFetcher
	pool       *reco.PoolBuilder
	selector   *reco.Selector
	dispatcher Dispatcher
	metrics    *metrics.NewsletterMetrics
	workers    int
}

// NewRunner wires a batch runner. dispatcher may be nil, in which case
// newsletters are persisted but not sent. nlMetrics may be nil.
func NewRunner(settings *conf.Settings, store datastore.Interface, provider airquality.Provider, dispatcher Dispatcher, nlMetrics *metrics.NewsletterMetrics) *Runner {
	workers := settings.Newsletter.Workers
	if workers <= 0 {
		workers = conf.DefaultBatchWorkers
	}
	return &Runner{
		store:      store,
		fetcher:    airquality.NewBulkFetcher(provider, settings.AirQuality.CacheTTL),
		pool:       reco.NewPoolBuilder(store),
		selector:   reco.NewSelector(store, settings.Newsletter.WindowDays),
		dispatcher: dispatcher,
		metrics:    nlMetrics,
		workers:    workers,
	}
}

// Run performs one batch: one bulk forecast fetch, one shared candidate
// pool, then an independent selection per profile. Profiles are evaluated
// concurrently; each send record write is its own transaction, so
// cancelling the batch never corrupts already-processed profiles.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now()

	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	profiles, err := r.store.ActiveProfiles()
	if err != nil {
		return Summary{}, fmt.Errorf("loading active profiles: %w", err)
	}

	pool, err := r.pool.Build(opts.Seed, opts.PreferredID, opts.ExcludeIDs)
	if err != nil {
		return Summary{}, err
	}

	insees := uniqueInsees(profiles)
	snapshots := r.fetcher.FetchAll(ctx, insees, date)
	if r.metrics != nil {
		for _, insee := range insees {
			if _, ok := snapshots[insee]; ok {
				r.metrics.RecordForecastFetch("success")
			} else {
				r.metrics.RecordForecastFetch("failure")
			}
		}
	}

	nlLogger.Info("Batch starting",
		"profiles", len(profiles),
		"pool_size", len(pool),
		"cities", len(snapshots),
		"date", date.Format("2006-01-02"),
		"dry_run", opts.DryRun,
	)

	var (
		mu      sync.Mutex
		summary = Summary{Profiles: len(profiles)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range profiles {
		profile := profiles[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			outcome := r.processProfile(gctx, &profile, pool, snapshots, date, opts.DryRun)
			mu.Lock()
			switch outcome {
			case outcomeSent:
				summary.Sent++
			case outcomeSkipped:
				summary.Skipped++
			case outcomeNoMatch:
				summary.NoMatch++
			case outcomeMissingData:
				summary.MissingData++
			case outcomeFailed:
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()

	if r.metrics != nil {
		r.metrics.RecordBatch(time.Since(started), len(profiles))
	}
	nlLogger.Info("Batch finished",
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"no_match", summary.NoMatch,
		"missing_data", summary.MissingData,
		"failed", summary.Failed,
		"duration", time.Since(started).String(),
	)

	return summary, err
}

// uniqueInsees returns the distinct non-empty INSEE codes of the profiles,
// in first-seen order.
func uniqueInsees(profiles []datastore.Profile) []string {
	seen := make(map[string]bool, len(profiles))
	insees := make([]string, 0, len(profiles))
	for i := range profiles {
		insee := profiles[i].CityInsee
		if insee == "" || seen[insee] {
			continue
		}
		seen[insee] = true
		insees = append(insees, insee)
	}
	return insees
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeNoMatch
	outcomeMissingData
	outcomeFailed
)

// processProfile runs selection, persistence and dispatch for one profile.
func (r *Runner) processProfile(ctx context.Context, profile *datastore.Profile, pool []datastore.Recommendation, snapshots map[string]airquality.Snapshot, date time.Time, dryRun bool) outcome {
	started := time.Now()

	env, found := snapshots[profile.CityInsee]
	missingData := !found || !env.Known()
	if missingData {
		// Unknown environment: only category/pollutant-agnostic advice
		// stays eligible, the selection itself still runs.
		nlLogger.Warn("Missing environmental data",
			"profile_id", profile.ID,
			"insee", profile.CityInsee,
		)
		if r.metrics != nil {
			r.metrics.RecordSelection("missing_data")
		}
	}

	if !ShouldSend(profile, env) {
		return outcomeSkipped
	}

	selected, err := r.selector.Select(pool, profile, env, date)
	if r.metrics != nil {
		r.metrics.RecordSelectionDuration(time.Since(started))
	}
	if err != nil {
		if errors.Is(err, reco.ErrNoMatch) {
			if r.metrics != nil {
				r.metrics.RecordSelection("no_match")
			}
			return outcomeNoMatch
		}
		nlLogger.Error("Selection failed", "profile_id", profile.ID, "error", err)
		if r.metrics != nil {
			r.metrics.RecordSelection("error")
		}
		return outcomeFailed
	}
	if r.metrics != nil {
		r.metrics.RecordSelection("selected")
	}

	n := New(*profile, *selected, env, date)
	if dryRun {
		return outcomeSent
	}

	if err := r.store.InsertSendRecord(n.Record()); err != nil {
		nlLogger.Error("Send record write failed", "profile_id", profile.ID, "error", err)
		return outcomeFailed
	}

	if r.dispatcher != nil {
		if err := r.dispatcher.Dispatch(ctx, n); err != nil {
			nlLogger.Error("Dispatch failed",
				"profile_id", profile.ID,
				"channel", profile.Channel,
				"error", err,
			)
			if r.metrics != nil {
				r.metrics.RecordDelivery(profile.Channel, "error")
			}
			return outcomeFailed
		}
		if r.metrics != nil {
			r.metrics.RecordDelivery(profile.Channel, "success")
		}
	}

	if missingData {
		return outcomeMissingData
	}
	return outcomeSent
}

// Collect assembles newsletters for every active profile without writing
// send records or dispatching anything. Used by the CSV export preview.
func (r *Runner) Collect(ctx context.Context, opts Options) ([]Newsletter, error) {
	date := opts.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	profiles, err := r.store.ActiveProfiles()
	if err != nil {
		return nil, fmt.Errorf("loading active profiles: %w", err)
	}

	pool, err := r.pool.Build(opts.Seed, opts.PreferredID, opts.ExcludeIDs)
	if err != nil {
		return nil, err
	}

	snapshots := r.fetcher.FetchAll(ctx, uniqueInsees(profiles), date)

	newsletters := make([]Newsletter, 0, len(profiles))
	for i := range profiles {
		if ctx.Err() != nil {
			return newsletters, ctx.Err()
		}
		profile := profiles[i]
		env := snapshots[profile.CityInsee]
		if !ShouldSend(&profile, env) {
			continue
		}
		selected, err := r.selector.Select(pool, &profile, env, date)
		if err != nil {
			if errors.Is(err, reco.ErrNoMatch) {
				continue
			}
			return nil, err
		}
		newsletters = append(newsletters, *New(profile, *selected, env, date))
	}
	return newsletters, nil
}
