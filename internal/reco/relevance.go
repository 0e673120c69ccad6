package reco

import (
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/datastore"
)

// populationCheck pairs a recommendation population tag with the profile
// predicate it requires. Evaluated by iteration over the fixed tag list, a
// lookup table rather than reflection over column names.
type populationCheck struct {
	tag string
	ok  func(p *datastore.Profile) bool
}

var populationChecks = []populationCheck{
	// Sensitive-population advice also applies to households with children.
	{datastore.TargetSensitive, func(p *datastore.Profile) bool {
		return p.IsSensitive() || p.HasChildren()
	}},
	// General-population advice excludes sensitive profiles, they get the
	// targeted variants instead.
	{datastore.TargetGeneral, func(p *datastore.Profile) bool {
		return !p.IsSensitive()
	}},
	{datastore.TargetChildren, func(p *datastore.Profile) bool {
		return p.HasChildren()
	}},
}

// IsRelevant reports whether a recommendation may be shown to a profile
// given the environmental snapshot on the evaluation date.
//
// All checks are conjunctive. A nil profile is the anonymous widget
// context: only the widget flag is evaluated, everything else is skipped.
func IsRelevant(r *datastore.Recommendation, p *datastore.Profile, env airquality.Snapshot, date time.Time) bool {
	if p == nil {
		return r.Widget
	}

	if !matchesHabits(r, p) {
		return false
	}
	if !matchesPopulation(r, p) {
		return false
	}
	if !matchesEnvironment(r, env) {
		return false
	}
	if !matchesPollen(r, p, env, date) {
		return false
	}
	if !matchesSeason(r, date) {
		return false
	}
	return true
}

// matchesHabits checks the activity, transport and heating requirement
// sets. An empty requirement set imposes no constraint; a profile whose
// set does not intersect a non-empty requirement is out. Unknown heating
// does not exclude: a heating requirement passes when the profile never
// declared any heating type.
func matchesHabits(r *datastore.Recommendation, p *datastore.Profile) bool {
	if len(r.Activities) > 0 && !r.Activities.Intersects(p.Activities) {
		return false
	}
	if len(r.Transport) > 0 && !r.Transport.Intersects(p.Transport) {
		return false
	}
	if len(r.Heating) > 0 && len(p.Heating) > 0 && !r.Heating.Intersects(p.Heating) {
		return false
	}
	return true
}

// matchesPopulation checks the population requirement tags against the
// profile's health flags and children answer.
func matchesPopulation(r *datastore.Recommendation, p *datastore.Profile) bool {
	for _, check := range populationChecks {
		if r.Population.Has(check.tag) && !check.ok(p) {
			return false
		}
	}
	return true
}

// matchesEnvironment applies the pollutant exclusivity rule, then the air
// quality category buckets.
//
// During an active pollution episode only pollutant-matched advice
// surfaces: a recommendation with no pollutant requirement is suppressed,
// and one with a requirement must intersect the active pollutant list. A
// pollutant match short-circuits the category check entirely.
//
// Absent an episode, pollutant-only recommendations never surface, and a
// declared category requirement must match the current bucket. An unknown
// label fails any declared category requirement, so only
// environment-agnostic advice survives missing forecast data.
func matchesEnvironment(r *datastore.Recommendation, env airquality.Snapshot) bool {
	if env.HasEpisode() {
		if len(r.Pollutants) == 0 {
			return false
		}
		return r.Pollutants.Intersects(env.Pollutants)
	}

	if len(r.Pollutants) > 0 {
		return false
	}

	if !r.QAGood && !r.QAPoor {
		return true
	}
	switch env.Bucket() {
	case airquality.BucketGood:
		return r.QAGood
	case airquality.BucketPoor:
		return r.QAPoor
	default:
		return false
	}
}

// matchesPollen gates pollen-targeted advice on the RAEP index, the
// profile's allergy flag and a fixed twice weekly cadence. Any nonzero
// risk tier behaves the same: pollen advice goes out on Wednesdays and
// Saturdays only, regardless of tier magnitude.
func matchesPollen(r *datastore.Recommendation, p *datastore.Profile, env airquality.Snapshot, date time.Time) bool {
	if !r.PollenTargeted {
		return true
	}
	if env.RAEP == 0 {
		return false
	}
	if !p.IsAllergic() {
		return false
	}
	weekday := date.Weekday()
	return weekday == time.Wednesday || weekday == time.Saturday
}

// matchesSeason checks the season requirement set against the evaluation
// date.
func matchesSeason(r *datastore.Recommendation, date time.Time) bool {
	if len(r.Seasons) == 0 {
		return true
	}
	return r.Seasons.Has(SeasonFor(date))
}
