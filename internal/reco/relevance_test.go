package reco

import (
	"testing"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/stretchr/testify/assert"
)

// Tuesday in July, outside the pollen cadence days.
var summerTuesday = time.Date(2024, time.July, 16, 0, 0, 0, 0, time.UTC)

func goodAir() airquality.Snapshot {
	return airquality.Snapshot{Date: summerTuesday, Label: airquality.LabelGood, Color: "#50f0e6"}
}

func poorAir() airquality.Snapshot {
	return airquality.Snapshot{Date: summerTuesday, Label: airquality.LabelDegraded, Color: "#f0e641"}
}

func TestIsRelevant_Habits(t *testing.T) {
	t.Parallel()

	gardener := &datastore.Profile{
		Activities: datastore.StringSet{datastore.ActivityGardening},
		Transport:  datastore.StringSet{datastore.TransportBike},
	}

	tests := []struct {
		name string
		rec  datastore.Recommendation
		want bool
	}{
		{
			name: "no requirements matches anyone",
			rec:  datastore.Recommendation{},
			want: true,
		},
		{
			name: "activity requirement met",
			rec:  datastore.Recommendation{Activities: datastore.StringSet{datastore.ActivityGardening}},
			want: true,
		},
		{
			name: "activity requirement not met",
			rec:  datastore.Recommendation{Activities: datastore.StringSet{datastore.ActivitySport}},
			want: false,
		},
		{
			name: "transport requirement met",
			rec:  datastore.Recommendation{Transport: datastore.StringSet{datastore.TransportBike, datastore.TransportPublic}},
			want: true,
		},
		{
			name: "transport requirement not met",
			rec:  datastore.Recommendation{Transport: datastore.StringSet{datastore.TransportCar}},
			want: false,
		},
		{
			name: "heating requirement passes when profile heating unknown",
			rec:  datastore.Recommendation{Heating: datastore.StringSet{datastore.HeatingWood}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRelevant(&tt.rec, gardener, goodAir(), summerTuesday))
		})
	}
}

func TestIsRelevant_ActivityRequirementNeedsDeclaredActivity(t *testing.T) {
	t.Parallel()

	gardeningAdvice := datastore.Recommendation{Activities: datastore.StringSet{datastore.ActivityGardening}}

	gardener := &datastore.Profile{Activities: datastore.StringSet{datastore.ActivityGardening}}
	assert.True(t, IsRelevant(&gardeningAdvice, gardener, goodAir(), summerTuesday))

	inactive := &datastore.Profile{}
	assert.False(t, IsRelevant(&gardeningAdvice, inactive, goodAir(), summerTuesday))
}

func TestIsRelevant_HeatingDeclaredMismatch(t *testing.T) {
	t.Parallel()

	boilerHome := &datastore.Profile{Heating: datastore.StringSet{datastore.HeatingBoiler}}
	woodAdvice := datastore.Recommendation{Heating: datastore.StringSet{datastore.HeatingWood}}

	assert.False(t, IsRelevant(&woodAdvice, boilerHome, goodAir(), summerTuesday))
}

func TestIsRelevant_Population(t *testing.T) {
	t.Parallel()

	asthmatic := &datastore.Profile{Population: datastore.StringSet{datastore.PopulationRespiratory}}
	parent := &datastore.Profile{Children: datastore.ChildrenYes}
	neither := &datastore.Profile{}

	sensitiveAdvice := datastore.Recommendation{Population: datastore.StringSet{datastore.TargetSensitive}}
	generalAdvice := datastore.Recommendation{Population: datastore.StringSet{datastore.TargetGeneral}}
	childrenAdvice := datastore.Recommendation{Population: datastore.StringSet{datastore.TargetChildren}}

	tests := []struct {
		name    string
		rec     *datastore.Recommendation
		profile *datastore.Profile
		want    bool
	}{
		{"sensitive advice reaches respiratory profile", &sensitiveAdvice, asthmatic, true},
		{"sensitive advice reaches households with children", &sensitiveAdvice, parent, true},
		{"sensitive advice skips everyone else", &sensitiveAdvice, neither, false},
		{"general advice skips sensitive profile", &generalAdvice, asthmatic, false},
		{"general advice reaches parent", &generalAdvice, parent, true},
		{"children advice requires children", &childrenAdvice, neither, false},
		{"children advice reaches parent", &childrenAdvice, parent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRelevant(tt.rec, tt.profile, goodAir(), summerTuesday))
		})
	}
}

func TestIsRelevant_PollutantExclusivity(t *testing.T) {
	t.Parallel()

	profile := &datastore.Profile{}

	ozoneAdvice := datastore.Recommendation{Pollutants: datastore.StringSet{datastore.PollutantOzone}}
	particulateAdvice := datastore.Recommendation{Pollutants: datastore.StringSet{datastore.PollutantParticulates}}
	plainAdvice := datastore.Recommendation{}
	poorAirAdvice := datastore.Recommendation{QAPoor: true}

	episode := poorAir()
	episode.Pollutants = []string{datastore.PollutantOzone}

	t.Run("episode surfaces matching pollutant advice", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsRelevant(&ozoneAdvice, profile, episode, summerTuesday))
	})

	t.Run("episode suppresses other pollutant advice", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsRelevant(&particulateAdvice, profile, episode, summerTuesday))
	})

	t.Run("episode suppresses pollutant-free advice", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsRelevant(&plainAdvice, profile, episode, summerTuesday))
		assert.False(t, IsRelevant(&poorAirAdvice, profile, episode, summerTuesday))
	})

	t.Run("no episode suppresses pollutant advice", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsRelevant(&ozoneAdvice, profile, poorAir(), summerTuesday))
	})

	t.Run("pollutant match ignores the index category", func(t *testing.T) {
		t.Parallel()
		goodWithEpisode := goodAir()
		goodWithEpisode.Pollutants = []string{datastore.PollutantOzone}
		assert.True(t, IsRelevant(&ozoneAdvice, profile, goodWithEpisode, summerTuesday))
	})
}

func TestIsRelevant_AirQualityBuckets(t *testing.T) {
	t.Parallel()

	profile := &datastore.Profile{}
	goodOnly := datastore.Recommendation{QAGood: true}
	poorOnly := datastore.Recommendation{QAPoor: true}
	either := datastore.Recommendation{QAGood: true, QAPoor: true}
	agnostic := datastore.Recommendation{}

	unknown := airquality.Snapshot{Date: summerTuesday}

	tests := []struct {
		name string
		rec  *datastore.Recommendation
		env  airquality.Snapshot
		want bool
	}{
		{"good advice on good air", &goodOnly, goodAir(), true},
		{"good advice on poor air", &goodOnly, poorAir(), false},
		{"poor advice on poor air", &poorOnly, poorAir(), true},
		{"poor advice on good air", &poorOnly, goodAir(), false},
		{"either bucket advice on good air", &either, goodAir(), true},
		{"either bucket advice on poor air", &either, poorAir(), true},
		{"declared category fails on unknown label", &goodOnly, unknown, false},
		{"declared category fails on unknown label poor", &poorOnly, unknown, false},
		{"agnostic advice survives unknown label", &agnostic, unknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRelevant(tt.rec, profile, tt.env, summerTuesday))
		})
	}
}

func TestIsRelevant_Pollen(t *testing.T) {
	t.Parallel()

	pollenAdvice := datastore.Recommendation{PollenTargeted: true}
	allergic := &datastore.Profile{Population: datastore.StringSet{datastore.PopulationPollenAllergy}}
	notAllergic := &datastore.Profile{}

	wednesday := time.Date(2024, time.July, 17, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC)

	withRAEP := func(raep int) airquality.Snapshot {
		env := goodAir()
		env.RAEP = raep
		return env
	}

	tests := []struct {
		name    string
		profile *datastore.Profile
		env     airquality.Snapshot
		date    time.Time
		want    bool
	}{
		{"allergic profile on wednesday with risk", allergic, withRAEP(3), wednesday, true},
		{"allergic profile on saturday with risk", allergic, withRAEP(1), saturday, true},
		{"tier magnitude does not matter", allergic, withRAEP(5), wednesday, true},
		{"tuesday is off cadence", allergic, withRAEP(3), summerTuesday, false},
		{"zero risk suppresses", allergic, withRAEP(0), wednesday, false},
		{"non allergic profile excluded", notAllergic, withRAEP(3), wednesday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRelevant(&pollenAdvice, tt.profile, tt.env, tt.date))
		})
	}
}

func TestIsRelevant_Seasons(t *testing.T) {
	t.Parallel()

	profile := &datastore.Profile{}
	winterAdvice := datastore.Recommendation{Seasons: datastore.StringSet{datastore.SeasonWinter}}

	january := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	december := time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsRelevant(&winterAdvice, profile, goodAir(), january))
	assert.True(t, IsRelevant(&winterAdvice, profile, goodAir(), december))
	assert.False(t, IsRelevant(&winterAdvice, profile, goodAir(), summerTuesday))
}

func TestIsRelevant_NilProfileWidgetOnly(t *testing.T) {
	t.Parallel()

	widget := datastore.Recommendation{Widget: true, QAPoor: true, Pollutants: datastore.StringSet{datastore.PollutantOzone}}
	notWidget := datastore.Recommendation{}

	// Widget context evaluates nothing but the flag.
	assert.True(t, IsRelevant(&widget, nil, airquality.Snapshot{}, summerTuesday))
	assert.False(t, IsRelevant(&notWidget, nil, goodAir(), summerTuesday))
}

func TestSeasonFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, datastore.SeasonWinter},
		{time.February, datastore.SeasonWinter},
		{time.March, datastore.SeasonSpring},
		{time.May, datastore.SeasonSpring},
		{time.June, datastore.SeasonSummer},
		{time.August, datastore.SeasonSummer},
		{time.September, datastore.SeasonAutumn},
		{time.November, datastore.SeasonAutumn},
		{time.December, datastore.SeasonWinter},
	}

	for _, tt := range tests {
		date := time.Date(2024, tt.month, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, SeasonFor(date), "month %s", tt.month)
	}
}
