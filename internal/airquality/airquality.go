// Package airquality provides air quality, pollution episode and pollen
// risk data for a location, fetched from an external forecast API.
package airquality

import (
	"log/slog"
	"time"

	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/logging"
)

// Package-level logger for the air quality service
var (
	aqLogger   *slog.Logger
	aqLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	aqLevelVar.Set(slog.LevelInfo)

	aqLogger, _, err = logging.NewFileLogger("logs/airquality.log", "airquality", aqLevelVar)
	if err != nil || aqLogger == nil {
		aqLogger = slog.Default().With("service", "airquality")
	}
}

// Air quality index labels, fine grained. "mediocre" is a legacy label kept
// for data recorded under the older six level scale.
const (
	LabelVeryGood = "tres_bon"
	LabelGood     = "bon"
	LabelMedium   = "moyen"
	LabelMediocre = "mediocre"
	LabelDegraded = "degrade"
	LabelBad      = "mauvais"
	LabelVeryBad  = "tres_mauvais"
	LabelWorst    = "extrement_mauvais"
)

// Bucket is the coarse GOOD/POOR grouping of index labels the
// recommendation criteria run on.
type Bucket int

const (
	BucketUnknown Bucket = iota
	BucketGood
	BucketPoor
)

func (b Bucket) String() string {
	switch b {
	case BucketGood:
		return "good"
	case BucketPoor:
		return "poor"
	default:
		return "unknown"
	}
}

var labelBuckets = map[string]Bucket{
	LabelVeryGood: BucketGood,
	LabelGood:     BucketGood,
	LabelMedium:   BucketGood,
	LabelMediocre: BucketGood,
	LabelDegraded: BucketPoor,
	LabelBad:      BucketPoor,
	LabelVeryBad:  BucketPoor,
	LabelWorst:    BucketPoor,
}

// BucketFor maps a fine grained index label to its bucket. Unrecognized or
// empty labels map to BucketUnknown.
func BucketFor(label string) Bucket {
	return labelBuckets[label]
}

// pollutantCodes maps the forecast API's numeric episode codes to pollutant
// symbols.
var pollutantCodes = map[string]string{
	"1": datastore.PollutantSulphurDioxide,
	"5": datastore.PollutantParticulates,
	"7": datastore.PollutantOzone,
	"8": datastore.PollutantNitrogenDioxide,
}

// PollutantSymbol returns the symbol for an episode code, or the empty
// string for an unknown code.
func PollutantSymbol(code string) string {
	return pollutantCodes[code]
}

// Snapshot is the environmental state for one location on one date. The
// zero value means the data could not be fetched: label empty, no
// pollutants, RAEP zero. Selection treats that as "unknown" and only
// environment-agnostic recommendations stay eligible.
type Snapshot struct {
	Date       time.Time
	Label      string   // air quality index label
	Color      string   // display color supplied by the API
	Pollutants []string // symbols of pollutants with an active episode
	RAEP       int      // pollen risk index, 0 means no risk
}

// Known reports whether the snapshot carries usable forecast data.
func (s Snapshot) Known() bool {
	return s.Label != ""
}

// Bucket returns the coarse category of the snapshot's index label.
func (s Snapshot) Bucket() Bucket {
	return BucketFor(s.Label)
}

// HasEpisode reports whether at least one pollution episode is active.
func (s Snapshot) HasEpisode() bool {
	return len(s.Pollutants) > 0
}
