package reco

import (
	"time"

	"github.com/ecosante/ecosante-go/internal/datastore"
)

// SeasonFor returns the meteorological season for a date: winter is
// December through February, each following season covers three months.
func SeasonFor(date time.Time) string {
	switch date.Month() {
	case time.December, time.January, time.February:
		return datastore.SeasonWinter
	case time.March, time.April, time.May:
		return datastore.SeasonSpring
	case time.June, time.July, time.August:
		return datastore.SeasonSummer
	default:
		return datastore.SeasonAutumn
	}
}
