// Package newsletter assembles the daily message for each subscriber and
// runs the batch send.
package newsletter

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/logging"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Package-level logger for the newsletter service
var nlLogger *slog.Logger

func init() {
	var err error
	nlLogger, _, err = logging.NewFileLogger("logs/newsletter.log", "newsletter", slog.LevelInfo)
	if err != nil || nlLogger == nil {
		nlLogger = slog.Default().With("service", "newsletter")
	}
}

// Newsletter is one assembled send: a profile, the selected recommendation
// and the environmental snapshot it was selected under.
type Newsletter struct {
	Profile        datastore.Profile
	Recommendation datastore.Recommendation
	Env            airquality.Snapshot
	Date           time.Time
	ShortID        string
}

// New assembles a newsletter, generating its public short id.
func New(profile datastore.Profile, rec datastore.Recommendation, env airquality.Snapshot, date time.Time) *Newsletter {
	return &Newsletter{
		Profile:        profile,
		Recommendation: rec,
		Env:            env,
		Date:           date,
		ShortID:        uuid.NewString()[:8],
	}
}

// Content returns the recommendation text in the profile's channel format.
func (n *Newsletter) Content() string {
	return n.Recommendation.FormatFor(n.Profile.Channel)
}

// pollutantPhrases maps pollutant symbols to the wording used in messages.
var pollutantPhrases = map[string]string{
	datastore.PollutantOzone:           "à l'ozone",
	datastore.PollutantNitrogenDioxide: "au dioxyde d'azote",
	datastore.PollutantSulphurDioxide:  "au dioxyde de soufre",
	datastore.PollutantParticulates:    "aux particules fines",
}

// PollutantsFormatted returns the active pollutants as a human readable
// French enumeration for message templates.
func (n *Newsletter) PollutantsFormatted() string {
	phrases := make([]string, 0, len(n.Env.Pollutants))
	for _, symbol := range n.Env.Pollutants {
		if phrase, ok := pollutantPhrases[symbol]; ok {
			phrases = append(phrases, phrase)
		}
	}
	switch len(phrases) {
	case 0:
		return ""
	case 1:
		return phrases[0]
	default:
		return strings.Join(phrases[:len(phrases)-1], ", ") + " et " + phrases[len(phrases)-1]
	}
}

// Attributes returns the campaign attribute map consumed by message
// templates and the delivery collaborator.
func (n *Newsletter) Attributes() map[string]string {
	attrs := map[string]string{
		"FORMAT":           n.Profile.Channel,
		"VILLE":            n.Profile.CityName,
		"QUALITE_AIR":      n.Env.Label,
		"BACKGROUND_COLOR": n.Env.Color,
		"RECOMMANDATION":   n.Content(),
		"PRECISIONS":       n.Recommendation.Precisions,
		"POLLUANTS":        n.PollutantsFormatted(),
		"SHORT_ID":         n.ShortID,
	}
	if n.Profile.Channel == datastore.ChannelSMS && n.Profile.Phone != "" {
		attrs["SMS"] = n.Profile.Phone
	}
	return attrs
}

// Record converts the newsletter into the send record persisted after a
// successful selection.
func (n *Newsletter) Record() *datastore.SendRecord {
	return &datastore.SendRecord{
		ShortID:          n.ShortID,
		ProfileID:        n.Profile.ID,
		RecommendationID: n.Recommendation.ID,
		Date:             datatypes.Date(n.Date),
		Label:            n.Env.Label,
		Color:            n.Env.Color,
		Pollutants:       datastore.StringSet(n.Env.Pollutants),
		RAEP:             n.Env.RAEP,
		Channel:          n.Profile.Channel,
	}
}

// ShouldSend applies the frequency preference: profiles subscribed for
// pollution alerts only receive a newsletter when air quality is in the
// poor bucket or a pollution episode is active.
func ShouldSend(profile *datastore.Profile, env airquality.Snapshot) bool {
	if profile.Frequency != datastore.FrequencyPollution {
		return true
	}
	return env.Bucket() == airquality.BucketPoor || env.HasEpisode()
}
