// model.go: this code defines the data model for profiles, recommendations
// and send records
package datastore

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Transport modes
const (
	TransportBike   = "velo"
	TransportPublic = "tec"
	TransportCar    = "voiture"
)

// Activities
const (
	ActivityHousework = "menage"
	ActivityDIY       = "bricolage"
	ActivityGardening = "jardinage"
	ActivitySport     = "sport"
)

// Heating types
const (
	HeatingWood      = "bois"
	HeatingBoiler    = "chaudiere"
	HeatingAuxiliary = "appoint"
)

// Profile population tags (health flags)
const (
	PopulationRespiratory   = "pathologie_respiratoire"
	PopulationPollenAllergy = "allergie_pollens"
)

// Recommendation population requirements
const (
	TargetChildren  = "enfants"
	TargetSensitive = "personnes_sensibles"
	TargetGeneral   = "population_generale"
)

// Pollutant symbols
const (
	PollutantOzone           = "o3"
	PollutantNitrogenDioxide = "no2"
	PollutantSulphurDioxide  = "so2"
	PollutantParticulates    = "pm10"
)

// Seasons
const (
	SeasonWinter = "hiver"
	SeasonSpring = "printemps"
	SeasonSummer = "ete"
	SeasonAutumn = "automne"
)

// Contact channels
const (
	ChannelMail = "mail"
	ChannelSMS  = "sms"
)

// Sending frequencies
const (
	FrequencyDaily     = "quotidien"
	FrequencyPollution = "pollution"
)

// Children tri-state values; the empty string means "not answered".
const (
	ChildrenYes = "oui"
	ChildrenNo  = "non"
)

// Recommendation lifecycle statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusDeleted   = "deleted"
)

// Fixed vocabularies, used to sanitize user supplied habit sets.
var (
	TransportModes = []string{TransportBike, TransportPublic, TransportCar}
	Activities     = []string{ActivityHousework, ActivityDIY, ActivityGardening, ActivitySport}
	HeatingTypes   = []string{HeatingWood, HeatingBoiler, HeatingAuxiliary}
	PopulationTags = []string{PopulationRespiratory, PopulationPollenAllergy}
	TargetTags     = []string{TargetChildren, TargetSensitive, TargetGeneral}
	PollutantCodes = []string{PollutantOzone, PollutantNitrogenDioxide, PollutantSulphurDioxide, PollutantParticulates}
	SeasonNames    = []string{SeasonWinter, SeasonSpring, SeasonSummer, SeasonAutumn}
)

// Profile represents a subscriber: contact details, location and the
// self-declared habits and health flags the recommendation matching runs on.
type Profile struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"size:255;index"`
	Phone string `gorm:"size:16"`

	CityInsee string `gorm:"size:8;index"`
	CityName  string `gorm:"size:128"`

	Channel   string `gorm:"type:varchar(8)"`  // mail or sms
	Frequency string `gorm:"type:varchar(16)"` // quotidien or pollution

	// Habit sets; nil means the question was never answered.
	Transport  StringSet
	Activities StringSet
	Heating    StringSet

	// Health flags as a population tag set plus the children tri-state.
	Population StringSet
	Children   string `gorm:"type:varchar(8)"`
	Pets       bool

	CreatedAt      time.Time
	UpdatedAt      time.Time
	UnsubscribedAt *time.Time `gorm:"index"`
	DeactivatedAt  *time.Time `gorm:"index"`

	SendRecords []SendRecord `gorm:"foreignKey:ProfileID"`
}

// HasTransport reports whether the profile declared the given transport mode.
func (p *Profile) HasTransport(mode string) bool {
	return p.Transport.Has(mode)
}

// HasActivity reports whether the profile declared the given activity.
func (p *Profile) HasActivity(activity string) bool {
	return p.Activities.Has(activity)
}

// HasRespiratoryDisease reports whether the profile declared a respiratory
// pathology.
func (p *Profile) HasRespiratoryDisease() bool {
	return p.Population.Has(PopulationRespiratory)
}

// IsAllergic reports whether the profile declared a pollen allergy.
func (p *Profile) IsAllergic() bool {
	return p.Population.Has(PopulationPollenAllergy)
}

// IsSensitive reports whether the profile belongs to the sensitive
// population: respiratory pathology or pollen allergy.
func (p *Profile) IsSensitive() bool {
	return p.HasRespiratoryDisease() || p.IsAllergic()
}

// HasChildren reports whether the profile answered "oui" to the children
// question. An unanswered question counts as no.
func (p *Profile) HasChildren() bool {
	return p.Children == ChildrenYes
}

// IsActive reports whether the profile should receive newsletters.
func (p *Profile) IsActive() bool {
	return p.UnsubscribedAt == nil && p.DeactivatedAt == nil
}

// NormalizePhone converts a locally formatted French number to its
// international +33 form. Already international numbers pass through.
func NormalizePhone(value string) string {
	if value == "" {
		return value
	}
	if strings.HasPrefix(value, "+") {
		return value
	}
	if strings.HasPrefix(value, "00") || strings.HasPrefix(value, "33") {
		return value
	}
	if strings.HasPrefix(value, "0") {
		return "+33" + value[1:]
	}
	return "+33" + value
}

// Sanitize restricts every habit set to its vocabulary and normalizes the
// phone number. Called before insert and update.
func (p *Profile) Sanitize() {
	p.Phone = NormalizePhone(p.Phone)
	p.Transport = p.Transport.Normalize(TransportModes)
	p.Activities = p.Activities.Normalize(Activities)
	p.Heating = p.Heating.Normalize(HeatingTypes)
	p.Population = p.Population.Normalize(PopulationTags)
	if p.Children != ChildrenYes && p.Children != ChildrenNo {
		p.Children = ""
	}
}

// Recommendation is a piece of advice with the eligibility criteria the
// relevance predicate evaluates. Empty requirement sets impose no
// constraint.
type Recommendation struct {
	ID     uint   `gorm:"primaryKey"`
	Status string `gorm:"type:varchar(16);index"`

	Content    string `gorm:"type:text"` // long form, used for mail
	ContentSMS string `gorm:"type:text"` // SMS length variant
	Precisions string `gorm:"type:text"`
	Sources    string `gorm:"type:text"`
	Objective  string `gorm:"type:text"`

	// Category tag used for anti-repetition grouping, free text.
	Category string `gorm:"size:64;index"`
	// Ordering hint, lower sorts first when two candidates tie. Optional.
	Ordering int

	// Requirement sets, match-if-intersects semantics.
	Activities StringSet
	Transport  StringSet
	Heating    StringSet
	Population StringSet
	Pollutants StringSet
	Seasons    StringSet

	// Air quality category requirement. Both false means no constraint,
	// both true means eligible in either bucket.
	QAGood bool
	QAPoor bool

	// PollenTargeted marks advice for the pollen-allergic population,
	// gated on the RAEP index.
	PollenTargeted bool

	// Widget marks recommendations shown in the anonymous widget.
	Widget bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPublished reports whether the recommendation is visible to selection.
func (r *Recommendation) IsPublished() bool {
	return r.Status == StatusPublished
}

// FormatFor returns the content variant for the given contact channel.
func (r *Recommendation) FormatFor(channel string) string {
	if channel == ChannelSMS {
		return r.ContentSMS
	}
	return r.Content
}

// HasEnvironmentalConstraint reports whether the recommendation depends on
// environmental state at all. Pure habit advice is eligible regardless of
// air quality.
func (r *Recommendation) HasEnvironmentalConstraint() bool {
	return r.QAGood || r.QAPoor || len(r.Pollutants) > 0
}

// SendRecord records one selection event: which recommendation was chosen
// for a profile on a date, and the environmental snapshot at selection time.
// Immutable after creation except for the feedback fields.
type SendRecord struct {
	ID      uint   `gorm:"primaryKey"`
	ShortID string `gorm:"size:8;uniqueIndex"`

	ProfileID uint     `gorm:"index:idx_send_records_profile_date;not null"`
	Profile   *Profile `gorm:"foreignKey:ProfileID"`

	RecommendationID uint            `gorm:"index;not null"`
	Recommendation   *Recommendation `gorm:"foreignKey:RecommendationID"`

	Date datatypes.Date `gorm:"index:idx_send_records_profile_date"`

	// Environmental snapshot at selection time.
	Label      string `gorm:"size:32"`
	Color      string `gorm:"size:16"`
	Pollutants StringSet
	RAEP       int

	Channel string `gorm:"type:varchar(8)"`

	// Post-send feedback.
	Applied *bool
	Opinion string `gorm:"type:text"`

	CreatedAt time.Time
}
