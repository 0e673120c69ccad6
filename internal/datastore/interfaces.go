// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"time"

	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.NewStd("record not found")

// ProfileStore defines the profile persistence operations.
type ProfileStore interface {
	InsertProfile(profile *Profile) error
	UpdateProfile(profile *Profile) error
	GetProfile(id uint) (*Profile, error)
	GetProfileByEmail(email string) (*Profile, error)
	ActiveProfiles() ([]Profile, error)
	Unsubscribe(id uint, at time.Time) error
	AnonymizeStaleProfiles(unsubscribedBefore time.Time) (int64, error)
}

// RecommendationStore defines the recommendation persistence operations.
type RecommendationStore interface {
	PublishedRecommendations() ([]Recommendation, error)
	GetRecommendation(id uint) (*Recommendation, error)
	SaveRecommendation(rec *Recommendation) error
	DeleteRecommendation(id uint) error
}

// SendRecordStore defines the send history persistence operations.
type SendRecordStore interface {
	InsertSendRecord(record *SendRecord) error
	RecentSendRecords(profileID uint, since time.Time) ([]SendRecord, error)
	SendRecordsForDate(date time.Time) ([]SendRecord, error)
	UpdateFeedback(shortID string, applied *bool, opinion string) error
}

// Interface abstracts the underlying database implementation and composes
// the per-entity stores.
type Interface interface {
	Open() error
	Close() error
	ProfileStore
	RecommendationStore
	SendRecordStore
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// --- ProfileStore ---

// InsertProfile stores a new profile.
func (ds *DataStore) InsertProfile(profile *Profile) error {
	profile.Sanitize()
	if err := ds.DB.Create(profile).Error; err != nil {
		return dbError(err, "insert-profile")
	}
	return nil
}

// UpdateProfile persists a self-service profile update.
func (ds *DataStore) UpdateProfile(profile *Profile) error {
	profile.Sanitize()
	if err := ds.DB.Save(profile).Error; err != nil {
		return dbError(err, "update-profile")
	}
	return nil
}

// GetProfile retrieves a profile by its ID.
func (ds *DataStore) GetProfile(id uint) (*Profile, error) {
	var profile Profile
	if err := ds.DB.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: profile %d", ErrNotFound, id)
		}
		return nil, dbError(err, "get-profile")
	}
	return &profile, nil
}

// GetProfileByEmail retrieves a profile by its email address.
func (ds *DataStore) GetProfileByEmail(email string) (*Profile, error) {
	var profile Profile
	if err := ds.DB.Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: profile with email %s", ErrNotFound, email)
		}
		return nil, dbError(err, "get-profile-by-email")
	}
	return &profile, nil
}

// ActiveProfiles returns all profiles eligible for a newsletter send.
func (ds *DataStore) ActiveProfiles() ([]Profile, error) {
	var profiles []Profile
	err := ds.DB.
		Where("unsubscribed_at IS NULL").
		Where("deactivated_at IS NULL").
		Order("id").
		Find(&profiles).Error
	if err != nil {
		return nil, dbError(err, "active-profiles")
	}
	return profiles, nil
}

// Unsubscribe marks a profile as unsubscribed. The profile row is kept so
// send history foreign keys remain valid; contact details are wiped later
// by AnonymizeStaleProfiles.
func (ds *DataStore) Unsubscribe(id uint, at time.Time) error {
	result := ds.DB.Model(&Profile{}).
		Where("id = ?", id).
		Where("unsubscribed_at IS NULL").
		Update("unsubscribed_at", at)
	if result.Error != nil {
		return dbError(result.Error, "unsubscribe")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: profile %d", ErrNotFound, id)
	}
	return nil
}

// AnonymizeStaleProfiles wipes contact details from profiles unsubscribed
// before the given time and marks them deactivated. Returns the number of
// profiles anonymized.
func (ds *DataStore) AnonymizeStaleProfiles(unsubscribedBefore time.Time) (int64, error) {
	result := ds.DB.Model(&Profile{}).
		Where("unsubscribed_at IS NOT NULL").
		Where("unsubscribed_at < ?", unsubscribedBefore).
		Where("deactivated_at IS NULL").
		Updates(map[string]any{
			"email":          "",
			"phone":          "",
			"deactivated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, dbError(result.Error, "anonymize-stale-profiles")
	}
	return result.RowsAffected, nil
}

// --- RecommendationStore ---

// PublishedRecommendations returns every recommendation visible to
// selection, ordered by the ordering hint then id for a stable base order.
func (ds *DataStore) PublishedRecommendations() ([]Recommendation, error) {
	var recs []Recommendation
	err := ds.DB.
		Where("status = ?", StatusPublished).
		Order("ordering, id").
		Find(&recs).Error
	if err != nil {
		return nil, dbError(err, "published-recommendations")
	}
	return recs, nil
}

// GetRecommendation retrieves a recommendation by its ID.
func (ds *DataStore) GetRecommendation(id uint) (*Recommendation, error) {
	var rec Recommendation
	if err := ds.DB.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recommendation %d", ErrNotFound, id)
		}
		return nil, dbError(err, "get-recommendation")
	}
	return &rec, nil
}

// SaveRecommendation creates or updates a recommendation.
func (ds *DataStore) SaveRecommendation(rec *Recommendation) error {
	if err := ds.DB.Save(rec).Error; err != nil {
		return dbError(err, "save-recommendation")
	}
	return nil
}

// DeleteRecommendation transitions a recommendation to the deleted status.
// The row is never physically removed, send history references it.
func (ds *DataStore) DeleteRecommendation(id uint) error {
	result := ds.DB.Model(&Recommendation{}).
		Where("id = ?", id).
		Update("status", StatusDeleted)
	if result.Error != nil {
		return dbError(result.Error, "delete-recommendation")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: recommendation %d", ErrNotFound, id)
	}
	return nil
}

// --- SendRecordStore ---

// InsertSendRecord stores one selection event as an independent transaction.
func (ds *DataStore) InsertSendRecord(record *SendRecord) error {
	if record.ShortID == "" {
		record.ShortID = uuid.NewString()[:8]
	}
	if err := ds.DB.Create(record).Error; err != nil {
		return dbError(err, "insert-send-record")
	}
	return nil
}

// RecentSendRecords returns the profile's send records on or after the
// given time, newest first, with the recommendation preloaded for category
// lookups.
func (ds *DataStore) RecentSendRecords(profileID uint, since time.Time) ([]SendRecord, error) {
	var records []SendRecord
	err := ds.DB.
		Preload("Recommendation").
		Where("profile_id = ?", profileID).
		Where("date >= ?", datatypes.Date(since)).
		Order("date DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "recent-send-records")
	}
	return records, nil
}

// SendRecordsForDate returns every send record for the given date, with
// profile and recommendation preloaded. Used by the CSV export.
func (ds *DataStore) SendRecordsForDate(date time.Time) ([]SendRecord, error) {
	var records []SendRecord
	err := ds.DB.
		Preload("Profile").
		Preload("Recommendation").
		Where("date = ?", datatypes.Date(date)).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, dbError(err, "send-records-for-date")
	}
	return records, nil
}

// UpdateFeedback stores post-send satisfaction feedback on a send record,
// looked up by its public short id.
func (ds *DataStore) UpdateFeedback(shortID string, applied *bool, opinion string) error {
	updates := map[string]any{"opinion": opinion}
	if applied != nil {
		updates["applied"] = *applied
	}
	result := ds.DB.Model(&SendRecord{}).
		Where("short_id = ?", shortID).
		Updates(updates)
	if result.Error != nil {
		return dbError(result.Error, "update-feedback")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: send record %s", ErrNotFound, shortID)
	}
	return nil
}
