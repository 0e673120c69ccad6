// validate.go: validation of user provided settings
package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the settings for obvious misconfiguration and
// returns an aggregated error describing every problem found.
func ValidateSettings(settings *Settings) error {
	if settings == nil {
		return errors.New("settings is nil")
	}

	var errs []error

	if err := validateDatabase(&settings.Database); err != nil {
		errs = append(errs, err)
	}
	if err := validateNewsletter(&settings.Newsletter); err != nil {
		errs = append(errs, err)
	}
	if err := validateDelivery(&settings.Delivery); err != nil {
		errs = append(errs, err)
	}
	if err := validateAirQuality(&settings.AirQuality); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateDatabase(db *DatabaseSettings) error {
	if db.SQLite.Enabled && db.MySQL.Enabled {
		return errors.New("database: only one of sqlite and mysql may be enabled")
	}
	if !db.SQLite.Enabled && !db.MySQL.Enabled {
		return errors.New("database: no backend enabled")
	}
	if db.SQLite.Enabled && db.SQLite.Path == "" {
		return errors.New("database: sqlite enabled but path is empty")
	}
	if db.MySQL.Enabled {
		if db.MySQL.Host == "" || db.MySQL.Database == "" {
			return errors.New("database: mysql enabled but host or database is empty")
		}
	}
	return nil
}

func validateNewsletter(n *NewsletterSettings) error {
	if n.WindowDays <= 0 {
		return fmt.Errorf("newsletter: windowdays must be positive, got %d", n.WindowDays)
	}
	if n.Workers <= 0 {
		return fmt.Errorf("newsletter: workers must be positive, got %d", n.Workers)
	}
	return nil
}

func validateDelivery(d *DeliverySettings) error {
	if !d.Enabled || d.DryRun {
		return nil
	}
	if len(d.MailURLs) == 0 && len(d.SMSURLs) == 0 {
		return errors.New("delivery: enabled but no service URLs configured")
	}
	return nil
}

func validateAirQuality(a *AirQualitySettings) error {
	if a.Provider == "" {
		return errors.New("airquality: provider is empty")
	}
	if a.Provider != "atmo" {
		return fmt.Errorf("airquality: unsupported provider %q", a.Provider)
	}
	if a.BaseURL == "" {
		return errors.New("airquality: baseurl is empty")
	}
	return nil
}
