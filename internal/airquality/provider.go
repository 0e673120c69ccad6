package airquality

import (
	"context"
	"fmt"
	"time"

	"github.com/ecosante/ecosante-go/internal/conf"
)

// Provider fetches the environmental snapshot for an INSEE city code on a
// given date.
type Provider interface {
	Fetch(ctx context.Context, insee string, date time.Time) (Snapshot, error)
}

// NewProvider selects a provider based on configuration.
func NewProvider(settings *conf.Settings) (Provider, error) {
	switch settings.AirQuality.Provider {
	case "atmo":
		return NewAtmoProvider(settings), nil
	case "":
		return nil, fmt.Errorf("air quality provider not configured")
	default:
		return nil, fmt.Errorf("unsupported air quality provider: %s", settings.AirQuality.Provider)
	}
}
