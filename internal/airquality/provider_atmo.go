package airquality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/errors"
)

// AtmoProvider fetches forecast, episode and pollen data from an
// indice-pollution style JSON API.
type AtmoProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	debug   bool
}

// NewAtmoProvider creates a provider from settings.
func NewAtmoProvider(settings *conf.Settings) *AtmoProvider {
	timeout := settings.AirQuality.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AtmoProvider{
		baseURL: settings.AirQuality.BaseURL,
		apiKey:  settings.AirQuality.APIKey,
		client:  &http.Client{Timeout: timeout},
		debug:   settings.AirQuality.Debug,
	}
}

// forecastResponse mirrors the API's forecast payload.
type forecastResponse struct {
	Data []struct {
		Date    string `json:"date"`
		Indice  string `json:"indice"`
		Couleur string `json:"couleur"`
	} `json:"data"`
}

// episodesResponse mirrors the API's pollution episode payload.
type episodesResponse struct {
	Data []struct {
		Date    string `json:"date"`
		CodePol string `json:"code_pol"`
		Etat    string `json:"etat"`
	} `json:"data"`
}

// raepResponse mirrors the API's pollen risk payload.
type raepResponse struct {
	Data struct {
		Total int `json:"total"`
	} `json:"data"`
}

// episodeInactive is the API's marker for an episode row with no active
// exceedance.
const episodeInactive = "PAS DE DEPASSEMENT"

// Fetch retrieves the full environmental snapshot for one city and date.
// The three API calls are independent; forecast failure fails the fetch,
// while missing episode or pollen data degrades to "no episode" / "no risk".
func (p *AtmoProvider) Fetch(ctx context.Context, insee string, date time.Time) (Snapshot, error) {
	day := date.Format("2006-01-02")
	snapshot := Snapshot{Date: date}

	var forecast forecastResponse
	if err := p.getJSON(ctx, "forecast", insee, day, &forecast); err != nil {
		return Snapshot{}, errors.New(err).
			Component("airquality").
			Category(errors.CategoryAirQualityFetch).
			Context("insee", insee).
			Context("date", day).
			Build()
	}
	for _, row := range forecast.Data {
		if row.Date == day {
			snapshot.Label = row.Indice
			snapshot.Color = row.Couleur
			break
		}
	}
	if snapshot.Label == "" {
		aqLogger.Warn("No forecast for requested date", "insee", insee, "date", day)
	}

	var episodes episodesResponse
	if err := p.getJSON(ctx, "episodes", insee, day, &episodes); err != nil {
		aqLogger.Warn("Episode fetch failed, assuming no active episode",
			"insee", insee, "date", day, "error", err)
	} else {
		for _, episode := range episodes.Data {
			if episode.Date != day || episode.Etat == episodeInactive {
				continue
			}
			symbol := PollutantSymbol(episode.CodePol)
			if symbol == "" {
				aqLogger.Warn("Unknown pollutant code in episode", "code", episode.CodePol, "insee", insee)
				continue
			}
			snapshot.Pollutants = append(snapshot.Pollutants, symbol)
		}
	}

	var raep raepResponse
	if err := p.getJSON(ctx, "raep", insee, day, &raep); err != nil {
		aqLogger.Warn("Pollen risk fetch failed, assuming no risk",
			"insee", insee, "date", day, "error", err)
	} else {
		snapshot.RAEP = raep.Data.Total
	}

	if p.debug {
		aqLogger.Debug("Fetched snapshot",
			"insee", insee,
			"label", snapshot.Label,
			"pollutants", snapshot.Pollutants,
			"raep", snapshot.RAEP,
		)
	}

	return snapshot, nil
}

// getJSON performs one GET against the API and decodes the JSON response.
func (p *AtmoProvider) getJSON(ctx context.Context, endpoint, insee, day string, out any) error {
	reqURL := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, url.Values{
		"insee": {insee},
		"date":  {day},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}
