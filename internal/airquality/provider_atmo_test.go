package airquality

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://aq.example.test/api"

func newTestProvider() *AtmoProvider {
	return &AtmoProvider{
		baseURL: testBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func registerJSON(endpoint string, status int, body string) {
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/"+endpoint,
		httpmock.NewStringResponder(status, body))
}

func TestAtmoProvider_Fetch(t *testing.T) {
	provider := newTestProvider()
	httpmock.ActivateNonDefault(provider.client)
	defer httpmock.DeactivateAndReset()

	registerJSON("forecast", http.StatusOK, `{"data":[
		{"date":"2024-07-15","indice":"bon","couleur":"#50ccaa"},
		{"date":"2024-07-16","indice":"degrade","couleur":"#f0e641"}
	]}`)
	registerJSON("episodes", http.StatusOK, `{"data":[
		{"date":"2024-07-16","code_pol":"7","etat":"INFORMATION ET RECOMMANDATION"},
		{"date":"2024-07-16","code_pol":"5","etat":"PAS DE DEPASSEMENT"},
		{"date":"2024-07-15","code_pol":"8","etat":"ALERTE"}
	]}`)
	registerJSON("raep", http.StatusOK, `{"data":{"total":3}}`)

	snapshot, err := provider.Fetch(context.Background(), "13055",
		time.Date(2024, time.July, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "degrade", snapshot.Label)
	assert.Equal(t, "#f0e641", snapshot.Color)
	assert.Equal(t, []string{datastore.PollutantOzone}, snapshot.Pollutants,
		"inactive and off-date episodes must not surface")
	assert.Equal(t, 3, snapshot.RAEP)
}

func TestAtmoProvider_ForecastFailureFailsFetch(t *testing.T) {
	provider := newTestProvider()
	httpmock.ActivateNonDefault(provider.client)
	defer httpmock.DeactivateAndReset()

	registerJSON("forecast", http.StatusInternalServerError, `{}`)
	registerJSON("episodes", http.StatusOK, `{"data":[]}`)
	registerJSON("raep", http.StatusOK, `{"data":{"total":0}}`)

	_, err := provider.Fetch(context.Background(), "13055", time.Now())
	require.Error(t, err)
}

func TestAtmoProvider_EpisodeAndPollenFailuresDegrade(t *testing.T) {
	provider := newTestProvider()
	httpmock.ActivateNonDefault(provider.client)
	defer httpmock.DeactivateAndReset()

	registerJSON("forecast", http.StatusOK, `{"data":[{"date":"2024-07-16","indice":"bon","couleur":"#50ccaa"}]}`)
	registerJSON("episodes", http.StatusBadGateway, `{}`)
	registerJSON("raep", http.StatusNotFound, `{}`)

	snapshot, err := provider.Fetch(context.Background(), "13055",
		time.Date(2024, time.July, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err, "episode and pollen failures must not fail the fetch")

	assert.Equal(t, "bon", snapshot.Label)
	assert.Empty(t, snapshot.Pollutants)
	assert.Zero(t, snapshot.RAEP)
}

func TestAtmoProvider_NoForecastForDate(t *testing.T) {
	provider := newTestProvider()
	httpmock.ActivateNonDefault(provider.client)
	defer httpmock.DeactivateAndReset()

	registerJSON("forecast", http.StatusOK, `{"data":[{"date":"2024-07-10","indice":"bon","couleur":"#50ccaa"}]}`)
	registerJSON("episodes", http.StatusOK, `{"data":[]}`)
	registerJSON("raep", http.StatusOK, `{"data":{"total":0}}`)

	snapshot, err := provider.Fetch(context.Background(), "13055",
		time.Date(2024, time.July, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.False(t, snapshot.Known(), "a forecast without the requested date stays unknown")
}
