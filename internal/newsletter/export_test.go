package newsletter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	profile := testProfile()
	profile.Transport = datastore.StringSet{datastore.TransportBike, datastore.TransportPublic}
	profile.Population = datastore.StringSet{datastore.PopulationPollenAllergy}
	profile.Children = datastore.ChildrenYes

	env := airquality.Snapshot{
		Label:      airquality.LabelDegraded,
		Color:      "#f0e641",
		Pollutants: []string{datastore.PollutantOzone},
		RAEP:       3,
	}
	n := New(profile, testRecommendation(), env, testDate)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Newsletter{*n}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := rows[0]
	assert.Equal(t, "VILLE", header[0])
	assert.Equal(t, "SHORT_ID", header[len(header)-1])

	row := rows[1]
	require.Len(t, row, len(header))
	assert.Equal(t, "Marseille", row[0])
	assert.Equal(t, "velo; tec", row[1])
	assert.Equal(t, "Non", row[4])
	assert.Equal(t, "Oui", row[5])
	assert.Equal(t, "Oui", row[6])
	assert.Equal(t, "claire@example.fr", row[7])
	assert.Equal(t, "degrade", row[12])
	assert.Equal(t, "o3", row[14])
	assert.Equal(t, "3", row[15])
	assert.Equal(t, n.ShortID, row[len(row)-1])
}

func TestWriteCSV_EmptyStillWritesHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFromRecords(t *testing.T) {
	t.Parallel()

	profile := testProfile()
	rec := testRecommendation()

	records := []datastore.SendRecord{
		{
			ShortID:        "abcd1234",
			Profile:        &profile,
			Recommendation: &rec,
			Label:          airquality.LabelBad,
			Color:          "#ff5050",
			Pollutants:     datastore.StringSet{datastore.PollutantOzone},
			RAEP:           2,
		},
		// orphaned record, associations gone
		{ShortID: "efgh5678"},
	}

	newsletters := FromRecords(records, testDate)
	require.Len(t, newsletters, 1, "records missing associations are skipped")

	n := newsletters[0]
	assert.Equal(t, "abcd1234", n.ShortID)
	assert.Equal(t, profile.ID, n.Profile.ID)
	assert.Equal(t, rec.ID, n.Recommendation.ID)
	assert.Equal(t, "mauvais", n.Env.Label)
	assert.Equal(t, []string{"o3"}, n.Env.Pollutants)
	assert.Equal(t, 2, n.Env.RAEP)
}
