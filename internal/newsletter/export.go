package newsletter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ecosante/ecosante-go/internal/datastore"
)

// csvHeader is the column layout the campaign tool imports.
var csvHeader = []string{
	"VILLE",
	"Moyens de transport",
	"Activités",
	"Chauffage",
	"Pathologie respiratoire",
	"Allergie aux pollens",
	"Enfants",
	"MAIL",
	"FORMAT",
	"SMS",
	"Fréquence",
	"Date d'inscription",
	"QUALITE_AIR",
	"BACKGROUND_COLOR",
	"POLLUANTS",
	"RAEP",
	"RECOMMANDATION",
	"PRECISIONS",
	"ID RECOMMANDATION",
	"SHORT_ID",
}

// WriteCSV writes the newsletters as the campaign import CSV.
func WriteCSV(w io.Writer, newsletters []Newsletter) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i := range newsletters {
		if err := writer.Write(csvLine(&newsletters[i])); err != nil {
			return fmt.Errorf("writing csv line: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func csvLine(n *Newsletter) []string {
	p := &n.Profile
	return []string{
		p.CityName,
		strings.Join(p.Transport, "; "),
		strings.Join(p.Activities, "; "),
		strings.Join(p.Heating, "; "),
		ouiNon(p.HasRespiratoryDisease()),
		ouiNon(p.IsAllergic()),
		ouiNon(p.HasChildren()),
		p.Email,
		p.Channel,
		p.Phone,
		p.Frequency,
		p.CreatedAt.Format("2006-01-02"),
		n.Env.Label,
		n.Env.Color,
		strings.Join(n.Env.Pollutants, "; "),
		strconv.Itoa(n.Env.RAEP),
		n.Content(),
		n.Recommendation.Precisions,
		strconv.FormatUint(uint64(n.Recommendation.ID), 10),
		n.ShortID,
	}
}

func ouiNon(value bool) string {
	if value {
		return "Oui"
	}
	return "Non"
}

// FromRecords rebuilds newsletters from persisted send records, for
// exporting a day that already ran. Records missing their associations are
// skipped.
func FromRecords(records []datastore.SendRecord, date time.Time) []Newsletter {
	newsletters := make([]Newsletter, 0, len(records))
	for i := range records {
		record := &records[i]
		if record.Profile == nil || record.Recommendation == nil {
			continue
		}
		n := Newsletter{
			Profile:        *record.Profile,
			Recommendation: *record.Recommendation,
			Date:           date,
			ShortID:        record.ShortID,
		}
		n.Env.Date = date
		n.Env.Label = record.Label
		n.Env.Color = record.Color
		n.Env.Pollutants = record.Pollutants
		n.Env.RAEP = record.RAEP
		newsletters = append(newsletters, n)
	}
	return newsletters
}
