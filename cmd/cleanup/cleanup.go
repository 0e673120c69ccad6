// Package cleanup implements the stale profile anonymization command.
package cleanup

import (
	"fmt"
	"time"

	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/spf13/cobra"
)

// Command creates the cleanup command, which anonymizes profiles
// unsubscribed longer than the retention delay.
func Command(settings *conf.Settings) *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Anonymize profiles unsubscribed past the retention delay",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening datastore: %w", err)
			}
			defer store.Close()

			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			count, err := store.AnonymizeStaleProfiles(cutoff)
			if err != nil {
				return err
			}

			fmt.Printf("anonymized %d profile(s) unsubscribed before %s\n", count, cutoff.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", int(conf.DefaultAnonymizationDelay.Hours()/24), "Days to keep personal data after unsubscription")

	return cmd
}
