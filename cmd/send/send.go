// Package send implements the daily newsletter batch command.
package send

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/delivery"
	"github.com/ecosante/ecosante-go/internal/newsletter"
	"github.com/ecosante/ecosante-go/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command creates the send command, which runs one selection and
// dispatch batch over the active subscriber base.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		dateFlag    string
		seed        string
		preferredID uint
		excludeIDs  []uint
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Run the newsletter batch for one day",
		Long:  "Select a recommendation for every active profile and dispatch the newsletters over their preferred channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			date, err := parseDate(dateFlag)
			if err != nil {
				return err
			}

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening datastore: %w", err)
			}
			defer store.Close()

			provider, err := airquality.NewProvider(settings)
			if err != nil {
				return err
			}

			dispatcher, err := delivery.NewDispatcher(settings)
			if err != nil {
				return err
			}

			nlMetrics, err := metrics.NewNewsletterMetrics(prometheus.NewRegistry())
			if err != nil {
				return err
			}

			runner := newsletter.NewRunner(settings, store, provider, dispatcher, nlMetrics)
			summary, err := runner.Run(ctx, newsletter.Options{
				Date:        date,
				Seed:        seed,
				PreferredID: preferredID,
				ExcludeIDs:  excludeIDs,
				DryRun:      dryRun || settings.Delivery.DryRun,
			})
			if err != nil {
				return err
			}

			fmt.Printf("profiles=%d sent=%d skipped=%d no_match=%d missing_data=%d failed=%d\n",
				summary.Profiles, summary.Sent, summary.Skipped, summary.NoMatch, summary.MissingData, summary.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Evaluation date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&seed, "seed", viper.GetString("newsletter.seed"), "Seed token for the candidate pool shuffle")
	cmd.Flags().UintVar(&preferredID, "preferred", 0, "Recommendation id forced to the front of the pool")
	cmd.Flags().UintSliceVar(&excludeIDs, "exclude", nil, "Recommendation ids removed from the pool")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Assemble newsletters without persisting or sending anything")

	return cmd
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return date, nil
}
