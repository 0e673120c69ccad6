// Package export implements the campaign CSV export command.
package export

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/newsletter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command creates the export command, which assembles the day's
// newsletters and writes them as the campaign import CSV without sending
// anything.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		dateFlag    string
		seed        string
		preferredID uint
		excludeIDs  []uint
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the day's newsletters as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var date time.Time
			if dateFlag != "" {
				var err error
				date, err = time.Parse("2006-01-02", dateFlag)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateFlag)
				}
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

			runner := newsletter.NewRunner(settings, store, provider, nil, nil)
			newsletters, err := runner.Collect(ctx, newsletter.Options{
				Date:        date,
				Seed:        seed,
				PreferredID: preferredID,
				ExcludeIDs:  excludeIDs,
			})
			if err != nil {
				return err
			}

			out := os.Stdout
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer file.Close()
				out = file
			}

			return newsletter.WriteCSV(out, newsletters)
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Evaluation date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&seed, "seed", viper.GetString("newsletter.seed"), "Seed token for the candidate pool shuffle")
	cmd.Flags().UintVar(&preferredID, "preferred", 0, "Recommendation id forced to the front of the pool")
	cmd.Flags().UintSliceVar(&excludeIDs, "exclude", nil, "Recommendation ids removed from the pool")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the CSV to a file instead of stdout")

	return cmd
}
