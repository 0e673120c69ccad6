// Package serve implements the HTTP API server command.
package serve

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ecosante/ecosante-go/internal/airquality"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/ecosante/ecosante-go/internal/datastore"
	"github.com/ecosante/ecosante-go/internal/httpcontroller"
	"github.com/ecosante/ecosante-go/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command creates the serve command, which runs the subscription and
// widget HTTP API until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store := datastore.New(settings)
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening datastore: %w", err)
			}
			defer store.Close()

			provider, err := airquality.NewProvider(settings)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			if _, err := metrics.NewNewsletterMetrics(registry); err != nil {
				return err
			}

			server := httpcontroller.New(settings, store, provider, registry)
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&settings.Web.Address, "address", viper.GetString("web.address"), "Listen address and port")

	return cmd
}
