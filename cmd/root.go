package cmd

import (
	"fmt"

	"github.com/ecosante/ecosante-go/cmd/cleanup"
	"github.com/ecosante/ecosante-go/cmd/export"
	"github.com/ecosante/ecosante-go/cmd/send"
	"github.com/ecosante/ecosante-go/cmd/serve"
	"github.com/ecosante/ecosante-go/internal/conf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ecosante",
		Short: "Ecosanté air quality newsletter CLI",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		send.Command(settings),
		export.Command(settings),
		serve.Command(settings),
		cleanup.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
