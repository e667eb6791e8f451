package main

import (
	"fmt"
	"os"

	"github.com/dfryer1193/mdblog/internal/config"
	"github.com/dfryer1193/mdblog/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	var cfgFile string

	// loadConfig runs before every subcommand so each one starts with the
	// merged configuration and a configured logger.
	var cfg *config.Config
	loadConfig := func(cmd *cobra.Command, _ []string) error {
		if err := config.ReadFile(v, cfgFile); err != nil {
			return err
		}
		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		if err := logging.Setup(loaded.LogLevel, loaded.LogFormat); err != nil {
			return err
		}
		cfg = loaded
		return nil
	}

	rootCmd := &cobra.Command{
		Use:               "mdblog",
		Short:             "Serve a markdown blog from a content directory",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML)")
	flags.String("host", "", "address to listen on")
	flags.Int("port", 0, "port to listen on")
	flags.String("content", "", "content directory")
	flags.String("templates", "", "directory of template overrides")
	flags.String("static", "", "static files directory")
	flags.Bool("drafts", false, "serve unpublished posts")
	flags.Bool("watch", false, "reload content when files change")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	bindFlags(v, flags, map[string]string{
		"host":       config.KeyHost,
		"port":       config.KeyPort,
		"content":    config.KeyContentPath,
		"templates":  config.KeyTemplatesPath,
		"static":     config.KeyStaticPath,
		"drafts":     config.KeyEnableDrafts,
		"watch":      config.KeyWatchContent,
		"log-level":  config.KeyLogLevel,
		"log-format": config.KeyLogFormat,
	})

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Load the content once and report skipped files",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg)
			},
		},
	)

	return rootCmd
}

// bindFlags binds each flag to its config key. A flag only overrides the
// config when it is set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}
}
