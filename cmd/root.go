package cmd

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// envDefaults provides environment-derived defaults for CLI flags.
type envDefaults struct {
	LogLevel      string `env:"TOLSTACK_LOG_LEVEL" envDefault:"info"`
	Seed          int64  `env:"TOLSTACK_SEED" envDefault:"0"`
	HistogramBins int    `env:"TOLSTACK_HISTOGRAM_BINS" envDefault:"31"`
}

var defaults = mustEnvDefaults()

func mustEnvDefaults() envDefaults {
	var d envDefaults
	if err := env.Parse(&d); err != nil {
		logrus.Fatalf("Invalid environment configuration: %v", err)
	}
	return d
}

var logLevel string

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tolstack",
	Short: "Monte-Carlo tolerance stackup analyzer for mechanical assemblies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel,
		"Log verbosity level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(convertCmd)
}
