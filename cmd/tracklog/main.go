package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracklab/tracklog/internal/config"
	logpkg "github.com/tracklab/tracklog/pkg/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tracklog",
		Short: "Inspect training event log directories",
		Long: "tracklog reads directories of rotating, checksummed training event logs\n" +
			"and replays them as ordered events and named metric values.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a JSON or TOML config file")
	rootCmd.PersistentFlags().String("log-level", "", "debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().String("log-format", "", "text|json (overrides config)")

	rootCmd.AddCommand(newScanCmd(), newTagsCmd(), newValuesCmd(), newEventsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup resolves config and logger for a command invocation.
func setup(cmd *cobra.Command) (config.Config, logpkg.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	level, err := logpkg.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	opts := []logpkg.Option{logpkg.WithLevel(level)}
	if cfg.LogFormat == "json" {
		opts = append(opts, logpkg.WithJSON())
	}
	return cfg, logpkg.NewLogger(opts...), nil
}

func oneDirArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one log directory argument")
	}
	return nil
}
