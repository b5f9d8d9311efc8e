// Package commands implements CLI command handlers for hashfang.
package commands

import (
	"context"
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hashfang/internal/config"
	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/internal/observability"
	"github.com/Sumatoshi-tech/hashfang/pkg/version"
)

// ErrNoAlgorithmsSelected is returned when no algorithms are given and none
// can be detected from a ledger header.
var ErrNoAlgorithmsSelected = errors.New(
	"no algorithms selected. Use -a flag, e.g.: -a md5,sha256\n" +
		"Available: md5, sha1, sha256, sha384, sha512, sha3-256, sha3-384, sha3-512, blake3",
)

// RegisterPersistentFlags registers the root-level flags every subcommand
// reads. main wires these onto the root command; command tests wire them
// onto a scratch root.
func RegisterPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file path (default: .hashfang.yaml in CWD or $HOME)")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
	root.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-json", config.DefaultLogJSON, "Emit logs as JSON")
	root.PersistentFlags().String("otlp-endpoint", "", "OTLP gRPC endpoint for traces and metrics (empty = disabled)")
}

// loadConfig resolves the effective configuration: file and env values first,
// then root-level flag overrides for any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(stringFlag(cmd, "config"))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("quiet") {
		cfg.Output.Quiet = boolFlag(cmd, "quiet")
	}

	if flags.Changed("no-color") {
		cfg.Output.NoColor = boolFlag(cmd, "no-color")
	}

	if flags.Changed("log-level") {
		cfg.Log.Level = stringFlag(cmd, "log-level")
	}

	if flags.Changed("log-json") {
		cfg.Log.JSON = boolFlag(cmd, "log-json")
	}

	if flags.Changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = stringFlag(cmd, "otlp-endpoint")
	}

	return cfg, nil
}

// initObservability builds providers from the effective config and applies
// the global color switch.
func initObservability(cfg *config.Config) (observability.Providers, error) {
	if cfg.Output.NoColor {
		color.NoColor = true
	}

	ocfg := observability.DefaultConfig()
	ocfg.ServiceVersion = version.Version
	ocfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	ocfg.OTLPInsecure = cfg.Telemetry.Insecure
	ocfg.SampleRatio = cfg.Telemetry.SampleRatio
	ocfg.LogLevel = observability.ParseLevel(cfg.Log.Level)
	ocfg.LogJSON = cfg.Log.JSON

	return observability.Init(ocfg)
}

func shutdownObservability(providers observability.Providers) {
	shutdownErr := providers.Shutdown(context.Background())
	if shutdownErr != nil {
		providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// selectKinds parses the configured algorithm names, rejecting an empty
// selection.
func selectKinds(names []string) ([]digest.Kind, error) {
	if len(names) == 0 {
		return nil, ErrNoAlgorithmsSelected
	}

	kinds, err := digest.ParseKinds(names)
	if err != nil {
		return nil, err
	}

	return kinds, nil
}

// stringFlag reads a flag that may live on this command or the root.
// Missing flags read as zero values so commands run standalone in tests.
func stringFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return v
}

func boolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return v
}
