package commands

import (
	"fmt"

	"code.cloudfoundry.org/clock"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hashfang/internal/config"
	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/internal/ledger"
	"github.com/Sumatoshi-tech/hashfang/internal/observability"
	"github.com/Sumatoshi-tech/hashfang/internal/pipeline"
	"github.com/Sumatoshi-tech/hashfang/internal/progress"
	"github.com/Sumatoshi-tech/hashfang/internal/report"
	"github.com/Sumatoshi-tech/hashfang/internal/runner"
)

// VerifyCommand holds flag state for the verify command.
type VerifyCommand struct {
	algorithms      []string
	showHeaders     bool
	continueOnError bool
	chunkSize       string
	channelCapacity int
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	vc := &VerifyCommand{}

	cmd := &cobra.Command{
		Use:   "verify LEDGER",
		Short: "Verify files against a checksum ledger",
		Long: "Recompute digests for every entry in the ledger and report OK or FAILED\n" +
			"per file. Algorithms come from the ledger's header row; an explicit -a\n" +
			"selection overrides the header with a warning. Ledgers ending in .lz4 or\n" +
			".zst are decompressed transparently.",
		Args: cobra.ExactArgs(1),
		RunE: vc.run,
	}

	cmd.Flags().StringSliceVarP(&vc.algorithms, "algorithms", "a", nil,
		"Comma-separated algorithms; overrides the ledger header")
	cmd.Flags().BoolVarP(&vc.showHeaders, "show-headers", "s", config.DefaultOutputShowHeaders,
		"Emit the Result/algorithm/Path header row before verdicts")
	cmd.Flags().BoolVar(&vc.continueOnError, "continue-on-error", config.DefaultRunContinueOnError,
		"Log per-entry errors and keep going")
	cmd.Flags().StringVar(&vc.chunkSize, "chunk-size", config.DefaultPipelineChunkSize,
		"Read chunk size (example: 512KiB, 4MiB)")
	cmd.Flags().IntVar(&vc.channelCapacity, "channel-capacity", config.DefaultPipelineChannelCapacity,
		"Buffered chunks per algorithm")

	return cmd
}

func (vc *VerifyCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	vc.applyFlags(cmd, cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return fmt.Errorf("validate config: %w", validateErr)
	}

	// Only an explicit -a selection overrides the ledger header; configured
	// algorithm defaults are for hashing, not verification.
	var kinds []digest.Kind
	if cmd.Flags().Changed("algorithms") {
		kinds, err = selectKinds(vc.algorithms)
		if err != nil {
			return err
		}
	}

	led, err := ledger.ParseFile(args[0], kinds)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability(providers)

	if led.Overridden() {
		providers.Logger.Warn("explicit algorithms override the ledger header",
			"ledger", args[0], "algorithms", cfg.Algorithms)
	}

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	chunkBytes, err := cfg.ChunkSizeBytes()
	if err != nil {
		return err
	}

	// Verification keeps stdout to verdict rows only; the tracker counts but
	// stays silent.
	tracker := progress.New(cmd.ErrOrStderr(), clock.NewClock(), true)

	hasher := pipeline.New(led.Kinds, pipeline.Options{
		ChunkSize:       chunkBytes,
		ChannelCapacity: cfg.Pipeline.ChannelCapacity,
	})

	sink, err := report.Open("", led.Kinds)
	if err != nil {
		return err
	}

	run := runner.New(runner.Deps{
		Hasher:   hasher,
		Report:   sink,
		Progress: tracker,
		Logger:   providers.Logger,
		Tracer:   providers.Tracer,
		Metrics:  metrics,
	}, runner.Options{
		ShowHeaders:     cfg.Output.ShowHeaders,
		ContinueOnError: cfg.Run.ContinueOnError,
	})

	failed, err := run.Verify(cmd.Context(), led)
	if err != nil {
		return err
	}

	providers.Logger.Debug("verification complete",
		"entries", len(led.Entries), "failed", failed)

	return nil
}

// applyFlags merges explicitly set verify flags over the loaded config.
func (vc *VerifyCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("algorithms") {
		cfg.Algorithms = vc.algorithms
	}

	if flags.Changed("show-headers") {
		cfg.Output.ShowHeaders = vc.showHeaders
	}

	if flags.Changed("continue-on-error") {
		cfg.Run.ContinueOnError = vc.continueOnError
	}

	if flags.Changed("chunk-size") {
		cfg.Pipeline.ChunkSize = vc.chunkSize
	}

	if flags.Changed("channel-capacity") {
		cfg.Pipeline.ChannelCapacity = vc.channelCapacity
	}
}
