package commands

import (
	"fmt"

	"code.cloudfoundry.org/clock"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hashfang/internal/config"
	"github.com/Sumatoshi-tech/hashfang/internal/observability"
	"github.com/Sumatoshi-tech/hashfang/internal/pipeline"
	"github.com/Sumatoshi-tech/hashfang/internal/progress"
	"github.com/Sumatoshi-tech/hashfang/internal/report"
	"github.com/Sumatoshi-tech/hashfang/internal/runner"
)

// HashCommand holds flag state for the hash command.
type HashCommand struct {
	algorithms       []string
	showHeaders      bool
	continueOnError  bool
	noFollowSymlinks bool
	chunkSize        string
	channelCapacity  int
	output           string
}

// NewHashCommand creates the hash command.
func NewHashCommand() *cobra.Command {
	hc := &HashCommand{}

	cmd := &cobra.Command{
		Use:   "hash [paths...]",
		Short: "Hash files and directories with one or more algorithms",
		Long: "Hash every given file, and every regular file under every given directory,\n" +
			"with the selected algorithms. One row per file: hex digests in algorithm\n" +
			"order, then the path.",
		Args: cobra.MinimumNArgs(1),
		RunE: hc.run,
	}

	cmd.Flags().StringSliceVarP(&hc.algorithms, "algorithms", "a", nil,
		"Comma-separated algorithms (example: md5,sha256,blake3)")
	cmd.Flags().BoolVarP(&hc.showHeaders, "show-headers", "s", config.DefaultOutputShowHeaders,
		"Emit the algorithm header row before results")
	cmd.Flags().BoolVar(&hc.continueOnError, "continue-on-error", config.DefaultRunContinueOnError,
		"Log per-path errors and keep going")
	cmd.Flags().BoolVar(&hc.noFollowSymlinks, "no-follow-symlinks", !config.DefaultWalkFollowSymlinks,
		"Report symbolic links as N/A rows instead of following them")
	cmd.Flags().StringVar(&hc.chunkSize, "chunk-size", config.DefaultPipelineChunkSize,
		"Read chunk size (example: 512KiB, 4MiB)")
	cmd.Flags().IntVar(&hc.channelCapacity, "channel-capacity", config.DefaultPipelineChannelCapacity,
		"Buffered chunks per algorithm")
	cmd.Flags().StringVarP(&hc.output, "output", "o", "",
		"Output path (default stdout; .lz4/.zst extensions compress)")

	return cmd
}

func (hc *HashCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	hc.applyFlags(cmd, cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return fmt.Errorf("validate config: %w", validateErr)
	}

	kinds, err := selectKinds(cfg.Algorithms)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability(providers)

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	chunkBytes, err := cfg.ChunkSizeBytes()
	if err != nil {
		return err
	}

	tracker := progress.New(cmd.ErrOrStderr(), clock.NewClock(), cfg.Output.Quiet)

	hasher := pipeline.New(kinds, pipeline.Options{
		ChunkSize:       chunkBytes,
		ChannelCapacity: cfg.Pipeline.ChannelCapacity,
		Recorder:        tracker,
	})

	sink, err := report.Open(hc.output, kinds)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := sink.Close()
		if closeErr != nil {
			providers.Logger.Warn("closing report failed", "error", closeErr)
		}
	}()

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
		FollowSymlinks:  cfg.Walk.FollowSymlinks,
	})

	return run.Hash(cmd.Context(), args)
}

// applyFlags merges explicitly set hash flags over the loaded config.
func (hc *HashCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("algorithms") {
		cfg.Algorithms = hc.algorithms
	}

	if flags.Changed("show-headers") {
		cfg.Output.ShowHeaders = hc.showHeaders
	}

	if flags.Changed("continue-on-error") {
		cfg.Run.ContinueOnError = hc.continueOnError
	}

	if flags.Changed("no-follow-symlinks") {
		cfg.Walk.FollowSymlinks = !hc.noFollowSymlinks
	}

	if flags.Changed("chunk-size") {
		cfg.Pipeline.ChunkSize = hc.chunkSize
	}

	if flags.Changed("channel-capacity") {
		cfg.Pipeline.ChannelCapacity = hc.channelCapacity
	}
}
