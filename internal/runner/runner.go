// Package runner orchestrates hash and verify runs: directory traversal, the
// chunked hashing pipeline, report rows, progress telemetry, and run
// instrumentation.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/internal/ledger"
	"github.com/Sumatoshi-tech/hashfang/internal/observability"
	"github.com/Sumatoshi-tech/hashfang/internal/pipeline"
	"github.com/Sumatoshi-tech/hashfang/internal/progress"
	"github.com/Sumatoshi-tech/hashfang/internal/report"
	"github.com/Sumatoshi-tech/hashfang/internal/walk"
)

const (
	opHash   = "hash"
	opVerify = "verify"

	statusOK    = "ok"
	statusError = "error"

	skipReasonSymlink = "symlink"
)

// Options adjust run behavior.
type Options struct {
	// ShowHeaders emits an algorithm header row before results.
	ShowHeaders bool

	// ContinueOnError keeps the run going past per-file failures.
	ContinueOnError bool

	// FollowSymlinks descends into symlinked files and directories.
	FollowSymlinks bool
}

// Deps bundles the collaborators a Runner drives. Logger, Tracer, and
// Metrics may be nil for uninstrumented runs.
type Deps struct {
	Hasher   *pipeline.Hasher
	Report   *report.Writer
	Progress *progress.Tracker
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Metrics  *observability.RunMetrics
}

// Runner executes hash and verify runs over the configured collaborators.
type Runner struct {
	hasher   *pipeline.Hasher
	report   *report.Writer
	progress *progress.Tracker
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.RunMetrics
	opts     Options
}

// New builds a Runner from deps, substituting no-op instrumentation for nil
// Logger and Tracer.
func New(deps Deps, opts Options) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("hashfang")
	}

	return &Runner{
		hasher:   deps.Hasher,
		report:   deps.Report,
		progress: deps.Progress,
		logger:   logger,
		tracer:   tracer,
		metrics:  deps.Metrics,
		opts:     opts,
	}
}

// Hash walks each root path in order, hashes every regular file, and writes
// one report row per file. Symlinks (when not following) and missing paths
// become N/A rows; other per-file failures abort the run unless
// ContinueOnError is set.
func (r *Runner) Hash(ctx context.Context, paths []string) error {
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID), slog.String("op", opHash))
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "hash.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("paths", len(paths)),
		attribute.StringSlice("algorithms", digest.DisplayNames(r.hasher.Kinds())),
	))
	defer span.End()

	err := r.hashPaths(ctx, logger, paths)

	r.finishRun(ctx, span, opHash, start, err)

	return err
}

// Verify recomputes digests for every ledger entry and writes one verdict
// row per entry. It returns the number of FAILED rows; mismatches alone do
// not make the run itself fail.
func (r *Runner) Verify(ctx context.Context, led *ledger.Ledger) (int, error) {
	runID := uuid.NewString()
	logger := r.logger.With(slog.String("run_id", runID), slog.String("op", opVerify))
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "verify.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("entries", len(led.Entries)),
		attribute.StringSlice("algorithms", digest.DisplayNames(r.hasher.Kinds())),
	))
	defer span.End()

	failed, err := r.verifyEntries(ctx, logger, led)

	r.finishRun(ctx, span, opVerify, start, err)

	return failed, err
}

func (r *Runner) hashPaths(ctx context.Context, logger *slog.Logger, paths []string) error {
	if r.opts.ShowHeaders {
		headerErr := r.report.WriteHeader()
		if headerErr != nil {
			return headerErr
		}
	}

	for _, root := range paths {
		rootErr := r.hashRoot(ctx, logger, root)
		if rootErr == nil {
			continue
		}

		if isCancellation(rootErr) {
			return rootErr
		}

		logger.Error("processing path failed", slog.String("path", root), slog.Any("error", rootErr))

		if !r.opts.ContinueOnError {
			return fmt.Errorf("process path %s: %w", root, rootErr)
		}
	}

	r.progress.Finish()

	return nil
}

func (r *Runner) hashRoot(ctx context.Context, logger *slog.Logger, root string) error {
	walkErr := walk.Walk(root, r.opts.FollowSymlinks, func(entry walk.Entry) error {
		return r.hashEntry(ctx, logger, entry)
	})
	if walkErr != nil && errors.Is(walkErr, fs.ErrNotExist) {
		// A missing path is reported as a row, not a failure.
		return r.skipRow(root, notFoundReason(walkErr))
	}

	return walkErr
}

func (r *Runner) hashEntry(ctx context.Context, logger *slog.Logger, entry walk.Entry) error {
	if entry.Symlink {
		return r.skipRow(entry.Path, skipReasonSymlink)
	}

	sums, err := r.hasher.HashFile(ctx, entry.Path)

	switch {
	case err == nil:
		writeErr := r.report.WriteRow(sums, entry.Path)
		if writeErr != nil {
			return writeErr
		}

		r.progress.RecordFile()

		if r.metrics != nil {
			r.metrics.RecordFile(ctx, opHash)
		}

		return nil
	case errors.Is(err, fs.ErrNotExist):
		return r.skipRow(entry.Path, notFoundReason(err))
	case isCancellation(err):
		return err
	default:
		logger.Error("processing file failed", slog.String("path", entry.Path), slog.Any("error", err))

		if r.metrics != nil {
			r.metrics.RecordError(ctx, opHash)
		}

		if r.opts.ContinueOnError {
			return nil
		}

		return fmt.Errorf("process file %s: %w", entry.Path, err)
	}
}

// skipRow emits an all-N/A row for a candidate that was not hashed. Skipped
// candidates still count as processed rows.
func (r *Runner) skipRow(path, reason string) error {
	writeErr := r.report.WriteSkipped(path, reason)
	if writeErr != nil {
		return writeErr
	}

	r.progress.RecordFile()

	return nil
}

func (r *Runner) verifyEntries(ctx context.Context, logger *slog.Logger, led *ledger.Ledger) (int, error) {
	if r.opts.ShowHeaders {
		headerErr := r.report.WriteVerifyHeader()
		if headerErr != nil {
			return 0, headerErr
		}
	}

	failed := 0

	for _, entry := range led.Entries {
		row, verifyErr := ledger.VerifyEntry(ctx, r.hasher, entry)
		if verifyErr != nil {
			if isCancellation(verifyErr) {
				return failed, verifyErr
			}

			logger.Error("verifying entry failed", slog.String("path", entry.Path), slog.Any("error", verifyErr))

			if r.metrics != nil {
				r.metrics.RecordError(ctx, opVerify)
			}

			if !r.opts.ContinueOnError {
				return failed, fmt.Errorf("verify %s: %w", entry.Path, verifyErr)
			}

			continue
		}

		writeErr := r.report.WriteVerifyRow(row)
		if writeErr != nil {
			return failed, writeErr
		}

		if row.Status == ledger.StatusFailed {
			failed++
		}

		r.progress.RecordFile()

		if r.metrics != nil {
			r.metrics.RecordFile(ctx, opVerify)
		}
	}

	r.progress.Finish()

	return failed, nil
}

// finishRun closes out run-level instrumentation: span status, run duration,
// and the cumulative byte count observed by the progress tracker.
func (r *Runner) finishRun(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	status := statusOK
	if err != nil {
		status = statusError

		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.Int("files", r.progress.Files()),
		attribute.Int64("bytes", int64(r.progress.Bytes())), //nolint:gosec // byte counts stay far below int64 range
	)

	if r.metrics != nil {
		r.metrics.RecordBytes(ctx, op, int64(r.progress.Bytes())) //nolint:gosec // byte counts stay far below int64 range
		r.metrics.RecordRun(ctx, op, status, time.Since(start))
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func notFoundReason(err error) string {
	return "File not found: " + err.Error()
}
