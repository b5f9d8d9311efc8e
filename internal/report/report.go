// Package report writes the primary output: hashing report rows,
// verification rows and their optional headers. The sink is stdout or a
// file; .lz4/.zst paths write compressed streams that the ledger parser
// reads back transparently. Status tokens are colorized only when the sink
// is a terminal, so redirected and file output stays machine-readable.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/internal/ledger"
)

// NA is the placeholder column for a digest that could not be computed.
const NA = "N/A"

// Compressed sink extensions, mirrored by the ledger reader.
const (
	extLZ4  = ".lz4"
	extZstd = ".zst"
)

var (
	okColor     = color.New(color.FgGreen)
	failedColor = color.New(color.FgRed)
)

// Writer emits report rows to one sink. It is owned by the orchestrating
// goroutine and is not safe for concurrent use.
type Writer struct {
	w        io.Writer
	closers  []func() error
	colorize bool
	kinds    []digest.Kind
}

// New wraps an arbitrary writer, uncolored. Sink selection lives in Open;
// this constructor is the seam for tests and custom sinks.
func New(w io.Writer, kinds []digest.Kind) *Writer {
	return &Writer{w: w, kinds: kinds}
}

// Open selects the primary sink: stdout when path is empty, otherwise the
// file at path, compressed when the extension asks for it. Only the stdout
// sink colorizes, and only when it is a terminal (the color package's
// global TTY/NO_COLOR detection applies on top).
func Open(path string, kinds []digest.Kind) (*Writer, error) {
	if path == "" {
		return &Writer{w: os.Stdout, colorize: true, kinds: kinds}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	w := &Writer{w: f, closers: []func() error{f.Close}, kinds: kinds}

	switch filepath.Ext(path) {
	case extLZ4:
		zw := lz4.NewWriter(f)
		w.w = zw
		w.closers = append([]func() error{zw.Close}, w.closers...)
	case extZstd:
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()

			return nil, fmt.Errorf("create zstd output: %w", err)
		}

		w.w = zw
		w.closers = append([]func() error{zw.Close}, w.closers...)
	}

	return w, nil
}

// Close flushes and closes the sink. Stdout sinks are a no-op.
func (w *Writer) Close() error {
	for _, c := range w.closers {
		if err := c(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}

	return nil
}

// WriteHeader emits the hashing report header: "ALGO₁  ALGO₂  …  path".
func (w *Writer) WriteHeader() error {
	return w.writeLine(ledger.FormatHeader(w.kinds))
}

// WriteRow emits one successful hashing row.
func (w *Writer) WriteRow(sums []string, path string) error {
	return w.writeLine(ledger.FormatRow(sums, path))
}

// WriteSkipped emits an all-N/A row with a parenthesized reason, keeping
// one row per candidate even when nothing was hashed.
func (w *Writer) WriteSkipped(path, reason string) error {
	return w.writeLine(ledger.FormatRow(w.naColumns(), path) + " (" + reason + ")")
}

// WriteVerifyHeader emits the verification header: "Result  ALGO₁  …  Path".
func (w *Writer) WriteVerifyHeader() error {
	fields := make([]string, 0, len(w.kinds)+2)
	fields = append(fields, "Result")
	fields = append(fields, digest.DisplayNames(w.kinds)...)
	fields = append(fields, "Path")

	return w.writeLine(strings.Join(fields, ledger.Separator))
}

// WriteVerifyRow emits one verification outcome. Missing files render N/A
// columns in place of digests.
func (w *Writer) WriteVerifyRow(row ledger.VerifyRow) error {
	sums := row.Sums
	if sums == nil {
		sums = w.naColumns()
	}

	return w.writeLine(w.status(row.Status) + ledger.Separator + ledger.FormatRow(sums, row.Path))
}

// status renders the OK/FAILED token, tinted on terminal sinks.
func (w *Writer) status(s ledger.Status) string {
	if !w.colorize {
		return s.String()
	}

	if s == ledger.StatusOK {
		return okColor.Sprint(s.String())
	}

	return failedColor.Sprint(s.String())
}

func (w *Writer) naColumns() []string {
	sums := make([]string, len(w.kinds))
	for i := range sums {
		sums[i] = NA
	}

	return sums
}

func (w *Writer) writeLine(line string) error {
	if _, err := fmt.Fprintln(w.w, line); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
