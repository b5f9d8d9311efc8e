// Package ledger reads and writes checksum ledgers: line-oriented files
// pairing one or more hex digests with a path, optionally preceded by a
// column header. The same row format backs both the hashing report and the
// verification input, so a report written by this tool is always a valid
// ledger for it.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
)

// Separator delimits report and ledger columns.
const Separator = "  "

// headerPathColumn is the literal final field of a header line. Detection is
// case-sensitive: only an exact "path" terminates a header.
const headerPathColumn = "path"

// Compressed ledger extensions, matching the report sink's output.
const (
	extLZ4  = ".lz4"
	extZstd = ".zst"
)

// ErrNoAlgorithms is returned when a ledger carries no detectable header and
// the caller supplied no explicit algorithm set.
var ErrNoAlgorithms = errors.New("ledger: no header detected and no algorithms specified")

// FormatError reports a data line whose field count does not match the
// effective algorithm set.
type FormatError struct {
	Line   int
	Fields int
	Want   int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("ledger: line %d: expected %d fields, got %d", e.Line, e.Want, e.Fields)
}

// Entry is one parsed ledger row: the expected digests, in column order,
// and the path they were recorded for.
type Entry struct {
	Path string
	Sums []string
}

// Ledger is a parsed checksum ledger.
type Ledger struct {
	// Kinds is the effective algorithm set: the caller's explicit set when
	// given, otherwise the detected header.
	Kinds []digest.Kind

	// Detected is the header's algorithm set, nil when no header was found.
	// When both Detected and an explicit set exist, the explicit set wins
	// and callers should warn about the override.
	Detected []digest.Kind

	// Entries are the data rows in file order.
	Entries []Entry
}

// Overridden reports whether an explicit algorithm set displaced a header.
func (l *Ledger) Overridden() bool {
	return l.Detected != nil && !kindsEqual(l.Kinds, l.Detected)
}

// FormatHeader renders the column header for kinds, e.g. "MD5  SHA2-256  path".
func FormatHeader(kinds []digest.Kind) string {
	return strings.Join(append(digest.DisplayNames(kinds), headerPathColumn), Separator)
}

// FormatRow renders one data row: each digest, then the path.
func FormatRow(sums []string, path string) string {
	row := make([]string, 0, len(sums)+1)
	row = append(row, sums...)
	row = append(row, path)

	return strings.Join(row, Separator)
}

// Parse reads a ledger. kinds is the explicit algorithm set; pass nil to
// require a detectable header. Paths containing whitespace are not
// representable in this format; rows are split on any run of whitespace.
func Parse(r io.Reader, kinds []digest.Kind) (*Ledger, error) {
	led := &Ledger{Kinds: kinds}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if lineNo == 1 {
			if detected, ok := parseHeader(line); ok {
				led.Detected = detected

				if len(led.Kinds) == 0 {
					led.Kinds = detected
				}

				continue
			}
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(led.Kinds) == 0 {
			return nil, ErrNoAlgorithms
		}

		fields := strings.Fields(line)
		if len(fields) != len(led.Kinds)+1 {
			return nil, &FormatError{Line: lineNo, Fields: len(fields), Want: len(led.Kinds) + 1}
		}

		led.Entries = append(led.Entries, Entry{
			Path: fields[len(fields)-1],
			Sums: fields[:len(fields)-1],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	if len(led.Kinds) == 0 {
		return nil, ErrNoAlgorithms
	}

	return led, nil
}

// ParseFile opens and parses a ledger, transparently decoding compressed
// files by extension.
func ParseFile(path string, kinds []digest.Kind) (*Ledger, error) {
	rc, err := OpenFile(path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rc.Close() }()

	return Parse(rc, kinds)
}

// OpenFile opens a ledger for reading. Files ending in .lz4 or .zst are
// decoded on the fly, mirroring what the report sink writes.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case extLZ4:
		return &readCloser{r: lz4.NewReader(f), close: f.Close}, nil
	case extZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()

			return nil, fmt.Errorf("open zstd ledger: %w", err)
		}

		return &readCloser{r: dec, close: func() error {
			dec.Close()

			return f.Close()
		}}, nil
	default:
		return f, nil
	}
}

// parseHeader recognizes a header line: two-space separated canonical
// display names followed by the literal "path". Anything else — unknown
// names, an alias, wrong case — is data.
func parseHeader(line string) ([]digest.Kind, bool) {
	fields := strings.Split(line, Separator)
	if len(fields) < 2 || fields[len(fields)-1] != headerPathColumn {
		return nil, false
	}

	kinds := make([]digest.Kind, 0, len(fields)-1)

	for _, name := range fields[:len(fields)-1] {
		kind, ok := digest.ParseDisplayName(name)
		if !ok {
			return nil, false
		}

		kinds = append(kinds, kind)
	}

	return kinds, true
}

func kindsEqual(a, b []digest.Kind) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

type readCloser struct {
	r     io.Reader
	close func() error
}

func (rc *readCloser) Read(p []byte) (int, error) { return rc.r.Read(p) }

func (rc *readCloser) Close() error { return rc.close() }
