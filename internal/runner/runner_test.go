package runner_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"code.cloudfoundry.org/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/internal/ledger"
	"github.com/Sumatoshi-tech/hashfang/internal/pipeline"
	"github.com/Sumatoshi-tech/hashfang/internal/progress"
	"github.com/Sumatoshi-tech/hashfang/internal/report"
	"github.com/Sumatoshi-tech/hashfang/internal/runner"
	"github.com/Sumatoshi-tech/hashfang/internal/walk"
)

const (
	abcSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	abcSHA1   = "a9993e364706816aba3e25717850c26c9cd0d89d"
)

// newRun wires a Runner around a buffered report for output assertions.
func newRun(t *testing.T, kinds []digest.Kind, opts runner.Options) (*runner.Runner, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	tracker := progress.New(io.Discard, clock.NewClock(), true)
	hasher := pipeline.New(kinds, pipeline.Options{Recorder: tracker})

	run := runner.New(runner.Deps{
		Hasher:   hasher,
		Report:   report.New(&out, kinds),
		Progress: tracker,
	}, opts)

	return run, &out
}

func mkFile(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestRunner_Hash_SingleFileRow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := mkFile(t, dir, "abc.txt", "abc")

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{})

	err := run.Hash(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, abcSHA256+"  "+path+"\n", out.String())
}

func TestRunner_Hash_HeaderPrecedesRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := mkFile(t, dir, "abc.txt", "abc")

	run, out := newRun(t, []digest.Kind{digest.SHA1, digest.SHA256}, runner.Options{ShowHeaders: true})

	err := run.Hash(context.Background(), []string{path})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "SHA1  SHA2-256  path", lines[0])
	assert.Equal(t, abcSHA1+"  "+abcSHA256+"  "+path, lines[1])
}

func TestRunner_Hash_DirectoryWithSymlinkRow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := mkFile(t, dir, "real.txt", "abc")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{FollowSymlinks: false})

	err := run.Hash(context.Background(), []string{dir})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "N/A  "+link+" (symlink)", lines[0])
	assert.Equal(t, abcSHA256+"  "+target, lines[1])
}

func TestRunner_Hash_MissingPathBecomesRow(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "gone.txt")

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{})

	err := run.Hash(context.Background(), []string{missing})
	require.NoError(t, err)

	line := strings.TrimRight(out.String(), "\n")
	assert.True(t, strings.HasPrefix(line, "N/A  "+missing+" (File not found: "), "got %q", line)
}

func TestRunner_Hash_ContinueOnError_SkipsBadRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := mkFile(t, dir, "abc.txt", "abc")
	badRoot := filepath.Join(dir, strings.Repeat("x", 300))

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{ContinueOnError: true})

	err := run.Hash(context.Background(), []string{badRoot, good})
	require.NoError(t, err)

	assert.Equal(t, abcSHA256+"  "+good+"\n", out.String())
}

func TestRunner_Hash_AbortsOnBadRootByDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := mkFile(t, dir, "abc.txt", "abc")
	badRoot := filepath.Join(dir, strings.Repeat("x", 300))

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{})

	err := run.Hash(context.Background(), []string{badRoot, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), badRoot)
	assert.Empty(t, out.String())
}

func TestRunner_Hash_CancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := mkFile(t, dir, "abc.txt", "abc")

	run, _ := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{ContinueOnError: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run.Hash(ctx, []string{path})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Verify_CountsFailedRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	okPath := mkFile(t, dir, "ok.txt", "abc")
	badPath := mkFile(t, dir, "bad.txt", "abc")
	missing := filepath.Join(dir, "gone.txt")

	led := &ledger.Ledger{
		Kinds: []digest.Kind{digest.SHA256},
		Entries: []ledger.Entry{
			{Path: okPath, Sums: []string{abcSHA256}},
			{Path: badPath, Sums: []string{strings.Repeat("0", 64)}},
			{Path: missing, Sums: []string{abcSHA256}},
		},
	}

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{})

	failed, err := run.Verify(context.Background(), led)
	require.NoError(t, err)
	assert.Equal(t, 2, failed)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "OK  "+abcSHA256+"  "+okPath, lines[0])
	assert.Equal(t, "FAILED  "+abcSHA256+"  "+badPath, lines[1])
	assert.Equal(t, "FAILED  N/A  "+missing, lines[2])
}

func TestRunner_Verify_HeaderWithDisplayNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	okPath := mkFile(t, dir, "ok.txt", "abc")

	led := &ledger.Ledger{
		Kinds:   []digest.Kind{digest.SHA256},
		Entries: []ledger.Entry{{Path: okPath, Sums: []string{abcSHA256}}},
	}

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{ShowHeaders: true})

	failed, err := run.Verify(context.Background(), led)
	require.NoError(t, err)
	assert.Zero(t, failed)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Result  SHA2-256  Path", lines[0])
}

func TestRunner_Hash_WalkOrderMatchesTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mkFile(t, dir, "b.txt", "abc")
	mkFile(t, dir, "a.txt", "abc")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	mkFile(t, sub, "c.txt", "abc")

	var wantPaths []string

	walkErr := walk.Walk(dir, false, func(entry walk.Entry) error {
		wantPaths = append(wantPaths, entry.Path)

		return nil
	})
	require.NoError(t, walkErr)

	run, out := newRun(t, []digest.Kind{digest.SHA256}, runner.Options{})

	err := run.Hash(context.Background(), []string{dir})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, len(wantPaths))

	for i, line := range lines {
		assert.True(t, strings.HasSuffix(line, "  "+wantPaths[i]), "row %d = %q, want path %q", i, line, wantPaths[i])
	}
}
