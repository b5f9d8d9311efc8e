package commands

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/hashfang/internal/config"
	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/internal/ledger"
)

const abcSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

// newTestRoot assembles a root command the way main does, capturing output.
func newTestRoot(sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "hashfang", SilenceUsage: true, SilenceErrors: true}
	RegisterPersistentFlags(root)
	root.AddCommand(sub)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	return root
}

// emptyConfig returns a --config path pointing at an empty file so test runs
// never pick up a developer's real config.
func emptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	return path
}

func writeTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestHashCommand_WritesRowsToOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")
	out := filepath.Join(dir, "sums.txt")

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", input, "-a", "sha256", "-o", out, "--config", emptyConfig(t), "--quiet"})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, abcSHA256+"  "+input+"\n", string(data))
}

func TestHashCommand_HeaderFlag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")
	out := filepath.Join(dir, "sums.txt")

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", input, "-a", "sha1,sha256", "-s", "-o", out, "--config", emptyConfig(t), "--quiet"})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "SHA1  SHA2-256  path", lines[0])
}

func TestHashCommand_CompressedSinkRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")

	for _, ext := range []string{".lz4", ".zst"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()

			out := filepath.Join(dir, "sums"+ext)

			root := newTestRoot(NewHashCommand())
			root.SetArgs([]string{"hash", input, "-a", "sha256", "-o", out, "--config", emptyConfig(t), "--quiet"})

			require.NoError(t, root.Execute())

			led, err := ledger.ParseFile(out, []digest.Kind{digest.SHA256})
			require.NoError(t, err)
			require.Len(t, led.Entries, 1)
			assert.Equal(t, input, led.Entries[0].Path)
			assert.Equal(t, []string{abcSHA256}, led.Entries[0].Sums)
		})
	}
}

func TestHashCommand_NoAlgorithms_ReturnsSentinel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", input, "--config", emptyConfig(t), "--quiet"})

	err := root.Execute()
	require.ErrorIs(t, err, ErrNoAlgorithmsSelected)
}

func TestHashCommand_UnknownAlgorithm_ReturnsSentinel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", input, "-a", "whirlpool", "--config", emptyConfig(t), "--quiet"})

	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
	assert.Contains(t, err.Error(), "whirlpool")
}

func TestHashCommand_InvalidChunkSizeFlag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{
		"hash", input, "-a", "sha256", "--chunk-size", "lots",
		"--config", emptyConfig(t), "--quiet",
	})

	err := root.Execute()
	require.ErrorIs(t, err, config.ErrInvalidChunkSize)
}

func TestHashCommand_ConfigFileDrivesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")
	out := filepath.Join(dir, "sums.txt")

	cfgPath := filepath.Join(dir, ".hashfang.yaml")
	cfgContent := "algorithms:\n  - sha256\noutput:\n  show_headers: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0o600))

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", input, "-o", out, "--config", cfgPath, "--quiet"})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "SHA2-256  path", lines[0])
}

func TestHashCommand_ExplicitFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeTestFile(t, dir, "abc.txt", "abc")
	out := filepath.Join(dir, "sums.txt")

	cfgPath := filepath.Join(dir, ".hashfang.yaml")
	cfgContent := "algorithms:\n  - sha256\noutput:\n  show_headers: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0o600))

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", input, "-o", out, "--config", cfgPath, "--quiet", "--show-headers=false"})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, abcSHA256+"  "+input+"\n", string(data))
}

func TestHashCommand_DirectoryInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "abc")
	writeTestFile(t, dir, "b.txt", "abc")
	out := filepath.Join(t.TempDir(), "sums.txt")

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", dir, "-a", "sha256", "-o", out, "--config", emptyConfig(t), "--quiet"})

	require.NoError(t, root.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "a.txt"))
	assert.True(t, strings.HasSuffix(lines[1], "b.txt"))
}

func TestHashCommand_RequiresPaths(t *testing.T) {
	t.Parallel()

	root := newTestRoot(NewHashCommand())
	root.SetArgs([]string{"hash", "--config", emptyConfig(t)})

	err := root.Execute()
	require.Error(t, err)
}
