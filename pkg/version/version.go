// Package version exposes build metadata stamped in at link time.
package version

// Build metadata. Overridden via -ldflags "-X" by the release pipeline;
// the defaults identify a from-source development build.
var (
	// Version is the semantic version of the hashfang binary.
	Version = "dev"

	// Commit is the Git hash the binary was built from.
	Commit = "<unknown>"

	// Date is the UTC build timestamp.
	Date = "<unknown>"
)
