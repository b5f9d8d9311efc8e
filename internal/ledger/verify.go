package ledger

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/Sumatoshi-tech/hashfang/internal/pipeline"
)

// Status is the outcome of verifying one ledger entry.
type Status int

const (
	// StatusOK means every recomputed digest matched the ledger.
	StatusOK Status = iota

	// StatusFailed means at least one digest differed, or the file is gone.
	StatusFailed
)

func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}

	return "FAILED"
}

// VerifyRow is the result of checking one entry against the filesystem.
type VerifyRow struct {
	Status Status

	// Sums are the recomputed digests, nil when the file was missing
	// (rendered as N/A columns by the report).
	Sums []string

	Path string

	// Missing marks an entry whose file no longer exists. It fails
	// verification without aborting the batch.
	Missing bool
}

// VerifyEntry recomputes the digests for one entry and compares them
// positionally against the expectations. A missing file yields a failed row
// rather than an error; every other I/O failure propagates so the caller's
// continuation policy can decide.
func VerifyEntry(ctx context.Context, h *pipeline.Hasher, e Entry) (VerifyRow, error) {
	sums, err := h.HashFile(ctx, e.Path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return VerifyRow{Status: StatusFailed, Path: e.Path, Missing: true}, nil
	case err != nil:
		return VerifyRow{}, err
	}

	if len(sums) != len(e.Sums) {
		return VerifyRow{Status: StatusFailed, Sums: sums, Path: e.Path}, nil
	}

	status := StatusOK

	for i, sum := range sums {
		// Hex case is cosmetic; ledgers from other tools may be uppercase.
		if !strings.EqualFold(sum, e.Sums[i]) {
			status = StatusFailed

			break
		}
	}

	return VerifyRow{Status: status, Sums: sums, Path: e.Path}, nil
}
