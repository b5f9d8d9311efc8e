// Package pipeline implements the chunked hashing pipeline: a single reader
// streams a file in fixed-size chunks to one worker goroutine per algorithm
// over bounded channels. Memory stays flat regardless of file size, and
// backpressure throttles the reader to the slowest algorithm instead of
// letting chunks pile up in the fastest worker's queue.
package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Sumatoshi-tech/hashfang/internal/digest"
	"github.com/Sumatoshi-tech/hashfang/pkg/units"
)

// Pipeline tunables.
const (
	// DefaultChunkSize is the read granularity. 1 MiB balances syscall
	// overhead against per-algorithm buffer memory.
	DefaultChunkSize = 1 * units.MiB

	// DefaultChannelCapacity is how many chunks each algorithm may have
	// queued before the reader blocks.
	DefaultChannelCapacity = 10
)

// ByteRecorder observes the running byte count as chunks are queued.
// Implementations must be cheap; the reader calls it on the hot path.
type ByteRecorder interface {
	RecordBytes(n int)
}

// WorkerError reports a hashing worker that terminated abnormally. The
// remaining workers are always joined before it is surfaced.
type WorkerError struct {
	Kind  digest.Kind
	Cause any
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("hash worker %s panicked: %v", e.Kind, e.Cause)
}

// chunk is one unit of work fanned out to the workers. Each worker receives
// its own copy of the data; last tells the worker to finalize and stop.
type chunk struct {
	data []byte
	last bool
}

// Options tunes a Hasher. Zero values select the defaults.
type Options struct {
	// ChunkSize is the read size in bytes.
	ChunkSize int

	// ChannelCapacity is the per-algorithm buffered chunk count.
	ChannelCapacity int

	// Recorder, when non-nil, is notified of queued bytes for telemetry.
	Recorder ByteRecorder
}

// Hasher runs the chunked pipeline. It owns one reusable digest state per
// algorithm and one reusable read buffer, so a single Hasher amortizes
// allocations across every file it processes. A Hasher is not safe for
// concurrent use: HashFile hands each state to exactly one worker goroutine
// and takes it back when the workers are joined.
type Hasher struct {
	kinds    []digest.Kind
	states   []*digest.State
	buf      []byte
	capacity int
	recorder ByteRecorder
}

// New creates a Hasher computing kinds, in order, for every file.
func New(kinds []digest.Kind, opts Options) *Hasher {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	capacity := opts.ChannelCapacity
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}

	states := make([]*digest.State, len(kinds))
	for i, kind := range kinds {
		states[i] = digest.NewState(kind)
	}

	return &Hasher{
		kinds:    append([]digest.Kind(nil), kinds...),
		states:   states,
		buf:      make([]byte, chunkSize),
		capacity: capacity,
		recorder: opts.Recorder,
	}
}

// Kinds returns the algorithm set this Hasher computes, in column order.
func (h *Hasher) Kinds() []digest.Kind {
	kinds := make([]digest.Kind, len(h.kinds))
	copy(kinds, h.kinds)

	return kinds
}

// HashFile hashes one file with every configured algorithm and returns the
// lowercase hex digests in algorithm order. A missing file surfaces as an
// error satisfying errors.Is(err, fs.ErrNotExist); callers distinguish it
// from other I/O failures that way.
func (h *Hasher) HashFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = f.Close() }()

	return h.hash(ctx, f)
}

// hash fans r out to one worker per algorithm and collects the digests.
func (h *Hasher) hash(ctx context.Context, r io.Reader) ([]string, error) {
	feeds := make([]chan chunk, len(h.states))
	for i := range feeds {
		feeds[i] = make(chan chunk, h.capacity)
	}

	sums := make([][]byte, len(h.states))
	workerErrs := make([]error, len(h.states))

	var wg sync.WaitGroup

	wg.Add(len(h.states))

	for i := range h.states {
		go func() {
			defer wg.Done()

			workerErrs[i] = h.runWorker(i, feeds[i], sums)
		}()
	}

	readErr := h.feed(ctx, r, feeds)

	// Closing the feeds releases any worker still waiting after an aborted
	// read; workers that saw their final chunk have already returned.
	for i := range feeds {
		close(feeds[i])
	}

	wg.Wait()

	if readErr != nil {
		h.resetStates()

		return nil, readErr
	}

	for _, werr := range workerErrs {
		if werr != nil {
			h.resetStates()

			return nil, werr
		}
	}

	out := make([]string, len(sums))
	for i, sum := range sums {
		out[i] = hex.EncodeToString(sum)
	}

	return out, nil
}

// resetStates discards digest state after an aborted or failed hash. Fresh
// states are built rather than reset because a panicking algorithm may leave
// its old state unusable.
func (h *Hasher) resetStates() {
	for i, kind := range h.kinds {
		h.states[i] = digest.NewState(kind)
	}
}

// runWorker consumes one feed with one digest state. It finalizes on the
// final-chunk flag; a feed closed before that is an aborted read and exits
// without reporting anything. A panic (a misbehaving algorithm) is captured
// as a WorkerError, and the feed is drained so the reader never blocks on a
// dead worker.
func (h *Hasher) runWorker(i int, feed <-chan chunk, sums [][]byte) (err error) {
	defer func() {
		if cause := recover(); cause != nil {
			err = &WorkerError{Kind: h.kinds[i], Cause: cause}

			for range feed { //nolint:revive // discard remaining chunks to unblock the reader.
			}
		}
	}()

	state := h.states[i]

	for c := range feed {
		state.Update(c.data)

		if c.last {
			sums[i] = state.FinalizeReset()

			return nil
		}
	}

	return nil
}

// feed streams r into every worker feed in fixed-size chunks. A full read is
// an interior chunk, a short read is the final chunk, and a zero-length read
// produces an empty final chunk — so empty files and files whose size is an
// exact multiple of the chunk size still terminate every worker instead of
// leaving them waiting.
func (h *Hasher) feed(ctx context.Context, r io.Reader, feeds []chan chunk) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := io.ReadFull(r, h.buf)

		var last bool

		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			last = true
		case err != nil:
			return fmt.Errorf("read: %w", err)
		}

		for i := range feeds {
			// Private copy per worker: the read buffer is reused for the
			// next chunk and workers must never observe its mutation.
			data := make([]byte, n)
			copy(data, h.buf[:n])

			select {
			case feeds[i] <- chunk{data: data, last: last}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if h.recorder != nil && n > 0 {
			h.recorder.RecordBytes(n)
		}

		if last {
			return nil
		}
	}
}
