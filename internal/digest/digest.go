// Package digest implements the multi-algorithm digest engine: a closed set
// of hash algorithms behind a uniform create/update/finalize-reset interface
// so one computation state can be reused across many inputs.
package digest

import (
	"crypto/md5"  //nolint:gosec // MD5 is offered for interop checksums, not security.
	"crypto/sha1" //nolint:gosec // SHA1 is offered for interop checksums, not security.
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// ErrUnknownAlgorithm is returned when an identifier does not name a
// supported algorithm.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// blake3Size is the digest length in bytes requested from BLAKE3, which has
// extendable output. 32 bytes matches the reference b3sum tool.
const blake3Size = 32

// Kind identifies one algorithm in the supported set.
type Kind int

// Supported algorithm kinds, in canonical listing and report-column order.
const (
	MD5 Kind = iota
	SHA1
	SHA256
	SHA384
	SHA512
	SHA3_256 //nolint:revive,stylecheck // underscore matches crypto.Hash naming for the SHA-3 family.
	SHA3_384 //nolint:revive,stylecheck // see SHA3_256.
	SHA3_512 //nolint:revive,stylecheck // see SHA3_256.
	BLAKE3
)

// kindInfo carries per-kind metadata consumed by listings, ledger headers
// and identifier parsing.
type kindInfo struct {
	display string
	size    int
	aliases []string
}

var kindTable = [...]kindInfo{
	MD5:      {display: "MD5", size: md5.Size, aliases: []string{"md5"}},
	SHA1:     {display: "SHA1", size: sha1.Size, aliases: []string{"sha1"}},
	SHA256:   {display: "SHA2-256", size: sha256.Size, aliases: []string{"sha256", "sha2-256"}},
	SHA384:   {display: "SHA2-384", size: sha512.Size384, aliases: []string{"sha384", "sha2-384"}},
	SHA512:   {display: "SHA2-512", size: sha512.Size, aliases: []string{"sha512", "sha2-512"}},
	SHA3_256: {display: "SHA3-256", size: 32, aliases: []string{"sha3-256"}},
	SHA3_384: {display: "SHA3-384", size: 48, aliases: []string{"sha3-384"}},
	SHA3_512: {display: "SHA3-512", size: 64, aliases: []string{"sha3-512"}},
	BLAKE3:   {display: "BLAKE3", size: blake3Size, aliases: []string{"blake3"}},
}

// kindByAlias maps every accepted identifier (lowercase) to its Kind.
var kindByAlias = map[string]Kind{
	"md5":      MD5,
	"sha1":     SHA1,
	"sha256":   SHA256,
	"sha2-256": SHA256,
	"sha384":   SHA384,
	"sha2-384": SHA384,
	"sha512":   SHA512,
	"sha2-512": SHA512,
	"sha3-256": SHA3_256,
	"sha3-384": SHA3_384,
	"sha3-512": SHA3_512,
	"blake3":   BLAKE3,
}

// Kinds returns every supported Kind in canonical order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindTable))
	for i := range kindTable {
		kinds[i] = Kind(i)
	}

	return kinds
}

// ParseKind resolves an algorithm identifier to its Kind. Matching is
// case-insensitive and accepts the aliases listed by Kind.Aliases.
func ParseKind(identifier string) (Kind, error) {
	kind, ok := kindByAlias[strings.ToLower(strings.TrimSpace(identifier))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, identifier)
	}

	return kind, nil
}

// ParseKinds resolves a list of identifiers, failing on the first unknown
// one so invalid input is rejected before any file I/O starts.
func ParseKinds(identifiers []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(identifiers))

	for _, id := range identifiers {
		kind, err := ParseKind(id)
		if err != nil {
			return nil, err
		}

		kinds = append(kinds, kind)
	}

	return kinds, nil
}

// ParseDisplayName resolves a canonical display name, case-sensitively.
// Ledger header detection uses this stricter form so arbitrary data fields
// are not mistaken for column names.
func ParseDisplayName(name string) (Kind, bool) {
	for i := range kindTable {
		if kindTable[i].display == name {
			return Kind(i), true
		}
	}

	return 0, false
}

// String returns the canonical display name, e.g. "SHA2-256".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTable) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindTable[k].display
}

// Size returns the digest length in bytes.
func (k Kind) Size() int { return kindTable[k].size }

// Aliases returns the identifiers ParseKind accepts for this Kind.
func (k Kind) Aliases() []string {
	aliases := make([]string, len(kindTable[k].aliases))
	copy(aliases, kindTable[k].aliases)

	return aliases
}

// DisplayNames returns the display name of each kind, preserving order.
func DisplayNames(kinds []Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}

	return names
}

func (k Kind) newHash() hash.Hash {
	switch k {
	case MD5:
		return md5.New() //nolint:gosec // interop checksum, not security.
	case SHA1:
		return sha1.New() //nolint:gosec // interop checksum, not security.
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	case SHA3_256:
		return sha3.New256()
	case SHA3_384:
		return sha3.New384()
	case SHA3_512:
		return sha3.New512()
	case BLAKE3:
		return blake3.New(blake3Size, nil)
	default:
		panic(fmt.Sprintf("digest: invalid kind %d", int(k)))
	}
}

// State is a single in-progress digest computation. A State is owned by one
// goroutine at a time; it is not safe for concurrent use.
type State struct {
	kind Kind
	h    hash.Hash
}

// New returns a fresh State for the algorithm named by identifier.
func New(identifier string) (*State, error) {
	kind, err := ParseKind(identifier)
	if err != nil {
		return nil, err
	}

	return NewState(kind), nil
}

// NewState returns a fresh State for kind.
func NewState(kind Kind) *State {
	return &State{kind: kind, h: kind.newHash()}
}

// Update absorbs p into the running digest.
func (s *State) Update(p []byte) {
	_, _ = s.h.Write(p) //nolint:errcheck // hash.Hash.Write never returns an error.
}

// FinalizeReset returns the digest of everything absorbed since the last
// reset and restores the State to its initial condition, so the same State
// (and its internal buffers) can be reused for the next input.
func (s *State) FinalizeReset() []byte {
	sum := s.h.Sum(nil)
	s.h.Reset()

	return sum
}

// Kind reports which algorithm this State computes.
func (s *State) Kind() Kind { return s.kind }
