// Package history maintains a content-addressed run-history cache: one
// record per run, carrying the hash of the source it ran, appended across
// invocations of the wisp driver (spec §10, ADDED — run history).
package history

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Record is one run's outcome, keyed by the BLAKE2b-256 digest of the
// source bytes that produced it.
type Record struct {
	Hash   string    `cbor:"hash"`
	Path   string    `cbor:"path"`
	Lines  int       `cbor:"lines"`
	Errors int       `cbor:"errors"`
	At     time.Time `cbor:"at"`
}

// Hash computes the content address used to key a Record: the hex-encoded
// BLAKE2b-256 digest of source.
func Hash(source []byte) string {
	sum := blake2b.Sum256(source)
	return hexEncode(sum[:])
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0xf]
	}
	return string(out)
}

// Store is an append-only CBOR-encoded history file.
type Store struct {
	path string
}

// DefaultPath resolves the history file location: WISP_HISTORY_FILE if
// set, else $XDG_CACHE_HOME/wisp/history.cbor, falling back to
// ~/.cache/wisp/history.cbor.
func DefaultPath() (string, error) {
	if p := os.Getenv("WISP_HISTORY_FILE"); p != "" {
		return p, nil
	}
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "wisp", "history.cbor"), nil
}

// Open prepares a Store backed by path, creating its parent directory if
// necessary. The file itself is created lazily on the first Append.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// Append decodes the existing record list, adds rec, and re-encodes the
// whole file. Run histories are small enough (one record per distinct
// script run) that this is simpler and safer than a streaming append
// format, and it matches the all-at-once CBOR marshal/unmarshal style the
// rest of this history technique is grounded on.
func (s *Store) Append(rec Record) error {
	records, err := s.All()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := cbor.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// All returns every record currently in the store, oldest first. A
// missing file is treated as an empty history, not an error.
func (s *Store) All() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Last returns the most recent n records (or fewer, if the history is
// shorter), most recent first.
func (s *Store) Last(n int) ([]Record, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(records) {
		n = len(records)
	}
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = records[len(records)-1-i]
	}
	return out, nil
}
