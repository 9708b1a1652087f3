/*
Package dictionary persists the description vocabulary.

Two JSON files are involved. The snapshot holds what was learned so far:

	{"frequencies": {"deploy": 5, "panel": 2}, "mistakes": {}}

The word list is a bundled seed of known phrases, a plain JSON array:

	["solar panel", "heat shield", "thruster"]

Snapshots are written to a temp file and renamed over the target, so a crash
mid-write leaves the previous snapshot intact.
*/
package dictionary

import (
	"bytes"
	"encoding/json"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bastiangx/dotlabel/internal/utils"
)

// DefaultDataFile is the snapshot name used when none is configured.
// It is resolved against the working directory.
const DefaultDataFile = "description_data.json"

// DefaultWordList is the bundled seed list name.
const DefaultWordList = "wordlist.json"

var (
	// ErrNotFound is returned when the file does not exist.
	ErrNotFound = errors.New("dictionary file not found")
	// ErrMalformed is returned when the file is not valid for its format.
	ErrMalformed = errors.New("malformed dictionary file")
)

// Snapshot is the persisted form of the vocabulary.
// Mistakes is carried through load/save untouched.
type Snapshot struct {
	Frequencies map[string]int      `json:"frequencies"`
	Mistakes    map[string][]string `json:"mistakes"`
	// Digest is the sha256 of the file bytes this snapshot was last
	// read from or written as. Zero for snapshots built in memory.
	Digest Digest `json:"-"`
}

// Digest identifies file contents.
type Digest [sha256.Size]byte

// NewSnapshot returns an empty snapshot with non-nil maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Frequencies: make(map[string]int),
		Mistakes:    make(map[string][]string),
	}
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Frequencies: make(map[string]int, len(s.Frequencies)),
		Mistakes:    make(map[string][]string, len(s.Mistakes)),
	}
	for w, n := range s.Frequencies {
		c.Frequencies[w] = n
	}
	for w, alts := range s.Mistakes {
		c.Mistakes[w] = append([]string(nil), alts...)
	}
	return c
}

// Decode parses snapshot bytes. Missing keys decode as empty maps,
// negative counts are rejected.
func Decode(data []byte) (*Snapshot, error) {
	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if snap.Frequencies == nil {
		snap.Frequencies = make(map[string]int)
	}
	if snap.Mistakes == nil {
		snap.Mistakes = make(map[string][]string)
	}
	for word, count := range snap.Frequencies {
		if count < 0 {
			return nil, fmt.Errorf("%w: negative count %d for %q", ErrMalformed, count, word)
		}
	}
	return snap, nil
}

// Encode renders the snapshot as JSON. Map keys are sorted by encoding/json,
// so equal snapshots encode to equal bytes.
func Encode(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		snap = NewSnapshot()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadSnapshot reads a snapshot file and records its digest.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	snap.Digest = sha256.Sum256(data)
	return snap, nil
}

// SaveSnapshot writes the snapshot atomically and sets snap.Digest to the
// digest of the written bytes.
func SaveSnapshot(path string, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	snap.Digest = sha256.Sum256(data)
	return nil
}

// LoadWordList reads a JSON array of strings.
func LoadWordList(path string) ([]string, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("load %s: %w: %v", path, ErrMalformed, err)
	}
	return words, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
