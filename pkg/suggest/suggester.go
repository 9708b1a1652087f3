package suggest

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/dotlabel/pkg/dictionary"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ErrEmptyInput is returned by AddWord when the text has no words.
var ErrEmptyInput = errors.New("no words in input")

const (
	DefaultThreshold      = 0.8
	DefaultMaxSuggestions = 3
	// DefaultMinWordLength skips tokens of two runes or fewer
	DefaultMinWordLength = 3
)

// Options tunes matching. Zero counts and an empty metric select the
// defaults. Threshold is taken as given, start from DefaultOptions.
type Options struct {
	// Threshold is exclusive: a known word must score strictly above it.
	// 0 accepts any word sharing a character.
	Threshold      float64
	MaxSuggestions int
	MinWordLength  int
	Metric         string
	// SavePath, when set, is written after every Learn
	SavePath string
}

// DefaultOptions returns the stock matching options.
func DefaultOptions() Options {
	return Options{
		Threshold:      DefaultThreshold,
		MaxSuggestions: DefaultMaxSuggestions,
		MinWordLength:  DefaultMinWordLength,
		Metric:         MetricRatio,
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.Threshold < 0 || o.Threshold > 1 {
		return o, fmt.Errorf("threshold %v out of range [0,1]", o.Threshold)
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = DefaultMaxSuggestions
	}
	if o.MinWordLength <= 0 {
		o.MinWordLength = DefaultMinWordLength
	}
	if o.Metric == "" {
		o.Metric = MetricRatio
	}
	return o, nil
}

// Suggestion is a known word with its count.
type Suggestion struct {
	Word      string `json:"word" msgpack:"w"`
	Frequency int    `json:"frequency" msgpack:"f"`
}

// Correction flags one unknown token of a description.
type Correction struct {
	Word        string   `json:"word" msgpack:"word"`
	Suggestions []string `json:"suggestions" msgpack:"suggestions"`
}

// Suggester owns the word-frequency table. Counts only grow, except when
// Load replaces the whole table. Safe for concurrent use.
type Suggester struct {
	mu       sync.RWMutex
	freqs    map[string]int
	mistakes map[string][]string
	index    *patricia.Trie
	opts     Options
	metric   Metric
	// digest of the snapshot bytes last read from or written to disk
	lastDigest dictionary.Digest
}

// New creates an empty suggester.
func New(opts Options) (*Suggester, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	metric, err := MetricByName(opts.Metric)
	if err != nil {
		return nil, err
	}
	return &Suggester{
		freqs:    make(map[string]int),
		mistakes: make(map[string][]string),
		index:    patricia.NewTrie(),
		opts:     opts,
		metric:   metric,
	}, nil
}

// Options returns the active options.
func (s *Suggester) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetOptions swaps matching options, e.g. after a config reload.
func (s *Suggester) SetOptions(opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}
	metric, err := MetricByName(opts.Metric)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.opts = opts
	s.metric = metric
	s.mu.Unlock()
	return nil
}

// Load replaces the table with the snapshot at path. On any error the
// table is left untouched and the error is returned for the caller to log.
func (s *Suggester) Load(path string) error {
	snap, err := dictionary.LoadSnapshot(path)
	if err != nil {
		return err
	}
	s.replace(path, snap)
	return nil
}

// ReloadIfChanged loads path unless its bytes match what this suggester
// last read or wrote. Used by the file watcher so our own saves are ignored.
func (s *Suggester) ReloadIfChanged(path string) (bool, error) {
	snap, err := dictionary.LoadSnapshot(path)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	same := snap.Digest == s.lastDigest
	s.mu.RUnlock()
	if same {
		return false, nil
	}
	s.replace(path, snap)
	return true, nil
}

func (s *Suggester) replace(path string, snap *dictionary.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freqs = snap.Frequencies
	s.mistakes = snap.Mistakes
	s.lastDigest = snap.Digest
	s.rebuildIndex()
	log.Debugf("Loaded %d words from %s", len(s.freqs), path)
}

// LoadDefaults feeds every entry of the seed word list through
// AddDescription. Returns the number of entries read.
func (s *Suggester) LoadDefaults(path string) (int, error) {
	words, err := dictionary.LoadWordList(path)
	if err != nil {
		return 0, err
	}
	for _, w := range words {
		s.AddDescription(w)
	}
	log.Debugf("Loaded %d default words from %s", len(words), path)
	return len(words), nil
}

// AddDescription lowercases text, splits it on whitespace and counts every
// token, repeats included. Punctuation is kept as part of the token.
func (s *Suggester) AddDescription(text string) []string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tok := range tokens {
		s.freqs[tok]++
		s.index.Set(patricia.Prefix(tok), s.freqs[tok])
	}
	return tokens
}

// Learn counts text and saves the table when a save path is configured.
// The counts stay applied even if the save fails.
func (s *Suggester) Learn(text string) ([]string, error) {
	tokens := s.AddDescription(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	path := s.opts.SavePath
	s.mu.RUnlock()
	if path == "" {
		return tokens, nil
	}
	return tokens, s.Save(path)
}

// AddWord is an explicit dictionary addition of a word or phrase.
func (s *Suggester) AddWord(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	return s.Learn(text)
}

// Save writes the table to path, replacing the file atomically.
func (s *Suggester) Save(path string) error {
	snap := s.Snapshot()
	if err := dictionary.SaveSnapshot(path, snap); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastDigest = snap.Digest
	s.mu.Unlock()
	return nil
}

// Similarity scores a and b with the configured metric.
func (s *Suggester) Similarity(a, b string) float64 {
	s.mu.RLock()
	metric := s.metric
	s.mu.RUnlock()
	return metric(a, b)
}

// FindSimilar returns every known word scoring strictly above threshold
// against word, most frequent first. Equal counts are ordered by word.
func (s *Suggester) FindSimilar(word string, threshold float64) []Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findSimilarLocked(strings.ToLower(word), threshold)
}

func (s *Suggester) findSimilarLocked(lower string, threshold float64) []Suggestion {
	var similar []Suggestion
	for known, count := range s.freqs {
		if s.metric(lower, known) > threshold {
			similar = append(similar, Suggestion{Word: known, Frequency: count})
		}
	}
	sortByFrequency(similar)
	return similar
}

// CheckDescription flags unknown tokens of text that have close known words.
// Tokens shorter than MinWordLength runes, or already known in lowercase,
// are never flagged. Tokens with no similar word are left out. The token is
// reported as typed; suggestions are the top MaxSuggestions by count.
func (s *Suggester) CheckDescription(text string) []Correction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var corrections []Correction
	for _, tok := range strings.Fields(text) {
		lower := strings.ToLower(tok)
		if utf8.RuneCountInString(lower) < s.opts.MinWordLength {
			continue
		}
		if _, known := s.freqs[lower]; known {
			continue
		}
		similar := s.findSimilarLocked(lower, s.opts.Threshold)
		if len(similar) == 0 {
			continue
		}
		if len(similar) > s.opts.MaxSuggestions {
			similar = similar[:s.opts.MaxSuggestions]
		}
		words := make([]string, len(similar))
		for i, sg := range similar {
			words[i] = sg.Word
		}
		corrections = append(corrections, Correction{Word: tok, Suggestions: words})
	}
	return corrections
}

// Complete returns known words that start with prefix, most frequent first.
// The prefix itself is not returned. limit <= 0 means no limit.
func (s *Suggester) Complete(prefix string, limit int) []Suggestion {
	lower := strings.ToLower(prefix)
	if lower == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Suggestion
	err := s.index.VisitSubtree(patricia.Prefix(lower), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		if word == lower {
			return nil
		}
		freq, ok := item.(int)
		if !ok {
			log.Errorf("Unknown item type: %T for word %s", item, word)
			return nil
		}
		out = append(out, Suggestion{Word: word, Frequency: freq})
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	sortByFrequency(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Frequency returns the count of word (lowercased).
func (s *Suggester) Frequency(word string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freqs[strings.ToLower(word)]
}

// Len is the number of distinct words.
func (s *Suggester) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.freqs)
}

// Snapshot returns a copy of the table in its persisted form.
func (s *Suggester) Snapshot() *dictionary.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &dictionary.Snapshot{Frequencies: s.freqs, Mistakes: s.mistakes}
	return snap.Clone()
}

// Stats returns statistics about the vocabulary.
func (s *Suggester) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total, maxFreq := 0, 0
	for _, n := range s.freqs {
		total += n
		maxFreq = max(maxFreq, n)
	}
	return map[string]int{
		"words":        len(s.freqs),
		"totalCount":   total,
		"maxFrequency": maxFreq,
		"mistakes":     len(s.mistakes),
	}
}

// rebuildIndex must be called with mu held for writing.
func (s *Suggester) rebuildIndex() {
	s.index = patricia.NewTrie()
	for word, n := range s.freqs {
		s.index.Set(patricia.Prefix(word), n)
	}
}

func sortByFrequency(list []Suggestion) {
	slices.SortFunc(list, func(a, b Suggestion) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return strings.Compare(a.Word, b.Word)
	})
}
