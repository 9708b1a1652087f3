// Package suggest is the core: a growing word-frequency vocabulary of label
// descriptions with fuzzy spelling suggestions and prefix completion.
package suggest

// IChecker defines what the CLI and the IPC server need from a suggester.
type IChecker interface {
	// CheckDescription returns corrections for unknown words in text
	CheckDescription(text string) []Correction

	// FindSimilar returns known words scoring above threshold against word
	FindSimilar(word string, threshold float64) []Suggestion

	// Complete returns known words starting with prefix
	Complete(prefix string, limit int) []Suggestion

	// Learn counts every word of text and persists the table if configured
	Learn(text string) ([]string, error)

	// Stats returns statistics about the vocabulary
	Stats() map[string]int
}

var _ IChecker = (*Suggester)(nil)
