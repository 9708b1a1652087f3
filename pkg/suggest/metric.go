package suggest

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Metric scores two strings in [0,1], 1 meaning identical.
type Metric func(a, b string) float64

// Metric names accepted by MetricByName and the [suggest] metric config key.
const (
	MetricRatio       = "ratio"
	MetricLevenshtein = "levenshtein"
	MetricJaroWinkler = "jaro-winkler"
	MetricLCS         = "lcs"
)

// Similarity is the sequence matcher ratio of the lowercased inputs.
// Arguments are put in a fixed order first, because the block matcher
// breaks ties by position and could otherwise score a,b and b,a apart.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return ratio([]rune(a), []rune(b))
}

// edlibMetric adapts a go-edlib algorithm into a Metric.
func edlibMetric(algo edlib.Algorithm) Metric {
	return func(a, b string) float64 {
		a, b = strings.ToLower(a), strings.ToLower(b)
		if a == b {
			return 1
		}
		if a > b {
			a, b = b, a
		}
		score, err := edlib.StringsSimilarity(a, b, algo)
		if err != nil {
			return 0
		}
		return float64(score)
	}
}

// MetricByName returns the metric registered under name.
// An empty name selects the ratio metric.
func MetricByName(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MetricRatio:
		return Similarity, nil
	case MetricLevenshtein:
		return edlibMetric(edlib.Levenshtein), nil
	case MetricJaroWinkler:
		return edlibMetric(edlib.JaroWinkler), nil
	case MetricLCS:
		return edlibMetric(edlib.Lcs), nil
	}
	return nil, fmt.Errorf("unknown similarity metric %q", name)
}
