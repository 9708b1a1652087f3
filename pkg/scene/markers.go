package scene

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bastiangx/dotlabel/pkg/animrange"
	mapset "github.com/deckarep/golang-set/v2"
)

const (
	StartSuffix = "_start"
	EndSuffix   = "_end"

	// NearbyFrames is how far from the current frame MarkerRanges looks.
	NearbyFrames = 100
	// MaxRangeSpan is the widest gap between two markers of one range.
	MaxRangeSpan = 200
)

// Generated reports whether dotlabel created the marker.
func (m *Marker) Generated() bool {
	return m.LabelName != "" && (strings.HasSuffix(m.Name, StartSuffix) || strings.HasSuffix(m.Name, EndSuffix))
}

// MarkerBaseName is the label name, followed by its description with
// spaces turned into underscores when there is one.
func MarkerBaseName(label *Object) string {
	if label.Label == nil || label.Label.Description == "" {
		return label.Name
	}
	return label.Name + "_" + strings.ReplaceAll(label.Label.Description, " ", "_")
}

// BuildMarkers replaces all generated markers with a start and end marker
// for each selected label that has a valid range. Markers placed by hand are
// kept. Returns the added markers and the selected labels that were skipped
// because their range did not parse.
func BuildMarkers(sc *Scene, selected []string) (added []*Marker, skipped []string) {
	sc.Markers = slices.DeleteFunc(sc.Markers, (*Marker).Generated)

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, name := range selected {
		if !seen.Add(name) {
			continue
		}
		obj := sc.Object(name)
		if obj == nil || !obj.IsLabel() || obj.Label == nil || obj.Label.AnimData == "" {
			continue
		}
		r, err := animrange.Parse(obj.Label.AnimData)
		if err != nil {
			skipped = append(skipped, name)
			continue
		}
		base := MarkerBaseName(obj)
		start := &Marker{Name: base + StartSuffix, Frame: r.Start, LabelName: obj.Name}
		end := &Marker{Name: base + EndSuffix, Frame: r.End, LabelName: obj.Name}
		sc.Markers = append(sc.Markers, start, end)
		added = append(added, start, end)
	}
	return added, skipped
}

// SyncMarkers writes the frames of each generated marker pair back into
// its label's range. Labels missing a marker of the pair or missing label
// data are left alone. Returns the sorted names of labels that changed.
func SyncMarkers(sc *Scene) []string {
	type pair struct{ start, end *Marker }
	pairs := make(map[string]*pair)
	for _, m := range sc.Markers {
		if !m.Generated() {
			continue
		}
		p, ok := pairs[m.LabelName]
		if !ok {
			p = &pair{}
			pairs[m.LabelName] = p
		}
		if strings.HasSuffix(m.Name, StartSuffix) {
			p.start = m
		} else {
			p.end = m
		}
	}

	var changed []string
	for name, p := range pairs {
		if p.start == nil || p.end == nil {
			continue
		}
		obj := sc.Object(name)
		if obj == nil || obj.Label == nil {
			continue
		}
		next := animrange.Range{Start: p.start.Frame, End: p.end.Frame}.String()
		if obj.Label.AnimData == next {
			continue
		}
		obj.Label.AnimData = next
		changed = append(changed, name)
	}
	slices.Sort(changed)
	return changed
}

// MarkerRange is a range read off two markers.
type MarkerRange struct {
	animrange.Range
	StartName string `json:"start_name"`
	EndName   string `json:"end_name"`
}

func sortedByFrame(markers []*Marker) []*Marker {
	out := slices.Clone(markers)
	slices.SortStableFunc(out, func(a, b *Marker) int { return cmp.Compare(a.Frame, b.Frame) })
	return out
}

// LastMarkerRange spans the last two markers on the timeline.
// ok is false with fewer than two markers.
func LastMarkerRange(markers []*Marker) (MarkerRange, bool) {
	if len(markers) < 2 {
		return MarkerRange{}, false
	}
	sorted := sortedByFrame(markers)
	a, b := sorted[len(sorted)-2], sorted[len(sorted)-1]
	return MarkerRange{
		Range:     animrange.Range{Start: a.Frame, End: b.Frame},
		StartName: a.Name,
		EndName:   b.Name,
	}, true
}

// MarkerRanges offers candidate ranges around the current frame: each pair
// of neighbouring markers within NearbyFrames of current and at most
// MaxRangeSpan frames apart.
func MarkerRanges(markers []*Marker, current int) []MarkerRange {
	var near []*Marker
	for _, m := range markers {
		if abs(m.Frame-current) <= NearbyFrames {
			near = append(near, m)
		}
	}
	near = sortedByFrame(near)

	var out []MarkerRange
	for i := 0; i+1 < len(near); i++ {
		a, b := near[i], near[i+1]
		if b.Frame-a.Frame > MaxRangeSpan {
			continue
		}
		out = append(out, MarkerRange{
			Range:     animrange.Range{Start: a.Frame, End: b.Frame},
			StartName: a.Name,
			EndName:   b.Name,
		})
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
