package scene

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/bastiangx/dotlabel/pkg/animrange"
)

// Naming conventions checked by the export report.
const (
	DotPrefix      = "dot-"
	LabelPrefix    = "label-"
	MeshPrefix     = "mesh-"
	MaterialPrefix = "mat-"

	LabelMesh      = "Cube.label.mesh"
	DotMesh        = "Icosphere.dot.mesh"
	SharedMaterial = "mat-labelmat"
)

// triangle counts of a cube and a subdivision 1 icosphere
const (
	labelTriangles = 12
	dotTriangles   = 20
)

var (
	// ErrNameTaken is returned when a new label or dot name already exists.
	ErrNameTaken = errors.New("object name already in use")
	// ErrNoObject is returned when a named object is not in the scene.
	ErrNoObject = errors.New("object not found")
	// ErrNotLabel is returned when editing an object that is neither a dot
	// nor a label.
	ErrNotLabel = errors.New("object is not a dot or label")
)

var selectionNumber = regexp.MustCompile(`dot\.(\d+)`)

// IsDot reports whether the object is a dot.
func (o *Object) IsDot() bool { return strings.HasPrefix(o.Name, DotPrefix) }

// IsLabel reports whether the object is a label.
func (o *Object) IsLabel() bool { return strings.HasPrefix(o.Name, LabelPrefix) }

// LabelNumber returns the numeric suffix of a dot or label name.
// "label-007" gives 7.
func LabelNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, DotPrefix) && !strings.HasPrefix(name, LabelPrefix) {
		return 0, false
	}
	parts := strings.Split(name, "-")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextLabelNumber is one more than the highest dot or label suffix, so 1
// for a scene without labels.
func NextLabelNumber(objects []*Object) int {
	highest := 0
	for _, obj := range objects {
		if n, ok := LabelNumber(obj.Name); ok {
			highest = max(highest, n)
		}
	}
	return highest + 1
}

// PairNames returns the label and dot names for n, zero padded to three digits.
func PairNames(n int) (label, dot string) {
	return pairNamesFor(strconv.Itoa(n))
}

func pairNamesFor(digits string) (label, dot string) {
	padded := zeroPad(digits, 3)
	return LabelPrefix + padded, DotPrefix + padded
}

func zeroPad(digits string, width int) string {
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

// NumberFromSelection reads the "dot.NN" number from an imported object name
// such as "Sphere.dot.12", zero padded to three digits.
func NumberFromSelection(name string) (string, bool) {
	m := selectionNumber.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return zeroPad(m[1], 3), true
}

// PairOptions configures CreatePair. Empty names are derived.
type PairOptions struct {
	LabelName   string
	DotName     string
	LabelMesh   string
	DotMesh     string
	Description string
	AnimData    string
	// Selected is the object the pair replaces, if any
	Selected string
}

// CreatePair adds a label and dot object to the scene.
//
// Missing names come from the "dot.NN" number of the selected object, or
// the next free label number. The selected object is removed, since the
// pair takes its place. Label data is attached only when a description or
// range was given.
func CreatePair(sc *Scene, opts PairOptions) (label, dot *Object, err error) {
	labelName, dotName := opts.LabelName, opts.DotName
	if labelName == "" || dotName == "" {
		var derivedLabel, derivedDot string
		if digits, ok := NumberFromSelection(opts.Selected); ok {
			derivedLabel, derivedDot = pairNamesFor(digits)
		} else {
			derivedLabel, derivedDot = PairNames(NextLabelNumber(sc.Objects))
		}
		labelName = cmp.Or(labelName, derivedLabel)
		dotName = cmp.Or(dotName, derivedDot)
	}

	for _, name := range []string{labelName, dotName} {
		if name != opts.Selected && sc.Object(name) != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
		}
	}
	if opts.Selected != "" {
		sc.Remove(opts.Selected)
	}

	var data *LabelData
	if opts.Description != "" || opts.AnimData != "" {
		data = &LabelData{Description: opts.Description, AnimData: opts.AnimData}
	}
	label = &Object{
		Name:      labelName,
		Type:      TypeMesh,
		Mesh:      cmp.Or(opts.LabelMesh, LabelMesh),
		Materials: []string{SharedMaterial},
		Triangles: labelTriangles,
		Label:     data,
	}
	dot = &Object{
		Name:      dotName,
		Type:      TypeMesh,
		Mesh:      cmp.Or(opts.DotMesh, DotMesh),
		Materials: []string{SharedMaterial},
		Triangles: dotTriangles,
	}
	if data != nil {
		copied := *data
		dot.Label = &copied
	}
	sc.Objects = append(sc.Objects, label, dot)
	return label, dot, nil
}

// EditLabel replaces the label data of a dot or label object. mesh renames
// the object's mesh data and is ignored when empty or when the object has
// no mesh.
func EditLabel(sc *Scene, name, description, animData, mesh string) (*Object, error) {
	obj := sc.Object(name)
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoObject, name)
	}
	if !obj.IsDot() && !obj.IsLabel() {
		return nil, fmt.Errorf("%w: %s", ErrNotLabel, name)
	}
	obj.Label = &LabelData{Description: description, AnimData: animData}
	if mesh != "" && obj.Mesh != "" {
		obj.Mesh = mesh
	}
	return obj, nil
}

// Group is a dot and label sharing a numeric suffix. Either may be nil.
type Group struct {
	Number string
	Dot    *Object
	Label  *Object
}

// Groups pairs dots with labels by suffix, ordered by number.
// Names whose suffix is not all digits are skipped.
func Groups(objects []*Object) []Group {
	byNum := make(map[string]*Group)
	for _, obj := range objects {
		if !obj.IsDot() && !obj.IsLabel() {
			continue
		}
		parts := strings.Split(obj.Name, "-")
		num := parts[len(parts)-1]
		if !utils.IsOnlyNumbers(num) {
			continue
		}
		g, ok := byNum[num]
		if !ok {
			g = &Group{Number: num}
			byNum[num] = g
		}
		if obj.IsDot() {
			g.Dot = obj
		} else {
			g.Label = obj
		}
	}

	keys := slices.SortedFunc(maps.Keys(byNum), func(a, b string) int {
		na, _ := strconv.Atoi(a)
		nb, _ := strconv.Atoi(b)
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byNum[k])
	}
	return out
}

// ShiftAnimation moves the range of every dot and label by offset frames.
// Ranges that do not parse are left as they are. Returns the names of the
// objects that changed.
func ShiftAnimation(sc *Scene, offset int) []string {
	var shifted []string
	for _, obj := range sc.Objects {
		if (!obj.IsDot() && !obj.IsLabel()) || obj.Label == nil {
			continue
		}
		next, ok := animrange.ShiftString(obj.Label.AnimData, offset)
		if !ok {
			continue
		}
		obj.Label.AnimData = next
		shifted = append(shifted, obj.Name)
	}
	return shifted
}

// Descriptions collects the text worth learning from: every label data
// description plus string custom properties of dots and labels, including
// strings one level down in map properties.
func Descriptions(sc *Scene) []string {
	var out []string
	for _, obj := range sc.Objects {
		if !obj.IsDot() && !obj.IsLabel() {
			continue
		}
		if obj.Label != nil && obj.Label.Description != "" {
			out = append(out, obj.Label.Description)
		}
		for _, key := range slices.Sorted(maps.Keys(obj.Props)) {
			switch v := obj.Props[key].(type) {
			case string:
				out = append(out, v)
			case map[string]any:
				for _, inner := range slices.Sorted(maps.Keys(v)) {
					if s, ok := v[inner].(string); ok {
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}
