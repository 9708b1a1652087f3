package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelObj(name, desc, anim string) *Object {
	return &Object{Name: name, Type: TypeMesh, Label: &LabelData{Description: desc, AnimData: anim}}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	raw := `{
  "file": "/work/rocket.blend",
  "frame_start": 1, "frame_end": 250, "frame_current": 40,
  "selected": ["label-001"],
  "objects": [
    {"name": "label-001", "type": "MESH", "mesh": "Cube.label.mesh", "triangles": 12,
     "dot_label_data": {"description": "solar panel", "animdata": "32-160"},
     "props": {"note": "deploys <early>"}},
    {"name": "dot-001", "type": "MESH",
     "animation": {"action": "pop", "channels": [{"path": "scale", "frames": [40, 10, 40]}, {"path": "location", "frames": [5]}]}}
  ],
  "markers": [{"name": "F_01", "frame": 12}]
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/work/rocket.blend", sc.File)
	require.Len(t, sc.Objects, 2)
	assert.Equal(t, "solar panel", sc.Objects[0].Label.Description)
	assert.Equal(t, []int{5, 10, 40}, sc.Objects[1].Keyframes())
	assert.Equal(t, []int{10, 40}, sc.Objects[1].ScaleKeyframes())
	assert.Equal(t, []string{"location", "scale"}, sc.Objects[1].AnimTypes())
	assert.Equal(t, []*Object{sc.Objects[0]}, sc.SelectedObjects())

	require.NoError(t, sc.Save(path))
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sc, again)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "<early>")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestKeyframeRange(t *testing.T) {
	obj := &Object{Name: "dot-001", Animation: &Animation{Channels: []Channel{
		{Path: "scale", Frames: []int{48, 32, 160}},
		{Path: "location", Frames: []int{0, 400}},
	}}}
	r, ok := KeyframeRange(obj)
	require.True(t, ok)
	assert.Equal(t, animrange.Range{Start: 32, End: 160}, r)

	_, ok = KeyframeRange(&Object{Name: "dot-002"})
	assert.False(t, ok)
	assert.Nil(t, (&Object{}).AnimTypes())
}

func TestLabelNumber(t *testing.T) {
	testCases := []struct {
		name string
		want int
		ok   bool
	}{
		{"label-007", 7, true},
		{"dot-12", 12, true},
		{"dot-abc", 0, false},
		{"mesh-003", 0, false},
		{"Cube", 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := LabelNumber(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestNextLabelNumberAndNames(t *testing.T) {
	assert.Equal(t, 1, NextLabelNumber(nil))

	objects := []*Object{{Name: "label-003"}, {Name: "dot-010"}, {Name: "dot-x"}, {Name: "Cube"}}
	assert.Equal(t, 11, NextLabelNumber(objects))

	l, d := PairNames(11)
	assert.Equal(t, "label-011", l)
	assert.Equal(t, "dot-011", d)
	l, _ = PairNames(1234)
	assert.Equal(t, "label-1234", l)
}

func TestNumberFromSelection(t *testing.T) {
	n, ok := NumberFromSelection("Sphere.dot.7")
	require.True(t, ok)
	assert.Equal(t, "007", n)

	_, ok = NumberFromSelection("Sphere.001")
	assert.False(t, ok)
}

func TestCreatePair(t *testing.T) {
	sc := &Scene{Objects: []*Object{{Name: "label-002"}, {Name: "dot-002"}}}

	label, dot, err := CreatePair(sc, PairOptions{Description: "heat shield", AnimData: "10-90"})
	require.NoError(t, err)
	assert.Equal(t, "label-003", label.Name)
	assert.Equal(t, "dot-003", dot.Name)
	assert.Equal(t, LabelMesh, label.Mesh)
	assert.Equal(t, DotMesh, dot.Mesh)
	assert.Equal(t, []string{SharedMaterial}, dot.Materials)
	assert.Equal(t, "10-90", dot.Label.AnimData)
	assert.NotSame(t, label.Label, dot.Label)
	assert.Len(t, sc.Objects, 4)

	// no label data without description or range
	label, dot, err = CreatePair(sc, PairOptions{})
	require.NoError(t, err)
	assert.Nil(t, label.Label)
	assert.Nil(t, dot.Label)
}

func TestCreatePairFromSelection(t *testing.T) {
	sc := &Scene{Objects: []*Object{{Name: "Empty.dot.12"}, {Name: "label-040"}}}

	label, dot, err := CreatePair(sc, PairOptions{Selected: "Empty.dot.12"})
	require.NoError(t, err)
	assert.Equal(t, "label-012", label.Name)
	assert.Equal(t, "dot-012", dot.Name)
	assert.Nil(t, sc.Object("Empty.dot.12"))

	sc.Objects = append(sc.Objects, &Object{Name: "Sphere"})
	label, _, err = CreatePair(sc, PairOptions{Selected: "Sphere", DotName: "dot-custom"})
	require.NoError(t, err)
	assert.Equal(t, "label-041", label.Name)
	assert.NotNil(t, sc.Object("dot-custom"))
}

func TestCreatePairNameTaken(t *testing.T) {
	sc := &Scene{Objects: []*Object{{Name: "label-001"}}}
	_, _, err := CreatePair(sc, PairOptions{LabelName: "label-001", DotName: "dot-001"})
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.Len(t, sc.Objects, 1)
}

func TestEditLabel(t *testing.T) {
	sc := &Scene{Objects: []*Object{
		{Name: "label-001", Type: TypeMesh, Mesh: LabelMesh},
		labelObj("dot-001", "old", "1-2"),
		{Name: "Cube", Type: TypeMesh, Mesh: "Cube"},
	}}

	obj, err := EditLabel(sc, "label-001", "heat shield", "40-120", "mesh-heat-shield")
	require.NoError(t, err)
	assert.Same(t, sc.Objects[0], obj)
	assert.Equal(t, &LabelData{Description: "heat shield", AnimData: "40-120"}, obj.Label)
	assert.Equal(t, "mesh-heat-shield", obj.Mesh)

	// empty mesh keeps the current one, empty fields clear the data
	obj, err = EditLabel(sc, "dot-001", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, &LabelData{}, obj.Label)
	assert.Empty(t, obj.Mesh)

	_, err = EditLabel(sc, "Cube", "x", "", "")
	assert.ErrorIs(t, err, ErrNotLabel)
	assert.Nil(t, sc.Objects[2].Label)

	_, err = EditLabel(sc, "label-404", "x", "", "")
	assert.ErrorIs(t, err, ErrNoObject)
}

func TestGroups(t *testing.T) {
	objects := []*Object{
		{Name: "label-010"}, {Name: "dot-002"}, {Name: "label-002"},
		{Name: "dot-9"}, {Name: "dot-abc"}, {Name: "Cube"},
	}
	groups := Groups(objects)
	require.Len(t, groups, 3)
	assert.Equal(t, "002", groups[0].Number)
	assert.Equal(t, "dot-002", groups[0].Dot.Name)
	assert.Equal(t, "label-002", groups[0].Label.Name)
	assert.Equal(t, "9", groups[1].Number)
	assert.Nil(t, groups[1].Label)
	assert.Equal(t, "010", groups[2].Number)
	assert.Nil(t, groups[2].Dot)
}

func TestShiftAnimation(t *testing.T) {
	sc := &Scene{Objects: []*Object{
		labelObj("label-001", "a", "32-160"),
		labelObj("dot-001", "a", "32-160"),
		labelObj("label-002", "b", "abc"),
		labelObj("Cube", "", "1-2"),
		{Name: "label-003"},
	}}

	shifted := ShiftAnimation(sc, 10)
	assert.Equal(t, []string{"label-001", "dot-001"}, shifted)
	assert.Equal(t, "42-170", sc.Objects[0].Label.AnimData)
	assert.Equal(t, "42-170", sc.Objects[1].Label.AnimData)
	assert.Equal(t, "abc", sc.Objects[2].Label.AnimData)
	assert.Equal(t, "1-2", sc.Objects[3].Label.AnimData)

	ShiftAnimation(sc, -10)
	assert.Equal(t, "32-160", sc.Objects[0].Label.AnimData)
}

func TestDescriptions(t *testing.T) {
	sc := &Scene{Objects: []*Object{
		{Name: "label-001", Label: &LabelData{Description: "solar panel"}, Props: map[string]any{
			"b_note": "heat shield",
			"a_meta": map[string]any{"x": "thruster", "n": 3.0},
			"count":  2.0,
		}},
		{Name: "Cube", Label: &LabelData{Description: "ignored"}, Props: map[string]any{"note": "ignored"}},
		{Name: "dot-001", Label: &LabelData{}},
	}}
	assert.Equal(t, []string{"solar panel", "thruster", "heat shield"}, Descriptions(sc))
}
