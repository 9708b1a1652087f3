package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOptions() Options {
	opts := DefaultOptions()
	opts.Version = "1.2.0"
	opts.Author = "Studio"
	opts.Now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	return opts
}

func testScene(file string) *scene.Scene {
	return &scene.Scene{
		File:       file,
		FrameStart: 1,
		FrameEnd:   250,
		Objects: []*scene.Object{
			{Name: "label-002", Type: scene.TypeMesh, Mesh: scene.LabelMesh, Triangles: 12,
				Materials: []string{"mat-labelmat"},
				Label:     &scene.LabelData{Description: "heat <shield>", AnimData: "bad"}},
			{Name: "label-001", Type: scene.TypeMesh, Mesh: scene.LabelMesh, Triangles: 12,
				Materials: []string{"mat-labelmat"},
				Label:     &scene.LabelData{Description: "Ångström panel", AnimData: "10-90"}},
			{Name: "dot-001", Type: scene.TypeMesh, Triangles: 20, Materials: []string{"mat-labelmat"},
				Animation: &scene.Animation{Action: "pop", Channels: []scene.Channel{
					{Path: "scale", Frames: []int{10, 20}},
					{Path: "location", Frames: []int{0}},
				}}},
			{Name: "label-003", Type: scene.TypeMesh, Triangles: 12},
			{Name: "Rocket", Type: scene.TypeMesh, Triangles: 120000, Materials: []string{"Steel", "mat-labelmat"}},
			{Name: "Camera", Type: "CAMERA"},
		},
	}
}

func TestEntries(t *testing.T) {
	entries := Entries(testScene(""), DefaultOptions())
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{
		Text:        []Text{{Text: "Ångström panel", Lang: "en"}},
		IsAnimation: true,
		Animation:   Animation{Frame: Frame{First: 10, Second: 90}},
	}, entries[0])
	// invalid range falls back to the default
	assert.Equal(t, Frame{First: 32, Second: 160}, entries[1].Animation.Frame)

	assert.Equal(t, []Entry{}, Entries(&scene.Scene{}, DefaultOptions()))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{{
		Text:        []Text{{Text: "Ångström <panel>", Lang: "en"}},
		IsAnimation: true,
		Animation:   Animation{Frame: Frame{First: 32, Second: 160}},
	}}
	require.NoError(t, WriteJSON(&buf, entries))

	want := `[
    {
        "text": [
            {
                "text": "Ångström <panel>",
                "lang": "en"
            }
        ],
        "isAnimation": true,
        "animation": {
            "frame": {
                "first_value": 32,
                "second_value": 160
            }
        }
    }
]
`
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, []Entry{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestBuild(t *testing.T) {
	r := Build(testScene(""), 25*bytesPerMB, fixedOptions())

	assert.Equal(t, "2025-03-04 05:06:07", r.Generated)
	assert.Equal(t, 120056, r.TotalTriangles)
	assert.Equal(t, []string{"Rocket", "dot-001", "label-001", "label-002", "label-003"}, r.ObjectNames)
	assert.Equal(t, []string{"Steel", "mat-labelmat"}, r.MaterialNames)
	assert.Equal(t, Status{Text: "HIGH"}, r.TriangleStatus)
	assert.Equal(t, Status{Text: "LARGE"}, r.GLBStatus)
	assert.Equal(t, Status{Text: "Needs Review"}, r.NamingStatus)
	assert.Equal(t, Status{Text: "Needs Review"}, r.MaterialNamingStatus)
	assert.InDelta(t, 25.0, r.GLBSizeMB, 1e-9)

	require.Len(t, r.Groups, 3)
	assert.Equal(t, "001", r.Groups[0].Number)
	assert.Equal(t, []int{10, 20}, r.Groups[0].Dot.Keyframes)
	assert.Equal(t, "10-90", r.Groups[0].Label.AnimData)
	assert.Nil(t, r.Groups[1].Dot)

	assert.Equal(t, 1, r.AnimatedCount)
	require.Len(t, r.Animations, 1)
	assert.Equal(t, AnimatedObject{
		Name:      "dot-001",
		Types:     []string{"location", "scale"},
		Keyframes: []int{0, 10, 20},
		Range:     animrange.Range{Start: 0, End: 20},
	}, r.Animations[0])
}

func TestBuildAllOK(t *testing.T) {
	sc := &scene.Scene{Objects: []*scene.Object{
		{Name: "label-001", Type: scene.TypeMesh, Triangles: 12, Materials: []string{"mat-labelmat"}},
		{Name: "mesh-rocket", Type: scene.TypeMesh, Triangles: 99988, Materials: []string{"mat-steel"}},
	}}
	r := Build(sc, 20*bytesPerMB, fixedOptions())
	assert.True(t, r.NamingStatus.OK)
	assert.True(t, r.MaterialNamingStatus.OK)
	// 100000 is the first count flagged
	assert.False(t, r.TriangleStatus.OK)
	assert.True(t, r.GLBStatus.OK)

	sc.Objects[1].Triangles--
	assert.True(t, Build(sc, 0, fixedOptions()).TriangleStatus.OK)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, Build(testScene(""), 0, fixedOptions())))
	page := buf.String()

	for _, want := range []string{
		"Labels Information", "GLB Metadata", "Animation Details", "Reports",
		"Label Group 001", "Label: label-001", "Dot: dot-001",
		"Keyframes at frames: 10, 20",
		"heat &lt;shield&gt;",
		"Total Triangles: 120,056 (HIGH)",
		"0.00 MB (OK)",
		"Object Naming: Needs Review",
		"Generated on: 2025-03-04 05:06:07",
		"Concept Designer: Studio",
		"No animation data",
		"Scene Frame Range: 1 - 250",
	} {
		assert.Contains(t, page, want)
	}
	assert.NotContains(t, page, "<shield>")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rocket.blend")
	require.NoError(t, os.WriteFile(GLBPath(file), make([]byte, 1024), 0644))

	res, err := Export(testScene(file), fixedOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rocket_dot_labels.html"), res.HTMLPath)
	assert.Equal(t, filepath.Join(dir, "rocket_dot_labels.json"), res.JSONPath)
	assert.Equal(t, 2, res.Entries)

	raw, err := os.ReadFile(res.JSONPath)
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 2)

	page, err := os.ReadFile(res.HTMLPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(page), "GLB File Size: 0.00 MB (OK)"))

	_, err = Export(testScene(""), fixedOptions())
	assert.ErrorIs(t, err, ErrNoScenePath)
}

func TestPaths(t *testing.T) {
	h, j := Paths("/work/rocket.v2.blend")
	assert.Equal(t, "/work/rocket.v2_dot_labels.html", h)
	assert.Equal(t, "/work/rocket.v2_dot_labels.json", j)
	assert.Equal(t, "/work/rocket.glb", GLBPath("/work/rocket.blend"))
}
