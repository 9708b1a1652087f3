/*
Package report turns a scene snapshot into the label exports: a JSON list of
label entries for the web viewer and an HTML page reviewing labels, GLB
metadata, animation and naming.
*/
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/scene"
	mapset "github.com/deckarep/golang-set/v2"
)

// ErrNoScenePath is returned by Export when the scene was never saved.
var ErrNoScenePath = errors.New("scene has no file path, save it first")

const (
	htmlSuffix = "_dot_labels.html"
	jsonSuffix = "_dot_labels.json"

	timestampLayout = "2006-01-02 15:04:05"
	bytesPerMB      = 1024 * 1024
)

//go:embed templates/report.html
var reportHTML string

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"join":   strings.Join,
	"frames": joinInts,
	"mb":     func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"commas": utils.FormatWithCommas,
}).Parse(reportHTML))

// Options for building and exporting.
type Options struct {
	Lang           string
	Default        animrange.Range
	TriangleLimit  int
	GLBSizeLimitMB float64
	Title          string
	Version        string
	Author         string
	// Now stamps the report; time.Now when nil
	Now func() time.Time
}

// DefaultOptions mirrors the stock export settings.
func DefaultOptions() Options {
	return Options{
		Lang:           "en",
		Default:        animrange.Default,
		TriangleLimit:  100000,
		GLBSizeLimitMB: 20,
		Title:          "dotlabel",
	}
}

// Text is one translation of a label.
type Text struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Frame is the range in viewer terms.
type Frame struct {
	First  int `json:"first_value"`
	Second int `json:"second_value"`
}

// Animation wraps Frame.
type Animation struct {
	Frame Frame `json:"frame"`
}

// Entry is one label of the JSON export.
type Entry struct {
	Text        []Text    `json:"text"`
	IsAnimation bool      `json:"isAnimation"`
	Animation   Animation `json:"animation"`
}

// Entries lists every label that carries label data, in group order.
// Labels with a missing or unparsable range get opts.Default.
func Entries(sc *scene.Scene, opts Options) []Entry {
	entries := []Entry{}
	for _, g := range scene.Groups(sc.Objects) {
		if g.Label == nil || g.Label.Label == nil {
			continue
		}
		data := g.Label.Label
		r := animrange.ParseOr(data.AnimData, opts.Default)
		entries = append(entries, Entry{
			Text:        []Text{{Text: data.Description, Lang: opts.Lang}},
			IsAnimation: true,
			Animation:   Animation{Frame: Frame{First: r.Start, Second: r.End}},
		})
	}
	return entries
}

// Status is a check result shown in the report.
type Status struct {
	OK   bool
	Text string
}

func status(ok bool, bad string) Status {
	if ok {
		return Status{OK: true, Text: "OK"}
	}
	return Status{Text: bad}
}

// LabelView is the label half of a group.
type LabelView struct {
	Name        string
	Mesh        string
	Description string
	AnimData    string
}

// DotView is the dot half of a group.
type DotView struct {
	Name      string
	Keyframes []int
}

// GroupView is one row of the Labels tab.
type GroupView struct {
	Number string
	Label  *LabelView
	Dot    *DotView
}

// AnimatedObject summarizes one animated object.
type AnimatedObject struct {
	Name      string
	Types     []string
	Keyframes []int
	Range     animrange.Range
}

// Report is everything the HTML page shows.
type Report struct {
	Title     string
	Version   string
	Author    string
	Generated string

	Groups []GroupView

	TotalTriangles int
	ObjectNames    []string
	MaterialNames  []string
	GLBSizeMB      float64

	TriangleStatus       Status
	GLBStatus            Status
	NamingStatus         Status
	MaterialNamingStatus Status

	AnimatedCount int
	TotalActions  int
	FrameStart    int
	FrameEnd      int
	Animations    []AnimatedObject
}

// Build gathers the report model. glbSize is the exported GLB size in bytes,
// 0 when there is none yet.
func Build(sc *scene.Scene, glbSize int64, opts Options) *Report {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	r := &Report{
		Title:      opts.Title,
		Version:    opts.Version,
		Author:     opts.Author,
		Generated:  now().Format(timestampLayout),
		GLBSizeMB:  float64(glbSize) / bytesPerMB,
		FrameStart: sc.FrameStart,
		FrameEnd:   sc.FrameEnd,
	}

	for _, g := range scene.Groups(sc.Objects) {
		view := GroupView{Number: g.Number}
		if g.Label != nil {
			lv := &LabelView{Name: g.Label.Name, Mesh: g.Label.Mesh}
			if g.Label.Label != nil {
				lv.Description = g.Label.Label.Description
				lv.AnimData = g.Label.Label.AnimData
			}
			view.Label = lv
		}
		if g.Dot != nil {
			view.Dot = &DotView{Name: g.Dot.Name, Keyframes: g.Dot.ScaleKeyframes()}
		}
		r.Groups = append(r.Groups, view)
	}

	materials := mapset.NewThreadUnsafeSet[string]()
	namesOK, materialsOK := true, true
	for _, obj := range sc.Objects {
		if obj.IsMesh() {
			r.TotalTriangles += obj.Triangles
			r.ObjectNames = append(r.ObjectNames, obj.Name)
			if !hasAnyPrefix(obj.Name, scene.DotPrefix, scene.LabelPrefix, scene.MeshPrefix) {
				namesOK = false
			}
			for _, m := range obj.Materials {
				materials.Add(m)
				if !strings.HasPrefix(m, scene.MaterialPrefix) {
					materialsOK = false
				}
			}
		}
		if obj.Animated() {
			r.AnimatedCount++
			r.TotalActions++
			frames := obj.Keyframes()
			if span, ok := animrange.FromFrames(frames); ok {
				r.Animations = append(r.Animations, AnimatedObject{
					Name:      obj.Name,
					Types:     obj.AnimTypes(),
					Keyframes: frames,
					Range:     span,
				})
			}
		}
	}
	slices.Sort(r.ObjectNames)
	r.MaterialNames = materials.ToSlice()
	slices.Sort(r.MaterialNames)

	r.TriangleStatus = status(r.TotalTriangles < opts.TriangleLimit, "HIGH")
	r.GLBStatus = status(r.GLBSizeMB <= opts.GLBSizeLimitMB, "LARGE")
	r.NamingStatus = status(namesOK, "Needs Review")
	r.MaterialNamingStatus = status(materialsOK, "Needs Review")
	return r
}

// WriteJSON writes entries indented by four spaces, non-ASCII kept as is.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(entries)
}

// WriteHTML renders the report page.
func WriteHTML(w io.Writer, r *Report) error {
	return reportTmpl.Execute(w, r)
}

// Paths returns the HTML and JSON export paths for a scene file:
// "/work/rocket.blend" gives "/work/rocket_dot_labels.html" and ".json".
func Paths(sceneFile string) (htmlPath, jsonPath string) {
	base := strings.TrimSuffix(sceneFile, filepath.Ext(sceneFile))
	return base + htmlSuffix, base + jsonSuffix
}

// Result names the files Export wrote.
type Result struct {
	HTMLPath string `json:"html" msgpack:"html"`
	JSONPath string `json:"json" msgpack:"json"`
	Entries  int    `json:"entries" msgpack:"entries"`
}

// Export writes both exports next to the scene file.
func Export(sc *scene.Scene, opts Options) (*Result, error) {
	if sc.File == "" {
		return nil, ErrNoScenePath
	}
	htmlPath, jsonPath := Paths(sc.File)

	var glbSize int64
	if info, err := os.Stat(GLBPath(sc.File)); err == nil {
		glbSize = info.Size()
	}

	var page bytes.Buffer
	if err := WriteHTML(&page, Build(sc, glbSize, opts)); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	if err := utils.WriteFileAtomic(htmlPath, page.Bytes(), 0644); err != nil {
		return nil, err
	}

	entries := Entries(sc, opts)
	var doc bytes.Buffer
	if err := WriteJSON(&doc, entries); err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	if err := utils.WriteFileAtomic(jsonPath, doc.Bytes(), 0644); err != nil {
		return nil, err
	}
	return &Result{HTMLPath: htmlPath, JSONPath: jsonPath, Entries: len(entries)}, nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
