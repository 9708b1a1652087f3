/*
Package scene is a host independent model of the editor scene that dotlabel
works on: the dot/label objects, their custom label data, animation channels
and timeline markers.

The editor add-on dumps its scene as JSON:

	{
	  "file": "/work/rocket.blend",
	  "frame_start": 1, "frame_end": 250, "frame_current": 40,
	  "selected": ["label-001"],
	  "objects": [
	    {"name": "label-001", "type": "MESH", "mesh": "Cube.label.mesh",
	     "materials": ["mat-labelmat"], "triangles": 12,
	     "dot_label_data": {"description": "solar panel", "animdata": "32-160"}}
	  ],
	  "markers": [{"name": "label-001_solar_panel_start", "frame": 32, "dot_label_name": "label-001"}]
	}

Operations edit the model in place; the caller saves it back and the add-on
applies the result.
*/
package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/bastiangx/dotlabel/pkg/animrange"
	mapset "github.com/deckarep/golang-set/v2"
)

// TypeMesh is the object type that carries geometry.
const TypeMesh = "MESH"

// ScaleChannel is the animation path used for dot pop-in keyframes.
const ScaleChannel = "scale"

// LabelData is the custom property stored on dot and label objects.
type LabelData struct {
	Description string `json:"description"`
	AnimData    string `json:"animdata"`
}

// Channel is one animated property and the frames it has keys on.
type Channel struct {
	Path   string `json:"path"`
	Frames []int  `json:"frames"`
}

// Animation is the active action of an object.
type Animation struct {
	Action   string    `json:"action"`
	Channels []Channel `json:"channels"`
}

// Object is a scene object as seen by the add-on.
type Object struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Mesh      string     `json:"mesh,omitempty"`
	Materials []string   `json:"materials,omitempty"`
	Triangles int        `json:"triangles,omitempty"`
	Animation *Animation `json:"animation,omitempty"`
	Label     *LabelData `json:"dot_label_data,omitempty"`
	// Props holds any other custom properties
	Props map[string]any `json:"props,omitempty"`
}

// Marker is a timeline marker. LabelName is set on markers dotlabel created.
type Marker struct {
	Name      string `json:"name"`
	Frame     int    `json:"frame"`
	LabelName string `json:"dot_label_name,omitempty"`
}

// Scene is the whole snapshot.
type Scene struct {
	File         string    `json:"file"`
	FrameStart   int       `json:"frame_start"`
	FrameEnd     int       `json:"frame_end"`
	FrameCurrent int       `json:"frame_current"`
	Selected     []string  `json:"selected,omitempty"`
	Objects      []*Object `json:"objects"`
	Markers      []*Marker `json:"markers,omitempty"`
}

// Load reads a scene snapshot.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	var sc Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return &sc, nil
}

// Save writes the scene back, replacing path atomically.
func (sc *Scene) Save(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Object finds an object by name.
func (sc *Scene) Object(name string) *Object {
	for _, obj := range sc.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// Remove drops the named object and reports whether it existed.
func (sc *Scene) Remove(name string) bool {
	n := len(sc.Objects)
	sc.Objects = slices.DeleteFunc(sc.Objects, func(o *Object) bool { return o.Name == name })
	return len(sc.Objects) != n
}

// SelectedObjects resolves Selected, skipping names that are gone.
func (sc *Scene) SelectedObjects() []*Object {
	var out []*Object
	for _, name := range sc.Selected {
		if obj := sc.Object(name); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

// IsMesh reports whether the object carries geometry.
func (o *Object) IsMesh() bool { return o.Type == TypeMesh }

// Animated reports whether the object has an active action.
func (o *Object) Animated() bool { return o.Animation != nil }

// Keyframes returns the sorted distinct frames keyed on any channel.
func (o *Object) Keyframes() []int {
	return o.frames(func(Channel) bool { return true })
}

// ScaleKeyframes returns the sorted distinct frames keyed on scale.
func (o *Object) ScaleKeyframes() []int {
	return o.frames(func(c Channel) bool { return c.Path == ScaleChannel })
}

func (o *Object) frames(keep func(Channel) bool) []int {
	if o.Animation == nil {
		return nil
	}
	set := mapset.NewThreadUnsafeSet[int]()
	for _, ch := range o.Animation.Channels {
		if keep(ch) {
			set.Append(ch.Frames...)
		}
	}
	out := set.ToSlice()
	slices.Sort(out)
	return out
}

// AnimTypes returns the sorted distinct animated property paths.
func (o *Object) AnimTypes() []string {
	if o.Animation == nil {
		return nil
	}
	set := mapset.NewThreadUnsafeSet[string]()
	for _, ch := range o.Animation.Channels {
		set.Add(ch.Path)
	}
	out := set.ToSlice()
	slices.Sort(out)
	return out
}

// KeyframeRange spans the scale keyframes, which is where a dot pops in and
// out. ok is false when the object has no scale keys.
func KeyframeRange(o *Object) (animrange.Range, bool) {
	return animrange.FromFrames(o.ScaleKeyframes())
}
