/*
Package server implements msgpack IPC between the editor add-on and dotlabel.

The add-on spawns dotlabel and talks to it over stdin/stdout. Every request
is a msgpack map with an id and an action; every request gets exactly one
response carrying the same id. Logs go to stderr only.

# IPC

On start the server writes a single status message:

	{"status": "ready"}

Spell checking a description as it is typed:

	{"id": "r1", "action": "check", "text": "deplyo solar pannel"}
	{"id": "r1", "s": [{"word": "deplyo", "suggestions": ["deploy"]}], "c": 1, "t": 210}

Completing a word, ranked by how often it was used:

	{"id": "r2", "action": "complete", "p": "sol", "l": 5}
	{"id": "r2", "s": [{"w": "solar", "r": 1, "f": 12}], "c": 1, "t": 35}

A prefix with no completions can fall back to similar words:

	{"id": "r2", "action": "complete", "p": "solr", "fuzzy": true}
	{"id": "r2", "s": [{"w": "solar", "r": 1, "f": 12}], "c": 1, "t": 60, "fuzzy": true}

Learning from a confirmed description, which is persisted right away:

	{"id": "r3", "action": "learn", "text": "solar panel deploy"}

Frame ranges use the "start-end" text the add-on stores on labels:

	{"id": "r4", "action": "shift_range", "range": "32-160", "offset": 10}
	{"id": "r4", "valid": true, "range": {"start": 42, "end": 170}, "text": "42-170"}

Scene actions take the path of a scene snapshot dumped by the add-on, edit
it in place and report what changed:

	{"id": "r5", "action": "export", "scene": "/work/rocket.scene.json"}
	{"id": "r6", "action": "sync_markers", "scene": "/work/rocket.scene.json"}
	{"id": "r6", "action": "edit_properties", "scene": "/work/rocket.scene.json",
	 "label_name": "label-003", "description": "fuel tank", "range": "10-90", "mesh": "mesh-fuel-tank"}

Suggestion settings are changed at runtime and written back to the config:

	{"id": "r8", "action": "set_options", "threshold": 0.7, "max_suggestions": 5, "metric": "jaro-winkler"}

Failures of any action are reported as

	{"id": "r7", "e": "unknown action: nope", "c": 400}

# Actions

check, similar, learn, add_word, complete, parse_range, shift_range, stats,
reload, save, export, shift_animation, build_markers, sync_markers,
marker_ranges, create_pair, edit_properties, glb_preset, set_options.

The server reloads its TOML config every reload_every requests and, with
dict.watch set, reloads the dictionary when another process rewrites it.
*/
package server

import (
	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/report"
	"github.com/bastiangx/dotlabel/pkg/scene"
	"github.com/bastiangx/dotlabel/pkg/suggest"
)

// Actions understood by the server.
const (
	ActionCheck          = "check"
	ActionSimilar        = "similar"
	ActionLearn          = "learn"
	ActionAddWord        = "add_word"
	ActionComplete       = "complete"
	ActionParseRange     = "parse_range"
	ActionShiftRange     = "shift_range"
	ActionStats          = "stats"
	ActionReload         = "reload"
	ActionSave           = "save"
	ActionExport         = "export"
	ActionShiftAnimation = "shift_animation"
	ActionBuildMarkers   = "build_markers"
	ActionSyncMarkers    = "sync_markers"
	ActionMarkerRanges   = "marker_ranges"
	ActionCreatePair     = "create_pair"
	ActionEditProperties = "edit_properties"
	ActionGLBPreset      = "glb_preset"
	ActionSetOptions     = "set_options"
)

// Request is the union of all request fields. Unused fields are omitted by
// clients.
type Request struct {
	ID        string   `msgpack:"id"`
	Action    string   `msgpack:"action"`
	Text      string   `msgpack:"text,omitempty"`
	Word      string   `msgpack:"word,omitempty"`
	Prefix    string   `msgpack:"p,omitempty"`
	Limit     int      `msgpack:"l,omitempty"`
	Threshold *float64 `msgpack:"threshold,omitempty"`
	Range     string   `msgpack:"range,omitempty"`
	Offset    int      `msgpack:"offset,omitempty"`
	Scene     string   `msgpack:"scene,omitempty"`
	Selected  []string `msgpack:"selected,omitempty"`
	Frame     *int     `msgpack:"frame,omitempty"`
	Fuzzy     bool     `msgpack:"fuzzy,omitempty"`
	// create_pair, edit_properties
	Description string `msgpack:"description,omitempty"`
	LabelName   string `msgpack:"label_name,omitempty"`
	DotName     string `msgpack:"dot_name,omitempty"`
	Mesh        string `msgpack:"mesh,omitempty"`
	// set_options
	MaxSuggestions *int   `msgpack:"max_suggestions,omitempty"`
	Metric         string `msgpack:"metric,omitempty"`
}

// CheckResponse lists the flagged tokens of a description.
type CheckResponse struct {
	ID          string               `msgpack:"id"`
	Corrections []suggest.Correction `msgpack:"s"`
	Count       int                  `msgpack:"c"`
	TimeTaken   int64                `msgpack:"t"`
}

// SimilarResponse lists every known word above the threshold.
type SimilarResponse struct {
	ID          string               `msgpack:"id"`
	Suggestions []suggest.Suggestion `msgpack:"s"`
	Count       int                  `msgpack:"c"`
	TimeTaken   int64                `msgpack:"t"`
}

// CompletionSuggestion is one ranked completion. Rank 1 is the most used.
type CompletionSuggestion struct {
	Word      string `msgpack:"w"`
	Rank      uint16 `msgpack:"r"`
	Frequency int    `msgpack:"f"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
	// Fuzzy is set when the suggestions are similar words, not completions
	Fuzzy bool `msgpack:"fuzzy,omitempty"`
}

// LearnResponse reports the tokens that were counted.
type LearnResponse struct {
	ID     string   `msgpack:"id"`
	Status string   `msgpack:"status"`
	Tokens []string `msgpack:"tokens"`
	// Error is set when the counts were applied but could not be saved
	Error string `msgpack:"error,omitempty"`
}

// RangeResponse is the result of parse_range and shift_range. Invalid input
// comes back unchanged in Text with Valid false.
type RangeResponse struct {
	ID    string          `msgpack:"id"`
	Valid bool            `msgpack:"valid"`
	Range animrange.Range `msgpack:"range"`
	Text  string          `msgpack:"text"`
}

// OptionsResponse echoes the suggestion settings now in effect.
type OptionsResponse struct {
	ID             string  `msgpack:"id"`
	Status         string  `msgpack:"status"`
	Threshold      float64 `msgpack:"threshold"`
	MaxSuggestions int     `msgpack:"max_suggestions"`
	Metric         string  `msgpack:"metric"`
	Saved          bool    `msgpack:"saved"`
}

// StatsResponse - vocabulary stats
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"stats"`
}

// StatusResponse - generic ack
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Words  int    `msgpack:"words,omitempty"`
}

// ExportResponse names the written export files.
type ExportResponse struct {
	ID      string         `msgpack:"id"`
	Status  string         `msgpack:"status"`
	Result  *report.Result `msgpack:"result"`
	Learned int            `msgpack:"learned"`
}

// SceneResponse reports which objects a scene action changed.
type SceneResponse struct {
	ID      string          `msgpack:"id"`
	Status  string          `msgpack:"status"`
	Changed []string        `msgpack:"changed"`
	Skipped []string        `msgpack:"skipped,omitempty"`
	Markers []*scene.Marker `msgpack:"markers,omitempty"`
}

// MarkerRangesResponse offers candidate ranges from timeline markers.
type MarkerRangesResponse struct {
	ID     string              `msgpack:"id"`
	Ranges []scene.MarkerRange `msgpack:"ranges"`
	Last   *scene.MarkerRange  `msgpack:"last,omitempty"`
}

// PairResponse names the created label and dot.
type PairResponse struct {
	ID    string `msgpack:"id"`
	Label string `msgpack:"label"`
	Dot   string `msgpack:"dot"`
}

// GLBPresetResponse carries the exporter options.
type GLBPresetResponse struct {
	ID      string         `msgpack:"id"`
	Options map[string]any `msgpack:"options"`
}

// ErrorResponse holds basic error information for any failed request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
