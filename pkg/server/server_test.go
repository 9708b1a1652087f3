package server

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/config"
	"github.com/bastiangx/dotlabel/pkg/dictionary"
	"github.com/bastiangx/dotlabel/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type harness struct {
	suggester  *suggest.Suggester
	config     *config.Config
	configPath string
	dataPath   string
}

func newHarness(t *testing.T, words ...string) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	dataPath := filepath.Join(t.TempDir(), dictionary.DefaultDataFile)
	s, err := suggest.New(SuggestOptions(cfg, dataPath))
	require.NoError(t, err)
	for _, w := range words {
		s.AddDescription(w)
	}
	return &harness{suggester: s, config: cfg, dataPath: dataPath}
}

// run feeds requests through a server and returns a decoder positioned
// after the ready message.
func (h *harness) run(t *testing.T, requests ...any) *msgpack.Decoder {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range requests {
		require.NoError(t, enc.Encode(r))
	}

	srv := NewServerWithIO(h.suggester, h.config, h.configPath, h.dataPath, "test", &in, &out)
	require.NoError(t, srv.Start())

	dec := msgpack.NewDecoder(&out)
	dec.SetCustomStructTag("json")
	var ready map[string]string
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready["status"])
	return dec
}

func decode[T any](t *testing.T, dec *msgpack.Decoder) T {
	t.Helper()
	var v T
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestServerCheck(t *testing.T) {
	h := newHarness(t, "deploy deploy deploy", "solar panel")
	dec := h.run(t,
		Request{ID: "1", Action: ActionCheck, Text: "Deplyo the solar pannel"},
		Request{ID: "2", Action: ActionCheck, Text: "deploy"},
	)

	resp := decode[CheckResponse](t, dec)
	assert.Equal(t, "1", resp.ID)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, suggest.Correction{Word: "Deplyo", Suggestions: []string{"deploy"}}, resp.Corrections[0])
	assert.Equal(t, suggest.Correction{Word: "pannel", Suggestions: []string{"panel"}}, resp.Corrections[1])

	resp = decode[CheckResponse](t, dec)
	assert.Equal(t, "2", resp.ID)
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Corrections)
}

func TestServerSimilar(t *testing.T) {
	h := newHarness(t, "deploy deploy", "deploys", "panel")
	low := 0.5
	bad := 2.0
	dec := h.run(t,
		Request{ID: "1", Action: ActionSimilar, Word: "deplyo"},
		Request{ID: "2", Action: ActionSimilar, Word: "deplyo", Threshold: &low, Limit: 1},
		Request{ID: "3", Action: ActionSimilar, Word: "deplyo", Threshold: &bad},
		Request{ID: "4", Action: ActionSimilar},
	)

	resp := decode[SimilarResponse](t, dec)
	assert.Equal(t, []suggest.Suggestion{{Word: "deploy", Frequency: 2}}, resp.Suggestions)

	resp = decode[SimilarResponse](t, dec)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "deploy", resp.Suggestions[0].Word)

	errResp := decode[ErrorResponse](t, dec)
	assert.Equal(t, ErrorResponse{ID: "3", Error: "threshold must be within [0,1]", Code: 400}, errResp)
	errResp = decode[ErrorResponse](t, dec)
	assert.Equal(t, 400, errResp.Code)
}

func TestServerComplete(t *testing.T) {
	h := newHarness(t, "solid solid solid", "solar", "soldier soldier")
	dec := h.run(t,
		Request{ID: "1", Action: ActionComplete, Prefix: "sol"},
		Request{ID: "2", Action: ActionComplete, Prefix: "sol", Limit: 1},
		Request{ID: "3", Action: ActionComplete},
	)

	resp := decode[CompletionResponse](t, dec)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, CompletionSuggestion{Word: "solid", Rank: 1, Frequency: 3}, resp.Suggestions[0])
	assert.Equal(t, CompletionSuggestion{Word: "soldier", Rank: 2, Frequency: 2}, resp.Suggestions[1])
	assert.Equal(t, CompletionSuggestion{Word: "solar", Rank: 3, Frequency: 1}, resp.Suggestions[2])

	resp = decode[CompletionResponse](t, dec)
	assert.Equal(t, 1, resp.Count)

	errResp := decode[ErrorResponse](t, dec)
	assert.Equal(t, "3", errResp.ID)
	assert.Equal(t, 400, errResp.Code)
}

func TestServerCompleteFuzzy(t *testing.T) {
	h := newHarness(t, "solar panel")
	dec := h.run(t,
		Request{ID: "1", Action: ActionComplete, Prefix: "solr", Fuzzy: true},
		Request{ID: "2", Action: ActionComplete, Prefix: "solr"},
		Request{ID: "3", Action: ActionComplete, Prefix: "sol", Fuzzy: true},
	)

	resp := decode[CompletionResponse](t, dec)
	assert.True(t, resp.Fuzzy)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, CompletionSuggestion{Word: "solar", Rank: 1, Frequency: 1}, resp.Suggestions[0])

	resp = decode[CompletionResponse](t, dec)
	assert.False(t, resp.Fuzzy)
	assert.Equal(t, 0, resp.Count)

	// real completions win over the fallback
	resp = decode[CompletionResponse](t, dec)
	assert.False(t, resp.Fuzzy)
	assert.Equal(t, 1, resp.Count)
}

func TestServerSetOptions(t *testing.T) {
	h := newHarness(t, "deploy")
	h.configPath = filepath.Join(t.TempDir(), "config.toml")
	zero, five, none := 0.0, 5, 0
	dec := h.run(t,
		Request{ID: "1", Action: ActionSetOptions, Threshold: &zero, MaxSuggestions: &five, Metric: "jaro-winkler"},
		Request{ID: "2", Action: ActionSetOptions, Metric: "nope"},
		Request{ID: "3", Action: ActionSetOptions, MaxSuggestions: &none},
	)

	resp := decode[OptionsResponse](t, dec)
	assert.Equal(t, OptionsResponse{ID: "1", Status: "ok", Threshold: 0, MaxSuggestions: 5, Metric: "jaro-winkler", Saved: true}, resp)
	assert.Equal(t, 400, decode[ErrorResponse](t, dec).Code)
	assert.Equal(t, 400, decode[ErrorResponse](t, dec).Code)

	// rejected requests leave the applied settings alone
	opts := h.suggester.Options()
	assert.Equal(t, 0.0, opts.Threshold)
	assert.Equal(t, "jaro-winkler", opts.Metric)

	saved, err := config.LoadConfig(h.configPath)
	require.NoError(t, err)
	assert.Equal(t, 0.0, saved.Suggest.Threshold)
	assert.Equal(t, 5, saved.Suggest.MaxSuggestions)
	assert.Equal(t, "jaro-winkler", saved.Suggest.Metric)
}

func TestServerSetOptionsWithoutConfigFile(t *testing.T) {
	h := newHarness(t, "deploy")
	threshold := 0.95
	dec := h.run(t,
		Request{ID: "1", Action: ActionSetOptions, Threshold: &threshold},
		Request{ID: "2", Action: ActionCheck, Text: "deplyo"},
	)

	resp := decode[OptionsResponse](t, dec)
	assert.False(t, resp.Saved)
	assert.Equal(t, 0.95, resp.Threshold)
	assert.Equal(t, 0.95, h.config.Suggest.Threshold)
	assert.Equal(t, 0, decode[CheckResponse](t, dec).Count)
}

func TestServerLearnPersists(t *testing.T) {
	h := newHarness(t)
	dec := h.run(t,
		Request{ID: "1", Action: ActionLearn, Text: "Heat shield"},
		Request{ID: "2", Action: ActionAddWord, Word: "gimbal"},
		Request{ID: "3", Action: ActionAddWord, Word: "  "},
		Request{ID: "4", Action: ActionLearn, Text: ""},
	)

	learned := decode[LearnResponse](t, dec)
	assert.Equal(t, LearnResponse{ID: "1", Status: "ok", Tokens: []string{"heat", "shield"}}, learned)
	learned = decode[LearnResponse](t, dec)
	assert.Equal(t, []string{"gimbal"}, learned.Tokens)
	errResp := decode[ErrorResponse](t, dec)
	assert.Equal(t, 400, errResp.Code)
	learned = decode[LearnResponse](t, dec)
	assert.Empty(t, learned.Tokens)

	snap, err := dictionary.LoadSnapshot(h.dataPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"heat": 1, "shield": 1, "gimbal": 1}, snap.Frequencies)
}

func TestServerRanges(t *testing.T) {
	h := newHarness(t)
	dec := h.run(t,
		Request{ID: "1", Action: ActionParseRange, Range: "32-160"},
		Request{ID: "2", Action: ActionShiftRange, Range: "32-160", Offset: 10},
		Request{ID: "3", Action: ActionShiftRange, Range: "abc", Offset: 10},
		Request{ID: "4", Action: ActionParseRange, Range: "32-160-5"},
	)

	resp := decode[RangeResponse](t, dec)
	assert.Equal(t, RangeResponse{ID: "1", Valid: true, Range: animrange.Range{Start: 32, End: 160}, Text: "32-160"}, resp)
	resp = decode[RangeResponse](t, dec)
	assert.Equal(t, "42-170", resp.Text)
	resp = decode[RangeResponse](t, dec)
	assert.Equal(t, RangeResponse{ID: "3", Valid: false, Text: "abc"}, resp)
	resp = decode[RangeResponse](t, dec)
	assert.False(t, resp.Valid)
}

func TestServerSaveReload(t *testing.T) {
	h := newHarness(t, "radiator")
	dec := h.run(t,
		Request{ID: "1", Action: ActionSave},
		Request{ID: "2", Action: ActionReload},
		Request{ID: "3", Action: ActionStats},
	)
	status := decode[StatusResponse](t, dec)
	assert.Equal(t, StatusResponse{ID: "1", Status: "ok", Words: 1}, status)
	status = decode[StatusResponse](t, dec)
	assert.Equal(t, "ok", status.Status)
	stats := decode[StatsResponse](t, dec)
	assert.Equal(t, 1, stats.Stats["words"])

	missing := newHarness(t)
	dec = missing.run(t, Request{ID: "1", Action: ActionReload})
	errResp := decode[ErrorResponse](t, dec)
	assert.Equal(t, 404, errResp.Code)

	h.dataPath = ""
	dec = h.run(t, Request{ID: "1", Action: ActionSave})
	assert.Equal(t, 400, decode[ErrorResponse](t, dec).Code)
}

func TestServerErrors(t *testing.T) {
	h := newHarness(t)
	h.config.Server.MaxTextLength = 10
	dec := h.run(t,
		"not a request",
		Request{ID: "1", Action: "nope"},
		Request{ID: "2"},
		Request{ID: "3", Action: ActionCheck, Text: strings.Repeat("a", 11)},
		Request{ID: "4", Action: ActionStats},
	)

	assert.Equal(t, ErrorResponse{Error: "invalid request", Code: 400}, decode[ErrorResponse](t, dec))
	assert.Equal(t, ErrorResponse{ID: "1", Error: "unknown action: nope", Code: 400}, decode[ErrorResponse](t, dec))
	assert.Equal(t, ErrorResponse{ID: "2", Error: "missing action", Code: 400}, decode[ErrorResponse](t, dec))
	assert.Equal(t, 413, decode[ErrorResponse](t, dec).Code)
	assert.Equal(t, "4", decode[StatsResponse](t, dec).ID)
}

func TestServerReloadsConfig(t *testing.T) {
	h := newHarness(t, "deploy")
	h.configPath = filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(h.configPath, []byte("[suggest]\nthreshold = 0.95\n[server]\nreload_every = 1\n"), 0644))
	h.config.Server.ReloadEvery = 1

	dec := h.run(t, Request{ID: "1", Action: ActionCheck, Text: "deplyo"})
	assert.Equal(t, 0, decode[CheckResponse](t, dec).Count)
	assert.Equal(t, 0.95, h.suggester.Options().Threshold)
}

func TestReportOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Export.DefaultRange = "10-20"
	cfg.Export.Author = "Studio"
	opts := ReportOptions(cfg, "1.0.0")
	assert.Equal(t, animrange.Range{Start: 10, End: 20}, opts.Default)
	assert.Equal(t, "Studio", opts.Author)
	assert.Equal(t, "1.0.0", opts.Version)

	cfg.Export.DefaultRange = "junk"
	assert.Equal(t, animrange.Default, ReportOptions(cfg, "").Default)

	cfg.Dict.AutoSave = false
	assert.Empty(t, SuggestOptions(cfg, "x.json").SavePath)
}
