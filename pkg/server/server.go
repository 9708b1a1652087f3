package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/dotlabel/internal/logger"
	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/config"
	"github.com/bastiangx/dotlabel/pkg/dictionary"
	"github.com/bastiangx/dotlabel/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server answers msgpack requests for one suggester.
type Server struct {
	suggester    *suggest.Suggester
	config       *config.Config
	configPath   string
	dataPath     string
	version      string
	decoder      *msgpack.Decoder
	encoder      *msgpack.Encoder
	writer       *bufio.Writer
	requestCount int
	log          *log.Logger
}

// NewServer creates a server using stdin/stdout for IPC.
func NewServer(s *suggest.Suggester, cfg *config.Config, configPath, dataPath, version string) *Server {
	return NewServerWithIO(s, cfg, configPath, dataPath, version, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on arbitrary streams.
func NewServerWithIO(s *suggest.Suggester, cfg *config.Config, configPath, dataPath, version string, r io.Reader, w io.Writer) *Server {
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	enc.SetCustomStructTag("json")
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	dec.SetCustomStructTag("json")
	return &Server{
		suggester:  s,
		config:     cfg,
		configPath: configPath,
		dataPath:   dataPath,
		version:    version,
		decoder:    dec,
		encoder:    enc,
		writer:     bw,
		log:        logger.New("ipc"),
	}
}

// Start signals readiness then serves requests until the input closes.
// With dict.watch enabled the dictionary file is watched meanwhile.
func (s *Server) Start() error {
	s.log.Debug("Starting Server.")

	if s.config.Dict.Watch && s.dataPath != "" {
		w, err := dictionary.NewWatcher(s.dataPath, dictionary.DefaultDebounce, s.reloadFromDisk)
		if err != nil {
			s.log.Warnf("Dictionary watch disabled: %v", err)
		} else {
			defer w.Close()
		}
	}

	s.sendResponse(map[string]string{"status": "ready"})

	for {
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Input closed, shutting down")
				return nil
			}
			s.log.Errorf("Reading request: %v", err)
			return err
		}
		s.handleRaw(raw)
	}
}

func (s *Server) reloadFromDisk() {
	changed, err := s.suggester.ReloadIfChanged(s.dataPath)
	if err != nil {
		s.log.Warnf("Dictionary reload failed: %v", err)
		return
	}
	if changed {
		s.log.Infof("Dictionary reloaded from %s (%d words)", s.dataPath, s.suggester.Len())
	}
}

// handleRaw decodes a single request and dispatches it. A request that
// does not decode gets an error reply and the stream carries on.
func (s *Server) handleRaw(raw msgpack.RawMessage) {
	s.requestCount++
	if every := s.config.Server.ReloadEvery; every > 0 && s.requestCount%every == 0 {
		s.reloadConfig()
	}

	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid request", 400)
		return
	}
	s.handleRequest(req)
}

func (s *Server) handleRequest(req Request) {
	if maxLen := s.config.Server.MaxTextLength; maxLen > 0 && len(req.Text) > maxLen {
		s.sendError(req.ID, fmt.Sprintf("text exceeds maximum length of %d bytes", maxLen), 413)
		return
	}

	switch req.Action {
	case ActionCheck:
		s.handleCheck(req)
	case ActionSimilar:
		s.handleSimilar(req)
	case ActionLearn:
		s.handleLearn(req, false)
	case ActionAddWord:
		s.handleLearn(req, true)
	case ActionComplete:
		s.handleComplete(req)
	case ActionParseRange:
		s.handleRange(req, false)
	case ActionShiftRange:
		s.handleRange(req, true)
	case ActionStats:
		s.sendResponse(StatsResponse{ID: req.ID, Stats: s.suggester.Stats()})
	case ActionReload:
		s.handleReload(req)
	case ActionSave:
		s.handleSave(req)
	case ActionExport:
		s.handleExport(req)
	case ActionShiftAnimation:
		s.handleShiftAnimation(req)
	case ActionBuildMarkers:
		s.handleBuildMarkers(req)
	case ActionSyncMarkers:
		s.handleSyncMarkers(req)
	case ActionMarkerRanges:
		s.handleMarkerRanges(req)
	case ActionCreatePair:
		s.handleCreatePair(req)
	case ActionEditProperties:
		s.handleEditProperties(req)
	case ActionGLBPreset:
		s.handleGLBPreset(req)
	case ActionSetOptions:
		s.handleSetOptions(req)
	case "":
		s.sendError(req.ID, "missing action", 400)
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleCheck(req Request) {
	start := time.Now()
	corrections := s.suggester.CheckDescription(req.Text)
	if corrections == nil {
		corrections = []suggest.Correction{}
	}
	s.log.Debugf("check '%s': %d flagged", utils.Truncate(req.Text, 40), len(corrections))
	s.sendResponse(CheckResponse{
		ID:          req.ID,
		Corrections: corrections,
		Count:       len(corrections),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleSimilar(req Request) {
	if strings.TrimSpace(req.Word) == "" {
		s.sendError(req.ID, "missing 'word' parameter", 400)
		return
	}
	threshold := s.suggester.Options().Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		s.sendError(req.ID, "threshold must be within [0,1]", 400)
		return
	}

	start := time.Now()
	similar := s.suggester.FindSimilar(req.Word, threshold)
	if req.Limit > 0 && len(similar) > req.Limit {
		similar = similar[:req.Limit]
	}
	if similar == nil {
		similar = []suggest.Suggestion{}
	}
	s.sendResponse(SimilarResponse{
		ID:          req.ID,
		Suggestions: similar,
		Count:       len(similar),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) handleLearn(req Request, explicit bool) {
	var (
		tokens []string
		err    error
	)
	if explicit {
		text := req.Word
		if text == "" {
			text = req.Text
		}
		tokens, err = s.suggester.AddWord(text)
		if errors.Is(err, suggest.ErrEmptyInput) {
			s.sendError(req.ID, err.Error(), 400)
			return
		}
	} else {
		tokens, err = s.suggester.Learn(req.Text)
	}

	resp := LearnResponse{ID: req.ID, Status: "ok", Tokens: tokens}
	if resp.Tokens == nil {
		resp.Tokens = []string{}
	}
	if err != nil {
		s.log.Warnf("Saving dictionary: %v", err)
		resp.Error = err.Error()
	}
	s.sendResponse(resp)
}

// handleComplete ranks completions of a prefix. With fuzzy set, a prefix
// without completions is answered with similar words instead.
func (s *Server) handleComplete(req Request) {
	prefix := req.Prefix
	if prefix == "" {
		s.sendError(req.ID, "missing 'p' parameter", 400)
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = s.config.Server.CompleteLimit
	}

	start := time.Now()
	found := s.suggester.Complete(prefix, limit)
	fuzzy := false
	if len(found) == 0 && req.Fuzzy {
		found = s.suggester.FindSimilar(prefix, s.suggester.Options().Threshold)
		if len(found) > limit {
			found = found[:limit]
		}
		fuzzy = len(found) > 0
	}
	elapsed := time.Since(start)

	suggestions := make([]CompletionSuggestion, len(found))
	for i, sg := range found {
		suggestions[i] = CompletionSuggestion{Word: sg.Word, Rank: uint16(i + 1), Frequency: sg.Frequency}
	}
	s.sendResponse(CompletionResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
		Fuzzy:       fuzzy,
	})
}

func (s *Server) handleRange(req Request, shift bool) {
	r, err := animrange.Parse(req.Range)
	if err != nil {
		s.sendResponse(RangeResponse{ID: req.ID, Valid: false, Text: req.Range})
		return
	}
	if shift {
		r = r.Shift(req.Offset)
	}
	s.sendResponse(RangeResponse{ID: req.ID, Valid: true, Range: r, Text: r.String()})
}

func (s *Server) handleReload(req Request) {
	if s.dataPath == "" {
		s.sendError(req.ID, "no dictionary file configured", 400)
		return
	}
	if err := s.suggester.Load(s.dataPath); err != nil {
		s.log.Warnf("Reload failed: %v", err)
		s.sendError(req.ID, err.Error(), errorCode(err))
		return
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Words: s.suggester.Len()})
}

func (s *Server) handleSave(req Request) {
	if s.dataPath == "" {
		s.sendError(req.ID, "no dictionary file configured", 400)
		return
	}
	if err := s.suggester.Save(s.dataPath); err != nil {
		s.log.Warnf("Save failed: %v", err)
		s.sendError(req.ID, err.Error(), 500)
		return
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Words: s.suggester.Len()})
}

// handleSetOptions applies new suggestion settings and, when the server
// has a config file, writes them back to it.
func (s *Server) handleSetOptions(req Request) {
	if req.MaxSuggestions != nil && *req.MaxSuggestions < 1 {
		s.sendError(req.ID, "max_suggestions must be at least 1", 400)
		return
	}
	var metric *string
	if req.Metric != "" {
		metric = &req.Metric
	}

	next := *s.config
	if req.Threshold != nil {
		next.Suggest.Threshold = *req.Threshold
	}
	if req.MaxSuggestions != nil {
		next.Suggest.MaxSuggestions = *req.MaxSuggestions
	}
	if metric != nil {
		next.Suggest.Metric = *metric
	}
	if err := s.suggester.SetOptions(SuggestOptions(&next, s.dataPath)); err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	saved := false
	if s.configPath == "" {
		s.config.Suggest = next.Suggest
	} else if err := s.config.UpdateSuggest(s.configPath, req.Threshold, req.MaxSuggestions, metric); err != nil {
		s.log.Warnf("Saving config: %v", err)
	} else {
		saved = true
	}

	opts := s.suggester.Options()
	s.sendResponse(OptionsResponse{
		ID:             req.ID,
		Status:         "ok",
		Threshold:      opts.Threshold,
		MaxSuggestions: opts.MaxSuggestions,
		Metric:         opts.Metric,
		Saved:          saved,
	})
}

// reloadConfig re-reads the TOML config and applies suggestion options.
func (s *Server) reloadConfig() {
	if s.configPath == "" {
		return
	}
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.log.Warnf("Config reload failed: %v", err)
		return
	}
	if err := s.suggester.SetOptions(SuggestOptions(cfg, s.dataPath)); err != nil {
		s.log.Warnf("Config reload rejected: %v", err)
		return
	}
	s.config = cfg
	s.log.Debugf("Config reloaded from %s", s.configPath)
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, dictionary.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return 404
	case errors.Is(err, dictionary.ErrMalformed):
		return 422
	}
	return 500
}

// sendResponse encodes one message and flushes it.
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}
