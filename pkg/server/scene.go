package server

import (
	"errors"

	"github.com/bastiangx/dotlabel/pkg/report"
	"github.com/bastiangx/dotlabel/pkg/scene"
	"github.com/bastiangx/dotlabel/pkg/suggest"
)

// loadScene reads the request's scene, replying with an error when it can't.
func (s *Server) loadScene(req Request) (*scene.Scene, bool) {
	if req.Scene == "" {
		s.sendError(req.ID, "missing 'scene' parameter", 400)
		return nil, false
	}
	sc, err := scene.Load(req.Scene)
	if err != nil {
		s.log.Warnf("Loading scene: %v", err)
		s.sendError(req.ID, err.Error(), errorCode(err))
		return nil, false
	}
	return sc, true
}

func (s *Server) saveScene(req Request, sc *scene.Scene) bool {
	if err := sc.Save(req.Scene); err != nil {
		s.log.Errorf("Saving scene: %v", err)
		s.sendError(req.ID, err.Error(), 500)
		return false
	}
	return true
}

// TrainFromScene feeds every description in the scene to the suggester and
// saves the dictionary once. Returns how many descriptions were fed in.
func TrainFromScene(sc *scene.Scene, suggester *suggest.Suggester, dataPath string) (int, error) {
	descriptions := scene.Descriptions(sc)
	for _, d := range descriptions {
		suggester.AddDescription(d)
	}
	if dataPath == "" {
		return len(descriptions), nil
	}
	return len(descriptions), suggester.Save(dataPath)
}

func (s *Server) handleExport(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	if sc.File == "" {
		// scene snapshot sits next to the saved scene file by default
		sc.File = req.Scene
	}

	saveTo := ""
	if s.config.Dict.AutoSave {
		saveTo = s.dataPath
	}
	learned, err := TrainFromScene(sc, s.suggester, saveTo)
	if err != nil {
		s.log.Warnf("Saving dictionary after export training: %v", err)
	}

	res, err := report.Export(sc, ReportOptions(s.config, s.version))
	if err != nil {
		code := 500
		if errors.Is(err, report.ErrNoScenePath) {
			code = 400
		}
		s.sendError(req.ID, err.Error(), code)
		return
	}
	s.log.Infof("Exported %d labels to %s", res.Entries, res.JSONPath)
	s.sendResponse(ExportResponse{ID: req.ID, Status: "ok", Result: res, Learned: learned})
}

func (s *Server) handleShiftAnimation(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	changed := scene.ShiftAnimation(sc, req.Offset)
	if !s.saveScene(req, sc) {
		return
	}
	s.sendResponse(SceneResponse{ID: req.ID, Status: "ok", Changed: nonNil(changed)})
}

func (s *Server) handleBuildMarkers(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	selected := req.Selected
	if len(selected) == 0 {
		selected = sc.Selected
	}
	added, skipped := scene.BuildMarkers(sc, selected)
	if !s.saveScene(req, sc) {
		return
	}
	var labels []string
	for i := 0; i < len(added); i += 2 {
		labels = append(labels, added[i].LabelName)
	}
	s.sendResponse(SceneResponse{
		ID:      req.ID,
		Status:  "ok",
		Changed: nonNil(labels),
		Skipped: skipped,
		Markers: added,
	})
}

func (s *Server) handleSyncMarkers(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	changed := scene.SyncMarkers(sc)
	if len(changed) > 0 && !s.saveScene(req, sc) {
		return
	}
	s.sendResponse(SceneResponse{ID: req.ID, Status: "ok", Changed: nonNil(changed)})
}

func (s *Server) handleMarkerRanges(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	current := sc.FrameCurrent
	if req.Frame != nil {
		current = *req.Frame
	}
	resp := MarkerRangesResponse{ID: req.ID, Ranges: scene.MarkerRanges(sc.Markers, current)}
	if resp.Ranges == nil {
		resp.Ranges = []scene.MarkerRange{}
	}
	if last, ok := scene.LastMarkerRange(sc.Markers); ok {
		resp.Last = &last
	}
	s.sendResponse(resp)
}

func (s *Server) handleCreatePair(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	selected := ""
	if len(req.Selected) > 0 {
		selected = req.Selected[0]
	}
	label, dot, err := scene.CreatePair(sc, scene.PairOptions{
		LabelName:   req.LabelName,
		DotName:     req.DotName,
		Description: req.Description,
		AnimData:    req.Range,
		Selected:    selected,
	})
	if err != nil {
		s.sendError(req.ID, err.Error(), 409)
		return
	}
	if req.Description != "" {
		if _, err := s.suggester.Learn(req.Description); err != nil {
			s.log.Warnf("Saving dictionary: %v", err)
		}
	}
	if !s.saveScene(req, sc) {
		return
	}
	s.sendResponse(PairResponse{ID: req.ID, Label: label.Name, Dot: dot.Name})
}

// handleEditProperties replaces the label data of one dot or label. The
// target is the first of selected, then label_name, then the scene's own
// selection.
func (s *Server) handleEditProperties(req Request) {
	sc, ok := s.loadScene(req)
	if !ok {
		return
	}
	var name string
	switch {
	case len(req.Selected) > 0:
		name = req.Selected[0]
	case req.LabelName != "":
		name = req.LabelName
	case len(sc.Selected) > 0:
		name = sc.Selected[0]
	default:
		s.sendError(req.ID, "no object selected", 400)
		return
	}

	obj, err := scene.EditLabel(sc, name, req.Description, req.Range, req.Mesh)
	if err != nil {
		code := 400
		if errors.Is(err, scene.ErrNoObject) {
			code = 404
		}
		s.sendError(req.ID, err.Error(), code)
		return
	}
	if req.Description != "" {
		if _, err := s.suggester.Learn(req.Description); err != nil {
			s.log.Warnf("Saving dictionary: %v", err)
		}
	}
	if !s.saveScene(req, sc) {
		return
	}
	s.sendResponse(SceneResponse{ID: req.ID, Status: "ok", Changed: []string{obj.Name}})
}

func (s *Server) handleGLBPreset(req Request) {
	sceneFile := req.Scene
	if sceneFile != "" {
		if sc, err := scene.Load(sceneFile); err == nil && sc.File != "" {
			sceneFile = sc.File
		}
	}
	opts := report.GLBPreset(sceneFile)
	if s.configPath != "" {
		overrides, err := report.LoadGLBOverrides(s.configPath)
		if err != nil {
			s.log.Debugf("No GLB overrides: %v", err)
		} else {
			opts = report.GLBPresetWith(sceneFile, overrides)
		}
	}
	s.sendResponse(GLBPresetResponse{ID: req.ID, Options: opts})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
