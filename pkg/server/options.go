package server

import (
	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/config"
	"github.com/bastiangx/dotlabel/pkg/report"
	"github.com/bastiangx/dotlabel/pkg/suggest"
	"github.com/charmbracelet/log"
)

// SuggestOptions maps the [suggest] and [dict] sections onto suggester
// options. dataPath is where learned words are saved; empty disables
// auto-save.
func SuggestOptions(cfg *config.Config, dataPath string) suggest.Options {
	opts := suggest.Options{
		Threshold:      cfg.Suggest.Threshold,
		MaxSuggestions: cfg.Suggest.MaxSuggestions,
		MinWordLength:  cfg.Suggest.MinWordLength,
		Metric:         cfg.Suggest.Metric,
	}
	if cfg.Dict.AutoSave {
		opts.SavePath = dataPath
	}
	return opts
}

// ReportOptions maps the [export] section onto export options.
func ReportOptions(cfg *config.Config, version string) report.Options {
	opts := report.DefaultOptions()
	opts.Version = version
	opts.Author = cfg.Export.Author
	if cfg.Export.Lang != "" {
		opts.Lang = cfg.Export.Lang
	}
	if cfg.Export.TriangleLimit > 0 {
		opts.TriangleLimit = cfg.Export.TriangleLimit
	}
	if cfg.Export.GLBSizeLimitMB > 0 {
		opts.GLBSizeLimitMB = cfg.Export.GLBSizeLimitMB
	}
	if cfg.Export.DefaultRange != "" {
		r, err := animrange.Parse(cfg.Export.DefaultRange)
		if err != nil {
			log.Warnf("Ignoring export.default_range: %v", err)
		} else {
			opts.Default = r
		}
	}
	return opts
}
