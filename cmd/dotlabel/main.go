// Copyright 2025 The DotLabel Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main runs the dotlabel description service, CLI and scene tools.

dotlabel backs the dot/label add-on: it learns the words used in label
descriptions and suggests corrections for misspelled ones, parses and shifts
the frame ranges stored on labels, and exports label data for the web viewer.

# Usage

Start the IPC server with the default dictionary:

	dotlabel

Check descriptions interactively:

	dotlabel -c -limit 5

Run a one-shot operation on a scene snapshot written by the add-on:

	dotlabel -scene rocket.scene.json -shift 12 -add-markers -export

# Dictionary

Learned words are kept as a JSON table of frequencies next to where
dotlabel is started, unless dict.data_file or -dict says otherwise:

	{"frequencies": {"solar": 3, "panel": 2}, "mistakes": {}}

The seed word list (data/wordlist.json) is merged into it on every start.

# Configuration

A TOML file is created with defaults on first run:

	[suggest]
	threshold = 0.8
	max_suggestions = 3
	metric = "ratio"

	[dict]
	data_file = "description_data.json"
	auto_save = true

	[export]
	default_range = "32-160"

Server mode re-reads the file every server.reload_every requests.

# IPC Protocol

MessagePack maps over stdin/stdout, one response per request:

	{"id": "1", "action": "check", "text": "Deplyo the solar pannel"}
	{"id": "1", "s": [{"word": "Deplyo", "suggestions": ["deploy"]}], "c": 1, "t": 42}

See package server for the full list of actions.

# Command Line Flags

	-version      Show current version
	-d            Enable debug logging
	-c            Run the interactive CLI
	-config path  Config file (default in the user config dir)
	-dict path    Dictionary file
	-words path   Seed word list
	-limit n      Suggestions shown per word in the CLI
	-watch        Reload the dictionary when another process rewrites it
	-scene path   Scene snapshot for the options below
	-export       Write the HTML report and JSON label export
	-shift n      Shift every label range by n frames
	-add-markers  Create start/end markers for the selected labels
	-sync-markers Write marker frames back into label ranges
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/dotlabel/internal/cli"
	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/bastiangx/dotlabel/pkg/config"
	"github.com/bastiangx/dotlabel/pkg/dictionary"
	"github.com/bastiangx/dotlabel/pkg/report"
	"github.com/bastiangx/dotlabel/pkg/scene"
	"github.com/bastiangx/dotlabel/pkg/server"
	"github.com/bastiangx/dotlabel/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.4.0"
	AppName = "dotlabel"
	gh      = "https://github.com/bastiangx/dotlabel"
)

type sceneOps struct {
	path        string
	export      bool
	shift       int
	addMarkers  bool
	syncMarkers bool
}

func (o sceneOps) requested() bool {
	return o.export || o.shift != 0 || o.addMarkers || o.syncMarkers
}

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow, the work happens in the packages.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configFile := flag.String("config", "", "Path to config file")
	dictFile := flag.String("dict", "", "Dictionary file (default from config)")
	wordList := flag.String("words", "", "Seed word list (default from config)")
	limit := flag.Int("limit", 0, "Suggestions shown per word in the CLI (default from config)")
	watch := flag.Bool("watch", defaultConfig.Dict.Watch, "Reload the dictionary when it changes on disk")

	var ops sceneOps
	flag.StringVar(&ops.path, "scene", "", "Scene snapshot file for scene operations")
	flag.BoolVar(&ops.export, "export", false, "Export the HTML report and JSON labels")
	flag.IntVar(&ops.shift, "shift", 0, "Shift label animation ranges by n frames")
	flag.BoolVar(&ops.addMarkers, "add-markers", false, "Create markers for the selected labels")
	flag.BoolVar(&ops.syncMarkers, "sync-markers", false, "Write marker frames back into labels")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	if *debugMode {
		for k, v := range pathResolver.GetRuntimeInfo() {
			log.Debug("runtime", k, v)
		}
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *watch {
		appConfig.Dict.Watch = true
	}
	if *limit < 1 {
		*limit = appConfig.CLI.DefaultLimit
	}

	dataPath := appConfig.Dict.DataFile
	if *dictFile != "" {
		dataPath = *dictFile
	}
	if dataPath == "" {
		dataPath = dictionary.DefaultDataFile
	}
	dataPath = utils.GetAbsolutePath(dataPath)
	log.Debugf("Using dictionary: %s", dataPath)

	suggester, err := suggest.New(server.SuggestOptions(appConfig, dataPath))
	if err != nil {
		log.Fatalf("Invalid suggestion settings: %v", err)
	}
	if ops.path != "" && !ops.requested() {
		log.Warn("-scene given without an operation (-export, -shift, -add-markers, -sync-markers)")
	}
	loadDictionary(suggester, pathResolver, dataPath, *wordList, appConfig.Dict.WordList)

	if ops.requested() {
		if err := runSceneOps(ops, suggester, appConfig, dataPath); err != nil {
			log.Fatalf("Scene: %v", err)
		}
		return
	}

	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", *limit, "words", suggester.Len())

		inputHandler := cli.NewInputHandler(suggester, *limit, dataPath)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(suggester, appConfig, configPath, dataPath, Version)

	showStartupInfo(dataPath, configPath, suggester.Len())

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// loadDictionary reads the learned table then merges the seed word list
// into it. Missing or broken files are logged, never fatal.
func loadDictionary(s *suggest.Suggester, pr *utils.PathResolver, dataPath, wordsFlag, wordsConfig string) {
	if err := s.Load(dataPath); err != nil {
		if errors.Is(err, dictionary.ErrNotFound) {
			log.Debugf("No dictionary yet at %s", dataPath)
		} else {
			log.Warnf("Dictionary not loaded: %v", err)
		}
	}

	name := wordsFlag
	if name == "" {
		name = wordsConfig
	}
	if name == "" {
		name = dictionary.DefaultWordList
	}
	path, err := pr.FindDataFile(name)
	if err != nil {
		log.Debugf("No seed word list found (%s)", path)
		return
	}
	n, err := s.LoadDefaults(path)
	if err != nil {
		log.Warnf("Seed word list not loaded: %v", err)
		return
	}
	log.Debugf("Seeded %d entries from %s", n, path)
}

// runSceneOps applies the requested operations in a fixed order:
// shift, markers, sync, export. The scene is saved once afterwards.
func runSceneOps(ops sceneOps, s *suggest.Suggester, cfg *config.Config, dataPath string) error {
	if ops.path == "" {
		return errors.New("-scene is required for scene operations")
	}
	sc, err := scene.Load(ops.path)
	if err != nil {
		return err
	}

	dirty := false
	if ops.shift != 0 {
		changed := scene.ShiftAnimation(sc, ops.shift)
		log.Infof("Shifted %d objects by %d frames", len(changed), ops.shift)
		dirty = dirty || len(changed) > 0
	}
	if ops.addMarkers {
		added, skipped := scene.BuildMarkers(sc, sc.Selected)
		for _, name := range skipped {
			log.Warnf("No valid range on %s, skipped", name)
		}
		log.Infof("Added %d markers", len(added))
		dirty = true
	}
	if ops.syncMarkers {
		changed := scene.SyncMarkers(sc)
		log.Infof("Synced %d labels from markers", len(changed))
		dirty = dirty || len(changed) > 0
	}
	if dirty {
		if err := sc.Save(ops.path); err != nil {
			return err
		}
	}

	if !ops.export {
		return nil
	}
	if sc.File == "" {
		sc.File = ops.path
	}
	saveTo := ""
	if cfg.Dict.AutoSave {
		saveTo = dataPath
	}
	if _, err := server.TrainFromScene(sc, s, saveTo); err != nil {
		log.Warnf("Dictionary not saved: %v", err)
	}
	res, err := report.Export(sc, server.ReportOptions(cfg, Version))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d labels\n  %s\n  %s\n", res.Entries, res.HTMLPath, res.JSONPath)
	return nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ dotlabel ] Label descriptions, ranges and exports")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
// Everything goes to stderr, stdout carries the IPC stream.
func showStartupInfo(dataPath, configPath string, words int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintln(os.Stderr, " dotlabel ")
	fmt.Fprintln(os.Stderr, "==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dictionary: ( %s ) %d words", dataPath, words)
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "==========")

	log.SetLevel(currentLevel)
}
