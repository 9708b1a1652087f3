/*
Package config manages TOML config for dotlabel.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Suggest SuggestConfig `toml:"suggest"`
	Dict    DictConfig    `toml:"dict"`
	Export  ExportConfig  `toml:"export"`
	Server  ServerConfig  `toml:"server"`
	CLI     CliConfig     `toml:"cli"`
	// GLB overrides the exporter preset, see report.LoadGLBOverrides
	GLB map[string]any `toml:"glb,omitempty"`
}

// SuggestConfig controls spelling suggestions.
// threshold is used as written, 0 included.
type SuggestConfig struct {
	Threshold      float64 `toml:"threshold"`
	MaxSuggestions int     `toml:"max_suggestions"`
	MinWordLength  int     `toml:"min_word_length"`
	Metric         string  `toml:"metric"`
}

// DictConfig holds dictionary file options.
// Relative paths are resolved against the working directory.
type DictConfig struct {
	DataFile string `toml:"data_file"`
	WordList string `toml:"word_list"`
	AutoSave bool   `toml:"auto_save"`
	Watch    bool   `toml:"watch"`
}

// ExportConfig holds label export options.
type ExportConfig struct {
	Lang           string  `toml:"lang"`
	DefaultRange   string  `toml:"default_range"`
	TriangleLimit  int     `toml:"triangle_limit"`
	GLBSizeLimitMB float64 `toml:"glb_size_limit_mb"`
	Author         string  `toml:"author"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxTextLength int `toml:"max_text_length"`
	CompleteLimit int `toml:"complete_limit"`
	ReloadEvery   int `toml:"reload_every"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/dotlabel
// 2. ~/Library/Application Support/dotlabel (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "dotlabel")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "dotlabel")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/dotlabel/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Suggest: SuggestConfig{
			Threshold:      0.8,
			MaxSuggestions: 3,
			MinWordLength:  3,
			Metric:         "ratio",
		},
		Dict: DictConfig{
			DataFile: "description_data.json",
			WordList: "wordlist.json",
			AutoSave: true,
			Watch:    false,
		},
		Export: ExportConfig{
			Lang:           "en",
			DefaultRange:   "32-160",
			TriangleLimit:  100000,
			GLBSizeLimitMB: 20,
			Author:         "",
		},
		Server: ServerConfig{
			MaxTextLength: 4096,
			CompleteLimit: 10,
			ReloadEvery:   100,
		},
		CLI: CliConfig{
			DefaultLimit: 3,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file, falling back to section by section
// recovery when the file does not decode cleanly.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.DecodeTOMLFile(configPath, config); err != nil {
		log.Warnf("%v. Attempting partial recovery...", err)
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every value it can read and defaults the rest
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLMap(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.Lookup[map[string]any](tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.Lookup[map[string]any](tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.Lookup[map[string]any](tempConfig, "export"); ok {
		extractExportConfig(section, &config.Export)
	}
	if section, ok := utils.Lookup[map[string]any](tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.Lookup[map[string]any](tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	if section, ok := utils.Lookup[map[string]any](tempConfig, "glb"); ok {
		config.GLB = section
	}
	return config, nil
}

func extractSuggestConfig(data map[string]any, s *SuggestConfig) {
	if val, ok := utils.ExtractFloat64(data, "threshold"); ok {
		s.Threshold = val
	}
	if val, ok := utils.ExtractInt(data, "max_suggestions"); ok {
		s.MaxSuggestions = val
	}
	if val, ok := utils.ExtractInt(data, "min_word_length"); ok {
		s.MinWordLength = val
	}
	if val, ok := utils.Lookup[string](data, "metric"); ok {
		s.Metric = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.Lookup[string](data, "data_file"); ok {
		dict.DataFile = val
	}
	if val, ok := utils.Lookup[string](data, "word_list"); ok {
		dict.WordList = val
	}
	if val, ok := utils.Lookup[bool](data, "auto_save"); ok {
		dict.AutoSave = val
	}
	if val, ok := utils.Lookup[bool](data, "watch"); ok {
		dict.Watch = val
	}
}

func extractExportConfig(data map[string]any, export *ExportConfig) {
	if val, ok := utils.Lookup[string](data, "lang"); ok {
		export.Lang = val
	}
	if val, ok := utils.Lookup[string](data, "default_range"); ok {
		export.DefaultRange = val
	}
	if val, ok := utils.ExtractInt(data, "triangle_limit"); ok {
		export.TriangleLimit = val
	}
	if val, ok := utils.ExtractFloat64(data, "glb_size_limit_mb"); ok {
		export.GLBSizeLimitMB = val
	}
	if val, ok := utils.Lookup[string](data, "author"); ok {
		export.Author = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_text_length"); ok {
		server.MaxTextLength = val
	}
	if val, ok := utils.ExtractInt(data, "complete_limit"); ok {
		server.CompleteLimit = val
	}
	if val, ok := utils.ExtractInt(data, "reload_every"); ok {
		server.ReloadEvery = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// UpdateSuggest changes the suggestion values and saves to file.
// nil arguments keep the current value.
func (c *Config) UpdateSuggest(configPath string, threshold *float64, maxSuggestions *int, metric *string) error {
	s := &c.Suggest
	if threshold != nil {
		s.Threshold = *threshold
	}
	if maxSuggestions != nil {
		s.MaxSuggestions = *maxSuggestions
	}
	if metric != nil {
		s.Metric = *metric
	}
	return SaveConfig(c, configPath)
}
