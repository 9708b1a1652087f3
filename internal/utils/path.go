package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// PathResolver finds the files dotlabel ships with (the seed word list) and
// the per-user config location, independent of how the binary was launched.
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      configDirFor(homeDir),
	}

	log.Debugf("PathResolver initialized: exec=%s, execDir=%s, configDir=%s",
		pr.executablePath, pr.executableDir, pr.configDir)

	return pr, nil
}

// configDirFor returns the appropriate config directory for the platform
func configDirFor(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", "dotlabel")
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "dotlabel")
		}
		return filepath.Join(homeDir, ".config", "dotlabel")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "dotlabel")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "dotlabel")
	default:
		return filepath.Join(homeDir, ".dotlabel")
	}
}

// candidates lists the places a bundled data file may live, in order of preference:
// 1. The path itself when absolute
// 2. Next to the executable
// 3. Relative to current working directory
// 4. data/ next to the executable, its parent, and the config dir
func (pr *PathResolver) candidates(name string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}

	paths := []string{filepath.Join(pr.executableDir, name)}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, name))
	}
	base := filepath.Base(name)
	paths = append(paths,
		filepath.Join(pr.executableDir, "data", base),
		filepath.Join(filepath.Dir(pr.executableDir), "data", base),
		filepath.Join(pr.configDir, "data", base),
	)
	return paths
}

// FindDataFile resolves a bundled data file such as the seed word list.
// Returns os.ErrNotExist with the most likely path when nothing matched.
func (pr *PathResolver) FindDataFile(name string) (string, error) {
	paths := pr.candidates(name)
	for _, path := range paths {
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			log.Debugf("Found data file: %s", path)
			return path, nil
		}
		log.Debugf("Data file candidate not found: %s", path)
	}
	return paths[0], os.ErrNotExist
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()

	info := map[string]string{
		"executable_path": pr.executablePath,
		"executable_dir":  pr.executableDir,
		"current_dir":     cwd,
		"home_dir":        pr.homeDir,
		"config_dir":      pr.configDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}

	for _, envVar := range []string{"PWD", "HOME", "XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}
