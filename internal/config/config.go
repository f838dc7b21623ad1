// Package config loads snipdeck settings from the home directory and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/snipdeck/snipdeck/internal/fileutil"
	"github.com/snipdeck/snipdeck/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	DirName       = ".snipdeck"
	SettingsFile  = "settings.yaml"
	ScratchSubdir = "snippets"

	EnvHome     = "SNIPDECK_HOME"
	EnvUserDir  = "SNIPDECK_USER_DIR"
	EnvLanguage = "SNIPDECK_LANGUAGE"
)

// Settings is the persisted user configuration.
type Settings struct {
	UserDir        string   `yaml:"userDir,omitempty"`
	WorkspaceDir   string   `yaml:"workspaceDir,omitempty"`
	Workspaces     []string `yaml:"workspaces,omitempty"`
	FixedLanguages []string `yaml:"fixedLanguages,omitempty"`
	ScopeLanguages []string `yaml:"scopeLanguages,omitempty"`
	Editor         string   `yaml:"editor,omitempty"`
}

// Config is the resolved configuration of one invocation.
type Config struct {
	Settings `yaml:",inline"`

	// Home holds settings, session state and edit buffers.
	Home string `yaml:"-"`
	// Language is the language of the active editor, if known.
	Language string `yaml:"-"`
}

type LoadOptions struct {
	Home string
	// EnvFiles are dotenv files loaded before the environment is read.
	// Missing files are ignored.
	EnvFiles []string
}

// Load resolves the configuration. Values set in the environment win over
// settings.yaml.
func Load(opts LoadOptions) (*Config, error) {
	for _, file := range opts.EnvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	home := strings.TrimSpace(opts.Home)
	if home == "" {
		home = os.Getenv(EnvHome)
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, DirName)
	}

	cfg := &Config{Home: home}
	settings, err := cfg.ReadSettings()
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings

	if dir := os.Getenv(EnvUserDir); dir != "" {
		cfg.UserDir = dir
	}
	if cfg.UserDir == "" {
		cfg.UserDir = DefaultUserDir(runtime.GOOS, os.Getenv)
	}
	cfg.UserDir = expandHome(cfg.UserDir)
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = store.DefaultConfigSubdir
	}
	cfg.Language = strings.TrimSpace(os.Getenv(EnvLanguage))
	cfg.FixedLanguages = fileutil.DedupeStrings(cfg.FixedLanguages)
	cfg.ScopeLanguages = fileutil.DedupeStrings(cfg.ScopeLanguages)

	return cfg, nil
}

func (c *Config) SettingsPath() string {
	return filepath.Join(c.Home, SettingsFile)
}

// ScratchDir is where external edit buffers are written.
func (c *Config) ScratchDir() string {
	return filepath.Join(c.Home, ScratchSubdir)
}

// ReadSettings returns the settings stored in settings.yaml, without any
// environment override. A missing file yields empty settings.
func (c *Config) ReadSettings() (Settings, error) {
	var settings Settings
	data, err := os.ReadFile(c.SettingsPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to parse %s: %w", c.SettingsPath(), err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Settings{}, fmt.Errorf("failed to read %s: %w", c.SettingsPath(), err)
	}
	return settings, nil
}

// SaveSettings writes settings to settings.yaml.
func (c *Config) SaveSettings(settings Settings) error {
	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return fileutil.WriteIfChanged(c.SettingsPath(), data)
}

// UpdateFixedLanguages adds and removes pinned picker languages, both in
// settings.yaml and in c. Only the stored settings are rewritten, so
// overrides from flags and the environment never reach the file.
func (c *Config) UpdateFixedLanguages(add, remove []string) error {
	stored, err := c.ReadSettings()
	if err != nil {
		return err
	}
	stored.FixedLanguages = editList(stored.FixedLanguages, add, remove)
	if err := c.SaveSettings(stored); err != nil {
		return err
	}
	c.FixedLanguages = editList(c.FixedLanguages, add, remove)
	return nil
}

func editList(list, add, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, id := range remove {
		drop[strings.TrimSpace(id)] = true
	}
	out := make([]string, 0, len(list)+len(add))
	for _, id := range append(append([]string(nil), list...), add...) {
		id = strings.TrimSpace(id)
		if id == "" || drop[id] {
			continue
		}
		out = append(out, id)
	}
	return fileutil.DedupeStrings(out)
}

// Layout builds the group store layout. Explicit workspace roots win over the
// configured ones; with neither, the current directory is the only workspace.
func (c *Config) Layout(workspaces []string) (store.Layout, error) {
	roots := workspaces
	if len(roots) == 0 {
		roots = c.Workspaces
	}
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return store.Layout{}, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		roots = []string{cwd}
	}

	folders := make(store.StaticFolders, 0, len(roots))
	for _, root := range fileutil.DedupeStrings(roots) {
		abs, err := filepath.Abs(expandHome(root))
		if err != nil {
			return store.Layout{}, fmt.Errorf("invalid workspace %s: %w", root, err)
		}
		folders = append(folders, store.Workspace{Name: filepath.Base(abs), Root: abs})
	}

	return store.Layout{
		UserDir:      c.UserDir,
		ConfigSubdir: c.WorkspaceDir,
		Folders:      folders,
	}, nil
}

// DefaultUserDir is the user snippet directory of the editor on goos.
func DefaultUserDir(goos string, getenv func(string) string) string {
	home := getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	switch goos {
	case "windows":
		appData := getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Code", "User", "snippets")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Code", "User", "snippets")
	default:
		configHome := getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "Code", "User", "snippets")
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
