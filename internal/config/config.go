// Package config handles application configuration.
package config

import (
	_ "embed"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Font size bounds shared by the editor and builder surfaces.
const (
	MinFontSize     = 0
	MaxFontSize     = 50
	DefaultFontSize = 12
)

// File names inside the data directory.
const (
	configFileName = "config.yaml"
	prefsFileName  = "prefs.json"
	logFileName    = "oak.log"
	rcFileName     = "oakrc.vim"
)

//go:embed oakrc.vim
var defaultRC []byte

// CommandKind names one of the per-project builder commands.
type CommandKind string

const (
	CommandRun   CommandKind = "run"
	CommandBuild CommandKind = "build"
	CommandTest  CommandKind = "test"
	CommandClean CommandKind = "clean"
)

// Config holds application configuration.
type Config struct {
	// DataDir is the directory for persistent data (prefs, logs, editor rc)
	DataDir string `yaml:"-"`

	// Editor configures the hosted editor process
	Editor EditorConfig `yaml:"editor"`

	// TickInterval is the event loop sleep between polls (in milliseconds)
	TickInterval int `yaml:"tick_interval_ms"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// Manifests lists the files that mark a project root, in priority order,
	// together with the builder commands for that kind of project
	Manifests []Manifest `yaml:"manifests"`

	// Keys contains keybinding configuration
	Keys KeyBindings `yaml:"keys"`
}

// EditorConfig describes how the editor child is started.
type EditorConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// RuntimeEnv names the variable pointing at the editor runtime root.
	RuntimeEnv string `yaml:"runtime_env"`

	// ToolEnv names the variable pointing at the companion tool.
	ToolEnv string `yaml:"tool_env"`
	Tool    string `yaml:"tool"`
}

// Manifest maps a project manifest file to its builder commands.
type Manifest struct {
	File  string   `yaml:"file"`
	Run   []string `yaml:"run"`
	Build []string `yaml:"build"`
	Test  []string `yaml:"test"`
	Clean []string `yaml:"clean"`

	// New scaffolds a project in an empty directory. Optional.
	New []string `yaml:"new"`
}

// KeyBindings holds all configurable keybindings.
type KeyBindings struct {
	NewProject string `yaml:"new_project"`
	Import     string `yaml:"import"`
	Remove     string `yaml:"remove"`
	Run        string `yaml:"run"`
	Build      string `yaml:"build"`
	Test       string `yaml:"test"`
	Clean      string `yaml:"clean"`
	Stop       string `yaml:"stop"`
	EasyMode   string `yaml:"easy_mode"`
	FontDec    string `yaml:"font_dec"`
	FontInc    string `yaml:"font_inc"`
	Save       string `yaml:"save"`
	Undo       string `yaml:"undo"`
	Redo       string `yaml:"redo"`
	Close      string `yaml:"close"`
	Focus      string `yaml:"focus"`
	Quit       string `yaml:"quit"`
	NavUp      string `yaml:"nav_up"`
	NavDown    string `yaml:"nav_down"`
	Toggle     string `yaml:"toggle"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Editor: EditorConfig{
			Command:    "nvim",
			RuntimeEnv: "OAK_RUNTIME",
			ToolEnv:    "OAK_TOOL_PATH",
			Tool:       "gopls",
		},
		TickInterval: 10,
		LogLevel:     "info",
		Manifests:    DefaultManifests(),
		Keys:         DefaultKeyBindings(),
	}
}

// DefaultManifests returns the built-in project kinds.
func DefaultManifests() []Manifest {
	return []Manifest{
		{
			File:  "go.mod",
			Run:   []string{"go", "run", "."},
			Build: []string{"go", "build", "./..."},
			Test:  []string{"go", "test", "./..."},
			Clean: []string{"go", "clean", "-cache"},
		},
		{
			File:  "Cargo.toml",
			Run:   []string{"cargo", "run"},
			Build: []string{"cargo", "build", "--release"},
			Test:  []string{"cargo", "test"},
			Clean: []string{"cargo", "clean"},
			New:   []string{"cargo", "init"},
		},
		{
			File:  "Makefile",
			Run:   []string{"make", "run"},
			Build: []string{"make"},
			Test:  []string{"make", "test"},
			Clean: []string{"make", "clean"},
		},
	}
}

// DefaultKeyBindings returns the default keybindings.
// Editor-facing combinations are avoided since keys reach the editor otherwise.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		NewProject: "f2",
		Import:     "f3",
		Remove:     "f4",
		Run:        "f5",
		Build:      "f6",
		Test:       "f7",
		Clean:      "f8",
		Stop:       "f9",
		EasyMode:   "f10",
		FontDec:    "f11",
		FontInc:    "f12",
		Save:       "ctrl+s",
		Undo:       "ctrl+z",
		Redo:       "ctrl+y",
		Close:      "ctrl+w",
		Focus:      "ctrl+t",
		Quit:       "ctrl+q",
		NavUp:      "k",
		NavDown:    "j",
		Toggle:     "enter",
	}
}

// Load loads configuration from the config file, falling back to defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(cfg.ConfigFile())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	mergeConfig(cfg, &fileCfg)

	if err := ValidateKeys(&cfg.Keys); err != nil {
		return nil, err
	}
	if err := ValidateManifests(cfg.Manifests); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges file configuration into the default configuration.
// Only non-zero values from file are applied.
func mergeConfig(dst, src *Config) {
	if src.Editor.Command != "" {
		dst.Editor.Command = src.Editor.Command
	}
	if len(src.Editor.Args) > 0 {
		dst.Editor.Args = src.Editor.Args
	}
	if src.Editor.RuntimeEnv != "" {
		dst.Editor.RuntimeEnv = src.Editor.RuntimeEnv
	}
	if src.Editor.ToolEnv != "" {
		dst.Editor.ToolEnv = src.Editor.ToolEnv
	}
	if src.Editor.Tool != "" {
		dst.Editor.Tool = src.Editor.Tool
	}
	if src.TickInterval > 0 {
		dst.TickInterval = src.TickInterval
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	// A manifest list in the file replaces the built-in one entirely so users
	// can control priority order.
	if len(src.Manifests) > 0 {
		dst.Manifests = src.Manifests
	}

	mergeKeyBindings(&dst.Keys, &src.Keys)
}

// mergeKeyBindings merges keybindings from src into dst.
func mergeKeyBindings(dst, src *KeyBindings) {
	pairs := []struct {
		dst *string
		src string
	}{
		{&dst.NewProject, src.NewProject},
		{&dst.Import, src.Import},
		{&dst.Remove, src.Remove},
		{&dst.Run, src.Run},
		{&dst.Build, src.Build},
		{&dst.Test, src.Test},
		{&dst.Clean, src.Clean},
		{&dst.Stop, src.Stop},
		{&dst.EasyMode, src.EasyMode},
		{&dst.FontDec, src.FontDec},
		{&dst.FontInc, src.FontInc},
		{&dst.Save, src.Save},
		{&dst.Undo, src.Undo},
		{&dst.Redo, src.Redo},
		{&dst.Close, src.Close},
		{&dst.Focus, src.Focus},
		{&dst.Quit, src.Quit},
		{&dst.NavUp, src.NavUp},
		{&dst.NavDown, src.NavDown},
		{&dst.Toggle, src.Toggle},
	}
	for _, p := range pairs {
		if p.src != "" {
			*p.dst = p.src
		}
	}
}

// defaultDataDir returns the default data directory.
// Priority: OAK_CONFIG_DIR > $XDG_CONFIG_HOME/oak > ~/.config/oak
func defaultDataDir() string {
	if dir := os.Getenv("OAK_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "oak")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oak"
	}
	return filepath.Join(home, ".config", "oak")
}

// ConfigFile returns the path to the config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, configFileName)
}

// PrefsFile returns the path to the persisted UI preferences.
func (c *Config) PrefsFile() string {
	return filepath.Join(c.DataDir, prefsFileName)
}

// LogFile returns the path to the log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, logFileName)
}

// RCFile returns the path to the editor startup file.
func (c *Config) RCFile() string {
	return filepath.Join(c.DataDir, rcFileName)
}

// EnsureDataDir creates the data directory if it doesn't exist and writes
// the editor startup file on first run. An existing rc file is left alone so
// users can modify it.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	rc := c.RCFile()
	if _, err := os.Stat(rc); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(rc, defaultRC, 0644)
}

// ManifestFiles returns the manifest file names in priority order.
func (c *Config) ManifestFiles() []string {
	files := make([]string, 0, len(c.Manifests))
	for _, m := range c.Manifests {
		files = append(files, m.File)
	}
	return files
}

// ManifestFor returns the first manifest present in root. When none is
// present the first configured manifest is used, so registered roots without
// a manifest still get commands.
func (c *Config) ManifestFor(root string) (Manifest, bool) {
	for _, m := range c.Manifests {
		if _, err := os.Stat(filepath.Join(root, m.File)); err == nil {
			return m, true
		}
	}
	if len(c.Manifests) > 0 {
		return c.Manifests[0], false
	}
	return Manifest{}, false
}

// Command returns the argv for kind, or nil when the manifest has none.
func (m Manifest) Command(kind CommandKind) []string {
	switch kind {
	case CommandRun:
		return m.Run
	case CommandBuild:
		return m.Build
	case CommandTest:
		return m.Test
	case CommandClean:
		return m.Clean
	default:
		return nil
	}
}
