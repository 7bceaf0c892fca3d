package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Editor.Command != "nvim" {
		t.Errorf("Editor.Command = %q, want 'nvim'", cfg.Editor.Command)
	}
	if cfg.Editor.RuntimeEnv != "OAK_RUNTIME" {
		t.Errorf("Editor.RuntimeEnv = %q, want 'OAK_RUNTIME'", cfg.Editor.RuntimeEnv)
	}
	if cfg.Editor.ToolEnv != "OAK_TOOL_PATH" {
		t.Errorf("Editor.ToolEnv = %q, want 'OAK_TOOL_PATH'", cfg.Editor.ToolEnv)
	}
	if cfg.TickInterval != 10 {
		t.Errorf("TickInterval = %d, want 10", cfg.TickInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want 'info'", cfg.LogLevel)
	}
	if len(cfg.Manifests) == 0 || cfg.Manifests[0].File != "go.mod" {
		t.Errorf("Manifests[0] should be go.mod, got %+v", cfg.Manifests)
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("OAK_CONFIG_DIR", "")

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if dir := defaultDataDir(); dir != "/custom/config/oak" {
		t.Errorf("with XDG_CONFIG_HOME: got %q, want '/custom/config/oak'", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	if dir := defaultDataDir(); !strings.HasSuffix(dir, filepath.Join(".config", "oak")) {
		t.Errorf("without XDG_CONFIG_HOME: got %q, expected to end with '.config/oak'", dir)
	}

	t.Setenv("OAK_CONFIG_DIR", "/override")
	if dir := defaultDataDir(); dir != "/override" {
		t.Errorf("with OAK_CONFIG_DIR: got %q, want '/override'", dir)
	}
}

func TestDataDirFiles(t *testing.T) {
	cfg := &Config{DataDir: "/test/data"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config", cfg.ConfigFile(), "/test/data/config.yaml"},
		{"prefs", cfg.PrefsFile(), "/test/data/prefs.json"},
		{"log", cfg.LogFile(), "/test/data/oak.log"},
		{"rc", cfg.RCFile(), "/test/data/oakrc.vim"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s file = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestEnsureDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "oak-test", "data")
	cfg := &Config{DataDir: dataDir}

	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir() error: %v", err)
	}

	info, err := os.Stat(dataDir)
	if err != nil {
		t.Fatalf("data dir does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("data dir is not a directory")
	}

	rc, err := os.ReadFile(cfg.RCFile())
	if err != nil {
		t.Fatalf("rc file not written: %v", err)
	}
	if !strings.Contains(string(rc), "OakEasyMode") {
		t.Error("rc file should define OakEasyMode")
	}

	// A user-edited rc survives later runs.
	if err := os.WriteFile(cfg.RCFile(), []byte("\" mine\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		t.Errorf("second EnsureDataDir() error: %v", err)
	}
	rc, _ = os.ReadFile(cfg.RCFile())
	if string(rc) != "\" mine\n" {
		t.Errorf("rc file was overwritten: %q", rc)
	}
}

func TestManifestFor(t *testing.T) {
	root := t.TempDir()
	cfg := Default()

	m, found := cfg.ManifestFor(root)
	if found {
		t.Error("ManifestFor() found a manifest in an empty dir")
	}
	if m.File != "go.mod" {
		t.Errorf("fallback manifest = %q, want go.mod", m.File)
	}

	if err := os.WriteFile(filepath.Join(root, "Cargo.toml"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	m, found = cfg.ManifestFor(root)
	if !found || m.File != "Cargo.toml" {
		t.Errorf("ManifestFor() = %q, %v, want Cargo.toml, true", m.File, found)
	}
	if got := m.Command(CommandTest); strings.Join(got, " ") != "cargo test" {
		t.Errorf("Command(test) = %v", got)
	}
	if got := m.Command(CommandKind("deploy")); got != nil {
		t.Errorf("Command(deploy) = %v, want nil", got)
	}
}

func TestManifestFiles(t *testing.T) {
	cfg := Default()
	files := cfg.ManifestFiles()
	want := []string{"go.mod", "Cargo.toml", "Makefile"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("ManifestFiles() = %v, want %v", files, want)
	}
}

func TestValidateManifests(t *testing.T) {
	tests := []struct {
		name      string
		manifests []Manifest
		wantErr   bool
	}{
		{"defaults", DefaultManifests(), false},
		{"empty list", nil, false},
		{"missing file", []Manifest{{Build: []string{"make"}}}, true},
		{"duplicate", []Manifest{{File: "go.mod"}, {File: "go.mod"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManifests(tt.manifests)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateManifests() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
