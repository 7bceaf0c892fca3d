package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/oakshell/oak/internal/config"
)

// Prefs is the on-disk form of the state that survives restarts.
type Prefs struct {
	Projects   []string `json:"projects"`
	Expansions []string `json:"expansions"`
	Selection  *string  `json:"selection"`
	EasyMode   bool     `json:"easy_mode"`
	FontSize   int      `json:"font_size"`
}

// PrefsStore persists State to a JSON file.
type PrefsStore struct {
	filePath string
}

// NewPrefsStore creates a store backed by filePath.
func NewPrefsStore(filePath string) *PrefsStore {
	return &PrefsStore{filePath: filePath}
}

// Load reads the prefs file into s. A missing file leaves s untouched. A
// font size outside the allowed range is ignored.
func (p *PrefsStore) Load(s *State) error {
	data, err := os.ReadFile(p.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var prefs Prefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fmt.Errorf("decode prefs: %w", err)
	}

	s.projects = make(map[string]bool, len(prefs.Projects))
	for _, path := range prefs.Projects {
		s.projects[path] = true
	}
	s.expansions = make(map[string]bool, len(prefs.Expansions))
	for _, path := range prefs.Expansions {
		s.expansions[path] = true
	}
	s.selection = ""
	if prefs.Selection != nil {
		s.selection = *prefs.Selection
	}
	s.easyMode = prefs.EasyMode
	if prefs.FontSize >= config.MinFontSize && prefs.FontSize <= config.MaxFontSize {
		s.fontSize = prefs.FontSize
	}
	return nil
}

// Save writes s to the prefs file.
func (p *PrefsStore) Save(s *State) error {
	prefs := Prefs{
		Projects:   s.Projects(),
		Expansions: s.Expansions(),
		EasyMode:   s.easyMode,
		FontSize:   s.fontSize,
	}
	if s.selection != "" {
		sel := s.selection
		prefs.Selection = &sel
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.filePath, data, 0644)
}
