package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserPreferences are the UI-style settings remembered between runs in
// ~/.upgrade-planner/preferences.json. They are applied on top of Config and
// below command-line flags.
type UserPreferences struct {
	BuilderBoostPercent *float64                `json:"builder_boost_percent,omitempty"`
	Heuristic           string                  `json:"heuristic,omitempty"`
	ActiveWindow        *ActiveWindowPreference `json:"active_window,omitempty"`

	// Last inventory export used, so `plan` can run without --inventory
	LastInventoryPath string `json:"last_inventory_path,omitempty"`
}

// ActiveWindowPreference mirrors ActiveWindowConfig for the preferences file
type ActiveWindowPreference struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone,omitempty"`
}

// PreferencesHandler manages loading and saving user preferences
type PreferencesHandler struct {
	path string
}

// NewPreferencesHandler creates a handler for ~/.upgrade-planner/preferences.json
func NewPreferencesHandler() (*PreferencesHandler, error) {
	dir := PlannerHome()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preferences directory: %w", err)
	}
	return &PreferencesHandler{path: filepath.Join(dir, "preferences.json")}, nil
}

// NewPreferencesHandlerAt creates a handler for an explicit file path
func NewPreferencesHandlerAt(path string) *PreferencesHandler {
	return &PreferencesHandler{path: path}
}

// Load reads the preferences from disk; a missing file yields empty preferences
func (h *PreferencesHandler) Load() (*UserPreferences, error) {
	if _, err := os.Stat(h.path); os.IsNotExist(err) {
		return &UserPreferences{}, nil
	}

	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var prefs UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return &prefs, nil
}

// Save writes the preferences to disk
func (h *PreferencesHandler) Save(prefs *UserPreferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// Update loads, mutates and saves the preferences
func (h *PreferencesHandler) Update(mutate func(p *UserPreferences)) error {
	prefs, err := h.Load()
	if err != nil {
		return err
	}
	mutate(prefs)
	return h.Save(prefs)
}

// Path returns the preferences file location
func (h *PreferencesHandler) Path() string {
	return h.path
}

// ApplyPreferences overlays stored preferences onto the planner section
func ApplyPreferences(cfg *Config, prefs *UserPreferences) {
	if prefs == nil {
		return
	}
	if prefs.BuilderBoostPercent != nil {
		cfg.Planner.BuilderBoostPercent = *prefs.BuilderBoostPercent
	}
	if prefs.Heuristic != "" {
		cfg.Planner.Heuristic = prefs.Heuristic
	}
	if w := prefs.ActiveWindow; w != nil {
		cfg.Planner.ActiveWindow = ActiveWindowConfig{
			Enabled:  w.Enabled,
			Start:    w.Start,
			End:      w.End,
			Timezone: w.Timezone,
		}
	}
}
