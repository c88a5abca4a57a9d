package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"toonpull/models"
	"toonpull/parser"
)

// Settings holds the pipeline configuration plus the series worklist.
// Loaded from ~/.config/toonpull/settings.json; a template is created on
// first run.
type Settings struct {
	DownloadDir     string          `json:"download_dir"`
	MaxWorkers      int             `json:"max_workers"`
	UseBrowser      bool            `json:"use_browser"`
	BrowserWaitSec  float64         `json:"browser_wait_seconds"`
	ValidateURLs    bool            `json:"validate_urls"`
	MaxImages       int             `json:"max_images"`
	ChapterDelaySec float64         `json:"chapter_delay_seconds"`
	CookieFile      string          `json:"cookie_file"`
	Series          []models.Series `json:"series"`
}

// DefaultSettings returns the settings template written on first run.
func DefaultSettings() Settings {
	return Settings{
		DownloadDir:     "~/Downloads/toonpull",
		MaxWorkers:      6,
		BrowserWaitSec:  1.5,
		MaxImages:       100,
		ChapterDelaySec: 1.0,
		Series:          []models.Series{},
	}
}

// BrowserWait returns the post-load settle duration for the rendered fetcher.
func (s *Settings) BrowserWait() time.Duration {
	return time.Duration(s.BrowserWaitSec * float64(time.Second))
}

// ChapterDelay returns the inter-chapter pacing interval.
func (s *Settings) ChapterDelay() time.Duration {
	return time.Duration(s.ChapterDelaySec * float64(time.Second))
}

// applyDefaults fills zero values so a hand-edited file with missing keys
// still produces a runnable configuration.
func (s *Settings) applyDefaults() {
	def := DefaultSettings()
	if s.DownloadDir == "" {
		s.DownloadDir = def.DownloadDir
	}
	if s.MaxWorkers < 1 {
		s.MaxWorkers = def.MaxWorkers
	}
	if s.MaxImages < 1 {
		s.MaxImages = def.MaxImages
	}
	if s.BrowserWaitSec < 0 {
		s.BrowserWaitSec = 0
	}
	if s.ChapterDelaySec < 0 {
		s.ChapterDelaySec = 0
	}
}

// LoadSettings reads the settings file, creating the config directory and a
// template file when missing.
func LoadSettings() (*Settings, error) {
	settingsFile, err := verifyConfigFiles()
	if err != nil {
		return nil, fmt.Errorf("error verifying config files: %w", err)
	}

	file, err := os.Open(settingsFile)
	if err != nil {
		return nil, fmt.Errorf("error loading settings file: %w", err)
	}
	defer file.Close()

	byteValues, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(byteValues, &settings); err != nil {
		return nil, fmt.Errorf("error unmarshalling settings: %w", err)
	}

	settings.applyDefaults()
	return &settings, nil
}

// SaveSettings writes settings to ~/.config/toonpull/settings.json.
func SaveSettings(settings Settings) error {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return fmt.Errorf("error verifying config directory: %w", err)
	}

	settingsFile := filepath.Join(configDir, "settings.json")

	jsonData, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(settingsFile, jsonData, 0644)
}

// check config directory exists or create it
func verifyConfigDirectory() (string, error) {
	configDirectory, expandError := parser.ExpandPath("~/.config/toonpull")
	if expandError != nil {
		return "", fmt.Errorf("cannot verify local configuration directory: %w", expandError)
	}

	_, err := os.Stat(configDirectory)

	if os.IsNotExist(err) {
		if err := os.MkdirAll(configDirectory, 0755); err != nil {
			return "", fmt.Errorf("error creating directory %s: %w", configDirectory, err)
		}
		log.Printf("[Config] Directory %s created", configDirectory)
	} else if err != nil {
		return "", fmt.Errorf("error checking directory %s: %w", configDirectory, err)
	}

	return configDirectory, nil
}

// check settings file exists or create a template
func verifyConfigFiles() (string, error) {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return "", err
	}

	settingsFile := filepath.Join(configDir, "settings.json")

	_, err = os.Stat(settingsFile)

	if os.IsNotExist(err) {
		log.Printf("[Config] Settings file not found, creating template at '%s'", settingsFile)

		if saveErr := SaveSettings(DefaultSettings()); saveErr != nil {
			return "", fmt.Errorf("error creating settings file: %w", saveErr)
		}
	} else if err != nil {
		return "", fmt.Errorf("error checking file existence: %w", err)
	}

	return settingsFile, nil
}
