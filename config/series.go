package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"toonpull/models"
)

// seriesFile is the on-disk shape of ~/.config/toonpull/series.json, the
// standing worklist kept separate from settings so it can be edited or
// synced independently.
type seriesFile struct {
	Series []models.Series `json:"series"`
}

// LoadSeriesList reads the series worklist file, creating an empty template
// when missing.
func LoadSeriesList() ([]models.Series, error) {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(configDir, "series.json")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("[Config] Series file not found, creating template at '%s'", path)
		if saveErr := SaveSeriesList(nil); saveErr != nil {
			return nil, fmt.Errorf("error creating series file: %w", saveErr)
		}
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error loading series file: %w", err)
	}
	defer file.Close()

	byteValues, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading series file: %w", err)
	}

	var parsed seriesFile
	if err := json.Unmarshal(byteValues, &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling series file: %w", err)
	}

	return parsed.Series, nil
}

// SaveSeriesList writes the worklist to ~/.config/toonpull/series.json.
func SaveSeriesList(series []models.Series) error {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return err
	}

	if series == nil {
		series = []models.Series{}
	}

	jsonData, err := json.MarshalIndent(seriesFile{Series: series}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "series.json"), jsonData, 0644)
}

// MergeSeries appends file-based entries to the settings worklist, skipping
// URLs already present.
func MergeSeries(settings *Settings, extra []models.Series) {
	seen := make(map[string]bool, len(settings.Series))
	for _, s := range settings.Series {
		seen[s.URL] = true
	}
	for _, s := range extra {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		settings.Series = append(settings.Series, s)
	}
}
