package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// runsDir holds one JSON summary per campaign run
func runsDir(dataDir string) string {
	return filepath.Join(dataDir, "runs")
}

// generateFilename creates a timestamped filename with the given extension.
func generateFilename(now time.Time, ext string) string {
	return now.Format("2006-01-02T15-04-05") + ext
}

// SaveRunSummary writes a JSON-serializable run summary under dataDir.
// Returns the path to the saved file.
func SaveRunSummary[T any](dataDir string, summary T) (string, error) {
	dir := runsDir(dataDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create runs dir: %w", err)
	}

	path := filepath.Join(dir, generateFilename(time.Now(), ".json"))

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}

	return path, nil
}

// LoadLatestRunSummary loads the most recent run summary under dataDir.
// Returns the data, the file it was loaded from, and any error.
func LoadLatestRunSummary[T any](dataDir string) (T, string, error) {
	var data T

	path, err := LatestRunFile(dataDir)
	if err != nil {
		return data, "", err
	}

	jsonData, err := os.ReadFile(path)
	if err != nil {
		return data, "", fmt.Errorf("failed to read run summary: %w", err)
	}
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, "", fmt.Errorf("failed to unmarshal run summary: %w", err)
	}

	return data, path, nil
}

// LatestRunFile returns the path of the most recent run summary
func LatestRunFile(dataDir string) (string, error) {
	dir := runsDir(dataDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no campaign runs recorded in %s", dataDir)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var latest string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no campaign runs recorded in %s", dataDir)
	}

	return filepath.Join(dir, latest), nil
}
