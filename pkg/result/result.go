// Package result persists model responses to disk.
package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Response is one model's completion for a prompt.
type Response struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}

// Summary is the JSON record of a multi-model prompt run.
type Summary struct {
	RunID      string        `json:"run_id"`
	PromptName string        `json:"prompt_name"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	Responses  []Response    `json:"responses"`
	Files      []string      `json:"files,omitempty"`
}

// NewSummary builds a Summary whose RunID is derived from the start time and
// prompt name.
func NewSummary(promptName string, start time.Time, responses []Response) *Summary {
	return &Summary{
		RunID:      fmt.Sprintf("%s-%s", start.Format("20060102-150405"), sanitize(promptName)),
		PromptName: promptName,
		StartTime:  start,
		Duration:   time.Since(start),
		Responses:  responses,
	}
}

// sanitize replaces characters that are unsafe in file names with '_'.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '.' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// Filename returns "<stem>_<provider>_<model>.md" with unsafe characters in
// each part replaced by '_'.
func Filename(stem, provider, model string) string {
	return fmt.Sprintf("%s_%s_%s.md", sanitize(stem), sanitize(provider), sanitize(model))
}

// WriteResponse writes r.Text to Filename(stem, r.Provider, r.Model) inside
// outDir and returns the path. outDir is created if needed.
func WriteResponse(outDir, stem string, r Response) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	path := filepath.Join(outDir, Filename(stem, r.Provider, r.Model))
	if err := os.WriteFile(path, []byte(r.Text), 0o644); err != nil {
		return "", fmt.Errorf("writing response to %s: %w", path, err)
	}
	return path, nil
}

// DefaultPath returns the default summary file path for a run.
func DefaultPath(outputDir, promptName string, startTime time.Time) string {
	filename := fmt.Sprintf("%s-%s.json", startTime.Format("20060102-150405"), sanitize(promptName))
	return filepath.Join(outputDir, filename)
}

// Save writes the Summary as pretty-printed JSON to the given path.
// Parent directories are created automatically.
func (s *Summary) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating result directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary to %s: %w", path, err)
	}

	return nil
}
