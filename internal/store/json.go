// Package store persists session summaries.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/LdDl/footfall-go/session"
	"github.com/pkg/errors"
)

// WriteJSON writes summary as indented JSON, creating parent directories when needed
func WriteJSON(path string, summary session.Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "Can't create directory %s", dir)
		}
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Can't encode summary")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "Can't write summary to %s", path)
	}
	return nil
}

// ReadJSON reads summary written by WriteJSON
func ReadJSON(path string) (session.Summary, error) {
	var summary session.Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return summary, errors.Wrapf(err, "Can't read summary from %s", path)
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		return summary, errors.Wrapf(err, "Can't decode summary from %s", path)
	}
	return summary, nil
}
