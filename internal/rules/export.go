package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPermissions  = 0755
	filePermissions = 0644
)

// FileEngine implements Engine on top of a JSON file. It serves two
// purposes: a durable export of the active rule set (consumable as a static
// ruleset by the extension packaging), and a functioning engine backend for
// environments without a live extension connection.
type FileEngine struct {
	path string
}

// NewFileEngine creates a file-backed engine writing to path.
func NewFileEngine(path string) *FileEngine {
	return &FileEngine{path: path}
}

// Path returns the export file path.
func (e *FileEngine) Path() string {
	return e.path
}

// ListDynamicRules reads the installed rule set from the export file. A
// missing file means no rules are installed.
func (e *FileEngine) ListDynamicRules(_ context.Context) ([]Rule, error) {
	data, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rule export: %w", err)
	}

	var installed []Rule
	if err := json.Unmarshal(data, &installed); err != nil {
		return nil, fmt.Errorf("decode rule export: %w", err)
	}
	return installed, nil
}

// UpdateDynamicRules applies the removal and addition to the exported set
// and writes the file atomically.
func (e *FileEngine) UpdateDynamicRules(ctx context.Context, removeIDs []int, add []Rule) error {
	installed, err := e.ListDynamicRules(ctx)
	if err != nil {
		return err
	}

	remove := make(map[int]bool, len(removeIDs))
	for _, id := range removeIDs {
		remove[id] = true
	}

	next := make([]Rule, 0, len(installed)+len(add))
	for _, r := range installed {
		if !remove[r.ID] {
			next = append(next, r)
		}
	}
	next = append(next, add...)

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rule export: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.path), dirPermissions); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	// Write atomically so a crash never leaves a truncated export
	tempFile := e.path + ".tmp"
	if err := os.WriteFile(tempFile, data, filePermissions); err != nil {
		return fmt.Errorf("write rule export: %w", err)
	}
	if err := os.Rename(tempFile, e.path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("move rule export: %w", err)
	}

	return nil
}
