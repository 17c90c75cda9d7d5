// Package legacy reads the score history written by the previous persistence layer.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ScoresKey holds the historical score log.
	ScoresKey = "quizScores"
	// UsernamesKey holds the user id to username mapping.
	UsernamesKey = "nameForUserId"
)

// Store is the process-wide key/value state the migration reads from.
type Store interface {
	// GetData decodes the value stored under key into dst. It reports false when
	// no value exists.
	GetData(ctx context.Context, key string, dst any) (bool, error)
}

// FileStore keeps each key as <dir>/<key>.json.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) GetData(ctx context.Context, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return false, fmt.Errorf("legacy.GetData: invalid key %q", key)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, key+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("legacy.GetData: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("legacy.GetData: decode %s: %w", key, err)
	}
	return true, nil
}
