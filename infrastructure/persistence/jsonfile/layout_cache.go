package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// LayoutCache persists node positions as a JSON map keyed by node id.
// Saves are atomic: write to a temp file, then rename over the target.
type LayoutCache struct {
	path string
}

// NewLayoutCache creates a cache backed by path
func NewLayoutCache(path string) *LayoutCache {
	return &LayoutCache{path: path}
}

// Load implements ports.LayoutCacheRepository. A missing or corrupt
// cache file yields an empty map, so a bad cache never blocks opening
// the view.
func (c *LayoutCache) Load(ctx context.Context) (map[string]valueobjects.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("loading layout cache")
	}
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return map[string]valueobjects.Position{}, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("reading layout cache", err)
	}
	var positions map[string]valueobjects.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return map[string]valueobjects.Position{}, nil
	}
	return positions, nil
}

// Save implements ports.LayoutCacheRepository
func (c *LayoutCache) Save(ctx context.Context, positions map[string]valueobjects.Position) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelledError("saving layout cache")
	}
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return errors.NewStorageError("encoding layout cache", err)
	}
	return writeAtomic(c.path, data)
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewStorageError("creating cache directory", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewStorageError("creating temp file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewStorageError("writing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("closing temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewStorageError("replacing cache file", err)
	}
	return nil
}
