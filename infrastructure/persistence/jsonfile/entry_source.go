// Package jsonfile implements the persistence ports against plain files
// in the journal folder: entries and cached state as JSON, the theme
// taxonomy as YAML.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/ports"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/taxonomy"
	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// EntrySource reads dream entries from a JSON file produced by the
// metrics-extraction pipeline
type EntrySource struct {
	path string
}

// NewEntrySource creates a source reading from path
func NewEntrySource(path string) *EntrySource {
	return &EntrySource{path: path}
}

// Entries implements ports.EntrySource. A missing file is an empty
// dataset, not an error.
func (s *EntrySource) Entries(ctx context.Context) ([]ports.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("loading entries")
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("reading entries file", err)
	}
	var entries []ports.RawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewStorageError("parsing entries file", err)
	}
	return entries, nil
}

// taxonomyFile is the on-disk shape of the theme taxonomy
type taxonomyFile struct {
	Clusters map[string]taxonomy.ClusterInfo `yaml:"clusters"`
	Themes   map[string]string               `yaml:"themes"`
}

// LoadTaxonomy reads a taxonomy YAML file into a StaticManager. A
// missing file yields an empty taxonomy: every node lands unclustered.
func LoadTaxonomy(path string) (*taxonomy.StaticManager, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return taxonomy.NewStaticManager(nil, nil), nil
	}
	if err != nil {
		return nil, errors.NewStorageError("reading taxonomy file", err)
	}
	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewStorageError("parsing taxonomy file", err)
	}
	return taxonomy.NewStaticManager(file.Themes, file.Clusters), nil
}
