package jsonfile

import (
	"context"
	"encoding/json"
	"os"

	"github.com/banisterious/obsidian-oneirometrics-sub001/application/ports"
	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// ViewStateStore persists the view's zoom, pan, and filters as JSON
type ViewStateStore struct {
	path string
}

// NewViewStateStore creates a store backed by path
func NewViewStateStore(path string) *ViewStateStore {
	return &ViewStateStore{path: path}
}

// Load implements ports.ViewStateRepository. Returns (nil, nil) when
// nothing has been saved yet or the file is unreadable.
func (s *ViewStateStore) Load(ctx context.Context) (*ports.ViewStateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelledError("loading view state")
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("reading view state", err)
	}
	var record ports.ViewStateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, nil
	}
	return &record, nil
}

// Save implements ports.ViewStateRepository
func (s *ViewStateStore) Save(ctx context.Context, record *ports.ViewStateRecord) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCancelledError("saving view state")
	}
	if record == nil {
		return errors.NewValidationError("view state record cannot be nil")
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.NewStorageError("encoding view state", err)
	}
	return writeAtomic(s.path, data)
}
