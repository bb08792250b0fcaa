package ml

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrModelNotFound is returned by Load when no trained model exists yet.
var ErrModelNotFound = errors.New("trained model not found")

// Save serializes the fitted forest to path, overwriting any prior model.
// The artifact is written to a temp sibling and renamed into place so a
// crashed run can never leave a half-written model behind.
func (f *Forest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ml: create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.gob")
	if err != nil {
		return fmt.Errorf("ml: create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("ml: encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ml: close temp model file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ml: replace model %q: %w", path, err)
	}
	return nil
}

// Load reads a previously saved forest. A missing file yields
// ErrModelNotFound.
func Load(path string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %q", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("ml: open model %q: %w", path, err)
	}
	defer file.Close()

	var forest Forest
	if err := gob.NewDecoder(file).Decode(&forest); err != nil {
		return nil, fmt.Errorf("ml: decode model %q: %w", path, err)
	}
	return &forest, nil
}
