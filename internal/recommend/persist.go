package recommend

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Factor matrix file names inside the data directory.
const (
	userMatrixFile = "users.mat"
	itemMatrixFile = "items.mat"
)

// SaveMatrices persists the paired factor matrices to dir. Each file is
// written to a temporary file and renamed into place, so readers either see
// the old matrices or the new ones, never a partial write.
func SaveMatrices(dir string, users, items *Matrix) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := saveMatrix(filepath.Join(dir, userMatrixFile), users); err != nil {
		return fmt.Errorf("saving user matrix: %w", err)
	}
	if err := saveMatrix(filepath.Join(dir, itemMatrixFile), items); err != nil {
		return fmt.Errorf("saving item matrix: %w", err)
	}
	return nil
}

// LoadMatrices loads the persisted factor matrices from dir. Returns
// ErrNotTrained if no matrices have been persisted yet.
func LoadMatrices(dir string) (users, items *Matrix, err error) {
	users, err = loadMatrix(filepath.Join(dir, userMatrixFile))
	if err != nil {
		return nil, nil, err
	}
	items, err = loadMatrix(filepath.Join(dir, itemMatrixFile))
	if err != nil {
		return nil, nil, err
	}
	return users, items, nil
}

func saveMatrix(path string, m *Matrix) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(m); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding matrix: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing matrix file: %w", err)
	}
	return nil
}

func loadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrNotTrained
	}
	if err != nil {
		return nil, fmt.Errorf("opening matrix file: %w", err)
	}
	defer f.Close()

	m := &Matrix{}
	if err := gob.NewDecoder(f).Decode(m); err != nil {
		return nil, fmt.Errorf("decoding matrix file %s: %w", path, err)
	}
	return m, nil
}
