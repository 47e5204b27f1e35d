package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore keeps file bytes in a local directory.
type DirStore struct {
	root string
}

// NewDirStore creates root if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

// Put writes data to a temp file in root and renames it to key.
func (d *DirStore) Put(_ context.Context, key string, data []byte) (string, error) {
	if key == "" || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	path := filepath.Join(d.root, key)

	tmp, err := os.CreateTemp(d.root, "."+key+".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

func (d *DirStore) Get(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobMissing
	}
	return data, err
}

func (d *DirStore) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
