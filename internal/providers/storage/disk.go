package storage

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DiskStore keeps image files under a single root directory on the local
// filesystem. This is the default backend for small boards.
type DiskStore struct {
	root   string
	logger *zap.Logger
}

func NewDiskStore(root string, logger *zap.Logger) *DiskStore {
	return &DiskStore{root: root, logger: logger}
}

func (d *DiskStore) Save(key string, data []byte) error {
	path := filepath.Join(d.root, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	d.logger.Debug("Saved file",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Remove deletes the file for key. A missing file surfaces as an
// fs.ErrNotExist-wrapped error so callers can skip it.
func (d *DiskStore) Remove(key string) error {
	return os.Remove(filepath.Join(d.root, key))
}

func (d *DiskStore) Exists(key string) (bool, error) {
	_, err := os.Stat(filepath.Join(d.root, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (d *DiskStore) URL(key string) string {
	return "/public/img/" + key
}
