// Package snapshot persists the curriculum to a single JSON file with
// atomic replace (write to a temp file, fsync, rename). Parse failures at
// load time are fatal for the process.
package snapshot

import (
	"os"
	"path/filepath"

	"github.com/atsuhiron/lite-dist2-go/internal/clock"
	"github.com/atsuhiron/lite-dist2-go/internal/curriculum"
	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
)

// Store reads and writes curriculum snapshots at a fixed path.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Save serializes the curriculum (a value copy taken under its lock) and
// atomically replaces the snapshot file.
func (s *Store) Save(c *curriculum.Curriculum) error {
	data, err := c.Snapshot()
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return lderrors.NewSerializationError(s.Path, "cannot create temp snapshot", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return lderrors.NewSerializationError(s.Path, "cannot write snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return lderrors.NewSerializationError(s.Path, "cannot sync snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return lderrors.NewSerializationError(s.Path, "cannot close snapshot", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return lderrors.NewSerializationError(s.Path, "cannot replace snapshot", err)
	}
	return nil
}

// LoadOrCreate parses the snapshot file if it exists, or returns an empty
// curriculum if it does not. A file that exists but cannot be parsed fails
// with SerializationError.
func (s *Store) LoadOrCreate(clk clock.Clock) (*curriculum.Curriculum, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return curriculum.New(clk), nil
		}
		return nil, lderrors.NewSerializationError(s.Path, "cannot read snapshot", err)
	}
	c, err := curriculum.FromSnapshot(data, clk)
	if err != nil {
		return nil, lderrors.NewSerializationError(s.Path, "cannot rebuild curriculum", err)
	}
	return c, nil
}
