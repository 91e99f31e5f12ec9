package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/park285/cheese-clock/internal/game"
)

// FileStore keeps one snapshot per file in a directory.
type FileStore struct {
	dir   string
	codec Codec
}

// NewFileStore creates dir if needed. Files are named <id>.<codec>.
func NewFileStore(dir string, codec Codec) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("snapshot dir required")
	}
	if codec == nil {
		codec = CBOR
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir, codec: codec}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+"."+s.codec.Name())
}

func (s *FileStore) Save(_ context.Context, id string, snap game.Snapshot) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	return writeFile(s.path(id), s.codec, snap)
}

func (s *FileStore) Load(_ context.Context, id string) (game.Snapshot, error) {
	id, err := cleanID(id)
	if err != nil {
		return game.Snapshot{}, err
	}
	return readFile(s.path(id), s.codec)
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	id, err := cleanID(id)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	ext := "." + s.codec.Name()
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(out)
	return out, nil
}

// WriteFile saves a snapshot to path, as JSON when the extension is .json
// and CBOR otherwise.
func WriteFile(path string, snap game.Snapshot) error {
	return writeFile(path, codecForPath(path), snap)
}

// ReadFile is the inverse of WriteFile.
func ReadFile(path string) (game.Snapshot, error) {
	return readFile(path, codecForPath(path))
}

func codecForPath(path string) Codec {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return CBOR
}

func writeFile(path string, codec Codec, snap game.Snapshot) error {
	raw, err := codec.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func readFile(path string, codec Codec) (game.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return game.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return game.Snapshot{}, err
	}
	var snap game.Snapshot
	if err := codec.Unmarshal(raw, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}
