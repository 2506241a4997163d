package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FSStore keeps one JSON file per session under a spool directory. It is the
// default backend, mirroring the filesystem session type of the original
// deployment.
type FSStore struct {
	dir string
}

var _ Store = (*FSStore)(nil)

// NewFSStore creates the spool directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("session: spool directory required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path(token string) string {
	return filepath.Join(s.dir, token+".json")
}

func (s *FSStore) Get(_ context.Context, token string) (Data, error) {
	raw, err := os.ReadFile(s.path(token))
	if errors.Is(err, fs.ErrNotExist) {
		return Data{}, ErrNotFound
	}
	if err != nil {
		return Data{}, fmt.Errorf("read session file: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("decode session file: %w", err)
	}
	return data, nil
}

func (s *FSStore) Put(_ context.Context, token string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	// Write-then-rename so readers never observe a partial bag.
	tmp := s.path(token) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path(token)); err != nil {
		return fmt.Errorf("commit session file: %w", err)
	}
	return nil
}

func (s *FSStore) Delete(_ context.Context, token string) error {
	err := os.Remove(s.path(token))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *FSStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list session dir: %w", err)
	}

	purged := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return purged, ctx.Err()
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var data Data
		if err := json.Unmarshal(raw, &data); err != nil || data.ExpiresAt.IsZero() {
			continue
		}
		if data.ExpiresAt.Before(now) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				purged++
			}
		}
	}
	return purged, nil
}
