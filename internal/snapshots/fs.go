package snapshots

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/filex"
)

// FSStore keeps snapshots as files in one directory.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

func (s *FSStore) Dir() string { return s.dir }

// Save writes the snapshot. A second capture within the same second
// replaces the first.
func (s *FSStore) Save(ctx context.Context, at time.Time, jpeg []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := filex.EnsureDir(s.dir); err != nil {
		return "", err
	}

	name := Name(at)
	if err := filex.WriteFileAtomic(filepath.Join(s.dir, name), jpeg, 0o640); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return name, nil
}

func (s *FSStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && isSnapshot(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return newestFirst(names), nil
}
