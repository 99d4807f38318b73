// Package datasets stores enrolment samples as datasets/<username>/<n>.jpg.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/filex"
	"github.com/dmitrijs2005/faceguard/internal/vision"
)

var (
	ErrNoDatasetDir = fmt.Errorf("dataset folder not found, register users first: %w", common.ErrorNoTrainingData)
	ErrNoUsers      = fmt.Errorf("no users found, register at least one user: %w", common.ErrorNoTrainingData)
	ErrNoFaces      = fmt.Errorf("no face data found, try re-registering users: %w", common.ErrorNoTrainingData)
)

type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

func (s *Store) dir(username string) string {
	return filepath.Join(s.root, username)
}

// Create makes an empty dataset for username.
func (s *Store) Create(username string) error {
	if err := checkName(username); err != nil {
		return err
	}
	if _, err := filex.EnsureDir(s.root); err != nil {
		return err
	}
	if err := os.Mkdir(s.dir(username), 0o770); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("dataset %s: %w", username, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

func (s *Store) Exists(username string) bool {
	fi, err := os.Stat(s.dir(username))
	return err == nil && fi.IsDir()
}

// Add stores sample number n (1-based).
func (s *Store) Add(username string, n int, jpeg []byte) error {
	p := filepath.Join(s.dir(username), strconv.Itoa(n)+".jpg")
	if err := filex.WriteFileAtomic(p, jpeg, 0o640); err != nil {
		return fmt.Errorf("save sample: %w", err)
	}
	return nil
}

// Remove deletes the dataset. Missing datasets are not an error.
func (s *Store) Remove(username string) error {
	if err := checkName(username); err != nil {
		return err
	}
	if err := os.RemoveAll(s.dir(username)); err != nil {
		return fmt.Errorf("remove dataset: %w", err)
	}
	return nil
}

// Users lists usernames with a dataset, sorted.
func (s *Store) Users() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoDatasetDir
		}
		return nil, fmt.Errorf("read datasets: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			users = append(users, e.Name())
		}
	}
	slices.Sort(users)
	return users, nil
}

// Load returns every sample labelled by username, plus per-user counts.
func (s *Store) Load(ctx context.Context) ([]vision.Sample, map[string]int, error) {
	users, err := s.Users()
	if err != nil {
		return nil, nil, err
	}
	if len(users) == 0 {
		return nil, nil, ErrNoUsers
	}

	var samples []vision.Sample
	counts := make(map[string]int, len(users))
	for _, u := range users {
		entries, err := os.ReadDir(s.dir(u))
		if err != nil {
			return nil, nil, fmt.Errorf("read dataset %s: %w", u, err)
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if e.IsDir() || filepath.Ext(e.Name()) != ".jpg" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(s.dir(u), e.Name()))
			if err != nil {
				return nil, nil, fmt.Errorf("read sample: %w", err)
			}
			samples = append(samples, vision.Sample{Label: u, JPEG: data})
			counts[u]++
		}
	}
	if len(samples) == 0 {
		return nil, nil, ErrNoFaces
	}
	return samples, counts, nil
}

func checkName(username string) error {
	if username == "" || username == "." || username == ".." || strings.ContainsAny(username, `/\`) {
		return common.NewValidationError("invalid username %q", username)
	}
	return nil
}
