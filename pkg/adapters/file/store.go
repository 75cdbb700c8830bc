package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/roguepath/pkg/domain"
)

const ext = ".json"

// Store implements ports.GraphStore using the local filesystem.
// Each owner's document lives in its own JSON file under BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".roguepath/paths".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".roguepath", "paths")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(owner string) (string, error) {
	if owner == "" {
		return "", errors.New("owner cannot be empty")
	}
	if strings.ContainsAny(owner, `/\`) || owner == "." || owner == ".." {
		return "", fmt.Errorf("invalid owner %q", owner)
	}
	return filepath.Join(s.BasePath, owner+ext), nil
}

// Save writes the document atomically: temp file in the same directory,
// fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, owner string, doc []byte) error {
	destPath, err := s.path(owner)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure graph directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+owner+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(doc); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing graph file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the owner's document.
func (s *Store) Load(ctx context.Context, owner string) ([]byte, error) {
	filePath, err := s.path(owner)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return data, nil
}

// Delete removes the owner's file. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, owner string) error {
	filePath, err := s.path(owner)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete graph file: %w", err)
	}
	return nil
}

// List returns the owners with a stored document, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	owners := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		owners = append(owners, strings.TrimSuffix(name, ext))
	}
	sort.Strings(owners)
	return owners, nil
}
