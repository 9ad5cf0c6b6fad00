// Package store keeps a catalog in a pipe-delimited text file.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"vehicle-catalog/internal/catalog"
	"vehicle-catalog/internal/logging"
)

const DefaultPath = "vehicles.csv"

type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the catalog file. A missing file yields an empty catalog.
func (s *FileStore) Load(ctx context.Context) (*catalog.Collection, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info(ctx, "catalog file not found, starting empty", slog.String("path", s.path))
		return catalog.NewCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.load %s: %w", s.path, err)
	}
	defer f.Close()

	c, err := catalog.LoadFromText(f)
	if err != nil {
		return nil, fmt.Errorf("store.load %s: %w", s.path, err)
	}

	logging.Info(ctx, "catalog loaded",
		slog.String("path", s.path),
		slog.Int("vehicles", c.Size()),
	)
	return c, nil
}

// Save replaces the catalog file. The new content is written next to the
// target and renamed over it.
func (s *FileStore) Save(ctx context.Context, c *catalog.Collection) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store.save %s: %w", s.path, err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store.save %s: %w", tmp, err)
	}

	if _, err := c.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("store.save %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store.save %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store.save %s: %w", s.path, err)
	}

	logging.Info(ctx, "catalog saved",
		slog.String("path", s.path),
		slog.Int("vehicles", c.Size()),
	)
	return nil
}

// Diff describes how c differs from the file on disk, one line per added
// ("+") or removed ("-") vehicle. It returns "" when there is nothing to
// save. Comment lines in the file show up as removals since Save drops them.
func (s *FileStore) Diff(ctx context.Context, c *catalog.Collection) (string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("store.diff %s: %w", s.path, err)
	}

	return lineDiff(string(b), c.SaveToText()), nil
}

func lineDiff(before, after string) string {
	before = strings.ReplaceAll(before, "\r\n", "\n")
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(withNewline(before), withNewline(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	return out.String()
}

// withNewline terminates the last line so that line-mode diffing does not
// treat "x" and "x\n" as different lines.
func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
