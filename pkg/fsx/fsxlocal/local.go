// Package fsxlocal implements fsx.FileSystem on the local filesystem.
package fsxlocal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/shortlist/pkg/fsx"
	"github.com/google/uuid"
)

// LocalFileSystem stores files under a single root directory.
type LocalFileSystem struct {
	root string
}

// NewLocalFileSystem creates a filesystem rooted at dir, creating it if needed.
func NewLocalFileSystem(dir string) (*LocalFileSystem, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", abs, err)
	}
	return &LocalFileSystem{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *LocalFileSystem) Root() string {
	return l.root
}

// resolve maps a store path onto the root, rejecting traversal outside it.
func (l *LocalFileSystem) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(l.root, cleaned)
	if full != l.root && !strings.HasPrefix(full, l.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s escapes storage root", path)
	}
	return full, nil
}

func (l *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsx.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes to a temp file in the target directory and renames it into
// place, so readers never observe a half-written file.
func (l *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%s", uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", path, err)
	}
	return nil
}

func (l *LocalFileSystem) DeleteFile(_ context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (l *LocalFileSystem) DeletePrefix(_ context.Context, prefix string) error {
	full, err := l.resolve(prefix)
	if err != nil {
		return err
	}
	if full == l.root {
		return fmt.Errorf("refusing to delete storage root")
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}
	return nil
}

func (l *LocalFileSystem) List(_ context.Context, prefix string) ([]fsx.FileInfo, error) {
	full, err := l.resolve(prefix)
	if err != nil {
		return nil, err
	}
	var infos []fsx.FileInfo
	walkErr := filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil // file vanished mid-walk
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		infos = append(infos, fsx.FileInfo{
			Path:    filepath.ToSlash(rel),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("list prefix %s: %w", prefix, walkErr)
	}
	return infos, nil
}

func (l *LocalFileSystem) Exists(_ context.Context, path string) (bool, error) {
	full, err := l.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}
