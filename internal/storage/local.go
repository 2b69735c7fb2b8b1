package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Local stores uploads on the local filesystem under a fixed directory and
// serves them through the files route.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates the upload directory if missing and returns a local store.
// baseURL is the external address of the server; stored files resolve under
// baseURL + /api/v1/food/files/.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (l *Local) Save(ctx context.Context, filename string, data []byte) (string, string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), SanitizeFilename(filename))

	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write upload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/food/files/%s", l.baseURL, name)
	return name, url, nil
}

// Open returns the on-disk path for a stored file, refusing names that would
// escape the upload directory.
func (l *Local) Open(name string) (string, error) {
	if name != SanitizeFilename(name) {
		return "", fmt.Errorf("invalid filename: %q", name)
	}
	path := filepath.Join(l.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// SanitizeFilename strips path components and traversal characters from a
// client-supplied filename.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.Trim(name, "._")
	if name == "" {
		name = "upload"
	}
	return name
}
