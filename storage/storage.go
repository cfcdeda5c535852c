// Package storage keeps uploaded project files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// ErrNotExist is returned by Open for a path with no stored file.
var ErrNotExist = errors.New("storage: file does not exist")

// Storage abstracts where uploaded files live. Paths returned by Save are
// what gets persisted on a Project and later passed back to Open and Delete.
type Storage interface {
	Save(ctx context.Context, name string, data io.Reader, contentType string) (storedPath string, err error)
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storedPath string) error
}

var whitespace = regexp.MustCompile(`\s+`)

// UploadName builds the stored file name: upload time in unix milliseconds,
// the file's index within its batch, then the base of the original name with
// whitespace runs replaced by underscores, all joined by underscores.
func UploadName(original string, at time.Time, index int) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" {
		base = "file"
	}
	base = whitespace.ReplaceAllString(strings.TrimSpace(base), "_")
	return fmt.Sprintf("%d_%d_%s", at.UnixMilli(), index, base)
}

// keyFor strips prefix from a stored path, rejecting anything that would
// escape it.
func keyFor(prefix, storedPath string) (string, error) {
	p := storedPath
	if i := strings.Index(p, "://"); i >= 0 {
		// absolute URL: keep the path part only
		rest := p[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			p = rest[j:]
		} else {
			p = "/"
		}
	}
	p = path.Clean("/" + p)
	prefix = path.Clean("/" + prefix)

	key := p
	if prefix != "/" {
		if !strings.HasPrefix(p, prefix+"/") {
			return "", fmt.Errorf("%w: %s", ErrNotExist, storedPath)
		}
		key = strings.TrimPrefix(p, prefix)
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrNotExist, storedPath)
	}
	return key, nil
}
