package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalStorage writes files under rootDir. rootDir is served over HTTP at
// baseURL, so an object with key "uploads/a.png" is at baseURL/uploads/a.png.
type LocalStorage struct {
	rootDir string
	baseURL string
	now     func() time.Time
}

func NewLocalStorage(rootDir, baseURL string) *LocalStorage {
	return &LocalStorage{rootDir: rootDir, baseURL: baseURL, now: time.Now}
}

func (ls *LocalStorage) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	normalized := normalizeFilename(filename, ls.now())
	log.Debug().Str("original", filename).Str("normalized", normalized).Msg("file upload normalized")

	dir := filepath.Join(ls.rootDir, UploadPrefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, normalized))
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return joinURL(ls.baseURL, UploadPrefix+"/"+normalized), nil
}

// List walks rootDir/prefix. A missing directory is an empty library.
func (ls *LocalStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	root := filepath.Join(ls.rootDir, filepath.FromSlash(prefix))
	var out []Object
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(ls.rootDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		out = append(out, Object{
			Key:         key,
			Name:        d.Name(),
			URL:         joinURL(ls.baseURL, key),
			Size:        info.Size(),
			ContentType: contentTypeFor(d.Name()),
			ModifiedAt:  info.ModTime(),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []Object{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}
