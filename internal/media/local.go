package media

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LocalStore keeps media below a directory served at PublicURL.
type LocalStore struct {
	dir       string
	publicURL string
}

func NewLocalStore(dir, publicURL string) *LocalStore {
	return &LocalStore{dir: dir, publicURL: publicURL}
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// PublicURL is the URL prefix files are served under.
func (s *LocalStore) PublicURL() string {
	return s.publicURL
}

func (s *LocalStore) Upload(_ context.Context, folder string, up *Upload) (*Asset, error) {
	rel := path.Join(Folder("", folder), uuid.NewString()+up.Ext())
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, errors.Wrap(err, "create media dir")
	}
	if err := os.WriteFile(abs, up.Data, 0o644); err != nil {
		return nil, errors.Wrap(err, "write media")
	}
	return &Asset{URL: joinURL(s.publicURL, rel), PublicID: rel, ResourceType: resourceTypeOf(up)}, nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	rel := relFromURL(s.publicURL, url)
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove media %s", rel)
	}
	return nil
}

// Sweep removes files older than maxAge whose URL is not in refs and
// returns how many were removed.
func (s *LocalStore) Sweep(ctx context.Context, refs map[string]struct{}, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return nil
		}
		if _, ok := refs[joinURL(s.publicURL, filepath.ToSlash(rel))]; ok {
			return nil
		}
		if err := os.Remove(p); err != nil {
			zap.L().Warn("media sweep remove failed", zap.String("path", p), zap.Error(err))
			return nil
		}
		removed++
		return nil
	})
	return removed, errors.Wrap(err, "media sweep")
}
