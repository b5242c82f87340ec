package track

import (
	"errors"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/openglass/resourced/registry"
)

// Syncer is implemented by file-like objects that can flush buffered
// writes before closing.
type Syncer interface {
	Sync() error
}

// File registers a file-like object for flush-then-close cleanup. The
// object must be pointer-shaped (an *os.File, a *bufio.Writer wrapper and
// so on) and expose io.Closer.
func File(reg *registry.Registry, f io.Closer, opts ...registry.RegisterOption) (string, error) {
	opts = append(opts, registry.WithCleanup(releaseFile))
	return reg.Register(f, registry.TypeFile, opts...)
}

func releaseFile(res any) error {
	var errs []error

	if s, ok := res.(Syncer); ok {
		errs = append(errs, guard("sync", s.Sync))
	}
	if c, ok := res.(io.Closer); ok {
		errs = append(errs, guard("close", c.Close))
	}

	return errors.Join(errs...)
}

// TempFile registers an *os.File for flush-then-close cleanup and, when
// remove is true, unlinks the backing path afterwards. A missing file at
// cleanup time is not an error.
func TempFile(reg *registry.Registry, f *os.File, remove bool, opts ...registry.RegisterOption) (string, error) {
	path := f.Name()
	opts = append(opts,
		registry.WithMeta("path", path),
		registry.WithCleanup(func(res any) error {
			errs := []error{releaseFile(res)}
			if remove {
				errs = append(errs, guard("unlink", func() error {
					err := os.Remove(path)
					if err != nil && !os.IsNotExist(err) {
						return err
					}
					return nil
				}))
			}
			return errors.Join(errs...)
		}))
	return reg.Register(f, registry.TypeTempFile, opts...)
}

// DirHandle boxes a temporary directory path so it can be weakly tracked.
// The caller keeps the box for as long as the directory should exist.
type DirHandle struct {
	Path string
}

// TempDir registers a temporary directory for recursive, error-tolerant
// removal. It returns the box the caller must hold alive.
func TempDir(reg *registry.Registry, path string, opts ...registry.RegisterOption) (*DirHandle, string, error) {
	h := &DirHandle{Path: path}
	opts = append(opts,
		registry.WithMeta("path", path),
		registry.WithCleanup(func(res any) error {
			d := res.(*DirHandle)
			if err := os.RemoveAll(d.Path); err != nil {
				// RemoveAll already skipped what it could; report the rest
				Logger().Warn("temp dir removal incomplete",
					zap.String("path", d.Path), zap.Error(err))
				return err
			}
			return nil
		}))

	id, err := reg.Register(h, registry.TypeTempDir, opts...)
	if err != nil {
		return nil, "", err
	}
	return h, id, nil
}
