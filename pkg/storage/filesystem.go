package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/callbook/pkg/lifecycle"
)

// filesystem maps keys onto files below root. Writes land in a temporary
// file that is renamed into place so readers never see a partial blob.
type filesystem struct {
	root   string
	logger *slog.Logger
}

func newFilesystem(root string, logger *slog.Logger) *filesystem {
	return &filesystem{root: root, logger: logger}
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	f.logger.Info("storage root ready", "root", f.root)

	lc.AddProbe("storage", func(context.Context) error {
		_, err := os.Stat(f.root)
		return err
	})
	return nil
}

func (f *filesystem) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func (f *filesystem) Upload(ctx context.Context, key string, reader io.Reader, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	dst := f.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: reader}); err != nil {
		tmp.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (f *filesystem) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path(key))
	if err != nil {
		return nil, f.mapErr("download", key, err)
	}
	return file, nil
}

func (f *filesystem) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil {
		return f.mapErr("delete", key, err)
	}
	return nil
}

func (f *filesystem) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	info, err := os.Stat(f.path(key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return !info.IsDir(), nil
}

func (f *filesystem) mapErr(op, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
