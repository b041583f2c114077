// Package storage keeps uploaded document bodies in a blob store. Azure Blob
// Storage backs deployed environments; a directory on local disk backs
// development and tests.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/callbook/pkg/lifecycle"
)

// System stores opaque blobs under slash-separated keys.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns ErrNotFound for a missing key. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete returns ErrNotFound for a missing key.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the backend named by cfg.Provider. Nothing is contacted until
// Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderFilesystem:
		return newFilesystem(cfg.Root, logger), nil
	case ProviderAzure, "":
		return newAzure(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return ErrInvalidKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || strings.HasPrefix(seg, "..") {
			return ErrInvalidKey
		}
	}
	return nil
}
