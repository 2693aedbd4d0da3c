// Package app assembles the backend shared by the server and admin
// commands.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"student-dashboard/internal/auth"
	"student-dashboard/internal/config"
	"student-dashboard/internal/identity"
	"student-dashboard/internal/records"
	"student-dashboard/internal/store"
)

type Backend struct {
	Store    store.Store
	Provider *identity.Provider
	Students store.Collection
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func TokenConfig(cfg config.Config) auth.TokenConfig {
	tokens := auth.DefaultTokenConfig(cfg.MasterSecret)
	tokens.Expiry = cfg.TokenExpiry()
	return tokens
}

// OpenBackend opens the configured document store and the identity
// provider on top of it.
func OpenBackend(cfg config.Config, logger *slog.Logger) (*Backend, error) {
	var st store.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		st = store.NewMemoryWithOptions(store.MemoryOptions{
			SnapshotFile: cfg.SnapshotFile,
			Logger:       logger,
		})
	case config.StoreDriverBolt:
		if dir := filepath.Dir(cfg.DataFile); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		bolt, err := store.OpenBolt(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		st = bolt
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	logger.Info("document store opened", "driver", cfg.StoreDriver)

	provider := identity.NewProvider(
		st.Collection(identity.UsersCollection),
		TokenConfig(cfg),
		identity.WithLogger(logger),
	)
	return &Backend{
		Store:    st,
		Provider: provider,
		Students: st.Collection(records.CollectionName),
	}, nil
}

func (b *Backend) Close() error {
	return b.Store.Close()
}
