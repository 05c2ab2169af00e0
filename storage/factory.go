package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

// New validates the backend configuration and constructs the selected
// storage backend. The backend is chosen once at startup; there is no
// runtime switching.
//
// Beyond the cross-backend invariants enforced by cfg.Validate (non-empty
// base path without trailing slash, positive uid/gid, known backend kind),
// each backend constructor verifies that the base path denotes an existing,
// reachable root appropriate to it: a directory for posix, an existing
// dataset for zfs. Any failure here is fatal to startup.
func New(ctx context.Context, cfg interfaces.BackendConfig, log *slog.Logger) (interfaces.Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case interfaces.BackendPosix:
		return NewPosixStorage(cfg, log)
	case interfaces.BackendZFS:
		return NewZFSStorage(ctx, cfg, log)
	default:
		// Unreachable: Validate rejects unknown kinds.
		return nil, fmt.Errorf("%w: unknown backend %q", interfaces.ErrInvalidConfig, cfg.Backend)
	}
}
