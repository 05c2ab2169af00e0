package interfaces

import (
	"fmt"
	"strings"
)

// BackendKind selects the concrete storage technology. The set is closed: a
// backend is chosen once at startup and never switched at runtime.
type BackendKind string

const (
	// BackendPosix stores tenants as plain directories and measures usage
	// with a batched disk-usage scan. Quotas are accepted but not enforced.
	BackendPosix BackendKind = "posix"

	// BackendZFS stores tenants as ZFS datasets with natively enforced
	// quotas.
	BackendZFS BackendKind = "zfs"
)

// ParseBackendKind parses a backend selection string, case-insensitively.
func ParseBackendKind(name string) (BackendKind, error) {
	switch kind := BackendKind(strings.ToLower(name)); kind {
	case BackendPosix, BackendZFS:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q, supported backends are %q and %q",
			ErrInvalidConfig, name, BackendPosix, BackendZFS)
	}
}

// BackendConfig carries the storage configuration consumed at startup. It is
// immutable after construction and validated exactly once by the factory.
type BackendConfig struct {
	// BasePath is the storage root: a directory for the POSIX backend, a
	// dataset name for the ZFS backend. Must be non-empty and must not end
	// with a path separator.
	BasePath string

	// UID and GID own newly created tenant directories. Both must be
	// strictly positive.
	UID int
	GID int

	// Backend selects the implementation.
	Backend BackendKind
}

// Validate enforces the configuration invariants. Violations are fatal to
// startup, not recoverable per-request errors.
func (c BackendConfig) Validate() error {
	if c.BasePath == "" || strings.HasSuffix(c.BasePath, "/") {
		return fmt.Errorf("%w: invalid base path %q, must be non-empty without trailing slash",
			ErrInvalidConfig, c.BasePath)
	}
	if c.UID <= 0 || c.GID <= 0 {
		return fmt.Errorf("%w: invalid uid/gid pair %d:%d, both must be positive",
			ErrInvalidConfig, c.UID, c.GID)
	}
	if _, err := ParseBackendKind(string(c.Backend)); err != nil {
		return err
	}
	return nil
}
