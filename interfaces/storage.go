package interfaces

import (
	"context"
	"errors"
)

// DirStat holds the quota and usage of a single tenant directory or dataset,
// both in bytes. A quota of 0 means no quota is set (or the backend cannot
// report one). Values are a point-in-time snapshot, never a live view.
type DirStat struct {
	// Quota is the byte limit configured for the target, 0 if unset.
	Quota int64 `json:"quota"`

	// Used is the number of bytes currently consumed.
	Used int64 `json:"disk_usage"`
}

// DirEntry is one row of a full storage listing: a tenant name together with
// its quota and usage in bytes.
type DirEntry struct {
	Name  string `json:"name"`
	Quota int64  `json:"quota"`
	Used  int64  `json:"disk_usage"`
}

var (
	// ErrInvalidPath is returned when a path segment contains characters
	// outside the allowed set. This is a caller error, detected before any
	// filesystem or dataset access.
	ErrInvalidPath = errors.New("path contains forbidden characters")

	// ErrNotFound is returned when the target directory or dataset does not
	// exist for a delete or get operation.
	ErrNotFound = errors.New("storage not found")

	// ErrPermissionDenied is returned when the operating system denies an
	// operation on the target.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrBackendFailure wraps unexpected backend-specific errors. It is
	// always logged with full context before being propagated.
	ErrBackendFailure = errors.New("storage backend failure")

	// ErrInvalidConfig is returned for bad startup configuration. It is
	// fatal: the service must not start with an invalid configuration.
	ErrInvalidConfig = errors.New("invalid storage configuration")

	// ErrProcessFailure is returned when an external command exits non-zero
	// and the caller required success.
	ErrProcessFailure = errors.New("external command failed")

	// ErrProcessTimeout is returned when an external command exceeds its
	// deadline. The child process is killed and does not outlive the timeout.
	ErrProcessTimeout = errors.New("external command timed out")
)

// Storage manages per-tenant directories or datasets under a fixed base path.
//
// Both implementations (plain POSIX directories and ZFS datasets) present the
// same contract: operations take one or more path segments naming a tenant,
// validate every segment against the allowed character set before touching
// the filesystem, and report quota/usage pairs in bytes.
//
// A single Storage instance is shared by many concurrent request contexts.
// Operations on distinct tenant paths are fully independent; operations on
// the same path are not serialized by the implementation, so a delete racing
// a get for the same name can surface ErrNotFound on either side.
type Storage interface {
	// CreateDir creates the tenant directory or dataset named by path. It is
	// idempotent with respect to an already existing target. A quota greater
	// than zero is applied where the backend supports it; the POSIX backend
	// accepts but does not enforce quotas.
	CreateDir(ctx context.Context, quota int64, path ...string) error

	// DeleteDir removes the tenant directory or dataset named by path,
	// including everything below it. Returns ErrNotFound if the target does
	// not exist. On the ZFS backend this recursively destroys the dataset
	// together with all snapshots, clones and child datasets; the operation
	// is irreversible.
	DeleteDir(ctx context.Context, path ...string) error

	// GetDir reports the quota and current usage of the tenant named by
	// path. Returns ErrNotFound if the target does not exist.
	GetDir(ctx context.Context, path ...string) (DirStat, error)

	// ListDir reports name, quota and usage for every tenant under the base
	// path. The backend's own root container is never included in the
	// result.
	ListDir(ctx context.Context) ([]DirEntry, error)
}
