package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/storage-provisioning-backend/cmdutil"
	"github.com/ruteri/storage-provisioning-backend/interfaces"
	"github.com/ruteri/storage-provisioning-backend/ttlcache"
)

// usageCacheTTL bounds how stale a cached disk-usage scan may be served.
const usageCacheTTL = 60 * time.Second

// runnerFunc executes an external command. Backends hold it as a field so
// tests can substitute a fake.
type runnerFunc func(ctx context.Context, log *slog.Logger, opts cmdutil.Options, args ...string) (cmdutil.Result, error)

// PosixStorage implements interfaces.Storage on top of plain directories.
//
// Tenants are subdirectories of the base path, created with owner and group
// read/write/execute permission and chowned to the configured uid/gid. Usage
// is measured by batching all tenants into a single `du -sb` invocation and
// memoizing the parsed result for usageCacheTTL. Quotas are accepted but not
// enforced: POSIX directories carry no quota metadata in this design, so
// GetDir and ListDir always report quota 0.
type PosixStorage struct {
	cfg   interfaces.BackendConfig
	log   *slog.Logger
	usage *ttlcache.Cache[string, []interfaces.DirEntry]
	run   runnerFunc
}

// NewPosixStorage creates a POSIX directory backend rooted at cfg.BasePath.
// The base path must already exist as a directory; construction fails
// otherwise.
func NewPosixStorage(cfg interfaces.BackendConfig, log *slog.Logger) (*PosixStorage, error) {
	info, err := os.Stat(cfg.BasePath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: base path %q is not a directory", interfaces.ErrInvalidConfig, cfg.BasePath)
	}

	return &PosixStorage{
		cfg:   cfg,
		log:   log,
		usage: ttlcache.New[string, []interfaces.DirEntry](usageCacheTTL),
		run:   cmdutil.Run,
	}, nil
}

// CreateDir creates the tenant directory tree and sets its ownership. An
// already existing target is not an error. The quota parameter has no
// enforcement effect on this backend.
func (s *PosixStorage) CreateDir(ctx context.Context, quota int64, path ...string) error {
	if err := checkSegments(path...); err != nil {
		return err
	}
	absPath := s.absPath(path)

	s.log.Info("Creating storage", "path", absPath)
	if quota > 0 {
		s.log.Warn("Quota requested but not enforced by the posix backend",
			"path", absPath, "quota", quota)
	}

	if err := os.MkdirAll(absPath, 0o770); err != nil {
		s.log.Error("Failed to create storage", "path", absPath, "err", err)
		return fmt.Errorf("%w: creating %s: %v", interfaces.ErrBackendFailure, absPath, err)
	}
	if err := os.Chown(absPath, s.cfg.UID, s.cfg.GID); err != nil {
		s.log.Error("Failed to set storage ownership", "path", absPath, "err", err)
		return fmt.Errorf("%w: chowning %s: %v", interfaces.ErrBackendFailure, absPath, err)
	}
	return nil
}

// DeleteDir recursively removes the tenant directory tree.
func (s *PosixStorage) DeleteDir(ctx context.Context, path ...string) error {
	if err := checkSegments(path...); err != nil {
		return err
	}
	absPath := s.absPath(path)

	if _, err := os.Stat(absPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", interfaces.ErrNotFound, absPath)
		}
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", interfaces.ErrPermissionDenied, absPath)
		}
		s.log.Error("Failed to stat storage", "path", absPath, "err", err)
		return fmt.Errorf("%w: stat %s: %v", interfaces.ErrBackendFailure, absPath, err)
	}

	s.log.Info("Deleting storage", "path", absPath)
	if err := os.RemoveAll(absPath); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", interfaces.ErrPermissionDenied, absPath)
		}
		s.log.Error("Failed to delete storage", "path", absPath, "err", err)
		return fmt.Errorf("%w: deleting %s: %v", interfaces.ErrBackendFailure, absPath, err)
	}
	return nil
}

// GetDir reports the current usage of the tenant directory. The quota is
// always 0 on this backend.
func (s *PosixStorage) GetDir(ctx context.Context, path ...string) (interfaces.DirStat, error) {
	if err := checkSegments(path...); err != nil {
		return interfaces.DirStat{}, err
	}
	absPath := s.absPath(path)

	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return interfaces.DirStat{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, absPath)
	}

	entries, err := s.diskUsage(ctx, filepath.Join(path...))
	if err != nil {
		s.log.Error("Failed to retrieve disk usage", "path", absPath, "err", err)
		return interfaces.DirStat{}, fmt.Errorf("%w: disk usage for %s: %w",
			interfaces.ErrBackendFailure, absPath, err)
	}
	if len(entries) == 0 {
		return interfaces.DirStat{}, fmt.Errorf("%w: disk usage for %s: empty report",
			interfaces.ErrBackendFailure, absPath)
	}

	last := entries[len(entries)-1]
	return interfaces.DirStat{Quota: last.Quota, Used: last.Used}, nil
}

// ListDir reports every immediate child of the base path together with its
// usage, computed in one batched scan.
func (s *PosixStorage) ListDir(ctx context.Context) ([]interfaces.DirEntry, error) {
	entries, err := s.diskUsage(ctx, "")
	if err != nil {
		s.log.Error("Failed to list storage usage", "basePath", s.cfg.BasePath, "err", err)
		return nil, fmt.Errorf("%w: listing %s: %w", interfaces.ErrBackendFailure, s.cfg.BasePath, err)
	}
	return entries, nil
}

// diskUsage measures on-disk consumption via `du -sb`. With an empty
// relative path every immediate child of the base root is batched into a
// single invocation; otherwise only the named target is queried. Results are
// memoized per path for usageCacheTTL.
func (s *PosixStorage) diskUsage(ctx context.Context, rel string) ([]interfaces.DirEntry, error) {
	return s.usage.GetOrCompute(rel, func() ([]interfaces.DirEntry, error) {
		targets := []string{filepath.Join(s.cfg.BasePath, rel)}
		if rel == "" {
			matches, err := filepath.Glob(filepath.Join(s.cfg.BasePath, "*"))
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return []interfaces.DirEntry{}, nil
			}
			targets = matches
		}

		result, err := s.run(ctx, s.log, cmdutil.Options{RequireSuccess: true},
			append([]string{"du", "-sb"}, targets...)...)
		if err != nil {
			return nil, err
		}
		return parseDiskUsage(result.Stdout)
	})
}

// parseDiskUsage converts `du -sb` output lines of the form
// "<bytes>\t<path>" into directory entries named by the path's basename.
// Lines that do not split into exactly two fields are skipped.
func parseDiskUsage(output string) ([]interfaces.DirEntry, error) {
	entries := []interfaces.DirEntry{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		used, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unparsable du output line %q: %v", line, err)
		}
		entries = append(entries, interfaces.DirEntry{
			Name:  filepath.Base(fields[1]),
			Quota: 0,
			Used:  used,
		})
	}
	return entries, nil
}

func (s *PosixStorage) absPath(path []string) string {
	return filepath.Join(append([]string{s.cfg.BasePath}, path...)...)
}
