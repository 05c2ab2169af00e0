package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/ruteri/storage-provisioning-backend/cmdutil"
	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

// ZFSStorage implements interfaces.Storage on top of ZFS datasets.
//
// Tenants are child datasets of the base dataset. Quotas map to the native
// `quota` dataset property and are enforced by ZFS itself, which is the key
// behavioral difference from the POSIX backend. Usage queries run `zfs list`
// over the whole subtree; because a full-subtree scan is expensive, all
// usage queries are funneled through a single-permit gate so concurrent
// callers queue instead of duplicating in-flight scans.
type ZFSStorage struct {
	cfg interfaces.BackendConfig
	log *slog.Logger

	// usageGate serializes subtree scans. Bounds in-flight scans to one,
	// which is a stronger guarantee than the posix backend's TTL cache.
	usageGate *semaphore.Weighted

	run runnerFunc
}

// zfsRow is one line of `zfs list -Hpro name,quota,used`: the full dataset
// name with its quota and usage in bytes.
type zfsRow struct {
	name  string
	quota int64
	used  int64
}

// NewZFSStorage creates a ZFS dataset backend rooted at the cfg.BasePath
// dataset. The base dataset must already exist; construction fails otherwise.
func NewZFSStorage(ctx context.Context, cfg interfaces.BackendConfig, log *slog.Logger) (*ZFSStorage, error) {
	return newZFSStorage(ctx, cfg, log, cmdutil.Run)
}

func newZFSStorage(ctx context.Context, cfg interfaces.BackendConfig, log *slog.Logger, run runnerFunc) (*ZFSStorage, error) {
	s := &ZFSStorage{
		cfg:       cfg,
		log:       log,
		usageGate: semaphore.NewWeighted(1),
		run:       run,
	}

	ok, err := s.exists(ctx, cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: probing base dataset %q: %v", interfaces.ErrInvalidConfig, cfg.BasePath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: base dataset %q does not exist", interfaces.ErrInvalidConfig, cfg.BasePath)
	}
	return s, nil
}

// exists probes for a dataset of any type (including snapshots and
// non-mounted datasets) at the given name. A non-zero exit code means the
// dataset is absent.
func (s *ZFSStorage) exists(ctx context.Context, dataset string) (bool, error) {
	result, err := s.run(ctx, s.log, cmdutil.Options{}, "zfs", "list", "-t", "all", dataset)
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// CreateDir creates the tenant dataset if absent and applies the quota when
// one is requested. Creating an already existing dataset is not an error.
func (s *ZFSStorage) CreateDir(ctx context.Context, quota int64, pathSegments ...string) error {
	if err := checkSegments(pathSegments...); err != nil {
		return err
	}
	dataset := s.dataset(pathSegments)

	s.log.Info("Creating storage", "dataset", dataset)
	ok, err := s.exists(ctx, dataset)
	if err != nil {
		return fmt.Errorf("%w: probing %s: %w", interfaces.ErrBackendFailure, dataset, err)
	}
	if !ok {
		if _, err := s.run(ctx, s.log, cmdutil.Options{RequireSuccess: true},
			"zfs", "create", dataset); err != nil {
			return fmt.Errorf("%w: creating %s: %w", interfaces.ErrBackendFailure, dataset, err)
		}
	}

	if quota > 0 {
		s.log.Info("Setting quota", "dataset", dataset, "quota", quota)
		if _, err := s.run(ctx, s.log, cmdutil.Options{RequireSuccess: true},
			"zfs", "set", fmt.Sprintf("quota=%d", quota), dataset); err != nil {
			return fmt.Errorf("%w: setting quota on %s: %w", interfaces.ErrBackendFailure, dataset, err)
		}
	}
	return nil
}

// DeleteDir recursively destroys the tenant dataset together with all its
// snapshots, clones and child datasets. This is irreversible.
func (s *ZFSStorage) DeleteDir(ctx context.Context, pathSegments ...string) error {
	if err := checkSegments(pathSegments...); err != nil {
		return err
	}
	dataset := s.dataset(pathSegments)

	s.log.Info("Deleting storage", "dataset", dataset)
	ok, err := s.exists(ctx, dataset)
	if err != nil {
		return fmt.Errorf("%w: probing %s: %w", interfaces.ErrBackendFailure, dataset, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", interfaces.ErrNotFound, dataset)
	}

	if _, err := s.run(ctx, s.log, cmdutil.Options{RequireSuccess: true},
		"zfs", "destroy", "-R", dataset); err != nil {
		return fmt.Errorf("%w: destroying %s: %w", interfaces.ErrBackendFailure, dataset, err)
	}
	return nil
}

// GetDir reports the tenant dataset's own quota and usage as maintained by
// ZFS. Single-target queries are served directly, without the TTL caching
// the posix backend applies.
func (s *ZFSStorage) GetDir(ctx context.Context, pathSegments ...string) (interfaces.DirStat, error) {
	if err := checkSegments(pathSegments...); err != nil {
		return interfaces.DirStat{}, err
	}
	dataset := s.dataset(pathSegments)

	ok, err := s.exists(ctx, dataset)
	if err != nil {
		return interfaces.DirStat{}, fmt.Errorf("%w: probing %s: %w", interfaces.ErrBackendFailure, dataset, err)
	}
	if !ok {
		return interfaces.DirStat{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, dataset)
	}

	rows, err := s.usageQuery(ctx, dataset)
	if err != nil {
		s.log.Error("Failed to retrieve dataset usage", "dataset", dataset, "err", err)
		return interfaces.DirStat{}, fmt.Errorf("%w: usage of %s: %w", interfaces.ErrBackendFailure, dataset, err)
	}
	for _, row := range rows {
		if row.name == dataset {
			return interfaces.DirStat{Quota: row.quota, Used: row.used}, nil
		}
	}
	return interfaces.DirStat{}, fmt.Errorf("%w: dataset %s missing from its own listing",
		interfaces.ErrBackendFailure, dataset)
}

// ListDir reports every tenant dataset under the base dataset in one
// recursive listing. The base dataset itself is the backend's container, not
// a tenant, and is excluded from the result.
func (s *ZFSStorage) ListDir(ctx context.Context) ([]interfaces.DirEntry, error) {
	rows, err := s.usageQuery(ctx, s.cfg.BasePath)
	if err != nil {
		s.log.Error("Failed to list dataset usage", "dataset", s.cfg.BasePath, "err", err)
		return nil, fmt.Errorf("%w: listing %s: %w", interfaces.ErrBackendFailure, s.cfg.BasePath, err)
	}

	entries := []interfaces.DirEntry{}
	for _, row := range rows {
		if row.name == s.cfg.BasePath {
			continue
		}
		entries = append(entries, interfaces.DirEntry{
			Name:  path.Base(row.name),
			Quota: row.quota,
			Used:  row.used,
		})
	}
	return entries, nil
}

// usageQuery runs a recursive tab-delimited listing of name, quota and used
// for the subtree rooted at dataset. Callers queue on the single-permit gate
// rather than running redundant simultaneous scans.
func (s *ZFSStorage) usageQuery(ctx context.Context, dataset string) ([]zfsRow, error) {
	if err := s.usageGate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.usageGate.Release(1)

	result, err := s.run(ctx, s.log, cmdutil.Options{RequireSuccess: true},
		"zfs", "list", "-Hpro", "name,quota,used", dataset)
	if err != nil {
		return nil, err
	}
	return parseZFSList(result.Stdout)
}

// parseZFSList converts tab-delimited `zfs list -Hpro name,quota,used`
// output into rows. Lines that do not split into exactly three fields are
// skipped.
func parseZFSList(output string) ([]zfsRow, error) {
	rows := []zfsRow{}
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		quota, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unparsable zfs quota in line %q: %v", line, err)
		}
		used, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unparsable zfs used in line %q: %v", line, err)
		}
		rows = append(rows, zfsRow{name: fields[0], quota: quota, used: used})
	}
	return rows, nil
}

func (s *ZFSStorage) dataset(pathSegments []string) string {
	return path.Join(append([]string{s.cfg.BasePath}, pathSegments...)...)
}
