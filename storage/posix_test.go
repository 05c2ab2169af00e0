package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-provisioning-backend/cmdutil"
	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPosix(t *testing.T) *PosixStorage {
	t.Helper()
	cfg := interfaces.BackendConfig{
		BasePath: t.TempDir(),
		UID:      os.Getuid(),
		GID:      os.Getgid(),
		Backend:  interfaces.BackendPosix,
	}
	s, err := NewPosixStorage(cfg, testLogger())
	require.NoError(t, err)
	return s
}

func TestNewPosixStorage_MissingBasePath(t *testing.T) {
	cfg := interfaces.BackendConfig{
		BasePath: filepath.Join(t.TempDir(), "does-not-exist"),
		UID:      1000,
		GID:      1000,
		Backend:  interfaces.BackendPosix,
	}
	_, err := NewPosixStorage(cfg, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)
}

func TestPosixCreateDir(t *testing.T) {
	s := newTestPosix(t)
	ctx := context.Background()

	require.NoError(t, s.CreateDir(ctx, 0, "alice"))

	info, err := os.Stat(filepath.Join(s.cfg.BasePath, "alice"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Creating an existing target is not an error.
	assert.NoError(t, s.CreateDir(ctx, 0, "alice"))
}

func TestPosixCreateDir_NestedSegments(t *testing.T) {
	s := newTestPosix(t)

	require.NoError(t, s.CreateDir(context.Background(), 0, "groups", "team-1"))

	info, err := os.Stat(filepath.Join(s.cfg.BasePath, "groups", "team-1"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPosixCreateDir_QuotaAcceptedButUnenforced(t *testing.T) {
	s := newTestPosix(t)
	ctx := context.Background()

	// Quota is accepted without error on this backend, but never reported
	// back: POSIX directories carry no quota metadata.
	require.NoError(t, s.CreateDir(ctx, 1<<20, "alice"))

	s.run = fakeRunner(t, nil, duLine(4096, filepath.Join(s.cfg.BasePath, "alice")))
	stat, err := s.GetDir(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 0, stat.Quota)
}

func TestPosixCreateDir_InvalidSegment(t *testing.T) {
	s := newTestPosix(t)

	err := s.CreateDir(context.Background(), 0, "../escape")
	assert.ErrorIs(t, err, interfaces.ErrInvalidPath)

	// Nothing may be created before validation.
	entries, readErr := os.ReadDir(s.cfg.BasePath)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestPosixDeleteDir(t *testing.T) {
	s := newTestPosix(t)
	ctx := context.Background()

	require.NoError(t, s.CreateDir(ctx, 0, "alice"))
	require.NoError(t, os.WriteFile(filepath.Join(s.cfg.BasePath, "alice", "notes.txt"), []byte("hi"), 0o640))

	require.NoError(t, s.DeleteDir(ctx, "alice"))

	_, err := os.Stat(filepath.Join(s.cfg.BasePath, "alice"))
	assert.True(t, os.IsNotExist(err))
}

func TestPosixDeleteDir_NotFound(t *testing.T) {
	s := newTestPosix(t)

	err := s.DeleteDir(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestPosixGetDir_NotFound(t *testing.T) {
	s := newTestPosix(t)

	_, err := s.GetDir(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestPosixGetDir_ParsesUsage(t *testing.T) {
	s := newTestPosix(t)
	ctx := context.Background()
	require.NoError(t, s.CreateDir(ctx, 0, "alice"))

	var captured [][]string
	s.run = fakeRunner(t, &captured, duLine(12345, filepath.Join(s.cfg.BasePath, "alice")))

	stat, err := s.GetDir(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, interfaces.DirStat{Quota: 0, Used: 12345}, stat)

	require.Len(t, captured, 1)
	assert.Equal(t, []string{"du", "-sb", filepath.Join(s.cfg.BasePath, "alice")}, captured[0])
}

func TestPosixGetDir_RealDiskUsage(t *testing.T) {
	if _, err := exec.LookPath("du"); err != nil {
		t.Skip("du not available")
	}

	s := newTestPosix(t)
	ctx := context.Background()
	require.NoError(t, s.CreateDir(ctx, 0, "alice"))

	stat, err := s.GetDir(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 0, stat.Quota)
	assert.GreaterOrEqual(t, stat.Used, int64(0))
}

func TestPosixListDir_BatchesAllTenants(t *testing.T) {
	s := newTestPosix(t)
	ctx := context.Background()
	require.NoError(t, s.CreateDir(ctx, 0, "alice"))
	require.NoError(t, s.CreateDir(ctx, 0, "bob"))

	output := duLine(100, filepath.Join(s.cfg.BasePath, "alice")) +
		"malformed line with too many fields\n" +
		duLine(200, filepath.Join(s.cfg.BasePath, "bob"))

	var captured [][]string
	s.run = fakeRunner(t, &captured, output)

	entries, err := s.ListDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.DirEntry{
		{Name: "alice", Quota: 0, Used: 100},
		{Name: "bob", Quota: 0, Used: 200},
	}, entries)

	// All tenants must be batched into one invocation.
	require.Len(t, captured, 1)
	assert.Contains(t, captured[0], filepath.Join(s.cfg.BasePath, "alice"))
	assert.Contains(t, captured[0], filepath.Join(s.cfg.BasePath, "bob"))
}

func TestPosixListDir_EmptyBase(t *testing.T) {
	s := newTestPosix(t)
	s.run = fakeRunner(t, nil, "")

	entries, err := s.ListDir(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPosixListDir_UsageServedFromCache(t *testing.T) {
	s := newTestPosix(t)
	ctx := context.Background()
	require.NoError(t, s.CreateDir(ctx, 0, "alice"))

	var captured [][]string
	s.run = fakeRunner(t, &captured, duLine(100, filepath.Join(s.cfg.BasePath, "alice")))

	_, err := s.ListDir(ctx)
	require.NoError(t, err)
	_, err = s.ListDir(ctx)
	require.NoError(t, err)

	assert.Len(t, captured, 1, "second listing within the TTL must not rescan")
}

// fakeRunner returns a runnerFunc replying with the given stdout and exit
// code 0, optionally recording each argv.
func fakeRunner(t *testing.T, captured *[][]string, stdout string) runnerFunc {
	t.Helper()
	return func(ctx context.Context, log *slog.Logger, opts cmdutil.Options, args ...string) (cmdutil.Result, error) {
		if captured != nil {
			*captured = append(*captured, args)
		}
		return cmdutil.Result{ExitCode: 0, Stdout: stdout}, nil
	}
}

func duLine(bytes int64, path string) string {
	return fmt.Sprintf("%d\t%s\n", bytes, path)
}
