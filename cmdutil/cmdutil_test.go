package cmdutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_CapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), testLogger(), Options{RequireSuccess: true}, "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestRun_NonZeroExitWithoutRequireSuccess(t *testing.T) {
	res, err := Run(context.Background(), testLogger(), Options{}, "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_NonZeroExitWithRequireSuccess(t *testing.T) {
	res, err := Run(context.Background(), testLogger(), Options{RequireSuccess: true},
		"sh", "-c", "echo boom >&2; exit 1")
	assert.ErrorIs(t, err, interfaces.ErrProcessFailure)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, res.ExitCode)
}

func TestRun_Timeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), testLogger(), Options{Timeout: 50 * time.Millisecond},
		"sleep", "10")
	assert.ErrorIs(t, err, interfaces.ErrProcessTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "the child must be killed, not waited for")
}

func TestRun_BinaryNotFound(t *testing.T) {
	_, err := Run(context.Background(), testLogger(), Options{}, "definitely-not-a-real-binary")
	assert.ErrorIs(t, err, interfaces.ErrProcessFailure)
}

func TestRun_NoCommand(t *testing.T) {
	_, err := Run(context.Background(), testLogger(), Options{})
	assert.ErrorIs(t, err, interfaces.ErrProcessFailure)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testLogger(), Options{}, "echo", "hello")
	assert.Error(t, err)
}
