package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-provisioning-backend/interfaces"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name string
		cfg  interfaces.BackendConfig
	}{
		{"empty base path", interfaces.BackendConfig{BasePath: "", UID: 1000, GID: 1000, Backend: interfaces.BackendPosix}},
		{"trailing slash", interfaces.BackendConfig{BasePath: base + "/", UID: 1000, GID: 1000, Backend: interfaces.BackendPosix}},
		{"zero uid", interfaces.BackendConfig{BasePath: base, UID: 0, GID: 1000, Backend: interfaces.BackendPosix}},
		{"negative gid", interfaces.BackendConfig{BasePath: base, UID: 1000, GID: -1, Backend: interfaces.BackendPosix}},
		{"unknown backend", interfaces.BackendConfig{BasePath: base, UID: 1000, GID: 1000, Backend: interfaces.BackendKind("ceph")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg, testLogger())
			assert.ErrorIs(t, err, interfaces.ErrInvalidConfig)
		})
	}
}

func TestNew_Posix(t *testing.T) {
	cfg := interfaces.BackendConfig{
		BasePath: t.TempDir(),
		UID:      1000,
		GID:      1000,
		Backend:  interfaces.BackendPosix,
	}
	s, err := New(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &PosixStorage{}, s)
}

func TestParseBackendKind(t *testing.T) {
	tests := []struct {
		in      string
		want    interfaces.BackendKind
		wantErr bool
	}{
		{"posix", interfaces.BackendPosix, false},
		{"POSIX", interfaces.BackendPosix, false},
		{"zfs", interfaces.BackendZFS, false},
		{"Zfs", interfaces.BackendZFS, false},
		{"btrfs", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		kind, err := interfaces.ParseBackendKind(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, interfaces.ErrInvalidConfig, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, kind, tt.in)
	}
}
