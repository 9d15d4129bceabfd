package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"engageboard/internal/shared/testutil"
)

func TestHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		hs := NewHealthService("1.2.3", "", "", nil, logger)
		status := hs.HealthCheck(ctx)
		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, "1.2.3", status.Version)
		assert.NotNil(t, status.Runtime)
	})

	t.Run("ready", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("Ping", mock.Anything).Return(nil)
		hs := NewHealthService("1.2.3", "", t.TempDir(), store, logger)

		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, "ready", status.Services["archive"].Status)
	})

	t.Run("archive down", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("Ping", mock.Anything).Return(errors.New("locked"))
		hs := NewHealthService("1.2.3", "", "", store, logger)

		status := hs.ReadinessCheck(ctx)
		assert.Equal(t, "not_ready", status.Status)
		assert.Equal(t, "locked", status.Services["archive"].Message)
	})

	t.Run("reports dir missing", func(t *testing.T) {
		hs := NewHealthService("1.2.3", "", filepath.Join(t.TempDir(), "nope"), nil, logger)
		assert.Equal(t, "not_ready", hs.ReadinessCheck(ctx).Status)
	})

	t.Run("version", func(t *testing.T) {
		hs := NewHealthService("1.2.3", "2024-05-01", "", nil, logger)
		v := hs.Version()
		assert.Equal(t, "1.2.3", v["version"])
		assert.Equal(t, "2024-05-01", v["build_time"])
	})
}
