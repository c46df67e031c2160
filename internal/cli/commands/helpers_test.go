package commands

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CyMarker/internal/auth"
	"CyMarker/internal/blob"
	"CyMarker/internal/config"
	"CyMarker/internal/handlers"
	"CyMarker/internal/realtime"
	"CyMarker/internal/repo"
	"CyMarker/internal/service"
)

// newTestEnv поднимает настоящий сервер на in-memory SQLite и возвращает
// конфигурацию CLI, указывающую на него, и буфер вывода.
func newTestEnv(t *testing.T) (*config.Config, *bytes.Buffer) {
	t.Helper()
	logger := zap.NewNop().Sugar()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
	db, err := repo.InitDB(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store, err := blob.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	serverCfg := &config.Config{DatabaseDSN: dsn, ServiceName: "cymarker", BlobMaxSizeMB: 1}
	hasher := auth.NewPasswordHasherWithCost(1 << 4)
	tokens := auth.NewTokenCodec(serverCfg.ServiceName, logger)

	// без хаба события отбрасываются, /ws отвечает 503
	var hub *realtime.Hub

	userService := service.NewUserService(repo.NewUserRepository(db), hasher, tokens, logger)
	imageService := service.NewImageService(repo.NewImageRepository(db), store, hub, logger)
	markerService := service.NewMarkerService(repo.NewMarkerRepository(db), hub, logger)
	h := handlers.NewHandler(userService, imageService, markerService, hub, logger, serverCfg)

	srv := httptest.NewServer(h.Router)
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	prev := Out
	Out = out
	t.Cleanup(func() { Out = prev })

	return &config.Config{
		ServerURL: srv.URL,
		TokenFile: filepath.Join(t.TempDir(), "token"),
	}, out
}
