package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

// testServer — полный роутер поверх in-memory SQLite и дискового хранилища.
type testServer struct {
	*httptest.Server
	router http.Handler
	hub    *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
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

	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub(logger)
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, hub.Running, time.Second, 5*time.Millisecond)

	cfg := &config.Config{
		DatabaseDSN:   dsn,
		ServiceName:   "cymarker",
		BlobMaxSizeMB: 1,
	}
	hasher := auth.NewPasswordHasherWithCost(1 << 4)
	tokens := auth.NewTokenCodec(cfg.ServiceName, logger)

	userService := service.NewUserService(repo.NewUserRepository(db), hasher, tokens, logger)
	imageService := service.NewImageService(repo.NewImageRepository(db), store, hub, logger)
	markerService := service.NewMarkerService(repo.NewMarkerRepository(db), hub, logger)

	h := handlers.NewHandler(userService, imageService, markerService, hub, logger, cfg)
	srv := httptest.NewServer(h.Router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, router: h.Router, hub: hub}
}

// do выполняет запрос с JSON-телом и Bearer-токеном (если задан).
func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type userBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type session struct {
	User    userBody `json:"user"`
	CYToken string   `json:"cyToken"`
}

type errBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// signUpAndIn регистрирует пользователя и возвращает сессию.
func (s *testServer) signUpAndIn(t *testing.T, username, password string) session {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/User", "", map[string]string{
		"name": "Tester", "username": username, "password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/Me", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[session](t, resp)
}
