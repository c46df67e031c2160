package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageBody struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Extension string `json:"extension"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

func createImage(t *testing.T, s *testServer, token string, body any) imageBody {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/Image", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[map[string]imageBody](t, resp)["image"]
}

func TestImageHandler_CreateListGet(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpAndIn(t, "a@x.com", "pw1")

	img := createImage(t, s, sess.CYToken, map[string]any{"extension": "png", "x": 10, "y": 20})
	assert.Equal(t, sess.User.ID, img.UserID)
	assert.Equal(t, 10, img.X)

	resp := s.do(t, http.MethodGet, "/api/Image", sess.CYToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]imageBody](t, resp)["images"]
	require.Len(t, list, 1)
	assert.Equal(t, img.ID, list[0].ID)

	resp = s.do(t, http.MethodGet, "/api/Image/"+img.ID, sess.CYToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20, decode[map[string]imageBody](t, resp)["image"].Y)
}

func TestImageHandler_EmptyListIsArray(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpAndIn(t, "a@x.com", "pw1")

	resp := s.do(t, http.MethodGet, "/api/Image", sess.CYToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"images":[]}`, string(raw))
}

func TestImageHandler_Validation(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpAndIn(t, "a@x.com", "pw1")

	resp := s.do(t, http.MethodPost, "/api/Image", sess.CYToken, map[string]any{"extension": "bmp"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "extension", decode[errBody](t, resp).Field)

	resp = s.do(t, http.MethodPost, "/api/Image", sess.CYToken, map[string]any{"extension": "png", "x": "ten"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/Image", "", map[string]any{"extension": "png"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestImageHandler_NotFound(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpAndIn(t, "a@x.com", "pw1")

	for _, id := range []string{"not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		resp := s.do(t, http.MethodGet, "/api/Image/"+id, sess.CYToken, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, id)
	}
}

func TestImageHandler_UpdatePartial(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpAndIn(t, "a@x.com", "pw1")
	img := createImage(t, s, sess.CYToken, map[string]any{"extension": "jpg", "x": 1, "y": 2})

	// y неправильного типа отбрасывается, x применяется
	resp := s.do(t, http.MethodPatch, "/api/Image/"+img.ID, sess.CYToken, map[string]any{"x": 50, "y": "oops"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]imageBody](t, resp)["image"]
	assert.Equal(t, 50, got.X)
	assert.Equal(t, 2, got.Y)

	// пустой патч ничего не меняет
	resp = s.do(t, http.MethodPatch, "/api/Image/"+img.ID, sess.CYToken, map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[map[string]imageBody](t, resp)["image"]
	assert.Equal(t, 50, got.X)
	assert.Equal(t, 2, got.Y)
}

func TestImageHandler_DeleteOwnerOnly(t *testing.T) {
	s := newTestServer(t)
	owner := s.signUpAndIn(t, "a@x.com", "pw1")
	other := s.signUpAndIn(t, "b@x.com", "pw1")
	img := createImage(t, s, owner.CYToken, map[string]any{"extension": "gif"})

	resp := s.do(t, http.MethodDelete, "/api/Image/"+img.ID, other.CYToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/Image/"+img.ID, owner.CYToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/Image/"+img.ID, owner.CYToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func putBlob(t *testing.T, s *testServer, token, id string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, s.URL+"/api/Image/"+id+"/blob", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/octet-stream")
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestImageHandler_BlobUploadAndServe(t *testing.T) {
	s := newTestServer(t)
	sess := s.signUpAndIn(t, "a@x.com", "pw1")
	img := createImage(t, s, sess.CYToken, map[string]any{"extension": "png"})

	payload := []byte("\x89PNG fake image bytes")
	resp := putBlob(t, s, sess.CYToken, img.ID, payload)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc := resp.Header.Get("Location")
	assert.Equal(t, "/upload/"+img.ID+".png", loc)

	get, err := http.Get(s.URL + loc)
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, http.StatusOK, get.StatusCode)
	assert.Equal(t, "image/png", get.Header.Get("Content-Type"))
	got, err := io.ReadAll(get.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	missing, err := http.Get(s.URL + "/upload/nothing.png")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestImageHandler_BlobRules(t *testing.T) {
	s := newTestServer(t)
	owner := s.signUpAndIn(t, "a@x.com", "pw1")
	other := s.signUpAndIn(t, "b@x.com", "pw1")
	img := createImage(t, s, owner.CYToken, map[string]any{"extension": "jpg"})

	resp := putBlob(t, s, other.CYToken, img.ID, []byte("x"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// лимит в тестовой конфигурации — 1 МБ
	big := strings.NewReader(strings.Repeat("a", 1<<20+1))
	req := httptest.NewRequest(http.MethodPut, "/api/Image/"+img.ID+"/blob", big)
	req.Header.Set("Authorization", "Bearer "+owner.CYToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// без Content-Length лимит срабатывает при чтении
	req = httptest.NewRequest(http.MethodPut, "/api/Image/"+img.ID+"/blob", io.NopCloser(strings.NewReader(strings.Repeat("a", 1<<20+1))))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+owner.CYToken)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
