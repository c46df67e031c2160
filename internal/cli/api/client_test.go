package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LoginSendsJSONAndDecodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/Me", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var m map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		assert.Equal(t, "a@x.com", m["username"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"u1","username":"a@x.com"},"cyToken":"tok"}`))
	}))
	defer ts.Close()

	user, token, err := NewClient(ts.URL+"/", "").Login(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok", token)
}

func TestClient_SendsBearerAndMapsErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"text must not be empty","field":"text"}`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "tok123").AddComment(context.Background(), "m1", " ")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "text", apiErr.Field)
	assert.Contains(t, err.Error(), "text must not be empty")
}

func TestClient_PlainTextError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "").Markers(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestClient_UploadImageReturnsLocation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Image/i1/blob", r.URL.Path)
		assert.Equal(t, int64(5), r.ContentLength)
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, "bytes", string(b))
		http.Redirect(w, r, "/upload/i1.png", http.StatusFound)
	}))
	defer ts.Close()

	loc, err := NewClient(ts.URL, "tok").UploadImage(context.Background(), "i1", strings.NewReader("bytes"), 5)
	require.NoError(t, err)
	assert.Equal(t, "/upload/i1.png", loc)
}

func TestClient_CreateMarkerOmitsEmptyImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		assert.NotContains(t, m, "imageId")
		assert.Equal(t, "hi", m["text"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"marker":{"id":"m1"},"comment":{"id":"c1","markerId":"m1"}}`))
	}))
	defer ts.Close()

	m, c, err := NewClient(ts.URL, "tok").CreateMarker(context.Background(), "", 1, 2, "hi")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "m1", c.MarkerID)
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8081/ws", wsURL("http://localhost:8081"))
	assert.Equal(t, "wss://example.com/ws", wsURL("https://example.com"))
	assert.Equal(t, "ws://host:1/ws", wsURL("host:1"))
}

func TestClient_WatchSubscribesAndStreams(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"event": "ack", "data": map[string]any{"ok": sub["data"] == "m1"}})
		_ = conn.WriteJSON(map[string]any{"event": "saved", "data": map[string]any{"marker": map[string]any{"id": "m1"}}})
		// ждём закрытия со стороны клиента
		_, _, _ = conn.ReadMessage()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []Event
	err := NewClient(ts.URL, "tok").Watch(ctx, []string{"m1"}, func(ev Event) {
		events = append(events, ev)
		if len(events) == 2 {
			cancel()
		}
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ack", events[0].Event)
	assert.JSONEq(t, `{"ok":true}`, string(events[0].Data))
	assert.Equal(t, "saved", events[1].Event)
}
