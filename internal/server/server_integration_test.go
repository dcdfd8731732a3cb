package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/drill"
	"github.com/ayusman/courtside/internal/report"
	"github.com/ayusman/courtside/internal/store"
)

type testEnv struct {
	ts    *httptest.Server
	app   *app.App
	store *store.Store
	hub   *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	a, err := app.New(app.Config{
		Source: capture.NewMockSource(nil, false),
		Pose:   detector.NewMockPoseDetector(),
		Store:  st,
	})
	require.NoError(t, err)

	hub := NewHub()
	rec := report.NewRecorder()
	a.AddListener(hub)
	a.AddListener(rec)

	srv := New(Config{Store: st, Session: a, Hub: hub, Report: rec, Metrics: http.NotFoundHandler()})
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})

	return &testEnv{ts: ts, app: a, store: st, hub: hub}
}

func (e *testEnv) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := e.ts.Client().Post(e.ts.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_ProfileAndSessionWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// 1. Create a profile and make it active.
	resp := env.post(t, "/api/profiles", `{"name":"guards","thresholds":{"hop_velocity_px_s":700}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = env.post(t, "/api/profiles/"+created.ID+"/activate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 2. Finishing before starting conflicts.
	resp = env.post(t, "/api/session/finish", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// 3. Start uses the active profile.
	resp = env.post(t, "/api/session/start", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var snap app.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, created.ID, snap.ProfileID)
	assert.Equal(t, drill.StateReady, snap.State)

	resp = env.post(t, "/api/session/start", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// 4. Status reports the running session.
	getResp, err := env.ts.Client().Get(env.ts.URL + "/api/session")
	require.NoError(t, err)
	defer getResp.Body.Close()
	var status struct {
		Active   bool          `json:"active"`
		Snapshot *app.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&status))
	assert.True(t, status.Active)
	require.NotNil(t, status.Snapshot)
	assert.Equal(t, snap.SessionID, status.Snapshot.SessionID)

	// 5. Finish returns the summary and thresholds of the profile.
	resp = env.post(t, "/api/session/finish", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result app.SessionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, snap.SessionID, result.SessionID)
	assert.Equal(t, 700.0, result.Thresholds.HopVelocityPxPerSec)

	// 6. The report page renders.
	reportResp, err := env.ts.Client().Get(env.ts.URL + "/api/report")
	require.NoError(t, err)
	defer reportResp.Body.Close()
	assert.Equal(t, http.StatusOK, reportResp.StatusCode)
	assert.Contains(t, reportResp.Header.Get("Content-Type"), "text/html")
}

func TestAPI_StartUnknownProfile(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/session/start", `{"profile_id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.app.SessionActive())
}

func TestHub_LiveStream(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	snap, err := env.app.StartSession("")
	require.NoError(t, err)
	_, err = env.app.FinishSession()
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var types []string
	for len(types) < 3 {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		types = append(types, msg.Type)

		if len(types) == 1 {
			var got app.Snapshot
			require.NoError(t, json.Unmarshal(msg.Data, &got))
			assert.Equal(t, snap.SessionID, got.SessionID)
		}
	}
	assert.Equal(t, []string{"snapshot", "snapshot", "summary"}, types)
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	// New connections are refused after close.
	conn2, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err == nil {
		defer conn2.Close()
		conn2.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn2.ReadMessage()
		assert.Error(t, err)
	}
}

type fakePreview struct {
	mu   sync.Mutex
	data []byte
	seq  uint64
}

func (p *fakePreview) Preview() ([]byte, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data, p.seq
}

func TestStreamHandler_MJPEG(t *testing.T) {
	src := &fakePreview{data: []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}, seq: 1}
	ts := httptest.NewServer(New(Config{Preview: src}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\n", boundary)

	hdr, err := textproto.NewReader(r).ReadMIMEHeader()
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", hdr.Get("Content-Type"))
	assert.Equal(t, "6", hdr.Get("Content-Length"))

	body := make([]byte, 6)
	_, err = io.ReadFull(r, body)
	require.NoError(t, err)
	assert.Equal(t, src.data, body)
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStreamHandler(&fakePreview{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_RoutesRequireComponents(t *testing.T) {
	s := New(Config{})
	for _, path := range []string{"/api/profiles", "/api/session", "/api/live", "/api/stream", "/api/report", "/metrics"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestServer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(Config{Hub: NewHub()}).Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
