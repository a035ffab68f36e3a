package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickspell/core/command"
	"github.com/quickspell/core/provider"
	"github.com/quickspell/core/session"
	"github.com/quickspell/core/spell"
)

const testSpell = `
id: apps
name: Applications
enabled: true
category: main
provider:
  command: sh
  args: ["-c", "printf 'APP\tFirefox\tfirefox\nAPP\tChromium\tchromium\n'"]
actions:
  - type: CMD
    cmd: ["true"]
`

func startTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apps.yml"), []byte(testSpell), 0644))
	reg, err := spell.LoadDir(dir)
	require.NoError(t, err)

	exec := &command.RealExecutor{}
	sess := session.New(session.Options{
		Registry:    reg,
		Runner:      provider.NewRunner(exec, ""),
		Launcher:    command.NewLauncher(exec, ""),
		RootSpellID: "apps",
	})
	require.NoError(t, sess.Start(context.Background()))
	require.Eventually(t, func() bool {
		return sess.Snapshot().Status == session.StatusReady
	}, 3*time.Second, 5*time.Millisecond)

	srv := New(sess)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { srv.stream.Close() })
	return ts, sess
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) session.Snapshot {
	t.Helper()
	defer resp.Body.Close()
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestGetState(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/state")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := decodeSnapshot(t, resp)
	assert.Equal(t, session.StatusReady, snap.Status)
	assert.Len(t, snap.Items, 2)
}

func TestQueryEndpoint(t *testing.T) {
	ts, sess := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/query", map[string]string{"query": "fire"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		snap := sess.Snapshot()
		return !snap.Filtering && snap.TotalItems == 1
	}, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Firefox", sess.Snapshot().Items[0].Display)
}

func TestSelectionEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/selection", map[string]int{"delta": 5})
	snap := decodeSnapshot(t, resp)
	assert.Equal(t, 1, snap.SelectedIndex)
}

func TestActionEndpointNotFound(t *testing.T) {
	ts, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/action", map[string]string{"label": "NOPE"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestEscapeEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/escape", struct{}{})
	snap := decodeSnapshot(t, resp)
	// Escape on the root frame leaves the stack alone.
	assert.Equal(t, []string{"Applications"}, snap.SpellNames)
}

func TestPostRequired(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/query")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts, _ := startTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketStreamsSnapshots(t *testing.T) {
	ts, _ := startTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is primed with the current state.
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var snap session.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, session.StatusReady, snap.Status)

	// A query change flows through the stream.
	resp := postJSON(t, ts.URL+"/api/query", map[string]string{"query": "chrom"})
	resp.Body.Close()

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "filtered snapshot never arrived")
		conn.SetReadDeadline(deadline)
		require.NoError(t, conn.ReadJSON(&snap))
		if !snap.Filtering && snap.TotalItems == 1 {
			assert.Equal(t, "Chromium", snap.Items[0].Display)
			return
		}
	}
}
