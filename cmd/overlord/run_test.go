//go:build unix

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRun_ControlServerShutdown(t *testing.T) {
	addr := freeAddr(t)
	path := filepath.Join(t.TempDir(), "commands.txt")
	require.NoError(t, os.WriteFile(path, []byte("# demo\necho tick; exec sleep 30\n"), 0o644))

	var out syncBuffer
	cmd := newTestCommand(t, "--listen", addr, "--log-format", "json")
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- runSupervisor(cmd, []string{path}) }()

	base := "http://" + addr
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "tick\n")
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "overlord_process_starts_total")

	st, err := fetchStatus(context.Background(), addr)
	require.NoError(t, err)
	require.Len(t, st.Processes, 1)
	assert.Equal(t, "echo tick; exec sleep 30", st.Processes[0].Command)

	resp, err = http.Post(base+"/shutdown?mode=graceful", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	cmd := newTestCommand(t)
	cmd.SetErr(io.Discard)
	err := runSupervisor(cmd, []string{"/does/not/exist"})
	require.Error(t, err)

	_, err = serveControl("not-an-address", nil, nil, nil)
	assert.Error(t, err)
}
