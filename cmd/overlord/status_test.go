package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/aretw0/overlord/pkg/domain"
	"github.com/aretw0/overlord/pkg/supervisor"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_FetchAndRender(t *testing.T) {
	want := supervisor.Status{
		Shutdown: domain.Running.String(),
		Processes: []supervisor.ProcessStatus{
			{ID: 1, Command: "sleep 10", Pid: 4242, State: domain.ProcessRunning},
			{ID: 2, Command: "false", State: domain.ProcessExited, Restarts: 3, LastExit: &domain.ExitStatus{Code: 1, Reaped: true}},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := fetchStatus(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var buf bytes.Buffer
	renderStatus(termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii)), got)

	out := buf.String()
	assert.Contains(t, out, "shutdown: running")
	assert.Contains(t, out, "4242")
	assert.Contains(t, out, "sleep 10")
	assert.Contains(t, out, "exited")
	assert.NotContains(t, out, "\x1b[", "no escapes without a color profile")
}

func TestStatus_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fetchStatus(context.Background(), srv.Listener.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestVersionString(t *testing.T) {
	v := versionString()
	assert.Contains(t, v, "overlord version ")
	assert.Contains(t, v, runtime.GOOS+"/"+runtime.GOARCH)
}
