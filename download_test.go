package taskrun_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	taskrun "github.com/goliatone/go-taskrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOnceDownloadsOnlyOnce(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("jar-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "target", "lib.jar")
	out := &bytes.Buffer{}
	shell := taskrun.NewShell(
		taskrun.WithShellOutput(out),
		taskrun.WithShellHTTPClient(server.Client()),
	)

	downloaded, err := shell.FetchOnce(context.Background(), server.URL+"/lib.jar", dest)
	require.NoError(t, err)
	assert.True(t, downloaded)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(content))

	downloaded, err = shell.FetchOnce(context.Background(), server.URL+"/lib.jar", dest)
	require.NoError(t, err)
	assert.False(t, downloaded)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t,
		"Downloading "+server.URL+"/lib.jar\n"+
			"Already downloaded: "+dest+"\n",
		out.String())
}

func TestFetchOnceFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "lib.jar")
	shell := taskrun.NewShell(
		taskrun.WithShellOutput(&bytes.Buffer{}),
		taskrun.WithShellHTTPClient(server.Client()),
	)

	downloaded, err := shell.FetchOnce(context.Background(), server.URL+"/missing.jar", dest)
	require.Error(t, err)
	assert.False(t, downloaded)
	assert.Contains(t, err.Error(), "404")
	assert.NoFileExists(t, dest)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file is left behind")
}

func TestFetchOnceHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "lib.jar")
	shell := taskrun.NewShell(
		taskrun.WithShellOutput(&bytes.Buffer{}),
		taskrun.WithShellHTTPClient(server.Client()),
	)

	_, err := shell.FetchOnce(ctx, server.URL, dest)
	require.Error(t, err)
	assert.NoFileExists(t, dest)
}
