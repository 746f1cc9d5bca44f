package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) cliResult {
	t.Helper()
	for _, key := range []string{"CONDENSER_CONFIG", "CONDENSER_ENDPOINT", "CONDENSER_STORAGE", "CONDENSER_ARTIFACT_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func upstream(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		text := r.FormValue("text")
		io.WriteString(w, text[:len(text)*2/5])
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestCondense_File(t *testing.T) {
	srv, hits := upstream(t, http.StatusOK)
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte(strings.Repeat("x", 1000)), 0o600))
	out := filepath.Join(dir, "condensed.txt")

	res := execute(t, "--endpoint", srv.URL, "--artifact-dir", filepath.Join(dir, "artifacts"),
		"--ratio", "0.4", "--out", out, input)
	require.NoError(t, res.err, res.stderr)

	assert.EqualValues(t, 1, hits.Load())
	assert.Contains(t, res.stdout, "Original size:  1000 Bytes")
	assert.Contains(t, res.stdout, "Processed size: 400 Bytes")
	assert.Contains(t, res.stdout, "Reduction:      60.0%")
	assert.Contains(t, res.stderr, "notes.txt (1000 Bytes)")

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 400), string(got))
}

func TestCondense_TextToStdout(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK)

	res := execute(t, "--endpoint", srv.URL, "--artifact-dir", t.TempDir(), "--text", "abcdefghij", "--out", "-")
	require.NoError(t, res.err, res.stderr)
	assert.True(t, strings.HasSuffix(res.stdout, "abcd"))
}

func TestCondense_ServiceError(t *testing.T) {
	srv, hits := upstream(t, http.StatusInternalServerError)

	res := execute(t, "--endpoint", srv.URL, "--artifact-dir", t.TempDir(), "--text", "some text")
	require.Error(t, res.err)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 1, strings.Count(res.stderr, "Error:"), "notified once")
	assert.NotContains(t, res.stdout, "Reduction")
}

func TestCondense_Rejections(t *testing.T) {
	srv, hits := upstream(t, http.StatusOK)
	dir := t.TempDir()
	image := filepath.Join(dir, "pic.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no input", args: nil, want: "exactly one"},
		{name: "bad ratio", args: []string{"--text", "hi", "--ratio", "1.5"}, want: "invalid ratio"},
		{name: "unsupported type", args: []string{image}, want: "Unsupported file type for pic.png"},
		{name: "missing file", args: []string{filepath.Join(dir, "nope.txt")}, want: "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--endpoint", srv.URL, "--artifact-dir", dir}, tt.args...)
			res := execute(t, args...)
			require.Error(t, res.err)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
	assert.Zero(t, hits.Load())
}
