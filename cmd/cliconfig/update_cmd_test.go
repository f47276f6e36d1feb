package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReleases serves one GitHub-style latest release for acme/cliconfig
// with an archive for the running platform.
func fakeReleases(t *testing.T, tag string, binary []byte) *httptest.Server {
	t.Helper()

	var archive bytes.Buffer
	gz := gzip.NewWriter(&archive)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "cliconfig", Mode: 0755, Size: int64(len(binary)), Typeflag: tar.TypeReg}))
	_, err := tw.Write(binary)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	asset := fmt.Sprintf("cliconfig-%s-%s-%s.tar.gz", tag, runtime.GOOS, runtime.GOARCH)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/repos/acme/cliconfig/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":%q,"assets":[{"name":%q,"browser_download_url":%q}]}`,
			tag, asset, srv.URL+"/download/"+asset)
	})
	mux.HandleFunc("/download/"+asset, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive.Bytes())
	})
	return srv
}

func withVersion(t *testing.T, v string) {
	t.Helper()
	old := version
	version = v
	t.Cleanup(func() { version = old })
}

func TestUpdate_NoRepoConfigured(t *testing.T) {
	_, err := run(t, t.TempDir(), "update", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update-repo")
}

func TestUpdate_CheckAndDismiss(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("release archives are zip files on windows")
	}
	withVersion(t, "1.2.0")
	srv := fakeReleases(t, "v1.3.0", []byte("new"))

	dir := t.TempDir()
	mustRun(t, dir, "config", "set", "update-repo", "acme/cliconfig")
	mustRun(t, dir, "config", "set", "update-api-url", srv.URL)

	out := mustRun(t, dir, "update", "check")
	assert.Contains(t, out, "Update available: 1.3.0 (running 1.2.0)")

	var st struct {
		Latest    string `json:"latest"`
		Available bool   `json:"available"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "update", "check", "--json")), &st))
	assert.True(t, st.Available)
	assert.Equal(t, "1.3.0", st.Latest)

	assert.Equal(t, "Dismissed update 1.3.0.\n", mustRun(t, dir, "update", "dismiss"))
	assert.Equal(t, "Update 1.3.0 was dismissed.\n", mustRun(t, dir, "update", "check"))

	// a dismissed older version does not hide a newer one
	mustRun(t, dir, "update", "dismiss", "v1.2.5")
	assert.Contains(t, mustRun(t, dir, "update", "check"), "Update available: 1.3.0")

	withVersion(t, "1.3.0")
	assert.Equal(t, "cliconfig 1.3.0 is up to date.\n", mustRun(t, dir, "update", "check"))
}

func TestUpdate_Apply(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("release archives are zip files on windows")
	}
	withVersion(t, "1.2.0")
	srv := fakeReleases(t, "v1.3.0", []byte("cliconfig 1.3.0"))

	dir := t.TempDir()
	mustRun(t, dir, "config", "set", "update-repo", "acme/cliconfig")
	mustRun(t, dir, "config", "set", "update-api-url", srv.URL)

	target := filepath.Join(t.TempDir(), "cliconfig")
	require.NoError(t, os.WriteFile(target, []byte("cliconfig 1.2.0"), 0755))

	out := mustRun(t, dir, "update", "apply", "--target", target)
	assert.Equal(t, "Updated to 1.3.0. Run cliconfig again to use it.\n", out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "cliconfig 1.3.0", string(data))

	withVersion(t, "1.3.0")
	assert.Equal(t, "cliconfig 1.3.0 is up to date.\n", mustRun(t, dir, "update", "apply", "--target", target))
}

func TestStateRestore(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "tools", "pin", "amp")
	mustRun(t, dir, "prefs", "theme", "light")
	mustRun(t, dir, "prefs", "config-file", "add", "amp", "--label", "Global", "--path", "~/.config/amp/settings.json")
	mustRun(t, dir, "recent", "add", "amp", "/work/amp.json")

	backup := filepath.Join(t.TempDir(), "snapshot.db")
	mustRun(t, dir, "state", "backup", backup)

	mustRun(t, dir, "tools", "reset")
	mustRun(t, dir, "prefs", "theme", "dark")
	mustRun(t, dir, "recent", "clear")

	out := mustRun(t, dir, "--events", "state", "restore", backup)
	assert.True(t, strings.HasPrefix(out, "Restored visibility, preferences, recent files from "+backup+"\n"))
	assert.Contains(t, out, `"type":"visibility_changed"`)
	assert.Contains(t, out, `"type":"preferences_changed"`)
	assert.Contains(t, out, `"type":"recent_files_changed"`)

	assert.Equal(t, []string{"amp"}, toolIDs(listTools(t, dir).Pinned))
	assert.Equal(t, "Theme: light\n", mustRun(t, dir, "prefs", "theme"))
	assert.Contains(t, mustRun(t, dir, "prefs", "config-file", "list", "amp"), "Global")
	assert.Contains(t, mustRun(t, dir, "recent", "list"), "amp.json")

	_, err := run(t, dir, "state", "restore", filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestWatch_PrintsLoadedConfigFirst(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "config", "set", "path-max-length", "33")

	c := &cli{v: viper.New()}
	root := c.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--data-dir", dir, "--log-level", "error", "watch"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, root.ExecuteContext(ctx))

	var ev struct {
		Type   string `json:"type"`
		Action string `json:"action"`
		Data   struct {
			Display struct {
				PathMaxLength int `json:"path_max_length"`
			} `json:"display"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.Split(out.String(), "\n")[0]), &ev))
	assert.Equal(t, "config_reloaded", ev.Type)
	assert.Equal(t, "load", ev.Action)
	assert.Equal(t, 33, ev.Data.Display.PathMaxLength)
}
