package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefsConfigFile(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "No config files attached to claude-code.\n", mustRun(t, dir, "prefs", "config-file", "list", "claude-code"))

	out := mustRun(t, dir, "prefs", "config-file", "add", "claude-code",
		"--label", "MCP servers", "--path", "~/.claude.json", "--json-path", "mcpServers")
	assert.Contains(t, out, "Added MCP servers (config-")

	var files []struct {
		ID       string `json:"id"`
		Label    string `json:"label"`
		Format   string `json:"format"`
		JSONPath string `json:"jsonPath"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "prefs", "config-file", "list", "claude-code", "--json")), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "json", files[0].Format)
	assert.Equal(t, "mcpServers", files[0].JSONPath)
	id := files[0].ID

	mustRun(t, dir, "prefs", "config-file", "update", "claude-code", id, "--label", "Servers")
	assert.Contains(t, mustRun(t, dir, "prefs", "config-file", "list", "claude-code"), "Servers")

	// Opening the attached file records it under its id and label.
	assert.Equal(t, "Recorded Claude Code: Servers\n", mustRun(t, dir, "recent", "add", "claude-code", "~/.claude.json"))
	var recent []struct {
		ConfigID string `json:"configId"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "recent", "list", "--json")), &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, id, recent[0].ConfigID)

	mustRun(t, dir, "prefs", "config-file", "rm", "claude-code", id)
	assert.Equal(t, "[]\n", mustRun(t, dir, "prefs", "config-file", "list", "claude-code", "--json"))

	_, err := run(t, dir, "prefs", "config-file", "rm", "claude-code", id)
	assert.Error(t, err)
	_, err = run(t, dir, "prefs", "config-file", "add", "nope", "--label", "X", "--path", "x.json")
	assert.Error(t, err, "unknown tool")
}

func TestPrefsSettings(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "13\n", mustRun(t, dir, "prefs", "settings", "show", "editor.fontSize"))
	assert.Equal(t, "editor.tabSize = 4\n", mustRun(t, dir, "prefs", "settings", "set", "editor.tabSize", "4"))
	assert.Equal(t, "4\n", mustRun(t, dir, "prefs", "settings", "show", "editor.tabSize"))

	_, err := run(t, dir, "prefs", "settings", "set", "editor.wordWrap", "sometimes")
	assert.Error(t, err)
	_, err = run(t, dir, "prefs", "settings", "set", "editor.colour", "red")
	assert.Error(t, err)

	var all struct {
		Editor struct {
			TabSize int `json:"tabSize"`
		} `json:"editorSettings"`
		Backup struct {
			MaxBackups int `json:"maxBackups"`
		} `json:"backupSettings"`
	}
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, dir, "prefs", "settings", "show")), &all))
	assert.Equal(t, 4, all.Editor.TabSize)
	assert.Equal(t, 1, all.Backup.MaxBackups)

	mustRun(t, dir, "prefs", "settings", "reset")
	assert.Equal(t, "2\n", mustRun(t, dir, "prefs", "settings", "show", "editor.tabSize"))
	assert.Contains(t, mustRun(t, dir, "prefs", "settings", "keys"), "behavior.reduceMotion\n")
}

func TestPrefsLayout(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "Sidebar width: 288px\n", mustRun(t, dir, "prefs", "sidebar-width"))
	assert.Equal(t, "Sidebar width: 320px\n", mustRun(t, dir, "prefs", "sidebar-width", "320"))
	assert.Equal(t, "Sidebar width: 400px\n", mustRun(t, dir, "prefs", "sidebar-width", "9000"))
	_, err := run(t, dir, "prefs", "sidebar-width", "wide")
	assert.Error(t, err)

	assert.Equal(t, "No tools expanded.\n", mustRun(t, dir, "prefs", "expanded"))
	assert.Equal(t, "amp expanded\n", mustRun(t, dir, "prefs", "expanded", "toggle", "amp"))
	assert.Equal(t, "amp\n", mustRun(t, dir, "prefs", "expanded"))
	assert.Equal(t, "amp collapsed\n", mustRun(t, dir, "prefs", "expanded", "toggle", "amp"))

	out := mustRun(t, dir, "prefs", "expanded", "all")
	assert.Len(t, strings.Fields(out), 6)
	assert.Equal(t, "No tools expanded.\n", mustRun(t, dir, "prefs", "expanded", "none"))

	_, err = run(t, dir, "prefs", "expanded", "toggle", "nope")
	assert.Error(t, err)
	_, err = run(t, dir, "prefs", "expanded", "sideways")
	assert.Error(t, err)
}

func TestEventsFlag(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "--events", "tools", "pin", "amp")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "amp: pinned", lines[0])

	var ev struct {
		Type   string `json:"type"`
		Action string `json:"action"`
		ToolID string `json:"tool_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, "visibility_changed", ev.Type)
	assert.Equal(t, "pin", ev.Action)
	assert.Equal(t, "amp", ev.ToolID)

	// without the flag nothing extra is printed
	assert.Equal(t, "amp: visible\n", mustRun(t, dir, "tools", "unpin", "amp"))
}
