package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeCatalog(t, "tools.toml", `
[[tools]]
id = "aider"
name = "Aider"
description = "AI pair programming in your terminal"

[[tools.suggested_configs]]
label = "Settings"
path = "~/.aider.conf.yml"
`)

	tools, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "aider", tools[0].ID)
	require.Len(t, tools[0].SuggestedConfigs, 1)
	assert.Equal(t, FormatYAML, tools[0].SuggestedConfigs[0].Format, "format detected from path")
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeCatalog(t, "tools.yaml", `
tools:
  - id: continue
    name: Continue
    docs_url: https://docs.continue.dev
    suggested_configs:
      - label: Config
        path: ~/.continue/config.yaml
        format: yaml
`)

	tools, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "https://docs.continue.dev", tools[0].DocsURL)
	assert.Equal(t, FormatYAML, tools[0].SuggestedConfigs[0].Format)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeCatalog(t, "tools.json", `{"tools":[{"id":"cody","name":"Cody",
		"suggestedConfigs":[{"label":"Settings","path":"~/.cody/config.json","format":"json","jsonPath":"cody"}]}]}`)

	tools, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "cody", tools[0].SuggestedConfigs[0].JSONPath)
}

func TestLoadFile_JSONUnknownField(t *testing.T) {
	path := writeCatalog(t, "tools.json", `{"tools":[], "extra": true}`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalog")
}

func TestLoadFile_Invalid(t *testing.T) {
	path := writeCatalog(t, "tools.toml", `
[[tools]]
id = "a"
name = "A"

[[tools]]
id = "a"

[[tools.suggested_configs]]
path = "notes.txt"
`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), "missing name")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := writeCatalog(t, "tools.ini", "[tools]\n")
	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	path = writeCatalog(t, "tools.xml", "<tools/>")
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

