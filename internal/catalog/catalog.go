// Package catalog describes the CLI tools whose config files cliconfig knows
// about: the built-in list, user catalog files and name filtering.
package catalog

import (
	"slices"
	"strings"
)

// SuggestedConfig is a config file a tool commonly uses. Path may start with
// "~" and may be relative to a project directory.
type SuggestedConfig struct {
	Label       string       `json:"label" yaml:"label" toml:"label"`
	Path        string       `json:"path" yaml:"path" toml:"path"`
	Format      ConfigFormat `json:"format" yaml:"format" toml:"format"`
	Icon        string       `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	// JSONPath is a dot-separated path to the part of a JSON file the tool
	// owns, e.g. "mcpServers".
	JSONPath string `json:"jsonPath,omitempty" yaml:"json_path,omitempty" toml:"json_path,omitempty"`
}

// Tool is a CLI tool with the config files it is known to use.
type Tool struct {
	ID               string            `json:"id" yaml:"id" toml:"id"`
	Name             string            `json:"name" yaml:"name" toml:"name"`
	Icon             string            `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	DocsURL          string            `json:"docsUrl,omitempty" yaml:"docs_url,omitempty" toml:"docs_url,omitempty"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	SuggestedConfigs []SuggestedConfig `json:"suggestedConfigs,omitempty" yaml:"suggested_configs,omitempty" toml:"suggested_configs,omitempty"`
}

// ToolID returns the tool's id.
func (t Tool) ToolID() string { return t.ID }

// DisplayName returns the tool's name.
func (t Tool) DisplayName() string { return t.Name }

var builtinTools = []Tool{
	{
		ID:          "claude-code",
		Name:        "Claude Code",
		Icon:        "🤖",
		DocsURL:     "https://code.claude.com/docs/en/settings",
		Description: "Anthropic's official Claude Code CLI",
		SuggestedConfigs: []SuggestedConfig{
			{Label: "Settings", Path: "~/.claude/settings.json", Format: FormatJSON, Icon: "⚙️",
				Description: "User settings (permissions, env, hooks, model)"},
			{Label: "MCP Servers (User)", Path: "~/.claude.json", Format: FormatJSON, Icon: "🔌",
				Description: "User-level MCP server configuration", JSONPath: "mcpServers"},
			{Label: "MCP Servers (Project)", Path: ".mcp.json", Format: FormatJSON, Icon: "📁",
				Description: "Project-level MCP server configuration"},
			{Label: "Memory", Path: "~/.claude/CLAUDE.md", Format: FormatMarkdown, Icon: "📝",
				Description: "Global instructions/memory file"},
		},
	},
	{
		ID:          "gemini-cli",
		Name:        "Gemini CLI",
		Icon:        "✨",
		DocsURL:     "https://geminicli.com/docs/",
		Description: "Google's Gemini CLI",
		SuggestedConfigs: []SuggestedConfig{
			{Label: "Settings", Path: "~/.gemini/settings.json", Format: FormatJSON, Icon: "⚙️",
				Description: "Main settings with MCP servers"},
			{Label: "Memory", Path: "~/.gemini/GEMINI.md", Format: FormatMarkdown, Icon: "📝",
				Description: "Global context/memory file"},
		},
	},
	{
		ID:          "amp",
		Name:        "Amp",
		Icon:        "⚡",
		DocsURL:     "https://ampcode.com/manual",
		Description: "Sourcegraph's AI coding agent",
		SuggestedConfigs: []SuggestedConfig{
			{Label: "Settings", Path: "~/.config/amp/settings.toml", Format: FormatTOML, Icon: "⚙️",
				Description: "Main configuration file"},
		},
	},
	{
		ID:          "gh-copilot",
		Name:        "GitHub Copilot CLI",
		Icon:        "🐙",
		DocsURL:     "https://docs.github.com/en/copilot/github-copilot-in-the-cli",
		Description: "GitHub's AI-powered CLI assistant",
		SuggestedConfigs: []SuggestedConfig{
			{Label: "Settings", Path: "~/.config/gh-copilot/config.yml", Format: FormatYAML, Icon: "⚙️",
				Description: "Main configuration file"},
		},
	},
	{
		ID:          "cursor",
		Name:        "Cursor",
		Icon:        "▢",
		DocsURL:     "https://cursor.com/docs",
		Description: "AI-first code editor",
		SuggestedConfigs: []SuggestedConfig{
			{Label: "Settings", Path: "~/.config/Cursor/User/settings.json", Format: FormatJSON, Icon: "⚙️",
				Description: "User settings file"},
		},
	},
	{
		ID:          "opencode",
		Name:        "OpenCode",
		Icon:        "⌬",
		DocsURL:     "https://opencode.ai/docs/config/",
		Description: "AI coding agent for the terminal by SST",
		SuggestedConfigs: []SuggestedConfig{
			{Label: "Global Config", Path: "~/.config/opencode/opencode.json", Format: FormatJSON, Icon: "⚙️",
				Description: "Global configuration file"},
			{Label: "Project Config", Path: "opencode.json", Format: FormatJSON, Icon: "📁",
				Description: "Project-level configuration"},
		},
	},
}

// BuiltinTools returns a copy of the built-in tool list.
func BuiltinTools() []Tool {
	out := make([]Tool, len(builtinTools))
	for i, t := range builtinTools {
		t.SuggestedConfigs = slices.Clone(t.SuggestedConfigs)
		out[i] = t
	}
	return out
}

// Find returns the tool with the given id.
func Find(tools []Tool, id string) (Tool, bool) {
	for _, t := range tools {
		if t.ID == id {
			return t, true
		}
	}
	return Tool{}, false
}

// Merge returns base with extra applied: a tool in extra replaces the base
// tool with the same id in place, other extra tools are appended in order.
func Merge(base, extra []Tool) []Tool {
	out := slices.Clone(base)
	index := make(map[string]int, len(out))
	for i, t := range out {
		index[t.ID] = i
	}
	for _, t := range extra {
		if i, ok := index[t.ID]; ok {
			out[i] = t
			continue
		}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

// Named is anything with a display name.
type Named interface {
	DisplayName() string
}

// Filter keeps the items whose name contains query, ignoring case.
// An empty query keeps everything.
func Filter[T Named](items []T, query string) []T {
	q := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.DisplayName()), q) {
			out = append(out, item)
		}
	}
	return out
}
