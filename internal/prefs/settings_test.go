package prefs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := NewStore(nil, nil).Settings()

	assert.Equal(t, 13, s.Editor.FontSize)
	assert.Equal(t, "'JetBrains Mono', 'Fira Code', monospace", s.Editor.FontFamily)
	assert.Equal(t, 2, s.Editor.TabSize)
	assert.Equal(t, "on", s.Editor.WordWrap)
	assert.Equal(t, "on", s.Editor.LineNumbers)
	assert.False(t, s.Editor.Minimap)
	assert.Equal(t, 2000, s.Editor.AutoSaveDelay)
	assert.Equal(t, BackupSettings{Enabled: true, MaxBackups: 1}, s.Backup)
	assert.Equal(t, BehaviorSettings{ConfirmBeforeDelete: true, RememberLastOpenedFile: true, ReduceMotion: "system"}, s.Behavior)
}

func TestSettingsSet(t *testing.T) {
	tests := []struct {
		key, value string
		want       string
		wantErr    bool
	}{
		{key: "editor.fontSize", value: "16", want: "16"},
		{key: "editor.fontSize", value: "big", wantErr: true},
		{key: "editor.fontSize", value: "200", wantErr: true},
		{key: "editor.wordWrap", value: "wordWrapColumn", want: "wordWrapColumn"},
		{key: "editor.lineNumbers", value: "relative", want: "relative"},
		{key: "editor.lineNumbers", value: "sometimes", wantErr: true},
		{key: "editor.minimap", value: "true", want: "true"},
		{key: "backup.maxBackups", value: "5", want: "5"},
		{key: "behavior.reduceMotion", value: "on", want: "on"},
		{key: "behavior.reduceMotion", value: "fast", wantErr: true},
		{key: "editor.colour", value: "red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := DefaultSettings()
			err := s.Set(tt.key, tt.value)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidSetting))
				return
			}
			require.NoError(t, err)
			got, err := s.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingKeysAllReadable(t *testing.T) {
	s := DefaultSettings()
	for _, key := range SettingKeys() {
		_, err := s.Get(key)
		assert.NoError(t, err, key)
	}
	assert.Contains(t, SettingKeys(), "behavior.confirmBeforeDelete")
}

func TestUpdateAndResetSettings(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(t, p)
	_, err := s.AddCustomTool(CustomTool{Name: "A", ConfigPath: "a.json"})
	require.NoError(t, err)

	st, err := s.UpdateSettings(func(st *Settings) error {
		return st.Set("editor.tabSize", "4")
	})
	require.NoError(t, err)
	assert.Equal(t, 4, st.Editor.TabSize)
	assert.Equal(t, 4, p.saved.EditorSettings.TabSize)

	_, err = s.UpdateSettings(func(st *Settings) error {
		require.NoError(t, st.Set("editor.tabSize", "8"))
		return st.Set("editor.tabSize", "nine")
	})
	require.Error(t, err)
	assert.Equal(t, 4, s.Settings().Editor.TabSize, "a failed update changes nothing")

	require.NoError(t, s.ResetSettings())
	assert.Equal(t, DefaultSettings(), s.Settings())
	assert.Len(t, s.CustomTools(), 1, "reset keeps custom tools")
}
