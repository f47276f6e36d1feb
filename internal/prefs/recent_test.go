package prefs

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cliconfig-go/internal/events"
)

func newTestRecent(t *testing.T, p RecentPersister, limit int) *RecentFiles {
	t.Helper()
	r := NewRecentFiles(p, limit, zap.NewNop())
	clock := time.UnixMilli(1_700_000_000_000)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return r
}

func file(tool, cfg string) RecentFile {
	return RecentFile{ToolID: tool, ToolName: tool, ConfigID: cfg, ConfigLabel: cfg, Path: "/" + tool + "/" + cfg}
}

func keys(files []RecentFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.ToolID+"/"+f.ConfigID)
	}
	return out
}

func TestRecentFiles_AddMostRecentFirst(t *testing.T) {
	r := newTestRecent(t, nil, 10)

	first, err := r.Add(file("claude-code", "settings"))
	require.NoError(t, err)
	_, err = r.Add(file("amp", "settings"))
	require.NoError(t, err)

	assert.Equal(t, []string{"amp/settings", "claude-code/settings"}, keys(r.List()))
	assert.Equal(t, int64(1_700_000_001_000), first.Timestamp)
}

func TestRecentFiles_Dedup(t *testing.T) {
	r := newTestRecent(t, nil, 10)
	_, _ = r.Add(file("a", "1"))
	_, _ = r.Add(file("b", "1"))
	_, _ = r.Add(file("a", "2"))
	_, _ = r.Add(file("a", "1"))

	list := r.List()
	assert.Equal(t, []string{"a/1", "a/2", "b/1"}, keys(list))
	assert.Greater(t, list[0].Timestamp, list[1].Timestamp)
}

func TestRecentFiles_Limit(t *testing.T) {
	r := newTestRecent(t, nil, 0)
	for i := 0; i < 15; i++ {
		_, _ = r.Add(file("tool", fmt.Sprint(i)))
	}

	list := r.List()
	require.Len(t, list, 10)
	assert.Equal(t, "14", list[0].ConfigID)
	assert.Equal(t, "5", list[9].ConfigID)
}

func TestRecentFiles_ReAddAtLimitKeepsOthers(t *testing.T) {
	r := newTestRecent(t, nil, 3)
	_, _ = r.Add(file("t", "1"))
	_, _ = r.Add(file("t", "2"))
	_, _ = r.Add(file("t", "3"))
	_, _ = r.Add(file("t", "1"))

	assert.Equal(t, []string{"t/1", "t/3", "t/2"}, keys(r.List()))
}

func TestRecentFiles_Remove(t *testing.T) {
	p := &memPersister{}
	r := newTestRecent(t, p, 10)
	_, _ = r.Add(file("a", "1"))
	_, _ = r.Add(file("b", "1"))

	require.NoError(t, r.Remove("a", "1"))
	assert.Equal(t, []string{"b/1"}, keys(r.List()))
	assert.Equal(t, 3, p.recentSaves)

	require.NoError(t, r.Remove("a", "1"))
	assert.Equal(t, 3, p.recentSaves, "removing a missing entry does not save")
}

func TestRecentFiles_Clear(t *testing.T) {
	p := &memPersister{}
	r := newTestRecent(t, p, 10)
	_, _ = r.Add(file("a", "1"))

	require.NoError(t, r.Clear())
	assert.Empty(t, r.List())
	assert.Equal(t, 1, p.cleared)
	assert.Nil(t, p.recent)
}

func TestRecentFiles_Persistence(t *testing.T) {
	p := &memPersister{}
	r := newTestRecent(t, p, 10)
	_, _ = r.Add(file("a", "1"))
	_, _ = r.Add(file("b", "2"))

	restored := NewRecentFiles(p, 10, zap.NewNop())
	assert.Equal(t, []string{"b/2", "a/1"}, keys(restored.List()))

	truncated := NewRecentFiles(p, 1, zap.NewNop())
	assert.Equal(t, []string{"b/2"}, keys(truncated.List()))
}

func TestRecentFiles_LoadError(t *testing.T) {
	r := NewRecentFiles(&memPersister{loadErr: errors.New("boom")}, 10, nil)
	assert.Empty(t, r.List())
	assert.NotNil(t, r.List())
}

func TestRecentFiles_SaveError(t *testing.T) {
	r := newTestRecent(t, &memPersister{saveErr: errors.New("read-only")}, 10)

	_, err := r.Add(file("a", "1"))
	require.Error(t, err)
	assert.Equal(t, []string{"a/1"}, keys(r.List()))

	assert.Error(t, r.Clear())
}

func TestRecentFiles_PublishesEvents(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	ch := bus.Subscribe(events.RecentFilesChanged)

	r := newTestRecent(t, nil, 10)
	r.SetPublisher(bus)

	_, _ = r.Add(file("a", "1"))
	require.NoError(t, r.Clear())

	for _, want := range []string{"add", "clear"} {
		select {
		case ev := <-ch:
			assert.Equal(t, want, ev.Action)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", want)
		}
	}
}

func TestRecentFiles_Replace(t *testing.T) {
	p := &memPersister{}
	r := newTestRecent(t, p, 2)
	_, _ = r.Add(file("a", "1"))

	require.NoError(t, r.Replace([]RecentFile{file("x", "1"), file("y", "2"), file("z", "3")}))
	assert.Equal(t, []string{"x/1", "y/2"}, keys(r.List()))
	assert.Equal(t, []string{"x/1", "y/2"}, keys(p.recent))
}
