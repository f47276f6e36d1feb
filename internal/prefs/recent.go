package prefs

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cliconfig-go/internal/config"
	"cliconfig-go/internal/events"
)

// RecentPersister loads and saves the recent files list.
type RecentPersister interface {
	LoadRecentFiles() ([]RecentFile, error)
	SaveRecentFiles(files []RecentFile) error
	ClearRecentFiles() error
}

// RecentFiles is a most-recent-first list of opened config files, holding
// at most one entry per (tool, config) pair.
type RecentFiles struct {
	mu        sync.RWMutex
	files     []RecentFile
	limit     int
	persister RecentPersister
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecentFiles creates the list and restores saved entries. A limit of
// zero or less uses config.DefaultRecentFilesLimit.
func NewRecentFiles(persister RecentPersister, limit int, logger *zap.Logger) *RecentFiles {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = config.DefaultRecentFilesLimit
	}

	r := &RecentFiles{
		files:     []RecentFile{},
		limit:     limit,
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}

	if persister == nil {
		return r
	}

	saved, err := persister.LoadRecentFiles()
	if err != nil {
		logger.Error("Failed to load recent files, starting empty", zap.Error(err))
		return r
	}
	if len(saved) > limit {
		saved = saved[:limit]
	}
	r.files = append(r.files, saved...)
	return r
}

// SetPublisher sets the publisher notified of changes.
func (r *RecentFiles) SetPublisher(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

// List returns the entries, most recent first.
func (r *RecentFiles) List() []RecentFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RecentFile{}, r.files...)
}

// Add stamps file with the current time and moves it to the front,
// replacing any entry for the same tool and config and dropping the oldest
// entries beyond the limit.
func (r *RecentFiles) Add(file RecentFile) (RecentFile, error) {
	r.mu.Lock()
	file.Timestamp = r.now().UnixMilli()

	next := make([]RecentFile, 0, r.limit)
	next = append(next, file)
	for _, f := range r.files {
		if len(next) == r.limit {
			break
		}
		if f.ToolID == file.ToolID && f.ConfigID == file.ConfigID {
			continue
		}
		next = append(next, f)
	}

	return file, r.commit("add", file.ToolID, next)
}

// Remove deletes the entry for the given tool and config, if present.
func (r *RecentFiles) Remove(toolID, configID string) error {
	r.mu.Lock()
	next := make([]RecentFile, 0, len(r.files))
	for _, f := range r.files {
		if f.ToolID == toolID && f.ConfigID == configID {
			continue
		}
		next = append(next, f)
	}
	if len(next) == len(r.files) {
		r.mu.Unlock()
		return nil
	}
	return r.commit("remove", toolID, next)
}

// Replace swaps the whole list for files, keeping at most the limit.
func (r *RecentFiles) Replace(files []RecentFile) error {
	r.mu.Lock()
	if len(files) > r.limit {
		files = files[:r.limit]
	}
	return r.commit("replace", "", append([]RecentFile{}, files...))
}

// Clear empties the list and removes it from storage.
func (r *RecentFiles) Clear() error {
	r.mu.Lock()
	r.files = []RecentFile{}

	var err error
	if r.persister != nil {
		if clearErr := r.persister.ClearRecentFiles(); clearErr != nil {
			r.logger.Error("Failed to clear recent files", zap.Error(clearErr))
			err = fmt.Errorf("failed to clear recent files: %w", clearErr)
		}
	}
	publisher := r.publisher
	r.mu.Unlock()

	if publisher != nil {
		publisher.Publish(events.Event{Type: events.RecentFilesChanged, Action: "clear"})
	}
	return err
}

// commit installs next, saves it and publishes the change. It must be
// called with r.mu held and releases it.
func (r *RecentFiles) commit(action, toolID string, next []RecentFile) error {
	r.files = next

	var err error
	if r.persister != nil {
		if saveErr := r.persister.SaveRecentFiles(append([]RecentFile{}, next...)); saveErr != nil {
			r.logger.Error("Failed to save recent files", zap.String("action", action), zap.Error(saveErr))
			err = fmt.Errorf("failed to save recent files: %w", saveErr)
		}
	}
	publisher := r.publisher
	r.mu.Unlock()

	if publisher != nil {
		publisher.Publish(events.Event{Type: events.RecentFilesChanged, Action: action, ToolID: toolID})
	}
	return err
}
