// Package visibility keeps the user's pinned, hidden and custom-ordered tools
// and splits a tool list into its pinned, visible and hidden sections.
package visibility

import (
	"slices"
	"sync"

	"cliconfig-go/internal/events"

	"go.uber.org/zap"
)

// Persister loads and saves the visibility state. LoadVisibility returns a
// nil state when nothing has been saved yet.
type Persister interface {
	LoadVisibility() (*State, error)
	SaveVisibility(state State) error
}

// Publisher receives a notification after every state change.
type Publisher interface {
	Publish(event events.Event)
}

// Store owns the visibility state. Every mutation is total: unknown ids are
// accepted, repeated calls are no-ops, and persistence failures are logged
// rather than returned.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister
	publisher Publisher
	logger    *zap.Logger
}

// NewStore creates a store and restores any state saved by persister.
// persister may be nil for an in-memory store.
func NewStore(persister Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		state:     NewState(),
		persister: persister,
		logger:    logger,
	}

	if persister == nil {
		return s
	}

	saved, err := persister.LoadVisibility()
	if err != nil {
		logger.Error("Failed to load tool visibility state, starting empty", zap.Error(err))
		return s
	}
	if saved != nil {
		s.state = saved.Clone()
		logger.Debug("Restored tool visibility state",
			zap.Int("pinned", len(s.state.PinnedTools)),
			zap.Int("hidden", len(s.state.HiddenTools)),
			zap.Int("ordered", len(s.state.ToolOrder)))
	}

	return s
}

// SetPublisher sets the publisher notified of state changes.
func (s *Store) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// SetState replaces the whole state, e.g. when restoring a backup.
func (s *Store) SetState(state State) {
	s.update("set_state", "", func(st *State) {
		*st = state.Clone()
	})
}

// PinTool pins id and un-hides it.
func (s *Store) PinTool(id string) {
	s.update("pin", id, func(st *State) {
		pin(st, id)
	})
}

// UnpinTool removes id from the pinned tools.
func (s *Store) UnpinTool(id string) {
	s.update("unpin", id, func(st *State) {
		st.PinnedTools = without(st.PinnedTools, id)
	})
}

// TogglePinTool unpins id if it is pinned and pins it otherwise.
func (s *Store) TogglePinTool(id string) {
	s.update("toggle_pin", id, func(st *State) {
		if slices.Contains(st.PinnedTools, id) {
			st.PinnedTools = without(st.PinnedTools, id)
			return
		}
		pin(st, id)
	})
}

// HideTool hides id and unpins it.
func (s *Store) HideTool(id string) {
	s.update("hide", id, func(st *State) {
		hide(st, id)
	})
}

// ShowTool removes id from the hidden tools.
func (s *Store) ShowTool(id string) {
	s.update("show", id, func(st *State) {
		st.HiddenTools = without(st.HiddenTools, id)
	})
}

// ToggleHideTool shows id if it is hidden and hides it otherwise.
func (s *Store) ToggleHideTool(id string) {
	s.update("toggle_hide", id, func(st *State) {
		if slices.Contains(st.HiddenTools, id) {
			st.HiddenTools = without(st.HiddenTools, id)
			return
		}
		hide(st, id)
	})
}

// ReorderTools replaces the custom order. Ids are not validated.
func (s *Store) ReorderTools(ids []string) {
	s.update("reorder", "", func(st *State) {
		st.ToolOrder = cloneIDs(ids)
	})
}

// MoveToolUp swaps id with its predecessor in the custom order.
func (s *Store) MoveToolUp(id string) {
	s.update("move_up", id, func(st *State) {
		i := slices.Index(st.ToolOrder, id)
		if i <= 0 {
			return
		}
		st.ToolOrder[i-1], st.ToolOrder[i] = st.ToolOrder[i], st.ToolOrder[i-1]
	})
}

// MoveToolDown swaps id with its successor in the custom order.
func (s *Store) MoveToolDown(id string) {
	s.update("move_down", id, func(st *State) {
		i := slices.Index(st.ToolOrder, id)
		if i == -1 || i >= len(st.ToolOrder)-1 {
			return
		}
		st.ToolOrder[i], st.ToolOrder[i+1] = st.ToolOrder[i+1], st.ToolOrder[i]
	})
}

// ResetVisibility clears pins, hides, the custom order and the show-hidden flag.
func (s *Store) ResetVisibility() {
	s.update("reset", "", func(st *State) {
		*st = NewState()
	})
}

// ToggleShowHiddenTools flips the show-hidden display flag.
func (s *Store) ToggleShowHiddenTools() {
	s.update("toggle_show_hidden", "", func(st *State) {
		st.ShowHiddenTools = !st.ShowHiddenTools
	})
}

// IsPinned reports whether id is pinned.
func (s *Store) IsPinned(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.state.PinnedTools, id)
}

// IsHidden reports whether id is hidden.
func (s *Store) IsHidden(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.state.HiddenTools, id)
}

// ShowHiddenTools reports the show-hidden display flag.
func (s *Store) ShowHiddenTools() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ShowHiddenTools
}

func pin(st *State, id string) {
	if slices.Contains(st.PinnedTools, id) {
		return
	}
	st.PinnedTools = append(st.PinnedTools, id)
	st.HiddenTools = without(st.HiddenTools, id)
}

func hide(st *State, id string) {
	if slices.Contains(st.HiddenTools, id) {
		return
	}
	st.HiddenTools = append(st.HiddenTools, id)
	st.PinnedTools = without(st.PinnedTools, id)
}

// update applies fn to a copy of the state and, if anything changed, commits,
// persists and publishes it.
func (s *Store) update(action, id string, fn func(st *State)) {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	if next.Equal(s.state) {
		s.mu.Unlock()
		return
	}
	s.state = next

	if s.persister != nil {
		if err := s.persister.SaveVisibility(next.Clone()); err != nil {
			s.logger.Error("Failed to persist tool visibility state",
				zap.String("action", action),
				zap.String("tool_id", id),
				zap.Error(err))
		}
	}
	publisher := s.publisher
	s.mu.Unlock()

	s.logger.Debug("Tool visibility updated",
		zap.String("action", action),
		zap.String("tool_id", id))

	if publisher != nil {
		publisher.Publish(events.Event{
			Type:   events.VisibilityChanged,
			Action: action,
			ToolID: id,
		})
	}
}
