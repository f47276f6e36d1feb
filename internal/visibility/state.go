package visibility

import "slices"

// State is the persisted pin/hide/order configuration of the tool list.
//
// A tool id is kept in at most one of PinnedTools and HiddenTools by the
// Store's mutations; State itself does not enforce it.
type State struct {
	PinnedTools     []string `json:"pinnedTools"`
	HiddenTools     []string `json:"hiddenTools"`
	ToolOrder       []string `json:"toolOrder"`
	ShowHiddenTools bool     `json:"showHiddenTools"`
}

// NewState returns an empty state with non-nil lists, so it serializes as
// empty arrays.
func NewState() State {
	return State{
		PinnedTools: []string{},
		HiddenTools: []string{},
		ToolOrder:   []string{},
	}
}

// Clone returns a deep copy of s. Nil lists become empty lists.
func (s State) Clone() State {
	return State{
		PinnedTools:     cloneIDs(s.PinnedTools),
		HiddenTools:     cloneIDs(s.HiddenTools),
		ToolOrder:       cloneIDs(s.ToolOrder),
		ShowHiddenTools: s.ShowHiddenTools,
	}
}

// Equal reports whether s and o hold the same ids in the same order.
func (s State) Equal(o State) bool {
	return slices.Equal(s.PinnedTools, o.PinnedTools) &&
		slices.Equal(s.HiddenTools, o.HiddenTools) &&
		slices.Equal(s.ToolOrder, o.ToolOrder) &&
		s.ShowHiddenTools == o.ShowHiddenTools
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
