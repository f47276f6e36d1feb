package visibility

import "sort"

// Identified is implemented by anything the engine can place in the tool
// list. The engine never looks at anything but the id.
type Identified interface {
	ToolID() string
}

// Sorted is the tool list split into its three display sections.
type Sorted[T Identified] struct {
	Pinned  []T
	Visible []T
	Hidden  []T
}

// Sort partitions tools according to state.
//
// Pinned tools follow PinnedTools order and hidden tools follow HiddenTools
// order. An id that is both pinned and hidden is treated as hidden. Visible
// tools follow ToolOrder; tools missing from ToolOrder keep their input order
// after the ordered ones. Ids that do not match any tool are ignored.
func Sort[T Identified](state State, tools []T) Sorted[T] {
	out := Sorted[T]{
		Pinned:  []T{},
		Visible: []T{},
		Hidden:  []T{},
	}

	byID := make(map[string]T, len(tools))
	for _, t := range tools {
		byID[t.ToolID()] = t
	}

	pinnedSet := toSet(state.PinnedTools)
	hiddenSet := toSet(state.HiddenTools)

	for _, id := range state.PinnedTools {
		if _, hidden := hiddenSet[id]; hidden {
			continue
		}
		if t, ok := byID[id]; ok {
			out.Pinned = append(out.Pinned, t)
		}
	}

	for _, id := range state.HiddenTools {
		if t, ok := byID[id]; ok {
			out.Hidden = append(out.Hidden, t)
		}
	}

	for _, t := range tools {
		id := t.ToolID()
		if _, ok := pinnedSet[id]; ok {
			continue
		}
		if _, ok := hiddenSet[id]; ok {
			continue
		}
		out.Visible = append(out.Visible, t)
	}

	if len(state.ToolOrder) > 0 {
		order := make(map[string]int, len(state.ToolOrder))
		for i, id := range state.ToolOrder {
			order[id] = i
		}
		sort.SliceStable(out.Visible, func(i, j int) bool {
			a, aOK := order[out.Visible[i].ToolID()]
			b, bOK := order[out.Visible[j].ToolID()]
			switch {
			case aOK && bOK:
				return a < b
			case aOK:
				return true
			default:
				return false
			}
		})
	}

	return out
}

// GetSortedTools partitions tools using the store's current state.
func GetSortedTools[T Identified](s *Store, tools []T) Sorted[T] {
	return Sort(s.Snapshot(), tools)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
