package domain

// StateDiff represents the changes between two ActionState snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// Seq is the position of the dispatch that produced the new snapshot.
	Seq uint64 `json:"seq"`

	Name   *string     `json:"name,omitempty"`
	Action *MenuAction `json:"action,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState *ActionState, newState ActionState) *StateDiff {
	diff := &StateDiff{}

	if oldState == nil || oldState.Name != newState.Name {
		name := newState.Name
		diff.Name = &name
	}
	if oldState == nil || oldState.Action != newState.Action {
		action := newState.Action
		diff.Action = &action
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Name == nil && d.Action == nil
}
