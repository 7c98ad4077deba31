package domain

// MenuAction is the value recorded in ActionState.Action.
type MenuAction string

const (
	// ActionNone is the value before any menu message was reduced.
	ActionNone MenuAction = ""
	// ActionOpenMenu is recorded after an OPEN_MENU message.
	ActionOpenMenu MenuAction = "openMenu"
	// ActionCloseMenu is recorded after a CLOSE_MENU message.
	ActionCloseMenu MenuAction = "closeMenu"
)

// ActionState is an immutable snapshot of the cross-view UI flags.
// It is passed by value; a new snapshot is produced on every dispatch.
type ActionState struct {
	// Name is the display name shown in the title bar.
	Name string `json:"name" yaml:"name"`

	// Action is the last menu action reduced, or ActionNone.
	Action MenuAction `json:"action,omitempty" yaml:"action,omitempty"`
}

// NewActionState returns the default snapshot the store starts from.
func NewActionState() ActionState {
	return ActionState{}
}

// MenuOpen reports whether the last menu action opened the menu.
func (s ActionState) MenuOpen() bool {
	return s.Action == ActionOpenMenu
}
