package store

import (
	"github.com/aretw0/homeview/pkg/domain"
)

// Reduce maps (previous snapshot, message) to the next snapshot.
// It is pure; the boolean reports whether the tag is known.
func Reduce(prev domain.ActionState, msg domain.Message) (domain.ActionState, bool) {
	next := prev

	switch msg.Type {
	case domain.TagOpenMenu:
		next.Action = domain.ActionOpenMenu
	case domain.TagCloseMenu:
		next.Action = domain.ActionCloseMenu
	case domain.TagUpdateName:
		next.Name = payloadName(msg)
	default:
		// Unknown tags are an identity transition.
		return prev, false
	}

	return next, true
}

// payloadName extracts the name carried by an UPDATE_NAME message.
// A missing or non-string value overwrites the name with "".
func payloadName(msg domain.Message) string {
	raw, ok := msg.Lookup(domain.KeyName)
	if !ok {
		return ""
	}
	name, _ := raw.(string)
	return name
}
