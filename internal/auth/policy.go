package auth

import (
	"github.com/lecturehub/apiserver/internal/apperr"
	"github.com/lecturehub/apiserver/types"
)

// Action is an operation on a lecture.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CanPerform decides whether identity may perform action on lecture.
// lecture is ignored for ActionCreate.
func CanPerform(identity Identity, action Action, lecture *types.Lecture) bool {
	if !identity.Authenticated() {
		return false
	}

	switch action {
	case ActionCreate:
		return identity.IsAdmin()
	case ActionRead:
		return true
	case ActionUpdate, ActionDelete:
		if lecture == nil {
			return false
		}
		return identity.IsAdmin() || identity.ID == lecture.CreatorID
	default:
		return false
	}
}

// Authorize is CanPerform expressed as an error.
func Authorize(identity Identity, action Action, lecture *types.Lecture) error {
	if !identity.Authenticated() {
		return apperr.New(apperr.ErrUnauthenticated, "Unauthorized")
	}
	if !CanPerform(identity, action, lecture) {
		return apperr.New(apperr.ErrForbidden, "Not authorized to "+string(action)+" this lecture")
	}
	return nil
}

// AttachCreator reports whether lecture views for identity include the creator.
func AttachCreator(identity Identity) bool {
	return identity.IsAdmin()
}
