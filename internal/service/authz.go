package service

import "community_hub/internal/model"

// Standing is the authorization level an operation requires on a community.
type Standing int

const (
	StandingNone Standing = iota
	StandingOwnerOrAdmin
	StandingOwner
)

// Authorize decides whether actingUserID holds the required standing on c.
// The owner is identified by OwnerID; admins come from the roster.
func Authorize(c *model.Community, actingUserID string, required Standing) bool {
	if required == StandingNone {
		return true
	}
	if c == nil || actingUserID == "" {
		return false
	}
	if c.OwnerID == actingUserID {
		return true
	}
	if required == StandingOwner {
		return false
	}
	role, ok := c.MemberRole(actingUserID)
	return ok && role == model.MemberRoleAdmin
}
