package service

import (
	"testing"

	"community_hub/internal/model"

	qt "github.com/frankban/quicktest"
)

func TestAuthorize(t *testing.T) {
	community := &model.Community{
		OwnerID: "owner",
		Members: []model.CommunityMember{
			{UserID: "owner", Role: model.MemberRoleOwner},
			{UserID: "admin", Role: model.MemberRoleAdmin},
			{UserID: "member", Role: model.MemberRoleMember},
		},
	}

	tests := []struct {
		name     string
		user     string
		standing Standing
		want     bool
	}{
		{"anyone with none", "", StandingNone, true},
		{"owner owner-or-admin", "owner", StandingOwnerOrAdmin, true},
		{"admin owner-or-admin", "admin", StandingOwnerOrAdmin, true},
		{"member owner-or-admin", "member", StandingOwnerOrAdmin, false},
		{"stranger owner-or-admin", "stranger", StandingOwnerOrAdmin, false},
		{"anonymous owner-or-admin", "", StandingOwnerOrAdmin, false},
		{"owner owner", "owner", StandingOwner, true},
		{"admin owner", "admin", StandingOwner, false},
		{"member owner", "member", StandingOwner, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.Assert(t, Authorize(community, tt.user, tt.standing), qt.Equals, tt.want)
		})
	}
}

func TestAuthorizeOwnerWithoutMembershipRow(t *testing.T) {
	community := &model.Community{OwnerID: "owner"}
	qt.Assert(t, Authorize(community, "owner", StandingOwner), qt.IsTrue)
	qt.Assert(t, Authorize(nil, "owner", StandingOwner), qt.IsFalse)
}

func TestKindOf(t *testing.T) {
	c := qt.New(t)
	c.Assert(KindOf(ConflictError("x")), qt.Equals, KindConflict)
	c.Assert(KindOf(NotFoundError("x")), qt.Equals, KindNotFound)
	c.Assert(KindOf(nil), qt.Equals, KindServer)
	c.Assert(MessageOf(ServerError("Failed to load", nil)), qt.Equals, "Failed to load")
	c.Assert(MessageOf(errString("boom")), qt.Equals, "Internal server error")
}

type errString string

func (e errString) Error() string { return string(e) }
