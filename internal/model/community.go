package model

import "time"

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

type Community struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	Name        string            `gorm:"size:128;not null" json:"name"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	ImageURL    *string           `gorm:"size:512" json:"imageUrl,omitempty"`
	Visibility  string            `gorm:"size:16;not null;default:public" json:"visibility"`
	OwnerID     string            `gorm:"size:36;not null;index" json:"ownerId"`
	Members     []CommunityMember `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"members"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CommunityMember is keyed by (community_id, user_id); the composite key
// is what rejects duplicate memberships.
type CommunityMember struct {
	CommunityID string    `gorm:"primaryKey;size:36" json:"-"`
	UserID      string    `gorm:"primaryKey;size:36;index" json:"userId"`
	Role        string    `gorm:"size:16;not null;default:member" json:"role"`
	Nickname    *string   `gorm:"size:64" json:"nickname,omitempty"`
	JoinedAt    time.Time `gorm:"not null" json:"joinedAt"`
}

// HasMember reports whether userID appears in the roster.
func (c *Community) HasMember(userID string) bool {
	_, ok := c.MemberRole(userID)
	return ok
}

// MemberRole returns the roster role of userID.
func (c *Community) MemberRole(userID string) (string, bool) {
	for _, m := range c.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}
