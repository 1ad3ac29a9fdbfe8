// models/membership.go
package models

import "time"

// MembershipState is the single source of truth for a (group, user) pair.
// A user has at most one row per group, so member/invited/requested are
// mutually exclusive by construction.
type MembershipState string

const (
	StateMember    MembershipState = "member"
	StateInvited   MembershipState = "invited"
	StateRequested MembershipState = "requested"
)

type GroupMembership struct {
	ID      uint            `json:"id" gorm:"primaryKey"`
	GroupID uint            `json:"group_id" gorm:"not null;uniqueIndex:idx_group_user"`
	Group   *Group          `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	UserID  uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_group_user"`
	User    *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	State   MembershipState `json:"state" gorm:"not null;index;size:16"`

	// CreatedAt doubles as the join order for member display.
	CreatedAt time.Time `json:"created_at"`
}

func (GroupMembership) TableName() string {
	return "group_memberships"
}
