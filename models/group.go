// models/group.go
package models

import "time"

const (
	DefaultGroupSize       = 5
	DefaultGroupCoverPhoto = "/imgurl/group-default.jpg"
)

type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;size:100"`
	Description string `json:"description" gorm:"type:text"`
	Size        int    `json:"size" gorm:"not null;default:5"`
	CoverPhoto  string `json:"coverPhoto" gorm:"default:'/imgurl/group-default.jpg'"`

	// Skills is the cached keyword list for the whole group, stored
	// JSON-encoded and refreshed asynchronously after membership changes.
	Skills string `json:"skills" gorm:"type:text;default:'[]'"`

	ProjectID *uint    `json:"projectId"`
	Project   *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`

	Memberships []GroupMembership `json:"memberships,omitempty" gorm:"foreignKey:GroupID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}
