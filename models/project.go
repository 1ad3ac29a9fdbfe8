// models/project.go
package models

import "time"

const DefaultProjectCoverPhoto = "/imgurl/project-default.jpg"

type Project struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	OwnerID     uint   `json:"ownerId" gorm:"not null;index"`
	Owner       *User  `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`
	Scope       string `json:"scope" gorm:"type:text"`
	CoverPhoto  string `json:"coverPhoto" gorm:"default:'/imgurl/project-default.jpg'"`

	// JSON-encoded string lists.
	Topics         string `json:"topics" gorm:"type:text;default:'[]'"`
	RequiredSkills string `json:"requiredSkills" gorm:"type:text;default:'[]'"`
	Outcomes       string `json:"outcomes" gorm:"type:text;default:'[]'"`

	// Nil means unconstrained.
	MinGroupSize  *int `json:"minGroupSize"`
	MaxGroupSize  *int `json:"maxGroupSize"`
	MaxGroupCount *int `json:"maxGroupCount"`

	Groups []Group `json:"groups,omitempty" gorm:"foreignKey:ProjectID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}
