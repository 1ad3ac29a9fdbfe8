// models/user.go
package models

import (
	"time"
)

type UserType string

const (
	TypeStudent       UserType = "STUDENT"
	TypeAcademic      UserType = "ACADEMIC"
	TypeAcademicAdmin UserType = "ACADEMIC_ADMIN"
	TypeAdmin         UserType = "ADMIN"
)

// IsAdmin reports whether the type carries site-wide admin rights.
func (t UserType) IsAdmin() bool {
	return t == TypeAdmin || t == TypeAcademicAdmin
}

type User struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	FirstName string   `json:"firstName" gorm:"not null;size:50"`
	LastName  string   `json:"lastName" gorm:"not null;size:50"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null"`
	PwHash    string   `json:"-" gorm:"not null"`
	Phone     string   `json:"phoneNumber" gorm:"size:20"`
	School    string   `json:"school" gorm:"size:100"`
	Degree    string   `json:"degree" gorm:"size:100"`
	Avatar    string   `json:"avatar" gorm:"default:'/imgurl/default.jpg'"`
	Type      UserType `json:"type" gorm:"not null;default:'STUDENT';size:20"`
	Public    bool     `json:"public" gorm:"default:false"`

	// Skills is the cached keyword list, stored JSON-encoded.
	Skills string `json:"skills" gorm:"type:text;default:'[]'"`

	Verified    bool       `json:"-" gorm:"default:false"`
	VerifyToken string     `json:"-" gorm:"size:64;index"`
	ResetToken  string     `json:"-" gorm:"size:64;index"`
	ResetExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WorkExperiences []WorkExperience  `json:"workExperience,omitempty" gorm:"foreignKey:UserID"`
	Courses         []Course          `json:"courses,omitempty" gorm:"many2many:user_courses;"`
	Memberships     []GroupMembership `json:"-" gorm:"foreignKey:UserID"`
	OwnedProjects   []Project         `json:"ownedProjects,omitempty" gorm:"foreignKey:OwnerID"`
}

func (User) TableName() string {
	return "users"
}

// WorkExperience is one free-text experience entry on a user profile.
type WorkExperience struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Text   string `json:"text" gorm:"not null;type:text"`
}

func (WorkExperience) TableName() string {
	return "work_experiences"
}

// SharedProfile grants one user visibility of another's private profile.
type SharedProfile struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OwnerID      uint      `json:"owner_id" gorm:"not null;uniqueIndex:idx_shared_owner_with"`
	Owner        *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	SharedWithID uint      `json:"shared_with_id" gorm:"not null;uniqueIndex:idx_shared_owner_with"`
	SharedWith   *User     `json:"shared_with,omitempty" gorm:"foreignKey:SharedWithID"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SharedProfile) TableName() string {
	return "shared_profiles"
}

// UserSummary is the public slice of a user embedded in group/member listings.
type UserSummary struct {
	ID        uint     `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Avatar    string   `json:"avatar"`
	Email     string   `json:"email,omitempty"`
	Skills    []string `json:"skills"`
}

// AnonymousUser replaces members whose profile is not visible to the viewer.
var AnonymousUser = UserSummary{
	ID:        0,
	FirstName: "Anonymous",
	LastName:  "",
	Avatar:    "/imgurl/default.jpg",
	Skills:    []string{},
}

// Summary builds the public listing view of the user.
func (u *User) Summary(includeEmail bool) UserSummary {
	s := UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Skills:    DecodeStringList(u.Skills),
	}
	if includeEmail {
		s.Email = u.Email
	}
	return s
}
