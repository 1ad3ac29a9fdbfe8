// models/course.go
package models

import "time"

// Course is offered for a specific year; the same code can appear in
// multiple years, hence the composite unique index.
type Course struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Code    string `json:"code" gorm:"not null;size:10;uniqueIndex:idx_course_code_year"`
	Year    string `json:"year" gorm:"not null;size:4;uniqueIndex:idx_course_code_year"`
	Title   string `json:"title" gorm:"not null;size:200"`
	Summary string `json:"summary" gorm:"type:text"`
	OwnerID uint   `json:"ownerId" gorm:"index"`
	Owner   *User  `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`

	Users []User `json:"-" gorm:"many2many:user_courses;"`

	CreatedAt time.Time `json:"created_at"`
}

func (Course) TableName() string {
	return "courses"
}
