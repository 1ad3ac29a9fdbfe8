// services/course_service.go - Course Catalogue and Enrolment
package services

import (
	"errors"
	"fmt"
	"log"

	"unimatch/models"

	"gorm.io/gorm"
)

// CourseService owns the course catalogue. Courses are keyed by code
// plus offering year and feed the skill corpus of enrolled users.
type CourseService struct {
	db     *gorm.DB
	skills *SkillService
}

func NewCourseService(db *gorm.DB, skills *SkillService) *CourseService {
	return &CourseService{db: db, skills: skills}
}

// Add stores a course owned by the academic. The (code, year) pair
// must be unique.
func (s *CourseService) Add(ownerID uint, code, year, title, summary string) (*models.Course, error) {
	if code == "" || year == "" {
		return nil, errors.New("Missing course information")
	}

	var count int64
	s.db.Model(&models.Course{}).Where("code = ? AND year = ?", code, year).Count(&count)
	if count > 0 {
		return nil, errors.New("Course already exists")
	}

	course := &models.Course{
		OwnerID: ownerID,
		Code:    code,
		Year:    year,
		Title:   title,
		Summary: summary,
	}
	if err := s.db.Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

// Get returns the course for one offering year.
func (s *CourseService) Get(code, year string) (*models.Course, error) {
	var course models.Course
	err := s.db.Where("code = ? AND year = ?", code, year).First(&course).Error
	if err != nil {
		return nil, errors.New("Course not found")
	}
	return &course, nil
}

// All returns the whole catalogue.
func (s *CourseService) All() ([]models.Course, error) {
	var courses []models.Course
	err := s.db.Order("code ASC, year ASC").Find(&courses).Error
	return courses, err
}

// OwnedBy returns the courses the academic owns.
func (s *CourseService) OwnedBy(ownerID uint) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.Where("owner_id = ?", ownerID).Find(&courses).Error
	return courses, err
}

// EnrolledBy returns the courses on the user's profile.
func (s *CourseService) EnrolledBy(userID uint) ([]models.Course, error) {
	var user models.User
	err := s.db.Preload("Courses").First(&user, userID).Error
	if err != nil {
		return nil, errors.New("User not found")
	}
	return user.Courses, nil
}

// Enrol puts the course on the user's profile, replacing any other
// year of the same code, and refreshes the user's skills.
func (s *CourseService) Enrol(userID uint, code, year string) error {
	course, err := s.Get(code, year)
	if err != nil {
		return err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return errors.New("User not found")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var others []models.Course
		if err := tx.Where("code = ?", code).Find(&others).Error; err != nil {
			return err
		}
		for i := range others {
			if err := tx.Model(&user).Association("Courses").Delete(&others[i]); err != nil {
				return err
			}
		}
		return tx.Model(&user).Association("Courses").Append(course)
	})
	if err != nil {
		return err
	}

	s.refreshUser(userID)
	return nil
}

// CourseOffering identifies one offering by code and year.
type CourseOffering struct {
	Code string `json:"code"`
	Year string `json:"year"`
}

// EnrolMany enrols the user in every offering, validating that all of
// them exist before touching the profile.
func (s *CourseService) EnrolMany(userID uint, offerings []CourseOffering) error {
	for _, o := range offerings {
		if _, err := s.Get(o.Code, o.Year); err != nil {
			return fmt.Errorf("Course %s offered in %s not found", o.Code, o.Year)
		}
	}
	for _, o := range offerings {
		if err := s.Enrol(userID, o.Code, o.Year); err != nil {
			return err
		}
	}
	return nil
}

// Unenrol takes every offering of the course code off the profile.
func (s *CourseService) Unenrol(userID uint, code string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return errors.New("User not found")
	}

	var courses []models.Course
	if err := s.db.Where("code = ?", code).Find(&courses).Error; err != nil {
		return err
	}
	for i := range courses {
		if err := s.db.Model(&user).Association("Courses").Delete(&courses[i]); err != nil {
			return err
		}
	}

	s.refreshUser(userID)
	return nil
}

// Delete removes a course from the catalogue and every profile.
func (s *CourseService) Delete(code, year string) error {
	course, err := s.Get(code, year)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(course).Association("Users").Clear(); err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
}

func (s *CourseService) refreshUser(userID uint) {
	if s.skills == nil {
		return
	}
	if err := s.skills.RefreshUserSkills(userID); err != nil {
		log.Printf("Skill refresh for user %d failed: %v", userID, err)
	}
}
