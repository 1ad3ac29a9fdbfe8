// services/user_service.go - Profiles, Visibility and Work Experience
package services

import (
	"errors"
	"fmt"
	"log"

	"unimatch/models"
	"unimatch/utils"

	"gorm.io/gorm"
)

// UserService owns profile reads and writes. Reads go through the
// visibility rules: a profile is visible to its owner, to admins, to
// anyone when it is public, and to users it was explicitly shared
// with. Invisible profiles are served anonymized rather than hidden,
// so member lists keep their shape.
type UserService struct {
	db     *gorm.DB
	skills *SkillService
}

func NewUserService(db *gorm.DB, skills *SkillService) *UserService {
	return &UserService{db: db, skills: skills}
}

// IsVisibleTo reports whether the target profile is visible to the viewer.
func (s *UserService) IsVisibleTo(viewerID uint, viewerType models.UserType, targetID uint) (bool, error) {
	if viewerID == targetID || viewerType.IsAdmin() {
		return true, nil
	}

	var target models.User
	if err := s.db.First(&target, targetID).Error; err != nil {
		return false, errors.New("User not found")
	}
	if target.Public {
		return true, nil
	}

	var count int64
	s.db.Model(&models.SharedProfile{}).
		Where("owner_id = ? AND shared_with_id = ?", targetID, viewerID).
		Count(&count)
	return count > 0, nil
}

// Profile returns the target's summary, anonymized when not visible.
func (s *UserService) Profile(viewerID uint, viewerType models.UserType, targetID uint) (models.UserSummary, error) {
	var target models.User
	if err := s.db.First(&target, targetID).Error; err != nil {
		return models.UserSummary{}, errors.New("User not found")
	}

	visible, err := s.IsVisibleTo(viewerID, viewerType, targetID)
	if err != nil {
		return models.UserSummary{}, err
	}
	if !visible {
		return models.AnonymousUser, nil
	}
	return target.Summary(viewerID == targetID || viewerType.IsAdmin()), nil
}

// Get returns the full record for the profile's owner or an admin.
func (s *UserService) Get(targetID uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("WorkExperiences").Preload("Courses").
		First(&user, targetID).Error
	if err != nil {
		return nil, errors.New("User not found")
	}
	return &user, nil
}

// List returns summaries for every user, anonymizing invisible ones.
func (s *UserService) List(viewerID uint, viewerType models.UserType) ([]models.UserSummary, error) {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		visible, err := s.IsVisibleTo(viewerID, viewerType, u.ID)
		if err != nil {
			return nil, err
		}
		if visible {
			summaries = append(summaries, u.Summary(false))
		} else {
			summaries = append(summaries, models.AnonymousUser)
		}
	}
	return summaries, nil
}

// UpdateField sets one mutable profile column.
func (s *UserService) UpdateField(userID uint, column string, value interface{}) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("User not found")
	}
	return nil
}

// SetType changes the account type. Admin only, enforced at the route.
func (s *UserService) SetType(userID uint, userType models.UserType) error {
	switch userType {
	case models.TypeStudent, models.TypeAcademic, models.TypeAcademicAdmin, models.TypeAdmin:
	default:
		return errors.New("Invalid user type")
	}
	return s.UpdateField(userID, "type", userType)
}

// ================== WORK EXPERIENCE ==================

// AddWorkExperience appends an entry and refreshes the user's skills.
func (s *UserService) AddWorkExperience(userID uint, text string) (*models.WorkExperience, error) {
	if text == "" {
		return nil, errors.New("Missing description")
	}
	if err := userExists(s.db, userID); err != nil {
		return nil, err
	}

	exp := &models.WorkExperience{UserID: userID, Text: text}
	if err := s.db.Create(exp).Error; err != nil {
		return nil, err
	}
	s.refreshUser(userID)
	return exp, nil
}

// UpdateWorkExperience rewrites one of the user's own entries.
func (s *UserService) UpdateWorkExperience(userID, expID uint, text string) error {
	if text == "" {
		return errors.New("Missing description")
	}

	var exp models.WorkExperience
	if err := s.db.First(&exp, expID).Error; err != nil {
		return errors.New("Work experience not found")
	}
	if exp.UserID != userID {
		return errors.New("Work experience not found")
	}

	if err := s.db.Model(&exp).Update("text", text).Error; err != nil {
		return err
	}
	s.refreshUser(userID)
	return nil
}

// DeleteWorkExperience removes one of the user's own entries.
func (s *UserService) DeleteWorkExperience(userID, expID uint) error {
	var exp models.WorkExperience
	if err := s.db.First(&exp, expID).Error; err != nil {
		return errors.New("Work experience not found")
	}
	if exp.UserID != userID {
		return errors.New("Work experience not found")
	}

	if err := s.db.Delete(&exp).Error; err != nil {
		return err
	}
	s.refreshUser(userID)
	return nil
}

// ================== PROFILE SHARING ==================

// Share grants the target user visibility of the owner's profile.
func (s *UserService) Share(ownerID, withID uint) error {
	if ownerID == withID {
		return errors.New("Cannot share profile with yourself")
	}
	if err := userExists(s.db, withID); err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.SharedProfile{}).
		Where("owner_id = ? AND shared_with_id = ?", ownerID, withID).
		Count(&count)
	if count > 0 {
		return errors.New("Profile already shared to this user")
	}
	return s.db.Create(&models.SharedProfile{OwnerID: ownerID, SharedWithID: withID}).Error
}

// ShareWithEmails grants visibility to every address that resolves to
// a user, notifying each one. Unknown addresses and duplicate grants
// are skipped rather than failing the batch.
func (s *UserService) ShareWithEmails(ownerID uint, emails []string) error {
	var owner models.User
	if err := s.db.First(&owner, ownerID).Error; err != nil {
		return errors.New("User not found")
	}
	for _, email := range emails {
		var target models.User
		if err := s.db.Where("email = ?", email).First(&target).Error; err != nil {
			continue
		}
		if err := s.Share(ownerID, target.ID); err != nil {
			continue
		}
		utils.SendEmail(target.Email,
			fmt.Sprintf("%s %s shared their profile with you", owner.FirstName, owner.LastName),
			fmt.Sprintf("<p>You have been granted access to %s %s's profile.</p>", owner.FirstName, owner.LastName))
	}
	return nil
}

// Unshare revokes a previous grant.
func (s *UserService) Unshare(ownerID, withID uint) error {
	res := s.db.Where("owner_id = ? AND shared_with_id = ?", ownerID, withID).
		Delete(&models.SharedProfile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("Profile not shared to this user")
	}
	return nil
}

// UnshareAll revokes every grant the owner has made.
func (s *UserService) UnshareAll(ownerID uint) error {
	return s.db.Where("owner_id = ?", ownerID).Delete(&models.SharedProfile{}).Error
}

// IsSharedWith reports whether the owner's profile is shared with the user.
func (s *UserService) IsSharedWith(ownerID, withID uint) bool {
	var count int64
	s.db.Model(&models.SharedProfile{}).
		Where("owner_id = ? AND shared_with_id = ?", ownerID, withID).
		Count(&count)
	return count > 0
}

// OwnersSharedWith lists the users who shared their profile with the viewer.
func (s *UserService) OwnersSharedWith(viewerID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.Joins("JOIN shared_profiles ON shared_profiles.owner_id = users.id").
		Where("shared_profiles.shared_with_id = ?", viewerID).
		Find(&users).Error
	return users, err
}

// SharedWith lists the users the owner's profile is shared with.
func (s *UserService) SharedWith(ownerID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.Joins("JOIN shared_profiles ON shared_profiles.shared_with_id = users.id").
		Where("shared_profiles.owner_id = ?", ownerID).
		Find(&users).Error
	return users, err
}

func (s *UserService) refreshUser(userID uint) {
	if s.skills == nil {
		return
	}
	// User skills update synchronously with the write, the group
	// refreshes ride the queue.
	if err := s.skills.RefreshUserSkills(userID); err != nil {
		log.Printf("Skill refresh for user %d failed: %v", userID, err)
	}
}
