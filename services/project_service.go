// services/project_service.go - Project Catalogue
package services

import (
	"errors"

	"unimatch/models"

	"gorm.io/gorm"
)

// ProjectService owns the project catalogue. Projects are created by
// academics and joined by full groups through GroupService.
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// ProjectInput carries the create payload. The size fields are
// pointers so absent means unconstrained.
type ProjectInput struct {
	Title          string
	Description    string
	Scope          string
	Topics         []string
	RequiredSkills []string
	Outcomes       []string
	MinGroupSize   *int
	MaxGroupSize   *int
	MaxGroupCount  *int
}

// Create validates and stores a new project owned by the caller.
func (s *ProjectService) Create(ownerID uint, in ProjectInput) (*models.Project, error) {
	if in.Title == "" || in.Description == "" {
		return nil, errors.New("Missing required fields")
	}
	if err := validateSizes(in.MinGroupSize, in.MaxGroupSize, in.MaxGroupCount); err != nil {
		return nil, err
	}

	project := &models.Project{
		OwnerID:        ownerID,
		Title:          in.Title,
		Description:    in.Description,
		Scope:          in.Scope,
		CoverPhoto:     models.DefaultProjectCoverPhoto,
		Topics:         models.EncodeStringList(in.Topics),
		RequiredSkills: models.EncodeStringList(in.RequiredSkills),
		Outcomes:       models.EncodeStringList(in.Outcomes),
		MinGroupSize:   in.MinGroupSize,
		MaxGroupSize:   in.MaxGroupSize,
		MaxGroupCount:  in.MaxGroupCount,
	}
	if err := s.db.Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Get returns one project with its groups preloaded.
func (s *ProjectService) Get(projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Groups").First(&project, projectID).Error
	if err != nil {
		return nil, errors.New("Project not found")
	}
	return &project, nil
}

// All returns every project.
func (s *ProjectService) All() ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Find(&projects).Error
	return projects, err
}

// OwnedBy returns the projects the academic owns.
func (s *ProjectService) OwnedBy(ownerID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Where("owner_id = ?", ownerID).Find(&projects).Error
	return projects, err
}

// SetTitle updates the title.
func (s *ProjectService) SetTitle(projectID uint, title string) error {
	if title == "" {
		return errors.New("Missing title")
	}
	return s.updateColumn(projectID, "title", title)
}

// SetDescription updates the description.
func (s *ProjectService) SetDescription(projectID uint, description string) error {
	if description == "" {
		return errors.New("Missing description")
	}
	return s.updateColumn(projectID, "description", description)
}

// SetScope updates the scope.
func (s *ProjectService) SetScope(projectID uint, scope string) error {
	if scope == "" {
		return errors.New("Missing scope")
	}
	return s.updateColumn(projectID, "scope", scope)
}

// SetTopics replaces the topic list.
func (s *ProjectService) SetTopics(projectID uint, topics []string) error {
	if len(topics) == 0 {
		return errors.New("Missing topics")
	}
	return s.updateColumn(projectID, "topics", models.EncodeStringList(topics))
}

// SetRequiredSkills replaces the required skill list.
func (s *ProjectService) SetRequiredSkills(projectID uint, skills []string) error {
	if len(skills) == 0 {
		return errors.New("Missing required skills")
	}
	return s.updateColumn(projectID, "required_skills", models.EncodeStringList(skills))
}

// SetOutcomes replaces the outcome list.
func (s *ProjectService) SetOutcomes(projectID uint, outcomes []string) error {
	if len(outcomes) == 0 {
		return errors.New("Missing outcomes")
	}
	return s.updateColumn(projectID, "outcomes", models.EncodeStringList(outcomes))
}

// SetCoverPhoto stores the cover photo location.
func (s *ProjectService) SetCoverPhoto(projectID uint, coverPhoto string) error {
	if coverPhoto == "" {
		return errors.New("Missing fields")
	}
	return s.updateColumn(projectID, "cover_photo", coverPhoto)
}

// SetGroupSizes updates the min and max group size together.
func (s *ProjectService) SetGroupSizes(projectID uint, min, max *int) error {
	if min == nil || max == nil {
		return errors.New("Missing sizes")
	}
	if err := validateSizes(min, max, nil); err != nil {
		return err
	}
	return s.db.Model(&models.Project{}).Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"min_group_size": *min,
			"max_group_size": *max,
		}).Error
}

// SetMaxGroupCount updates the cap on groups taking the project.
func (s *ProjectService) SetMaxGroupCount(projectID uint, count *int) error {
	if count == nil {
		return errors.New("Missing max group count")
	}
	if *count <= 0 {
		return errors.New("Max group count must be greater than 0")
	}
	return s.updateColumn(projectID, "max_group_count", *count)
}

// Delete removes the project and detaches its groups.
func (s *ProjectService) Delete(projectID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return errors.New("Project not found")
		}
		if err := tx.Model(&models.Group{}).Where("project_id = ?", projectID).
			Update("project_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&project).Error
	})
}

func (s *ProjectService) updateColumn(projectID uint, column string, value interface{}) error {
	res := s.db.Model(&models.Project{}).Where("id = ?", projectID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("Project not found")
	}
	return nil
}

func validateSizes(min, max, count *int) error {
	if min != nil && *min <= 0 {
		return errors.New("Min group count must be greater than 0")
	}
	if max != nil && *max <= 0 {
		return errors.New("Max group count must be greater than 0")
	}
	if min != nil && max != nil && *min > *max {
		return errors.New("Min group size cannot be greater than max")
	}
	if count != nil && *count <= 0 {
		return errors.New("Max group count must be greater than 0")
	}
	return nil
}
