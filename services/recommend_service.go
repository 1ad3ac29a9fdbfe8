// services/recommend_service.go - Similarity Recommendations and Skill Gaps
package services

import (
	"errors"
	"fmt"
	"strings"

	"unimatch/models"

	"gorm.io/gorm"
)

// RecommendService builds text corpora for users, groups and projects
// and hands them to the external rankers. Candidates are serialized as
// "Id:<id>|<text>" entries joined by "___"; the rankers return ordered
// id lists which are resolved back to records preserving order.
type RecommendService struct {
	db       *gorm.DB
	skills   *SkillService
	users    Recommender
	groups   Recommender
	projects Recommender
	gaps     GapAnalyzer
}

func NewRecommendService(db *gorm.DB, skills *SkillService,
	users, groups, projects Recommender, gaps GapAnalyzer) *RecommendService {
	return &RecommendService{
		db:       db,
		skills:   skills,
		users:    users,
		groups:   groups,
		projects: projects,
		gaps:     gaps,
	}
}

// ================== RECOMMENDATIONS ==================

// UsersForUser ranks every other user against the caller's summary.
func (s *RecommendService) UsersForUser(userID uint) ([]models.User, error) {
	_, subject, err := s.skills.UserSummary(userID)
	if err != nil {
		return nil, errors.New("User not found")
	}
	return s.rankUsers(subject, map[uint]bool{userID: true})
}

// UsersForGroup ranks non-members against the group's pooled summary.
func (s *RecommendService) UsersForGroup(groupID uint) ([]models.User, error) {
	_, subject, err := s.skills.GroupSummary(groupID)
	if err != nil {
		return nil, errors.New("Group not found")
	}

	var memberships []models.GroupMembership
	if err := s.db.Where("group_id = ? AND state = ?", groupID, models.StateMember).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	exclude := make(map[uint]bool, len(memberships))
	for _, m := range memberships {
		exclude[m.UserID] = true
	}
	return s.rankUsers(subject, exclude)
}

// GroupsForUser ranks groups the user could still join: not their own
// groups and not already full.
func (s *RecommendService) GroupsForUser(userID uint) ([]models.Group, error) {
	_, subject, err := s.skills.UserSummary(userID)
	if err != nil {
		return nil, errors.New("User not found")
	}

	var groups []models.Group
	if err := s.db.Preload("Memberships").Find(&groups).Error; err != nil {
		return nil, err
	}

	candidates := make(map[uint]string)
	for _, g := range groups {
		memberCount := 0
		mine := false
		for _, m := range g.Memberships {
			if m.State != models.StateMember {
				continue
			}
			memberCount++
			if m.UserID == userID {
				mine = true
			}
		}
		if mine || memberCount >= g.Size {
			continue
		}
		_, summary, err := s.skills.GroupSummary(g.ID)
		if err != nil {
			return nil, err
		}
		if summary == "" {
			continue
		}
		candidates[g.ID] = summary
	}

	ids, err := s.rank(s.groups, subject, candidates)
	if err != nil {
		return nil, err
	}
	return s.resolveGroups(ids)
}

// ProjectsForUser ranks every project against the user's summary.
func (s *RecommendService) ProjectsForUser(userID uint) ([]models.Project, error) {
	_, subject, err := s.skills.UserSummary(userID)
	if err != nil {
		return nil, errors.New("User not found")
	}
	return s.rankProjects(subject, nil, 0)
}

// ProjectsForGroup ranks projects the group could take on: not the one
// it already holds, and with size constraints the group satisfies.
func (s *RecommendService) ProjectsForGroup(groupID uint) ([]models.Project, error) {
	group, err := loadGroup(s.db, groupID)
	if err != nil {
		return nil, err
	}
	_, subject, err := s.skills.GroupSummary(groupID)
	if err != nil {
		return nil, err
	}

	var excludeID uint
	if group.ProjectID != nil {
		excludeID = *group.ProjectID
	}
	return s.rankProjects(subject, group, excludeID)
}

// ================== SKILL GAPS ==================

// UserProjectSkillGap lists the project requirements the user's
// background does not cover.
func (s *RecommendService) UserProjectSkillGap(userID, projectID uint) ([]string, error) {
	_, subject, err := s.skills.UserSummary(userID)
	if err != nil {
		return nil, errors.New("User not found")
	}
	return s.skillGap(subject, projectID)
}

// GroupProjectSkillGap lists the requirements the group as a whole does
// not cover.
func (s *RecommendService) GroupProjectSkillGap(groupID, projectID uint) ([]string, error) {
	if _, err := loadGroup(s.db, groupID); err != nil {
		return nil, err
	}
	_, subject, err := s.skills.GroupSummary(groupID)
	if err != nil {
		return nil, err
	}
	return s.skillGap(subject, projectID)
}

func (s *RecommendService) skillGap(subject string, projectID uint) ([]string, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, errors.New("Project not found")
	}

	required := models.DecodeStringList(project.RequiredSkills)
	if len(required) == 0 {
		return []string{}, nil
	}
	if subject == "" {
		return required, nil
	}
	return s.gaps.MissingSkills(subject, strings.Join(required, "___"))
}

// ================== CORPUS AND RESOLUTION ==================

func (s *RecommendService) rankUsers(subject string, exclude map[uint]bool) ([]models.User, error) {
	var users []models.User
	if err := s.db.Where("public = ?", true).Find(&users).Error; err != nil {
		return nil, err
	}

	candidates := make(map[uint]string)
	for _, u := range users {
		if exclude[u.ID] {
			continue
		}
		_, summary, err := s.skills.UserSummary(u.ID)
		if err != nil {
			return nil, err
		}
		if summary == "" {
			continue
		}
		candidates[u.ID] = summary
	}

	ids, err := s.rank(s.users, subject, candidates)
	if err != nil {
		return nil, err
	}
	return s.resolveUsers(ids)
}

func (s *RecommendService) rankProjects(subject string, group *models.Group, excludeID uint) ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Find(&projects).Error; err != nil {
		return nil, err
	}

	candidates := make(map[uint]string)
	for _, p := range projects {
		if p.ID == excludeID {
			continue
		}
		if group != nil {
			if p.MinGroupSize != nil && *p.MinGroupSize > group.Size {
				continue
			}
			if p.MaxGroupSize != nil && *p.MaxGroupSize < group.Size {
				continue
			}
		}
		candidates[p.ID] = projectText(&p)
	}

	ids, err := s.rank(s.projects, subject, candidates)
	if err != nil {
		return nil, err
	}
	return s.resolveProjects(ids)
}

// rank serializes the candidates and invokes the ranker. An empty
// subject or candidate set short-circuits to no recommendations.
func (s *RecommendService) rank(r Recommender, subject string, candidates map[uint]string) ([]uint, error) {
	if subject == "" || len(candidates) == 0 {
		return nil, nil
	}
	var b strings.Builder
	for id, text := range candidates {
		b.WriteString(fmt.Sprintf("Id:%d|%s___", id, text))
	}
	return r.Rank(subject, strings.TrimSuffix(b.String(), "___"))
}

func projectText(p *models.Project) string {
	parts := []string{p.Title, p.Description, p.Scope}
	parts = append(parts, models.DecodeStringList(p.Topics)...)
	parts = append(parts, models.DecodeStringList(p.RequiredSkills)...)
	parts = append(parts, models.DecodeStringList(p.Outcomes)...)
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "|")
}

func (s *RecommendService) resolveUsers(ids []uint) ([]models.User, error) {
	result := make([]models.User, 0, len(ids))
	for _, id := range ids {
		var u models.User
		if err := s.db.First(&u, id).Error; err != nil {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (s *RecommendService) resolveGroups(ids []uint) ([]models.Group, error) {
	result := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		var g models.Group
		if err := s.db.Preload("Memberships").First(&g, id).Error; err != nil {
			continue
		}
		result = append(result, g)
	}
	return result, nil
}

func (s *RecommendService) resolveProjects(ids []uint) ([]models.Project, error) {
	result := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		var p models.Project
		if err := s.db.First(&p, id).Error; err != nil {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}
