// services/skill_service.go - Derived Skill Extraction
package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"unimatch/models"

	"gorm.io/gorm"
)

// wordCloudWordCount is the total phrase budget spread over a corpus.
const wordCloudWordCount = 50

// courseKeywordCount sizes the keyword cloud for a single course page.
const courseKeywordCount = 10

// skillQueueSize caps pending refresh jobs. Refreshes are advisory, so
// anything past the cap is dropped rather than blocking a request.
const skillQueueSize = 64

// SkillService derives skill lists for users and groups from their
// experience and course text by calling the keyword extractor. Group
// refreshes run on a single background worker fed by a buffered queue;
// callers fire and forget.
type SkillService struct {
	db        *gorm.DB
	extractor KeywordExtractor

	queue  chan uint
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewSkillService(db *gorm.DB, extractor KeywordExtractor) *SkillService {
	return &SkillService{
		db:        db,
		extractor: extractor,
		queue:     make(chan uint, skillQueueSize),
	}
}

// Start launches the refresh worker.
func (s *SkillService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for groupID := range s.queue {
			if err := s.RefreshGroupSkills(groupID); err != nil {
				log.Printf("Skill refresh for group %d failed: %v", groupID, err)
			}
		}
	}()
}

// Stop drains the queue and waits for the worker to exit. Enqueues
// after Stop are dropped.
func (s *SkillService) Stop() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// EnqueueGroupRefresh schedules a group skill refresh without blocking.
func (s *SkillService) EnqueueGroupRefresh(groupID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- groupID:
	default:
		log.Printf("Skill refresh queue full, dropping group %d", groupID)
	}
}

// RefreshUserSkills recomputes the user's skills and schedules a
// refresh for every group they belong to.
func (s *SkillService) RefreshUserSkills(userID uint) error {
	count, summary, err := s.UserSummary(userID)
	if err != nil {
		return err
	}
	if err := s.refresh(&models.User{}, userID, count, summary); err != nil {
		return err
	}

	var memberships []models.GroupMembership
	if err := s.db.Where("user_id = ? AND state = ?", userID, models.StateMember).
		Find(&memberships).Error; err != nil {
		return err
	}
	for _, m := range memberships {
		s.EnqueueGroupRefresh(m.GroupID)
	}
	return nil
}

// RefreshGroupSkills recomputes the group's skills from the pooled
// summaries of its members.
func (s *SkillService) RefreshGroupSkills(groupID uint) error {
	count, summary, err := s.GroupSummary(groupID)
	if err != nil {
		return err
	}
	return s.refresh(&models.Group{}, groupID, count, summary)
}

func (s *SkillService) refresh(model interface{}, id uint, corpusCount int, summary string) error {
	if summary == "" {
		return s.db.Model(model).Where("id = ?", id).Update("skills", "[]").Error
	}

	topN := int(math.Round(float64(wordCloudWordCount) / float64(corpusCount)))
	if topN < 1 {
		topN = 1
	}
	keywords, err := s.extractor.Keywords(topN, summary)
	if err != nil {
		return err
	}
	return s.db.Model(model).Where("id = ?", id).
		Update("skills", models.EncodeStringList(keywords)).Error
}

// UserSummary builds the "|"-separated corpus of the user's work
// experience entries and course descriptions, and the entry count.
func (s *SkillService) UserSummary(userID uint) (int, string, error) {
	var user models.User
	err := s.db.Preload("WorkExperiences").Preload("Courses").
		First(&user, userID).Error
	if err != nil {
		return 0, "", err
	}

	var b strings.Builder
	count := 0
	for _, exp := range user.WorkExperiences {
		if exp.Text == "" {
			continue
		}
		b.WriteString(exp.Text)
		b.WriteString("|")
		count++
	}
	for _, course := range user.Courses {
		b.WriteString(fmt.Sprintf("%s %s. %s|", course.Code, course.Title, course.Summary))
		count++
	}
	return count, strings.TrimSuffix(b.String(), "|"), nil
}

// CourseKeywords extracts a keyword cloud from one course offering.
func (s *SkillService) CourseKeywords(code, year string) ([]string, error) {
	var course models.Course
	err := s.db.Where("code = ? AND year = ?", code, year).First(&course).Error
	if err != nil {
		return nil, errors.New("No Course found")
	}
	corpus := fmt.Sprintf("%s %s. %s", course.Code, course.Title, course.Summary)
	return s.extractor.Keywords(courseKeywordCount, corpus)
}

// GroupSummary pools the summaries of every member.
func (s *SkillService) GroupSummary(groupID uint) (int, string, error) {
	var memberships []models.GroupMembership
	err := s.db.Where("group_id = ? AND state = ?", groupID, models.StateMember).
		Find(&memberships).Error
	if err != nil {
		return 0, "", err
	}

	parts := make([]string, 0, len(memberships))
	total := 0
	for _, m := range memberships {
		count, summary, err := s.UserSummary(m.UserID)
		if err != nil {
			return 0, "", err
		}
		if summary == "" {
			continue
		}
		parts = append(parts, summary)
		total += count
	}
	return total, strings.Join(parts, "|"), nil
}
