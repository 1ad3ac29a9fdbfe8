package services

import (
	"errors"
	"testing"

	"unimatch/models"

	"gorm.io/gorm"
)

// fakeExtractor records calls and returns a canned keyword list.
type fakeExtractor struct {
	calls  int
	topN   int
	corpus string
	result []string
	err    error
}

func (f *fakeExtractor) Keywords(topN int, corpus string) ([]string, error) {
	f.calls++
	f.topN = topN
	f.corpus = corpus
	return f.result, f.err
}

func addWorkExperience(t *testing.T, db *gorm.DB, userID uint, text string) {
	t.Helper()
	if err := db.Create(&models.WorkExperience{UserID: userID, Text: text}).Error; err != nil {
		t.Fatalf("create work experience: %v", err)
	}
}

func userSkills(t *testing.T, db *gorm.DB, userID uint) string {
	t.Helper()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return user.Skills
}

func TestRefreshUserSkills(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeExtractor{result: []string{"python", "databases"}}
	svc := NewSkillService(db, fake)

	user := newTestUser(t, db, "alice")
	addWorkExperience(t, db, user.ID, "Backend developer at a startup")
	addWorkExperience(t, db, user.ID, "Tutored introductory programming")

	if err := svc.RefreshUserSkills(user.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("extractor calls = %d, want 1", fake.calls)
	}
	// 50 phrases spread over 2 corpus entries.
	if fake.topN != 25 {
		t.Errorf("topN = %d, want 25", fake.topN)
	}
	if fake.corpus != "Backend developer at a startup|Tutored introductory programming" {
		t.Errorf("corpus = %q", fake.corpus)
	}
	if got := userSkills(t, db, user.ID); got != `["python","databases"]` {
		t.Errorf("skills = %s", got)
	}
}

func TestRefreshUserSkillsEmptyCorpus(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeExtractor{result: []string{"never"}}
	svc := NewSkillService(db, fake)

	user := newTestUser(t, db, "alice")
	db.Model(user).Update("skills", `["stale"]`)

	if err := svc.RefreshUserSkills(user.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("extractor called %d times on an empty corpus, want 0", fake.calls)
	}
	if got := userSkills(t, db, user.ID); got != "[]" {
		t.Errorf("skills = %s, want []", got)
	}
}

func TestRefreshUserSkillsExtractorFailure(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeExtractor{err: errors.New("script exited 1")}
	svc := NewSkillService(db, fake)

	user := newTestUser(t, db, "alice")
	db.Model(user).Update("skills", `["stale"]`)
	addWorkExperience(t, db, user.ID, "Backend developer")

	if err := svc.RefreshUserSkills(user.ID); err == nil {
		t.Fatal("expected error from failing extractor")
	}
	if got := userSkills(t, db, user.ID); got != `["stale"]` {
		t.Errorf("skills = %s, want previous value kept", got)
	}
}

func TestRefreshGroupSkillsPoolsMembers(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeExtractor{result: []string{"teamwork"}}
	skills := NewSkillService(db, fake)
	groups := NewGroupService(db, skills)

	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	addWorkExperience(t, db, alice.ID, "Led a robotics club")
	addWorkExperience(t, db, bob.ID, "Wrote firmware")

	group, err := groups.Create(alice.ID, "Robots", "", 5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := groups.Join(group.ID, bob.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := skills.RefreshGroupSkills(group.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fake.corpus != "Led a robotics club|Wrote firmware" {
		t.Errorf("corpus = %q", fake.corpus)
	}
	if fake.topN != 25 {
		t.Errorf("topN = %d, want 25", fake.topN)
	}

	var g models.Group
	if err := db.First(&g, group.ID).Error; err != nil {
		t.Fatalf("load group: %v", err)
	}
	if g.Skills != `["teamwork"]` {
		t.Errorf("group skills = %s", g.Skills)
	}
}

func TestEnqueueAfterStopIsDropped(t *testing.T) {
	db := newTestDB(t)
	svc := NewSkillService(db, &fakeExtractor{})
	svc.Start()
	svc.Stop()

	// Late enqueues are dropped, not a panic on the closed queue.
	svc.EnqueueGroupRefresh(1)
	svc.Stop()
}

func TestCourseKeywords(t *testing.T) {
	db := newTestDB(t)
	owner := newTestUser(t, db, "prof")
	if err := db.Create(&models.Course{
		OwnerID: owner.ID,
		Code:    "COMP3311",
		Year:    "2026",
		Title:   "Database Systems",
		Summary: "Relational model and SQL.",
	}).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}

	extractor := &fakeExtractor{result: []string{"databases", "sql"}}
	svc := NewSkillService(db, extractor)

	keywords, err := svc.CourseKeywords("COMP3311", "2026")
	if err != nil {
		t.Fatalf("course keywords: %v", err)
	}
	if len(keywords) != 2 || keywords[0] != "databases" {
		t.Errorf("keywords = %v, want the extractor's list", keywords)
	}
	if extractor.topN != courseKeywordCount {
		t.Errorf("topN = %d, want %d", extractor.topN, courseKeywordCount)
	}
	if extractor.corpus != "COMP3311 Database Systems. Relational model and SQL." {
		t.Errorf("corpus = %q", extractor.corpus)
	}

	_, err = svc.CourseKeywords("COMP3311", "2025")
	if err == nil || err.Error() != "No Course found" {
		t.Errorf("err = %v, want No Course found", err)
	}
}

func TestTopNFloorsAtOne(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeExtractor{result: []string{"one"}}
	svc := NewSkillService(db, fake)

	user := newTestUser(t, db, "alice")
	for i := 0; i < 120; i++ {
		addWorkExperience(t, db, user.ID, "entry")
	}

	if err := svc.RefreshUserSkills(user.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fake.topN != 1 {
		t.Errorf("topN = %d, want floor of 1", fake.topN)
	}
}

func TestEnqueueWorkerProcessesRefresh(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeExtractor{result: []string{"go"}}
	skills := NewSkillService(db, fake)
	groups := NewGroupService(db, skills)

	alice := newTestUser(t, db, "alice")
	addWorkExperience(t, db, alice.ID, "Shipped a service")
	group, err := groups.Create(alice.ID, "Shippers", "", 5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	skills.Start()
	skills.EnqueueGroupRefresh(group.ID)
	skills.Stop()

	var g models.Group
	if err := db.First(&g, group.ID).Error; err != nil {
		t.Fatalf("load group: %v", err)
	}
	if g.Skills != `["go"]` {
		t.Errorf("group skills = %s, want refresh applied before Stop returned", g.Skills)
	}
}
