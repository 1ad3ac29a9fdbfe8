package services

import (
	"strings"
	"testing"

	"unimatch/models"
)

// fakeRanker returns the candidate ids in a fixed order regardless of
// the corpus, recording what it was asked to rank.
type fakeRanker struct {
	order      []uint
	subject    string
	candidates string
	calls      int
}

func (f *fakeRanker) Rank(subject, candidates string) ([]uint, error) {
	f.calls++
	f.subject = subject
	f.candidates = candidates
	return f.order, nil
}

type fakeGapAnalyzer struct {
	missing      []string
	requirements string
}

func (f *fakeGapAnalyzer) MissingSkills(subject, requirements string) ([]string, error) {
	f.requirements = requirements
	return f.missing, nil
}

func TestUsersForUserExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	skills := NewSkillService(db, &fakeExtractor{})
	ranker := &fakeRanker{}
	svc := NewRecommendService(db, skills, ranker, nil, nil, nil)

	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	carol := newTestUser(t, db, "carol")
	for _, u := range []*models.User{alice, bob, carol} {
		db.Model(u).Update("public", true)
		addWorkExperience(t, db, u.ID, "Did some work")
	}
	ranker.order = []uint{carol.ID, bob.ID}

	result, err := svc.UsersForUser(alice.ID)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(result) != 2 || result[0].ID != carol.ID || result[1].ID != bob.ID {
		t.Errorf("result order = %v, want ranker order [carol bob]", result)
	}
	if strings.Contains(ranker.candidates, "Id:1|") && alice.ID == 1 {
		t.Error("caller should not appear among candidates")
	}
}

func TestRankOrderPreserved(t *testing.T) {
	db := newTestDB(t)
	skills := NewSkillService(db, &fakeExtractor{})
	ranker := &fakeRanker{}
	svc := NewRecommendService(db, skills, nil, nil, ranker, nil)

	owner := newTestUser(t, db, "prof")
	addWorkExperience(t, db, owner.ID, "Research background")
	p1 := &models.Project{OwnerID: owner.ID, Title: "First", Description: "d"}
	p2 := &models.Project{OwnerID: owner.ID, Title: "Second", Description: "d"}
	db.Create(p1)
	db.Create(p2)
	ranker.order = []uint{p2.ID, p1.ID}

	result, err := svc.ProjectsForUser(owner.ID)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(result) != 2 || result[0].ID != p2.ID || result[1].ID != p1.ID {
		t.Errorf("result = %v, want ranker order preserved", result)
	}
}

func TestRankSkipsEmptySubject(t *testing.T) {
	db := newTestDB(t)
	skills := NewSkillService(db, &fakeExtractor{})
	ranker := &fakeRanker{order: []uint{1}}
	svc := NewRecommendService(db, skills, ranker, nil, nil, nil)

	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	db.Model(bob).Update("public", true)
	addWorkExperience(t, db, bob.ID, "Did some work")

	result, err := svc.UsersForUser(alice.ID)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("result = %v, want empty for a user with no summary", result)
	}
	if ranker.calls != 0 {
		t.Errorf("ranker called %d times, want 0", ranker.calls)
	}
}

func TestGroupsForUserSkipsFullAndOwn(t *testing.T) {
	db := newTestDB(t)
	skills := NewSkillService(db, &fakeExtractor{})
	ranker := &fakeRanker{}
	groups := NewGroupService(db, skills)
	svc := NewRecommendService(db, skills, nil, ranker, nil, nil)

	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	addWorkExperience(t, db, alice.ID, "Alice background")
	addWorkExperience(t, db, bob.ID, "Bob background")

	mine, _ := groups.Create(alice.ID, "Mine", "", 5)
	full, _ := groups.Create(bob.ID, "Full", "", 1)
	open, _ := groups.Create(bob.ID, "Open", "", 5)
	ranker.order = []uint{open.ID}

	result, err := svc.GroupsForUser(alice.ID)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(result) != 1 || result[0].ID != open.ID {
		t.Errorf("result = %v, want only the open group", result)
	}
	for _, g := range []*models.Group{mine, full} {
		if strings.Contains(ranker.candidates, g.Name) {
			t.Errorf("group %s should not be a candidate", g.Name)
		}
	}
}

func TestUserProjectSkillGap(t *testing.T) {
	db := newTestDB(t)
	skills := NewSkillService(db, &fakeExtractor{})
	gaps := &fakeGapAnalyzer{missing: []string{"docker"}}
	svc := NewRecommendService(db, skills, nil, nil, nil, gaps)

	owner := newTestUser(t, db, "prof")
	alice := newTestUser(t, db, "alice")
	addWorkExperience(t, db, alice.ID, "Knows python")

	project := &models.Project{
		OwnerID: owner.ID, Title: "Capstone", Description: "d",
		RequiredSkills: `["python","docker"]`,
	}
	db.Create(project)

	missing, err := svc.UserProjectSkillGap(alice.ID, project.ID)
	if err != nil {
		t.Fatalf("skill gap: %v", err)
	}
	if len(missing) != 1 || missing[0] != "docker" {
		t.Errorf("missing = %v", missing)
	}
	if gaps.requirements != "python___docker" {
		t.Errorf("requirements corpus = %q", gaps.requirements)
	}
}

func TestSkillGapShortCircuits(t *testing.T) {
	db := newTestDB(t)
	skills := NewSkillService(db, &fakeExtractor{})
	gaps := &fakeGapAnalyzer{missing: []string{"never"}}
	svc := NewRecommendService(db, skills, nil, nil, nil, gaps)

	owner := newTestUser(t, db, "prof")
	blank := newTestUser(t, db, "blank")

	noReqs := &models.Project{OwnerID: owner.ID, Title: "Easy", Description: "d"}
	withReqs := &models.Project{
		OwnerID: owner.ID, Title: "Hard", Description: "d",
		RequiredSkills: `["rust"]`,
	}
	db.Create(noReqs)
	db.Create(withReqs)

	missing, err := svc.UserProjectSkillGap(blank.ID, noReqs.ID)
	if err != nil {
		t.Fatalf("skill gap: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none when project has no requirements", missing)
	}

	// No background means every requirement is missing, analyzer not needed.
	missing, err = svc.UserProjectSkillGap(blank.ID, withReqs.ID)
	if err != nil {
		t.Fatalf("skill gap: %v", err)
	}
	if len(missing) != 1 || missing[0] != "rust" {
		t.Errorf("missing = %v, want all requirements", missing)
	}

	if _, err := svc.UserProjectSkillGap(blank.ID, 999); err == nil {
		t.Error("missing project should error")
	}
}
