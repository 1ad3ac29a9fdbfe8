package middleware

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unimatch/database"
	"unimatch/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(nil) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, userType models.UserType) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: "Test", LastName: "User",
		Email: email, PwHash: "x", Type: userType,
		Skills: "[]", Verified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func signToken(t *testing.T, userID uint, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(jwtSecret()))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authedApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		auth, err := GetAuthUser(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"uId": auth.ID, "type": auth.Type})
	})
	return app
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	setupTestDB(t)
	app := authedApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejectsBadFormat(t *testing.T) {
	setupTestDB(t)
	app := authedApp()

	for _, header := range []string{"Token abc", "Bearer", "abc"} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Errorf("header %q: status = %d, want 401", header, resp.StatusCode)
		}
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice@test.local", models.TypeStudent)
	app := authedApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, user.ID, -time.Hour))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice@test.local", models.TypeStudent)
	app := authedApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, user.ID, time.Hour))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), fmt.Sprintf(`"uId":%d`, user.ID)) {
		t.Errorf("body = %s", body)
	}
}

func TestAuthMiddlewareRejectsDeletedUser(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice@test.local", models.TypeStudent)
	token := signToken(t, user.ID, time.Hour)
	db.Delete(user)
	app := authedApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	db := setupTestDB(t)
	student := createUser(t, db, "student@test.local", models.TypeStudent)
	academic := createUser(t, db, "prof@staff.unsw.edu.au", models.TypeAcademic)
	admin := createUser(t, db, "admin@test.local", models.TypeAdmin)

	app := fiber.New()
	app.Use(AuthMiddleware)
	app.Post("/academic-only", RequireRole(models.TypeAcademic, models.TypeAcademicAdmin),
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"message": "ok"}) })

	tests := []struct {
		user *models.User
		want int
	}{
		{student, 403},
		{academic, 200},
		{admin, 200}, // full admins always pass
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/academic-only", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, tt.user.ID, time.Hour))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("user %s: status = %d, want %d", tt.user.Email, resp.StatusCode, tt.want)
		}
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@test.local", models.TypeStudent)
	bob := createUser(t, db, "bob@test.local", models.TypeStudent)
	admin := createUser(t, db, "admin@test.local", models.TypeAdmin)
	academicAdmin := createUser(t, db, "head@staff.unsw.edu.au", models.TypeAcademicAdmin)

	app := fiber.New()
	app.Use(AuthMiddleware)
	app.Post("/self", RequireSelfOrAdmin,
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"message": "ok"}) })

	tests := []struct {
		caller *models.User
		want   int
	}{
		{alice, 200},
		{bob, 403},
		{admin, 200},
		{academicAdmin, 200},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/self",
			strings.NewReader(fmt.Sprintf(`{"uId": %d}`, alice.ID)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, tt.caller.ID, time.Hour))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("caller %s: status = %d, want %d", tt.caller.Email, resp.StatusCode, tt.want)
		}
	}
}

func TestRequireProjectOwnerAdmitsAdmins(t *testing.T) {
	db := setupTestDB(t)
	prof := createUser(t, db, "prof@staff.unsw.edu.au", models.TypeAcademic)
	other := createUser(t, db, "other@staff.unsw.edu.au", models.TypeAcademic)
	academicAdmin := createUser(t, db, "head@staff.unsw.edu.au", models.TypeAcademicAdmin)

	project := &models.Project{OwnerID: prof.ID, Title: "Capstone"}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	app := fiber.New()
	app.Use(AuthMiddleware)
	app.Put("/project-op", RequireProjectOwner,
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"message": "ok"}) })

	tests := []struct {
		caller *models.User
		want   int
	}{
		{prof, 200},
		{other, 403},
		{academicAdmin, 200},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("PUT", "/project-op",
			strings.NewReader(fmt.Sprintf(`{"pId": %d}`, project.ID)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, tt.caller.ID, time.Hour))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("caller %s: status = %d, want %d", tt.caller.Email, resp.StatusCode, tt.want)
		}
	}
}

func TestRequireCourseOwnerAdmitsAdmins(t *testing.T) {
	db := setupTestDB(t)
	prof := createUser(t, db, "prof@staff.unsw.edu.au", models.TypeAcademic)
	other := createUser(t, db, "other@staff.unsw.edu.au", models.TypeAcademic)
	academicAdmin := createUser(t, db, "head@staff.unsw.edu.au", models.TypeAcademicAdmin)

	course := &models.Course{OwnerID: prof.ID, Code: "COMP1511", Year: "2026", Title: "Programming Fundamentals"}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}

	app := fiber.New()
	app.Use(AuthMiddleware)
	app.Delete("/course-op", RequireCourseOwner,
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"message": "ok"}) })

	tests := []struct {
		caller *models.User
		want   int
	}{
		{prof, 200},
		{other, 403},
		{academicAdmin, 200},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("DELETE", "/course-op?code=COMP1511&year=2026", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, tt.caller.ID, time.Hour))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("caller %s: status = %d, want %d", tt.caller.Email, resp.StatusCode, tt.want)
		}
	}
}

func TestRequireGroupMember(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice@test.local", models.TypeStudent)
	bob := createUser(t, db, "bob@test.local", models.TypeStudent)
	academicAdmin := createUser(t, db, "head@staff.unsw.edu.au", models.TypeAcademicAdmin)

	group := &models.Group{Name: "Team", Size: 5, Skills: "[]"}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	member := &models.GroupMembership{GroupID: group.ID, UserID: alice.ID, State: models.StateMember}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}

	app := fiber.New()
	app.Use(AuthMiddleware)
	app.Post("/group-op", RequireGroupMember,
		func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"message": "ok"}) })

	tests := []struct {
		caller *models.User
		want   int
	}{
		{alice, 200},
		{bob, 403},
		{academicAdmin, 200},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/group-op",
			strings.NewReader(fmt.Sprintf(`{"gId": %d}`, group.ID)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signToken(t, tt.caller.ID, time.Hour))
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != tt.want {
			t.Errorf("caller %s: status = %d, want %d", tt.caller.Email, resp.StatusCode, tt.want)
		}
	}
}

func TestRequestStringSources(t *testing.T) {
	setupTestDB(t)
	app := fiber.New()
	app.Post("/echo/:code?", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"code": requestString(c, "code")})
	})

	// Params take priority, then query, then the JSON body.
	req := httptest.NewRequest("POST", "/echo/COMP1511?code=QUERY", nil)
	resp, _ := app.Test(req)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "COMP1511") {
		t.Errorf("body = %s, want route param", body)
	}

	req = httptest.NewRequest("POST", "/echo?code=COMP2511", nil)
	resp, _ = app.Test(req)
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "COMP2511") {
		t.Errorf("body = %s, want query param", body)
	}

	req = httptest.NewRequest("POST", "/echo", strings.NewReader(`{"code": "COMP3511"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "COMP3511") {
		t.Errorf("body = %s, want body field", body)
	}
}
