package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"unimatch/database"
	"unimatch/middleware"
	"unimatch/models"
	"unimatch/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// listExtractor is a stand-in for the keyword script.
type listExtractor struct {
	result []string
}

func (e *listExtractor) Keywords(topN int, corpus string) ([]string, error) {
	return e.result, nil
}

// setupApp wires the handler package against an in-memory database and
// returns an app with the routes under test registered.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
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

	skillService = services.NewSkillService(db, &listExtractor{})
	userService = services.NewUserService(db, skillService)
	groupService = services.NewGroupService(db, skillService)
	projectService = services.NewProjectService(db)
	courseService = services.NewCourseService(db, skillService)
	recommendService = services.NewRecommendService(db, skillService, nil, nil, nil, nil)

	app := fiber.New()
	auth := middleware.AuthMiddleware

	app.Post("/auth/register", Register)
	app.Get("/auth/register/verify/:token", RegisterVerify)
	app.Post("/auth/login", Login)

	app.Get("/user/profile", auth, GetProfile)
	app.Put("/user/setname", auth, middleware.RequireSelfOrAdmin, SetName)
	app.Put("/user/togglevisibility", auth, middleware.RequireSelfOrAdmin, ToggleVisibility)

	app.Post("/group/create", auth, CreateGroup)
	app.Get("/group", auth, GetGroup)
	app.Post("/group/join", auth, middleware.RequireSelfOrAdmin, JoinGroup)
	app.Post("/group/leave", auth, middleware.RequireSelfOrAdmin, LeaveGroup)
	app.Post("/group/invite", auth, middleware.RequireGroupMember, InviteToGroup)
	app.Get("/group/requests", auth, middleware.RequireGroupMember, GetGroupRequests)
	app.Post("/user/request", auth, middleware.RequireSelfOrAdmin, RequestToJoin)
	app.Post("/user/invite/accept", auth, middleware.RequireSelfOrAdmin, AcceptInvite)
	app.Get("/user/invites", auth, middleware.RequireSelfOrAdmin, GetUserInvites)

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, name string, userType models.UserType) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: name, LastName: "Tester",
		Email: name + "@test.local", PwHash: "x",
		Type: userType, Skills: "[]", Verified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := generateToken(*user)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

// doJSON sends a JSON request and decodes the JSON response.
func doJSON(t *testing.T, app *fiber.App, method, path, auth string,
	payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("%s %s: bad response %s", method, path, raw)
		}
	}
	return resp.StatusCode, decoded
}
