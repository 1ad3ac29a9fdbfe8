package handlers

import (
	"testing"

	"unimatch/models"
)

func TestRegisterLoginFlow(t *testing.T) {
	app, db := setupApp(t)

	status, body := doJSON(t, app, "POST", "/auth/register", "",
		map[string]interface{}{
			"firstName": "Alice", "lastName": "Smith",
			"email": "alice@example.com", "password": "Passw0rd!",
		})
	if status != 200 || body["message"] != "Check your email to verify your account" {
		t.Fatalf("register: %d %v", status, body)
	}

	// Unverified accounts cannot log in.
	status, body = doJSON(t, app, "POST", "/auth/login", "",
		map[string]interface{}{"email": "alice@example.com", "password": "Passw0rd!"})
	if status != 400 || body["error"] != "User not found" {
		t.Fatalf("login unverified: %d %v", status, body)
	}

	var user models.User
	if err := db.Where("email = ?", "alice@example.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Verified || user.VerifyToken == "" {
		t.Fatalf("user = %+v, want unverified with token", user)
	}

	status, body = doJSON(t, app, "GET", "/auth/register/verify/"+user.VerifyToken, "", nil)
	if status != 200 || body["token"] == nil {
		t.Fatalf("verify: %d %v", status, body)
	}

	status, body = doJSON(t, app, "POST", "/auth/login", "",
		map[string]interface{}{"email": "alice@example.com", "password": "Passw0rd!"})
	if status != 200 || body["token"] == nil {
		t.Fatalf("login: %d %v", status, body)
	}

	status, body = doJSON(t, app, "POST", "/auth/login", "",
		map[string]interface{}{"email": "alice@example.com", "password": "WrongPass1!"})
	if status != 400 || body["error"] != "Incorrect password" {
		t.Errorf("wrong password: %d %v", status, body)
	}
}

func TestRegisterValidation(t *testing.T) {
	app, _ := setupApp(t)

	tests := []struct {
		name    string
		payload map[string]interface{}
		wantErr string
	}{
		{
			"bad name",
			map[string]interface{}{"firstName": "Alice1", "lastName": "Smith",
				"email": "a@example.com", "password": "Passw0rd!"},
			"Name does not follow required format",
		},
		{
			"bad email",
			map[string]interface{}{"firstName": "Alice", "lastName": "Smith",
				"email": "not-an-email", "password": "Passw0rd!"},
			"Email does not follow required format",
		},
		{
			"weak password",
			map[string]interface{}{"firstName": "Alice", "lastName": "Smith",
				"email": "a@example.com", "password": "weak"},
			passwordConditionsMsg,
		},
	}
	for _, tt := range tests {
		status, body := doJSON(t, app, "POST", "/auth/register", "", tt.payload)
		if status != 400 || body["error"] != tt.wantErr {
			t.Errorf("%s: %d %v", tt.name, status, body)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, db := setupApp(t)
	seedUser(t, db, "alice", models.TypeStudent) // alice@test.local, verified

	status, body := doJSON(t, app, "POST", "/auth/register", "",
		map[string]interface{}{
			"firstName": "Alice", "lastName": "Smith",
			"email": "alice@test.local", "password": "Passw0rd!",
		})
	if status != 400 || body["error"] != "User with this email has already been registered" {
		t.Errorf("duplicate: %d %v", status, body)
	}
}

func TestRegisterStaffEmailBecomesAcademic(t *testing.T) {
	app, db := setupApp(t)

	status, _ := doJSON(t, app, "POST", "/auth/register", "",
		map[string]interface{}{
			"firstName": "Pat", "lastName": "Lecturer",
			"email": "pat@staff.unsw.edu.au", "password": "Passw0rd!",
		})
	if status != 200 {
		t.Fatalf("register: %d", status)
	}

	var user models.User
	if err := db.Where("email = ?", "pat@staff.unsw.edu.au").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Type != models.TypeAcademic {
		t.Errorf("type = %s, want ACADEMIC", user.Type)
	}
}

func TestPasswordReset(t *testing.T) {
	app, db := setupApp(t)
	app.Post("/auth/passwordreset/request", PasswordResetSend)
	app.Post("/auth/passwordreset/:token", PasswordReset)

	alice := seedUser(t, db, "alice", models.TypeStudent)

	// Same response whether or not the address exists.
	for _, email := range []string{"alice@test.local", "nobody@test.local"} {
		status, body := doJSON(t, app, "POST", "/auth/passwordreset/request", "",
			map[string]interface{}{"email": email})
		if status != 200 || body["message"] != "Check your email to reset your password" {
			t.Fatalf("reset request %s: %d %v", email, status, body)
		}
	}

	if err := db.First(alice, alice.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if alice.ResetToken == "" || alice.ResetExpiry == nil {
		t.Fatal("reset token should be stored")
	}

	status, body := doJSON(t, app, "POST", "/auth/passwordreset/"+alice.ResetToken, "",
		map[string]interface{}{"password": "NewPassw0rd!"})
	if status != 200 || body["message"] != "Password reset successfully" {
		t.Fatalf("reset: %d %v", status, body)
	}

	status, body = doJSON(t, app, "POST", "/auth/passwordreset/"+alice.ResetToken, "",
		map[string]interface{}{"password": "AnotherPassw0rd1!"})
	if status != 401 {
		t.Errorf("reused token: %d %v", status, body)
	}

	status, body = doJSON(t, app, "POST", "/auth/login", "",
		map[string]interface{}{"email": "alice@test.local", "password": "NewPassw0rd!"})
	if status != 200 || body["token"] == nil {
		t.Errorf("login with new password: %d %v", status, body)
	}
}
