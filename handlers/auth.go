// handlers/auth.go - Registration, Login and Password Reset
package handlers

import (
	"fmt"
	"os"
	"time"
	"unimatch/database"
	"unimatch/models"
	"unimatch/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const passwordConditionsMsg = "Password does not satisfy conditions. " +
	"Ensure password has minimum six characters, " +
	"at least one uppercase letter, " +
	"one lowercase letter, one number and one special character"

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Password string `json:"password"`
}

// Register creates an unverified account and emails a verification link.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if !utils.IsValidName(req.FirstName) || !utils.IsValidName(req.LastName) {
		return c.Status(400).JSON(fiber.Map{"error": "Name does not follow required format"})
	}
	if !utils.IsValidEmail(req.Email) {
		return c.Status(400).JSON(fiber.Map{"error": "Email does not follow required format"})
	}
	if !utils.IsValidPassword(req.Password) {
		return c.Status(400).JSON(fiber.Map{"error": passwordConditionsMsg})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"error": "Database not available"})
	}

	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		if existing.Verified {
			return c.Status(400).JSON(fiber.Map{
				"error": "User with this email has already been registered",
			})
		}
		return c.Status(400).JSON(fiber.Map{
			"error": "User with this email has already been registered but is not yet verified, please check your email for a verification link",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	userType := models.TypeStudent
	if utils.IsStaffEmail(req.Email) {
		userType = models.TypeAcademic
	}

	user := models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PwHash:      string(hash),
		Type:        userType,
		Avatar:      "/imgurl/default.jpg",
		Skills:      "[]",
		Verified:    false,
		VerifyToken: uuid.New().String(),
	}
	if err := db.Create(&user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create account"})
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3001"
	}
	utils.SendEmail(req.Email, "Verify your email address",
		fmt.Sprintf("<p>To secure your account, we need to verify your email address:<br><br>"+
			"Click <a href=\"%s/?token=%s\">here</a> to verify your email.</p>",
			frontendURL, user.VerifyToken))

	return c.JSON(fiber.Map{"message": "Check your email to verify your account"})
}

// RegisterVerify turns the emailed token into a verified account and
// logs the user in.
func RegisterVerify(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("verify_token = ? AND verified = ?", token, false).
		First(&user).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"verified":     true,
		"verify_token": "",
	}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to verify account"})
	}

	jwtToken, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}
	return c.JSON(fiber.Map{"uId": user.ID, "token": jwtToken})
}

// Login authenticates by email and password.
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("email = ? AND verified = ?", req.Email, true).
		First(&user).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "User not found"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PwHash), []byte(req.Password)); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Incorrect password"})
	}

	token, err := generateToken(user)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
	}
	return c.JSON(fiber.Map{"uId": user.ID, "token": token})
}

// Logout acknowledges the logout. Tokens are stateless so the client
// drops its copy.
func Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "You have been logged out"})
}

// PasswordResetSend emails a reset link. The response does not reveal
// whether the address exists.
func PasswordResetSend(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err == nil {
		expiry := time.Now().Add(time.Hour)
		token := uuid.New().String()
		db.Model(&user).Updates(map[string]interface{}{
			"reset_token":  token,
			"reset_expiry": expiry,
		})

		frontendURL := os.Getenv("FRONTEND_URL")
		if frontendURL == "" {
			frontendURL = "http://localhost:3001"
		}
		utils.SendEmail(req.Email, "Reset your password",
			fmt.Sprintf("<p>Click <a href=\"%s/auth/password/reset/%s\">here</a> to reset your password.</p>",
				frontendURL, token))
	}

	return c.JSON(fiber.Map{"message": "Check your email to reset your password"})
}

// PasswordReset sets a new password from a reset token.
func PasswordReset(c *fiber.Ctx) error {
	token := c.Params("token")

	var req PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if !utils.IsValidPassword(req.Password) {
		return c.Status(400).JSON(fiber.Map{"error": passwordConditionsMsg})
	}

	db := database.GetDB()
	var user models.User
	err := db.Where("reset_token = ? AND reset_expiry > ?", token, time.Now()).
		First(&user).Error
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	if err := db.Model(&user).Updates(map[string]interface{}{
		"pw_hash":      string(hash),
		"reset_token":  "",
		"reset_expiry": nil,
	}).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}

func generateToken(user models.User) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "unimatch-secret-change-in-production"
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"type":    string(user.Type),
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
