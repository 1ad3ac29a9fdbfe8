// middleware/auth.go
package middleware

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
	"unimatch/database"
	"unimatch/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthUser is the caller identity attached by AuthMiddleware. Handlers
// and guards read it instead of re-parsing the token.
type AuthUser struct {
	ID   uint
	Type models.UserType
}

func jwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "unimatch-secret-change-in-production"
	}
	return secret
}

func AuthMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Missing authorization header"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization header format"})
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(401, "Invalid signing method")
		}
		return []byte(jwtSecret()), nil
	})
	if err != nil || !token.Valid {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return c.Status(401).JSON(fiber.Map{"error": "Token expired"})
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	// Look the user up so role changes take effect without reissuing
	// the token.
	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"error": "Database not available"})
	}
	var user models.User
	if err := db.First(&user, uint(rawID)).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not found"})
	}

	c.Locals("userId", user.ID)
	c.Locals("userType", user.Type)

	return c.Next()
}

func GetUserID(c *fiber.Ctx) (uint, error) {
	userID := c.Locals("userId")
	if userID == nil {
		return 0, fiber.NewError(401, "User not authenticated")
	}
	if id, ok := userID.(uint); ok {
		return id, nil
	}
	if id, ok := userID.(float64); ok {
		return uint(id), nil
	}
	return 0, fiber.NewError(401, "Invalid user ID format")
}

func GetAuthUser(c *fiber.Ctx) (AuthUser, error) {
	id, err := GetUserID(c)
	if err != nil {
		return AuthUser{}, err
	}
	userType, _ := c.Locals("userType").(models.UserType)
	if userType == "" {
		userType = models.TypeStudent
	}
	return AuthUser{ID: id, Type: userType}, nil
}

// RequireRole admits callers whose account type is in the list. Full
// admins always pass.
func RequireRole(roles ...models.UserType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth, err := GetAuthUser(c)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
		}
		if auth.Type == models.TypeAdmin {
			return c.Next()
		}
		for _, role := range roles {
			if auth.Type == role {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden: User does not have authorized role"})
	}
}

// RequireSelfOrAdmin admits the caller when the uId in the request is
// their own id, or when they are an admin.
func RequireSelfOrAdmin(c *fiber.Ctx) error {
	auth, err := GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	uID, ok := requestUint(c, "uId")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Missing uId"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, uID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "User not found"})
	}

	if auth.ID == uID || auth.Type.IsAdmin() {
		return c.Next()
	}
	return c.Status(403).JSON(fiber.Map{"error": "Forbidden: User id does not match authorized user"})
}

// RequireGroupMember admits members of the gId group, or admins.
func RequireGroupMember(c *fiber.Ctx) error {
	auth, err := GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	gID, ok := requestUint(c, "gId")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Missing gId"})
	}

	db := database.GetDB()
	var group models.Group
	if err := db.First(&group, gID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Group not found"})
	}

	if auth.Type.IsAdmin() {
		return c.Next()
	}

	var count int64
	db.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ? AND state = ?", gID, auth.ID, models.StateMember).
		Count(&count)
	if count == 0 {
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden: User is not group member"})
	}
	return c.Next()
}

// RequireProjectOwner admits the owner of the pId project, or admins.
func RequireProjectOwner(c *fiber.Ctx) error {
	auth, err := GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	pID, ok := requestUint(c, "pId")
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Missing pId"})
	}

	db := database.GetDB()
	var project models.Project
	if err := db.First(&project, pID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Project not found"})
	}

	if auth.ID == project.OwnerID || auth.Type.IsAdmin() {
		return c.Next()
	}
	return c.Status(403).JSON(fiber.Map{"error": "Forbidden: User is not project owner"})
}

// RequireCourseOwner admits the academic who owns the course named by
// code and year, or admins.
func RequireCourseOwner(c *fiber.Ctx) error {
	auth, err := GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	code := requestString(c, "code")
	year := requestString(c, "year")
	if code == "" || year == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing course information"})
	}

	db := database.GetDB()
	var course models.Course
	if err := db.Where("code = ? AND year = ?", code, year).First(&course).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Course not found"})
	}

	if auth.ID == course.OwnerID || auth.Type.IsAdmin() {
		return c.Next()
	}
	return c.Status(403).JSON(fiber.Map{"error": "Forbidden: User is not course owner"})
}

// requestString finds a parameter in the route params, query string or
// JSON body, in that order.
func requestString(c *fiber.Ctx, key string) string {
	if v := c.Params(key); v != "" {
		return v
	}
	if v := c.Query(key); v != "" {
		return v
	}
	body := c.Body()
	if len(body) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func requestUint(c *fiber.Ctx, key string) (uint, bool) {
	raw := requestString(c, key)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
