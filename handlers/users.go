// handlers/users.go - Profile Endpoints
package handlers

import (
	"fmt"
	"strings"

	"unimatch/database"
	"unimatch/middleware"
	"unimatch/models"
	"unimatch/services"
	"unimatch/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetProfile returns one profile, anonymized when the caller cannot
// see it.
func GetProfile(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	uID := uint(c.QueryInt("uId"))
	visible, err := userService.IsVisibleTo(auth.ID, auth.Type, uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if !visible {
		return c.JSON(models.AnonymousUser)
	}

	user, err := userService.Get(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"id":             user.ID,
		"firstName":      user.FirstName,
		"lastName":       user.LastName,
		"email":          user.Email,
		"phoneNumber":    user.Phone,
		"school":         user.School,
		"degree":         user.Degree,
		"avatar":         user.Avatar,
		"type":           user.Type,
		"public":         user.Public,
		"skills":         models.DecodeStringList(user.Skills),
		"workExperience": user.WorkExperiences,
		"courses":        user.Courses,
	})
}

// GetProfiles lists every profile, anonymizing invisible ones.
func GetProfiles(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	summaries, err := userService.List(auth.ID, auth.Type)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"users": summaries})
}

// GetPublicProfiles lists only the public profiles.
func GetPublicProfiles(c *fiber.Ctx) error {
	db := database.GetDB()
	var users []models.User
	if err := db.Where("public = ?", true).Find(&users).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"users": userSummaries(users, false)})
}

// GetSharedProfiles lists the profiles shared with the uId user.
func GetSharedProfiles(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	users, err := userService.OwnersSharedWith(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"users": userSummaries(users, false)})
}

// GetVisibleProfiles lists every profile the uId user can see.
func GetVisibleProfiles(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	db := database.GetDB()
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	visibleUsers := make([]models.UserSummary, 0)
	for i := range users {
		visible, err := userService.IsVisibleTo(auth.ID, auth.Type, users[i].ID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if visible {
			visibleUsers = append(visibleUsers, users[i].Summary(false))
		}
	}
	return c.JSON(fiber.Map{"users": visibleUsers})
}

// SetName updates the caller's name.
func SetName(c *fiber.Ctx) error {
	var req struct {
		UID       uint   `json:"uId"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.FirstName == "" || req.LastName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing first name or last name"})
	}
	if !utils.IsValidName(req.FirstName) || !utils.IsValidName(req.LastName) {
		return c.Status(400).JSON(fiber.Map{"error": "Name does not follow required format"})
	}

	db := database.GetDB()
	if err := db.Model(&models.User{}).Where("id = ?", req.UID).
		Updates(map[string]interface{}{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
		}).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"message": "Name updated"})
}

// SetEmail changes the login email.
func SetEmail(c *fiber.Ctx) error {
	var req struct {
		UID   uint   `json:"uId"`
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing email"})
	}
	if !utils.IsValidEmail(req.Email) {
		return c.Status(400).JSON(fiber.Map{"error": "Email does not follow required format"})
	}

	db := database.GetDB()
	var existing models.User
	if err := db.Where("email = ? AND id <> ?", req.Email, req.UID).
		First(&existing).Error; err == nil {
		return c.Status(400).JSON(fiber.Map{"error": "User with that email already exists"})
	}

	if err := userService.UpdateField(req.UID, "email", req.Email); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Email updated"})
}

// SetPassword changes the password.
func SetPassword(c *fiber.Ctx) error {
	var req struct {
		UID      uint   `json:"uId"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing password"})
	}
	if !utils.IsValidPassword(req.Password) {
		return c.Status(400).JSON(fiber.Map{"error": passwordConditionsMsg})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to hash password"})
	}
	if err := userService.UpdateField(req.UID, "pw_hash", string(hash)); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// SetPhone updates the phone number.
func SetPhone(c *fiber.Ctx) error {
	var req struct {
		UID   uint   `json:"uId"`
		Phone string `json:"phoneNumber"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Phone == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing phone number"})
	}
	if !utils.IsValidPhoneNumber(req.Phone) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid phone number"})
	}

	if err := userService.UpdateField(req.UID, "phone", req.Phone); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Phone number updated"})
}

// SetSchool updates the school.
func SetSchool(c *fiber.Ctx) error {
	var req struct {
		UID    uint   `json:"uId"`
		School string `json:"school"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.School == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing school"})
	}

	if err := userService.UpdateField(req.UID, "school", req.School); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "School updated"})
}

// SetDegree updates the degree.
func SetDegree(c *fiber.Ctx) error {
	var req struct {
		UID    uint   `json:"uId"`
		Degree string `json:"degree"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Degree == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing degree"})
	}

	if err := userService.UpdateField(req.UID, "degree", req.Degree); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Degree updated"})
}

// SetDetails updates phone, school and degree in one call.
func SetDetails(c *fiber.Ctx) error {
	var req struct {
		UID    uint   `json:"uId"`
		Phone  string `json:"phoneNumber"`
		School string `json:"school"`
		Degree string `json:"degree"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Phone == "" || req.School == "" || req.Degree == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing fields"})
	}
	if !utils.IsValidPhoneNumber(req.Phone) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid phone number"})
	}

	db := database.GetDB()
	if err := db.Model(&models.User{}).Where("id = ?", req.UID).
		Updates(map[string]interface{}{
			"phone":  req.Phone,
			"school": req.School,
			"degree": req.Degree,
		}).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"message": "User updated"})
}

// SetType changes an account's type. Admin only.
func SetType(c *fiber.Ctx) error {
	var req struct {
		UID  uint   `json:"uId"`
		Type string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Type == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing type"})
	}

	if err := userService.SetType(req.UID, models.UserType(req.Type)); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Type updated"})
}

// SetAvatar stores the avatar URL.
func SetAvatar(c *fiber.Ctx) error {
	var req struct {
		UID      uint   `json:"uId"`
		ImageURL string `json:"imageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ImageURL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing fields"})
	}

	if err := userService.UpdateField(req.UID, "avatar", req.ImageURL); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"imagePath": req.ImageURL})
}

// DeleteUser removes an account.
func DeleteUser(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))

	db := database.GetDB()
	res := db.Delete(&models.User{}, uID)
	if res.Error != nil || res.RowsAffected == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Unable to delete user"})
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// IsPublic reports the profile's visibility flag.
func IsPublic(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	user, err := userService.Get(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"isPublic": user.Public})
}

// ToggleVisibility flips the profile between public and private.
func ToggleVisibility(c *fiber.Ctx) error {
	var req struct {
		UID uint `json:"uId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := userService.Get(req.UID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if err := userService.UpdateField(req.UID, "public", !user.Public); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "User visibility updated", "isPublic": !user.Public})
}

// IsShared reports whether the uId profile is shared with the caller.
func IsShared(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	uID := uint(c.QueryInt("uId"))
	return c.JSON(fiber.Map{"isShared": userService.IsSharedWith(uID, auth.ID)})
}

// ================== WORK EXPERIENCE ==================

// AddWorkExperience appends a free-text experience entry.
func AddWorkExperience(c *fiber.Ctx) error {
	var req struct {
		UID            uint   `json:"uId"`
		WorkExperience string `json:"workExperience"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorkExperience == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing work experience"})
	}

	if _, err := userService.AddWorkExperience(req.UID, req.WorkExperience); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Work experience updated"})
}

// EditWorkExperience rewrites an entry.
func EditWorkExperience(c *fiber.Ctx) error {
	var req struct {
		UID            uint   `json:"uId"`
		WeID           uint   `json:"weId"`
		WorkExperience string `json:"workExperience"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.WorkExperience == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing work experience"})
	}

	if err := userService.UpdateWorkExperience(req.UID, req.WeID, req.WorkExperience); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Work experience updated"})
}

// DeleteWorkExperience removes an entry.
func DeleteWorkExperience(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	weID := uint(c.QueryInt("weId"))

	if err := userService.DeleteWorkExperience(uID, weID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Work experience updated"})
}

// ================== PROFILE SHARING ==================

// ShareProfile grants another user visibility of the uId profile.
func ShareProfile(c *fiber.Ctx) error {
	var req struct {
		UID       uint `json:"uId"`
		ShareToID uint `json:"shareToId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := userService.Share(req.UID, req.ShareToID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Shared profile"})
}

// ShareProfileMulti grants visibility to a batch of users by email.
// Addresses that do not resolve are skipped.
func ShareProfileMulti(c *fiber.Ctx) error {
	var req struct {
		UID    uint     `json:"uId"`
		Emails []string `json:"emails"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := userService.ShareWithEmails(req.UID, req.Emails); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Shared profile to multiple users"})
}

// UnshareProfile revokes a grant.
func UnshareProfile(c *fiber.Ctx) error {
	var req struct {
		UID         uint `json:"uId"`
		UnshareToID uint `json:"unshareToId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := userService.Unshare(req.UID, req.UnshareToID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Unshared profile"})
}

// UnshareAll revokes every grant the uId user has made.
func UnshareAll(c *fiber.Ctx) error {
	var req struct {
		UID uint `json:"uId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := userService.UnshareAll(req.UID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Unshared profile from all users"})
}

// ================== COURSES ON THE PROFILE ==================

// AddCourseToUser puts a course offering on the uId profile.
func AddCourseToUser(c *fiber.Ctx) error {
	var req struct {
		UID  uint   `json:"uId"`
		Code string `json:"code"`
		Year string `json:"year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := courseService.Enrol(req.UID, req.Code, req.Year); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("Course %s offered in %s not found", req.Code, req.Year),
		})
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Course %s added", req.Code)})
}

// AddCoursesToUser puts several course offerings on the uId profile
// at once. All offerings must exist or nothing is added.
func AddCoursesToUser(c *fiber.Ctx) error {
	var req struct {
		UID     uint                      `json:"uId"`
		Courses []services.CourseOffering `json:"courses"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := courseService.EnrolMany(req.UID, req.Courses); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	codes := make([]string, 0, len(req.Courses))
	for _, o := range req.Courses {
		codes = append(codes, o.Code)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Courses added: %s", strings.Join(codes, " ")),
	})
}

// RemoveCourseFromUser takes a course code off the uId profile.
func RemoveCourseFromUser(c *fiber.Ctx) error {
	var req struct {
		UID  uint   `json:"uId"`
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	enrolled, err := courseService.EnrolledBy(req.UID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	found := false
	for _, course := range enrolled {
		if course.Code == req.Code {
			found = true
			break
		}
	}
	if !found {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("User has not added course %s", req.Code),
		})
	}

	if err := courseService.Unenrol(req.UID, req.Code); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Course %s removed", req.Code)})
}

// ================== GROUP STATE FROM THE USER SIDE ==================

// GetUserInvites lists the groups that have invited the uId user.
func GetUserInvites(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	groups, err := groupService.InvitesOfUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"invites": groupListItems(groups)})
}

// GetUserRequests lists the groups the uId user asked to join.
func GetUserRequests(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	groups, err := groupService.RequestsOfUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"requests": groupListItems(groups)})
}

// GetUserGroups lists the groups the uId user is a member of.
func GetUserGroups(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	groups, err := groupService.GroupsOfUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": groupListItems(groups)})
}

// UserVisualSummary returns the uId user's derived skills for the
// profile word cloud.
func UserVisualSummary(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	user, err := userService.Get(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "No User found"})
	}
	return c.JSON(fiber.Map{"summary": models.DecodeStringList(user.Skills)})
}

// UserProjectSkillGap lists the project requirements the uId user's
// background does not cover.
func UserProjectSkillGap(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	pID := uint(c.QueryInt("pId"))

	requirements, err := recommendService.UserProjectSkillGap(uID, pID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"requirements": requirements})
}
