// handlers/groups.go - Group Lifecycle Endpoints
package handlers

import (
	"unimatch/middleware"
	"unimatch/models"

	"github.com/gofiber/fiber/v2"
)

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Size        int    `json:"size"`
}

type GroupUserRequest struct {
	GID uint `json:"gId"`
	UID uint `json:"uId"`
}

type GroupProjectRequest struct {
	GID uint `json:"gId"`
	PID uint `json:"pId"`
}

// CreateGroup makes a new group with the caller as sole member.
func CreateGroup(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := groupService.Create(auth.ID, req.Name, req.Description, req.Size)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Created group " + group.Name})
}

// GetGroup returns one group with members resolved through the
// visibility rules.
func GetGroup(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	gID := uint(c.QueryInt("gId"))
	group, err := groupService.GetByID(gID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	members := make([]models.UserSummary, 0)
	for _, m := range group.Memberships {
		if m.State != models.StateMember || m.User == nil {
			continue
		}
		visible, err := userService.IsVisibleTo(auth.ID, auth.Type, m.UserID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if visible {
			members = append(members, m.User.Summary(false))
		} else {
			members = append(members, models.AnonymousUser)
		}
	}

	view := fiber.Map{
		"name":        group.Name,
		"description": group.Description,
		"members":     members,
		"size":        group.Size,
		"coverPhoto":  group.CoverPhoto,
		"skills":      models.DecodeStringList(group.Skills),
		"project":     projectRef(group.ProjectID),
	}
	return c.JSON(fiber.Map{"group": view})
}

// JoinGroup adds the uId user directly to the group.
func JoinGroup(c *fiber.Ctx) error {
	var req GroupUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	name, err := groupService.Join(req.GID, req.UID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Joined group " + name})
}

// LeaveGroup removes the uId user from the group.
func LeaveGroup(c *fiber.Ctx) error {
	var req GroupUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	name, _, err := groupService.Leave(req.GID, req.UID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Left group " + name})
}

// UpdateGroupName renames the group.
func UpdateGroupName(c *fiber.Ctx) error {
	var req struct {
		GID  uint   `json:"gId"`
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing name"})
	}

	if err := groupService.UpdateName(req.GID, req.Name); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Group name updated"})
}

// UpdateGroupDescription rewrites the group description.
func UpdateGroupDescription(c *fiber.Ctx) error {
	var req struct {
		GID         uint   `json:"gId"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Description == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing description"})
	}

	if err := groupService.UpdateDescription(req.GID, req.Description); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Group description updated"})
}

// UpdateGroupSize changes the group capacity.
func UpdateGroupSize(c *fiber.Ctx) error {
	var req struct {
		GID  uint `json:"gId"`
		Size int  `json:"size"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Missing size"})
	}

	if err := groupService.UpdateSize(req.GID, req.Size); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Group size updated"})
}

// SetGroupCoverPhoto stores the cover photo URL.
func SetGroupCoverPhoto(c *fiber.Ctx) error {
	var req struct {
		GID      uint   `json:"gId"`
		ImageURL string `json:"imageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ImageURL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing fields"})
	}

	if err := groupService.SetCoverPhoto(req.GID, req.ImageURL); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"imagePath": req.ImageURL})
}

// JoinProject attaches a fully staffed group to a project.
func JoinProject(c *fiber.Ctx) error {
	var req GroupProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := groupService.JoinProject(req.GID, req.PID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project joined by group"})
}

// InviteToGroup invites a user, promoting them straight to member when
// they had already requested to join.
func InviteToGroup(c *fiber.Ctx) error {
	var req GroupUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	joined, err := groupService.Invite(req.GID, req.UID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if joined {
		return c.JSON(fiber.Map{"message": "User joined group"})
	}
	return c.JSON(fiber.Map{"message": "User invited to group"})
}

// UninviteFromGroup withdraws an invite.
func UninviteFromGroup(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	uID := uint(c.QueryInt("uId"))

	if err := groupService.Uninvite(gID, uID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "User uninvited from group"})
}

// RejectGroupRequest declines a pending join request.
func RejectGroupRequest(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	uID := uint(c.QueryInt("uId"))

	if err := groupService.RejectRequest(gID, uID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "User request rejected"})
}

// GetGroupInvites lists the users the group has invited.
func GetGroupInvites(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	users, err := groupService.Invites(gID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"invites": userSummaries(users, true)})
}

// GetGroupRequests lists the users who asked to join the group.
func GetGroupRequests(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	users, err := groupService.Requests(gID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"requests": userSummaries(users, true)})
}

// AcceptInvite turns the uId user's invite into membership.
func AcceptInvite(c *fiber.Ctx) error {
	var req GroupUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := groupService.AcceptInvite(req.GID, req.UID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Invite accepted"})
}

// RejectInvite declines the uId user's invite.
func RejectInvite(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	uID := uint(c.QueryInt("uId"))

	if err := groupService.RejectInvite(gID, uID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Invite rejected"})
}

// RequestToJoin records a join request, promoting straight to member
// when the user already held an invite.
func RequestToJoin(c *fiber.Ctx) error {
	var req GroupUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	joined, err := groupService.Request(req.GID, req.UID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if joined {
		return c.JSON(fiber.Map{"message": "User joined group"})
	}
	return c.JSON(fiber.Map{"message": "User requested to join group"})
}

// CancelRequest withdraws the uId user's own join request.
func CancelRequest(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	uID := uint(c.QueryInt("uId"))

	if err := groupService.CancelRequest(gID, uID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "User cancelled request to join group"})
}

// GetAllGroups lists every group.
func GetAllGroups(c *fiber.Ctx) error {
	groups, err := groupService.All()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": groupListItems(groups)})
}

// GetGroupsByProject lists the groups attached to a project.
func GetGroupsByProject(c *fiber.Ctx) error {
	pID := uint(c.QueryInt("pId"))
	groups, err := groupService.ByProject(pID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": groupListItems(groups)})
}

// GetRecruitingGroups lists the caller's groups that still have room
// and have not already invited the uId user.
func GetRecruitingGroups(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	uID := uint(c.QueryInt("uId"))
	groups, err := groupService.Recruiting(auth.ID, uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": groupListItems(groups)})
}

// DeleteGroup removes the group outright.
func DeleteGroup(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	if err := groupService.Delete(gID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Group deleted"})
}

// GroupProjectSkillGap lists the project requirements the group's
// pooled background does not cover.
func GroupProjectSkillGap(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	pID := uint(c.QueryInt("pId"))

	requirements, err := recommendService.GroupProjectSkillGap(gID, pID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"requirements": requirements})
}

// ================== VIEW HELPERS ==================

func projectRef(projectID *uint) interface{} {
	if projectID == nil {
		return nil
	}
	return fiber.Map{"id": *projectID}
}

func userSummaries(users []models.User, includeEmail bool) []models.UserSummary {
	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary(includeEmail))
	}
	return summaries
}

func groupListItems(groups []models.Group) []fiber.Map {
	items := make([]fiber.Map, 0, len(groups))
	for _, g := range groups {
		members := make([]fiber.Map, 0)
		for _, m := range g.Memberships {
			if m.State == models.StateMember {
				members = append(members, fiber.Map{"id": m.UserID})
			}
		}
		items = append(items, fiber.Map{
			"id":          g.ID,
			"name":        g.Name,
			"description": g.Description,
			"members":     members,
			"size":        g.Size,
			"coverPhoto":  g.CoverPhoto,
			"project":     projectRef(g.ProjectID),
		})
	}
	return items
}
