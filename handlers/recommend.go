// handlers/recommend.go - Recommendation Endpoints
package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RecommendUsersToUser ranks other users against the uId user.
func RecommendUsersToUser(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	users, err := recommendService.UsersForUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"users": userSummaries(users, false)})
}

// RecommendUsersToGroup ranks non-members against the gId group.
func RecommendUsersToGroup(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	users, err := recommendService.UsersForGroup(gID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"users": userSummaries(users, false)})
}

// RecommendGroupsToUser ranks joinable groups against the uId user.
func RecommendGroupsToUser(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	groups, err := recommendService.GroupsForUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": groupListItems(groups)})
}

// RecommendProjectsToUser ranks projects against the uId user.
func RecommendProjectsToUser(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	projects, err := recommendService.ProjectsForUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projectViews(projects)})
}

// RecommendProjectsToGroup ranks size-compatible projects against the
// gId group.
func RecommendProjectsToGroup(c *fiber.Ctx) error {
	gID := uint(c.QueryInt("gId"))
	projects, err := recommendService.ProjectsForGroup(gID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projectViews(projects)})
}
