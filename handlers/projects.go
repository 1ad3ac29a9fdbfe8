// handlers/projects.go - Project Endpoints
package handlers

import (
	"unimatch/middleware"
	"unimatch/models"
	"unimatch/services"

	"github.com/gofiber/fiber/v2"
)

type AddProjectRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Scope          string   `json:"scope"`
	Topics         []string `json:"topics"`
	RequiredSkills []string `json:"requiredSkills"`
	Outcomes       []string `json:"outcomes"`
	MinGroupSize   *int     `json:"minGroupSize"`
	MaxGroupSize   *int     `json:"maxGroupSize"`
	MaxGroupCount  *int     `json:"maxGroupCount"`
}

// AddProject publishes a new project owned by the caller.
func AddProject(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	var req AddProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Missing required fields"})
	}

	project, err := projectService.Create(auth.ID, services.ProjectInput{
		Title:          req.Title,
		Description:    req.Description,
		Scope:          req.Scope,
		Topics:         req.Topics,
		RequiredSkills: req.RequiredSkills,
		Outcomes:       req.Outcomes,
		MinGroupSize:   req.MinGroupSize,
		MaxGroupSize:   req.MaxGroupSize,
		MaxGroupCount:  req.MaxGroupCount,
	})
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Created project " + project.Title, "pId": project.ID})
}

// GetProject returns one project.
func GetProject(c *fiber.Ctx) error {
	pID := uint(c.QueryInt("pId"))
	if pID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Missing project id"})
	}

	project, err := projectService.Get(pID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"project": projectView(project)})
}

// GetAllProjects lists every project.
func GetAllProjects(c *fiber.Ctx) error {
	projects, err := projectService.All()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projectViews(projects)})
}

// GetOwnedProjects lists the caller's projects.
func GetOwnedProjects(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	projects, err := projectService.OwnedBy(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projectViews(projects)})
}

// SetProjectTitle updates the title.
func SetProjectTitle(c *fiber.Ctx) error {
	var req struct {
		PID   uint   `json:"pId"`
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetTitle(req.PID, req.Title); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project title updated"})
}

// SetProjectDescription updates the description.
func SetProjectDescription(c *fiber.Ctx) error {
	var req struct {
		PID         uint   `json:"pId"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetDescription(req.PID, req.Description); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project description updated"})
}

// SetProjectScope updates the scope.
func SetProjectScope(c *fiber.Ctx) error {
	var req struct {
		PID   uint   `json:"pId"`
		Scope string `json:"scope"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetScope(req.PID, req.Scope); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project scope updated"})
}

// SetProjectTopics replaces the topic list.
func SetProjectTopics(c *fiber.Ctx) error {
	var req struct {
		PID    uint     `json:"pId"`
		Topics []string `json:"topics"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetTopics(req.PID, req.Topics); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project topics updated"})
}

// SetProjectRequiredSkills replaces the required skill list.
func SetProjectRequiredSkills(c *fiber.Ctx) error {
	var req struct {
		PID            uint     `json:"pId"`
		RequiredSkills []string `json:"requiredSkills"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetRequiredSkills(req.PID, req.RequiredSkills); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project required skills updated"})
}

// SetProjectOutcomes replaces the outcome list.
func SetProjectOutcomes(c *fiber.Ctx) error {
	var req struct {
		PID      uint     `json:"pId"`
		Outcomes []string `json:"outcomes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetOutcomes(req.PID, req.Outcomes); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project outcomes updated"})
}

// SetProjectCoverPhoto stores the cover photo URL.
func SetProjectCoverPhoto(c *fiber.Ctx) error {
	var req struct {
		PID      uint   `json:"pId"`
		ImageURL string `json:"imageUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ImageURL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Missing fields"})
	}

	if err := projectService.SetCoverPhoto(req.PID, req.ImageURL); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"imagePath": req.ImageURL})
}

// SetProjectGroupSizes updates min and max group size together.
func SetProjectGroupSizes(c *fiber.Ctx) error {
	var req struct {
		PID          uint `json:"pId"`
		MinGroupSize *int `json:"minGroupSize"`
		MaxGroupSize *int `json:"maxGroupSize"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetGroupSizes(req.PID, req.MinGroupSize, req.MaxGroupSize); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project group sizes updated"})
}

// SetProjectMaxGroupCount updates the cap on groups per project.
func SetProjectMaxGroupCount(c *fiber.Ctx) error {
	var req struct {
		PID           uint `json:"pId"`
		MaxGroupCount *int `json:"maxGroupCount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := projectService.SetMaxGroupCount(req.PID, req.MaxGroupCount); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project max group count updated"})
}

// DeleteProject removes the project and detaches its groups.
func DeleteProject(c *fiber.Ctx) error {
	pID := uint(c.QueryInt("pId"))
	if err := projectService.Delete(pID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// GetProjectJoinableGroups lists the fully staffed, size-compatible
// groups for the pId project.
func GetProjectJoinableGroups(c *fiber.Ctx) error {
	pID := uint(c.QueryInt("pId"))
	project, err := projectService.Get(pID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	groups, err := groupService.All()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": joinableGroups(project, groups)})
}

// GetUserJoinableGroups filters to the uId user's own groups.
func GetUserJoinableGroups(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	pID := uint(c.QueryInt("pId"))

	project, err := projectService.Get(pID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	groups, err := groupService.GroupsOfUser(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"groups": joinableGroups(project, groups)})
}

// ================== VIEW HELPERS ==================

func projectView(p *models.Project) fiber.Map {
	groups := make([]fiber.Map, 0, len(p.Groups))
	for _, g := range p.Groups {
		groups = append(groups, fiber.Map{"id": g.ID, "name": g.Name})
	}
	return fiber.Map{
		"id":             p.ID,
		"ownerId":        p.OwnerID,
		"title":          p.Title,
		"description":    p.Description,
		"scope":          p.Scope,
		"coverPhoto":     p.CoverPhoto,
		"topics":         models.DecodeStringList(p.Topics),
		"requiredSkills": models.DecodeStringList(p.RequiredSkills),
		"outcomes":       models.DecodeStringList(p.Outcomes),
		"minGroupSize":   p.MinGroupSize,
		"maxGroupSize":   p.MaxGroupSize,
		"maxGroupCount":  p.MaxGroupCount,
		"groups":         groups,
	}
}

func projectViews(projects []models.Project) []fiber.Map {
	views := make([]fiber.Map, 0, len(projects))
	for i := range projects {
		views = append(views, projectView(&projects[i]))
	}
	return views
}

// joinableGroups keeps the groups that are exactly full and within the
// project's size bounds.
func joinableGroups(project *models.Project, groups []models.Group) []fiber.Map {
	result := make([]fiber.Map, 0)
	for _, g := range groups {
		memberCount := 0
		for _, m := range g.Memberships {
			if m.State == models.StateMember {
				memberCount++
			}
		}
		if memberCount != g.Size {
			continue
		}
		if project.MinGroupSize != nil && g.Size < *project.MinGroupSize {
			continue
		}
		if project.MaxGroupSize != nil && g.Size > *project.MaxGroupSize {
			continue
		}
		result = append(result, fiber.Map{
			"id":         g.ID,
			"name":       g.Name,
			"coverPhoto": g.CoverPhoto,
		})
	}
	return result
}
