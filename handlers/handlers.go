// handlers/handlers.go - Handler Wiring
package handlers

import (
	"unimatch/database"
	"unimatch/services"
)

var (
	userService      *services.UserService
	groupService     *services.GroupService
	projectService   *services.ProjectService
	courseService    *services.CourseService
	skillService     *services.SkillService
	recommendService *services.RecommendService
	cleanupService   *services.CleanupService
)

// Init wires the service graph and starts the background workers.
// Call after database.InitDB.
func Init() {
	db := database.GetDB()

	skillService = services.NewSkillService(db, services.NewPythonExtractor())
	userService = services.NewUserService(db, skillService)
	groupService = services.NewGroupService(db, skillService)
	projectService = services.NewProjectService(db)
	courseService = services.NewCourseService(db, skillService)
	recommendService = services.NewRecommendService(db, skillService,
		services.NewUserRecommender(),
		services.NewGroupRecommender(),
		services.NewProjectRecommender(),
		services.NewGapAnalyzer())
	cleanupService = services.NewCleanupService(db)

	skillService.Start()
	cleanupService.Start()
}

// Shutdown stops the background workers.
func Shutdown() {
	if skillService != nil {
		skillService.Stop()
	}
	if cleanupService != nil {
		cleanupService.Stop()
	}
}
