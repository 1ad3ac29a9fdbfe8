package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unimatch/database"
	"unimatch/handlers"
	"unimatch/middleware"
	"unimatch/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	database.InitDB()
	database.RunMigrations()

	handlers.Init()
	defer handlers.Shutdown()

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3001"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Use(middleware.RateLimitMiddleware())

	registerRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	// Drain the skill worker before exiting on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

func registerRoutes(app *fiber.App) {
	auth := middleware.AuthMiddleware

	// Auth routes with stricter rate limiting
	authGroup := app.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/register", handlers.Register)
	authGroup.Get("/register/verify/:token", handlers.RegisterVerify)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/logout", auth, handlers.Logout)
	authGroup.Post("/passwordreset/request", handlers.PasswordResetSend)
	authGroup.Post("/passwordreset/:token", handlers.PasswordReset)

	// Profiles
	app.Get("/user/profile", auth, handlers.GetProfile)
	app.Get("/users/profiles", auth, handlers.GetProfiles)
	app.Get("/users/profiles/public", auth, handlers.GetPublicProfiles)
	app.Get("/users/profiles/shared", auth, middleware.RequireSelfOrAdmin, handlers.GetSharedProfiles)
	app.Get("/users/profiles/visible", auth, handlers.GetVisibleProfiles)
	app.Put("/user/setname", auth, middleware.RequireSelfOrAdmin, handlers.SetName)
	app.Put("/user/setemail", auth, middleware.RequireSelfOrAdmin, handlers.SetEmail)
	app.Put("/user/setpassword", auth, middleware.RequireSelfOrAdmin, handlers.SetPassword)
	app.Put("/user/setphone", auth, middleware.RequireSelfOrAdmin, handlers.SetPhone)
	app.Put("/user/setschool", auth, middleware.RequireSelfOrAdmin, handlers.SetSchool)
	app.Put("/user/setdegree", auth, middleware.RequireSelfOrAdmin, handlers.SetDegree)
	app.Put("/user/setdetails", auth, middleware.RequireSelfOrAdmin, handlers.SetDetails)
	app.Put("/user/settype", auth,
		middleware.RequireRole(models.TypeAdmin, models.TypeAcademicAdmin), handlers.SetType)
	app.Put("/user/setavatar", auth, middleware.RequireSelfOrAdmin, handlers.SetAvatar)
	app.Delete("/user", auth, middleware.RequireSelfOrAdmin, handlers.DeleteUser)
	app.Get("/user/ispublic", auth, middleware.RequireSelfOrAdmin, handlers.IsPublic)
	app.Put("/user/togglevisibility", auth, middleware.RequireSelfOrAdmin, handlers.ToggleVisibility)
	app.Get("/user/isshared", auth, handlers.IsShared)

	// Work experience
	app.Post("/user/workexperience", auth, middleware.RequireSelfOrAdmin, handlers.AddWorkExperience)
	app.Put("/user/workexperience", auth, middleware.RequireSelfOrAdmin, handlers.EditWorkExperience)
	app.Delete("/user/workexperience", auth, middleware.RequireSelfOrAdmin, handlers.DeleteWorkExperience)

	// Profile sharing
	app.Put("/user/shareprofile", auth, middleware.RequireSelfOrAdmin, handlers.ShareProfile)
	app.Put("/user/shareprofile/multi", auth, middleware.RequireSelfOrAdmin, handlers.ShareProfileMulti)
	app.Put("/user/unshareprofile", auth, middleware.RequireSelfOrAdmin, handlers.UnshareProfile)
	app.Put("/user/unshareall", auth, middleware.RequireSelfOrAdmin, handlers.UnshareAll)

	// Courses on the profile
	app.Post("/user/addcourse", auth, middleware.RequireSelfOrAdmin, handlers.AddCourseToUser)
	app.Post("/user/addcourse/multiple", auth, middleware.RequireSelfOrAdmin, handlers.AddCoursesToUser)
	app.Post("/user/removecourse", auth, middleware.RequireSelfOrAdmin, handlers.RemoveCourseFromUser)

	// Course catalogue
	app.Post("/academic/addcourse", auth,
		middleware.RequireRole(models.TypeAcademic, models.TypeAcademicAdmin), handlers.AddCourse)
	app.Get("/course", auth, handlers.GetCourse)
	app.Get("/course/summary/visual", auth, handlers.CourseVisualSummary)
	app.Get("/courses/all", auth, handlers.GetAllCourses)
	app.Get("/courses/owned", auth, middleware.RequireSelfOrAdmin, handlers.GetOwnedCourses)
	app.Get("/courses/enrolled", auth, middleware.RequireSelfOrAdmin, handlers.GetEnrolledCourses)
	app.Delete("/course", auth, middleware.RequireCourseOwner, handlers.DeleteCourse)

	// Projects
	app.Post("/project/add", auth,
		middleware.RequireRole(models.TypeAcademic, models.TypeAcademicAdmin), handlers.AddProject)
	app.Get("/project", auth, handlers.GetProject)
	app.Get("/projects/all", auth, handlers.GetAllProjects)
	app.Get("/projects/owned", auth, middleware.RequireSelfOrAdmin, handlers.GetOwnedProjects)
	app.Put("/project/settitle", auth, middleware.RequireProjectOwner, handlers.SetProjectTitle)
	app.Put("/project/setdescription", auth, middleware.RequireProjectOwner, handlers.SetProjectDescription)
	app.Put("/project/setscope", auth, middleware.RequireProjectOwner, handlers.SetProjectScope)
	app.Put("/project/settopics", auth, middleware.RequireProjectOwner, handlers.SetProjectTopics)
	app.Put("/project/setrequiredskills", auth, middleware.RequireProjectOwner, handlers.SetProjectRequiredSkills)
	app.Put("/project/setoutcomes", auth, middleware.RequireProjectOwner, handlers.SetProjectOutcomes)
	app.Put("/project/setcoverphoto", auth, middleware.RequireProjectOwner, handlers.SetProjectCoverPhoto)
	app.Put("/project/setgroupsizes", auth, middleware.RequireProjectOwner, handlers.SetProjectGroupSizes)
	app.Put("/project/setmaxgroupcount", auth, middleware.RequireProjectOwner, handlers.SetProjectMaxGroupCount)
	app.Delete("/project", auth, middleware.RequireProjectOwner, handlers.DeleteProject)
	app.Get("/project/joinablegroups", auth, middleware.RequireProjectOwner, handlers.GetProjectJoinableGroups)
	app.Get("/project/userjoinablegroups", auth, middleware.RequireSelfOrAdmin, handlers.GetUserJoinableGroups)

	// Groups
	app.Post("/group/create", auth, handlers.CreateGroup)
	app.Get("/group", auth, handlers.GetGroup)
	app.Get("/groups/all", auth, handlers.GetAllGroups)
	app.Get("/groups/byproject", auth, handlers.GetGroupsByProject)
	app.Get("/groups/recruiting", auth, handlers.GetRecruitingGroups)
	app.Post("/group/join", auth, middleware.RequireSelfOrAdmin, handlers.JoinGroup)
	app.Post("/group/leave", auth, middleware.RequireSelfOrAdmin, handlers.LeaveGroup)
	app.Put("/group/updatename", auth, middleware.RequireGroupMember, handlers.UpdateGroupName)
	app.Put("/group/updatedescription", auth, middleware.RequireGroupMember, handlers.UpdateGroupDescription)
	app.Put("/group/updatesize", auth, middleware.RequireGroupMember, handlers.UpdateGroupSize)
	app.Put("/group/setcoverphoto", auth, middleware.RequireGroupMember, handlers.SetGroupCoverPhoto)
	app.Post("/group/joinproject", auth, middleware.RequireGroupMember, handlers.JoinProject)
	app.Delete("/group", auth, middleware.RequireGroupMember, handlers.DeleteGroup)

	// Invites and requests
	app.Post("/group/invite", auth, middleware.RequireGroupMember, handlers.InviteToGroup)
	app.Delete("/group/uninvite", auth, middleware.RequireGroupMember, handlers.UninviteFromGroup)
	app.Delete("/group/request/reject", auth, middleware.RequireGroupMember, handlers.RejectGroupRequest)
	app.Get("/group/invites", auth, middleware.RequireGroupMember, handlers.GetGroupInvites)
	app.Get("/group/requests", auth, middleware.RequireGroupMember, handlers.GetGroupRequests)
	app.Post("/user/invite/accept", auth, middleware.RequireSelfOrAdmin, handlers.AcceptInvite)
	app.Delete("/user/invite/reject", auth, middleware.RequireSelfOrAdmin, handlers.RejectInvite)
	app.Post("/user/request", auth, middleware.RequireSelfOrAdmin, handlers.RequestToJoin)
	app.Delete("/user/unrequest", auth, middleware.RequireSelfOrAdmin, handlers.CancelRequest)
	app.Get("/user/invites", auth, middleware.RequireSelfOrAdmin, handlers.GetUserInvites)
	app.Get("/user/requests", auth, middleware.RequireSelfOrAdmin, handlers.GetUserRequests)
	app.Get("/user/groups", auth, handlers.GetUserGroups)
	app.Get("/user/summary/visual", auth, handlers.UserVisualSummary)

	// Recommendations and skill gaps
	app.Get("/user/recommendedusers", auth, middleware.RequireSelfOrAdmin, handlers.RecommendUsersToUser)
	app.Get("/user/recommendedgroups", auth, middleware.RequireSelfOrAdmin, handlers.RecommendGroupsToUser)
	app.Get("/user/recommendedprojects", auth, middleware.RequireSelfOrAdmin, handlers.RecommendProjectsToUser)
	app.Get("/group/recommendedusers", auth, middleware.RequireGroupMember, handlers.RecommendUsersToGroup)
	app.Get("/group/recommendedprojects", auth, middleware.RequireGroupMember, handlers.RecommendProjectsToGroup)
	app.Get("/user/project/skillgap", auth, middleware.RequireSelfOrAdmin, handlers.UserProjectSkillGap)
	app.Get("/group/project/skillgap", auth, middleware.RequireGroupMember, handlers.GroupProjectSkillGap)
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
