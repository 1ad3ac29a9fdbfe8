// handlers/courses.go - Course Catalogue Endpoints
package handlers

import (
	"unimatch/middleware"
	"unimatch/models"

	"github.com/gofiber/fiber/v2"
)

type AddCourseRequest struct {
	Code    string `json:"code"`
	Year    string `json:"year"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// AddCourse puts a course in the catalogue, owned by the caller.
// Title and summary are supplied directly.
func AddCourse(c *fiber.Ctx) error {
	auth, err := middleware.GetAuthUser(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "User not authenticated"})
	}

	var req AddCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	course, err := courseService.Add(auth.ID, req.Code, req.Year, req.Title, req.Summary)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Added course " + course.Code, "course": course})
}

// GetCourse returns one offering.
func GetCourse(c *fiber.Ctx) error {
	code := c.Query("code")
	year := c.Query("year")

	course, err := courseService.Get(code, year)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"course": course})
}

// GetAllCourses lists the whole catalogue.
func GetAllCourses(c *fiber.Ctx) error {
	courses, err := courseService.All()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"courses": courseList(courses)})
}

// GetOwnedCourses lists the caller's courses.
func GetOwnedCourses(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	courses, err := courseService.OwnedBy(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"courses": courseList(courses)})
}

// GetEnrolledCourses lists the courses on the uId profile.
func GetEnrolledCourses(c *fiber.Ctx) error {
	uID := uint(c.QueryInt("uId"))
	courses, err := courseService.EnrolledBy(uID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"courses": courseList(courses)})
}

// DeleteCourse removes a course from the catalogue and every profile.
func DeleteCourse(c *fiber.Ctx) error {
	code := c.Query("code")
	year := c.Query("year")

	if err := courseService.Delete(code, year); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Course deleted"})
}

// CourseVisualSummary extracts a keyword cloud from one course
// offering's title and summary.
func CourseVisualSummary(c *fiber.Ctx) error {
	code := c.Query("code")
	year := c.Query("year")

	keywords, err := skillService.CourseKeywords(code, year)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"summary": keywords})
}

func courseList(courses []models.Course) []models.Course {
	if courses == nil {
		return []models.Course{}
	}
	return courses
}
