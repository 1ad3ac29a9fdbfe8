// Seeds a development database from a JSON course catalogue and
// creates the initial admin account.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"unimatch/database"
	"unimatch/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type JSONCourse struct {
	Code    string `json:"code"`
	Year    string `json:"year"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func main() {
	coursesPath := flag.String("courses", "./seed/courses.json", "path to the course catalogue JSON")
	sqlitePath := flag.String("sqlite", "", "seed a local sqlite file instead of the configured postgres database")
	adminEmail := flag.String("admin-email", "admin@unimatch.local", "email of the seeded admin account")
	adminPassword := flag.String("admin-password", "", "password of the seeded admin account (required)")
	flag.Parse()

	if *adminPassword == "" {
		log.Fatal("-admin-password is required")
	}

	var db *gorm.DB
	var err error
	if *sqlitePath != "" {
		db, err = gorm.Open(sqlite.Open(*sqlitePath), &gorm.Config{})
		if err != nil {
			log.Fatal("Failed to open sqlite database:", err)
		}
	} else {
		database.InitDB()
		db = database.GetDB()
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	admin, err := seedAdmin(db, *adminEmail, *adminPassword)
	if err != nil {
		log.Fatal("Failed to seed admin account:", err)
	}

	data, err := os.ReadFile(*coursesPath)
	if err != nil {
		log.Fatal("Failed to read course catalogue:", err)
	}

	var courses []JSONCourse
	if err := json.Unmarshal(data, &courses); err != nil {
		log.Fatal("Failed to parse course catalogue:", err)
	}

	fmt.Printf("Found %d courses\n", len(courses))

	created := 0
	for _, course := range courses {
		if course.Code == "" || course.Year == "" {
			log.Printf("Skipping course with missing code or year: %+v", course)
			continue
		}

		var count int64
		db.Model(&models.Course{}).
			Where("code = ? AND year = ?", course.Code, course.Year).
			Count(&count)
		if count > 0 {
			continue
		}

		if err := db.Create(&models.Course{
			OwnerID: admin.ID,
			Code:    course.Code,
			Year:    course.Year,
			Title:   course.Title,
			Summary: course.Summary,
		}).Error; err != nil {
			log.Printf("Failed to create %s %s: %v", course.Code, course.Year, err)
			continue
		}
		created++
	}

	fmt.Printf("Seeded %d new courses\n", created)
}

func seedAdmin(db *gorm.DB, email, password string) (*models.User, error) {
	var admin models.User
	if err := db.Where("email = ?", email).First(&admin).Error; err == nil {
		fmt.Printf("Admin account %s already exists\n", email)
		return &admin, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin = models.User{
		FirstName: "Site",
		LastName:  "Admin",
		Email:     email,
		PwHash:    string(hash),
		Type:      models.TypeAdmin,
		Skills:    "[]",
		Verified:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	fmt.Printf("Created admin account %s\n", email)
	return &admin, nil
}
