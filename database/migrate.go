// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"unimatch/models"

	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	if err := Migrate(GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("All migrations completed")
}

// Migrate creates all application tables on the given connection.
// Split out from RunMigrations so tests can migrate an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.WorkExperience{},
		&models.SharedProfile{},
		&models.Course{},
		&models.Project{},
		&models.Group{},
		&models.GroupMembership{},
	); err != nil {
		return err
	}

	createIndexes(db)
	return nil
}

// createIndexes creates supplementary indexes
func createIndexes(db *gorm.DB) {
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_type ON users(type)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_public ON users(public)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_memberships_user_state ON group_memberships(user_id, state)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_memberships_group_state ON group_memberships(group_id, state)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_groups_project ON groups(project_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_courses_owner ON courses(owner_id)")
}
