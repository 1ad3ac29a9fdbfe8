// services/cleanup.go - Background Account Hygiene
package services

import (
	"log"
	"time"

	"unimatch/models"

	"gorm.io/gorm"
)

// unverifiedTTL is how long an account may stay unverified before it
// is purged.
const unverifiedTTL = 7 * 24 * time.Hour

// CleanupService periodically purges stale unverified accounts and
// expired password reset tokens.
type CleanupService struct {
	db   *gorm.DB
	stop chan struct{}
	done chan struct{}
}

func NewCleanupService(db *gorm.DB) *CleanupService {
	return &CleanupService{
		db:   db,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the hourly cleanup loop.
func (s *CleanupService) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunOnce()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop shuts the loop down and waits for it to exit.
func (s *CleanupService) Stop() {
	close(s.stop)
	<-s.done
}

// RunOnce performs a single cleanup pass.
func (s *CleanupService) RunOnce() {
	if err := s.purgeUnverified(); err != nil {
		log.Printf("Unverified account cleanup failed: %v", err)
	}
	if err := s.expireResetTokens(); err != nil {
		log.Printf("Reset token cleanup failed: %v", err)
	}
}

func (s *CleanupService) purgeUnverified() error {
	cutoff := time.Now().Add(-unverifiedTTL)
	res := s.db.Where("verified = ? AND created_at < ?", false, cutoff).
		Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("Purged %d stale unverified accounts", res.RowsAffected)
	}
	return nil
}

func (s *CleanupService) expireResetTokens() error {
	return s.db.Model(&models.User{}).
		Where("reset_token <> '' AND reset_expiry < ?", time.Now()).
		Updates(map[string]interface{}{
			"reset_token":  "",
			"reset_expiry": nil,
		}).Error
}
