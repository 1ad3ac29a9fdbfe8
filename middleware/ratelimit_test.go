package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	bucket := NewTokenBucket(3, 100) // fast refill so the test stays quick

	for i := 0; i < 3; i++ {
		if !bucket.Allow() {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if bucket.Allow() {
		t.Error("bucket should be empty")
	}

	time.Sleep(20 * time.Millisecond)
	if !bucket.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	limiter := NewRateLimiter(1, 3600)

	if !limiter.Allow("1.1.1.1") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("1.1.1.1") {
		t.Error("second request from same key should be limited")
	}
	if !limiter.Allow("2.2.2.2") {
		t.Error("other keys should have their own bucket")
	}
}

func TestAuthRateLimitMiddleware(t *testing.T) {
	// Swap in a tight limiter so the default env config does not apply.
	old := authLimiter
	authLimiter = NewRateLimiter(2, 3600)
	defer func() { authLimiter = old }()

	app := fiber.New()
	app.Use(AuthRateLimitMiddleware())
	app.Post("/login", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "ok"})
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("request %d: status = %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
}
