package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"kforum/internal/config"
	"kforum/internal/featureflags"
	"kforum/internal/mailer"
	"kforum/internal/models"
	"kforum/internal/moderation"
	"kforum/internal/repository"
	"kforum/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
		&models.Attachment{},
		&models.Report{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// fixedClassifier returns the same classification for every submission.
type fixedClassifier struct {
	result moderation.Classification
}

func (c *fixedClassifier) Classify(_ context.Context, _ string) moderation.Classification {
	return c.result
}

// discardSender swallows outbound mail so tests never touch SMTP.
type discardSender struct{}

func (discardSender) Send(_ context.Context, _ mailer.Message) error { return nil }

// newTestServer wires a Server over an in-memory database with a fixed
// classifier and no Redis. Realtime delivery is off (nil publisher).
func newTestServer(t *testing.T, db *gorm.DB, classifier moderation.Classifier) *Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:           "test_secret",
		AllowedEmailDomains: "college.edu",
		FeatureFlags:        "attachments=on,anonymous_posts=on,realtime_feed=on",
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	if classifier == nil {
		classifier = &fixedClassifier{result: moderation.Safe}
	}
	guard := moderation.NewGuard(classifier)

	s := &Server{
		config:         cfg,
		db:             db,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.userService = service.NewUserService(userRepo)
	s.moderationService = service.NewModerationService(userRepo, postRepo, guard)
	s.attachService = service.NewAttachmentService(attachmentRepo, cfg)
	s.postService = service.NewPostService(
		postRepo, attachmentRepo, s.moderationService, nil, s.userService.IsStaff)
	s.commentService = service.NewCommentService(
		commentRepo, postRepo, s.moderationService, nil, s.userService.IsStaff)
	s.mailQueue = mailer.NewQueue(discardSender{}, 16, 1)
	t.Cleanup(s.mailQueue.Close)

	return s
}

// createTestUser inserts a verified user with the given role and a bcrypt
// hash of "Password123!@#".
func createTestUser(t *testing.T, db *gorm.DB, name, email, studentID, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!@#"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Name:       name,
		Email:      email,
		Password:   string(hash),
		StudentID:  studentID,
		Year:       2,
		Branch:     "CSE",
		Role:       role,
		IsVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// asUser wraps a handler so it runs with the given user already
// authenticated, mirroring what the auth middleware sets.
func asUser(userID uint, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return h(c)
	}
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Get("/health/ready", s.ReadinessCheck)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Checks struct {
			Database string `json:"database"`
			Redis    string `json:"redis"`
		} `json:"checks"`
	}
	decodeBody(t, resp, &body)

	if body.Status != "healthy" {
		t.Errorf("expected healthy, got %q", body.Status)
	}
	if body.Checks.Database != "healthy" {
		t.Errorf("expected database healthy, got %q", body.Checks.Database)
	}
	// A missing Redis client degrades features but never fails readiness.
	if body.Checks.Redis != "unavailable" {
		t.Errorf("expected redis unavailable, got %q", body.Checks.Redis)
	}
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Get("/health/live", s.LivenessCheck)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
