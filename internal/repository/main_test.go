package repository

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"

	"kforum/internal/database"
	"kforum/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		log.Printf("Repository tests skipped: in-memory database unavailable: %v", err)
		os.Exit(0)
	}

	if err := database.Migrate(testDB); err != nil {
		log.Printf("Repository tests skipped: migration failed: %v", err)
		os.Exit(0)
	}

	os.Exit(m.Run())
}

var userSeq atomic.Uint64

// newTestUser inserts a user with unique email and student ID.
func newTestUser(t *testing.T) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	user := &models.User{
		Name:      fmt.Sprintf("Test User %d", n),
		Email:     fmt.Sprintf("user%d@kiit.ac.in", n),
		Password:  "hashed-password",
		StudentID: fmt.Sprintf("21%06d", n),
		Year:      3,
		Branch:    "CSE",
	}
	if err := testDB.Create(user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

// newTestPost inserts a post owned by the given user.
func newTestPost(t *testing.T, userID uint) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:            "Test post",
		Content:          "Some content",
		Category:         models.CategoryGeneral,
		UserID:           userID,
		ModerationStatus: models.ModerationApproved,
	}
	if err := testDB.Create(post).Error; err != nil {
		t.Fatalf("create test post: %v", err)
	}
	return post
}
