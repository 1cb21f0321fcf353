// Package seed provides helpers to create development and demo data for the
// forum database. Not intended for production use.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"kforum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	r    *rand.Rand
	opts Options
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for seeding
	return &Factory{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano())), opts: opts}
}

var branches = []string{"CSE", "ECE", "ME", "CE", "EE", "IT", "BT"}

// CreateUser constructs and persists a verified sample user. Overrides may
// modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := gofakeit.Name()
	user := &models.User{
		Name:       name,
		Email:      fmt.Sprintf("%s%d@college.edu", gofakeit.Username(), f.r.Intn(10000)),
		StudentID:  fmt.Sprintf("%09d", f.r.Intn(1000000000)),
		Year:       f.r.Intn(4) + 1,
		Branch:     branches[f.r.Intn(len(branches))],
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Role:       models.RoleStudent,
		IsVerified: true,
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashed)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample post for the given user, with a
// created_at spread over the recent past so feeds look lived-in.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	category := models.Categories[f.r.Intn(len(models.Categories))]

	post := &models.Post{
		Title:            gofakeit.Sentence(6),
		Content:          gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Category:         category,
		Tags:             f.randomTags(category),
		UserID:           user.ID,
		IsAnonymous:      category == models.CategoryRants && f.r.Float32() < 0.5,
		ModerationStatus: models.ModerationApproved,
		ViewCount:        f.r.Intn(500),
		CreatedAt: time.Now().
			Add(-time.Duration(f.r.Intn(maxDays)) * 24 * time.Hour).
			Add(-time.Duration(f.r.Intn(24)) * time.Hour),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (f *Factory) randomTags(category string) string {
	pool := map[string][]string{
		models.CategoryAcademics:   {"notes", "exams", "gpa", "assignments", "professors"},
		models.CategoryEvents:      {"fest", "workshop", "hackathon", "cultural"},
		models.CategoryRants:       {"mess", "hostel", "wifi", "attendance"},
		models.CategoryInternships: {"referral", "offcampus", "interview", "resume"},
		models.CategoryLostFound:   {"lost", "found", "library", "canteen"},
		models.CategoryClubs:       {"coding", "music", "drama", "robotics"},
		models.CategoryGeneral:     {"question", "discussion", "help"},
	}
	tags := pool[category]
	if len(tags) == 0 {
		return ""
	}
	n := f.r.Intn(3)
	if n == 0 {
		return ""
	}
	picked := tags[f.r.Intn(len(tags))]
	if n == 2 {
		second := tags[f.r.Intn(len(tags))]
		if second != picked {
			return picked + "," + second
		}
	}
	return picked
}

// CreateComment persists a sample comment on the post by the given user.
// Pass a parent to create a one-level reply.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content:          gofakeit.Sentence(10),
		UserID:           user.ID,
		PostID:           post.ID,
		ModerationStatus: models.ModerationApproved,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote persists a vote from the user on the post.
func (f *Factory) CreateVote(user *models.User, post *models.Post, direction string) error {
	return f.db.Create(&models.Vote{
		PostID:    post.ID,
		UserID:    user.ID,
		Direction: direction,
		CreatedAt: time.Now(),
	}).Error
}

// CreateReport persists an open report from the user against the post.
func (f *Factory) CreateReport(user *models.User, post *models.Post, reason string) error {
	return f.db.Create(&models.Report{
		PostID:     post.ID,
		ReporterID: user.ID,
		Reason:     reason,
		Status:     models.ReportStatusOpen,
	}).Error
}
