package seed

import (
	"fmt"
	"log"

	"kforum/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxDays     int
	ShouldClean bool
	// SkipBcrypt stores plaintext passwords; only for throwaway local DBs
	// where seeding thousands of users would otherwise dominate runtime.
	SkipBcrypt bool
}

// Seed populates the database with demo data: a staff trio, a population of
// verified students, posts across every category, comment threads, votes and
// a handful of open reports so the admin surface has something to show.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	staff, err := createStaffUsers(db)
	if err != nil {
		return fmt.Errorf("failed to create staff users: %w", err)
	}
	log.Printf("created %d staff/demo users", len(staff))

	users := staff
	for i := len(users); i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("failed to create user %d: %v", i, err)
			continue
		}
		users = append(users, user)
		if i > 0 && i%100 == 0 {
			log.Printf("created %d users...", i)
		}
	}
	log.Printf("created %d users total", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.r.Intn(len(users))]
		post, err := f.CreatePost(author)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
		if i > 0 && i%100 == 0 {
			log.Printf("created %d posts...", i)
		}
	}
	log.Printf("created %d posts", len(posts))

	if err := seedEngagement(f, users, posts); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// seedEngagement adds comments (with occasional replies), votes and a few
// reports across the seeded posts.
func seedEngagement(f *Factory, users []*models.User, posts []*models.Post) error {
	commentCount := 0
	voteCount := 0

	for _, post := range posts {
		// Comments, roughly geometric: many posts with none, a few busy ones.
		nComments := f.r.Intn(6)
		var lastTopLevel *models.Comment
		for i := 0; i < nComments; i++ {
			commenter := users[f.r.Intn(len(users))]
			var parent *models.Comment
			if lastTopLevel != nil && f.r.Float32() < 0.3 {
				parent = lastTopLevel
			}
			cm, err := f.CreateComment(commenter, post, parent)
			if err != nil {
				return err
			}
			if parent == nil {
				lastTopLevel = cm
			}
			commentCount++
		}
		if err := f.db.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("comment_count", nComments).Error; err != nil {
			return err
		}

		// Votes from a random slice of the population; one vote per user.
		nVotes := f.r.Intn(len(users)/2 + 1)
		perm := f.r.Perm(len(users))
		for i := 0; i < nVotes; i++ {
			direction := models.VoteUp
			if f.r.Float32() < 0.25 {
				direction = models.VoteDown
			}
			if err := f.CreateVote(users[perm[i]], post, direction); err != nil {
				return err
			}
			voteCount++
		}
	}

	// A few open reports so the moderation queue is not empty.
	reasons := []string{"spam", "harassment", "off-topic", "misinformation"}
	for i := 0; i < 3 && i < len(posts); i++ {
		reporter := users[f.r.Intn(len(users))]
		post := posts[f.r.Intn(len(posts))]
		if err := f.CreateReport(reporter, post, reasons[f.r.Intn(len(reasons))]); err != nil {
			return err
		}
	}

	log.Printf("created %d comments and %d votes", commentCount, voteCount)
	return nil
}

// createStaffUsers inserts a fixed admin, moderator and demo student so the
// same demo credentials work on every fresh seed.
func createStaffUsers(db *gorm.DB) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	fixtures := []models.User{
		{Name: "Admin", Email: "admin@college.edu", StudentID: "100000001", Role: models.RoleAdmin},
		{Name: "Moderator", Email: "moderator@college.edu", StudentID: "100000002", Role: models.RoleModerator},
		{Name: "Demo Student", Email: "demo@college.edu", StudentID: "100000003", Role: models.RoleStudent},
	}

	users := make([]*models.User, 0, len(fixtures))
	for i := range fixtures {
		u := fixtures[i]
		u.Password = string(hashed)
		u.Year = 3
		u.Branch = "CSE"
		u.IsVerified = true

		// FirstOrCreate keeps reseeding idempotent for the fixed accounts.
		var existing models.User
		if err := db.Where(models.User{Email: u.Email}).
			Attrs(u).
			FirstOrCreate(&existing).Error; err != nil {
			return nil, err
		}
		users = append(users, &existing)
	}
	return users, nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE reports, votes, attachments, comments, posts, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
