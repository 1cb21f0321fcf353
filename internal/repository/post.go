// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"kforum/internal/cache"
	"kforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostListFilter narrows List queries. Zero values mean "no filter".
type PostListFilter struct {
	Category string
	Query    string
	Tag      string
	UserID   uint
	Status   string
	Sort     string
	Limit    int
	Offset   int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, filter PostListFilter, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
	SetModerationStatus(ctx context.Context, id uint, status string) error

	SetVote(ctx context.Context, postID, userID uint, direction string) error
	ClearVote(ctx context.Context, postID, userID uint) error
	GetVote(ctx context.Context, postID, userID uint) (string, error)

	CreateReport(ctx context.Context, report *models.Report) error
	CountOpenReports(ctx context.Context, postID uint) (int64, error)
	ListReported(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ResolveReports(ctx context.Context, postID uint) error
	Count(ctx context.Context) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.InvalidatePostsList(ctx)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post

	var err error
	if currentUserID == 0 {
		key := cache.PostKey(id)
		err = cache.Aside(ctx, key, &post, cache.PostTTL, func() error {
			return r.applyPostDetails(r.db.WithContext(ctx), 0).
				Preload("User").
				Preload("Attachments").
				First(&post, id).Error
		})
	} else {
		err = r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
			Preload("User").
			Preload("Attachments").
			First(&post, id).Error
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostListFilter, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post

	base := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Attachments")

	if filter.Status != "" {
		base = base.Where("posts.moderation_status = ?", filter.Status)
	} else {
		base = base.Where("posts.moderation_status <> ?", models.ModerationRemoved)
	}
	if filter.Category != "" {
		base = base.Where("posts.category = ?", filter.Category)
	}
	if filter.UserID != 0 {
		base = base.Where("posts.user_id = ?", filter.UserID)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		base = base.Where("posts.title LIKE ? OR posts.content LIKE ?", like, like)
	}
	if filter.Tag != "" {
		base = base.Where("posts.tags LIKE ?", "%"+filter.Tag+"%")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	err := r.applySort(base, filter.Sort).
		Limit(limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// applySort appends the ORDER BY clause for the requested sort type.
// upvote_count and comment_count are SELECT aliases from applyPostDetails.
func (r *postRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "top":
		return db.Order("upvote_count DESC, posts.created_at DESC")
	case "discussed":
		return db.Order("comment_count DESC, posts.created_at DESC")
	default: // "new" and anything unrecognized
		return db.Order("posts.created_at DESC")
	}
}

// applyPostDetails adds subqueries to fetch vote counts and the requesting
// user's own vote in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM votes WHERE votes.post_id = posts.id AND votes.direction = 'up') as upvote_count, " +
		"(SELECT COUNT(*) FROM votes WHERE votes.post_id = posts.id AND votes.direction = 'down') as downvote_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+
			", COALESCE((SELECT direction FROM votes WHERE votes.post_id = posts.id AND votes.user_id = ?), '') as my_vote",
			currentUserID)
	}

	return db.Select(selectQuery + ", '' as my_vote")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *postRepository) SetModerationStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("moderation_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// SetVote records or replaces the user's live vote on a post.
func (r *postRepository) SetVote(ctx context.Context, postID, userID uint, direction string) error {
	vote := &models.Vote{
		PostID:    postID,
		UserID:    userID,
		Direction: direction,
		CreatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"direction", "created_at"}),
	}).Create(vote).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) ClearVote(ctx context.Context, postID, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Vote{}).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}

func (r *postRepository) GetVote(ctx context.Context, postID, userID uint) (string, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return vote.Direction, nil
}

func (r *postRepository) CreateReport(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("You have already reported this post")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) CountOpenReports(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("post_id = ? AND status = ?", postID, models.ReportStatusOpen).
		Count(&count).Error
	return count, err
}

func (r *postRepository) ListReported(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	if limit <= 0 {
		limit = 20
	}
	err := r.applyPostDetails(r.db.WithContext(ctx), 0).
		Preload("User").
		Where("posts.id IN (?)", r.db.Model(&models.Report{}).
			Select("post_id").
			Where("status = ?", models.ReportStatusOpen)).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ResolveReports(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("post_id = ? AND status = ?", postID, models.ReportStatusOpen).
		Update("status", models.ReportStatusResolved).Error
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error
	return count, err
}
