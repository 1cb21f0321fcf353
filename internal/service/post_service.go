package service

import (
	"context"
	"strings"

	"kforum/internal/cache"
	"kforum/internal/models"
	"kforum/internal/moderation"
	"kforum/internal/repository"
)

const (
	maxTitleLen      = 300
	maxContentLen    = 50000
	maxTagsPerPost   = 5
	maxAttachments   = 5
	eventPostAdded   = "post-added"
	eventPostRemoved = "post-removed"
)

// SubmissionScreener screens submitted text through the moderation pipeline.
type SubmissionScreener interface {
	ScreenSubmission(ctx context.Context, userID uint, text string) (moderation.Verdict, error)
}

// EventPublisher fans realtime events out to connected clients.
type EventPublisher interface {
	PublishBroadcast(ctx context.Context, event string, payload interface{}) error
}

// PostService implements the post creation workflow and post queries.
type PostService struct {
	postRepo       repository.PostRepository
	attachmentRepo repository.AttachmentRepository
	screener       SubmissionScreener
	publisher      EventPublisher
	isStaff        func(ctx context.Context, userID uint) (bool, error)
}

// NewPostService returns a new PostService. publisher may be nil when
// realtime delivery is disabled.
func NewPostService(
	postRepo repository.PostRepository,
	attachmentRepo repository.AttachmentRepository,
	screener SubmissionScreener,
	publisher EventPublisher,
	isStaff func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:       postRepo,
		attachmentRepo: attachmentRepo,
		screener:       screener,
		publisher:      publisher,
		isStaff:        isStaff,
	}
}

type CreatePostInput struct {
	UserID        uint
	Title         string
	Content       string
	Category      string
	Tags          []string
	IsAnonymous   bool
	AttachmentIDs []uint
}

type ListPostsInput struct {
	Category      string
	Query         string
	Tag           string
	Sort          string
	Limit         int
	Offset        int
	CurrentUserID uint
}

// CreatePost validates the submission, screens it through the moderation
// pipeline and persists it only on an accepted verdict. Rejections surface as
// forbidden (active ban) or validation (abusive content) errors carrying the
// verdict's user-facing message.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)

	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if !models.ValidCategory(in.Category) {
		return nil, models.NewValidationError("Invalid category")
	}
	if len(in.AttachmentIDs) > maxAttachments {
		return nil, models.NewValidationError("A post can have at most 5 attachments")
	}

	// Title, content and tags are screened together so abuse in any field is
	// caught. Tags go in raw, before normalization.
	screened := title + "\n" + content
	if len(in.Tags) > 0 {
		screened += "\n" + strings.Join(in.Tags, " ")
	}
	verdict, err := s.screener.ScreenSubmission(ctx, in.UserID, screened)
	if err != nil {
		return nil, err
	}
	switch verdict.Decision {
	case moderation.RejectedBanned:
		return nil, models.NewForbiddenError(verdict.Message())
	case moderation.RejectedAbusive:
		return nil, models.NewValidationError(verdict.Message())
	}

	post := &models.Post{
		Title:            title,
		Content:          content,
		Category:         in.Category,
		Tags:             normalizeTags(in.Tags),
		IsAnonymous:      in.IsAnonymous,
		UserID:           in.UserID,
		ModerationStatus: models.ModerationApproved,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if len(in.AttachmentIDs) > 0 && s.attachmentRepo != nil {
		if err := s.attachmentRepo.AttachToPost(ctx, post.ID, in.UserID, in.AttachmentIDs); err != nil {
			return nil, err
		}
	}

	created, err := s.postRepo.GetByID(ctx, post.ID, in.UserID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		// Broadcasts reach everyone, so anonymous authorship is always masked.
		_ = s.publisher.PublishBroadcast(ctx, eventPostAdded, created.ForViewer(0))
	}
	return created, nil
}

// normalizeTags lowercases, trims and dedupes tags, capping the count.
func normalizeTags(tags []string) string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxTagsPerPost {
			break
		}
	}
	return strings.Join(out, ",")
}

// ListPosts returns the filtered post feed. The default unfiltered first page
// is served cache-aside.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	if in.Category != "" && !models.ValidCategory(in.Category) {
		return nil, models.NewValidationError("Invalid category")
	}

	filter := repository.PostListFilter{
		Category: in.Category,
		Query:    in.Query,
		Tag:      in.Tag,
		Sort:     in.Sort,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}

	cacheable := in.Category == "" && in.Query == "" && in.Tag == "" &&
		in.Sort == "" && in.Offset == 0 && in.Limit <= 20 && in.CurrentUserID == 0

	var posts []*models.Post
	var err error
	if cacheable {
		err = cache.Aside(ctx, cache.PostsListKey(), &posts, cache.PostsListTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, filter, 0)
			return fetchErr
		})
	} else {
		posts, err = s.postRepo.List(ctx, filter, in.CurrentUserID)
	}
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns one post and bumps its view counter.
func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}
	if post.ModerationStatus == models.ModerationRemoved {
		return nil, models.NewNotFoundError("Post", id)
	}
	_ = s.postRepo.IncrementViewCount(ctx, id)
	return post, nil
}

// GetUserPosts returns a user's posts, newest first.
func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.List(ctx, repository.PostListFilter{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	}, currentUserID)
}

// Vote records, replaces or clears the user's vote and returns the post with
// fresh counts. An empty direction clears.
func (s *PostService) Vote(ctx context.Context, userID, postID uint, direction string) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}

	switch direction {
	case models.VoteUp, models.VoteDown:
		if err := s.postRepo.SetVote(ctx, postID, userID, direction); err != nil {
			return nil, err
		}
	case "":
		if err := s.postRepo.ClearVote(ctx, postID, userID); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("Vote direction must be 'up', 'down' or empty")
	}

	return s.postRepo.GetByID(ctx, postID, userID)
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// DeletePost removes a post. Authors can delete their own posts; staff can
// delete any.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		if s.isStaff == nil {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		staff, err := s.isStaff(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !staff {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}
	if s.publisher != nil {
		_ = s.publisher.PublishBroadcast(ctx, eventPostRemoved, map[string]uint{"id": in.PostID})
	}
	return nil
}
