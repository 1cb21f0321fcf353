package service

import (
	"context"

	"kforum/internal/models"
	"kforum/internal/moderation"
	"kforum/internal/repository"
)

const eventCommentAdded = "comment-added"

// CommentService implements comment creation and moderation-aware deletion.
// Comments pass through the same submission screening as posts.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	screener    SubmissionScreener
	publisher   EventPublisher
	isStaff     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID      uint
	PostID      uint
	ParentID    *uint
	Content     string
	IsAnonymous bool
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	screener SubmissionScreener,
	publisher EventPublisher,
	isStaff func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		screener:    screener,
		publisher:   publisher,
		isStaff:     isStaff,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return nil, err
	}
	if post.ModerationStatus == models.ModerationRemoved {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	const maxCommentLen = 10000

	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	// One level of threading only: a reply's parent must be a top-level
	// comment on the same post.
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
		if parent.ParentID != nil {
			return nil, models.NewValidationError("Replies cannot be nested further")
		}
	}

	verdict, err := s.screener.ScreenSubmission(ctx, in.UserID, in.Content)
	if err != nil {
		return nil, err
	}
	switch verdict.Decision {
	case moderation.RejectedBanned:
		return nil, models.NewForbiddenError(verdict.Message())
	case moderation.RejectedAbusive:
		return nil, models.NewValidationError(verdict.Message())
	}

	comment := &models.Comment{
		Content:          in.Content,
		UserID:           in.UserID,
		PostID:           in.PostID,
		ParentID:         in.ParentID,
		IsAnonymous:      in.IsAnonymous,
		ModerationStatus: models.ModerationApproved,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		// Broadcasts reach everyone, so anonymous authorship is always masked.
		_ = s.publisher.PublishBroadcast(ctx, eventCommentAdded, created.ForViewer(0))
	}
	return created, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}

	if comment.UserID != in.UserID {
		if s.isStaff == nil {
			return models.NewForbiddenError("You can only delete your own comments")
		}
		staff, err := s.isStaff(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !staff {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}

	return s.commentRepo.Delete(ctx, in.CommentID)
}
