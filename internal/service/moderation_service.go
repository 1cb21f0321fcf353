package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kforum/internal/models"
	"kforum/internal/moderation"
	"kforum/internal/observability"
	"kforum/internal/repository"
)

// maxScreenAttempts bounds the optimistic-lock retry loop when two
// submissions from the same user race on the moderation record.
const maxScreenAttempts = 3

// ModerationService screens submissions through the ban/classify/strike
// pipeline and exposes the admin review surface for reported posts.
type ModerationService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	guard    *moderation.Guard
	now      func() time.Time
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	guard *moderation.Guard,
) *ModerationService {
	return &ModerationService{
		userRepo: userRepo,
		postRepo: postRepo,
		guard:    guard,
		now:      time.Now,
	}
}

// ScreenSubmission evaluates one piece of submitted text against the author's
// moderation record. Strike and ban-lift mutations are persisted with an
// optimistic version check before the verdict is returned; on a version
// conflict the record is reloaded and the whole evaluation reruns, so a
// concurrent strike from another request is never silently overwritten.
//
// A rejection is a normal outcome, not an error. An error means the outcome
// could not be recorded durably and the submission must not proceed.
func (s *ModerationService) ScreenSubmission(ctx context.Context, userID uint, text string) (moderation.Verdict, error) {
	for attempt := 0; attempt < maxScreenAttempts; attempt++ {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return moderation.Verdict{}, err
		}

		verdict, mutated := s.guard.Evaluate(ctx, user, text, s.now())

		if mutated {
			err := s.userRepo.SaveModerationRecord(ctx, user)
			if errors.Is(err, repository.ErrVersionConflict) {
				slog.InfoContext(ctx, "moderation record conflict, retrying evaluation",
					"user_id", userID, "attempt", attempt+1)
				continue
			}
			if err != nil {
				return moderation.Verdict{}, err
			}
		}

		s.recordVerdict(verdict)
		return verdict, nil
	}

	return moderation.Verdict{}, models.NewInternalError(
		errors.New("moderation record contention: could not record outcome"))
}

func (s *ModerationService) recordVerdict(v moderation.Verdict) {
	switch v.Decision {
	case moderation.Accepted:
		observability.SubmissionsEvaluated.WithLabelValues("accepted").Inc()
	case moderation.RejectedBanned:
		observability.SubmissionsEvaluated.WithLabelValues("rejected_banned").Inc()
	case moderation.RejectedAbusive:
		observability.SubmissionsEvaluated.WithLabelValues("rejected_abusive").Inc()
		observability.StrikesIssued.Inc()
		if v.Banned {
			observability.BansIssued.Inc()
		}
	}
}

// ReportPost records one user's report against a post. Crossing the open
// report threshold flips an approved post to flagged for staff review.
func (s *ModerationService) ReportPost(ctx context.Context, postID, reporterID uint, reason string) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}

	report := &models.Report{
		PostID:     postID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     models.ReportStatusOpen,
	}
	if err := s.postRepo.CreateReport(ctx, report); err != nil {
		return err
	}

	count, err := s.postRepo.CountOpenReports(ctx, postID)
	if err != nil {
		return err
	}
	if count >= models.FlagThreshold && post.ModerationStatus == models.ModerationApproved {
		if err := s.postRepo.SetModerationStatus(ctx, postID, models.ModerationFlagged); err != nil {
			return err
		}
		slog.InfoContext(ctx, "post flagged for review",
			"post_id", postID, "open_reports", count)
	}
	return nil
}

// ReportedPosts lists posts that currently have open reports, for staff review.
func (s *ModerationService) ReportedPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.ListReported(ctx, limit, offset)
}

// Moderation actions staff can take on a reviewed post.
const (
	ModerateActionApprove = "approve"
	ModerateActionRemove  = "remove"
)

// ModeratePost applies a staff decision to a reported post and resolves its
// open reports.
func (s *ModerationService) ModeratePost(ctx context.Context, postID uint, action string) error {
	var status string
	switch action {
	case ModerateActionApprove:
		status = models.ModerationApproved
	case ModerateActionRemove:
		status = models.ModerationRemoved
	default:
		return models.NewValidationError("Action must be 'approve' or 'remove'")
	}

	if err := s.postRepo.SetModerationStatus(ctx, postID, status); err != nil {
		return err
	}
	return s.postRepo.ResolveReports(ctx, postID)
}

// AdminStats aggregates counters for the admin dashboard.
type AdminStats struct {
	Users         int64 `json:"users"`
	Posts         int64 `json:"posts"`
	ReportedPosts int64 `json:"reported_posts"`
}

// Stats returns headline counts for the admin dashboard.
func (s *ModerationService) Stats(ctx context.Context) (*AdminStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	reported, err := s.postRepo.ListReported(ctx, 100, 0)
	if err != nil {
		return nil, err
	}
	return &AdminStats{
		Users:         users,
		Posts:         posts,
		ReportedPosts: int64(len(reported)),
	}, nil
}
