package service

import (
	"context"
	"errors"
	"testing"

	"kforum/internal/models"
	"kforum/internal/moderation"
	"kforum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn              func(context.Context, uint) (*models.User, error)
	getByIDWithPostsFn     func(context.Context, uint, int) (*models.User, error)
	getByEmailFn           func(context.Context, string) (*models.User, error)
	getByStudentIDFn       func(context.Context, string) (*models.User, error)
	createFn               func(context.Context, *models.User) error
	updateFn               func(context.Context, *models.User) error
	saveModerationRecordFn func(context.Context, *models.User) error
	deleteFn               func(context.Context, uint) error
	listFn                 func(context.Context, int, int) ([]models.User, error)
	countFn                func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithPosts(ctx context.Context, id uint, limit int) (*models.User, error) {
	return s.getByIDWithPostsFn(ctx, id, limit)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	return s.getByStudentIDFn(ctx, studentID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) SaveModerationRecord(ctx context.Context, user *models.User) error {
	return s.saveModerationRecordFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:              func(_ context.Context, _ uint) (*models.User, error) { return &models.User{}, nil },
		getByIDWithPostsFn:     func(_ context.Context, _ uint, _ int) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:           func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByStudentIDFn:       func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:               func(_ context.Context, _ *models.User) error { return nil },
		updateFn:               func(_ context.Context, _ *models.User) error { return nil },
		saveModerationRecordFn: func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:               func(_ context.Context, _ uint) error { return nil },
		listFn:                 func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		countFn:                func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn              func(context.Context, *models.Post) error
	getByIDFn             func(context.Context, uint, uint) (*models.Post, error)
	listFn                func(context.Context, repository.PostListFilter, uint) ([]*models.Post, error)
	updateFn              func(context.Context, *models.Post) error
	deleteFn              func(context.Context, uint) error
	incrementViewCountFn  func(context.Context, uint) error
	setModerationStatusFn func(context.Context, uint, string) error
	setVoteFn             func(context.Context, uint, uint, string) error
	clearVoteFn           func(context.Context, uint, uint) error
	getVoteFn             func(context.Context, uint, uint) (string, error)
	createReportFn        func(context.Context, *models.Report) error
	countOpenReportsFn    func(context.Context, uint) (int64, error)
	listReportedFn        func(context.Context, int, int) ([]*models.Post, error)
	resolveReportsFn      func(context.Context, uint) error
	countFn               func(context.Context) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostListFilter, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, filter, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementViewCountFn(ctx, id)
}
func (s *postRepoStub) SetModerationStatus(ctx context.Context, id uint, status string) error {
	return s.setModerationStatusFn(ctx, id, status)
}
func (s *postRepoStub) SetVote(ctx context.Context, postID, userID uint, direction string) error {
	return s.setVoteFn(ctx, postID, userID, direction)
}
func (s *postRepoStub) ClearVote(ctx context.Context, postID, userID uint) error {
	return s.clearVoteFn(ctx, postID, userID)
}
func (s *postRepoStub) GetVote(ctx context.Context, postID, userID uint) (string, error) {
	return s.getVoteFn(ctx, postID, userID)
}
func (s *postRepoStub) CreateReport(ctx context.Context, report *models.Report) error {
	return s.createReportFn(ctx, report)
}
func (s *postRepoStub) CountOpenReports(ctx context.Context, postID uint) (int64, error) {
	return s.countOpenReportsFn(ctx, postID)
}
func (s *postRepoStub) ListReported(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listReportedFn(ctx, limit, offset)
}
func (s *postRepoStub) ResolveReports(ctx context.Context, postID uint) error {
	return s.resolveReportsFn(ctx, postID)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:              func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:             func(_ context.Context, _, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		listFn:                func(_ context.Context, _ repository.PostListFilter, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:              func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:              func(_ context.Context, _ uint) error { return nil },
		incrementViewCountFn:  func(_ context.Context, _ uint) error { return nil },
		setModerationStatusFn: func(_ context.Context, _ uint, _ string) error { return nil },
		setVoteFn:             func(_ context.Context, _, _ uint, _ string) error { return nil },
		clearVoteFn:           func(_ context.Context, _, _ uint) error { return nil },
		getVoteFn:             func(_ context.Context, _, _ uint) (string, error) { return "", nil },
		createReportFn:        func(_ context.Context, _ *models.Report) error { return nil },
		countOpenReportsFn:    func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listReportedFn:        func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		resolveReportsFn:      func(_ context.Context, _ uint) error { return nil },
		countFn:               func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// attachmentRepoStub is a stub for repository.AttachmentRepository.
type attachmentRepoStub struct {
	createFn       func(context.Context, *models.Attachment) error
	getByIDFn      func(context.Context, uint) (*models.Attachment, error)
	getBySHA256Fn  func(context.Context, string) (*models.Attachment, error)
	attachToPostFn func(context.Context, uint, uint, []uint) error
	listByPostFn   func(context.Context, uint) ([]models.Attachment, error)
	deleteFn       func(context.Context, uint) error
}

func (s *attachmentRepoStub) Create(ctx context.Context, a *models.Attachment) error {
	return s.createFn(ctx, a)
}
func (s *attachmentRepoStub) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *attachmentRepoStub) GetBySHA256(ctx context.Context, sum string) (*models.Attachment, error) {
	return s.getBySHA256Fn(ctx, sum)
}
func (s *attachmentRepoStub) AttachToPost(ctx context.Context, postID, userID uint, ids []uint) error {
	return s.attachToPostFn(ctx, postID, userID, ids)
}
func (s *attachmentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Attachment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *attachmentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopAttachmentRepo() *attachmentRepoStub {
	return &attachmentRepoStub{
		createFn:       func(_ context.Context, _ *models.Attachment) error { return nil },
		getByIDFn:      func(_ context.Context, _ uint) (*models.Attachment, error) { return &models.Attachment{}, nil },
		getBySHA256Fn:  func(_ context.Context, _ string) (*models.Attachment, error) { return nil, nil },
		attachToPostFn: func(_ context.Context, _, _ uint, _ []uint) error { return nil },
		listByPostFn:   func(_ context.Context, _ uint) ([]models.Attachment, error) { return nil, nil },
		deleteFn:       func(_ context.Context, _ uint) error { return nil },
	}
}

// classifierStub implements moderation.Classifier with a fixed result.
type classifierStub struct {
	result moderation.Classification
	calls  int
}

func (c *classifierStub) Classify(_ context.Context, _ string) moderation.Classification {
	c.calls++
	return c.result
}

// screenerStub implements SubmissionScreener directly for post service tests.
type screenerStub struct {
	verdict moderation.Verdict
	err     error
	calls   int
	text    string
}

func (s *screenerStub) ScreenSubmission(_ context.Context, _ uint, text string) (moderation.Verdict, error) {
	s.calls++
	s.text = text
	return s.verdict, s.err
}

// publisherStub records published events.
type publisherStub struct {
	events   []string
	payloads []interface{}
}

func (p *publisherStub) PublishBroadcast(_ context.Context, event string, payload interface{}) error {
	p.events = append(p.events, event)
	p.payloads = append(p.payloads, payload)
	return nil
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}
