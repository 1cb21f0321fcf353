package repository

import (
	"context"
	"errors"

	"kforum/internal/models"

	"gorm.io/gorm"
)

// AttachmentRepository defines persistence operations for ingested images.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Attachment, error)
	GetBySHA256(ctx context.Context, sum string) (*models.Attachment, error)
	AttachToPost(ctx context.Context, postID, userID uint, ids []uint) error
	ListByPost(ctx context.Context, postID uint) ([]models.Attachment, error)
	Delete(ctx context.Context, id uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository.
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.WithContext(ctx).First(&attachment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Attachment", id)
		}
		return nil, err
	}
	return &attachment, nil
}

// GetBySHA256 returns a previously ingested attachment with the same content
// hash, or nil when the content is new.
func (r *attachmentRepository) GetBySHA256(ctx context.Context, sum string) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.WithContext(ctx).Where("sha256 = ?", sum).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// AttachToPost claims unclaimed attachments owned by the user for the post.
// Attachments already bound to another post or owned by somebody else are
// silently skipped.
func (r *attachmentRepository) AttachToPost(ctx context.Context, postID, userID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Attachment{}).
		Where("id IN ? AND user_id = ? AND post_id IS NULL", ids, userID).
		Update("post_id", postID).Error
}

func (r *attachmentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Attachment{}, id).Error
}
