// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. One level of threading is supported
// through ParentID.
type Comment struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Content     string `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool   `gorm:"not null;default:false" json:"is_anonymous"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	PostID      uint   `gorm:"not null;index" json:"post_id"`
	ParentID    *uint  `gorm:"index" json:"parent_id,omitempty"`
	User        *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ModerationStatus string `gorm:"not null;default:approved" json:"moderation_status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ForViewer returns the comment as it should appear to the given viewer.
// Anonymous comments hide the author from everyone except the author.
func (cm *Comment) ForViewer(viewerID uint) *Comment {
	if !cm.IsAnonymous || (viewerID != 0 && cm.UserID == viewerID) {
		return cm
	}
	masked := *cm
	masked.UserID = 0
	masked.User = nil
	return &masked
}
