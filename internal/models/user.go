// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Moderators share the admin surface but cannot promote users.
const (
	RoleStudent   = "student"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User represents a registered forum member.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Email     string `gorm:"unique;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	StudentID string `gorm:"unique;not null" json:"student_id"`
	Year      int    `gorm:"not null" json:"year"`
	Branch    string `gorm:"not null" json:"branch"`
	Avatar    string `json:"avatar"`
	Role      string `gorm:"not null;default:student" json:"role"`

	Reputation int `gorm:"not null;default:0" json:"reputation"`

	IsVerified      bool       `gorm:"not null;default:false" json:"is_verified"`
	VerificationOTP string     `json:"-"`
	OTPExpiresAt    *time.Time `json:"-"`

	// Moderation counters. Mutated only through the submission guard and
	// persisted with an optimistic version check (ModerationVersion).
	StrikeCount       int        `gorm:"not null;default:0" json:"strike_count"`
	LastStrikeAt      *time.Time `json:"last_strike_at,omitempty"`
	IsBanned          bool       `gorm:"not null;default:false" json:"is_banned"`
	BanExpiresAt      *time.Time `json:"ban_expires_at,omitempty"`
	ModerationVersion int64      `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// IsStaff reports whether the user may access the admin/moderation surface.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}
