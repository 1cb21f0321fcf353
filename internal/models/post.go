package models

import (
	"time"

	"gorm.io/gorm"
)

// Post categories. Submissions outside this set are rejected at validation.
const (
	CategoryAcademics   = "academics"
	CategoryEvents      = "events"
	CategoryRants       = "rants"
	CategoryInternships = "internships"
	CategoryLostFound   = "lost-found"
	CategoryClubs       = "clubs"
	CategoryGeneral     = "general"
)

// Categories lists every valid post category.
var Categories = []string{
	CategoryAcademics,
	CategoryEvents,
	CategoryRants,
	CategoryInternships,
	CategoryLostFound,
	CategoryClubs,
	CategoryGeneral,
}

// ValidCategory reports whether c names a known post category.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Moderation status of a post. Posts start approved; community reports can
// flag them and staff can remove them.
const (
	ModerationApproved = "approved"
	ModerationFlagged  = "flagged"
	ModerationRemoved  = "removed"
)

// Post represents a forum post in one of the fixed categories.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Category    string `gorm:"not null;index" json:"category"`
	Tags        string `json:"tags"` // comma-separated, normalized at creation
	IsAnonymous bool   `gorm:"not null;default:false" json:"is_anonymous"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	User        *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ModerationStatus string `gorm:"not null;default:approved;index" json:"moderation_status"`

	ViewCount    int `gorm:"not null;default:0" json:"view_count"`
	CommentCount int `gorm:"not null;default:0" json:"comment_count"`

	Attachments []Attachment `gorm:"foreignKey:PostID" json:"attachments,omitempty"`

	// Vote counts are not persisted; computed at query time.
	UpvoteCount   int `gorm:"->" json:"upvote_count"`
	DownvoteCount int `gorm:"->" json:"downvote_count"`
	// MyVote is the requesting user's live vote ("up", "down" or ""), computed.
	MyVote string `gorm:"->" json:"my_vote,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ForViewer returns the post as the given viewer may see it. Anonymous posts
// hide the author from everyone except the author themselves.
func (p *Post) ForViewer(viewerID uint) *Post {
	if !p.IsAnonymous || (viewerID != 0 && p.UserID == viewerID) {
		return p
	}
	masked := *p
	masked.UserID = 0
	masked.User = nil
	return &masked
}

// Vote directions.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote records one user's live vote on a post. Re-voting replaces the row.
type Vote struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Direction string    `gorm:"not null" json:"direction"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is an ingested image belonging to a post, or a user avatar when
// PostID is null.
type Attachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    *uint     `gorm:"index" json:"post_id,omitempty"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	URL       string    `gorm:"not null" json:"url"`
	Filename  string    `gorm:"not null" json:"filename"`
	SHA256    string    `gorm:"index" json:"-"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
