package models

import "time"

// FlagThreshold is the number of open reports that flips an approved post to
// flagged for admin review.
const FlagThreshold = 5

// Report statuses.
const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
)

// Report records one user's report against a post. A user may report a given
// post at most once (composite unique index).
type Report struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PostID     uint   `gorm:"not null;uniqueIndex:idx_reports_post_user" json:"post_id"`
	ReporterID uint   `gorm:"not null;uniqueIndex:idx_reports_post_user" json:"reporter_id"`
	Reason     string `gorm:"type:text" json:"reason"`
	Status     string `gorm:"not null;default:open;index" json:"status"`
	Reporter   *User  `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
