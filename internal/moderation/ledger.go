package moderation

import (
	"time"

	"kforum/internal/models"
)

// MaxStrikes is the number of strikes that triggers a ban.
const MaxStrikes = 3

// banMonths is added with calendar-month arithmetic, not a fixed day offset:
// the expiry shown to users must land on the same day-of-month three months
// out, whatever the intervening month lengths.
const banMonths = 3

// IsCurrentlyBanned reports whether the user's ban is still in force at now.
// A ban flag with a missing or elapsed expiry counts as lapsed; the caller
// must then apply LiftExpiredBan before processing the submission.
func IsCurrentlyBanned(u *models.User, now time.Time) bool {
	return u.IsBanned && u.BanExpiresAt != nil && u.BanExpiresAt.After(now)
}

// LiftExpiredBan clears the ban and resets the strike count so subsequent
// strike counting starts from zero. Idempotent: applying it to an already
// clear record changes nothing.
func LiftExpiredBan(u *models.User) {
	u.IsBanned = false
	u.StrikeCount = 0
	u.BanExpiresAt = nil
}

// RegisterStrike adds one strike at now. Reaching MaxStrikes sets the ban
// flag with a calendar three-month expiry and returns true. The count is not
// capped; it can only exceed MaxStrikes if the reset-on-lift rule is bypassed.
func RegisterStrike(u *models.User, now time.Time) (banned bool) {
	u.StrikeCount++
	t := now
	u.LastStrikeAt = &t
	if u.StrikeCount >= MaxStrikes {
		u.IsBanned = true
		expiry := now.AddDate(0, banMonths, 0)
		u.BanExpiresAt = &expiry
		return true
	}
	return false
}
