package moderation

import (
	"context"
	"fmt"
	"time"

	"kforum/internal/models"
)

// Decision is the outcome class of one submission evaluation.
type Decision int

const (
	Accepted Decision = iota
	RejectedBanned
	RejectedAbusive
)

// Verdict is the result of evaluating one submission. It is ephemeral and
// never persisted; rejections are normal outcomes, not errors.
type Verdict struct {
	Decision Decision

	// BanExpiresAt is set for RejectedBanned.
	BanExpiresAt time.Time

	// StrikeCount and Banned are set for RejectedAbusive. Banned marks a
	// rejection that also crossed the strike threshold.
	StrikeCount int
	Banned      bool

	// Classification records what the classifier said, including Unavailable
	// on the accepted fail-open path.
	Classification Classification
}

// Message renders the user-facing reason for a rejection. Accepted verdicts
// have no message.
func (v Verdict) Message() string {
	switch v.Decision {
	case RejectedBanned:
		return fmt.Sprintf(
			"You are temporarily banned from posting until %s due to repeated community guidelines violations.",
			v.BanExpiresAt.Format("January 2, 2006"))
	case RejectedAbusive:
		msg := "Your post was rejected because it contains abusive or harmful content."
		if v.Banned {
			return msg + fmt.Sprintf(
				" You have reached %d strikes and are now banned from posting for 3 months.", MaxStrikes)
		}
		return msg + fmt.Sprintf(" Warning: You have received a strike (%d/%d).", v.StrikeCount, MaxStrikes)
	default:
		return ""
	}
}

// Guard orchestrates one submission from raw text through to a verdict:
// ban check, then classification, then strike application. The classifier is
// consulted only when the submitter is not currently banned.
type Guard struct {
	classifier Classifier
}

// NewGuard returns a Guard using the given classifier.
func NewGuard(c Classifier) *Guard {
	return &Guard{classifier: c}
}

// Evaluate runs the pipeline against the user's moderation record. It mutates
// the record in place for a lapsed-ban lift or a new strike and returns
// mutated=true in those cases; the caller must durably persist the record
// before treating the verdict as final. Unavailable classifications are
// accepted without penalty (fail-open).
func (g *Guard) Evaluate(ctx context.Context, u *models.User, text string, now time.Time) (Verdict, bool) {
	mutated := false

	if u.IsBanned {
		if IsCurrentlyBanned(u, now) {
			return Verdict{Decision: RejectedBanned, BanExpiresAt: *u.BanExpiresAt}, false
		}
		LiftExpiredBan(u)
		mutated = true
	}

	result := g.classifier.Classify(ctx, text)
	if result == Abusive {
		banned := RegisterStrike(u, now)
		return Verdict{
			Decision:       RejectedAbusive,
			StrikeCount:    u.StrikeCount,
			Banned:         banned,
			Classification: result,
		}, true
	}

	return Verdict{Decision: Accepted, Classification: result}, mutated
}
