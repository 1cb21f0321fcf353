package moderation

import (
	"context"
	"testing"
	"time"

	"kforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classifierStub struct {
	result Classification
	calls  int
}

func (s *classifierStub) Classify(_ context.Context, _ string) Classification {
	s.calls++
	return s.result
}

func TestGuard_AbusiveBelowThreshold(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	stub := &classifierStub{result: Abusive}
	guard := NewGuard(stub)

	u := &models.User{StrikeCount: 0}
	verdict, mutated := guard.Evaluate(context.Background(), u, "some text", now)

	assert.True(t, mutated)
	assert.Equal(t, RejectedAbusive, verdict.Decision)
	assert.Equal(t, 1, verdict.StrikeCount)
	assert.False(t, verdict.Banned)
	assert.Contains(t, verdict.Message(), "strike (1/3)")
	assert.False(t, u.IsBanned)
}

func TestGuard_ThirdStrikeBans(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	stub := &classifierStub{result: Abusive}
	guard := NewGuard(stub)

	u := &models.User{StrikeCount: 2}
	verdict, mutated := guard.Evaluate(context.Background(), u, "some text", now)

	assert.True(t, mutated)
	assert.Equal(t, RejectedAbusive, verdict.Decision)
	assert.Equal(t, 3, verdict.StrikeCount)
	assert.True(t, verdict.Banned)
	assert.Contains(t, verdict.Message(), "banned from posting for 3 months")
	assert.True(t, u.IsBanned)
	require.NotNil(t, u.BanExpiresAt)
	assert.Equal(t, now.AddDate(0, 3, 0), *u.BanExpiresAt)
}

func TestGuard_SafeSubmissionAccepted(t *testing.T) {
	t.Parallel()
	stub := &classifierStub{result: Safe}
	guard := NewGuard(stub)

	u := &models.User{}
	verdict, mutated := guard.Evaluate(context.Background(), u, "hello world", time.Now())

	assert.False(t, mutated)
	assert.Equal(t, Accepted, verdict.Decision)
	assert.Equal(t, 0, u.StrikeCount)
}

func TestGuard_FailOpenWhenClassifierUnavailable(t *testing.T) {
	t.Parallel()
	stub := &classifierStub{result: Unavailable}
	guard := NewGuard(stub)

	u := &models.User{}
	verdict, mutated := guard.Evaluate(context.Background(), u, "arbitrary abusive-looking text", time.Now())

	assert.False(t, mutated)
	assert.Equal(t, Accepted, verdict.Decision)
	assert.Equal(t, Unavailable, verdict.Classification, "verdict should still record that no signal was available")
	assert.Equal(t, 0, u.StrikeCount, "no strike may be recorded without a moderation signal")
}

func TestGuard_ActiveBanShortCircuitsClassifier(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tomorrow := now.Add(24 * time.Hour)
	stub := &classifierStub{result: Abusive}
	guard := NewGuard(stub)

	u := &models.User{StrikeCount: 3, IsBanned: true, BanExpiresAt: &tomorrow}
	verdict, mutated := guard.Evaluate(context.Background(), u, "anything", now)

	assert.False(t, mutated)
	assert.Equal(t, RejectedBanned, verdict.Decision)
	assert.Equal(t, tomorrow, verdict.BanExpiresAt)
	assert.Contains(t, verdict.Message(), tomorrow.Format("January 2, 2006"))
	assert.Zero(t, stub.calls, "a banned user's submission must never reach the classifier")
	assert.Equal(t, 3, u.StrikeCount, "record must be unchanged")
}

func TestGuard_LapsedBanLiftedThenClassified(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	t.Run("safe text after lift", func(t *testing.T) {
		t.Parallel()
		stub := &classifierStub{result: Safe}
		guard := NewGuard(stub)

		u := &models.User{StrikeCount: 3, IsBanned: true, BanExpiresAt: &yesterday}
		verdict, mutated := guard.Evaluate(context.Background(), u, "anything", now)

		assert.True(t, mutated, "the lift itself must be persisted")
		assert.Equal(t, Accepted, verdict.Decision)
		assert.Equal(t, 1, stub.calls)
		assert.False(t, u.IsBanned)
		assert.Equal(t, 0, u.StrikeCount)
		assert.Nil(t, u.BanExpiresAt)
	})

	t.Run("abusive text counts from the reset value", func(t *testing.T) {
		t.Parallel()
		stub := &classifierStub{result: Abusive}
		guard := NewGuard(stub)

		u := &models.User{StrikeCount: 3, IsBanned: true, BanExpiresAt: &yesterday}
		verdict, mutated := guard.Evaluate(context.Background(), u, "anything", now)

		assert.True(t, mutated)
		assert.Equal(t, RejectedAbusive, verdict.Decision)
		assert.Equal(t, 1, verdict.StrikeCount, "strike counting restarts after the lift")
		assert.False(t, verdict.Banned)
	})
}

func TestGuard_UnconfiguredClassifierFailsOpen(t *testing.T) {
	t.Parallel()
	guard := NewGuard(NewGeminiClassifier(GeminiConfig{}, nil))

	u := &models.User{}
	verdict, mutated := guard.Evaluate(context.Background(), u, "you are all terrible", time.Now())

	assert.False(t, mutated)
	assert.Equal(t, Accepted, verdict.Decision)
	assert.Equal(t, 0, u.StrikeCount)
}
