// Package moderation implements the content screening and strike/ban pipeline
// applied to post submissions.
package moderation

import "context"

// Classification is the ternary outcome of screening one piece of text.
// Unavailable is distinct from Safe at the type level even though the
// submission guard currently routes both to acceptance (fail-open); keeping
// them apart preserves the distinction for future policy changes.
type Classification int

const (
	Safe Classification = iota
	Abusive
	Unavailable
)

func (c Classification) String() string {
	switch c {
	case Safe:
		return "safe"
	case Abusive:
		return "abusive"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Classifier screens free text for abusive content. Implementations absorb
// their own failure modes: a classifier never returns an error, it returns
// Unavailable.
type Classifier interface {
	Classify(ctx context.Context, text string) Classification
}
