// Package featureflags evaluates runtime feature flags from configuration.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Flags the server consults. Unknown names evaluate to disabled.
const (
	FlagAttachments    = "attachments"
	FlagAnonymousPosts = "anonymous_posts"
	FlagRealtimeFeed   = "realtime_feed"
)

type flagValue struct {
	enabled bool
	// rollout is the percentage of users the flag is on for, -1 when the
	// value is a plain boolean.
	rollout int
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "attachments=on,realtime_feed=25%,anonymous_posts=off"
type Manager struct {
	flags map[string]flagValue
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]flagValue)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value, ok := parseValue(normalize(parts[1]))
		if key == "" || !ok {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

func parseValue(s string) (flagValue, bool) {
	switch s {
	case "on", "true", "1":
		return flagValue{enabled: true, rollout: -1}, true
	case "off", "false", "0":
		return flagValue{enabled: false, rollout: -1}, true
	}
	if strings.HasSuffix(s, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
		if err != nil || pct < 0 || pct > 100 {
			return flagValue{}, false
		}
		return flagValue{rollout: pct}, true
	}
	return flagValue{}, false
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values are on/true/1, off/false/0, and N% for a deterministic
// per-user rollout. Anonymous viewers (userID 0) never fall into a partial
// rollout bucket.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}
	if value.rollout < 0 {
		return value.enabled
	}
	switch {
	case value.rollout == 0:
		return false
	case value.rollout >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < value.rollout
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
