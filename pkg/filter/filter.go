// Package filter decides whether a collected post qualifies for relay.
package filter

import "xwatch/pkg/twitter"

// Rules are the per-account relay filters from the watch config
type Rules struct {
	Posts        bool
	Reposts      bool
	Pinned       bool
	WithImages   bool
	WithVideos   bool
	WithoutMedia bool
}

// Sendable reports whether a post passes the account's filters. The type
// gates reject first; after that the post must satisfy at least one enabled
// media branch, so a record matching no media rule is never sendable even
// when every type gate passes.
func Sendable(rules Rules, tweet twitter.Tweet) bool {
	if !rules.Posts && !tweet.Flags.IsRepost {
		return false
	}
	if !rules.Reposts && tweet.Flags.IsRepost {
		return false
	}
	if !rules.Pinned && tweet.Flags.IsPinned {
		return false
	}

	switch {
	case rules.WithImages && tweet.Flags.HasImage:
		return true
	case rules.WithVideos && tweet.Flags.HasVideo:
		return true
	case rules.WithoutMedia && !tweet.Flags.HasImage && !tweet.Flags.HasVideo:
		return true
	}
	return false
}
