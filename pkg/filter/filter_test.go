package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xwatch/pkg/twitter"
)

func tweetWith(flags twitter.Flags) twitter.Tweet {
	return twitter.Tweet{Flags: flags}
}

func TestSendableOriginalWithImage(t *testing.T) {
	rules := Rules{Posts: true, Pinned: true, WithImages: true}

	assert.True(t, Sendable(rules, tweetWith(twitter.Flags{HasImage: true})))
}

func TestRepostRejectedRegardlessOfMedia(t *testing.T) {
	rules := Rules{Posts: true, Pinned: true, WithImages: true}

	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{IsRepost: true, HasImage: true})))
}

func TestOriginalRejectedWhenPostsDisabled(t *testing.T) {
	rules := Rules{Reposts: true, WithImages: true, WithVideos: true, WithoutMedia: true}

	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{HasImage: true})))
	assert.True(t, Sendable(rules, tweetWith(twitter.Flags{IsRepost: true, HasImage: true})))
}

func TestPinnedRejectedWhenPinnedDisabled(t *testing.T) {
	rules := Rules{Posts: true, WithImages: true}

	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{IsPinned: true, HasImage: true})))
}

func TestMediaBranchRequired(t *testing.T) {
	// Type gates all pass, but no media branch matches
	rules := Rules{Posts: true, Reposts: true, Pinned: true, WithImages: true}

	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{})),
		"a post matching no enabled media branch is not sendable")
	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{HasVideo: true})))
}

func TestWithoutMediaBranch(t *testing.T) {
	rules := Rules{Posts: true, WithoutMedia: true}

	assert.True(t, Sendable(rules, tweetWith(twitter.Flags{})))
	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{HasImage: true})))
}

func TestVideoBranch(t *testing.T) {
	rules := Rules{Posts: true, WithVideos: true}

	assert.True(t, Sendable(rules, tweetWith(twitter.Flags{HasVideo: true})))
	assert.False(t, Sendable(rules, tweetWith(twitter.Flags{HasImage: true})))
}
