package twitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeElement is a map-backed Element for tests. Query keys are the exact
// selector strings extraction uses.
type fakeElement struct {
	children map[string][]*fakeElement
	text     string
	hasText  bool
	attrs    map[string]string
}

func (f *fakeElement) Query(selector string) []Element {
	matches := f.children[selector]
	elements := make([]Element, 0, len(matches))
	for _, match := range matches {
		elements = append(elements, match)
	}
	return elements
}

func (f *fakeElement) Text() (string, bool) {
	return f.text, f.hasText
}

func (f *fakeElement) Attr(name string) (string, bool) {
	value, ok := f.attrs[name]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func textEl(text string) *fakeElement {
	return &fakeElement{text: text, hasText: true}
}

func TestExtractEmptyElement(t *testing.T) {
	tweet := Extract(&fakeElement{})

	assert.Equal(t, "", tweet.ID)
	assert.Equal(t, "", tweet.Timestamp)
	assert.Equal(t, Author{}, tweet.Author)
	assert.Equal(t, Flags{}, tweet.Flags)
	assert.Equal(t, "", tweet.Content.Text)
	assert.Empty(t, tweet.Content.Richtext)
	assert.Empty(t, tweet.Content.Media)
}

func TestExtractFullPost(t *testing.T) {
	el := &fakeElement{
		children: map[string][]*fakeElement{
			selRepostLabel: {textEl("Space Fan reposted")},
			selPinnedLabel: {textEl("Pinned")},
			selAuthorAvatar: {
				{attrs: map[string]string{"src": "https://pbs.example/avatar.jpg"}},
			},
			selAuthorName:     {textEl("NASA")},
			selAuthorUsername: {textEl("@NASA")},
			selPostLinks: {
				{attrs: map[string]string{"href": "/NASA"}},
				{attrs: map[string]string{"href": "/NASA/status/123456"}},
			},
			selTimestamp: {
				{attrs: map[string]string{"datetime": "2024-04-08T18:17:00.000Z"}},
			},
			selTextChildren: {
				textEl("Eclipse today! "),
				{
					hasText: true,
					text:    "ignored when anchors exist",
					children: map[string][]*fakeElement{
						"a": {{
							text:    "watch live",
							hasText: true,
							attrs:   map[string]string{"href": "/i/broadcasts/1"},
						}},
					},
				},
			},
			selMedia: {
				{attrs: map[string]string{"src": "https://pbs.example/photo.jpg&name=small"}},
				{attrs: map[string]string{
					"src":    "blob:https://twitter.com/video-1",
					"poster": "https://pbs.example/poster.jpg",
				}},
			},
		},
	}

	tweet := Extract(el)

	assert.Equal(t, "/NASA/status/123456", tweet.ID)
	assert.Equal(t, "2024-04-08T18:17:00.000Z", tweet.Timestamp)
	assert.Equal(t, "NASA", tweet.Author.Username, "leading @ must be stripped")
	assert.Equal(t, "NASA", tweet.Author.Name)
	assert.Equal(t, "https://pbs.example/avatar.jpg", tweet.Author.Avatar)

	assert.True(t, tweet.Flags.IsRepost)
	assert.True(t, tweet.Flags.IsPinned)
	assert.True(t, tweet.Flags.HasImage)
	assert.True(t, tweet.Flags.HasVideo)

	assert.Equal(t, "Eclipse today! watch live", tweet.Content.Text)
	assert.Equal(t, []Segment{
		{Text: "Eclipse today! "},
		{Text: "watch live", URL: "https://twitter.com/i/broadcasts/1"},
	}, tweet.Content.Richtext)

	assert.Equal(t, []Media{
		{Type: MediaImage, Image: "https://pbs.example/photo.jpg&name=small"},
		{Type: MediaVideo, Video: "blob:https://twitter.com/video-1", Image: "https://pbs.example/poster.jpg"},
	}, tweet.Content.Media)
}

func TestExtractRepostLabelMustMatchSuffix(t *testing.T) {
	el := &fakeElement{
		children: map[string][]*fakeElement{
			selRepostLabel: {textEl("reposted something earlier")},
		},
	}
	assert.False(t, Extract(el).Flags.IsRepost)

	el = &fakeElement{
		children: map[string][]*fakeElement{
			selRepostLabel: {textEl("Somebody reposted")},
		},
	}
	assert.True(t, Extract(el).Flags.IsRepost)
}

func TestExtractPinnedLabelIsExact(t *testing.T) {
	el := &fakeElement{
		children: map[string][]*fakeElement{
			selPinnedLabel: {textEl("Pinned by author")},
		},
	}
	assert.False(t, Extract(el).Flags.IsPinned)
}

func TestExtractEmojiAltText(t *testing.T) {
	el := &fakeElement{
		children: map[string][]*fakeElement{
			selTextChildren: {
				textEl("launch day "),
				{attrs: map[string]string{"alt": "🚀"}},
			},
		},
	}

	tweet := Extract(el)
	assert.Equal(t, "launch day 🚀", tweet.Content.Text)
	assert.Equal(t, []Segment{
		{Text: "launch day "},
		{Text: "🚀"},
	}, tweet.Content.Richtext)
}

func TestRichtextConcatenationInvariant(t *testing.T) {
	el := &fakeElement{
		children: map[string][]*fakeElement{
			selTextChildren: {
				textEl("a"),
				{children: map[string][]*fakeElement{
					"a": {
						{text: "b", hasText: true, attrs: map[string]string{"href": "//t.co/x"}},
						{text: "c", hasText: true},
					},
				}},
				{attrs: map[string]string{"alt": "d"}},
			},
		},
	}

	tweet := Extract(el)

	var concatenated string
	for _, segment := range tweet.Content.Richtext {
		concatenated += segment.Text
	}
	assert.Equal(t, tweet.Content.Text, concatenated)
	assert.Equal(t, "abcd", tweet.Content.Text)
}

func TestResolveURL(t *testing.T) {
	cases := map[string]string{
		"//a/b":               "https://a/b",
		"/status/1":           "https://twitter.com/status/1",
		"http://x":            "http://x",
		"https://example.com": "https://example.com",
		"foo":                 "https://twitter.com/foo",
	}
	for input, want := range cases {
		assert.Equal(t, want, ResolveURL(input), "input %q", input)
	}
}
