package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xwatch/pkg/config"
	"xwatch/pkg/twitter"
)

var testStyle = config.EmbedConfig{
	Username:  "xwatch",
	AvatarURL: "https://example.com/bot.png",
	Color:     0x1DA1F2,
	Flags:     4096,
}

func TestEscapeMarkdown(t *testing.T) {
	cases := map[string]string{
		"plain text":     "plain text",
		"a*b_c~d`e":      `a\*b\_c\~d` + "\\`e",
		"(parens) [box]": `\(parens\) \[box\]`,
		"> quoted":       `\> quoted`,
		"- item":         `\- item`,
		"  - indented":   `  \- indented`,
		"## Heading":     `\##Heading`,
		"mid # hash":     "mid # hash",
	}
	for input, want := range cases {
		assert.Equal(t, want, EscapeMarkdown(input), "input %q", input)
	}
}

func TestEscapeMarkdownAtLineStarts(t *testing.T) {
	got := EscapeMarkdown("first\n> second\n- third")
	assert.Equal(t, "first\n\\> second\n\\- third", got)
}

func TestBuildPayloadBasics(t *testing.T) {
	tweet := twitter.Tweet{
		ID:        "/nasa/status/123",
		Timestamp: "2024-04-08T18:17:00.000Z",
		Author: twitter.Author{
			Username: "nasa",
			Name:     "NASA",
			Avatar:   "https://pbs.example/a.jpg",
		},
		Content: twitter.Content{
			Richtext: []twitter.Segment{
				{Text: "launch *today*"},
				{Text: "details", URL: "https://twitter.com/i/events/1"},
			},
		},
	}

	payload := BuildPayload(tweet, testStyle)

	assert.Equal(t, "xwatch", payload.Username)
	assert.Equal(t, 4096, payload.Flags)
	assert.Nil(t, payload.Content)
	require.Len(t, payload.Embeds, 1)

	primary := payload.Embeds[0]
	assert.Equal(t, "View on X", primary.Title)
	assert.Equal(t, "https://twitter.com/nasa/status/123", primary.URL)
	assert.Equal(t, `launch \*today\*[details](https://twitter.com/i/events/1)`, primary.Description)
	assert.Equal(t, "NASA", primary.Author.Name)
	assert.Equal(t, "https://twitter.com/nasa", primary.Author.URL)
	assert.Equal(t, "@nasa", primary.Footer.Text)
	assert.Equal(t, "2024-04-08T18:17:00.000Z", primary.Timestamp)
	assert.Empty(t, primary.Fields)
}

func TestBuildPayloadMediaPlacement(t *testing.T) {
	tweet := twitter.Tweet{
		ID:    "/nasa/status/123",
		Flags: twitter.Flags{HasImage: true},
		Content: twitter.Content{
			Media: []twitter.Media{
				{Type: twitter.MediaImage, Image: "https://pbs.example/1.jpg&name=small"},
				{Type: twitter.MediaImage, Image: "https://pbs.example/2.jpg"},
				{Type: twitter.MediaImage, Image: "https://pbs.example/3.jpg&name=small&x=1"},
			},
		},
	}

	payload := BuildPayload(tweet, testStyle)

	require.Len(t, payload.Embeds, 3, "primary absorbs the first media item")
	require.NotNil(t, payload.Embeds[0].Image)
	assert.Equal(t, "https://pbs.example/1.jpg", payload.Embeds[0].Image.URL,
		"thumbnail size suffix must be stripped")
	assert.Equal(t, "https://pbs.example/2.jpg", payload.Embeds[1].Image.URL)
	assert.Equal(t, "https://pbs.example/3.jpg&x=1", payload.Embeds[2].Image.URL)
	assert.Equal(t, "https://twitter.com/nasa/status/123", payload.Embeds[1].URL)
}

func TestBuildPayloadVideoNotice(t *testing.T) {
	tweet := twitter.Tweet{
		ID:    "/nasa/status/123",
		Flags: twitter.Flags{HasVideo: true},
		Content: twitter.Content{
			Media: []twitter.Media{
				{Type: twitter.MediaVideo, Video: "blob:https://twitter.com/v1", Image: "https://pbs.example/poster.jpg"},
			},
		},
	}

	payload := BuildPayload(tweet, testStyle)

	require.Len(t, payload.Embeds[0].Fields, 1)
	assert.Equal(t, "Note", payload.Embeds[0].Fields[0].Name)
	require.NotNil(t, payload.Embeds[0].Image)
	assert.Equal(t, "https://pbs.example/poster.jpg", payload.Embeds[0].Image.URL,
		"video poster serves as the preview image")
}

func TestBuildPayloadNoNoticeForPlayableVideo(t *testing.T) {
	tweet := twitter.Tweet{
		ID:    "/nasa/status/123",
		Flags: twitter.Flags{HasVideo: true},
		Content: twitter.Content{
			Media: []twitter.Media{
				{Type: twitter.MediaVideo, Video: "https://video.example/v.mp4", Image: "https://pbs.example/poster.jpg"},
			},
		},
	}

	payload := BuildPayload(tweet, testStyle)
	assert.Empty(t, payload.Embeds[0].Fields)
}
