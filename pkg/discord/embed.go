// Package discord formats post records into webhook payloads and delivers
// them.
package discord

import (
	"regexp"
	"strings"

	"xwatch/pkg/config"
	"xwatch/pkg/twitter"
)

const siteURL = "https://twitter.com"

// WebhookPayload is the body posted to a Discord webhook
type WebhookPayload struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Content   *string `json:"content"`
	Flags     int     `json:"flags,omitempty"`
	Embeds    []Embed `json:"embeds"`
}

// Embed is one embed block inside a webhook payload
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []Field      `json:"fields,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
}

// Field is a name/value pair rendered inside an embed
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedAuthor is the author header of an embed
type EmbedAuthor struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedFooter is the footer line of an embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedImage is an image attachment inside an embed
type EmbedImage struct {
	URL string `json:"url"`
}

var (
	specialChars   = regexp.MustCompile("([`_*~()\\[\\]])")
	quoteMarkers   = regexp.MustCompile(`(?m)^(\s*)([>-])`)
	headingMarkers = regexp.MustCompile(`(?m)^(\s*)(#{1,6})\s+`)
	thumbnailSize  = regexp.MustCompile(`&name=small\b`)
)

// EscapeMarkdown backslash-escapes the characters Discord would otherwise
// render as formatting, plus leading blockquote, list, and heading markers
// at line start.
func EscapeMarkdown(text string) string {
	text = specialChars.ReplaceAllString(text, `\$1`)
	text = quoteMarkers.ReplaceAllString(text, `${1}\${2}`)
	text = headingMarkers.ReplaceAllString(text, `${1}\${2}`)
	return text
}

// BuildPayload maps a post record and the static embed styling into a
// webhook payload. The first media item becomes the primary embed's image;
// every further item gets its own embed block. A note field is appended when
// the post has a video with no directly playable URL, since Discord cannot
// preview those.
func BuildPayload(tweet twitter.Tweet, style config.EmbedConfig) *WebhookPayload {
	postURL := siteURL + tweet.ID

	primary := Embed{
		Title:     "View on X",
		URL:       postURL,
		Color:     style.Color,
		Timestamp: tweet.Timestamp,
		Author: &EmbedAuthor{
			Name:    tweet.Author.Name,
			URL:     siteURL + "/" + tweet.Author.Username,
			IconURL: tweet.Author.Avatar,
		},
		Footer: &EmbedFooter{
			Text: "@" + tweet.Author.Username,
		},
	}

	if tweet.Flags.HasVideo && !hasPlayableVideo(tweet) {
		primary.Fields = append(primary.Fields, Field{
			Name:  "Note",
			Value: `Post contains a video. To view it, click "View on X" above.`,
		})
	}

	var description strings.Builder
	for _, segment := range tweet.Content.Richtext {
		text := EscapeMarkdown(segment.Text)
		if segment.URL != "" {
			description.WriteString("[" + text + "](" + segment.URL + ")")
		} else {
			description.WriteString(text)
		}
	}
	primary.Description = description.String()

	embeds := []Embed{primary}
	for i, media := range tweet.Content.Media {
		image := &EmbedImage{URL: thumbnailSize.ReplaceAllString(media.Image, "")}
		if i == 0 {
			embeds[0].Image = image
			continue
		}
		embeds = append(embeds, Embed{URL: postURL, Image: image})
	}

	return &WebhookPayload{
		Username:  style.Username,
		AvatarURL: style.AvatarURL,
		Flags:     style.Flags,
		Embeds:    embeds,
	}
}

// hasPlayableVideo reports whether any video entry carries a direct http(s)
// URL rather than a blob reference
func hasPlayableVideo(tweet twitter.Tweet) bool {
	for _, media := range tweet.Content.Media {
		if media.Type == twitter.MediaVideo && strings.HasPrefix(media.Video, "http") {
			return true
		}
	}
	return false
}
