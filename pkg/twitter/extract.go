package twitter

import (
	"regexp"
	"strings"
)

const siteOrigin = "https://twitter.com"

var repostPattern = regexp.MustCompile(`\s+reposted$`)

// Extract builds a Tweet from one rendered post element. It never fails the
// caller: every sub-probe that misses leaves the corresponding field at its
// zero value.
func Extract(el Element) Tweet {
	var tweet Tweet

	if labels := el.Query(selRepostLabel); len(labels) > 0 {
		if text, ok := labels[0].Text(); ok && repostPattern.MatchString(text) {
			tweet.Flags.IsRepost = true
		}
	}

	if labels := el.Query(selPinnedLabel); len(labels) > 0 {
		if text, ok := labels[0].Text(); ok && text == "Pinned" {
			tweet.Flags.IsPinned = true
		}
	}

	if avatars := el.Query(selAuthorAvatar); len(avatars) > 0 {
		if src, ok := avatars[0].Attr("src"); ok {
			tweet.Author.Avatar = src
		}
	}

	if names := el.Query(selAuthorName); len(names) > 0 {
		if text, ok := names[0].Text(); ok {
			tweet.Author.Name = text
		}
	}

	if handles := el.Query(selAuthorUsername); len(handles) > 0 {
		if text, ok := handles[0].Text(); ok {
			tweet.Author.Username = strings.TrimPrefix(text, "@")
		}
	}

	// The permalink enclosing the timestamp element carries the post id
	if links := el.Query(selPostLinks); len(links) > 0 {
		if href, ok := links[len(links)-1].Attr("href"); ok {
			tweet.ID = href
		}
	}

	if times := el.Query(selTimestamp); len(times) > 0 {
		if datetime, ok := times[0].Attr("datetime"); ok {
			tweet.Timestamp = datetime
		}
	}

	tweet.Content = extractContent(el)

	for _, media := range el.Query(selMedia) {
		src, _ := media.Attr("src")

		// A poster attribute marks a video element. The probe is bounded;
		// a timeout reads the same as the attribute being absent.
		if poster, ok := media.Attr("poster"); ok {
			tweet.Flags.HasVideo = true
			tweet.Content.Media = append(tweet.Content.Media, Media{
				Type:  MediaVideo,
				Video: src,
				Image: poster,
			})
		} else {
			tweet.Flags.HasImage = true
			tweet.Content.Media = append(tweet.Content.Media, Media{
				Type:  MediaImage,
				Image: src,
			})
		}
	}

	return tweet
}

// extractContent walks the ordered children of the body text region. Each
// child yields one segment per embedded link, or an alt-text segment for
// inline image glyphs, or a plain text segment. Content.Text accumulates
// every segment's text in the same order.
func extractContent(el Element) Content {
	var content Content

	for _, child := range el.Query(selTextChildren) {
		if anchors := child.Query("a"); len(anchors) > 0 {
			for _, anchor := range anchors {
				text, _ := anchor.Text()
				segment := Segment{Text: text}
				if href, ok := anchor.Attr("href"); ok {
					segment.URL = ResolveURL(href)
				}
				content.Text += segment.Text
				content.Richtext = append(content.Richtext, segment)
			}
			continue
		}

		if alt, ok := child.Attr("alt"); ok {
			content.Text += alt
			content.Richtext = append(content.Richtext, Segment{Text: alt})
			continue
		}

		text, _ := child.Text()
		content.Text += text
		content.Richtext = append(content.Richtext, Segment{Text: text})
	}

	return content
}

// ResolveURL rewrites the URL forms found in post bodies into absolute ones:
// absolute http(s) URLs pass through, protocol-relative URLs get https:,
// root-relative paths get the site origin, and anything else is treated as a
// bare path segment under the site.
func ResolveURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return siteOrigin + raw
	default:
		return siteOrigin + "/" + raw
	}
}
