package twitter

// Tweet is the structured record extracted from one rendered post element.
// Any field the DOM did not yield stays at its zero value.
type Tweet struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"` // ISO-8601, empty when not extractable
	Author    Author  `json:"author"`
	Flags     Flags   `json:"flags"`
	Content   Content `json:"content"`
}

// Author identifies who the rendered post is attributed to
type Author struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

// Flags classify the post and its media
type Flags struct {
	IsRepost bool `json:"is_repost"`
	IsPinned bool `json:"is_pinned"`
	HasImage bool `json:"has_image"`
	HasVideo bool `json:"has_video"`
}

// Content holds the post body. Text is always the concatenation, in document
// order, of every richtext segment's text.
type Content struct {
	Text     string    `json:"text"`
	Richtext []Segment `json:"richtext"`
	Media    []Media   `json:"media"`
}

// Segment is one run of body text, optionally carrying a link target
type Segment struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// MediaType distinguishes the two media element classes
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is one image or video attached to the post. For videos, Image holds
// the poster frame.
type Media struct {
	Type  MediaType `json:"type"`
	Image string    `json:"image"`
	Video string    `json:"video,omitempty"`
}
