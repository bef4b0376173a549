package twitter

// X.com DOM selectors, isolated here because the markup changes frequently.
// Update these when extraction breaks; everything else probes optionally and
// degrades to empty fields.
const (
	// Profile timeline post elements
	selTimelinePosts = "section > h1 + div > div > div > div > div > article"

	// Label region above the post body
	selRepostLabel = "div > div > div:nth-of-type(1) a > span"
	selPinnedLabel = "div > div > div:nth-of-type(1) div > span"

	// Author block
	selAuthorAvatar   = "div > div > div:nth-of-type(2) > div:nth-of-type(1) img"
	selAuthorName     = "div > div > div:nth-of-type(2) > div:nth-of-type(2) > div > div > div > div > div > div:nth-of-type(1) > div > a > div > div > span > span"
	selAuthorUsername = "div > div > div:nth-of-type(2) > div:nth-of-type(2) > div > div > div > div > div > div:nth-of-type(2) > div > div > a > div > span"

	// Permalink anchors; the last one encloses the timestamp element
	selPostLinks = "div > div > div:nth-of-type(2) > div:nth-of-type(2) > div > div > div > div > div > div:nth-of-type(2) > div > div > a"
	selTimestamp = "div > div > div:nth-of-type(2) > div:nth-of-type(2) > div > div > div > div > div > div:nth-of-type(2) > div > div > a > time"

	// Ordered children of the body text region
	selTextChildren = "div > div > div:nth-of-type(2) > div:nth-of-type(2) > div:nth-of-type(2) > div > *"

	// Media elements under the attachment region, in all structural variants
	selMedia = "div > div > div:nth-of-type(2) > div:nth-of-type(2) > div:nth-of-type(3) > div > div > div > div > div > div a > div > div > img, " +
		"div > div > div:nth-of-type(2) > div:nth-of-type(2) > div:nth-of-type(3) > div > div > div > div > div > div > a > div > div div > img, " +
		"div > div > div:nth-of-type(2) > div:nth-of-type(2) > div:nth-of-type(3) div > video"

	// Login flow
	selLoginInput = "input"
	selSpan       = "span"
)
