package twitter

import (
	"context"

	"xwatch/pkg/logger"
)

// Feed is one scrolling profile timeline
type Feed interface {
	// Settle waits for newly loaded posts to render
	Settle(ctx context.Context)
	// Posts returns every currently rendered post element, in page order
	Posts() []Element
	// ScrollToBottom triggers the next page of the timeline
	ScrollToBottom() error
}

// Collect drives pagination against a profile feed until it has accumulated
// minimum unique posts, a full pass adds no new post (a stalled or exhausted
// feed), or maxPasses is reached. Posts are merged by id: a post re-rendered
// on a later pass overwrites the earlier record but keeps its original
// position. Records the extractor could not find an id for are dropped, as
// they can neither be deduplicated nor tracked in history.
func Collect(ctx context.Context, feed Feed, minimum, maxPasses int) []Tweet {
	log := logger.GetLogger()

	var order []string
	byID := make(map[string]Tweet)

	for pass := 0; pass < maxPasses; pass++ {
		if ctx.Err() != nil {
			break
		}

		feed.Settle(ctx)

		added := 0
		for _, el := range feed.Posts() {
			tweet := Extract(el)
			if tweet.ID == "" {
				continue
			}
			if _, seen := byID[tweet.ID]; !seen {
				order = append(order, tweet.ID)
				added++
			}
			byID[tweet.ID] = tweet
		}

		log.DebugWithFields("collection pass", map[string]interface{}{
			"pass":   pass + 1,
			"unique": len(order),
			"added":  added,
		})

		if len(order) >= minimum || added == 0 {
			break
		}

		if err := feed.ScrollToBottom(); err != nil {
			log.WithError(err).Warn("scroll failed, stopping collection")
			break
		}
	}

	tweets := make([]Tweet, 0, len(order))
	for _, id := range order {
		tweets = append(tweets, byID[id])
	}
	return tweets
}
