package twitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeFeed serves a scripted sequence of render states, one per pass
type fakeFeed struct {
	passes  [][]*fakeElement
	pass    int
	scrolls int
}

func (f *fakeFeed) Settle(ctx context.Context) {}

func (f *fakeFeed) Posts() []Element {
	idx := f.pass
	if idx >= len(f.passes) {
		idx = len(f.passes) - 1
	}
	f.pass++
	elements := make([]Element, 0, len(f.passes[idx]))
	for _, el := range f.passes[idx] {
		elements = append(elements, el)
	}
	return elements
}

func (f *fakeFeed) ScrollToBottom() error {
	f.scrolls++
	return nil
}

func postEl(id, name string) *fakeElement {
	return &fakeElement{
		children: map[string][]*fakeElement{
			selPostLinks: {{attrs: map[string]string{"href": id}}},
			selAuthorName: {textEl(name)},
		},
	}
}

func ids(tweets []Tweet) []string {
	out := make([]string, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, t.ID)
	}
	return out
}

func TestCollectStopsAtMinimum(t *testing.T) {
	feed := &fakeFeed{passes: [][]*fakeElement{
		{postEl("/a/status/1", ""), postEl("/a/status/2", "")},
		{postEl("/a/status/1", ""), postEl("/a/status/2", ""), postEl("/a/status/3", "")},
	}}

	tweets := Collect(context.Background(), feed, 3, 10)

	assert.Equal(t, []string{"/a/status/1", "/a/status/2", "/a/status/3"}, ids(tweets))
	assert.Equal(t, 1, feed.scrolls, "only the non-terminal pass scrolls")
}

func TestCollectStallTermination(t *testing.T) {
	// Three unique posts, then the feed stops producing new ones
	feed := &fakeFeed{passes: [][]*fakeElement{
		{postEl("/a/status/1", ""), postEl("/a/status/2", ""), postEl("/a/status/3", "")},
		{postEl("/a/status/1", ""), postEl("/a/status/2", ""), postEl("/a/status/3", "")},
	}}

	tweets := Collect(context.Background(), feed, 10, 50)

	assert.Len(t, tweets, 3, "stall termination must return what was found")
}

func TestCollectEmptyFeed(t *testing.T) {
	feed := &fakeFeed{passes: [][]*fakeElement{{}}}

	tweets := Collect(context.Background(), feed, 5, 10)

	assert.Empty(t, tweets)
	assert.Equal(t, 0, feed.scrolls)
}

func TestCollectLastSeenWinsKeepsOrder(t *testing.T) {
	feed := &fakeFeed{passes: [][]*fakeElement{
		{postEl("/a/status/1", "old name"), postEl("/a/status/2", "")},
		{postEl("/a/status/1", "new name"), postEl("/a/status/2", ""), postEl("/a/status/3", "")},
	}}

	tweets := Collect(context.Background(), feed, 3, 10)

	assert.Equal(t, []string{"/a/status/1", "/a/status/2", "/a/status/3"}, ids(tweets))
	assert.Equal(t, "new name", tweets[0].Author.Name, "later duplicate overwrites the record")
}

func TestCollectDropsPostsWithoutID(t *testing.T) {
	feed := &fakeFeed{passes: [][]*fakeElement{
		{postEl("/a/status/1", ""), {}},
	}}

	tweets := Collect(context.Background(), feed, 5, 10)

	assert.Equal(t, []string{"/a/status/1"}, ids(tweets))
}

func TestCollectMaxPassGuard(t *testing.T) {
	// A pathological feed that always yields one brand-new post
	grow := make([][]*fakeElement, 0, 8)
	var current []*fakeElement
	for i := 0; i < 8; i++ {
		current = append(current, postEl(string(rune('a'+i)), ""))
		grow = append(grow, append([]*fakeElement(nil), current...))
	}
	feed := &fakeFeed{passes: grow}

	tweets := Collect(context.Background(), feed, 1000, 4)

	assert.Len(t, tweets, 4, "the pass guard bounds a feed that never stalls")
}

func TestCollectHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed := &fakeFeed{passes: [][]*fakeElement{
		{postEl("/a/status/1", "")},
	}}

	tweets := Collect(ctx, feed, 5, 10)
	assert.Empty(t, tweets)
}
