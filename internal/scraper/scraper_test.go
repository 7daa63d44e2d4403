package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/markup"
	"github.com/ibeckermayer/xdrip/internal/types"
)

// fakePage serves one list snapshot and one height per scroll count
type fakePage struct {
	passes   [][][]string
	heights  []int64
	scrolls  int
	visited  string
	ready    bool
	listErr  error
	navigate error
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.visited = url
	return f.navigate
}

func (f *fakePage) WaitFor(context.Context, markup.Role) (bool, error) {
	return f.ready, nil
}

func (f *fakePage) ListItems(context.Context) ([][]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.passes[min(f.scrolls, len(f.passes)-1)], nil
}

func (f *fakePage) ScrollToBottom(context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakePage) ScrollHeight(context.Context) (int64, error) {
	return f.heights[min(f.scrolls, len(f.heights)-1)], nil
}

var (
	alice = []string{"Alice@dev", "@alice", "フォローされています", "hi"}
	bob   = []string{"Bob", "@bob"}
	carol = []string{"Carol｜PM", "@carol", "フォロー中", "product", "person"}
	junk  = []string{"ポストする"}
)

func newTestCollector(page Page, opts Options) *Collector {
	opts.ScrollSettle = 30 * time.Millisecond
	opts.PollInterval = 5 * time.Millisecond
	return New(page, opts)
}

func TestCollectDedupesOverlappingPasses(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		ready: true,
		passes: [][][]string{
			{alice, junk, bob},
			{bob, carol},
			{carol},
		},
		heights: []int64{100, 200, 300, 300},
	}

	var discovered []string
	c := newTestCollector(page, Options{
		FollowersURL: func(h string) string { return "https://x.com/" + h + "/followers" },
		OnRecord:     func(r types.FollowerRecord) { discovered = append(discovered, r.UserID) },
	})

	got, err := c.Collect(context.Background(), "me")
	require.NoError(t, err)

	assert.Equal(t, "https://x.com/me/followers", page.visited)
	assert.Equal(t, []types.FollowerRecord{
		{UserID: "alice", Name: "Alice@dev", Nickname: "Alice", Profile: "hi"},
		{UserID: "bob", Name: "Bob", Nickname: "Bob"},
		{UserID: "carol", Name: "Carol｜PM", Nickname: "Carol", Profile: "product person"},
	}, got)
	assert.Equal(t, []string{"alice", "bob", "carol"}, discovered)
}

func TestCollectStopsAfterTwoIdenticalHeights(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		ready:   true,
		passes:  [][][]string{{alice}},
		heights: []int64{100, 200, 200, 900},
	}

	c := newTestCollector(page, Options{})
	got, err := c.Collect(context.Background(), "me")
	require.NoError(t, err)

	assert.Equal(t, 2, page.scrolls)
	assert.Len(t, got, 1)
}

func TestCollectNoMatchingMarkup(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		passes:  [][][]string{{junk}},
		heights: []int64{100},
	}

	got, err := newTestCollector(page, Options{}).Collect(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, page.scrolls)
}

func TestCollectSnapshotsEveryPass(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		ready:   true,
		passes:  [][][]string{{alice}, {alice, bob}},
		heights: []int64{100, 200, 200},
	}

	var sizes []int
	c := newTestCollector(page, Options{
		Snapshot: func(recs []types.FollowerRecord) error {
			sizes = append(sizes, len(recs))
			return nil
		},
	})

	_, err := c.Collect(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestCollectReturnsPartialOnError(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk full")
	page := &fakePage{
		ready:   true,
		passes:  [][][]string{{alice, bob}},
		heights: []int64{100, 200},
	}

	c := newTestCollector(page, Options{
		Snapshot: func([]types.FollowerRecord) error { return errDisk },
	})

	got, err := c.Collect(context.Background(), "me")
	assert.ErrorIs(t, err, errDisk)
	assert.Len(t, got, 2)
	assert.Zero(t, page.scrolls)
}

func TestCollectNavigationFailure(t *testing.T) {
	t.Parallel()

	errNav := errors.New("net::ERR_CONNECTION_REFUSED")
	page := &fakePage{navigate: errNav, heights: []int64{0}, passes: [][][]string{{}}}

	_, err := newTestCollector(page, Options{}).Collect(context.Background(), "me")
	assert.ErrorIs(t, err, errNav)
}
