package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hel3-14t/helpmate-api/schema"
)

// stubFetcher serves canned pages keyed by offset. When gate is set, every
// fetch signals started and then waits for the gate to be closed, which lets
// tests hold a fetch in flight.
type stubFetcher struct {
	mu      sync.Mutex
	pages   map[int][]schema.HelpRequest
	err     error
	offsets []int
	gate    chan struct{}
	started chan struct{}
}

func (f *stubFetcher) FetchOpenRequests(ctx context.Context, offset int) ([]schema.HelpRequest, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	gate := f.gate
	started := f.started
	err := f.err
	page := f.pages[offset]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *stubFetcher) fetchedOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.offsets))
	copy(out, f.offsets)
	return out
}

func openHelp(id string) schema.HelpRequest {
	return schema.HelpRequest{ID: id, Status: schema.HELP_REQUESTED}
}

func closedHelp(id string) schema.HelpRequest {
	return schema.HelpRequest{ID: id, Status: schema.HELP_FILLED}
}

func TestLoadInitial(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]schema.HelpRequest{
		0: {openHelp("a"), openHelp("b")},
	}}
	p := NewPaginator(fetcher)

	items, err := p.LoadInitial(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []int{0}, fetcher.fetchedOffsets())
	assert.False(t, p.Loading())
}

func TestLoadMoreOffsetCountsOpenItemsOnly(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]schema.HelpRequest{
		0: {openHelp("a"), closedHelp("b"), openHelp("c")},
		2: {openHelp("d")},
	}}
	p := NewPaginator(fetcher)

	_, err := p.LoadInitial(context.Background())
	assert.NoError(t, err)

	// two of the three held items are REQUESTED, so the next offset is 2,
	// not the raw merged length of 3
	items, err := p.LoadMore(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, []int{0, 2}, fetcher.fetchedOffsets())
}

func TestMergeDeduplicatesAndPrefersIncoming(t *testing.T) {
	b := openHelp("b")
	b.Description = "stale"
	bFresh := openHelp("b")
	bFresh.Description = "fresh"

	merged := Merge(
		[]schema.HelpRequest{openHelp("a"), b},
		[]schema.HelpRequest{bFresh, openHelp("c")},
	)

	assert.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
	assert.Equal(t, "fresh", merged[1].Description)
	assert.Equal(t, "c", merged[2].ID)
}

func TestRemove(t *testing.T) {
	list := []schema.HelpRequest{openHelp("a"), openHelp("b"), openHelp("c")}

	out := Remove(list, "b")

	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
	// the original list is untouched
	assert.Len(t, list, 3)
}

func TestPaginatorRemoveIsLocalOnly(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]schema.HelpRequest{
		0: {openHelp("a"), openHelp("b")},
	}}
	p := NewPaginator(fetcher)
	_, err := p.LoadInitial(context.Background())
	assert.NoError(t, err)

	p.Remove("a")

	items := p.Items()
	assert.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
	// no extra fetch was issued
	assert.Equal(t, []int{0}, fetcher.fetchedOffsets())
}

func TestDuplicateFetchSuppressed(t *testing.T) {
	fetcher := &stubFetcher{
		pages:   map[int][]schema.HelpRequest{0: {openHelp("a")}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := NewPaginator(fetcher)

	done := make(chan error, 1)
	go func() {
		_, err := p.LoadInitial(context.Background())
		done <- err
	}()
	<-fetcher.started

	assert.True(t, p.Loading())

	_, err := p.LoadInitial(context.Background())
	assert.Equal(t, ErrFetchInFlight, err)

	// LoadMore must not be issued while another fetch is outstanding
	_, err = p.LoadMore(context.Background())
	assert.Equal(t, ErrFetchInFlight, err)

	close(fetcher.gate)
	assert.NoError(t, <-done)
	assert.Equal(t, []int{0}, fetcher.fetchedOffsets())
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	fetcher := &stubFetcher{
		pages:   map[int][]schema.HelpRequest{0: {openHelp("a")}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := NewPaginator(fetcher)

	done := make(chan error, 1)
	go func() {
		_, err := p.LoadInitial(context.Background())
		done <- err
	}()
	<-fetcher.started

	p.Reset()
	close(fetcher.gate)

	assert.Equal(t, ErrStaleFetch, <-done)
	assert.Empty(t, p.Items())
}

func TestFetchErrorSurfacedAndRetryable(t *testing.T) {
	fetcher := &stubFetcher{
		pages: map[int][]schema.HelpRequest{0: {openHelp("a")}},
		err:   fmt.Errorf("network unreachable"),
	}
	p := NewPaginator(fetcher)

	_, err := p.LoadInitial(context.Background())
	assert.EqualError(t, err, "network unreachable")
	assert.Empty(t, p.Items())
	assert.False(t, p.Loading())

	// the caller retries by invoking the fetch again
	fetcher.mu.Lock()
	fetcher.err = nil
	fetcher.mu.Unlock()

	items, err := p.LoadInitial(context.Background())
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestReconcileUpdatesWorkingSet(t *testing.T) {
	fetcher := &stubFetcher{pages: map[int][]schema.HelpRequest{
		0: {openHelp("a"), openHelp("b")},
	}}
	p := NewPaginator(fetcher)
	_, err := p.LoadInitial(context.Background())
	assert.NoError(t, err)

	fresh := openHelp("b")
	fresh.Status = schema.HELP_FILLED
	p.Reconcile(fresh)

	items := p.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, schema.HELP_FILLED, items[1].Status)

	// the filled entry no longer counts toward the next offset
	fetcher.mu.Lock()
	fetcher.pages[1] = []schema.HelpRequest{openHelp("c")}
	fetcher.mu.Unlock()

	_, err = p.LoadMore(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1}, fetcher.fetchedOffsets())
}

func TestConcurrentLoadMoreSingleWinner(t *testing.T) {
	fetcher := &stubFetcher{
		pages:   map[int][]schema.HelpRequest{0: {openHelp("a")}},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	p := NewPaginator(fetcher)

	results := make(chan error, 2)
	go func() {
		_, err := p.LoadMore(context.Background())
		results <- err
	}()
	<-fetcher.started
	go func() {
		_, err := p.LoadMore(context.Background())
		results <- err
	}()

	// the second call is rejected without touching the fetcher
	assert.Equal(t, ErrFetchInFlight, <-results)
	close(fetcher.gate)
	assert.NoError(t, <-results)

	select {
	case <-fetcher.started:
		t.Fatal("suppressed fetch reached the fetcher")
	case <-time.After(50 * time.Millisecond):
	}
}
