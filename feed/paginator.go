package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/hel3-14t/helpmate-api/schema"
)

var (
	// ErrFetchInFlight is returned when a fetch of the same kind is still
	// outstanding for this paginator.
	ErrFetchInFlight = fmt.Errorf("a feed fetch is already in flight")

	// ErrStaleFetch is returned when a fetch completes after the paginator
	// has been reset; its result is discarded, not merged.
	ErrStaleFetch = fmt.Errorf("fetch result discarded after reset")
)

// Fetcher retrieves one page of help requests starting at the given offset.
// Pages are ordered by creation order and may contain any status; the feed
// filters to REQUESTED for display.
type Fetcher interface {
	FetchOpenRequests(ctx context.Context, offset int) ([]schema.HelpRequest, error)
}

// Paginator maintains the cumulative, de-duplicated working set of help
// requests across successive page fetches for one viewer.
type Paginator struct {
	fetcher Fetcher

	mu             sync.Mutex
	items          []schema.HelpRequest
	loadingInitial bool
	loadingMore    bool
	generation     uint64
}

func NewPaginator(fetcher Fetcher) *Paginator {
	return &Paginator{
		fetcher: fetcher,
	}
}

// LoadInitial fetches the first page at offset 0 and replaces the working
// set with it. A concurrent LoadInitial is suppressed with ErrFetchInFlight.
func (p *Paginator) LoadInitial(ctx context.Context) ([]schema.HelpRequest, error) {
	p.mu.Lock()
	if p.loadingInitial {
		p.mu.Unlock()
		return nil, ErrFetchInFlight
	}
	p.loadingInitial = true
	gen := p.generation
	p.mu.Unlock()

	page, err := p.fetcher.FetchOpenRequests(ctx, 0)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadingInitial = false
	if err != nil {
		return nil, err
	}
	if gen != p.generation {
		return nil, ErrStaleFetch
	}

	p.items = Merge(nil, page)
	return p.snapshot(), nil
}

// LoadMore fetches the next page. The offset equals the count of
// currently-held REQUESTED items, not the raw merged list length, since
// filled and cancelled entries are excluded from the feed query's offset
// basis. A fetch of either kind still outstanding suppresses the call.
func (p *Paginator) LoadMore(ctx context.Context) ([]schema.HelpRequest, error) {
	p.mu.Lock()
	if p.loadingInitial || p.loadingMore {
		p.mu.Unlock()
		return nil, ErrFetchInFlight
	}
	p.loadingMore = true
	gen := p.generation
	offset := requestedCount(p.items)
	p.mu.Unlock()

	page, err := p.fetcher.FetchOpenRequests(ctx, offset)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadingMore = false
	if err != nil {
		return nil, err
	}
	if gen != p.generation {
		return nil, ErrStaleFetch
	}

	p.items = Merge(p.items, page)
	return p.snapshot(), nil
}

// Loading reports whether any fetch is outstanding.
func (p *Paginator) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadingInitial || p.loadingMore
}

// Remove drops one entry from the working set. This is a local projection
// change only; it never mutates backend state.
func (p *Paginator) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = Remove(p.items, id)
}

// Reconcile merges one fresh record back into the working set, typically
// after a mutation acknowledged by the backing store.
func (p *Paginator) Reconcile(request schema.HelpRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = Merge(p.items, []schema.HelpRequest{request})
}

// Reset clears the working set. Results of fetches still in flight at the
// time of the reset are discarded when they arrive.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.items = nil
}

// Items returns a copy of the current working set.
func (p *Paginator) Items() []schema.HelpRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Ranked returns the current working set ordered for display.
func (p *Paginator) Ranked(viewer *schema.Location) []RankedHelpRequest {
	return Rank(viewer, p.Items())
}

func (p *Paginator) snapshot() []schema.HelpRequest {
	items := make([]schema.HelpRequest, len(p.items))
	copy(items, p.items)
	return items
}

// Merge concatenates two pages without introducing duplicate ids. When the
// same id appears in both, the incoming (fresher) record wins while keeping
// its original position. The inputs are never modified.
func Merge(existing, incoming []schema.HelpRequest) []schema.HelpRequest {
	merged := make([]schema.HelpRequest, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.ID] = i
	}

	for _, r := range incoming {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
		} else {
			index[r.ID] = len(merged)
			merged = append(merged, r)
		}
	}

	return merged
}

// Remove returns a new list with the entry of the given id dropped.
func Remove(list []schema.HelpRequest, id string) []schema.HelpRequest {
	out := make([]schema.HelpRequest, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func requestedCount(list []schema.HelpRequest) int {
	count := 0
	for _, r := range list {
		if r.Status == schema.HELP_REQUESTED {
			count++
		}
	}
	return count
}
