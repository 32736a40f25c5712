package pager

import (
	"context"
	"sync"

	"github.com/Sternrassler/gh-trending-feed/pkg/search"
)

// fakeFetcher serves total synthetic repositories and records every call.
type fakeFetcher struct {
	mu    sync.Mutex
	total int
	calls []search.PageQuery

	// errs fails requests for a page until cleared.
	errs map[int]error

	// pages overrides the items returned for a page.
	pages map[int][]search.Repository

	// When gate is set each call announces itself on started and then
	// waits for gate (or ctx) before answering.
	started chan int
	gate    chan struct{}
}

func newFakeFetcher(total int) *fakeFetcher {
	return &fakeFetcher{
		total: total,
		errs:  make(map[int]error),
		pages: make(map[int][]search.Repository),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, pq search.PageQuery) (*search.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pq)
	started, gate := f.started, f.gate
	f.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- pq.Page
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[pq.Page]; err != nil {
		return nil, err
	}

	items, ok := f.pages[pq.Page]
	if !ok {
		items = []search.Repository{}
		for i := (pq.Page - 1) * pq.PerPage; i < pq.Page*pq.PerPage && i < f.total; i++ {
			items = append(items, repo(int64(i+1)))
		}
	}

	return &search.Page{
		Number:     pq.Page,
		PerPage:    pq.PerPage,
		TotalCount: f.total,
		Items:      items,
	}, nil
}

// hold makes subsequent calls block until release is called.
func (f *fakeFetcher) hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = make(chan int, 16)
	f.gate = make(chan struct{})
}

func (f *fakeFetcher) release() {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

func (f *fakeFetcher) failPage(page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[page] = err
}

func (f *fakeFetcher) clearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = make(map[int]error)
}

func (f *fakeFetcher) setPage(page int, items []search.Repository) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[page] = items
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) call(i int) search.PageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func repo(id int64) search.Repository {
	return search.Repository{ID: id, Name: "repo", FullName: "owner/repo"}
}

func repos(ids ...int64) []search.Repository {
	out := make([]search.Repository, 0, len(ids))
	for _, id := range ids {
		out = append(out, repo(id))
	}
	return out
}

func ids(items []search.Repository) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
