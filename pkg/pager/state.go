package pager

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/gh-trending-feed/pkg/search"
)

// Mode selects how loaded pages are combined into Items.
type Mode string

const (
	// ModeReplace keeps only the most recently loaded page.
	ModeReplace Mode = "replace"

	// ModeAccumulate appends every loaded page.
	ModeAccumulate Mode = "accumulate"
)

// ParseMode converts a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeReplace, "":
		return ModeReplace, nil
	case ModeAccumulate:
		return ModeAccumulate, nil
	default:
		return "", fmt.Errorf("unknown pager mode %q (want replace or accumulate)", s)
	}
}

// LoadState is an immutable snapshot of a controller session.
// Items is shared between snapshots and must not be modified.
type LoadState struct {
	Mode      Mode                `json:"mode"`
	Items     []search.Repository `json:"items"`
	Page      int                 `json:"page"`
	Loading   bool                `json:"loading"`
	Err       string              `json:"error,omitempty"`
	Exhausted bool                `json:"exhausted"`

	// Loaded is true once a page has loaded successfully in this session.
	Loaded bool `json:"loaded"`

	Session string `json:"session"`
	Query   string `json:"query"`
}

// Next returns the page a forward load targets.
func (s LoadState) Next() int {
	if s.Mode == ModeAccumulate && !s.Loaded {
		return 1
	}
	return s.Page + 1
}

// CanPrev reports whether backward navigation is possible.
func (s LoadState) CanPrev() bool {
	return s.Mode == ModeReplace && s.Page > 1 && !s.Loading
}

// CanNext reports whether a forward load would be issued.
func (s LoadState) CanNext() bool {
	return !s.Loading && !s.Exhausted
}

// DropReason says why a load request was ignored.
type DropReason string

const (
	DropNone        DropReason = ""
	DropLoading     DropReason = "loading"
	DropExhausted   DropReason = "exhausted"
	DropInvalidPage DropReason = "invalid_page"
	DropNotNext     DropReason = "not_next"
)

// Allow reports whether a load of page n may be issued from s.
func (s LoadState) Allow(n int) (bool, DropReason) {
	if n < 1 {
		return false, DropInvalidPage
	}
	if s.Loading {
		return false, DropLoading
	}

	switch s.Mode {
	case ModeAccumulate:
		if s.Exhausted {
			return false, DropExhausted
		}
		if n != s.Next() {
			return false, DropNotNext
		}
	default:
		if n > s.Page && s.Exhausted {
			return false, DropExhausted
		}
	}
	return true, DropNone
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// SessionStarted begins a new session with a freshly pinned query.
type SessionStarted struct {
	Session string
	Query   string
}

// LoadRequested marks a page request as issued.
type LoadRequested struct {
	Page int
}

// LoadSucceeded carries a settled page.
type LoadSucceeded struct {
	Page     int
	PageSize int
	Items    []search.Repository
}

// LoadFailed carries the message of a failed page request.
type LoadFailed struct {
	Page int
	Err  string
}

func (SessionStarted) event() {}
func (LoadRequested) event()  {}
func (LoadSucceeded) event()  {}
func (LoadFailed) event()     {}

// Reduce returns the state that follows s after ev. It never modifies s.
// A LoadRequested that Allow rejects leaves the state unchanged.
func Reduce(s LoadState, ev Event) LoadState {
	switch ev := ev.(type) {
	case SessionStarted:
		return LoadState{
			Mode:    s.Mode,
			Items:   []search.Repository{},
			Page:    1,
			Session: ev.Session,
			Query:   ev.Query,
		}

	case LoadRequested:
		if ok, _ := s.Allow(ev.Page); !ok {
			return s
		}
		s.Loading = true
		s.Err = ""
		return s

	case LoadSucceeded:
		s.Loading = false
		s.Err = ""
		s.Page = ev.Page
		s.Loaded = true
		s.Exhausted = len(ev.Items) < ev.PageSize
		if s.Mode == ModeAccumulate {
			s.Items = appendUnique(s.Items, ev.Items)
		} else {
			s.Items = append([]search.Repository{}, ev.Items...)
		}
		return s

	case LoadFailed:
		s.Loading = false
		s.Err = ev.Err
		return s
	}
	return s
}

// appendUnique returns a new slice holding existing followed by the items
// of page whose IDs are not present yet.
func appendUnique(existing, page []search.Repository) []search.Repository {
	seen := make(map[int64]struct{}, len(existing)+len(page))
	out := make([]search.Repository, 0, len(existing)+len(page))
	for _, item := range existing {
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	for _, item := range page {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
