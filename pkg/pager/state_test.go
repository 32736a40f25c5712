package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"replace", ModeReplace, false},
		{"", ModeReplace, false},
		{" Accumulate ", ModeAccumulate, false},
		{"infinite", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadState_Next(t *testing.T) {
	assert.Equal(t, 1, LoadState{Mode: ModeAccumulate, Page: 1}.Next(), "accumulate before first load")
	assert.Equal(t, 2, LoadState{Mode: ModeAccumulate, Page: 1, Loaded: true}.Next())
	assert.Equal(t, 2, LoadState{Mode: ModeReplace, Page: 1}.Next())
	assert.Equal(t, 5, LoadState{Mode: ModeReplace, Page: 4, Loaded: true}.Next())
}

func TestLoadState_Allow(t *testing.T) {
	tests := []struct {
		name   string
		state  LoadState
		page   int
		ok     bool
		reason DropReason
	}{
		{"page zero", LoadState{Mode: ModeReplace, Page: 1}, 0, false, DropInvalidPage},
		{"negative page", LoadState{Mode: ModeAccumulate, Page: 1}, -1, false, DropInvalidPage},
		{"loading", LoadState{Mode: ModeReplace, Page: 1, Loading: true}, 2, false, DropLoading},
		{"replace forward", LoadState{Mode: ModeReplace, Page: 1, Loaded: true}, 2, true, DropNone},
		{"replace jump", LoadState{Mode: ModeReplace, Page: 1, Loaded: true}, 7, true, DropNone},
		{"replace reload", LoadState{Mode: ModeReplace, Page: 3, Loaded: true, Exhausted: true}, 3, true, DropNone},
		{"replace backward when exhausted", LoadState{Mode: ModeReplace, Page: 3, Loaded: true, Exhausted: true}, 2, true, DropNone},
		{"replace forward when exhausted", LoadState{Mode: ModeReplace, Page: 3, Loaded: true, Exhausted: true}, 4, false, DropExhausted},
		{"accumulate first", LoadState{Mode: ModeAccumulate, Page: 1}, 1, true, DropNone},
		{"accumulate next", LoadState{Mode: ModeAccumulate, Page: 2, Loaded: true}, 3, true, DropNone},
		{"accumulate reload", LoadState{Mode: ModeAccumulate, Page: 2, Loaded: true}, 2, false, DropNotNext},
		{"accumulate skip", LoadState{Mode: ModeAccumulate, Page: 2, Loaded: true}, 4, false, DropNotNext},
		{"accumulate exhausted", LoadState{Mode: ModeAccumulate, Page: 2, Loaded: true, Exhausted: true}, 3, false, DropExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := tt.state.Allow(tt.page)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestReduce_SessionStarted(t *testing.T) {
	s := LoadState{
		Mode:      ModeAccumulate,
		Items:     repos(1, 2, 3),
		Page:      4,
		Err:       "boom",
		Exhausted: true,
		Loaded:    true,
		Session:   "old",
	}

	got := Reduce(s, SessionStarted{Session: "new", Query: "created:>2026-10-05"})

	assert.Equal(t, LoadState{
		Mode:    ModeAccumulate,
		Items:   repos(),
		Page:    1,
		Session: "new",
		Query:   "created:>2026-10-05",
	}, got)
	assert.Len(t, s.Items, 3, "input state must not change")
}

func TestReduce_LoadRequested(t *testing.T) {
	s := LoadState{Mode: ModeReplace, Page: 1, Err: "previous failure", Items: repos(1)}

	got := Reduce(s, LoadRequested{Page: 2})
	assert.True(t, got.Loading)
	assert.Empty(t, got.Err, "a new attempt clears the error")
	assert.Equal(t, 1, got.Page, "page only moves on success")
	assert.Equal(t, s.Items, got.Items)

	// Rejected requests leave the state untouched.
	assert.Equal(t, got, Reduce(got, LoadRequested{Page: 3}))
	assert.Equal(t, s, Reduce(s, LoadRequested{Page: 0}))
}

func TestReduce_LoadSucceeded_Replace(t *testing.T) {
	s := LoadState{Mode: ModeReplace, Page: 1, Loading: true, Items: repos(1, 2, 3), Loaded: true}

	got := Reduce(s, LoadSucceeded{Page: 2, PageSize: 3, Items: repos(4, 5, 6)})

	assert.Equal(t, []int64{4, 5, 6}, ids(got.Items))
	assert.Equal(t, 2, got.Page)
	assert.False(t, got.Loading)
	assert.False(t, got.Exhausted, "full page")

	got = Reduce(got, LoadSucceeded{Page: 3, PageSize: 3, Items: repos(7)})
	assert.Equal(t, []int64{7}, ids(got.Items))
	assert.True(t, got.Exhausted, "short page")
}

func TestReduce_LoadSucceeded_Accumulate(t *testing.T) {
	s := LoadState{Mode: ModeAccumulate, Page: 1, Loading: true, Items: repos(1, 2, 3), Loaded: true}

	got := Reduce(s, LoadSucceeded{Page: 2, PageSize: 3, Items: repos(3, 4, 5)})

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(got.Items), "duplicate IDs are dropped")
	assert.False(t, got.Exhausted, "exhaustion uses the raw page size")
	assert.Equal(t, []int64{1, 2, 3}, ids(s.Items), "input state must not change")

	got = Reduce(got, LoadSucceeded{Page: 3, PageSize: 3, Items: nil})
	assert.True(t, got.Exhausted)
	assert.Equal(t, 3, got.Page)
	assert.Len(t, got.Items, 5)
}

func TestReduce_LoadFailed(t *testing.T) {
	s := LoadState{Mode: ModeReplace, Page: 2, Loading: true, Items: repos(4, 5), Loaded: true}

	got := Reduce(s, LoadFailed{Page: 3, Err: "search API error: 500 Internal Server Error"})

	assert.False(t, got.Loading)
	assert.Equal(t, "search API error: 500 Internal Server Error", got.Err)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, s.Items, got.Items)
	assert.False(t, got.Exhausted)
}
