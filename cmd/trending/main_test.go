package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Sternrassler/gh-trending-feed/internal/testutil"
	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/Sternrassler/gh-trending-feed/pkg/pagination"
	"github.com/Sternrassler/gh-trending-feed/pkg/search"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDumpController(t *testing.T, mock *testutil.MockSearchAPI, pageSize int) *pager.Controller {
	t.Helper()

	cfg := search.DefaultConfig(nil, "test/1.0")
	cfg.BaseURL = mock.URL()
	cfg.RateLimit = 0
	client, err := search.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	pcfg := pager.DefaultConfig()
	pcfg.Mode = pager.ModeAccumulate
	pcfg.PageSize = pageSize
	pcfg.Logger = &logger

	ctrl, err := pager.New(client, pcfg)
	require.NoError(t, err)
	return ctrl
}

func TestDumpFeed_AllPages(t *testing.T) {
	mock := testutil.NewMockSearchAPI(75)
	defer mock.Close()

	var out bytes.Buffer
	require.NoError(t, dumpFeed(context.Background(), newDumpController(t, mock, 30), 0, &out))

	var repos []search.Repository
	require.NoError(t, json.Unmarshal(out.Bytes(), &repos))
	require.Len(t, repos, 75)
	assert.Equal(t, int64(1), repos[0].ID)
	assert.Equal(t, int64(75), repos[74].ID)
	assert.Equal(t, "owner-75/repo-75", repos[74].FullName)
	assert.Equal(t, []int{1, 2, 3}, mock.GetPagesRequested())
}

func TestDumpFeed_PageLimit(t *testing.T) {
	mock := testutil.NewMockSearchAPI(300)
	defer mock.Close()

	var out bytes.Buffer
	require.NoError(t, dumpFeed(context.Background(), newDumpController(t, mock, 30), 2, &out))

	var repos []search.Repository
	require.NoError(t, json.Unmarshal(out.Bytes(), &repos))
	assert.Len(t, repos, 60)
}

func TestDumpFeed_PartialOnError(t *testing.T) {
	mock := testutil.NewMockSearchAPI(90)
	defer mock.Close()
	mock.FailPage(2, testutil.NewServerErrorResponse())

	var out bytes.Buffer
	err := dumpFeed(context.Background(), newDumpController(t, mock, 30), 0, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pagination.ErrPageFailed))

	var repos []search.Repository
	require.NoError(t, json.Unmarshal(out.Bytes(), &repos))
	assert.Len(t, repos, 30, "the first page is still written")
}

func TestPageLimit(t *testing.T) {
	assert.Equal(t, 34, pageLimit(0, 30))
	assert.Equal(t, 10, pageLimit(0, 100))
	assert.Equal(t, 2, pageLimit(2, 30))
	assert.Equal(t, 10, pageLimit(50, 100), "never past the search result ceiling")
}

func TestDumpFeed_StopsAtResultCeiling(t *testing.T) {
	mock := testutil.NewMockSearchAPI(5000)
	defer mock.Close()

	var out bytes.Buffer
	err := dumpFeed(context.Background(), newDumpController(t, mock, 100), pageLimit(0, 100), &out)
	require.NoError(t, err)

	var repos []search.Repository
	require.NoError(t, json.Unmarshal(out.Bytes(), &repos))
	assert.Len(t, repos, search.MaxResults)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, mock.GetPagesRequested())
}

func TestDumpFeed_ShortLastPageBeforeCeiling(t *testing.T) {
	mock := testutil.NewMockSearchAPI(5000)
	defer mock.Close()

	var out bytes.Buffer
	require.NoError(t, dumpFeed(context.Background(), newDumpController(t, mock, 30), pageLimit(0, 30), &out))

	var repos []search.Repository
	require.NoError(t, json.Unmarshal(out.Bytes(), &repos))
	assert.Len(t, repos, search.MaxResults, "page 34 holds the last 10 results")
}
