package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	lastMod := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	resp := &http.Response{
		StatusCode: 200,
		Header: http.Header{
			"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
			"Etag":          []string{`"abc123"`},
			"Content-Type":  []string{"application/json"},
		},
		Body: io.NopCloser(bytes.NewReader([]byte(`{"items": []}`))),
	}

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if string(entry.Data) != `{"items": []}` {
		t.Errorf("Data = %s", entry.Data)
	}

	// Body must still be readable by the caller.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read restored body: %v", err)
	}
	if string(body) != `{"items": []}` {
		t.Errorf("restored body = %s", body)
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	tests := []struct {
		name      string
		entry     *CacheEntry
		wantETag  string
		wantSince bool
	}{
		{name: "etag preferred", entry: &CacheEntry{ETag: `"e"`, LastModified: time.Now()}, wantETag: `"e"`},
		{name: "last-modified fallback", entry: &CacheEntry{LastModified: time.Now()}, wantSince: true},
		{name: "nil entry", entry: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com/search/repositories", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since") != ""; got != tt.wantSince {
				t.Errorf("If-Modified-Since present = %v, want %v", got, tt.wantSince)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("ETag", `"abc123"`)
	headers.Set("X-RateLimit-Remaining", "9")

	entry := &CacheEntry{
		StatusCode: 200,
		Headers:    headers,
		Data:       []byte(`{"items": []}`),
	}

	fresh := http.Header{}
	fresh.Set("X-RateLimit-Remaining", "8")
	fresh.Set("Content-Length", "0")

	resp := EntryToResponse(entry, fresh)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("ETag") != `"abc123"` {
		t.Errorf("ETag = %q", resp.Header.Get("ETag"))
	}
	if resp.Header.Get("X-RateLimit-Remaining") != "8" {
		t.Errorf("fresh header should win, got %q", resp.Header.Get("X-RateLimit-Remaining"))
	}
	if resp.Header.Get("Content-Length") != "" {
		t.Errorf("Content-Length from 304 must not be copied")
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"items": []}` {
		t.Errorf("body = %s", body)
	}
	if entry.Headers.Get("X-RateLimit-Remaining") != "9" {
		t.Error("stored headers must not be mutated")
	}
}
