package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ResponseToEntry converts an HTTP response to a CacheEntry.
// The response body is read and restored for the caller.
func ResponseToEntry(resp *http.Response) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := &CacheEntry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   time.Now(),
	}

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// ShouldMakeConditionalRequest reports whether the entry carries a validator.
func ShouldMakeConditionalRequest(entry *CacheEntry) bool {
	return entry.HasValidator()
}

// AddConditionalHeaders adds If-None-Match (preferred) or If-Modified-Since.
func AddConditionalHeaders(req *http.Request, entry *CacheEntry) {
	if entry == nil || req == nil {
		return
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}

// EntryToResponse rebuilds an HTTP response from a stored entry.
// Headers from the fresh 304 answer, when given, override stored ones.
func EntryToResponse(entry *CacheEntry, fresh http.Header) *http.Response {
	header := entry.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	for name, values := range fresh {
		if name == "Content-Length" {
			continue
		}
		header[name] = append([]string(nil), values...)
	}

	statusCode := entry.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	return &http.Response{
		StatusCode:    statusCode,
		Status:        fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
	}
}
