package search

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultPageSize matches the page size the web view always used.
	DefaultPageSize = 30

	// MaxPageSize is the upstream per_page ceiling.
	MaxPageSize = 100

	// MaxResults is how deep upstream lets a search be paged. Pages past it
	// are answered with 422.
	MaxResults = 1000

	// DefaultWindowDays is how far back "newly created" reaches.
	DefaultWindowDays = 10

	// DefaultSort and DefaultOrder rank by popularity.
	DefaultSort  = "stars"
	DefaultOrder = "desc"
)

// MaxPages returns how many pages of perPage items can be requested
// before MaxResults is reached.
func MaxPages(perPage int) int {
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	return (MaxResults + perPage - 1) / perPage
}

// Query is the filter and sort predicate for one session. It is computed
// once and reused for every page so that the result window does not slide
// while the user pages through it.
type Query struct {
	Qualifier string
	Sort      string
	Order     string
}

// CreatedSince builds the "created within the last windowDays days" query
// relative to now, using the local calendar date as the boundary.
func CreatedSince(now time.Time, windowDays int, sort, order string) Query {
	if windowDays < 0 {
		windowDays = 0
	}
	if sort == "" {
		sort = DefaultSort
	}
	if order == "" {
		order = DefaultOrder
	}
	since := now.AddDate(0, 0, -windowDays)
	return Query{
		Qualifier: fmt.Sprintf("created:>%s", since.Format("2006-01-02")),
		Sort:      sort,
		Order:     order,
	}
}

// String renders the query for logs and displays.
func (q Query) String() string {
	return fmt.Sprintf("%s sort:%s-%s", q.Qualifier, q.Sort, q.Order)
}

// PageQuery addresses one page of a Query.
type PageQuery struct {
	Query   Query
	Page    int
	PerPage int
}

// Values encodes the page query as upstream query parameters.
func (pq PageQuery) Values() url.Values {
	v := url.Values{}
	v.Set("q", pq.Query.Qualifier)
	if pq.Query.Sort != "" {
		v.Set("sort", pq.Query.Sort)
	}
	if pq.Query.Order != "" {
		v.Set("order", pq.Query.Order)
	}
	v.Set("page", strconv.Itoa(pq.Page))
	v.Set("per_page", strconv.Itoa(pq.PerPage))
	return v
}

// Validate checks the page query before it is sent.
func (pq PageQuery) Validate() error {
	if pq.Query.Qualifier == "" {
		return fmt.Errorf("query qualifier is required")
	}
	if pq.Page < 1 {
		return fmt.Errorf("page must be >= 1 (got %d)", pq.Page)
	}
	if pq.PerPage < 1 || pq.PerPage > MaxPageSize {
		return fmt.Errorf("per_page must be within 1..%d (got %d)", MaxPageSize, pq.PerPage)
	}
	return nil
}
