package search

import (
	"encoding/json"
	"time"
)

// Owner is the account a repository belongs to.
type Owner struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Repository is one search hit. Only ID is interpreted by the pager; the
// remaining fields are decoded for presentation and the original JSON is
// kept in Raw so unmodelled fields survive a round trip.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           Owner     `json:"owner"`
	HTMLURL         string    `json:"html_url"`
	Description     *string   `json:"description"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	CreatedAt       time.Time `json:"created_at"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the modelled fields and keeps the raw object.
func (r *Repository) UnmarshalJSON(data []byte) error {
	type plain Repository
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Repository(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the original object when one was decoded.
func (r Repository) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain Repository
	return json.Marshal(plain(r))
}

// DescriptionOr returns the description or fallback when it is absent or empty.
func (r Repository) DescriptionOr(fallback string) string {
	if r.Description == nil || *r.Description == "" {
		return fallback
	}
	return *r.Description
}

// Page is one decoded search response.
type Page struct {
	Number            int          `json:"page"`
	PerPage           int          `json:"per_page"`
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []Repository `json:"items"`

	// NotModified is true when the body came from the revalidation store.
	NotModified bool `json:"-"`
}

// Full reports whether the page holds a complete page worth of items.
// A short page is the only end-of-results signal the pager relies on.
func (p *Page) Full() bool {
	return len(p.Items) >= p.PerPage
}
