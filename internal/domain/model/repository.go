package model

import "time"

// Repository is a GitHub repository returned by the trending search.
// Description and Language are nil when GitHub reports them as null.
type Repository struct {
	ID          int64
	Name        string
	FullName    string
	Description *string
	Stars       int
	Language    *string
	HTMLURL     string
	CreatedAt   string // ISO-8601 as reported by the fetcher.
}

// LanguageName returns the primary language, or "" when absent.
func (r Repository) LanguageName() string {
	if r.Language == nil {
		return ""
	}
	return *r.Language
}

// DescriptionText returns the description, or "" when absent.
func (r Repository) DescriptionText() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// CreatedTime parses CreatedAt. The zero time is returned for unparsable values.
func (r Repository) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SearchResult is one page of repository search results. TotalCount is
// informational and is not checked against len(Items).
type SearchResult struct {
	TotalCount int
	Items      []Repository
}
