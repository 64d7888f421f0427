package application

import (
	"fmt"
	"slices"
	"time"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

// DistinctLanguages returns the primary languages present in repos,
// deduplicated and sorted ascending. Repositories without a language are
// not represented.
func DistinctLanguages(repos []model.Repository) []string {
	seen := make(map[string]struct{}, len(repos))
	languages := make([]string, 0, len(repos))

	for _, r := range repos {
		if r.Language == nil {
			continue
		}
		if _, ok := seen[*r.Language]; ok {
			continue
		}
		seen[*r.Language] = struct{}{}
		languages = append(languages, *r.Language)
	}

	slices.Sort(languages)
	return languages
}

// FilterByLanguage returns the repositories whose language equals language,
// in their original order. model.LanguageAll returns repos unchanged.
func FilterByLanguage(repos []model.Repository, language string) []model.Repository {
	if language == model.LanguageAll {
		return repos
	}

	filtered := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if r.Language != nil && *r.Language == language {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterStarred returns the repositories for which isStarred reports true,
// in their original order.
func FilterStarred(repos []model.Repository, isStarred func(id int64) bool) []model.Repository {
	starred := make([]model.Repository, 0)
	for _, r := range repos {
		if isStarred(r.ID) {
			starred = append(starred, r)
		}
	}
	return starred
}

// FormatStarCount abbreviates a star count: 999, 1.5k, 2.8M.
func FormatStarCount(count int) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fk", float64(count)/1_000)
	default:
		return fmt.Sprintf("%d", count)
	}
}

// FormatCreatedDate renders an ISO-8601 timestamp as "Jan 2, 2006" in UTC.
// Unparsable input is returned as-is.
func FormatCreatedDate(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.UTC().Format("Jan 2, 2006")
}
