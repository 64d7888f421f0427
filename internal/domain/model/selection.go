package model

import "net/url"

// Tab identifies which list the dashboard shows.
type Tab string

const (
	TabTrending Tab = "trending"
	TabStarred  Tab = "starred"
)

// LanguageAll is the language selection that disables filtering.
const LanguageAll = "all"

// Query parameter names bound to the selection.
const (
	ParamTab      = "tab"
	ParamLanguage = "language"
)

// Selection is the active tab and language filter. It is a projection of the
// page address: defaults are represented by absent query parameters.
type Selection struct {
	Tab      Tab
	Language string
}

// DefaultSelection returns the trending tab with no language filter.
func DefaultSelection() Selection {
	return Selection{Tab: TabTrending, Language: LanguageAll}
}

// ParseSelection reads the tab and language parameters. Unknown tabs fall back
// to trending and an empty language means LanguageAll.
func ParseSelection(q url.Values) Selection {
	sel := DefaultSelection()

	if Tab(q.Get(ParamTab)) == TabStarred {
		sel.Tab = TabStarred
	}
	if lang := q.Get(ParamLanguage); lang != "" {
		sel.Language = lang
	}

	return sel
}

// SelectionPatch is a partial update of a Selection. Nil fields are kept.
type SelectionPatch struct {
	Tab      *Tab
	Language *string
}

// Apply returns a copy of s with the non-nil fields of p applied.
func (s Selection) Apply(p SelectionPatch) Selection {
	if p.Tab != nil {
		s.Tab = *p.Tab
	}
	if p.Language != nil {
		s.Language = *p.Language
		if s.Language == "" {
			s.Language = LanguageAll
		}
	}
	return s
}

// Encode writes the selection into a copy of base. Default values are removed
// rather than written explicitly; unrelated parameters are preserved.
func (s Selection) Encode(base url.Values) url.Values {
	q := make(url.Values, len(base)+2)
	for k, v := range base {
		q[k] = append([]string(nil), v...)
	}

	if s.Tab == TabStarred {
		q.Set(ParamTab, string(TabStarred))
	} else {
		q.Del(ParamTab)
	}

	if s.Language == "" || s.Language == LanguageAll {
		q.Del(ParamLanguage)
	} else {
		q.Set(ParamLanguage, s.Language)
	}

	return q
}

// IsFiltered reports whether a language filter is active.
func (s Selection) IsFiltered() bool {
	return s.Language != "" && s.Language != LanguageAll
}
