// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// RepoCardViewModel holds presentation-ready data for one repository card.
type RepoCardViewModel struct {
	ID              int64
	Name            string
	FullName        string
	DescriptionHTML string // Sanitized; empty when the repository has no description.
	Language        string // Empty when GitHub reports no primary language.
	StarsLabel      string // Abbreviated popularity count, e.g. "1.5k".
	CreatedOn       string
	URL             string
	Starred         bool
	ToggleAction    string // POST target that flips Starred and returns to the same selection.
}

// TabViewModel is one entry of the tab bar.
type TabViewModel struct {
	Key    string
	Label  string
	Count  int
	Href   string
	Active bool
}

// LanguageOptionViewModel is one option of the language filter.
type LanguageOptionViewModel struct {
	Value    string
	Label    string
	Selected bool
}

// HiddenParamViewModel is a query parameter carried through the language
// filter form unchanged.
type HiddenParamViewModel struct {
	Name  string
	Value string
}

// EmptyStateViewModel is shown in place of an empty repository list.
type EmptyStateViewModel struct {
	Title   string
	Message string
}

// DashboardViewModel holds everything the dashboard page renders.
type DashboardViewModel struct {
	Title    string
	Subtitle string

	Tabs      []TabViewModel
	ActiveTab string

	ShowLanguageFilter bool
	Languages          []LanguageOptionViewModel
	HiddenParams       []HiddenParamViewModel

	Repos []RepoCardViewModel
	Empty *EmptyStateViewModel

	Loading    bool // Any fetch in flight.
	ShowLoader bool // Loading with nothing to show yet.
	Error      string

	TotalCount    int
	UpdatedAt     string
	RefreshAction string
	CSRFToken     string
}

// RefreshSeconds is how often the page reloads itself while a fetch is in
// flight, or 0 when it should not. A settled error never reloads; the user
// retries with the refresh button.
func (d DashboardViewModel) RefreshSeconds() int {
	if !d.Loading {
		return 0
	}
	if d.ShowLoader {
		return 1
	}
	return 3
}
