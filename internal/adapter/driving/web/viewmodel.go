package web

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	vm "github.com/ericfisherdev/trendpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/trendpanel/internal/application"
	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

const (
	dashboardTitle    = "GitHub Trending"
	dashboardSubtitle = "Discover popular repositories from the last 7 days"
)

// toRepoCardViewModel converts a domain Repository to a RepoCardViewModel.
func toRepoCardViewModel(repo model.Repository, starred bool, sc SelectionContext) vm.RepoCardViewModel {
	return vm.RepoCardViewModel{
		ID:              repo.ID,
		Name:            repo.Name,
		FullName:        repo.FullName,
		DescriptionHTML: RenderMarkdown(strings.TrimSpace(repo.DescriptionText())),
		Language:        repo.LanguageName(),
		StarsLabel:      application.FormatStarCount(repo.Stars),
		CreatedOn:       application.FormatCreatedDate(repo.CreatedAt),
		URL:             repo.HTMLURL,
		Starred:         starred,
		ToggleAction:    sc.Action(fmt.Sprintf("/app/stars/%d", repo.ID)),
	}
}

// toDashboardViewModel converts a DashboardView into the page view model.
func toDashboardViewModel(view application.DashboardView, sc SelectionContext, csrf string) vm.DashboardViewModel {
	sel := view.Selection
	trending, starred := model.TabTrending, model.TabStarred

	cards := make([]vm.RepoCardViewModel, 0, len(view.Repos))
	for _, repo := range view.Repos {
		cards = append(cards, toRepoCardViewModel(repo, view.Starred[repo.ID], sc))
	}

	d := vm.DashboardViewModel{
		Title:    dashboardTitle,
		Subtitle: dashboardSubtitle,
		Tabs: []vm.TabViewModel{
			{
				Key:    string(trending),
				Label:  "Trending",
				Count:  view.TrendingSize,
				Href:   sc.With(model.SelectionPatch{Tab: &trending}),
				Active: sel.Tab == trending,
			},
			{
				Key:    string(starred),
				Label:  "Starred",
				Count:  view.StarredCount,
				Href:   sc.With(model.SelectionPatch{Tab: &starred}),
				Active: sel.Tab == starred,
			},
		},
		ActiveTab:          string(sel.Tab),
		ShowLanguageFilter: sel.Tab == trending && len(view.Languages) > 0,
		Languages:          toLanguageOptions(view.Languages, sel.Language),
		HiddenParams:       toHiddenParams(sc.Get().Encode(sc.query)),
		Repos:              cards,
		Loading:            view.Loading,
		ShowLoader:         view.Loading && len(cards) == 0 && view.UpdatedAt.IsZero() && view.Error == "",
		Error:              view.Error,
		TotalCount:         view.TotalCount,
		RefreshAction:      sc.Action("/app/refresh"),
		CSRFToken:          csrf,
	}

	if !view.UpdatedAt.IsZero() {
		d.UpdatedAt = view.UpdatedAt.Local().Format(time.Kitchen)
	}

	if len(cards) == 0 {
		d.Empty = emptyState(sel, view)
	}

	return d
}

// emptyState picks the placeholder for an empty list. The trending list shows
// none while it is loading or failed, since the banner or loader explains it.
func emptyState(sel model.Selection, view application.DashboardView) *vm.EmptyStateViewModel {
	if sel.Tab == model.TabStarred {
		return &vm.EmptyStateViewModel{
			Title:   "No starred repositories",
			Message: "Star repositories from the trending tab to see them here",
		}
	}

	if view.Loading || view.Error != "" {
		return nil
	}

	target := "any language"
	if sel.IsFiltered() {
		target = sel.Language
	}
	return &vm.EmptyStateViewModel{
		Title: "No repositories found for " + target,
	}
}

func toLanguageOptions(languages []string, selected string) []vm.LanguageOptionViewModel {
	opts := make([]vm.LanguageOptionViewModel, 0, len(languages)+2)
	opts = append(opts, vm.LanguageOptionViewModel{
		Value:    model.LanguageAll,
		Label:    "All languages",
		Selected: selected == model.LanguageAll,
	})

	for _, lang := range languages {
		opts = append(opts, vm.LanguageOptionViewModel{Value: lang, Label: lang, Selected: lang == selected})
	}

	// Keep a selection that is not in the current result set visible.
	if selected != model.LanguageAll && !slices.Contains(languages, selected) {
		opts = append(opts, vm.LanguageOptionViewModel{Value: selected, Label: selected, Selected: true})
	}

	return opts
}

// toHiddenParams returns every parameter except language, sorted by name, so
// the filter form preserves them.
func toHiddenParams(q url.Values) []vm.HiddenParamViewModel {
	names := make([]string, 0, len(q))
	for name := range q {
		if name != model.ParamLanguage {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	params := make([]vm.HiddenParamViewModel, 0, len(names))
	for _, name := range names {
		for _, v := range q[name] {
			params = append(params, vm.HiddenParamViewModel{Name: name, Value: v})
		}
	}
	return params
}
