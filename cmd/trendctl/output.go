package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ericfisherdev/trendpanel/internal/application"
	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

type outputFormat int

const (
	formatTable outputFormat = iota // aligned columns for terminals
	formatPlain                     // tab-separated, one record per line
	formatJSON
)

type repoJSON struct {
	ID          int64   `json:"id"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	Stars       int     `json:"stargazers_count"`
	Language    *string `json:"language"`
	HTMLURL     string  `json:"html_url"`
	CreatedAt   string  `json:"created_at"`
	Starred     bool    `json:"starred"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRepos(w io.Writer, format outputFormat, view application.DashboardView) error {
	switch format {
	case formatJSON:
		out := make([]repoJSON, 0, len(view.Repos))
		for _, r := range view.Repos {
			out = append(out, repoJSON{
				ID:          r.ID,
				FullName:    r.FullName,
				Description: r.Description,
				Stars:       r.Stars,
				Language:    r.Language,
				HTMLURL:     r.HTMLURL,
				CreatedAt:   r.CreatedAt,
				Starred:     view.Starred[r.ID],
			})
		}
		return writeJSON(w, out)

	case formatPlain:
		for _, r := range view.Repos {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%t\n",
				r.ID, r.FullName, r.LanguageName(), r.Stars, r.CreatedAt, view.Starred[r.ID]); err != nil {
				return err
			}
		}
		return nil

	default:
		if len(view.Repos) == 0 {
			_, err := fmt.Fprintln(w, "No repositories found.")
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "\tID\tREPOSITORY\tLANGUAGE\tSTARS\tCREATED")
		for _, r := range view.Repos {
			marker := " "
			if view.Starred[r.ID] {
				marker = "★"
			}
			lang := r.LanguageName()
			if lang == "" {
				lang = "-"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
				marker, r.ID, r.FullName, lang,
				application.FormatStarCount(r.Stars), application.FormatCreatedDate(r.CreatedAt))
		}
		return tw.Flush()
	}
}

func printLanguages(w io.Writer, format outputFormat, languages []string) error {
	if format == formatJSON {
		if languages == nil {
			languages = []string{}
		}
		return writeJSON(w, languages)
	}

	for _, lang := range languages {
		if _, err := fmt.Fprintln(w, lang); err != nil {
			return err
		}
	}
	return nil
}

func printToggle(w io.Writer, format outputFormat, id int64, starred bool) error {
	switch format {
	case formatJSON:
		return writeJSON(w, map[string]any{"id": id, "starred": starred})
	case formatPlain:
		_, err := fmt.Fprintf(w, "%d\t%t\n", id, starred)
		return err
	default:
		verb := "Unstarred"
		if starred {
			verb = "Starred"
		}
		_, err := fmt.Fprintf(w, "%s %d\n", verb, id)
		return err
	}
}

// printStarred prints every starred ID. Details come from repos, which holds
// the starred repositories present in the current result set.
func printStarred(w io.Writer, format outputFormat, ids []int64, repos []model.Repository) error {
	byID := make(map[int64]model.Repository, len(repos))
	for _, r := range repos {
		byID[r.ID] = r
	}

	switch format {
	case formatJSON:
		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			entry := map[string]any{"id": id}
			if r, ok := byID[id]; ok {
				entry["full_name"] = r.FullName
				entry["html_url"] = r.HTMLURL
			}
			out = append(out, entry)
		}
		return writeJSON(w, out)

	case formatPlain:
		for _, id := range ids {
			if _, err := fmt.Fprintf(w, "%d\t%s\n", id, byID[id].FullName); err != nil {
				return err
			}
		}
		return nil

	default:
		if len(ids) == 0 {
			_, err := fmt.Fprintln(w, "No starred repositories.")
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tREPOSITORY\tURL")
		for _, id := range ids {
			r, ok := byID[id]
			if !ok {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", id, "(not in this week's results)", "-")
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", id, r.FullName, r.HTMLURL)
		}
		return tw.Flush()
	}
}
