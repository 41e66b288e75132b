package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

const (
	starOn  = "★"
	starOff = "☆"
)

// star renders the watchlist marker.
func star(on bool) string {
	if on {
		return starOn
	}
	return starOff
}

// FormatSections renders year sections as MarkdownV2: a bold year header
// followed by one line per movie. Watchlist markers live on the buttons.
func FormatSections(sections []core.MovieSection) string {
	if len(sections) == 0 {
		return EscapeMdV2("No movies found.")
	}
	var sb strings.Builder
	for i, sec := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatBold(strconv.Itoa(sec.Year)))
		sb.WriteString("\n")
		for _, m := range sec.Movies {
			fmt.Fprintf(&sb, "%s %s\n",
				EscapeMdV2(m.Title),
				EscapeMdV2(fmt.Sprintf("(%.1f)", m.VoteAverage)),
			)
		}
	}
	return sb.String()
}

// FormatDetails renders an aggregated details result as MarkdownV2.
func FormatDetails(r details.Result) string {
	if r.Details == nil {
		return EscapeMdV2("No details available.")
	}
	d := r.Details

	var sb strings.Builder
	sb.WriteString(star(r.InWatchlist) + " " + FormatBold(d.Title))
	if d.FormattedReleaseDate != "" {
		sb.WriteString(" " + EscapeMdV2("("+d.FormattedReleaseDate+")"))
	}
	sb.WriteString("\n")
	if d.Tagline != nil && *d.Tagline != "" {
		sb.WriteString(FormatItalic(*d.Tagline) + "\n")
	}
	if d.Overview != "" {
		sb.WriteString("\n" + EscapeMdV2(d.Overview) + "\n")
	}

	sb.WriteString("\n")
	if d.Status != nil {
		sb.WriteString(EscapeMdV2("Status: "+*d.Status) + "\n")
	}
	if d.Runtime > 0 {
		sb.WriteString(EscapeMdV2(fmt.Sprintf("Runtime: %d min", d.Runtime)) + "\n")
	}
	sb.WriteString(EscapeMdV2("Revenue: "+d.FormattedRevenue) + "\n")
	if len(d.Genres) > 0 {
		sb.WriteString(EscapeMdV2("Genres: "+strings.Join(d.Genres, ", ")) + "\n")
	}

	writePeople(&sb, "Top actors", r.TopActors)
	writePeople(&sb, "Top directors", r.TopDirectors)

	if len(r.Similar) > 0 {
		titles := make([]string, 0, len(r.Similar))
		for _, m := range r.Similar {
			titles = append(titles, m.Title)
		}
		sb.WriteString("\n" + FormatBold("Similar") + "\n")
		sb.WriteString(EscapeMdV2(strings.Join(titles, ", ")) + "\n")
	}
	return sb.String()
}

func writePeople(sb *strings.Builder, heading string, people []core.Person) {
	if len(people) == 0 {
		return
	}
	names := make([]string, 0, len(people))
	for _, p := range people {
		names = append(names, p.Name)
	}
	sb.WriteString("\n" + FormatBold(heading) + "\n")
	sb.WriteString(EscapeMdV2(strings.Join(names, ", ")) + "\n")
}

// truncateLabel shortens s to maxButtonLabel runes.
func truncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= maxButtonLabel {
		return s
	}
	r := []rune(s)
	return string(r[:maxButtonLabel]) + "…"
}
