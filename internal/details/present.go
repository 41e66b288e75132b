package details

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vadimtrunov/CineShelf/internal/catalog"
	"github.com/vadimtrunov/CineShelf/internal/core"
)

// Presentation is a movie record formatted for display.
type Presentation struct {
	ID                   int      `json:"id"`
	Title                string   `json:"title"`
	Overview             string   `json:"overview"`
	Tagline              *string  `json:"tagline,omitempty"`
	Status               *string  `json:"status,omitempty"`
	FormattedRevenue     string   `json:"formatted_revenue"`
	FormattedReleaseDate string   `json:"formatted_release_date"`
	PosterURL            string   `json:"poster_url,omitempty"`
	BackdropURL          string   `json:"backdrop_url,omitempty"`
	Runtime              int      `json:"runtime,omitempty"`
	Genres               []string `json:"genres,omitempty"`
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Present formats d for display.
func Present(d *core.MovieDetails) *Presentation {
	p := &Presentation{
		ID:                   d.ID,
		Title:                d.Title,
		Overview:             d.Overview,
		Tagline:              d.Tagline,
		Status:               d.Status,
		FormattedRevenue:     FormatRevenue(d.Revenue),
		FormattedReleaseDate: FormatReleaseDate(d.ReleaseDate),
		PosterURL:            catalog.PosterURL(d.PosterPath, catalog.PosterW500),
		BackdropURL:          catalog.BackdropURL(d.BackdropPath, catalog.BackdropW780),
		Runtime:              d.Runtime,
	}
	for _, g := range d.Genres {
		p.Genres = append(p.Genres, g.Name)
	}
	return p
}

// FormatRevenue renders revenue as US dollars, or "$0" when unknown.
func FormatRevenue(revenue *int64) string {
	if revenue == nil {
		return "$0"
	}
	return printer.Sprintf("$%.2f", float64(*revenue))
}

// FormatReleaseDate renders a yyyy-MM-dd date in long form. Dates that do
// not parse are returned unchanged.
func FormatReleaseDate(date string) string {
	t, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}
