// Package repository maps the movie use cases onto catalog routes.
package repository

import (
	"context"
	"fmt"

	"github.com/vadimtrunov/CineShelf/internal/catalog"
	"github.com/vadimtrunov/CineShelf/internal/core"
)

// Fetcher performs a catalog request and decodes the response into out.
type Fetcher interface {
	Fetch(ctx context.Context, ep catalog.Endpoint, out any) error
}

// Movies implements core.MovieRepository on top of a catalog Fetcher.
type Movies struct {
	fetcher  Fetcher
	language string
}

// NewMovies creates a repository. An empty language uses catalog.DefaultLanguage.
func NewMovies(fetcher Fetcher, language string) *Movies {
	return &Movies{fetcher: fetcher, language: language}
}

var _ core.MovieRepository = (*Movies)(nil)

// GetPopular returns one page of popular movies.
func (m *Movies) GetPopular(ctx context.Context, page int) (*core.MoviePage, error) {
	var list catalog.MovieList
	ep := catalog.Popular(catalog.QueryParams{Page: page, Language: m.language})
	if err := m.fetcher.Fetch(ctx, ep, &list); err != nil {
		return nil, fmt.Errorf("get popular page %d: %w", page, err)
	}
	return list.ToCore(), nil
}

// Search returns one page of movies matching query.
func (m *Movies) Search(ctx context.Context, query string, page int) (*core.MoviePage, error) {
	var list catalog.MovieList
	ep := catalog.Search(catalog.QueryParams{Page: page, Language: m.language, Query: query})
	if err := m.fetcher.Fetch(ctx, ep, &list); err != nil {
		return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
	}
	return list.ToCore(), nil
}

// GetDetails returns the full record of a movie.
func (m *Movies) GetDetails(ctx context.Context, movieID int) (*core.MovieDetails, error) {
	var details catalog.MovieDetails
	if err := m.fetcher.Fetch(ctx, catalog.Details(movieID), &details); err != nil {
		return nil, fmt.Errorf("get details %d: %w", movieID, err)
	}
	return details.ToCore(), nil
}

// GetSimilar returns the first page of movies similar to movieID.
func (m *Movies) GetSimilar(ctx context.Context, movieID int) (*core.MoviePage, error) {
	var list catalog.MovieList
	if err := m.fetcher.Fetch(ctx, catalog.Similar(movieID), &list); err != nil {
		return nil, fmt.Errorf("get similar %d: %w", movieID, err)
	}
	return list.ToCore(), nil
}

// GetCredits returns the cast and crew of a movie.
func (m *Movies) GetCredits(ctx context.Context, movieID int) (*core.Credits, error) {
	var credits catalog.CreditsResponse
	if err := m.fetcher.Fetch(ctx, catalog.Credits(movieID), &credits); err != nil {
		return nil, fmt.Errorf("get credits %d: %w", movieID, err)
	}
	out := credits.ToCore()
	if out.MovieID == 0 {
		out.MovieID = movieID
	}
	return out, nil
}
