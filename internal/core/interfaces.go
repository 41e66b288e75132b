package core

import "context"

// MovieRepository exposes the catalog use cases (popular, search, details, similar, credits).
type MovieRepository interface {
	// GetPopular returns one page of the popular movies listing
	GetPopular(ctx context.Context, page int) (*MoviePage, error)

	// Search returns one page of movies matching query
	Search(ctx context.Context, query string, page int) (*MoviePage, error)

	// GetDetails returns the full record of a movie
	GetDetails(ctx context.Context, movieID int) (*MovieDetails, error)

	// GetSimilar returns movies similar to movieID
	GetSimilar(ctx context.Context, movieID int) (*MoviePage, error)

	// GetCredits returns the cast and crew of a movie
	GetCredits(ctx context.Context, movieID int) (*Credits, error)
}

// WatchlistStore persists the set of movie IDs the user marked for later viewing.
type WatchlistStore interface {
	// Add stores id; adding an id twice keeps a single entry
	Add(ctx context.Context, movieID int) error

	// Remove deletes id; removing an absent id is not an error
	Remove(ctx context.Context, movieID int) error

	// ListAll returns every stored id
	ListAll(ctx context.Context) (IDSet, error)

	// Contains reports whether id is stored
	Contains(ctx context.Context, movieID int) (bool, error)
}
