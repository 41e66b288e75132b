package core

import (
	"sort"
	"time"
)

// FallbackReleaseYear is used for movies whose release date is missing or
// cannot be parsed.
const FallbackReleaseYear = 2025

// releaseDateLayout is the TMDb date format (yyyy-MM-dd).
const releaseDateLayout = "2006-01-02"

// Movie is a catalog entry as shown in lists.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path,omitempty"`
	BackdropPath     *string `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Adult            bool    `json:"adult"`

	// IsOnWatchlist is derived locally from the watchlist store.
	IsOnWatchlist bool `json:"is_on_watchlist"`
}

// ReleaseYear returns the year part of ReleaseDate, or FallbackReleaseYear
// when the date is empty or malformed.
func (m Movie) ReleaseYear() int {
	return releaseYear(m.ReleaseDate)
}

func releaseYear(date string) int {
	if date == "" {
		return FallbackReleaseYear
	}
	t, err := time.ParseInLocation(releaseDateLayout, date, time.UTC)
	if err != nil {
		return FallbackReleaseYear
	}
	return t.Year()
}

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record returned by the details endpoint.
type MovieDetails struct {
	Movie

	Tagline  *string `json:"tagline,omitempty"`
	Revenue  *int64  `json:"revenue,omitempty"`
	Status   *string `json:"status,omitempty"`
	Budget   int64   `json:"budget"`
	Runtime  int     `json:"runtime"`
	Homepage string  `json:"homepage,omitempty"`
	IMDbID   string  `json:"imdb_id,omitempty"`
	Genres   []Genre `json:"genres,omitempty"`
}

// Person is a cast or crew member.
type Person struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Department  string  `json:"department"`
	Job         *string `json:"job,omitempty"`
	Character   string  `json:"character,omitempty"`
	ProfilePath *string `json:"profile_path,omitempty"`
	Popularity  float64 `json:"popularity"`
}

// IsDirector reports whether the person directed the movie the credit belongs to.
func (p Person) IsDirector() bool {
	return p.Department == "Directing" && p.Job != nil && *p.Job == "Director"
}

// Credits is the cast and crew listing of a single movie.
type Credits struct {
	MovieID int      `json:"id"`
	Cast    []Person `json:"cast"`
	Crew    []Person `json:"crew"`
}

// MoviePage is one page of a paginated movie listing.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// HasMore reports whether pages after this one exist.
func (p MoviePage) HasMore() bool {
	return p.Page < p.TotalPages
}

// MovieSection groups movies released in the same year.
type MovieSection struct {
	Year   int     `json:"year"`
	Movies []Movie `json:"movies"`
}

// GroupByYear buckets movies by release year. Movies keep their relative
// order inside a bucket; buckets are sorted newest first.
func GroupByYear(movies []Movie) []MovieSection {
	index := make(map[int]int)
	var sections []MovieSection
	for _, m := range movies {
		year := m.ReleaseYear()
		i, ok := index[year]
		if !ok {
			i = len(sections)
			index[year] = i
			sections = append(sections, MovieSection{Year: year})
		}
		sections[i].Movies = append(sections[i].Movies, m)
	}
	sort.SliceStable(sections, func(a, b int) bool {
		return sections[a].Year > sections[b].Year
	})
	return sections
}

// IDSet is a set of movie IDs.
type IDSet map[int]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set contains nothing.
func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
