package catalog

import "github.com/vadimtrunov/CineShelf/internal/core"

// Movie is a movie entry from list endpoints.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// ToCore converts the wire entry to a core.Movie.
func (m Movie) ToCore() core.Movie {
	return core.Movie{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		OriginalLanguage: m.OriginalLanguage,
		Overview:         m.Overview,
		PosterPath:       nonEmpty(m.PosterPath),
		BackdropPath:     nonEmpty(m.BackdropPath),
		ReleaseDate:      m.ReleaseDate,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		GenreIDs:         m.GenreIDs,
		Adult:            m.Adult,
	}
}

// MovieList is the paginated response of popular, search and similar.
type MovieList struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// ToCore converts the wire page to a core.MoviePage.
func (l MovieList) ToCore() *core.MoviePage {
	page := &core.MoviePage{
		Page:         l.Page,
		TotalPages:   l.TotalPages,
		TotalResults: l.TotalResults,
		Results:      make([]core.Movie, 0, len(l.Results)),
	}
	for _, m := range l.Results {
		page.Results = append(page.Results, m.ToCore())
	}
	return page
}

// MovieDetails is the /movie/{id} response.
type MovieDetails struct {
	Movie

	Tagline  *string      `json:"tagline"`
	Revenue  *int64       `json:"revenue"`
	Status   *string      `json:"status"`
	Budget   int64        `json:"budget"`
	Runtime  int          `json:"runtime"`
	Homepage string       `json:"homepage"`
	IMDbID   string       `json:"imdb_id"`
	Genres   []core.Genre `json:"genres"`
}

// ToCore converts the wire record to core.MovieDetails.
func (d MovieDetails) ToCore() *core.MovieDetails {
	return &core.MovieDetails{
		Movie:    d.Movie.ToCore(),
		Tagline:  nonEmpty(d.Tagline),
		Revenue:  d.Revenue,
		Status:   nonEmpty(d.Status),
		Budget:   d.Budget,
		Runtime:  d.Runtime,
		Homepage: d.Homepage,
		IMDbID:   d.IMDbID,
		Genres:   d.Genres,
	}
}

// Person is a cast or crew entry of the credits response.
type Person struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	KnownForDepartment string  `json:"known_for_department"`
	Department         string  `json:"department"`
	Job                *string `json:"job"`
	Character          string  `json:"character"`
	ProfilePath        *string `json:"profile_path"`
	Popularity         float64 `json:"popularity"`
}

// ToCore converts the wire entry to core.Person. The director predicate is
// evaluated against known_for_department.
func (p Person) ToCore() core.Person {
	dept := p.KnownForDepartment
	if dept == "" {
		dept = p.Department
	}
	return core.Person{
		ID:          p.ID,
		Name:        p.Name,
		Department:  dept,
		Job:         nonEmpty(p.Job),
		Character:   p.Character,
		ProfilePath: nonEmpty(p.ProfilePath),
		Popularity:  p.Popularity,
	}
}

// CreditsResponse is the /movie/{id}/credits response.
type CreditsResponse struct {
	ID   int      `json:"id"`
	Cast []Person `json:"cast"`
	Crew []Person `json:"crew"`
}

// ToCore converts the wire credits to core.Credits.
func (c CreditsResponse) ToCore() *core.Credits {
	out := &core.Credits{
		MovieID: c.ID,
		Cast:    make([]core.Person, 0, len(c.Cast)),
		Crew:    make([]core.Person, 0, len(c.Crew)),
	}
	for _, p := range c.Cast {
		out.Cast = append(out.Cast, p.ToCore())
	}
	for _, p := range c.Crew {
		out.Crew = append(out.Crew, p.ToCore())
	}
	return out
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
