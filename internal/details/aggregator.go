// Package details loads a movie's full record together with its similar
// titles and the most popular cast and directors across them.
package details

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/pubsub"
)

// Config tunes the credits fan-out and ranking.
type Config struct {
	// CreditConcurrency bounds parallel credit requests. 1 keeps them strictly sequential.
	CreditConcurrency int
	// TopN caps the ranked actor and director lists.
	TopN int
}

// DefaultConfig returns sequential credit fetching and a top five.
func DefaultConfig() Config {
	return Config{CreditConcurrency: 1, TopN: 5}
}

// Result is a snapshot of everything loaded so far.
type Result struct {
	Details      *Presentation `json:"details"`
	Similar      []core.Movie  `json:"similar"`
	TopActors    []core.Person `json:"top_actors"`
	TopDirectors []core.Person `json:"top_directors"`
	InWatchlist  bool          `json:"in_watchlist"`
}

// Aggregator runs the details pipeline for one movie at a time.
type Aggregator struct {
	repo   core.MovieRepository
	store  core.WatchlistStore
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	movieID  int
	onChange func(movieID int, on bool)

	details      *pubsub.Value[*Presentation]
	similar      *pubsub.Value[[]core.Movie]
	topActors    *pubsub.Value[[]core.Person]
	topDirectors *pubsub.Value[[]core.Person]
	loading      *pubsub.Value[bool]
	inWatchlist  *pubsub.Value[bool]
	errs         *pubsub.Events[error]
}

// New creates an Aggregator. Zero config fields take their defaults.
func New(repo core.MovieRepository, store core.WatchlistStore, cfg Config, logger *slog.Logger) *Aggregator {
	def := DefaultConfig()
	if cfg.CreditConcurrency <= 0 {
		cfg.CreditConcurrency = def.CreditConcurrency
	}
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		repo:         repo,
		store:        store,
		cfg:          cfg,
		logger:       logger,
		details:      pubsub.NewValue[*Presentation](nil),
		similar:      pubsub.NewValue[[]core.Movie](nil),
		topActors:    pubsub.NewValue[[]core.Person](nil),
		topDirectors: pubsub.NewValue[[]core.Person](nil),
		loading:      pubsub.NewValue(false),
		inWatchlist:  pubsub.NewValue(false),
		errs:         pubsub.NewEvents[error](),
	}
}

// Details publishes the formatted movie record.
func (a *Aggregator) Details() *pubsub.Value[*Presentation] { return a.details }

// Similar publishes the similar movies list.
func (a *Aggregator) Similar() *pubsub.Value[[]core.Movie] { return a.similar }

// TopActors publishes the ranked cast across similar movies.
func (a *Aggregator) TopActors() *pubsub.Value[[]core.Person] { return a.topActors }

// TopDirectors publishes the ranked directors across similar movies.
func (a *Aggregator) TopDirectors() *pubsub.Value[[]core.Person] { return a.topDirectors }

// Loading reports whether the pipeline is running.
func (a *Aggregator) Loading() *pubsub.Value[bool] { return a.loading }

// InWatchlist reports the watchlist membership of the loaded movie.
func (a *Aggregator) InWatchlist() *pubsub.Value[bool] { return a.inWatchlist }

// Errors publishes pipeline and watchlist failures.
func (a *Aggregator) Errors() *pubsub.Events[error] { return a.errs }

// OnWatchlistChange registers fn to be called after a successful toggle.
func (a *Aggregator) OnWatchlistChange(fn func(movieID int, on bool)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Snapshot returns the current published values.
func (a *Aggregator) Snapshot() Result {
	return Result{
		Details:      a.details.Get(),
		Similar:      a.similar.Get(),
		TopActors:    a.topActors.Get(),
		TopDirectors: a.topDirectors.Get(),
		InWatchlist:  a.inWatchlist.Get(),
	}
}

// Close ends every subscription.
func (a *Aggregator) Close() {
	a.details.Close()
	a.similar.Close()
	a.topActors.Close()
	a.topDirectors.Close()
	a.loading.Close()
	a.inWatchlist.Close()
	a.errs.Close()
}

// Load fetches details, then similar movies, then credits for every similar
// movie, publishing each stage as it completes. The first failure stops the
// pipeline; stages already published stay visible.
func (a *Aggregator) Load(ctx context.Context, movieID int) error {
	a.mu.Lock()
	a.movieID = movieID
	a.mu.Unlock()

	a.loading.Set(true)
	defer a.loading.Set(false)

	d, err := a.repo.GetDetails(ctx, movieID)
	if err != nil {
		return a.fail("load details", movieID, err)
	}
	a.details.Set(Present(d))

	similar, err := a.repo.GetSimilar(ctx, movieID)
	if err != nil {
		return a.fail("load similar movies", movieID, err)
	}
	a.similar.Set(similar.Results)

	ids := make([]int, 0, len(similar.Results))
	for _, m := range similar.Results {
		ids = append(ids, m.ID)
	}
	cast, crew, err := a.collectCredits(ctx, ids)
	if err != nil {
		return a.fail("load credits", movieID, err)
	}

	directors := make([]core.Person, 0, len(crew))
	for _, p := range crew {
		if p.IsDirector() {
			directors = append(directors, p)
		}
	}
	a.topActors.Set(RankPeople(cast, a.cfg.TopN))
	a.topDirectors.Set(RankPeople(directors, a.cfg.TopN))

	a.logger.Info("movie details loaded",
		slog.Int("movie_id", movieID),
		slog.Int("similar", len(ids)),
		slog.Int("cast", len(cast)),
		slog.Int("crew", len(crew)),
	)
	return nil
}

// collectCredits fetches credits for ids with bounded concurrency and
// concatenates them in ids order.
func (a *Aggregator) collectCredits(ctx context.Context, ids []int) (cast, crew []core.Person, err error) {
	results := make([]*core.Credits, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.CreditConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := a.repo.GetCredits(gctx, id)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	for _, c := range results {
		cast = append(cast, c.Cast...)
		crew = append(crew, c.Crew...)
	}
	return cast, crew, nil
}

// CheckWatchlist refreshes InWatchlist for the loaded movie.
func (a *Aggregator) CheckWatchlist(ctx context.Context) error {
	id := a.currentMovie()
	ok, err := a.store.Contains(ctx, id)
	if err != nil {
		return a.fail("check watchlist", id, err)
	}
	a.inWatchlist.Set(ok)
	return nil
}

// ToggleWatchlist adds the loaded movie to the watchlist, or removes it when
// it is already there. The state flips only after the store succeeds.
func (a *Aggregator) ToggleWatchlist(ctx context.Context) error {
	id := a.currentMovie()
	on := !a.inWatchlist.Get()

	var err error
	if on {
		err = a.store.Add(ctx, id)
	} else {
		err = a.store.Remove(ctx, id)
	}
	if err != nil {
		return a.fail("toggle watchlist", id, err)
	}
	a.inWatchlist.Set(on)

	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn(id, on)
	}
	return nil
}

func (a *Aggregator) currentMovie() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.movieID
}

func (a *Aggregator) fail(op string, movieID int, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Error(op+" failed", slog.Int("movie_id", movieID), slog.String("error", err.Error()))
	a.loading.Set(false)
	a.errs.Publish(err)
	return fmt.Errorf("%s for movie %d: %w", op, movieID, err)
}

// RankPeople drops repeated ids keeping the first occurrence, orders the
// rest by popularity descending and keeps at most n.
func RankPeople(people []core.Person, n int) []core.Person {
	seen := make(map[int]struct{}, len(people))
	out := make([]core.Person, 0, len(people))
	for _, p := range people {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity > out[j].Popularity
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
