// Package browse drives the paginated movie list: popular and search modes,
// debounced search input, year sectioning and watchlist flags.
//
// A Lister is an actor. All of its state is owned by the goroutine running
// Run; the exported input methods only enqueue messages, and network and
// storage calls run on worker goroutines that post their results back.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/pubsub"
)

// Mode is the active pagination source.
type Mode int

// Modes.
const (
	ModeIdle Mode = iota
	ModePopular
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePopular:
		return "popular"
	case ModeSearch:
		return "search"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// IndexPath addresses a row inside the published sections.
type IndexPath struct {
	Section int
	Row     int
}

// Config tunes search input handling.
type Config struct {
	Debounce       time.Duration
	MinQueryLength int
}

// DefaultConfig returns the stock debounce and minimum query length.
func DefaultConfig() Config {
	return Config{Debounce: 300 * time.Millisecond, MinQueryLength: 3}
}

const inboxSize = 64

// Lister orchestrates list and search pagination.
type Lister struct {
	repo   core.MovieRepository
	store  core.WatchlistStore
	cfg    Config
	logger *slog.Logger

	inbox   chan message
	done    chan struct{}
	running atomic.Bool
	runCtx  context.Context
	wg      sync.WaitGroup

	sections   *pubsub.Value[[]core.MovieSection]
	loading    *pubsub.Value[bool]
	mode       *pubsub.Value[Mode]
	errs       *pubsub.Events[error]
	selections *pubsub.Events[core.Movie]

	st state
}

// New creates a Lister. Zero config fields take their defaults.
func New(repo core.MovieRepository, store core.WatchlistStore, cfg Config, logger *slog.Logger) *Lister {
	def := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = def.MinQueryLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{
		repo:       repo,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		inbox:      make(chan message, inboxSize),
		done:       make(chan struct{}),
		sections:   pubsub.NewValue[[]core.MovieSection](nil),
		loading:    pubsub.NewValue(false),
		mode:       pubsub.NewValue(ModeIdle),
		errs:       pubsub.NewEvents[error](),
		selections: pubsub.NewEvents[core.Movie](),
	}
}

// Run processes messages until ctx is done. It waits for in-flight workers
// before returning and closes every output stream.
func (l *Lister) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("lister already running")
	}
	l.runCtx = ctx
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-l.inbox:
			m.apply(l)
		}
	}
}

func (l *Lister) shutdown() {
	close(l.done)
	if l.st.debounce != nil {
		l.st.debounce.Stop()
	}
	l.wg.Wait()
	l.sections.Close()
	l.loading.Close()
	l.mode.Close()
	l.errs.Close()
	l.selections.Close()
}

// Sections publishes the year-grouped movie list. Subscribers get the
// latest value on subscribe.
func (l *Lister) Sections() *pubsub.Value[[]core.MovieSection] { return l.sections }

// Loading reports whether a page fetch is in flight.
func (l *Lister) Loading() *pubsub.Value[bool] { return l.loading }

// Errors publishes every failure. Nothing is replayed.
func (l *Lister) Errors() *pubsub.Events[error] { return l.errs }

// Selections publishes movies chosen with SelectMovie.
func (l *Lister) Selections() *pubsub.Events[core.Movie] { return l.selections }

// ModeChanges publishes the active pagination source.
func (l *Lister) ModeChanges() *pubsub.Value[Mode] { return l.mode }

// Mode returns the active pagination source.
func (l *Lister) Mode() Mode { return l.mode.Get() }

// Load fetches the first popular page and the watchlist ids.
func (l *Lister) Load() { l.post(loadMsg{}) }

// SearchTextChanged feeds raw search box input.
func (l *Lister) SearchTextChanged(text string) { l.post(searchTextMsg{text: text}) }

// ReachedBottom requests the next page of the active mode.
func (l *Lister) ReachedBottom() { l.post(reachedBottomMsg{}) }

// ToggleWatchlist adds or removes the movie shown at path.
func (l *Lister) ToggleWatchlist(movieID int, path IndexPath) {
	l.post(toggleMsg{movieID: movieID, path: path})
}

// SelectMovie publishes m on Selections.
func (l *Lister) SelectMovie(m core.Movie) { l.post(selectMsg{movie: m}) }

// WatchlistChanged records a watchlist change made elsewhere, such as on
// the details screen.
func (l *Lister) WatchlistChanged(movieID int, on bool) {
	l.post(watchlistChangedMsg{movieID: movieID, on: on})
}

func (l *Lister) post(m message) {
	select {
	case l.inbox <- m:
	case <-l.done:
	}
}

// spawn runs work off the actor and posts its result back.
func (l *Lister) spawn(work func(ctx context.Context) message) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.post(work(l.runCtx))
	}()
}
