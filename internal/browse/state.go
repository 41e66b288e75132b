package browse

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/vadimtrunov/CineShelf/internal/core"
)

// state is owned by the Run goroutine.
type state struct {
	mode     Mode
	fetching bool
	query    string

	// page and totalPages come from the last applied response.
	page       int
	totalPages int
	movies     []core.Movie

	// listing is bumped whenever the list restarts from page 1. Responses
	// issued for an older listing are dropped.
	listing int
	sections   []core.MovieSection

	// popularFirst caches page 1 of the popular listing.
	popularFirst *core.MoviePage

	// watchlist is nil until the first ListAll completes.
	watchlist core.IDSet

	debounce    *time.Timer
	debounceSeq int
	lastQuery   *string
}

type message interface {
	apply(l *Lister)
}

type loadMsg struct{}

func (loadMsg) apply(l *Lister) {
	l.setMode(ModePopular)
	l.st.query = ""
	l.fetchPage(ModePopular, "", 1)
	l.spawn(func(ctx context.Context) message {
		ids, err := l.store.ListAll(ctx)
		return watchlistLoadedMsg{ids: ids, err: err}
	})
}

type watchlistLoadedMsg struct {
	ids core.IDSet
	err error
}

func (m watchlistLoadedMsg) apply(l *Lister) {
	if m.err != nil {
		l.fail("load watchlist", m.err)
		return
	}
	l.st.watchlist = m.ids
	l.logger.Debug("watchlist loaded", slog.Int("count", len(m.ids)))
	l.applyFlags()
	l.publish()
}

type searchTextMsg struct {
	text string
}

func (m searchTextMsg) apply(l *Lister) {
	if l.st.debounce != nil {
		l.st.debounce.Stop()
	}
	l.st.debounceSeq++
	fired := debounceFiredMsg{seq: l.st.debounceSeq, text: m.text}
	l.st.debounce = time.AfterFunc(l.cfg.Debounce, func() { l.post(fired) })
}

type debounceFiredMsg struct {
	seq  int
	text string
}

func (m debounceFiredMsg) apply(l *Lister) {
	if m.seq != l.st.debounceSeq {
		return
	}
	if l.st.lastQuery != nil && *l.st.lastQuery == m.text {
		return
	}
	text := m.text
	l.st.lastQuery = &text

	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		l.restorePopular()
	case n < l.cfg.MinQueryLength:
		// too short to search; the current listing stays
	default:
		l.setMode(ModeSearch)
		l.st.query = text
		l.fetchPage(ModeSearch, text, 1)
	}
}

type reachedBottomMsg struct{}

func (reachedBottomMsg) apply(l *Lister) {
	if l.st.fetching || l.st.page >= l.st.totalPages {
		return
	}
	switch l.st.mode {
	case ModePopular:
		l.fetchPage(ModePopular, "", l.st.page+1)
	case ModeSearch:
		l.fetchPage(ModeSearch, l.st.query, l.st.page+1)
	}
}

type pageMsg struct {
	listing int
	mode    Mode
	query   string
	page    int
	resp    *core.MoviePage
	err     error
}

func (m pageMsg) apply(l *Lister) {
	if m.listing != l.st.listing {
		l.logger.Debug("dropping page for superseded listing",
			slog.String("mode", m.mode.String()),
			slog.String("query", m.query),
			slog.Int("page", m.page),
		)
		return
	}
	l.st.fetching = false
	l.loading.Set(false)
	if m.err != nil {
		l.fail("fetch page", m.err,
			slog.String("mode", m.mode.String()), slog.Int("page", m.page))
		return
	}

	if m.mode == ModePopular && m.page == 1 {
		l.st.popularFirst = m.resp
	}
	results := append([]core.Movie(nil), m.resp.Results...)
	if m.page <= 1 {
		l.st.movies = results
	} else {
		l.st.movies = append(l.st.movies, results...)
	}
	l.st.page = m.page
	l.st.totalPages = m.resp.TotalPages

	l.logger.Debug("page applied",
		slog.String("mode", m.mode.String()),
		slog.Int("page", m.page),
		slog.Int("total_pages", m.resp.TotalPages),
		slog.Int("movies", len(l.st.movies)),
	)
	l.applyFlags()
	l.publish()
}

type toggleMsg struct {
	movieID int
	path    IndexPath
}

func (m toggleMsg) apply(l *Lister) {
	on := !l.isOnWatchlist(m.movieID, m.path)
	l.spawn(func(ctx context.Context) message {
		var err error
		if on {
			err = l.store.Add(ctx, m.movieID)
		} else {
			err = l.store.Remove(ctx, m.movieID)
		}
		return toggleDoneMsg{movieID: m.movieID, path: m.path, on: on, err: err}
	})
}

type toggleDoneMsg struct {
	movieID int
	path    IndexPath
	on      bool
	err     error
}

func (m toggleDoneMsg) apply(l *Lister) {
	if m.err != nil {
		l.fail("toggle watchlist", m.err, slog.Int("movie_id", m.movieID))
		return
	}
	if mv, ok := l.movieAt(m.path); !ok || mv.ID != m.movieID {
		l.logger.Warn("stale index path on watchlist toggle, resolving by id",
			slog.Int("movie_id", m.movieID),
			slog.Int("section", m.path.Section),
			slog.Int("row", m.path.Row),
		)
	}
	l.setWatchlisted(m.movieID, m.on)
}

type watchlistChangedMsg struct {
	movieID int
	on      bool
}

func (m watchlistChangedMsg) apply(l *Lister) {
	l.setWatchlisted(m.movieID, m.on)
}

type selectMsg struct {
	movie core.Movie
}

func (m selectMsg) apply(l *Lister) {
	l.logger.Debug("movie selected", slog.Int("movie_id", m.movie.ID), slog.String("title", m.movie.Title))
	l.selections.Publish(m.movie)
}

func (l *Lister) setMode(m Mode) {
	l.st.mode = m
	l.mode.Set(m)
}

// fetchPage issues a page request. Requests are never cancelled; a page 1
// request starts a new listing so late responses for the old one are ignored.
func (l *Lister) fetchPage(mode Mode, query string, page int) {
	if page == 1 {
		l.st.listing++
	}
	listing := l.st.listing
	l.st.fetching = true
	l.loading.Set(true)
	l.spawn(func(ctx context.Context) message {
		var (
			resp *core.MoviePage
			err  error
		)
		if mode == ModeSearch {
			resp, err = l.repo.Search(ctx, query, page)
		} else {
			resp, err = l.repo.GetPopular(ctx, page)
		}
		return pageMsg{listing: listing, mode: mode, query: query, page: page, resp: resp, err: err}
	})
}

func (l *Lister) restorePopular() {
	l.setMode(ModePopular)
	l.st.query = ""
	cached := l.st.popularFirst
	if cached == nil {
		l.fetchPage(ModePopular, "", 1)
		return
	}
	l.st.listing++
	l.st.fetching = false
	l.loading.Set(false)
	l.st.movies = append([]core.Movie(nil), cached.Results...)
	l.st.page = 1
	l.st.totalPages = cached.TotalPages
	l.applyFlags()
	l.publish()
}

func (l *Lister) isOnWatchlist(movieID int, path IndexPath) bool {
	if mv, ok := l.movieAt(path); ok && mv.ID == movieID {
		return mv.IsOnWatchlist
	}
	return l.st.watchlist.Has(movieID)
}

func (l *Lister) setWatchlisted(movieID int, on bool) {
	if l.st.watchlist == nil {
		l.st.watchlist = core.NewIDSet()
	}
	if on {
		l.st.watchlist[movieID] = struct{}{}
	} else {
		delete(l.st.watchlist, movieID)
	}
	for i := range l.st.movies {
		if l.st.movies[i].ID == movieID {
			l.st.movies[i].IsOnWatchlist = on
		}
	}
	l.publish()
}

func (l *Lister) applyFlags() {
	if l.st.watchlist == nil {
		return
	}
	for i := range l.st.movies {
		l.st.movies[i].IsOnWatchlist = l.st.watchlist.Has(l.st.movies[i].ID)
	}
}

func (l *Lister) movieAt(p IndexPath) (core.Movie, bool) {
	if p.Section < 0 || p.Section >= len(l.st.sections) {
		return core.Movie{}, false
	}
	movies := l.st.sections[p.Section].Movies
	if p.Row < 0 || p.Row >= len(movies) {
		return core.Movie{}, false
	}
	return movies[p.Row], true
}

func (l *Lister) publish() {
	l.st.sections = core.GroupByYear(l.st.movies)
	l.sections.Set(l.st.sections)
}

func (l *Lister) fail(op string, err error, attrs ...any) {
	l.logger.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
	l.errs.Publish(err)
}
