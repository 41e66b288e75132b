package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineShelf/internal/browse"
	"github.com/vadimtrunov/CineShelf/internal/config"
	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse popular movies and search the catalog",
		Long: "Start the interactive browser. Popular movies load first; typing in the\n" +
			"search box switches to title search. tab moves between the search box and\n" +
			"the list, w toggles the watchlist, enter opens details, q quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse wires the orchestrator to the Bubble Tea list TUI.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := initServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	lister := browse.New(svc.movies, svc.store, browseConfig(cfg), logger)
	runErr := make(chan error, 1)
	go func() { runErr <- lister.Run(ctx) }()

	feeds, unsubscribe := subscribe(lister)
	defer unsubscribe()

	newAgg := func() *details.Aggregator {
		return details.New(svc.movies, svc.store, detailsConfig(cfg), logger)
	}
	p := tea.NewProgram(newBrowseModel(ctx, lister, feeds, newAgg), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browse: %w", err)
	}

	cancel()
	if err := <-runErr; err != nil {
		logger.Error("lister stopped", slog.String("error", err.Error()))
	}
	return nil
}

// feeds are the orchestrator outputs the TUI listens to.
type feeds struct {
	sections   <-chan []core.MovieSection
	loading    <-chan bool
	mode       <-chan browse.Mode
	errs       <-chan error
	selections <-chan core.Movie
}

func subscribe(l *browse.Lister) (feeds, func()) {
	var (
		f       feeds
		cancels []func()
		cancel  func()
	)
	f.sections, cancel = l.Sections().Subscribe()
	cancels = append(cancels, cancel)
	f.loading, cancel = l.Loading().Subscribe()
	cancels = append(cancels, cancel)
	f.mode, cancel = l.ModeChanges().Subscribe()
	cancels = append(cancels, cancel)
	f.errs, cancel = l.Errors().Subscribe()
	cancels = append(cancels, cancel)
	f.selections, cancel = l.Selections().Subscribe()
	cancels = append(cancels, cancel)

	return f, func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Messages carrying orchestrator output into the TUI.
type (
	sectionsMsg  []core.MovieSection
	loadingMsg   bool
	modeMsg      browse.Mode
	listErrMsg   struct{ err error }
	selectionMsg core.Movie
)

// listen waits for the next value on ch. A closed channel yields no message.
func listen[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

// listRow is either a year header or a movie at path.
type listRow struct {
	header bool
	year   int
	movie  core.Movie
	path   browse.IndexPath
}

// flattenSections turns sections into display rows.
func flattenSections(sections []core.MovieSection) []listRow {
	var rows []listRow
	for si, sec := range sections {
		rows = append(rows, listRow{header: true, year: sec.Year})
		for ri, mv := range sec.Movies {
			rows = append(rows, listRow{movie: mv, path: browse.IndexPath{Section: si, Row: ri}})
		}
	}
	return rows
}

// browseModel is the Bubble Tea model for the movie list.
type browseModel struct {
	ctx    context.Context
	lister *browse.Lister
	feeds  feeds
	newAgg func() *details.Aggregator

	input     textinput.Model
	spinner   spinner.Model
	rows      []listRow
	cursor    int // index into rows; always a movie row when any exist
	focusList bool
	loading   bool
	mode      browse.Mode
	status    string

	detail    *detailsModel
	detailAgg *details.Aggregator

	width  int
	height int
}

func newBrowseModel(ctx context.Context, l *browse.Lister, f feeds, newAgg func() *details.Aggregator) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search movies..."
	ti.Focus()
	ti.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:     ctx,
		lister:  l,
		feeds:   f,
		newAgg:  newAgg,
		input:   ti,
		spinner: s,
		cursor:  -1,
	}
}

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.listenSections(),
		m.listenLoading(),
		m.listenMode(),
		m.listenErrs(),
		m.listenSelections(),
		func() tea.Msg {
			m.lister.Load()
			return nil
		},
	)
}

func (m browseModel) listenSections() tea.Cmd {
	return listen(m.feeds.sections, func(v []core.MovieSection) tea.Msg { return sectionsMsg(v) })
}

func (m browseModel) listenLoading() tea.Cmd {
	return listen(m.feeds.loading, func(v bool) tea.Msg { return loadingMsg(v) })
}

func (m browseModel) listenMode() tea.Cmd {
	return listen(m.feeds.mode, func(v browse.Mode) tea.Msg { return modeMsg(v) })
}

func (m browseModel) listenErrs() tea.Cmd {
	return listen(m.feeds.errs, func(v error) tea.Msg { return listErrMsg{err: v} })
}

func (m browseModel) listenSelections() tea.Cmd {
	return listen(m.feeds.selections, func(v core.Movie) tea.Msg { return selectionMsg(v) })
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case sectionsMsg:
		m.setSections(msg)
		return m, m.listenSections()

	case loadingMsg:
		m.loading = bool(msg)
		return m, m.listenLoading()

	case modeMsg:
		m.mode = browse.Mode(msg)
		return m, m.listenMode()

	case listErrMsg:
		m.status = core.DisplayMessage(msg.err)
		return m, m.listenErrs()

	case selectionMsg:
		cmd := m.openDetails(core.Movie(msg))
		return m, tea.Batch(cmd, m.listenSelections())

	case tea.KeyMsg:
		return m.handleKey(msg)

	case detailsLoadedMsg, detailsToggledMsg:
		return m.updateDetail(msg)

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.detail != nil {
			m, cmd = m.updateDetail(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if !m.focusList {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey dispatches key events to the details view, the search box or the list.
func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.detail != nil {
		if msg.String() == "esc" {
			m.closeDetails()
			return m, nil
		}
		return m.updateDetail(msg)
	}

	switch msg.String() {
	case "tab":
		m.setFocus(!m.focusList)
		return m, nil
	case "up":
		m.moveCursor(-1)
		return m, nil
	case "down":
		m.moveCursor(1)
		return m, nil
	}

	if !m.focusList {
		if msg.String() == "enter" {
			m.setFocus(true)
			return m, nil
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.lister.SearchTextChanged(after)
		}
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "k":
		m.moveCursor(-1)
	case "j":
		m.moveCursor(1)
	case "/":
		m.setFocus(false)
	case "w":
		if r, ok := m.current(); ok {
			m.lister.ToggleWatchlist(r.movie.ID, r.path)
		}
	case "enter":
		if r, ok := m.current(); ok {
			m.lister.SelectMovie(r.movie)
		}
	}
	return m, nil
}

func (m *browseModel) setFocus(list bool) {
	m.focusList = list
	if list {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
}

// setSections replaces the rows and keeps the cursor on the same movie.
func (m *browseModel) setSections(sections []core.MovieSection) {
	var keep int
	if r, ok := m.current(); ok {
		keep = r.movie.ID
	}
	m.rows = flattenSections(sections)
	m.cursor = -1
	for i, r := range m.rows {
		if r.header {
			continue
		}
		if m.cursor < 0 {
			m.cursor = i
		}
		if keep != 0 && r.movie.ID == keep {
			m.cursor = i
			break
		}
	}
}

// moveCursor steps over headers. Landing on the last movie asks for the next page.
func (m *browseModel) moveCursor(delta int) {
	if m.cursor < 0 {
		return
	}
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if !m.rows[i].header {
			m.cursor = i
			break
		}
	}
	if delta > 0 && m.isLastMovie() {
		m.lister.ReachedBottom()
	}
}

func (m browseModel) isLastMovie() bool {
	for i := m.cursor + 1; i < len(m.rows); i++ {
		if !m.rows[i].header {
			return false
		}
	}
	return m.cursor >= 0
}

func (m browseModel) current() (listRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].header {
		return listRow{}, false
	}
	return m.rows[m.cursor], true
}

// openDetails starts the details pipeline for mv. Watchlist changes made
// there are reported back to the list.
func (m *browseModel) openDetails(mv core.Movie) tea.Cmd {
	m.closeDetails()
	agg := m.newAgg()
	agg.OnWatchlistChange(m.lister.WatchlistChanged)
	dm := newDetailsModel(m.ctx, agg, mv.ID)
	m.detail = &dm
	m.detailAgg = agg
	return dm.Init()
}

func (m *browseModel) closeDetails() {
	if m.detailAgg != nil {
		m.detailAgg.Close()
	}
	m.detail = nil
	m.detailAgg = nil
}

func (m browseModel) updateDetail(msg tea.Msg) (browseModel, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	dm, cmd := m.detail.update(msg)
	m.detail = &dm
	return m, cmd
}

func (m browseModel) View() string {
	if m.detail != nil {
		return m.detail.View()
	}

	var sb strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Render("CineShelf")
	sb.WriteString(title + styleDim.Render(" · "+m.mode.String()))
	if m.loading {
		sb.WriteString(" " + m.spinner.View())
	}
	sb.WriteString("\n" + m.input.View() + "\n\n")

	start, end := m.window()
	for i := start; i < end; i++ {
		sb.WriteString(m.renderRow(i) + "\n")
	}
	if len(m.rows) == 0 && !m.loading {
		sb.WriteString(styleDim.Render("No movies.") + "\n")
	}

	if m.status != "" {
		sb.WriteString("\n" + styleError.Render(m.status))
	}
	sb.WriteString("\n" + styleDim.Render("tab: focus  ↑/↓: move  w: watchlist  enter: details  q: quit"))
	return sb.String()
}

// window returns the row range that fits the terminal, keeping the cursor visible.
func (m browseModel) window() (start, end int) {
	visible := m.height - 6
	if visible < 1 || visible >= len(m.rows) {
		return 0, len(m.rows)
	}
	start = m.cursor - visible/2
	if start < 0 {
		start = 0
	}
	end = start + visible
	if end > len(m.rows) {
		end = len(m.rows)
		start = end - visible
	}
	return start, end
}

func (m browseModel) renderRow(i int) string {
	r := m.rows[i]
	if r.header {
		return styleHeader.UnsetMarginBottom().Render(fmt.Sprintf("%d", r.year))
	}
	line := fmt.Sprintf("%s %s %s",
		styleStar.Render(starFor(r.movie.IsOnWatchlist)),
		r.movie.Title,
		styleDim.Render(fmt.Sprintf("%.1f", r.movie.VoteAverage)),
	)
	if i == m.cursor {
		marker := "> "
		if !m.focusList {
			marker = "· "
		}
		return styleSelected.Render(marker) + line
	}
	return "  " + line
}
