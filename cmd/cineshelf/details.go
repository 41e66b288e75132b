package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineShelf/internal/config"
	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

func newDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details <movie-id>",
		Short: "Show a movie with similar titles and their top cast",
		Long: "Load a movie's details, its similar movies, and the most popular actors\n" +
			"and directors across those similar movies.",
		Example: `  cineshelf details 603`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return runDetails(id)
		},
	}
}

func runDetails(movieID int) error {
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

	agg := details.New(svc.movies, svc.store, detailsConfig(cfg), logger)
	defer agg.Close()

	m := newDetailsModel(ctx, agg, movieID)
	m.standalone = true

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("run details: %w", err)
	}
	dm, ok := final.(detailsModel)
	if !ok {
		return errors.New("unexpected model type from tea program")
	}
	return dm.err
}

// detailsLoadedMsg reports the end of the details pipeline.
type detailsLoadedMsg struct {
	movieID int
	err     error
}

// detailsToggledMsg reports the end of a watchlist toggle.
type detailsToggledMsg struct {
	movieID int
	err     error
}

// detailsModel shows a spinner while the pipeline runs, then the result.
// In standalone mode it quits once loading finishes.
type detailsModel struct {
	ctx        context.Context
	agg        *details.Aggregator
	movieID    int
	spinner    spinner.Model
	result     details.Result
	err        error
	loading    bool
	toggling   bool
	standalone bool
}

func newDetailsModel(ctx context.Context, agg *details.Aggregator, movieID int) detailsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return detailsModel{
		ctx:     ctx,
		agg:     agg,
		movieID: movieID,
		spinner: s,
		loading: true,
	}
}

func (m detailsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m detailsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.update(msg)
}

func (m detailsModel) update(msg tea.Msg) (detailsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.standalone {
				return m, tea.Quit
			}
		case "w":
			if !m.loading && !m.toggling && m.err == nil {
				m.toggling = true
				return m, m.toggle()
			}
		}
	case detailsLoadedMsg:
		if msg.movieID != m.movieID {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.result = m.agg.Snapshot()
		if m.standalone {
			return m, tea.Quit
		}
	case detailsToggledMsg:
		if msg.movieID != m.movieID {
			return m, nil
		}
		m.toggling = false
		m.result = m.agg.Snapshot()
		if msg.err != nil {
			m.err = msg.err
		}
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m detailsModel) View() string {
	if m.loading {
		return m.spinner.View() + styleDim.Render(fmt.Sprintf(" Loading movie %d...", m.movieID)) + "\n"
	}
	var sb strings.Builder
	sb.WriteString(renderDetails(m.result))
	if m.err != nil {
		sb.WriteString("\n" + styleError.Render("Error: "+core.DisplayMessage(m.err)) + "\n")
	}
	if !m.standalone {
		sb.WriteString("\n" + styleDim.Render("w: toggle watchlist  esc: back") + "\n")
	}
	return sb.String()
}

// load runs the pipeline and then refreshes the watchlist flag.
func (m detailsModel) load() tea.Cmd {
	return func() tea.Msg {
		if err := m.agg.Load(m.ctx, m.movieID); err != nil {
			return detailsLoadedMsg{movieID: m.movieID, err: err}
		}
		// A failed check keeps the flag off; the error is logged by the aggregator.
		_ = m.agg.CheckWatchlist(m.ctx)
		return detailsLoadedMsg{movieID: m.movieID}
	}
}

func (m detailsModel) toggle() tea.Cmd {
	return func() tea.Msg {
		return detailsToggledMsg{movieID: m.movieID, err: m.agg.ToggleWatchlist(m.ctx)}
	}
}

// renderDetails formats an aggregated result for the terminal.
func renderDetails(r details.Result) string {
	if r.Details == nil {
		return styleDim.Render("No details available.") + "\n"
	}
	d := r.Details

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\n",
		styleStar.Render(starFor(r.InWatchlist)),
		styleHeader.UnsetMarginBottom().Render(d.Title),
		styleDim.Render(d.FormattedReleaseDate),
	)
	if d.Tagline != nil && *d.Tagline != "" {
		sb.WriteString(styleInfo.Render(*d.Tagline) + "\n")
	}
	if d.Overview != "" {
		sb.WriteString("\n" + d.Overview + "\n")
	}

	sb.WriteString("\n")
	if d.Status != nil {
		sb.WriteString(field("Status", *d.Status))
	}
	if d.Runtime > 0 {
		sb.WriteString(field("Runtime", fmt.Sprintf("%d min", d.Runtime)))
	}
	sb.WriteString(field("Revenue", d.FormattedRevenue))
	if len(d.Genres) > 0 {
		sb.WriteString(field("Genres", strings.Join(d.Genres, ", ")))
	}
	if d.PosterURL != "" {
		sb.WriteString(field("Poster", d.PosterURL))
	}

	sb.WriteString(peopleBlock("Top actors", r.TopActors))
	sb.WriteString(peopleBlock("Top directors", r.TopDirectors))

	if len(r.Similar) > 0 {
		sb.WriteString("\n" + styleTitle.Render("Similar") + "\n")
		for _, s := range r.Similar {
			fmt.Fprintf(&sb, "  %s %s\n", s.Title, styleDim.Render(fmt.Sprintf("(%d)", s.ReleaseYear())))
		}
	}
	return sb.String()
}

func field(name, value string) string {
	return styleDim.Render(name+":") + " " + value + "\n"
}

func peopleBlock(heading string, people []core.Person) string {
	if len(people) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n" + styleTitle.Render(heading) + "\n")
	for _, p := range people {
		fmt.Fprintf(&sb, "  %s %s\n", p.Name, styleDim.Render(fmt.Sprintf("%.1f", p.Popularity)))
	}
	return sb.String()
}

func starFor(on bool) string {
	if on {
		return "★"
	}
	return "☆"
}
