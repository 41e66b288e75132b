package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineShelf/internal/config"
	"github.com/vadimtrunov/CineShelf/internal/core"
)

// newWatchlistCmd returns the "watchlist" subcommand group.
func newWatchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the local watchlist",
	}

	cmd.AddCommand(
		newWatchlistListCmd(),
		newWatchlistMutateCmd("add", "Add a movie to the watchlist", true),
		newWatchlistMutateCmd("remove", "Remove a movie from the watchlist", false),
		newWatchlistContainsCmd(),
	)
	return cmd
}

func newWatchlistListCmd() *cobra.Command {
	var titles bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the movie IDs on the watchlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withWatchlist(func(ctx context.Context, svc *services) error {
				var movies core.MovieRepository
				if titles {
					movies = svc.movies
				}
				return printWatchlist(ctx, cmd.OutOrStdout(), svc.store, movies)
			})
		},
	}
	cmd.Flags().BoolVar(&titles, "titles", false, "look up each title in the catalog")
	return cmd
}

func newWatchlistMutateCmd(use, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <movie-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return withWatchlist(func(ctx context.Context, svc *services) error {
				if add {
					if err := svc.store.Add(ctx, id); err != nil {
						return fmt.Errorf("add movie %d: %w", id, err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("★ Movie %d added", id)))
					return nil
				}
				if err := svc.store.Remove(ctx, id); err != nil {
					return fmt.Errorf("remove movie %d: %w", id, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render(fmt.Sprintf("☆ Movie %d removed", id)))
				return nil
			})
		},
	}
}

func newWatchlistContainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contains <movie-id>",
		Short: "Check whether a movie is on the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return withWatchlist(func(ctx context.Context, svc *services) error {
				ok, err := svc.store.Contains(ctx, id)
				if err != nil {
					return fmt.Errorf("check movie %d: %w", id, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
				return nil
			})
		},
	}
}

// withWatchlist loads the config, opens services and runs fn.
func withWatchlist(fn func(ctx context.Context, svc *services) error) error {
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

	return fn(ctx, svc)
}

// printWatchlist writes the stored ids in ascending order. When movies is
// non-nil each line also carries the catalog title.
func printWatchlist(ctx context.Context, w io.Writer, store core.WatchlistStore, movies core.MovieRepository) error {
	ids, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list watchlist: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, styleDim.Render("Watchlist is empty."))
		return nil
	}

	fmt.Fprintln(w, styleHeader.Render("Watchlist"))
	for _, id := range ids.Sorted() {
		if movies == nil {
			fmt.Fprintf(w, "%s %d\n", styleStar.Render("★"), id)
			continue
		}
		d, err := movies.GetDetails(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "%s %d  %s\n", styleStar.Render("★"), id, styleError.Render(core.DisplayMessage(err)))
			continue
		}
		fmt.Fprintf(w, "%s %d  %s %s\n",
			styleStar.Render("★"), id,
			styleTitle.Render(d.Title),
			styleDim.Render(fmt.Sprintf("(%d)", d.ReleaseYear())),
		)
	}
	return nil
}

func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q: must be a positive integer", s)
	}
	return id, nil
}
