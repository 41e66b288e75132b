package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/CineShelf/internal/core"
	"github.com/vadimtrunov/CineShelf/internal/details"
)

// Deps holds the dependencies of the MCP tool handlers.
type Deps struct {
	Movies    core.MovieRepository
	Watchlist core.WatchlistStore
	Details   details.Config
}

// Server wraps an MCP SDK server with CineShelf tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all CineShelf tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cineshelf",
			Version: "0.1.0",
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(popularMoviesTool(), s.handlePopularMovies)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(movieDetailsTool(), s.handleMovieDetails)
	s.server.AddTool(watchlistAddTool(), s.handleWatchlistAdd)
	s.server.AddTool(watchlistRemoveTool(), s.handleWatchlistRemove)
	s.server.AddTool(watchlistListTool(), s.handleWatchlistList)
}

func popularMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "popular_movies",
		Description: "List popular movies grouped by release year, newest first. Each movie carries an is_on_watchlist flag.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"page": pageProperty(),
			},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search movies by title. Results are grouped by release year, newest first.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
				"page": pageProperty(),
			},
			"required": []any{"query"},
		},
	}
}

func movieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "movie_details",
		Description: "Get a movie's details, similar movies, and the most popular actors and directors across those similar movies.",
		InputSchema: movieIDSchema("The TMDb ID of the movie"),
	}
}

func watchlistAddTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "watchlist_add",
		Description: "Add a movie to the local watchlist. Adding a movie twice keeps one entry.",
		InputSchema: movieIDSchema("The TMDb ID of the movie to add"),
	}
}

func watchlistRemoveTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "watchlist_remove",
		Description: "Remove a movie from the local watchlist. Removing an absent movie is not an error.",
		InputSchema: movieIDSchema("The TMDb ID of the movie to remove"),
	}
}

func watchlistListTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "watchlist_list",
		Description: "List the TMDb IDs on the local watchlist in ascending order.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "Page number, starting at 1 (default 1)",
	}
}

func movieIDSchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"movie_id": map[string]any{
				"type":        "integer",
				"description": desc,
			},
		},
		"required": []any{"movie_id"},
	}
}

// pageResult is the JSON shape of popular_movies and search_movies.
type pageResult struct {
	Page         int                 `json:"page"`
	TotalPages   int                 `json:"total_pages"`
	TotalResults int                 `json:"total_results"`
	Sections     []core.MovieSection `json:"sections"`
}

func (s *Server) handlePopularMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie catalog not configured"), nil
	}

	page, err := extractOptionalInt(req.Params.Arguments, "page", 1)
	if err != nil {
		return toolError(err.Error()), nil
	}

	resp, err := s.deps.Movies.GetPopular(ctx, page)
	if err != nil {
		return s.failure("popular_movies", err), nil
	}
	return toolJSON(s.sectioned(ctx, resp))
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie catalog not configured"), nil
	}

	query, err := extractStringFromArgs(req.Params.Arguments, "query")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page, err := extractOptionalInt(req.Params.Arguments, "page", 1)
	if err != nil {
		return toolError(err.Error()), nil
	}

	resp, err := s.deps.Movies.Search(ctx, query, page)
	if err != nil {
		return s.failure("search_movies", err), nil
	}
	return toolJSON(s.sectioned(ctx, resp))
}

func (s *Server) handleMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie catalog not configured"), nil
	}

	movieID, err := extractIntFromArgs(req.Params.Arguments, "movie_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	agg := details.New(s.deps.Movies, s.deps.Watchlist, s.deps.Details, s.logger)
	defer agg.Close()
	if err := agg.Load(ctx, movieID); err != nil {
		return s.failure("movie_details", err), nil
	}
	if s.deps.Watchlist != nil {
		if err := agg.CheckWatchlist(ctx); err != nil {
			return s.failure("movie_details", err), nil
		}
	}
	return toolJSON(agg.Snapshot())
}

func (s *Server) handleWatchlistAdd(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return s.mutateWatchlist(ctx, req, "watchlist_add", true)
}

func (s *Server) handleWatchlistRemove(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return s.mutateWatchlist(ctx, req, "watchlist_remove", false)
}

func (s *Server) mutateWatchlist(ctx context.Context, req *mcpsdk.CallToolRequest, tool string, add bool) (*mcpsdk.CallToolResult, error) {
	if s.deps.Watchlist == nil {
		return toolError("watchlist storage not configured"), nil
	}

	movieID, err := extractIntFromArgs(req.Params.Arguments, "movie_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	if add {
		err = s.deps.Watchlist.Add(ctx, movieID)
	} else {
		err = s.deps.Watchlist.Remove(ctx, movieID)
	}
	if err != nil {
		return s.failure(tool, err), nil
	}

	return toolJSON(map[string]any{
		"movie_id":        movieID,
		"is_on_watchlist": add,
	})
}

func (s *Server) handleWatchlistList(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Watchlist == nil {
		return toolError("watchlist storage not configured"), nil
	}

	ids, err := s.deps.Watchlist.ListAll(ctx)
	if err != nil {
		return s.failure("watchlist_list", err), nil
	}
	return toolJSON(map[string]any{"movie_ids": ids.Sorted()})
}

// sectioned flags watchlist membership and groups the page by year. A failing
// watchlist lookup leaves the flags unset.
func (s *Server) sectioned(ctx context.Context, page *core.MoviePage) pageResult {
	movies := page.Results
	if s.deps.Watchlist != nil {
		ids, err := s.deps.Watchlist.ListAll(ctx)
		if err != nil {
			s.logger.Warn("watchlist lookup failed", slog.String("error", err.Error()))
		} else {
			for i := range movies {
				movies[i].IsOnWatchlist = ids.Has(movies[i].ID)
			}
		}
	}
	sections := core.GroupByYear(movies)
	if sections == nil {
		sections = []core.MovieSection{}
	}
	return pageResult{
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
		Sections:     sections,
	}
}

func (s *Server) failure(tool string, err error) *mcpsdk.CallToolResult {
	s.logger.Error("tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
	return toolError(core.DisplayMessage(err))
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return toInt(key, val)
}

// extractOptionalInt is extractIntFromArgs with a default for absent keys.
func extractOptionalInt(raw json.RawMessage, key string, def int) (int, error) {
	if len(raw) == 0 {
		return def, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok || val == nil {
		return def, nil
	}
	n, err := toInt(key, val)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be at least 1", key)
	}
	return n, nil
}

func toInt(key string, val any) (int, error) {
	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}
