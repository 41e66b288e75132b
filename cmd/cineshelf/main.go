package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cineshelf",
		Short: "Browse movies and keep a watchlist",
		Long: "CineShelf browses the TMDb catalog: popular movies, debounced title search,\n" +
			"movie details with the top cast and directors of similar titles, and a local watchlist.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/cineshelf.yaml", "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newDetailsCmd(),
		newWatchlistCmd(),
		newConfigCmd(),
		newBotCmd(),
		newMCPServeCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("CineShelf v%s\n", version)
		},
	}
}
