package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recera/kgcanvas/cmd/kgcanvas/internal/config"
)

var (
	version = "0.1.0-preview"
	commit  = "dev"
	date    = "unknown"
)

// configDir is where kgcanvas.yaml is looked up.
var configDir string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "kgcanvas",
		Short: "kgcanvas - interactive knowledge graph canvas",
		Long: `kgcanvas is a pan/zoom/select canvas for course knowledge graphs.
It runs in the terminal, serves live canvases to browsers over WebSocket,
and lays out seed graphs from the command line.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding kgcanvas.yaml")

	// Add commands
	rootCmd.AddCommand(newViewCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newLayoutCommand())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.FileName, err)
	}
	return cfg, nil
}
