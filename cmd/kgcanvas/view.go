package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recera/kgcanvas/cmd/kgcanvas/internal/ui"
	"github.com/recera/kgcanvas/pkg/debug"
	"github.com/recera/kgcanvas/pkg/layout"
)

func newViewCommand() *cobra.Command {
	var seed string
	var mode string
	var logFile string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the canvas in the terminal",
		Long: `Opens the knowledge graph canvas in the terminal. Drag to pan, scroll to
zoom, click to select, right-click a node to add a child, double-click to open.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if seed != "" {
				cfg.Seed = seed
			}
			if mode != "" {
				if _, err := layout.ParseMode(mode); err != nil {
					return err
				}
				cfg.Layout.Mode = mode
			}

			sc, err := cfg.LoadScene()
			if err != nil {
				return err
			}

			// The terminal belongs to the canvas, so logs only go to a file.
			logger := zap.NewNop()
			if logFile != "" {
				if logger, err = debug.NewLogger(cfg.Log.Level, false, logFile); err != nil {
					return err
				}
				defer logger.Sync()
			}

			model := ui.NewModel(sc, ui.Options{
				Config:  cfg.Interact(),
				MindMap: cfg.MindMapOptions(),
				Layout:  cfg.LayoutMode(),
				Logger:  logger,
			})
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("failed to run canvas: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "Seed graph file (defaults to the demo graph)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Starting layout mode: force, cluster or hierarchy")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	return cmd
}
