package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recera/kgcanvas/cmd/kgcanvas/internal/config"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/scene"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	info   = color.New(color.FgCyan)
	warn   = color.New(color.FgYellow)
)

func newLayoutCommand() *cobra.Command {
	var mode string
	var seed string
	var iterations int

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print node positions for a layout mode",
		Long: `Loads the seed graph, applies a layout strategy (force, cluster or
hierarchy) and prints where every node ends up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if seed != "" {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Layout.Iterations = iterations
			}
			m := cfg.LayoutMode()
			if mode != "" {
				if m, err = layout.ParseMode(mode); err != nil {
					return err
				}
			}
			return runLayout(cmd.OutOrStdout(), cfg, m)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Layout mode: force, cluster or hierarchy")
	cmd.Flags().StringVar(&seed, "seed", "", "Seed graph file (defaults to the demo graph)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Relaxation passes after the force reset")

	return cmd
}

func runLayout(w io.Writer, cfg *config.Config, mode layout.Mode) error {
	sc, err := cfg.LoadScene()
	if err != nil {
		return err
	}
	nodes := slices.Collect(sc.Nodes())
	edges := slices.Collect(sc.Edges())

	opts := cfg.LayoutOptions()
	opts.Root = sc.Root()
	positions, err := layout.Apply(mode, nodes, edges, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s layout, %d nodes, %d links\n\n",
		brand.Sprint("kgcanvas"), info.Sprint(mode), len(nodes), len(edges))

	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		p, ok := positions[n.ID]
		if !ok {
			p = n.Position
		}
		moved := ""
		if p.Dist(n.Position) > 0.5 {
			moved = warn.Sprint("moved")
		}
		rows = append(rows, []string{
			string(n.ID),
			n.Category.Style().Icon + " " + string(n.Category),
			n.LabelPrimary,
			fmt.Sprintf("%8.1f", p.X),
			fmt.Sprintf("%8.1f", p.Y),
			moved,
		})
	}
	printTable(w, []string{"ID", "CATEGORY", "LABEL", "X", "Y", ""}, rows)

	counts := categoryCounts(sc)
	parts := make([]string, 0, len(counts))
	for _, c := range scene.Categories() {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", c, counts[c]))
		}
	}
	fmt.Fprintf(w, "\n  %s\n", subtle.Sprint(strings.Join(parts, " · ")))
	return nil
}

// printTable prints an aligned table. Widths count runes so CJK labels and
// category icons do not skew the columns more than the terminal does.
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], len([]rune(cell)))
			}
		}
	}

	pad := func(s string, n int) string {
		return s + strings.Repeat(" ", max(0, n-len([]rune(s))))
	}

	header := "  "
	sep := "  "
	for i, h := range headers {
		header += pad(h, widths[i]) + "  "
		sep += strings.Repeat("─", widths[i]) + "  "
	}
	subtle.Fprintln(w, strings.TrimRight(header, " "))
	subtle.Fprintln(w, strings.TrimRight(sep, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += pad(cell, widths[i]) + "  "
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func categoryCounts(sc *scene.Scene) map[scene.Category]int {
	counts := make(map[scene.Category]int, len(scene.Categories()))
	for n := range sc.Nodes() {
		counts[n.Category]++
	}
	return counts
}
