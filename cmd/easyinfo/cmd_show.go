package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"easyinfo/internal/describe"
	"easyinfo/internal/persist"
)

var (
	showKey      string
	showMarkdown bool
	showMaxDepth int
)

// maxParallelLoads bounds concurrent file loads in show.
const maxParallelLoads = 4

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(describe.LabelColor)

var showCmd = &cobra.Command{
	Use:   "show [file...]",
	Short: "Describe saved values",
	Long: `Loads each file and prints the shape and value of what it holds.

Files are loaded concurrently. A .db store shows every entry unless --key
selects one. Binary .gob files need a Go type to decode into and cannot be shown.

Example:
  easyinfo show scores.json grid.csv
  easyinfo show vars.db --key scores
  easyinfo show --markdown runs/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runShow,
}

// shown is one described value.
type shown struct {
	file  string
	name  string
	value any
}

func runShow(cmd *cobra.Command, args []string) error {
	loaded := make([][]shown, len(args))

	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			v, err := persist.LoadAny(path, showKey)
			if err != nil {
				return err
			}
			loaded[i] = entriesOf(path, v)
			logger.Debug("loaded", zap.String("path", path), zap.Int("entries", len(loaded[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []shown
	for _, l := range loaded {
		all = append(all, l...)
	}

	depth := showMaxDepth
	if depth <= 0 {
		depth = cfg.MaxDepth
	}
	out := cmd.OutOrStdout()
	if showMarkdown {
		return renderTable(out, all, depth)
	}
	printShown(out, all, depth)
	return nil
}

// entriesOf splits a whole .db store into its entries.
func entriesOf(path string, v any) []shown {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	isStore := ext == ".db" || ext == ".sqlite"
	if !isStore || showKey != "" {
		name := base
		if showKey != "" {
			name = showKey
		}
		return []shown{{file: path, name: name, value: v}}
	}

	all, _ := v.(map[string]any)
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]shown, 0, len(names))
	for _, name := range names {
		entries = append(entries, shown{file: path, name: name, value: all[name]})
	}
	return entries
}

func printShown(w io.Writer, all []shown, depth int) {
	f := describe.NewFormatter(cfg.Color)
	last := ""
	for _, s := range all {
		if s.file != last {
			header := "== " + s.file + " =="
			if cfg.Color {
				header = headerStyle.Render(header)
			}
			fmt.Fprintln(w, header)
			last = s.file
		}
		label, val := describe.Measure(s.value, depth)
		fmt.Fprintln(w, f.Shape(s.name, 0, label, val, false))
		fmt.Fprintln(w, f.Value(s.name, 0, s.value, "", false))
	}
}

func renderTable(w io.Writer, all []shown, depth int) error {
	var md strings.Builder
	md.WriteString("| Name | File | Type | Size |\n|---|---|---|---|\n")
	for _, s := range all {
		label, val := describe.Measure(s.value, depth)
		fmt.Fprintf(&md, "| %s | %s | %s | %s %s |\n",
			cell(s.name), cell(s.file), cell(describe.TypeName(s.value)), label, cell(val))
	}

	style := glamour.WithStylePath("notty")
	if cfg.Color {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	rendered, err := renderer.Render(md.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
