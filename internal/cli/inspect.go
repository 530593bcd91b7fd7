package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/wasm2map"
	"github.com/wippyai/wasm2map/position"
	"github.com/wippyai/wasm2map/sourcemap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type inspectOptions struct {
	root *rootOptions

	filter      string
	limit       int
	mappings    bool
	interactive bool
}

func newInspectCmd(opts *rootOptions) *cobra.Command {
	o := &inspectOptions{root: opts}

	cmd := &cobra.Command{
		Use:   "inspect <input.wasm>",
		Short: "Print the position table derived from a binary's debug info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(args[0], cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.filter, "source", "", "only show positions whose source path contains this text")
	f.IntVarP(&o.limit, "limit", "n", 0, "show at most this many positions (0 for all)")
	f.BoolVar(&o.mappings, "mappings", false, "print the decoded source map segments instead of the table")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "browse the table in a terminal UI")
	return cmd
}

func (o *inspectOptions) run(input string, out io.Writer) error {
	s, closeFn, err := o.root.openSession(input)
	if err != nil {
		return err
	}
	defer closeFn()

	table, err := s.Positions()
	if err != nil {
		return err
	}
	offset, _ := s.CodeOffset()

	if o.interactive {
		if !isTerminal(out) {
			return fmt.Errorf("--interactive needs a terminal")
		}
		return runInteractive(input, offset, table.Points(), o.filter)
	}

	styled := isTerminal(out)
	if o.mappings {
		return o.printMappings(s, out, styled)
	}

	points := filterPoints(table.Points(), o.filter)
	fmt.Fprintf(out, "%s code offset 0x%08x, %d positions\n\n",
		render(styled, titleStyle, input), offset, len(points))
	printPoints(out, points, o.limit, styled)
	return nil
}

func (o *inspectOptions) printMappings(s *wasm2map.Session, out io.Writer, styled bool) error {
	m, err := s.Build(wasm2map.BuildOptions{})
	if err != nil {
		return err
	}
	segments, err := sourcemap.DecodeMappings(m.Mappings)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", render(styled, headerStyle, fmt.Sprintf("%-10s  %-6s  %-6s  %s", "COLUMN", "LINE", "COL", "SOURCE")))
	shown := 0
	for _, seg := range segments {
		source := ""
		if seg.HasSource && int(seg.Source) < len(m.Sources) {
			source = m.Sources[seg.Source]
		}
		if o.filter != "" && !strings.Contains(source, o.filter) {
			continue
		}
		if o.limit > 0 && shown == o.limit {
			fmt.Fprintf(out, "%s\n", render(styled, helpStyle, "..."))
			break
		}
		shown++
		// segments are zero-based; print one-based like the table
		fmt.Fprintf(out, "%s  %-6d  %-6d  %s\n",
			render(styled, addrStyle, fmt.Sprintf("0x%08x", seg.GeneratedColumn)),
			seg.Line+1, seg.Column+1,
			render(styled, pathStyle, source))
	}
	return nil
}

func printPoints(out io.Writer, points []position.CodePoint, limit int, styled bool) {
	fmt.Fprintf(out, "%s\n", render(styled, headerStyle, fmt.Sprintf("%-10s  %-6s  %-6s  %s", "ADDRESS", "LINE", "COL", "SOURCE")))
	for i, p := range points {
		if limit > 0 && i >= limit {
			fmt.Fprintf(out, "%s\n", render(styled, helpStyle, fmt.Sprintf("... %d more", len(points)-i)))
			return
		}
		fmt.Fprintf(out, "%s  %-6d  %-6d  %s\n",
			render(styled, addrStyle, fmt.Sprintf("0x%08x", p.Address)),
			p.Line, p.Column,
			render(styled, pathStyle, p.Path))
	}
}

func filterPoints(points []position.CodePoint, filter string) []position.CodePoint {
	if filter == "" {
		return points
	}
	var out []position.CodePoint
	for _, p := range points {
		if strings.Contains(p.Path, filter) {
			out = append(out, p)
		}
	}
	return out
}

func render(styled bool, style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
