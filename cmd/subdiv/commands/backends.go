package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.trai.ch/subdiv/internal/ui/style"
)

func (c *CLI) newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Probe the compute backends and show the selected one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status := c.app.Backends(cmd.Context())
			out := cmd.OutOrStdout()
			s := style.New(style.NewRenderer(out))

			rows := make([][]string, 0, len(status.Probes))
			for _, p := range status.Probes {
				state, detail := s.Good.Render(style.Check+" available"), ""
				if !p.Available() {
					state, detail = s.Bad.Render(style.Cross+" unavailable"), p.Err.Error()
				}
				name := string(p.Kind)
				if p.Kind == status.Selected {
					name = s.Accent.Render(style.Dot + " " + name)
				}
				rows = append(rows, []string{name, state, detail})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(s.Border).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return s.Header
					}
					return s.Cell
				}).
				Headers("BACKEND", "STATUS", "DETAIL").
				Rows(rows...)
			_, _ = fmt.Fprintln(out, t.Render())

			if status.Err != nil {
				return status.Err
			}
			_, _ = fmt.Fprintf(out, "selected: %s\n", status.Selected)
			return nil
		},
	}
}
