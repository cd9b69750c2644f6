package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.trai.ch/subdiv/internal/ui/style"
)

func (c *CLI) newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List recorded refinement plan builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plans, err := c.app.Plans()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				_, _ = fmt.Fprintln(out, "no plans recorded")
				return nil
			}

			s := style.New(style.NewRenderer(out))
			rows := make([][]string, 0, len(plans))
			for _, p := range plans {
				rows = append(rows, []string{
					string(p.Handle),
					string(p.Descriptor.Scheme),
					strconv.Itoa(p.Descriptor.IsolationLevel),
					strconv.Itoa(p.PatchCount),
					strconv.Itoa(p.RefinedVertices),
					p.BuildDuration.Round(time.Microsecond).String(),
					p.Timestamp.Format(time.RFC3339),
				})
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
				Headers("MESH", "SCHEME", "LEVEL", "PATCHES", "VERTICES", "BUILD", "RECORDED").
				Rows(rows...)
			_, _ = fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}
