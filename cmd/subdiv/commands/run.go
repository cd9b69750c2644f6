package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/subdiv/internal/adapters/memmesh" //nolint:depguard // Listed in help text
	"go.trai.ch/subdiv/internal/app"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/engine/controller"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [meshes...]",
		Short: "Refine meshes and draw frames",
		Long: "Refine built-in shapes (" + shapeList() + ") or OBJ files.\n" +
			"Every mesh gets its own controller; frames are driven for all of them.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			d, err := c.descriptor(cmd)
			if err != nil {
				return err
			}
			frames, _ := cmd.Flags().GetInt("frames")
			interval, _ := cmd.Flags().GetDuration("interval")
			watch, _ := cmd.Flags().GetBool("watch")
			export, _ := cmd.Flags().GetString("export")
			quiet, _ := cmd.Flags().GetBool("quiet")

			out := cmd.OutOrStdout()
			var progress io.Writer
			if !quiet {
				progress = cmd.ErrOrStderr()
			}
			return c.app.Run(cmd.Context(), app.RunOptions{
				Meshes:     args,
				Frames:     frames,
				Interval:   interval,
				Descriptor: d,
				Watch:      watch,
				Export:     export,
				Progress:   progress,
				OnFrame: func(reports []controller.Report) {
					if quiet {
						return
					}
					for _, r := range reports {
						_, _ = fmt.Fprintf(out, "%s #%d %s\n", r.Handle, r.Frame, r.Status)
					}
				},
			})
		},
	}
	cmd.Flags().IntP("frames", "n", 1, "Number of frames to draw (0 with --watch runs until interrupted)")
	cmd.Flags().IntP("level", "l", 0, "Isolation level")
	cmd.Flags().StringP("scheme", "s", "", "Subdivision scheme (catmullClark, loop, bilinear)")
	cmd.Flags().String("boundary", "", "Boundary interpolation rule (none, edgeOnly, edgeAndCorner)")
	cmd.Flags().Bool("adaptive", false, "Isolate extraordinary features adaptively")
	cmd.Flags().BoolP("watch", "w", false, "Reload OBJ files when they change")
	cmd.Flags().StringP("export", "o", "", "Write the last refined frame as OBJ")
	cmd.Flags().Duration("interval", 0, "Delay between frames")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print per-frame status or progress")
	return cmd
}

// descriptor returns the configured descriptor with the changed flags
// applied, or nil when no descriptor flag was given.
func (c *CLI) descriptor(cmd *cobra.Command) (*domain.RefinementDescriptor, error) {
	flags := cmd.Flags()
	if !flags.Changed("level") && !flags.Changed("scheme") && !flags.Changed("boundary") && !flags.Changed("adaptive") {
		return nil, nil
	}

	d := c.app.Config().Descriptor
	if flags.Changed("level") {
		d.IsolationLevel, _ = flags.GetInt("level")
	}
	if flags.Changed("scheme") {
		name, _ := flags.GetString("scheme")
		scheme, err := domain.ParseScheme(name)
		if err != nil {
			return nil, err
		}
		d.Scheme = scheme
	}
	if flags.Changed("boundary") {
		name, _ := flags.GetString("boundary")
		rule, err := domain.ParseBoundaryRule(name)
		if err != nil {
			return nil, err
		}
		d.BoundaryRule = rule
	}
	if flags.Changed("adaptive") {
		d.Adaptive, _ = flags.GetBool("adaptive")
	}
	return &d, nil
}

func shapeList() string {
	return strings.Join(memmesh.Shapes(), ", ")
}
