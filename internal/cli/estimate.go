package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slicealign/pkg/export"
)

func (c *CLI) estimateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "estimate <project.yaml> <reference> <moving>",
		Short: "Fit the rigid transform between two slices",
		Long: `Estimate fits the moving slice onto the reference slice using their
landmarks. Slices are numbered from 1 in project order and need not be
adjacent.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			project, err := export.LoadProject(args[0])
			if err != nil {
				return err
			}
			ref, err := parseSliceNumber(args[1], len(project.Slices))
			if err != nil {
				return err
			}
			moving, err := parseSliceNumber(args[2], len(project.Slices))
			if err != nil {
				return err
			}

			r, m := project.Slices[ref], project.Slices[moving]
			t, err := cfg.EstimatorSettings().Estimate(r.Points, m.Points)
			if err != nil {
				return fmt.Errorf("estimate %s against %s: %w", m.Name, r.Name, err)
			}
			c.Logger.Debug("pair estimated", "reference", r.Name, "moving", m.Name, "residual", t.Residual)

			out := cmd.OutOrStdout()
			if asJSON {
				return export.WriteAlignment(out, t.Alignment())
			}

			printTitle(out, fmt.Sprintf("%s → %s", m.Name, r.Name))
			rows := [][]string{append([]string{strconv.Itoa(len(r.Points))}, alignmentCells(t.Alignment())...)}
			rows[0] = append(rows[0], strconv.FormatFloat(t.Residual, 'f', 4, 64))
			fmt.Fprintln(out, renderTable([]string{"Points", "X", "Y", "Rotation", "RMS"}, rows))
			if t.Degenerate {
				printWarning(out, "landmarks are degenerate; rotation is not well determined")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the alignment as JSON")
	return cmd
}
