package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slicealign/internal/models"
	"slicealign/pkg/correspondence"
	"slicealign/pkg/export"
	"slicealign/pkg/preview"
	"slicealign/pkg/registration"
	"slicealign/pkg/storage"
)

type computeOpts struct {
	export    bool
	outDir    string
	overlay   string
	save      string
	residuals bool
}

func (c *CLI) computeCommand() *cobra.Command {
	var opts computeOpts

	cmd := &cobra.Command{
		Use:   "compute <project.yaml>",
		Short: "Align every slice of a project to its predecessor",
		Long: `Compute loads a project file, estimates the rigid transform of each slice
relative to the previous one and prints the resulting chain. The first slice
is the fixed reference.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompute(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.export, "export", false, "write one alignment JSON file per slice pair")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", "", "export directory (defaults to output.dir)")
	cmd.Flags().StringVar(&opts.overlay, "overlay", "", "write landmark overlay PNGs to this directory")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the session under this name")
	cmd.Flags().BoolVar(&opts.residuals, "residuals", false, "report landmark residuals per slice pair")

	return cmd
}

func (c *CLI) runCompute(cmd *cobra.Command, path string, opts computeOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	session, err := c.openSession(cfg, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	prog := newProgress(c.Logger)
	alignments, err := session.Compute()

	var chainErr *registration.ChainError
	switch {
	case errors.As(err, &chainErr):
		for _, pair := range chainErr.Pairs {
			printWarning(out, "slice %d: %v", pair.Slice+1, pair.Err)
		}
	case err != nil:
		return fmt.Errorf("compute %s: %w", path, err)
	default:
		prog.done(fmt.Sprintf("Aligned %d slices", len(alignments)))
	}

	printTitle(out, filepath.Base(path))
	fmt.Fprintln(out, renderTable([]string{"#", "Name", "Points", "X", "Y", "Rotation"}, summaryRows(session.Summaries())))

	if opts.residuals {
		if err := printResiduals(out, session.Slices()); err != nil {
			return err
		}
	}

	if opts.export {
		dir := opts.outDir
		if dir == "" {
			dir = cfg.Output.Dir
		}
		paths, err := export.WriteChain(dir, cfg.Output.FilePattern, alignments)
		if err != nil {
			return err
		}
		printSuccess(out, "Exported %d alignments to %s", len(paths), dir)
		for _, p := range paths {
			printDetail(out, "%s", p)
		}
	}

	if opts.overlay != "" {
		paths, err := preview.SaveOverlaySequence(session.Slices(), session.Colors(), opts.overlay)
		if err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
		printSuccess(out, "Wrote %d overlays to %s", len(paths), opts.overlay)
	}

	if opts.save != "" {
		store, err := storage.New(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer store.Close()

		id, err := store.Save(cmd.Context(), opts.save, session.Snapshot())
		if err != nil {
			return err
		}
		printSuccess(out, "Saved session %q as %s", opts.save, id)
	}

	// Partial chains are reported and exported but still fail the command.
	if chainErr != nil {
		return fmt.Errorf("compute %s: %w", path, chainErr)
	}
	return nil
}

func summaryRows(summaries []correspondence.Summary) [][]string {
	rows := make([][]string, len(summaries))
	for k, s := range summaries {
		row := []string{strconv.Itoa(k + 1), s.Name, strconv.Itoa(s.Points)}
		rows[k] = append(row, alignmentCells(s.Alignment)...)
	}
	return rows
}

func printResiduals(w io.Writer, slices []models.Slice) error {
	rows := make([][]string, 0, len(slices))
	for k := 1; k < len(slices); k++ {
		stats, err := preview.Residuals(slices[k-1].Points, slices[k].Points, slices[k].Alignment)
		if err != nil {
			return fmt.Errorf("residuals %d/%d: %w", k, k+1, err)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d → %d", k, k+1),
			strconv.FormatFloat(stats.Mean, 'f', 3, 64),
			strconv.FormatFloat(stats.Max, 'f', 3, 64),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Pair", "Mean", "Max"}, rows))
	return nil
}

// parseSliceNumber converts a 1-based slice number argument.
func parseSliceNumber(arg string, count int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid slice number %q", arg)
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("slice %d out of range [1, %d]", n, count)
	}
	return n - 1, nil
}
