package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"slicealign/internal/models"
	"slicealign/pkg/correspondence"
	"slicealign/pkg/export"
	"slicealign/pkg/storage"
)

func (c *CLI) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect saved alignment sessions",
	}

	cmd.AddCommand(c.sessionsListCommand())
	cmd.AddCommand(c.sessionsShowCommand())
	cmd.AddCommand(c.sessionsExportCommand())
	cmd.AddCommand(c.sessionsDeleteCommand())

	return cmd
}

// openStore opens the session database named in the configuration.
func (c *CLI) openStore() (*storage.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return store, nil
}

func (c *CLI) sessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				printDetail(out, "no saved sessions")
				return nil
			}

			rows := make([][]string, len(recs))
			for i, r := range recs {
				rows[i] = []string{
					r.ID, r.Name, strconv.Itoa(r.Slices), strconv.Itoa(r.Points),
					strconv.FormatBool(r.Computed), r.UpdatedAt.Local().Format("2006-01-02 15:04"),
				}
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Slices", "Points", "Computed", "Updated"}, rows))
			return nil
		},
	}
}

func (c *CLI) sessionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the slices and alignments of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, rec, err := c.restoreSession(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, rec.Name)
			fmt.Fprintln(out, renderTable([]string{"#", "Name", "Points", "X", "Y", "Rotation"}, summaryRows(session.Summaries())))
			if !session.Computed() {
				printWarning(out, "alignments are not up to date with the landmarks")
			}
			return nil
		},
	}
}

func (c *CLI) sessionsExportCommand() *cobra.Command {
	var outDir, project string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the alignments of a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			session, _, err := c.restoreSession(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !session.Computed() {
				printWarning(out, "exporting alignments that are not up to date")
			}

			if outDir == "" {
				outDir = cfg.Output.Dir
			}
			slices := session.Slices()
			alignments := make([]models.Alignment, len(slices))
			for k, s := range slices {
				alignments[k] = s.Alignment
			}
			paths, err := export.WriteChain(outDir, cfg.Output.FilePattern, alignments)
			if err != nil {
				return err
			}
			printSuccess(out, "Exported %d alignments to %s", len(paths), outDir)

			if project != "" {
				if err := export.SaveProject(project, export.ProjectFromSlices(slices)); err != nil {
					return err
				}
				printSuccess(out, "Wrote project %s", project)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "export directory (defaults to output.dir)")
	cmd.Flags().StringVar(&project, "project", "", "also write the landmarks as a project file")
	return cmd
}

func (c *CLI) sessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted session %s", args[0])
			return nil
		},
	}
}

// restoreSession loads the snapshot saved under id into a fresh session.
func (c *CLI) restoreSession(cmd *cobra.Command, id string) (*correspondence.Session, storage.Record, error) {
	store, err := c.openStore()
	if err != nil {
		return nil, storage.Record{}, err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, storage.Record{}, err
	}
	snap, err := store.Load(cmd.Context(), id)
	if err != nil {
		return nil, storage.Record{}, err
	}

	session := correspondence.NewSession(correspondence.WithLogger(c.Logger))
	if err := session.Restore(snap); err != nil {
		return nil, storage.Record{}, fmt.Errorf("restore session %s: %w", id, err)
	}
	return session, rec, nil
}
