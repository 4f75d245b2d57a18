// Package cli implements the slicealign command-line interface.
//
// Commands load a YAML project (slices plus their landmarks), run the
// alignment chain and export or persist the result. Logging goes through
// charmbracelet/log; --verbose switches to debug level.
//
// # Commands
//
//   - compute: align every slice of a project to its predecessor
//   - estimate: fit a single pair of slices
//   - sessions: list, show, export and delete saved sessions
//   - config: write or print the YAML configuration
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"slicealign/pkg/colors"
	"slicealign/pkg/config"
	"slicealign/pkg/correspondence"
	"slicealign/pkg/export"
)

const appName = "slicealign"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	ConfigPath string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		ConfigPath: "config.yaml",
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Slicealign registers consecutive image slices from landmark pairs",
		Long:         `Slicealign computes rigid alignments (rotation and translation) between consecutive slices of a stack from user-placed corresponding landmarks.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", c.ConfigPath, "path to the YAML configuration")

	root.AddCommand(c.computeCommand())
	root.AddCommand(c.estimateCommand())
	root.AddCommand(c.sessionsCommand())
	root.AddCommand(c.configCommand())

	return root
}

// loadConfig reads the configuration and applies its verbosity.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Output.Verbose {
		c.SetLogLevel(LogDebug)
	}
	return cfg, nil
}

// openSession builds a session configured by cfg and fills it from the
// project file at path.
func (c *CLI) openSession(cfg *config.Config, path string) (*correspondence.Session, error) {
	project, err := export.LoadProject(path)
	if err != nil {
		return nil, err
	}

	session := correspondence.NewSession(
		correspondence.WithLogger(c.Logger),
		correspondence.WithEstimator(cfg.EstimatorSettings()),
		correspondence.WithAssigner(colors.NewAssigner(cfg.PaletteOptions())),
		correspondence.WithPickRadius(cfg.Picker.Radius),
	)
	if err := project.Import(session); err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	c.Logger.Debug("project loaded", "path", path, "slices", session.SliceCount(), "correspondences", session.MaxCount())
	return session, nil
}
