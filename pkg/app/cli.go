package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/Qendolin/delta-reduce-tool/pkg/core/files"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/lines"
	"github.com/Qendolin/delta-reduce-tool/pkg/core/reduce"
	"github.com/Qendolin/delta-reduce-tool/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cli struct {
	cfg        *Config
	configPath string
	logFile    *os.File
	logger     *logging.Logger
	out        io.Writer
}

// NewRootCommand builds the command line. Settings from --config are applied
// first, flags that were given explicitly override them.
func NewRootCommand() *cobra.Command {
	c := &cli{cfg: DefaultConfig()}

	root := &cobra.Command{
		Use:           "delta-reduce-tool",
		Short:         "Reduce an input to what makes an analysis fail",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			if err := c.loadConfig(cmd.Flags()); err != nil {
				return err
			}
			return c.setupLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.closeLog()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "json5, YAML or TOML file with default settings")
	root.PersistentFlags().BoolVarP(&c.cfg.Verbose, "verbose", "v", c.cfg.Verbose, "enable debug logging")
	root.PersistentFlags().StringVar(&c.cfg.LogDir, "log-dir", c.cfg.LogDir, "directory for the log file")

	root.AddCommand(c.reduceCommand(), c.graphCommand(), versionCommand())
	return root
}

func (c *cli) reduceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce [flags] TARGET [-- COMMAND...]",
		Short: "Reduce TARGET while COMMAND keeps showing the original outcome",
		Long: `Reduces a copy of TARGET, a directory of files or a single text file,
to a minimal configuration that still shows the outcome of the original input.

COMMAND runs in the workspace after every change; "{}" in its arguments and
the DELTA_REDUCE_TARGET environment variable name the working copy. Without a
command, --interactive asks for every outcome instead.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				if command := args[dash:]; len(command) > 0 {
					c.cfg.Command = command
				}
				args = args[:dash]
			}
			switch len(args) {
			case 0:
			case 1:
				c.cfg.Target = args[0]
			default:
				return fmt.Errorf("expected one target, got %d", len(args))
			}
			if c.cfg.Interactive {
				return c.runInteractive(cmd.Context())
			}
			return c.runBatch(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&c.cfg.Kind, "kind", "k", c.cfg.Kind, "element kind: auto, files or lines")
	f.StringVarP(&c.cfg.Strategy, "strategy", "s", c.cfg.Strategy, "flat, star, hierarchical or composite")
	f.StringVarP(&c.cfg.Direction, "direction", "d", c.cfg.Direction, "minimize, maximize or isolate")
	f.StringVar(&c.cfg.Mode, "mode", c.cfg.Mode, "parts to try: deltas-and-complements, only-deltas or only-complements")
	f.BoolVar(&c.cfg.NoCache, "no-cache", c.cfg.NoCache, "do not reuse outcomes of configurations seen before")
	f.StringSliceVar(&c.cfg.MinProperty, "min-property", c.cfg.MinProperty, "analysis outcomes that count as failing")
	f.StringSliceVar(&c.cfg.MaxProperty, "max-property", c.cfg.MaxProperty, "analysis outcomes that count as passing")
	f.StringArrayVar(&c.cfg.Rules, "rule", c.cfg.Rules, "OUTCOME=regexp classifying the command output, tried in order")
	f.IntVar(&c.cfg.RollbackCheck, "rollback-check", c.cfg.RollbackCheck, "re-run the analysis after this many rollbacks in a row, 0 disables")
	f.Float64Var(&c.cfg.TimeFactor, "time-factor", c.cfg.TimeFactor, "soft time limit as a multiple of the original run")
	f.StringVar(&c.cfg.TimeBias, "time-bias", c.cfg.TimeBias, "added to the soft time limit")
	f.StringVar(&c.cfg.HardCap, "hard-cap", c.cfg.HardCap, "upper bound of the time limit")
	f.StringVar(&c.cfg.WorkDir, "work-dir", c.cfg.WorkDir, "where the workspace is created (default: the temp directory)")
	f.StringVarP(&c.cfg.Output, "output", "o", c.cfg.Output, "copy the reduced input here")
	f.StringVar(&c.cfg.GraphDir, "graph-dir", c.cfg.GraphDir, "export the dependency graphs as DOT files here")
	f.StringVar(&c.cfg.MetricsFile, "metrics-file", c.cfg.MetricsFile, "write the statistics in Prometheus text format")
	f.BoolVarP(&c.cfg.Interactive, "interactive", "i", c.cfg.Interactive, "judge every configuration by hand in a terminal UI")
	return cmd
}

func (c *cli) graphCommand() *cobra.Command {
	var kind, dir string
	cmd := &cobra.Command{
		Use:   "graph TARGET",
		Short: "Export the dependency graph of TARGET as a DOT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			resolved, err := resolveKind(kind, info)
			if err != nil {
				return err
			}

			var exporter reduce.GraphExporter
			switch resolved {
			case KindFiles:
				tree, err := files.Open(args[0])
				if err != nil {
					return err
				}
				m := files.NewManipulator()
				if _, _, err := m.AllElements(tree); err != nil {
					return err
				}
				exporter = m
			default:
				doc, err := lines.ReadFile(args[0])
				if err != nil {
					return err
				}
				m := lines.NewManipulator()
				if _, _, err := m.AllElements(doc); err != nil {
					return err
				}
				exporter = m
			}

			paths, err := reduce.ExportGraphs(dir, "", exporter)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", KindAuto, "element kind: auto, files or lines")
	cmd.Flags().StringVarP(&dir, "out", "o", ".", "output directory")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no build information")
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", info.Main.Path, info.Main.Version)
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs.revision", "vcs.time", "vcs.modified":
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", setting.Key, setting.Value)
				}
			}
		},
	}
}

// loadConfig reads --config and reapplies every flag that was set explicitly.
func (c *cli) loadConfig(flags *pflag.FlagSet) error {
	if c.configPath == "" {
		return nil
	}
	given := make(map[*pflag.Flag][]string)
	flags.Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			given[f] = sv.GetSlice()
			return
		}
		given[f] = []string{f.Value.String()}
	})

	if err := c.cfg.LoadConfigFile(c.configPath); err != nil {
		return err
	}

	var errs []error
	for f, values := range given {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			errs = append(errs, sv.Replace(values))
			continue
		}
		errs = append(errs, f.Value.Set(values[0]))
	}
	return errors.Join(errs...)
}

// setupLogging opens a timestamped log file. Outside the terminal UI the log
// is mirrored to stderr.
func (c *cli) setupLogging() error {
	c.logger = logging.NewLogger()
	if err := os.MkdirAll(c.cfg.LogDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	name := fmt.Sprintf("delta-reduce-%s.log", time.Now().Format("2006-01-02_15-04-05"))
	f, err := os.OpenFile(filepath.Join(c.cfg.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	c.logFile = f
	if c.cfg.Interactive {
		c.logger.SetWriter(f)
	} else {
		c.logger.SetWriter(io.MultiWriter(f, os.Stderr))
	}
	logging.SetDefault(c.logger)

	if c.cfg.Verbose {
		c.logger.SetDebug(true)
		logging.Infof("Main: Verbose logging enabled.")
	}
	if wd, err := os.Getwd(); err == nil {
		logging.Infof("Main: Current Working Directory: %s", wd)
	}
	return nil
}

func (c *cli) closeLog() {
	if c.logFile == nil {
		return
	}
	_ = c.logger.Sync()
	c.logFile.Close()
}

func (c *cli) runBatch(ctx context.Context) error {
	session, err := NewSession(c.cfg)
	if err != nil {
		return err
	}
	runErr := session.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logging.Errorf("Main: Reduction failed: %v", runErr)
	}
	summary, finishErr := session.Finish()
	if err := c.report(summary); err != nil {
		return err
	}
	return errors.Join(runErr, finishErr)
}

func (c *cli) runInteractive(ctx context.Context) error {
	session, err := NewSession(c.cfg)
	if err != nil {
		return err
	}
	a := NewApp(ctx, c.logger, session)
	logging.Infof("Main: Application starting up.")
	if err := a.Run(); err != nil {
		return err
	}

	summary := a.Summary()
	var finishErr error
	if summary == nil {
		summary, finishErr = session.Finish()
	}
	if err := c.report(summary); err != nil {
		return err
	}
	logging.Infof("Main: Application exited gracefully.")
	return finishErr
}

// report prints the summary and records a plain copy in the log file.
func (c *cli) report(s *Summary) error {
	if s == nil {
		return nil
	}
	if err := WriteReport(c.out, s); err != nil {
		return err
	}
	if c.logFile == nil {
		return nil
	}
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()
	var plain bytes.Buffer
	if err := WriteReport(&plain, s); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.logFile, "\n%s", plain.String())
	return err
}
