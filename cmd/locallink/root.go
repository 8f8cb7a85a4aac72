package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rendis/locallink/internal/config"
	"github.com/rendis/locallink/internal/engine/catalog"
	"github.com/rendis/locallink/internal/engine/recommend"
	"github.com/rendis/locallink/internal/engine/storage"
	"github.com/rendis/locallink/internal/logging"
	"github.com/rendis/locallink/internal/tui"
)

// cli carries per-invocation state shared by the subcommands.
type cli struct {
	version string
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
	log     zerolog.Logger
}

func newRootCmd(version string) *cobra.Command {
	c := &cli{version: version, v: viper.New(), log: zerolog.Nop()}
	config.SetDefaults(c.v)

	root := &cobra.Command{
		Use:   "locallink",
		Short: "Local business directory with personalized recommendations",
		Long: `locallink browses a catalog of local businesses, keeps your bookmarks and
views, and recommends places from review quality or your own preferences.

Run without a subcommand to open the interactive browser.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initConfig,
		RunE:              c.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default: "+filepath.Join(config.Dir(), "config.yaml")+")")
	flags.String("db", "", "path to the locallink database")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = c.v.BindPFlag(config.KeyDB, flags.Lookup("db"))
	_ = c.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = c.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	root.AddCommand(
		c.importCmd(),
		c.exportCmd(),
		c.searchCmd(),
		c.bookmarkCmd(),
		c.viewCmd(),
		c.recommendCmd(),
		c.interactionsCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.ReadFile(c.v, c.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	c.log = logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// openStore opens the database, seeding the sample listings into an empty
// catalog. The caller closes the store.
func (c *cli) openStore() (*storage.Store, error) {
	if err := os.MkdirAll(filepath.Dir(c.cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}
	store, err := storage.NewStore(c.cfg.DBPath,
		storage.WithInteractionCap(c.cfg.InteractionLogSize),
		storage.WithLogger(c.log),
	)
	if err != nil {
		return nil, err
	}

	n, err := store.Count()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("counting businesses: %w", err)
	}
	if n == 0 {
		sample, err := catalog.Sample()
		if err != nil {
			store.Close()
			return nil, err
		}
		if _, err := store.InsertBatch(sample); err != nil {
			store.Close()
			return nil, fmt.Errorf("seeding sample listings: %w", err)
		}
		c.log.Info().Int("businesses", len(sample)).Str("db", c.cfg.DBPath).Msg("seeded sample listings")
	}
	return store, nil
}

func (c *cli) newScorer(reader *storage.SignalReader) *recommend.Scorer {
	return recommend.New(
		recommend.WithExcludeBookmarked(c.cfg.ExcludeBookmarked),
		recommend.WithRecorder(reader.Record),
		recommend.WithLogger(c.log),
	)
}

func (c *cli) runTUI(_ *cobra.Command, _ []string) error {
	// The TUI owns the terminal, so logs go to a session file.
	f, path, err := logging.OpenSessionLog(config.Dir())
	if err != nil {
		return err
	}
	defer f.Close()
	c.log = logging.New(logging.Config{Level: c.cfg.LogLevel, Format: "json", Output: f})
	c.log.Info().Str("version", c.version).Str("db", c.cfg.DBPath).Msg("session started")

	strategy, err := recommend.ParseStrategy(c.cfg.Strategy)
	if err != nil {
		return fmt.Errorf("%s: %w", config.KeyStrategy, err)
	}

	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	reader := store.Signals()
	err = tui.Run(tui.Options{
		Library:   store,
		Signals:   reader,
		Scorer:    c.newScorer(reader),
		Strategy:  strategy,
		ExportDir: cwd,
		Version:   c.version,
		Logger:    c.log,
	})
	if err != nil {
		c.log.Error().Err(err).Msg("session ended with error")
		return fmt.Errorf("running tui (log: %s): %w", path, err)
	}
	c.log.Info().Msg("session ended")
	return nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "locallink "+c.version)
		},
	}
}
