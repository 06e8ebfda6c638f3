package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/goutil/internal/store"
)

const configName = ".goutil"

// usageError marks errors caused by invalid invocation. They exit with
// ExitUsage and print the usage of cmd.
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(cmd *cobra.Command, format string, args ...any) error {
	return &usageError{cmd: cmd, err: fmt.Errorf(format, args...)}
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{cmd: cmd, err: err}
		}
		return nil
	}
}

// app holds state shared by all subcommands after flags and config have been
// resolved.
type app struct {
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "goutil",
		Short: "Gene Ontology enrichment and semantic similarity",
		Long: `goutil tests gene sets for over-represented ontology terms and computes
Resnik or Lin semantic similarity between terms.`,
		Example: `  # Build an edge list and annotation file (one-time setup)
  goutil edgelist go.obo biological_process bp.edges
  goutil extract goa_human.gaf.gz P IEA,ND,RCA symbol bp.annot

  # Enrichment of a target set against a background
  goutil enrich -e bp.edges -a bp.annot -b background.txt -t target.txt -o enriched.tsv -p 0.05

  # Semantic similarity of the enriched terms
  goutil semsim -e bp.edges -a bp.annot -m Lin -f enriched.tsv -o similarity.tsv`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(viper.GetString("log.level"), a.stderr)
			if err != nil {
				return usageErrorf(cmd, "%v", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return &usageError{cmd: cmd, err: errors.New("a command is required")}
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{cmd: c, err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/"+configName+".yaml)")
	pf.Int("workers", 0, "Worker goroutines (0 = all CPUs)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("store", "", "DuckDB file recording runs and results (empty disables)")
	pf.String("cache-dir", "", "Directory caching parsed edge lists (empty disables)")

	viper.BindPFlag("workers", pf.Lookup("workers"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("store.path", pf.Lookup("store"))
	viper.BindPFlag("cache.dir", pf.Lookup("cache-dir"))

	cmd.AddCommand(newEnrichCmd(a))
	cmd.AddCommand(newSemsimCmd(a))
	cmd.AddCommand(newEdgelistCmd(a))
	cmd.AddCommand(newExtractCmd(a))
	cmd.AddCommand(newMDSCmd(a))
	cmd.AddCommand(newClusterCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// initConfig reads the config file and environment. A missing default
// config file is not an error.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GOUTIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func defaultConfigFile() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// newLogger builds a console logger writing to w at the given level.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// openStore opens the results store if store.path is configured.
func (a *app) openStore() (*store.Store, error) {
	path := viper.GetString("store.path")
	if path == "" {
		return nil, nil
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return s, nil
}

// ontologyCache returns the edge-list cache if cache.dir is configured.
func (a *app) ontologyCache() *store.OntologyCache {
	dir := viper.GetString("cache.dir")
	if dir == "" {
		return nil
	}
	oc := store.NewOntologyCache(dir)
	oc.SetLogger(a.logger)
	return oc
}

func (a *app) workers() int {
	return viper.GetInt("workers")
}
