// Command flowtag tags free text against an ontology and resolves the tags
// into ranked flows.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag"
	"github.com/cognicore/flowtag/pkg/flowtag/config"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	ontology   string
	logLevel   string
	jsonOutput bool

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "flowtag",
		Short: "Tag free text and resolve tags into flows",
		Long: `flowtag annotates text with canonical tags from an ontology and maps
tag sets to ranked, normalized flow confidences.

Examples:
  flowtag tag "I forgot my password"          # Tag one text
  flowtag tag < messages.txt                  # Tag one text per input line
  flowtag resolve "password reset" login      # Resolve tags into flows
  flowtag resolve --text "reset my password"  # Tag, then resolve
  flowtag keywords "the billing page is down" # Stopword-filtered keywords
  flowtag import --file support.yaml          # Load an ontology into SQLite`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.ontology, "ontology", "", "ontology name (overrides ontology.name)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")

	cmd.AddCommand(
		newTagCmd(opts),
		newResolveCmd(opts),
		newKeywordsCmd(opts),
		newImportCmd(opts),
	)
	return cmd
}

// init loads configuration and initializes the global logger.
func (o *rootOptions) init(cmd *cobra.Command) error {
	v, err := config.NewViper(o.configPath)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("ontology.name", cmd.Flags().Lookup("ontology")); err != nil {
		return errors.Wrap(err, "bind --ontology")
	}
	if err := v.BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return errors.Wrap(err, "bind --log-level")
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	o.cfg = cfg
	return nil
}

// buildEngine opens an engine for the loaded configuration. The returned
// cleanup releases it.
func buildEngine(ctx context.Context, cfg *config.Config) (*flowtag.Engine, func(), error) {
	engine, err := flowtag.Open(ctx, cfg, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open engine")
	}
	cleanup := func() {
		if err := engine.Close(); err != nil {
			logger.L().Warnw("close engine", logger.FieldError, err)
		}
	}
	return engine, cleanup, nil
}
