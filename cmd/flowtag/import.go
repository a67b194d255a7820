package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag/config"
	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
	"github.com/cognicore/flowtag/pkg/flowtag/store/sqlite"
)

type importOptions struct {
	file     string
	name     string
	db       string
	stoplist string
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	imp := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a YAML ontology (and optional stoplist) into SQLite",
		Long: `Import validates a YAML ontology and stores it in the SQLite database
named by --db or ontology.sqlite, replacing any ontology of the same name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts.cfg, imp)
		},
	}
	cmd.Flags().StringVarP(&imp.file, "file", "f", "", "ontology YAML file (required)")
	cmd.Flags().StringVar(&imp.name, "name", "", "store under this name instead of the document's")
	cmd.Flags().StringVar(&imp.db, "db", "", "SQLite path (default: ontology.sqlite)")
	cmd.Flags().StringVar(&imp.stoplist, "stoplist", "", "stoplist YAML to store alongside")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config, opts *importOptions) error {
	ctx := cmd.Context()
	log := logger.ComponentLogger("cmd.import")

	dbPath := opts.db
	if dbPath == "" {
		dbPath = cfg.Ontology.SQLite
	}
	if dbPath == "" {
		return errors.Wrap(internalerr.ErrInvalidConfig, "--db or ontology.sqlite is required")
	}

	o, err := ontology.LoadFile(opts.file)
	if err != nil {
		return err
	}
	doc := o.Document()
	if opts.name != "" {
		doc.Name = opts.name
	}

	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer st.Close()

	if err := st.SaveOntology(ctx, doc); err != nil {
		return errors.Wrapf(err, "save ontology %q", doc.Name)
	}
	log.Infow("ontology imported",
		logger.FieldOntology, doc.Name,
		logger.FieldPath, dbPath,
		"labels", len(doc.Labels),
		"flows", len(doc.Flows))

	stored := 0
	if opts.stoplist != "" {
		sl, err := config.LoadStoplist(opts.stoplist)
		if err != nil {
			return errors.Wrap(err, "load stoplist")
		}
		if err := st.UpsertStoplist(ctx, sl.Terms); err != nil {
			return errors.Wrap(err, "store stoplist")
		}
		stored = len(sl.Terms)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d labels, %d flows, %d stopwords\n",
		doc.Name, len(doc.Labels), len(doc.Flows), stored)
	return nil
}
