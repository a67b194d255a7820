package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
	"github.com/cognicore/flowtag/pkg/flowtag/store"
)

const (
	kindLiteral = "literal"
	kindTermSet = "term-set"
)

// sqliteStore implements store.Store using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS ontologies (
	name TEXT PRIMARY KEY,
	exact REAL NOT NULL,
	skipgram REAL NOT NULL,
	long_distance REAL NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ngrams (
	ontology TEXT NOT NULL,
	level INTEGER NOT NULL,
	term TEXT NOT NULL,
	PRIMARY KEY(ontology, level, term),
	FOREIGN KEY(ontology) REFERENCES ontologies(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS labels (
	ontology TEXT NOT NULL,
	label TEXT NOT NULL,
	position INTEGER NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	PRIMARY KEY(ontology, label),
	FOREIGN KEY(ontology) REFERENCES ontologies(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS patterns (
	ontology TEXT NOT NULL,
	label TEXT NOT NULL,
	position INTEGER NOT NULL,
	kind TEXT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY(ontology, label, position),
	FOREIGN KEY(ontology, label) REFERENCES labels(ontology, label) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS flows (
	ontology TEXT NOT NULL,
	name TEXT NOT NULL,
	position INTEGER NOT NULL,
	include_all_of TEXT NOT NULL,
	include_one_of TEXT NOT NULL,
	exclude_all_of TEXT NOT NULL,
	exclude_one_of TEXT NOT NULL,
	exclusive INTEGER NOT NULL DEFAULT 0,
	deduction REAL NOT NULL DEFAULT 0,
	discriminatory TEXT NOT NULL,
	PRIMARY KEY(ontology, name),
	FOREIGN KEY(ontology) REFERENCES ontologies(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS stoplist (
	token TEXT PRIMARY KEY
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveOntology validates doc and replaces every row stored under its name
// in a single transaction.
func (s *sqliteStore) SaveOntology(ctx context.Context, doc ontology.Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return errors.Wrap(internalerr.ErrInvalidInput, "ontology without a name")
	}
	if _, err := doc.Build(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ontologies WHERE name=?`, doc.Name); err != nil {
		return err
	}
	conf := doc.Confidence
	if _, err := tx.ExecContext(ctx, `
INSERT INTO ontologies (name, exact, skipgram, long_distance, updated_at)
VALUES (?, ?, ?, ?, ?)
`, doc.Name, conf.Exact, conf.SkipGram, conf.LongDistance, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := insertNGrams(ctx, tx, doc.Name, doc.NGrams); err != nil {
		return err
	}
	if err := insertLabels(ctx, tx, doc.Name, doc.Labels); err != nil {
		return err
	}
	if err := insertFlows(ctx, tx, doc.Name, doc.Flows); err != nil {
		return err
	}

	return tx.Commit()
}

func insertNGrams(ctx context.Context, tx *sql.Tx, name string, levels map[int][]string) error {
	if len(levels) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO ngrams (ontology, level, term) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for level, terms := range levels {
		for _, term := range terms {
			if _, err := stmt.ExecContext(ctx, name, level, ontology.Canonical(term)); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertLabels(ctx context.Context, tx *sql.Tx, name string, entries []ontology.Entry) error {
	labelStmt, err := tx.PrepareContext(ctx, `INSERT INTO labels (ontology, label, position, confidence) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer labelStmt.Close()
	patternStmt, err := tx.PrepareContext(ctx, `INSERT INTO patterns (ontology, label, position, kind, body) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer patternStmt.Close()

	for i, e := range entries {
		label := ontology.Canonical(e.Label)
		if _, err := labelStmt.ExecContext(ctx, name, label, i, e.Confidence); err != nil {
			return err
		}
		for j, p := range e.Patterns {
			kind, body, err := encodePattern(p)
			if err != nil {
				return err
			}
			if _, err := patternStmt.ExecContext(ctx, name, label, j, kind, body); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertFlows(ctx context.Context, tx *sql.Tx, name string, rules []ontology.FlowRule) error {
	if len(rules) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO flows (ontology, name, position, include_all_of, include_one_of,
	exclude_all_of, exclude_one_of, exclusive, deduction, discriminatory)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rules {
		lists := make([]string, 0, 5)
		for _, l := range [][]string{r.IncludeAllOf, r.IncludeOneOf, r.ExcludeAllOf, r.ExcludeOneOf, r.Discriminatory} {
			data, err := encodeList(l)
			if err != nil {
				return err
			}
			lists = append(lists, data)
		}
		exclusive := 0
		if r.Exclusive {
			exclusive = 1
		}
		if _, err := stmt.ExecContext(ctx, name, strings.TrimSpace(r.Name), i,
			lists[0], lists[1], lists[2], lists[3], exclusive, r.Deduction, lists[4]); err != nil {
			return err
		}
	}
	return nil
}

// Document reads the stored document of an ontology.
func (s *sqliteStore) Document(ctx context.Context, name string) (ontology.Document, error) {
	doc := ontology.Document{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT exact, skipgram, long_distance FROM ontologies WHERE name=?`, name,
	).Scan(&doc.Confidence.Exact, &doc.Confidence.SkipGram, &doc.Confidence.LongDistance)
	if err == sql.ErrNoRows {
		return ontology.Document{}, errors.Wrapf(internalerr.ErrUnknownOntology, "%q", name)
	}
	if err != nil {
		return ontology.Document{}, err
	}

	if doc.NGrams, err = s.loadNGrams(ctx, name); err != nil {
		return ontology.Document{}, err
	}
	if doc.Labels, err = s.loadLabels(ctx, name); err != nil {
		return ontology.Document{}, err
	}
	if doc.Flows, err = s.loadFlows(ctx, name); err != nil {
		return ontology.Document{}, err
	}
	return doc, nil
}

// Load implements ontology.Provider.
func (s *sqliteStore) Load(ctx context.Context, name string) (*ontology.Ontology, error) {
	doc, err := s.Document(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// DeleteOntology removes an ontology and everything stored under it.
func (s *sqliteStore) DeleteOntology(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ontologies WHERE name=?`, name)
	return err
}

// Names lists the stored ontologies, sorted.
func (s *sqliteStore) Names(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT name FROM ontologies ORDER BY name`)
}

// UpsertStoplist replaces the stopword set in a single transaction.
func (s *sqliteStore) UpsertStoplist(ctx context.Context, tokens []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stoplist`); err != nil {
		return err
	}

	if len(tokens) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO stoplist (token) VALUES (?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, tok); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Stoplist returns the stored stopwords, sorted.
func (s *sqliteStore) Stoplist(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT token FROM stoplist ORDER BY token`)
}

func (s *sqliteStore) loadNGrams(ctx context.Context, name string) (map[int][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT level, term FROM ngrams WHERE ontology=? ORDER BY level, term`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[int][]string)
	for rows.Next() {
		var level int
		var term string
		if err := rows.Scan(&level, &term); err != nil {
			return nil, err
		}
		levels[level] = append(levels[level], term)
	}
	return levels, rows.Err()
}

func (s *sqliteStore) loadLabels(ctx context.Context, name string) ([]ontology.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT l.label, l.confidence, p.kind, p.body
FROM labels l
LEFT JOIN patterns p ON p.ontology = l.ontology AND p.label = l.label
WHERE l.ontology=?
ORDER BY l.position, p.position
`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ontology.Entry
	for rows.Next() {
		var (
			label      string
			confidence float64
			kind, body sql.NullString
		)
		if err := rows.Scan(&label, &confidence, &kind, &body); err != nil {
			return nil, err
		}
		if n := len(entries); n == 0 || entries[n-1].Label != label {
			entries = append(entries, ontology.Entry{Label: label, Confidence: confidence})
		}
		if !kind.Valid {
			continue
		}
		p, err := decodePattern(kind.String, body.String)
		if err != nil {
			return nil, errors.Wrapf(err, "label %q", label)
		}
		last := &entries[len(entries)-1]
		last.Patterns = append(last.Patterns, p)
	}
	return entries, rows.Err()
}

func (s *sqliteStore) loadFlows(ctx context.Context, name string) ([]ontology.FlowRule, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, include_all_of, include_one_of, exclude_all_of, exclude_one_of,
	exclusive, deduction, discriminatory
FROM flows WHERE ontology=? ORDER BY position
`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []ontology.FlowRule
	for rows.Next() {
		var (
			r         ontology.FlowRule
			lists     [5]string
			exclusive int
		)
		if err := rows.Scan(&r.Name, &lists[0], &lists[1], &lists[2], &lists[3], &exclusive, &r.Deduction, &lists[4]); err != nil {
			return nil, err
		}
		dst := []*[]string{&r.IncludeAllOf, &r.IncludeOneOf, &r.ExcludeAllOf, &r.ExcludeOneOf, &r.Discriminatory}
		for i, data := range lists {
			if err := json.Unmarshal([]byte(data), dst[i]); err != nil {
				return nil, errors.Wrapf(internalerr.ErrMalformedEntry, "flow %q: %v", r.Name, err)
			}
		}
		r.Exclusive = exclusive != 0
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func encodePattern(p ontology.Pattern) (kind, body string, err error) {
	switch p.Kind {
	case ontology.Literal:
		return kindLiteral, p.Text, nil
	case ontology.TermSet:
		terms := append([]string(nil), p.Terms...)
		sort.Strings(terms)
		data, err := json.Marshal(terms)
		if err != nil {
			return "", "", err
		}
		return kindTermSet, string(data), nil
	default:
		return "", "", internalerr.Malformed("unknown pattern kind %d", p.Kind)
	}
}

func decodePattern(kind, body string) (ontology.Pattern, error) {
	switch kind {
	case kindLiteral:
		return ontology.NewLiteral(body)
	case kindTermSet:
		var terms []string
		if err := json.Unmarshal([]byte(body), &terms); err != nil {
			return ontology.Pattern{}, internalerr.Malformed("term set %q: %v", body, err)
		}
		return ontology.NewTermSet(terms...)
	default:
		return ontology.Pattern{}, internalerr.Malformed("unknown pattern kind %q", kind)
	}
}

func encodeList(l []string) (string, error) {
	if l == nil {
		l = []string{}
	}
	data, err := json.Marshal(l)
	return string(data), err
}
