// Package attrdb keeps layer attribute tables in a SQLite database so they
// can be shared between runs and looked up without reloading the source
// files.
package attrdb

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // import sqlite3 driver

	log "github.com/sirupsen/logrus"
)

var ErrNoLayer = errors.New("attrdb: no such layer")

// Table is a row-oriented attribute table. Row i holds the attributes of
// feature i+1; rows reported as not live are skipped on import.
type Table interface {
	Names() []string
	Len() int
	Row(i int) ([]string, bool)
}

// Store is an attribute database.
type Store struct {
	db     *sql.DB
	Logger log.FieldLogger
}

// Open opens or creates the database at dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	for _, stmt := range []string{
		"PRAGMA synchronous=0",
		"PRAGMA journal_mode=DELETE",
		"create table if not exists fields (layer text, pos integer, name text);",
		"create unique index if not exists field_index on fields (layer, pos);",
		"create table if not exists attributes (layer text, id integer, field text, value text);",
		"create unique index if not exists attribute_index on attributes (layer, id, field);",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("attrdb: %s: %w", dsn, err)
		}
	}
	return &Store{db: db, Logger: log.StandardLogger()}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Import replaces the attributes stored for layer with the contents of t.
func (s *Store) Import(layer string, t Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := importTable(tx, layer, t); err != nil {
		tx.Rollback()
		return fmt.Errorf("attrdb: import %s: %w", layer, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.Logger.WithFields(log.Fields{"layer": layer, "rows": t.Len()}).Debug("attributes imported")
	return nil
}

func importTable(tx *sql.Tx, layer string, t Table) error {
	if _, err := tx.Exec("delete from fields where layer = ?", layer); err != nil {
		return err
	}
	if _, err := tx.Exec("delete from attributes where layer = ?", layer); err != nil {
		return err
	}
	names := t.Names()
	for i, name := range names {
		if _, err := tx.Exec("insert into fields (layer, pos, name) values (?, ?, ?)", layer, i, name); err != nil {
			return err
		}
	}
	stmt, err := tx.Prepare("insert into attributes (layer, id, field, value) values (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < t.Len(); i++ {
		row, live := t.Row(i)
		if !live {
			continue
		}
		for j, v := range row {
			if j >= len(names) {
				break
			}
			if _, err := stmt.Exec(layer, i+1, names[j], v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Layers lists the imported layers.
func (s *Store) Layers() ([]string, error) {
	rows, err := s.db.Query("select distinct layer from fields order by layer")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Fields returns the column names of layer in table order.
func (s *Store) Fields(layer string) ([]string, error) {
	rows, err := s.db.Query("select name from fields where layer = ? order by pos", layer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLayer, layer)
	}
	return out, nil
}

// Source returns an attribute source reading layer from the store.
func (s *Store) Source(layer string) (*Source, error) {
	fields, err := s.Fields(layer)
	if err != nil {
		return nil, err
	}
	stmt, err := s.db.Prepare("select value from attributes where layer = ? and id = ? and field = ? collate nocase")
	if err != nil {
		return nil, err
	}
	return &Source{layer: layer, Fields: fields, stmt: stmt, logger: s.Logger}, nil
}

// Source looks up the attributes of one layer. Field names match without
// regard to case, as dBase names do.
type Source struct {
	Fields []string
	layer  string
	stmt   *sql.Stmt
	logger log.FieldLogger
}

func (s *Source) Value(id uint32, field string) (string, bool) {
	var v string
	err := s.stmt.QueryRow(s.layer, id, field).Scan(&v)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, sql.ErrNoRows):
	default:
		s.logger.WithFields(log.Fields{"layer": s.layer, "id": id, "field": field}).WithError(err).Warn("attribute lookup failed")
	}
	return "", false
}

func (s *Source) Close() error { return s.stmt.Close() }
