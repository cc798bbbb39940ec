package db

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Table describes one document table: a text primary key and a JSON body.
// Unique and Indexes name JSON fields (dotted paths allowed) that get
// expression indexes over json_extract.
type Table struct {
	Name    string
	Unique  []string
	Indexes []string
}

var (
	identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	fieldRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// ValidTableName reports whether name can be used as a table name verbatim.
func ValidTableName(name string) bool {
	return identRe.MatchString(name)
}

// ValidField reports whether field can be spliced into a JSON path verbatim.
func ValidField(field string) bool {
	return fieldRe.MatchString(field)
}

// JSONPath returns the json_extract expression for a document field.
func JSONPath(field string) string {
	return fmt.Sprintf("json_extract(doc, '$.%s')", field)
}

// DDL returns the statements creating the table and its indexes. Every
// statement is idempotent.
func (t Table) DDL() ([]string, error) {
	if !ValidTableName(t.Name) {
		return nil, fmt.Errorf("invalid table name %q", t.Name)
	}

	stmts := []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id  TEXT NOT NULL PRIMARY KEY,
    doc TEXT NOT NULL CHECK (json_valid(doc))
)`, t.Name)}

	add := func(field string, unique bool) error {
		if !ValidField(field) {
			return fmt.Errorf("invalid index field %q on %s", field, t.Name)
		}
		kind := "INDEX"
		if unique {
			kind = "UNIQUE INDEX"
		}
		idx := fmt.Sprintf("idx_%s_%s", t.Name, strings.ReplaceAll(field, ".", "_"))
		stmts = append(stmts, fmt.Sprintf(`CREATE %s IF NOT EXISTS %s ON %s(%s)`,
			kind, idx, t.Name, JSONPath(field)))
		return nil
	}

	for _, f := range t.Unique {
		if err := add(f, true); err != nil {
			return nil, err
		}
	}
	for _, f := range t.Indexes {
		if err := add(f, false); err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, tables ...Table) error {
	for _, t := range tables {
		stmts, err := t.DDL()
		if err != nil {
			return err
		}
		for _, s := range stmts {
			if _, err := db.Exec(s); err != nil {
				return fmt.Errorf("creating schema for %s: %w", t.Name, err)
			}
		}
	}
	return nil
}
