package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/estatedesk/internal/db"
)

// SQLite stores each collection as a table of JSON documents.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{db: database}, nil
}

// NewSQLite wraps an already open database.
func NewSQLite(database *sql.DB) *SQLite {
	return &SQLite{db: database}
}

// Collection returns the named collection. It panics if name is not a valid
// table identifier, since collection names are compile-time constants.
func (s *SQLite) Collection(name string) Collection {
	if !db.ValidTableName(name) {
		panic(fmt.Sprintf("docstore: invalid collection name %q", name))
	}
	return &sqliteCollection{db: s.db, table: name}
}

func (s *SQLite) Ensure(_ context.Context, specs ...CollectionSpec) error {
	tables := make([]db.Table, len(specs))
	for i, spec := range specs {
		tables[i] = db.Table{Name: spec.Name, Unique: spec.Unique, Indexes: spec.Indexes}
	}
	return db.EnsureSchema(s.db, tables...)
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close(context.Context) error {
	return s.db.Close()
}

type sqliteCollection struct {
	db    *sql.DB
	table string
}

func (c *sqliteCollection) Insert(ctx context.Context, doc any) error {
	raw, id, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)`, c.table),
		id, string(raw),
	)
	if err != nil {
		return c.writeErr("inserting", err)
	}
	return nil
}

func (c *sqliteCollection) FindOne(ctx context.Context, f Filter, out any, opts ...FindOptions) error {
	var o FindOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o.Skip, o.Limit = 0, 1

	query, args, err := c.selectQuery("doc", f, o)
	if err != nil {
		return err
	}

	var doc string
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("finding in %s: %w", c.table, err)
	}

	raw, err := sliceArrays([]byte(doc), o.Slice)
	if err != nil {
		return fmt.Errorf("projecting %s document: %w", c.table, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s document: %w", c.table, err)
	}
	return nil
}

func (c *sqliteCollection) Find(ctx context.Context, f Filter, out any, opts FindOptions) error {
	query, args, err := c.selectQuery("doc", f, opts)
	if err != nil {
		return err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finding in %s: %w", c.table, err)
	}
	defer rows.Close()

	var buf strings.Builder
	buf.WriteByte('[')
	n := 0
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return fmt.Errorf("scanning %s document: %w", c.table, err)
		}
		raw, err := sliceArrays([]byte(doc), opts.Slice)
		if err != nil {
			return fmt.Errorf("projecting %s document: %w", c.table, err)
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(raw)
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("finding in %s: %w", c.table, err)
	}
	buf.WriteByte(']')

	if err := json.Unmarshal([]byte(buf.String()), out); err != nil {
		return fmt.Errorf("decoding %s documents: %w", c.table, err)
	}
	return nil
}

func (c *sqliteCollection) Count(ctx context.Context, f Filter) (int64, error) {
	query, args, err := c.selectQuery("COUNT(*)", f, FindOptions{})
	if err != nil {
		return 0, err
	}

	var n int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.table, err)
	}
	return n, nil
}

func (c *sqliteCollection) Replace(ctx context.Context, id string, doc any) (bool, error) {
	raw, docID, err := encodeDocument(doc)
	if err != nil {
		return false, err
	}
	if docID != id {
		return false, fmt.Errorf("replacing %s: document id %q does not match %q", c.table, docID, id)
	}

	res, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = ? WHERE id = ?`, c.table),
		string(raw), id,
	)
	if err != nil {
		return false, c.writeErr("replacing", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replacing in %s: %w", c.table, err)
	}
	return n > 0, nil
}

func (c *sqliteCollection) Upsert(ctx context.Context, id string, doc any) error {
	raw, docID, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if docID != id {
		return fmt.Errorf("upserting %s: document id %q does not match %q", c.table, docID, id)
	}

	_, err = c.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`, c.table),
		id, string(raw),
	)
	if err != nil {
		return c.writeErr("upserting", err)
	}
	return nil
}

func (c *sqliteCollection) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c.table), id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting from %s: %w", c.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting from %s: %w", c.table, err)
	}
	return n > 0, nil
}

func (c *sqliteCollection) DeleteMany(ctx context.Context, f Filter) (int64, error) {
	where, args, err := sqlWhere(f)
	if err != nil {
		return 0, fmt.Errorf("filtering %s: %w", c.table, err)
	}
	res, err := c.db.ExecContext(ctx, "DELETE FROM "+c.table+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", c.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", c.table, err)
	}
	return n, nil
}

func (c *sqliteCollection) selectQuery(what string, f Filter, opts FindOptions) (string, []any, error) {
	where, args, err := sqlWhere(f)
	if err != nil {
		return "", nil, fmt.Errorf("filtering %s: %w", c.table, err)
	}
	order, err := sqlOrderBy(opts.Sort)
	if err != nil {
		return "", nil, fmt.Errorf("sorting %s: %w", c.table, err)
	}

	query := "SELECT " + what + " FROM " + c.table + where + order
	switch {
	case opts.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Skip)
	case opts.Skip > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Skip)
	}
	return query, args, nil
}

func (c *sqliteCollection) writeErr(verb string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", verb, c.table, ErrDuplicate)
	}
	return fmt.Errorf("%s %s: %w", verb, c.table, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(se.Error(), "UNIQUE constraint failed")
}

// encodeDocument marshals doc and reads back its id.
func encodeDocument(doc any) ([]byte, string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("encoding document: %w", err)
	}
	var ident struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &ident); err != nil {
		return nil, "", fmt.Errorf("encoding document: %w", err)
	}
	if ident.ID == "" {
		return nil, "", errors.New("encoding document: missing id")
	}
	return raw, ident.ID, nil
}

// sliceArrays truncates top-level array fields of a JSON object.
func sliceArrays(raw []byte, limits map[string]int) ([]byte, error) {
	if len(limits) == 0 {
		return raw, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	changed := false
	for field, n := range limits {
		v, ok := fields[field]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			continue
		}
		if len(items) <= n {
			continue
		}
		b, err := json.Marshal(items[:max(n, 0)])
		if err != nil {
			return nil, err
		}
		fields[field] = b
		changed = true
	}

	if !changed {
		return raw, nil
	}
	return json.Marshal(fields)
}
