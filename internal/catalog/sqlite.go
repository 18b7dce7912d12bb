package catalog

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlname"
	"github.com/roach88/relscope/internal/sqltype"
)

// OpenSQLite introspects an existing SQLite database and returns its schema
// as a catalog. The database is opened read-only, snapshotted via
// sqlite_master and PRAGMA table_info, and closed before returning - the
// catalog holds no connection afterward.
//
// SQLite identifiers are case-insensitive, so the returned catalog uses the
// case-insensitive matcher. Declared column types map through the usual
// affinity spellings (INTEGER, TEXT, REAL, NUMERIC); a declared precision
// such as VARCHAR(32) is carried over. Columns whose declared type is
// unrecognized come back as ANY rather than failing the whole catalog.
func OpenSQLite(path string) (*Mem, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect sqlite catalog: %w", err)
	}

	// Single reader; the snapshot is taken on one connection.
	db.SetMaxOpenConns(1)

	names, err := sqliteTableNames(db)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("sqlite catalog %s: no tables", path)
	}

	cat := NewMem(sqlname.CaseInsensitive())
	for _, name := range names {
		table, err := sqliteTable(db, name)
		if err != nil {
			return nil, err
		}
		cat.Add(table)
	}
	return cat, nil
}

func sqliteTableNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sqlite tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sqlite table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func sqliteTable(db *sql.DB, name string) (*Table, error) {
	// PRAGMA table_info columns: cid, name, type, notnull, dflt_value, pk.
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return nil, fmt.Errorf("introspect table %s: %w", name, err)
	}
	defer rows.Close()

	table := &Table{Name: name}
	for rows.Next() {
		var (
			cid      int
			colName  string
			declType string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &colName, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("introspect table %s: %w", name, err)
		}
		table.Columns = append(table.Columns, rowtype.Field{
			Name:     colName,
			Type:     parseSQLiteType(declType),
			Nullable: notNull == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspect table %s: %w", name, err)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("introspect table %s: no columns", name)
	}
	return table, nil
}

// parseSQLiteType maps a declared SQLite column type to a validator type.
// "VARCHAR(32)" carries its precision; an empty or unrecognized declaration
// becomes ANY (SQLite columns are dynamically typed).
func parseSQLiteType(decl string) sqltype.Type {
	decl = strings.ToUpper(strings.TrimSpace(decl))
	precision := 0
	if open := strings.IndexByte(decl, '('); open >= 0 {
		if close := strings.IndexByte(decl, ')'); close > open {
			if p, err := strconv.Atoi(strings.TrimSpace(decl[open+1 : close])); err == nil {
				precision = p
			}
		}
		decl = strings.TrimSpace(decl[:open])
	}
	kind, ok := sqltype.ParseKind(decl)
	if !ok {
		return sqltype.Of(sqltype.KindAny)
	}
	return sqltype.Type{Kind: kind, Precision: precision}
}
