package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema holds one row per non empty cell.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cells (
	tab     TEXT    NOT NULL,
	row_num INTEGER NOT NULL,
	col_num INTEGER NOT NULL,
	value   TEXT    NOT NULL,
	PRIMARY KEY (tab, row_num, col_num)
);`

// SQLite writes cells to a SQLite database.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema in %q: %w", path, err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

// Clear deletes the cells of the region.
func (s *SQLite) Clear(ctx context.Context, region string) error {
	r, err := ParseRegion(region)
	if err != nil {
		return err
	}
	if r.Whole {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cells WHERE tab = ?`, r.Tab)
	} else {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM cells
			WHERE tab = ? AND row_num BETWEEN ? AND ? AND col_num BETWEEN ? AND ?`,
			r.Tab, r.From.Row, r.To.Row, r.From.Col, r.To.Col)
	}
	if err != nil {
		return fmt.Errorf("clear %s: %w", r, err)
	}
	return nil
}

// WriteTable writes rows with their top left cell at location, in a single transaction.
func (s *SQLite) WriteTable(ctx context.Context, location string, rows [][]string) (err error) {
	tab, at, err := ParseLocation(location)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	upsert, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO cells (tab, row_num, col_num, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	defer upsert.Close()
	remove, err := tx.PrepareContext(ctx, `DELETE FROM cells WHERE tab = ? AND row_num = ? AND col_num = ?`)
	if err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	defer remove.Close()

	cells(at, rows, func(c Cell, v string) {
		if err != nil {
			return
		}
		if v == "" {
			_, err = remove.ExecContext(ctx, tab, c.Row, c.Col)
		} else {
			_, err = upsert.ExecContext(ctx, tab, c.Row, c.Col, v)
		}
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write %s: %w", location, err)
	}
	s.logger.Debug("table written", "location", location, "rows", len(rows))
	return nil
}

// Tab reads back a tab as rows, from A1 to the last non empty cell.
func (s *SQLite) Tab(ctx context.Context, tab string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT row_num, col_num, value FROM cells WHERE tab = ?`, tab)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	defer rows.Close()
	g := make(map[Cell]string)
	for rows.Next() {
		var c Cell
		var v string
		if err := rows.Scan(&c.Row, &c.Col, &v); err != nil {
			return nil, fmt.Errorf("read %s: %w", tab, err)
		}
		g[c] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	return toRows(g), nil
}

// Close closes the database.
func (s *SQLite) Close() error { return s.db.Close() }
