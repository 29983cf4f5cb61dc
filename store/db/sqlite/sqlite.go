// Package sqlite is the embedded notification store driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/store"
)

// DB is a sqlite-backed store.Driver.
type DB struct {
	db *sql.DB
}

// NewDB opens (or creates) the database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// A single writer avoids SQLITE_BUSY under concurrent publishes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}
	return &DB{db: db}, nil
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notification (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			uid          TEXT    NOT NULL UNIQUE,
			from_address TEXT    NOT NULL DEFAULT '',
			from_name    TEXT    NOT NULL DEFAULT '',
			to_address   TEXT    NOT NULL,
			amount       TEXT    NOT NULL,
			token_symbol TEXT    NOT NULL,
			description  TEXT    NOT NULL DEFAULT '',
			status       TEXT    NOT NULL DEFAULT 'pending',
			created_ts   BIGINT  NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_to ON notification(to_address, status)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) CreateNotifications(ctx context.Context, list []*core.NotificationRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := `INSERT INTO notification
	         (uid, from_address, from_name, to_address, amount, token_symbol, description, status, created_ts)
	         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, n := range list {
		if _, err := tx.ExecContext(ctx, stmt,
			n.ID, n.From, n.FromName, n.To, n.Amount, string(n.TokenSymbol), n.Description, string(n.Status), n.CreatedAt.UnixMilli(),
		); err != nil {
			return errors.Wrapf(err, "insert notification %s", n.ID)
		}
	}
	return tx.Commit()
}

func (d *DB) ListNotifications(ctx context.Context, find *store.FindNotification) ([]*core.NotificationRecord, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = ?"), append(args, *v)
	}
	if v := find.Recipient; v != nil {
		where, args = append(where, "to_address = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "status = ?"), append(args, string(*v))
	}
	order := "ASC"
	if find.NewestFirst {
		order = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT uid, from_address, from_name, to_address, amount, token_symbol, description, status, created_ts
		 FROM notification WHERE %s ORDER BY created_ts %s, id %s`,
		strings.Join(where, " AND "), order, order,
	)
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*core.NotificationRecord
	for rows.Next() {
		n := &core.NotificationRecord{}
		var token, status string
		var createdTs int64
		if err := rows.Scan(&n.ID, &n.From, &n.FromName, &n.To, &n.Amount, &token, &n.Description, &status, &createdTs); err != nil {
			return nil, err
		}
		n.TokenSymbol = core.Token(token)
		n.Status = core.NotificationStatus(status)
		n.CreatedAt = time.UnixMilli(createdTs).UTC()
		list = append(list, n)
	}
	return list, rows.Err()
}

func (d *DB) DeleteNotification(ctx context.Context, uid string) (bool, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM notification WHERE uid = ?`, uid)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
