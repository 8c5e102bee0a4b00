// Package sqlite stores registrations in an append-only SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"regform/internal/models"
	"regform/internal/store"
)

// DefaultPath is the database file used when no location is configured.
const DefaultPath = "participants.db"

// Column names follow the store header.
const sqlCreateRegistrationsTable = `CREATE TABLE IF NOT EXISTS registrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL,
	create_or_join TEXT NOT NULL,
	team_name TEXT NOT NULL,
	github TEXT NOT NULL DEFAULT '',
	linkedin TEXT NOT NULL DEFAULT ''
);`

type row struct {
	Timestamp string `db:"timestamp"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	Action    string `db:"create_or_join"`
	TeamName  string `db:"team_name"`
	GitHub    string `db:"github"`
	LinkedIn  string `db:"linkedin"`
}

type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path and makes sure the table exists.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", store.ErrStorageUnavailable, path, err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqlCreateRegistrationsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create table: %v", store.ErrStorageUnavailable, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) rows(ctx context.Context) ([][]string, error) {
	var rs []row
	if err := s.db.SelectContext(ctx, &rs, `SELECT timestamp, name, email, phone, create_or_join, team_name, github, linkedin
		FROM registrations ORDER BY id`); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}
	out := make([][]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, models.Registration{
			Timestamp: r.Timestamp,
			Name:      r.Name,
			Email:     r.Email,
			Phone:     r.Phone,
			Action:    models.Action(r.Action),
			TeamName:  r.TeamName,
			GitHub:    r.GitHub,
			LinkedIn:  r.LinkedIn,
		}.Row())
	}
	return out, nil
}

func (s *Store) LookupSets(ctx context.Context) (models.LookupSet, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return models.LookupSet{}, err
	}
	return models.NewLookupSet(rows), nil
}

func (s *Store) TeamMemberCount(ctx context.Context, team string) (int, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return 0, err
	}
	return models.CountTeamMembers(rows, team), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM registrations"); err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}
	return n, nil
}

func (s *Store) Append(ctx context.Context, r models.Registration) error {
	err := wrapTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO registrations
			(timestamp, name, email, phone, create_or_join, team_name, github, linkedin)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Timestamp, r.Name, r.Email, r.Phone, string(r.Action), r.TeamName, r.GitHub, r.LinkedIn)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrPersistFailure, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func wrapTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return fmt.Errorf("%v (rollback: %w)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
