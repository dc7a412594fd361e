package storage

import (
	"context"
	"database/sql"
	"embed"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/records"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dates are stored as fixed-width UTC text so that string order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var recordColumns = []string{
	"id", "user_id", "kind", "title", "amount", "category",
	"date", "description", "created_at", "updated_at",
}

// DB is the SQLite Store, used for local runs and tests.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// One connection keeps ":memory:" databases shared across queries.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	driver, err := sqlite.WithInstance(db.conn, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "create sqlite migration driver")
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "create migration source")
	}
	defer src.Close()

	// The migrate instance is not closed: closing it would close db.conn.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "create migrate instance")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CreateUser creates a new user with the given username and password hash.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    db.now().UTC(),
	}
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrUserExists
		}
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "scan user")
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, errors.Wrap(err, "parse user created_at")
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, errors.Wrap(err, "count users")
}

// CreateRecord inserts r, assigning its id and timestamps.
func (db *DB) CreateRecord(ctx context.Context, r *models.Record) error {
	now := db.now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt, r.UpdatedAt = now, now

	_, err := sq.Insert("records").
		Columns(recordColumns...).
		Values(r.ID, r.UserID, string(r.Kind), r.Title, r.Amount, r.Category,
			formatTime(r.Date), r.Description, formatTime(now), formatTime(now)).
		RunWith(db.conn).
		ExecContext(ctx)
	return errors.Wrap(err, "create record")
}

// GetRecord retrieves one of owner's records.
func (db *DB) GetRecord(ctx context.Context, owner string, kind models.Kind, id string) (*models.Record, error) {
	row := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"id": id, "user_id": owner, "kind": string(kind)}).
		RunWith(db.conn).
		QueryRowContext(ctx)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get record")
	}
	return r, nil
}

// UpdateRecord overwrites the mutable fields of one of owner's records.
func (db *DB) UpdateRecord(ctx context.Context, owner string, r *models.Record) error {
	r.UpdatedAt = db.now().UTC()

	res, err := sq.Update("records").
		SetMap(map[string]any{
			"title":       r.Title,
			"amount":      r.Amount,
			"category":    r.Category,
			"date":        formatTime(r.Date),
			"description": r.Description,
			"updated_at":  formatTime(r.UpdatedAt),
		}).
		Where(sq.Eq{"id": r.ID, "user_id": owner, "kind": string(r.Kind)}).
		RunWith(db.conn).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "update record")
	}
	return expectOne(res)
}

// DeleteRecord removes one of owner's records.
func (db *DB) DeleteRecord(ctx context.Context, owner string, kind models.Kind, id string) error {
	res, err := sq.Delete("records").
		Where(sq.Eq{"id": id, "user_id": owner, "kind": string(kind)}).
		RunWith(db.conn).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "delete record")
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindRecords lists the records matching q, newest first.
func (db *DB) FindRecords(ctx context.Context, q records.Query) ([]models.Record, error) {
	query := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"user_id": q.Owner(), "kind": string(q.Kind())})

	if s := q.Start(); s != nil {
		query = query.Where(sq.GtOrEq{"date": formatTime(*s)})
	}
	if e := q.End(); e != nil {
		query = query.Where(sq.LtOrEq{"date": formatTime(*e)})
	}
	if c := q.Category(); c != "" {
		query = query.Where(sq.Eq{"category": c})
	}
	query = query.OrderBy("date DESC", "id DESC")
	if l := q.Limit(); l > 0 {
		query = query.Limit(uint64(l))
	}

	rows, err := query.RunWith(db.conn).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "find records")
	}
	defer rows.Close()

	result := make([]models.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "find records")
		}
		result = append(result, *r)
	}
	return result, errors.Wrap(rows.Err(), "find records")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.Record, error) {
	var (
		r                      models.Record
		kind                   string
		date, created, updated string
	)
	err := s.Scan(&r.ID, &r.UserID, &kind, &r.Title, &r.Amount, &r.Category,
		&date, &r.Description, &created, &updated)
	if err != nil {
		return nil, err
	}
	r.Kind = models.Kind(kind)
	for _, f := range []struct {
		src string
		dst *time.Time
	}{{date, &r.Date}, {created, &r.CreatedAt}, {updated, &r.UpdatedAt}} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
