package storage

import (
	"context"

	"finance-tracker/internal/models"
	"finance-tracker/internal/records"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a user or record does not exist, or the
	// record exists but belongs to someone else.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("user already exists")
)

// Store is the persistence contract shared by the SQLite and MongoDB
// backends. Record operations are always scoped to an owner.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserCount(ctx context.Context) (int, error)

	CreateRecord(ctx context.Context, r *models.Record) error
	GetRecord(ctx context.Context, owner string, kind models.Kind, id string) (*models.Record, error)
	UpdateRecord(ctx context.Context, owner string, r *models.Record) error
	DeleteRecord(ctx context.Context, owner string, kind models.Kind, id string) error
	FindRecords(ctx context.Context, q records.Query) ([]models.Record, error)

	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Mongo)(nil)
)
