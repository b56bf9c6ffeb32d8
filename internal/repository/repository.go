package repository

import (
	"context"
	"database/sql"
	"time"

	"incubator_console/internal/models"
)

// SessionRepo persists the single operator session (token + profile).
type SessionRepo interface {
	Save(ctx context.Context, token string, user models.User) error
	Load(ctx context.Context) (string, models.User, error)
	Clear(ctx context.Context) error
}

// EventRepo is the append-only command audit trail.
type EventRepo interface {
	Append(ctx context.Context, e models.CommandEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CommandEvent, error)
}

type Repository struct {
	Session SessionRepo
	Events  EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Session: NewSessionSQLite(db),
		Events:  NewEventSQLite(db),
	}
}
