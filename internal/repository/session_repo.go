package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"incubator_console/internal/models"
)

// ErrNoSession means nothing is persisted yet.
var ErrNoSession = errors.New("no persisted session")

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite { return &SessionSQLite{db: db} }

const (
	sessionRowID = 1

	upsertSessionSQL = `
		INSERT INTO session (id, token, user_json, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token=excluded.token,
			user_json=excluded.user_json,
			saved_at=excluded.saved_at
	`

	selectSessionSQL = `SELECT token, user_json FROM session WHERE id=?`

	deleteSessionSQL = `DELETE FROM session WHERE id=?`
)

// Save upserts the single session row (id always 1).
func (r *SessionSQLite) Save(ctx context.Context, token string, user models.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertSessionSQL,
		sessionRowID, token, string(userJSON), time.Now().UTC())
	return err
}

// Load fetches the persisted session, or ErrNoSession.
func (r *SessionSQLite) Load(ctx context.Context) (string, models.User, error) {
	row := r.db.QueryRowContext(ctx, selectSessionSQL, sessionRowID)

	var token, userJSON string
	if err := row.Scan(&token, &userJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.User{}, ErrNoSession
		}
		return "", models.User{}, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

// Clear removes the session row. Clearing an absent row is not an error.
func (r *SessionSQLite) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, deleteSessionSQL, sessionRowID)
	return err
}
