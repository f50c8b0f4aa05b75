package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"socialnet/internal/models"
)

// SessionStore keeps login sessions in the database so they survive
// restarts.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	sess.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		sess.ID, sess.UserID, sess.ExpiresAt.UnixMilli(), sess.CreatedAt)
	if err != nil {
		return storeErr("insert session", err)
	}
	return nil
}

// Find returns ErrSessionInvalid when no row matches id. Expiry is left to
// the caller.
func (s *SessionStore) Find(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	var expires int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", id).
		Scan(&sess.ID, &sess.UserID, &expires, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionInvalid
	}
	if err != nil {
		return nil, storeErr("find session", err)
	}
	sess.ExpiresAt = time.UnixMilli(expires).UTC()
	return &sess, nil
}

// Touch moves the idle deadline of a session.
func (s *SessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET expires_at = ? WHERE id = ?", expiresAt.UnixMilli(), id); err != nil {
		return storeErr("touch session", err)
	}
	return nil
}

// Delete removes a session. It returns ErrSessionInvalid if none existed.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return storeErr("delete session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete session", err)
	}
	if n == 0 {
		return models.ErrSessionInvalid
	}
	return nil
}

func (s *SessionStore) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return storeErr("delete user sessions", err)
	}
	return nil
}

// DeleteExpired removes every session whose deadline is before now.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, storeErr("delete expired sessions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RunCleanup sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) RunCleanup(ctx context.Context, interval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx, s.now())
			if err != nil {
				log.WithError(err).Error("cleaning up expired sessions")
				continue
			}
			if n > 0 {
				log.WithField("count", n).Info("cleaned up expired sessions")
			}
		}
	}
}
