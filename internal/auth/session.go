package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"socialnet/internal/models"
)

const CookieName = "session_token"

// SessionRepository is the durable session record store.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteForUser(ctx context.Context, userID string) error
}

// SessionManager binds identities to durable sessions. The token handed to
// the client is an HS256 JWT whose jti is the session ID; only the user ID
// is stored server-side.
type SessionManager struct {
	store  SessionRepository
	users  UserFinder
	secret []byte
	idle   time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(store SessionRepository, users UserFinder, secret []byte, idle time.Duration, secureCookie bool) *SessionManager {
	return &SessionManager{
		store:  store,
		users:  users,
		secret: secret,
		idle:   idle,
		secure: secureCookie,
		now:    time.Now,
	}
}

// Create starts a session for userID and returns its signed token.
func (m *SessionManager) Create(ctx context.Context, userID string) (string, time.Time, error) {
	now := m.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(m.idle),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return "", time.Time{}, err
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:       sess.ID,
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
	}).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, sess.ExpiresAt, nil
}

// Login drops the user's previous sessions and starts a fresh one.
func (m *SessionManager) Login(ctx context.Context, userID string) (string, time.Time, error) {
	if err := m.store.DeleteForUser(ctx, userID); err != nil {
		return "", time.Time{}, err
	}
	return m.Create(ctx, userID)
}

// Resolve turns a token back into an identity and slides the idle
// deadline. Tampered, unknown and expired tokens yield ErrSessionInvalid.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := m.store.Find(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.Subject {
		return nil, models.ErrSessionInvalid
	}
	now := m.now()
	if sess.Expired(now) {
		_ = m.store.Delete(ctx, sess.ID)
		return nil, models.ErrSessionInvalid
	}
	if err := m.store.Touch(ctx, sess.ID, now.Add(m.idle)); err != nil {
		return nil, err
	}

	user, err := m.users.FindByID(ctx, sess.UserID)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// Destroy invalidates the session behind token immediately.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, claims.ID)
}

func (m *SessionManager) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.ID == "" || claims.Subject == "" {
		return nil, models.ErrSessionInvalid
	}
	return claims, nil
}

// SetCookie writes the session cookie. It has no Expires: the server-side
// idle deadline decides validity.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session token presented by the client, or "".
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type contextKey string

const identityContextKey contextKey = "identity"

func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the authenticated identity or nil.
func IdentityFromContext(ctx context.Context) *models.Identity {
	id, ok := ctx.Value(identityContextKey).(*models.Identity)
	if !ok {
		return nil
	}
	return id
}
