package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"socialnet/internal/models"
)

// UserFinder is the read side of the credential store.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// UserRepository adds creation to UserFinder.
type UserRepository interface {
	UserFinder
	Create(ctx context.Context, u *models.User) error
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{5,15}$`)
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores input past 72 bytes
)

// ValidateRegistration checks registration input.
func ValidateRegistration(email, username, password string) error {
	if !emailRegex.MatchString(email) || len(email) < 5 || len(email) > 50 {
		return fmt.Errorf("%w: invalid email format or length (5-50 characters)", models.ErrValidation)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: username must be 5-15 letters, numbers or underscores", models.ErrValidation)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d characters", models.ErrValidation, minPasswordLen, maxPasswordLen)
	}
	return nil
}

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, falling back to
// bcrypt.DefaultCost when cost is out of range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Authenticator is the username/password login strategy.
type Authenticator struct {
	users     UserRepository
	hasher    *Hasher
	dummyHash string
}

func NewAuthenticator(users UserRepository, hasher *Hasher) (*Authenticator, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &Authenticator{users: users, hasher: hasher, dummyHash: dummy}, nil
}

// Authenticate looks the user up by exact username and checks the password.
// It fails with ErrUserNotFound or ErrInvalidCredentials. An unknown
// username still pays for one bcrypt comparison.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		a.hasher.Verify(password, a.dummyHash)
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !a.hasher.Verify(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return user.Identity(), nil
}

// Register validates input, hashes the password and stores a new user.
func (a *Authenticator) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	if err := ValidateRegistration(email, username, password); err != nil {
		return nil, err
	}
	hashed, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, Username: username, PasswordHash: hashed}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
