package models

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	assert.True(t, errors.Is(ErrUserNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrPostNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrEmailExists, ErrValidation))
	assert.True(t, errors.Is(ErrUsernameExists, ErrValidation))
	assert.False(t, errors.Is(ErrInvalidCredentials, ErrNotFound))
	assert.Equal(t, "user not found", ErrUserNotFound.Error())

	var storeErr *StoreError
	err := error(&StoreError{Op: "find user", Err: sql.ErrConnDone})
	assert.True(t, errors.As(err, &storeErr))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Equal(t, "store: find user: "+sql.ErrConnDone.Error(), err.Error())
}

func TestIdentityOmitsPasswordHash(t *testing.T) {
	u := &User{ID: "u1", Username: "alice", Email: "a@example.com", PasswordHash: "$2a$...", IsAdmin: true}
	id := u.Identity()
	assert.Equal(t, &Identity{ID: "u1", Username: "alice", Email: "a@example.com", IsAdmin: true}, id)
}

func TestListHelpers(t *testing.T) {
	u := &User{Followers: []string{"bob", "carol"}}
	assert.True(t, u.IsFollowedBy("bob"))
	assert.False(t, u.IsFollowedBy("dave"))

	p := &Post{Likes: []string{"bob"}}
	assert.True(t, p.LikedBy("bob"))
	assert.False(t, p.LikedBy("alice"))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
}
