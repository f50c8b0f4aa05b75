package social

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialnet/internal/database"
	"socialnet/internal/logging"
	"socialnet/internal/models"
)

type fixture struct {
	users *database.UserStore
	posts *database.PostStore
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "social.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newFixtureFromDB(db)
}

func newFixtureFromDB(db *sql.DB) *fixture {
	users := database.NewUserStore(db)
	posts := database.NewPostStore(db)
	return &fixture{users: users, posts: posts, svc: NewService(users, posts)}
}

func (f *fixture) user(t *testing.T, username string) *models.Identity {
	t.Helper()
	u := &models.User{Email: username + "@example.com", Username: username, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.Identity()
}

func (f *fixture) reload(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

func TestFollowIsTwoSided(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	f.user(t, "bobby")

	require.NoError(t, f.svc.Follow(ctx, alice, "bobby"))
	assert.Equal(t, []string{"alice"}, f.reload(t, "bobby").Followers)
	assert.Equal(t, []string{"bobby"}, f.reload(t, "alice").Following)

	require.NoError(t, f.svc.Follow(ctx, alice, "bobby"))
	assert.Len(t, f.reload(t, "bobby").Followers, 1, "follow is idempotent")

	require.NoError(t, f.svc.Unfollow(ctx, alice, "bobby"))
	assert.Empty(t, f.reload(t, "bobby").Followers)
	assert.Empty(t, f.reload(t, "alice").Following)
}

func TestFollowErrorsKeepTheirKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	err := f.svc.Follow(ctx, alice, "nobody")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.Contains(t, err.Error(), "follow nobody")

	assert.ErrorIs(t, f.svc.Follow(ctx, alice, "alice"), models.ErrValidation)
}

func TestLikeUnlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bobby := f.user(t, "bobby")

	p, err := f.svc.CreatePost(ctx, alice, "  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Caption)
	assert.Equal(t, "alice", p.Username)

	require.NoError(t, f.svc.Like(ctx, bobby, p.ID))
	got, err := f.posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bobby"}, got.Likes)

	require.NoError(t, f.svc.Unlike(ctx, bobby, p.ID))
	got, err = f.posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)

	assert.ErrorIs(t, f.svc.Like(ctx, bobby, "missing"), models.ErrPostNotFound)
}

func TestCreatePostAttachesToAuthor(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	p, err := f.svc.CreatePost(context.Background(), alice, "sunset", "https://example.com/a.jpg")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []string{p.ID}, f.reload(t, "alice").Posts)
}

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		img     string
		wantErr bool
	}{
		{name: "caption only", caption: "hi"},
		{name: "https image", caption: "hi", img: "https://example.com/x.png"},
		{name: "http image", caption: "hi", img: "http://example.com/x.png"},
		{name: "blank caption", caption: "   ", wantErr: true},
		{name: "caption too long", caption: strings.Repeat("é", maxCaptionLen+1), wantErr: true},
		{name: "caption at limit", caption: strings.Repeat("é", maxCaptionLen)},
		{name: "javascript image", caption: "hi", img: "javascript:alert(1)", wantErr: true},
		{name: "relative image", caption: "hi", img: "/img.png", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidatePost(tt.caption, tt.img)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
