package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialnet/internal/logging"
	"socialnet/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, users *UserStore, username string) *models.User {
	t.Helper()
	u := &models.User{Email: username + "@example.com", Username: username, PasswordHash: "hash-" + username}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUserStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(newTestDB(t))

	alice := createUser(t, users, "alice")
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, models.DefaultProfileImg, alice.ProfileImg)
	assert.False(t, alice.IsAdmin)

	got, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "hash-alice", got.PasswordHash)
	assert.Equal(t, []string{}, got.Followers)
	assert.Equal(t, []string{}, got.Following)
	assert.Equal(t, []string{}, got.Posts)
	assert.WithinDuration(t, alice.CreatedAt, got.CreatedAt, time.Second)

	byID, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = users.FindByUsername(ctx, "ALICE")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	_, err = users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserStoreDuplicates(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(newTestDB(t))
	createUser(t, users, "alice")

	err := users.Create(ctx, &models.User{Email: "alice@example.com", Username: "other", PasswordHash: "x"})
	assert.ErrorIs(t, err, models.ErrEmailExists)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = users.Create(ctx, &models.User{Email: "new@example.com", Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, models.ErrUsernameExists)
}

func TestFollowUnfollow(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(newTestDB(t))
	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bobby")

	require.NoError(t, users.Follow(ctx, alice.ID, "bobby"))

	gotBob, err := users.FindByUsername(ctx, "bobby")
	require.NoError(t, err)
	gotAlice, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, gotBob.Followers)
	assert.Equal(t, []string{"bobby"}, gotAlice.Following)

	// Set semantics: a second follow does not add a duplicate edge.
	require.NoError(t, users.Follow(ctx, alice.ID, "bobby"))
	gotBob, err = users.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, gotBob.Followers)

	require.NoError(t, users.Unfollow(ctx, alice.ID, "bobby"))
	gotBob, err = users.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	gotAlice, err = users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, gotBob.Followers)
	assert.Empty(t, gotAlice.Following)

	// Unfollowing again is a no-op.
	require.NoError(t, users.Unfollow(ctx, alice.ID, "bobby"))
}

func TestFollowErrors(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore(newTestDB(t))
	alice := createUser(t, users, "alice")

	assert.ErrorIs(t, users.Follow(ctx, alice.ID, "nobody"), models.ErrUserNotFound)
	assert.ErrorIs(t, users.Unfollow(ctx, alice.ID, "nobody"), models.ErrUserNotFound)
	assert.ErrorIs(t, users.Follow(ctx, alice.ID, "alice"), models.ErrValidation)
	assert.ErrorIs(t, users.Follow(ctx, "ghost-id", "alice"), models.ErrUserNotFound)
}

func TestUserStoreListAndSetAdmin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bobby")
	require.NoError(t, users.Follow(ctx, bob.ID, "alice"))
	p := &models.Post{UserID: alice.ID, Caption: "hi"}
	require.NoError(t, posts.Create(ctx, p))

	require.NoError(t, users.SetAdmin(ctx, "alice", true))
	assert.ErrorIs(t, users.SetAdmin(ctx, "nobody", true), models.ErrUserNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Username)
	assert.True(t, all[0].IsAdmin)
	assert.Equal(t, []string{"bobby"}, all[0].Followers)
	assert.Equal(t, []string{p.ID}, all[0].Posts)
	assert.Equal(t, []string{"alice"}, all[1].Following)
	assert.Equal(t, []string{}, all[1].Posts)
}

func TestPostStoreCreateLikeUnlike(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	alice := createUser(t, users, "alice")
	createUser(t, users, "bobby")

	p := &models.Post{UserID: alice.ID, Caption: "hello", Img: "https://example.com/a.png"}
	require.NoError(t, posts.Create(ctx, p))
	assert.NotEmpty(t, p.ID)

	got, err := posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Caption)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{}, got.Likes)

	owner, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, owner.Posts)

	require.NoError(t, posts.Like(ctx, p.ID, "bobby"))
	require.NoError(t, posts.Like(ctx, p.ID, "bobby"))
	require.NoError(t, posts.Like(ctx, p.ID, "alice"))
	got, err = posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bobby", "alice"}, got.Likes)

	require.NoError(t, posts.Unlike(ctx, p.ID, "bobby"))
	got, err = posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Likes)

	assert.ErrorIs(t, posts.Like(ctx, "missing", "bobby"), models.ErrPostNotFound)
	assert.ErrorIs(t, posts.Unlike(ctx, "missing", "bobby"), models.ErrPostNotFound)
	assert.ErrorIs(t, posts.Like(ctx, p.ID, "nobody"), models.ErrUserNotFound)
	_, err = posts.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestPostStoreCreateUnknownOwner(t *testing.T) {
	posts := NewPostStore(newTestDB(t))
	err := posts.Create(context.Background(), &models.Post{UserID: "ghost", Caption: "x"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestPostStoreList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db)
	posts := NewPostStore(db)
	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bobby")

	first := &models.Post{UserID: alice.ID, Caption: "first"}
	second := &models.Post{UserID: bob.ID, Caption: "second"}
	require.NoError(t, posts.Create(ctx, first))
	require.NoError(t, posts.Create(ctx, second))
	require.NoError(t, posts.Like(ctx, first.ID, "bobby"))

	all, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Caption)
	assert.Equal(t, []string{}, all[0].Likes)
	assert.Equal(t, []string{"bobby"}, all[1].Likes)

	mine, err := posts.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "first", mine[0].Caption)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db)
	sessions := NewSessionStore(db)
	alice := createUser(t, users, "alice")

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	require.NoError(t, sessions.Create(ctx, &models.Session{ID: "s1", UserID: alice.ID, ExpiresAt: expires}))
	require.NoError(t, sessions.Create(ctx, &models.Session{ID: "s2", UserID: alice.ID, ExpiresAt: time.Now().Add(-time.Minute)}))

	got, err := sessions.Find(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
	assert.True(t, expires.Equal(got.ExpiresAt))

	later := expires.Add(time.Hour)
	require.NoError(t, sessions.Touch(ctx, "s1", later))
	got, err = sessions.Find(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, later.Equal(got.ExpiresAt))

	n, err := sessions.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = sessions.Find(ctx, "s2")
	assert.ErrorIs(t, err, models.ErrSessionInvalid)

	require.NoError(t, sessions.Delete(ctx, "s1"))
	assert.ErrorIs(t, sessions.Delete(ctx, "s1"), models.ErrSessionInvalid)

	require.NoError(t, sessions.Create(ctx, &models.Session{ID: "s3", UserID: alice.ID, ExpiresAt: expires}))
	require.NoError(t, sessions.DeleteForUser(ctx, alice.ID))
	_, err = sessions.Find(ctx, "s3")
	assert.ErrorIs(t, err, models.ErrSessionInvalid)
}

func TestSessionCleanupStopsWithContext(t *testing.T) {
	db := newTestDB(t)
	users := NewUserStore(db)
	sessions := NewSessionStore(db)
	alice := createUser(t, users, "alice")
	require.NoError(t, sessions.Create(context.Background(),
		&models.Session{ID: "old", UserID: alice.ID, ExpiresAt: time.Now().Add(-time.Hour)}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sessions.RunCleanup(ctx, 10*time.Millisecond, logging.Discard())
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := sessions.Find(context.Background(), "old")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not stop after cancel")
	}
}

func TestFollowRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE username = \?`).
		WithArgs("bobby").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u2"))
	mock.ExpectQuery(`SELECT 1 FROM users WHERE id = \?`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(`INSERT OR IGNORE INTO follows`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err = NewUserStore(db).Follow(context.Background(), "u1", "bobby")
	var storeErr *models.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "insert follow", storeErr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeCommitFailureIsStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM posts WHERE id = \?`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT id FROM users WHERE username = \?`).
		WithArgs("bobby").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u2"))
	mock.ExpectExec(`INSERT OR IGNORE INTO post_likes`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(sql.ErrTxDone)

	err = NewPostStore(db).Like(context.Background(), "p1", "bobby")
	var storeErr *models.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "like: commit", storeErr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}
