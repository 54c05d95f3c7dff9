package relation

import (
	"context"
	"errors"
	"testing"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	errConflict = errors.New("pair exists")
	errMissing  = errors.New("pair missing")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Follow{}))
	return db
}

func newUser(t *testing.T, db *gorm.DB, username string) entities.User {
	t.Helper()
	user := entities.User{
		ID:           uuid.New(),
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestAddAndRemove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	d := Descriptor{Kind: "follow", ErrConflict: errConflict, ErrMissing: errMissing}

	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	row := entities.Follow{ID: uuid.New(), UserID: alice.ID, FollowingID: bob.ID}
	require.NoError(t, Add(ctx, db, d, &row))

	duplicate := entities.Follow{ID: uuid.New(), UserID: alice.ID, FollowingID: bob.ID}
	assert.ErrorIs(t, Add(ctx, db, d, &duplicate), errConflict)

	cond := map[string]any{"user_id": alice.ID, "following_id": bob.ID}
	require.NoError(t, Remove[entities.Follow](ctx, db, d, cond))

	// the pair is gone now
	assert.ErrorIs(t, Remove[entities.Follow](ctx, db, d, cond), errMissing)
}

func TestRemoveOnlyTouchesGivenPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	d := Descriptor{Kind: "follow", ErrConflict: errConflict, ErrMissing: errMissing}

	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")
	carol := newUser(t, db, "carol")

	require.NoError(t, Add(ctx, db, d, &entities.Follow{ID: uuid.New(), UserID: alice.ID, FollowingID: bob.ID}))
	require.NoError(t, Add(ctx, db, d, &entities.Follow{ID: uuid.New(), UserID: alice.ID, FollowingID: carol.ID}))

	require.NoError(t, Remove[entities.Follow](ctx, db, d, map[string]any{
		"user_id": alice.ID, "following_id": bob.ID,
	}))

	var count int64
	require.NoError(t, db.Model(&entities.Follow{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
