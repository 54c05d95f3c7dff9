package user

import (
	"context"
	"testing"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/jwt"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct{}

func (fakeStorage) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func newTestService(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{}, &entities.Follow{},
		&entities.Tag{}, &entities.Ingredient{},
		&entities.Recipe{}, &entities.RecipeTag{}, &entities.RecipeIngredient{},
	))
	return NewUserService(NewUserRepository(db), jwt.NewJWTService(), fakeStorage{}), db
}

func register(t *testing.T, service UserService, username string) domain.UserResponse {
	t.Helper()
	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	return res
}

func seedRecipe(t *testing.T, db *gorm.DB, authorID string, name string) {
	t.Helper()
	recipe := entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    uuid.MustParse(authorID),
		Name:        name,
		Text:        "stir and serve",
		ImageURL:    "https://cdn.test/r.png",
		CookingTime: 10,
		ShortURL:    name[:3] + "abc",
	}
	require.NoError(t, db.Create(&recipe).Error)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _ := newTestService(t)
	register(t, service, "alice")

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     "alice@example.com",
		Username:  "other",
		FirstName: "Test",
		LastName:  "User",
		Password:  "correct-horse",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	service, _ := newTestService(t)
	register(t, service, "alice")

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     "alice2@example.com",
		Username:  "alice",
		FirstName: "Test",
		LastName:  "User",
		Password:  "correct-horse",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	service, _ := newTestService(t)
	register(t, service, "alice")
	ctx := context.Background()

	res, err := service.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = service.Login(ctx, domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	_, err = service.Login(ctx, domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestSubscribe(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	alice := register(t, service, "alice")
	bob := register(t, service, "bob")
	seedRecipe(t, db, bob.ID, "pancakes")
	seedRecipe(t, db, bob.ID, "omelette")

	res, err := service.Subscribe(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.IsSubscribed)
	assert.EqualValues(t, 2, res.RecipesCount)
	assert.Len(t, res.Recipes, 2)

	_, err = service.Subscribe(ctx, alice.ID, bob.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
}

func TestSubscribeSelfForbidden(t *testing.T) {
	service, _ := newTestService(t)
	alice := register(t, service, "alice")

	_, err := service.Subscribe(context.Background(), alice.ID, alice.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscribe)
}

func TestSubscribeUnknownTarget(t *testing.T) {
	service, _ := newTestService(t)
	alice := register(t, service, "alice")

	_, err := service.Subscribe(context.Background(), alice.ID, uuid.NewString(), 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	service, _ := newTestService(t)
	alice := register(t, service, "alice")
	bob := register(t, service, "bob")

	err := service.Unsubscribe(context.Background(), alice.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotSubscribed)
}

func TestGetSubscriptions(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	alice := register(t, service, "alice")
	bob := register(t, service, "bob")
	carol := register(t, service, "carol")
	seedRecipe(t, db, bob.ID, "pancakes")
	seedRecipe(t, db, bob.ID, "omelette")
	seedRecipe(t, db, carol.ID, "borscht")

	_, err := service.Subscribe(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	_, err = service.Subscribe(ctx, alice.ID, carol.ID, 0)
	require.NoError(t, err)

	res, count, err := service.GetSubscriptions(ctx, alice.ID, 10, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, res, 2)

	counts := map[string]int64{}
	for _, u := range res {
		counts[u.Username] = u.RecipesCount
		// recipes_limit caps the preview but not the count
		assert.LessOrEqual(t, len(u.Recipes), 1)
		assert.True(t, u.IsSubscribed)
	}
	assert.EqualValues(t, 2, counts["bob"])
	assert.EqualValues(t, 1, counts["carol"])
}

func TestGetUsersAnonymousViewer(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	alice := register(t, service, "alice")
	bob := register(t, service, "bob")
	_, err := service.Subscribe(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)

	res, count, err := service.GetUsers(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	for _, u := range res {
		assert.False(t, u.IsSubscribed)
	}
}

func TestGetUserDetailAnnotatesViewer(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	alice := register(t, service, "alice")
	bob := register(t, service, "bob")
	_, err := service.Subscribe(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)

	res, err := service.GetUserDetail(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, res.IsSubscribed)

	res, err = service.GetUserDetail(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, res.IsSubscribed)
}

func TestUpdateAndDeleteAvatar(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	alice := register(t, service, "alice")

	avatarURL, err := service.UpdateAvatar(ctx, alice.ID, domain.AvatarRequest{
		Avatar: "data:image/png;base64,aGVsbG8=",
	})
	require.NoError(t, err)
	assert.Contains(t, avatarURL, "users/images/")

	me, err := service.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, avatarURL, me.Avatar)

	require.NoError(t, service.DeleteAvatar(ctx, alice.ID))
	me, err = service.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, me.Avatar)
}

func TestUpdateAvatarRejectsMalformedPayload(t *testing.T) {
	service, _ := newTestService(t)
	alice := register(t, service, "alice")

	_, err := service.UpdateAvatar(context.Background(), alice.ID, domain.AvatarRequest{
		Avatar: "not-a-data-url",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}
