package recipe

import (
	"context"
	"strings"
	"testing"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/catalog"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/user"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testImage = "data:image/png;base64,aGVsbG8="

type fakeStorage struct{}

func (fakeStorage) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

type testEnv struct {
	db      *gorm.DB
	repo    RecipeRepository
	service RecipeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{}, &entities.Follow{},
		&entities.Tag{}, &entities.Ingredient{},
		&entities.Recipe{}, &entities.RecipeTag{}, &entities.RecipeIngredient{},
		&entities.Favorite{}, &entities.ShoppingCartItem{},
	))

	repo := NewRecipeRepository(db)
	service := NewRecipeService(
		repo,
		catalog.NewCatalogRepository(db),
		user.NewUserRepository(db),
		fakeStorage{},
		"https://foodgram.test",
	)
	return &testEnv{db: db, repo: repo, service: service}
}

func (e *testEnv) newUser(t *testing.T, username string) entities.User {
	t.Helper()
	u := entities.User{
		ID:           uuid.New(),
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) newTag(t *testing.T, slug string) entities.Tag {
	t.Helper()
	tag := entities.Tag{ID: uuid.New(), Name: slug, Slug: slug}
	require.NoError(t, e.db.Create(&tag).Error)
	return tag
}

func (e *testEnv) newIngredient(t *testing.T, name, unit string) entities.Ingredient {
	t.Helper()
	ingredient := entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, e.db.Create(&ingredient).Error)
	return ingredient
}

func recipeRequest(name string, tags []entities.Tag, ingredients ...domain.RecipeIngredientRequest) domain.RecipeRequest {
	tagIDs := make([]string, 0, len(tags))
	for _, tag := range tags {
		tagIDs = append(tagIDs, tag.ID.String())
	}
	return domain.RecipeRequest{
		Name:        name,
		Text:        "stir and serve",
		Image:       testImage,
		CookingTime: 15,
		Tags:        tagIDs,
		Ingredients: ingredients,
	}
}

func ingredientItem(ingredient entities.Ingredient, amount int) domain.RecipeIngredientRequest {
	return domain.RecipeIngredientRequest{ID: ingredient.ID.String(), Amount: amount}
}

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	res, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", res.Name)
	assert.Equal(t, "alice", res.Author.Username)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "breakfast", res.Tags[0].Slug)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, 200, res.Ingredients[0].Amount)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.Contains(t, res.Image, "recipes/images/")

	var stored entities.Recipe
	require.NoError(t, env.db.First(&stored, "name = ?", "Pancakes").Error)
	assert.Len(t, stored.ShortURL, 6)
}

func TestCreateRecipeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")
	authorID := author.ID.String()

	req := recipeRequest("Pancakes", nil, ingredientItem(flour, 200))
	_, err := env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrEmptyTags)

	req = recipeRequest("Pancakes", []entities.Tag{breakfast})
	_, err = env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrEmptyIngredients)

	req = recipeRequest("Pancakes", []entities.Tag{breakfast, breakfast}, ingredientItem(flour, 200))
	_, err = env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrDuplicateTag)

	req = recipeRequest("Pancakes", []entities.Tag{breakfast},
		ingredientItem(flour, 200), ingredientItem(flour, 300))
	_, err = env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrDuplicateIngredient)

	ghostTag := entities.Tag{ID: uuid.New()}
	req = recipeRequest("Pancakes", []entities.Tag{ghostTag}, ingredientItem(flour, 200))
	_, err = env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	ghostIngredient := entities.Ingredient{ID: uuid.New()}
	req = recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(ghostIngredient, 200))
	_, err = env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

	req = recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	req.Image = ""
	_, err = env.service.CreateRecipe(ctx, req, authorID)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestCreateRecipeNameUniquePerAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	_, err := env.service.CreateRecipe(ctx, req, alice.ID.String())
	require.NoError(t, err)

	_, err = env.service.CreateRecipe(ctx, req, alice.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNameTaken)

	// same name under a different author is fine
	_, err = env.service.CreateRecipe(ctx, req, bob.ID.String())
	require.NoError(t, err)
}

func TestShortCodeCollisionRetries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.newUser(t, "alice")

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	next := 0
	repo := &recipeRepository{db: env.db, generateCode: func() string {
		code := codes[next]
		next++
		return code
	}}

	first := entities.Recipe{
		ID: uuid.New(), AuthorID: author.ID, Name: "Pancakes",
		Text: "x", ImageURL: "x", CookingTime: 5,
	}
	require.NoError(t, repo.CreateRecipe(ctx, &first,
		[]entities.RecipeTag{}, []entities.RecipeIngredient{}))
	assert.Equal(t, "AAAAAA", first.ShortURL)

	second := entities.Recipe{
		ID: uuid.New(), AuthorID: author.ID, Name: "Omelette",
		Text: "x", ImageURL: "x", CookingTime: 5,
	}
	require.NoError(t, repo.CreateRecipe(ctx, &second,
		[]entities.RecipeTag{}, []entities.RecipeIngredient{}))
	assert.Equal(t, "BBBBBB", second.ShortURL)
}

func TestUpdateRecipeReplacesLineItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	dinner := env.newTag(t, "dinner")
	dessert := env.newTag(t, "dessert")
	flour := env.newIngredient(t, "Flour", "g")
	sugar := env.newIngredient(t, "Sugar", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast, dinner}, ingredientItem(flour, 200))
	created, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	updateReq := recipeRequest("Pancakes v2", []entities.Tag{dinner, dessert},
		ingredientItem(sugar, 50))
	updateReq.Image = ""
	updated, err := env.service.UpdateRecipe(ctx, created.ID, updateReq, author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes v2", updated.Name)
	require.Len(t, updated.Tags, 2)
	slugs := []string{updated.Tags[0].Slug, updated.Tags[1].Slug}
	assert.ElementsMatch(t, []string{"dinner", "dessert"}, slugs)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "Sugar", updated.Ingredients[0].Name)
	// image survives an update without a new upload
	assert.Equal(t, created.Image, updated.Image)

	var tagRows, ingredientRows int64
	require.NoError(t, env.db.Model(&entities.RecipeTag{}).Count(&tagRows).Error)
	require.NoError(t, env.db.Model(&entities.RecipeIngredient{}).Count(&ingredientRows).Error)
	assert.EqualValues(t, 2, tagRows)
	assert.EqualValues(t, 1, ingredientRows)
}

func TestUpdateRecipeRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	dinner := env.newTag(t, "dinner")
	flour := env.newIngredient(t, "Flour", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	created, err := env.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)
	recipeID := uuid.MustParse(created.ID)

	// Two rows for the same (recipe, tag) pair trip the unique index midway
	// through the reinsert.
	badTags := []entities.RecipeTag{
		{ID: uuid.New(), RecipeID: recipeID, TagID: dinner.ID},
		{ID: uuid.New(), RecipeID: recipeID, TagID: dinner.ID},
	}
	err = env.repo.UpdateRecipe(ctx, &entities.Recipe{
		ID: recipeID, AuthorID: author.ID, Name: "Broken",
		Text: "x", ImageURL: created.Image, CookingTime: 5,
	}, badTags, []entities.RecipeIngredient{
		{ID: uuid.New(), RecipeID: recipeID, IngredientID: flour.ID, Amount: 100},
	})
	require.Error(t, err)

	// the whole transaction rolled back, original state intact
	detail, err := env.service.GetRecipeDetail(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", detail.Name)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "breakfast", detail.Tags[0].Slug)
	require.Len(t, detail.Ingredients, 1)
	assert.Equal(t, 200, detail.Ingredients[0].Amount)
}

func TestUpdateRecipeOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	created, err := env.service.CreateRecipe(ctx, req, alice.ID.String())
	require.NoError(t, err)

	_, err = env.service.UpdateRecipe(ctx, created.ID, req, bob.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeOwner)

	_, err = env.service.UpdateRecipe(ctx, uuid.NewString(), req, alice.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	created, err := env.service.CreateRecipe(ctx, req, alice.ID.String())
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.DeleteRecipe(ctx, created.ID, bob.ID.String()), domain.ErrNotRecipeOwner)
	require.NoError(t, env.service.DeleteRecipe(ctx, created.ID, alice.ID.String()))

	_, err = env.service.GetRecipeDetail(ctx, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	var tagRows int64
	require.NoError(t, env.db.Model(&entities.RecipeTag{}).Count(&tagRows).Error)
	assert.Zero(t, tagRows)
}

func TestFavoriteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	req := recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200))
	created, err := env.service.CreateRecipe(ctx, req, alice.ID.String())
	require.NoError(t, err)

	short, err := env.service.AddFavorite(ctx, created.ID, bob.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)
	assert.Equal(t, "Pancakes", short.Name)

	_, err = env.service.AddFavorite(ctx, created.ID, bob.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)

	detail, err := env.service.GetRecipeDetail(ctx, created.ID, bob.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)

	// a different viewer sees their own state, not bob's
	detail, err = env.service.GetRecipeDetail(ctx, created.ID, alice.ID.String())
	require.NoError(t, err)
	assert.False(t, detail.IsFavorited)

	require.NoError(t, env.service.RemoveFavorite(ctx, created.ID, bob.ID.String()))
	assert.ErrorIs(t, env.service.RemoveFavorite(ctx, created.ID, bob.ID.String()), domain.ErrNotFavorited)
}

func TestCartUnknownRecipe(t *testing.T) {
	env := newTestEnv(t)
	alice := env.newUser(t, "alice")

	_, err := env.service.AddToCart(context.Background(), uuid.NewString(), alice.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingListAggregation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")
	sugar := env.newIngredient(t, "Sugar", "g")

	pancakes, err := env.service.CreateRecipe(ctx,
		recipeRequest("Pancakes", []entities.Tag{breakfast},
			ingredientItem(flour, 200), ingredientItem(sugar, 30)),
		alice.ID.String())
	require.NoError(t, err)

	bread, err := env.service.CreateRecipe(ctx,
		recipeRequest("Bread", []entities.Tag{breakfast}, ingredientItem(flour, 300)),
		alice.ID.String())
	require.NoError(t, err)

	_, err = env.service.AddToCart(ctx, pancakes.ID, alice.ID.String())
	require.NoError(t, err)
	_, err = env.service.AddToCart(ctx, bread.ID, alice.ID.String())
	require.NoError(t, err)

	content, err := env.service.DownloadShoppingCart(ctx, alice.ID.String())
	require.NoError(t, err)

	text := string(content)
	assert.True(t, strings.HasPrefix(text, "Shopping list:\n"))
	assert.Contains(t, text, "Flour: 500g | Purchased: [ ]")
	assert.Contains(t, text, "Sugar: 30g | Purchased: [ ]")
}

func TestGetRecipesFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	breakfast := env.newTag(t, "breakfast")
	dinner := env.newTag(t, "dinner")
	flour := env.newIngredient(t, "Flour", "g")

	pancakes, err := env.service.CreateRecipe(ctx,
		recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200)),
		alice.ID.String())
	require.NoError(t, err)
	_, err = env.service.CreateRecipe(ctx,
		recipeRequest("Stew", []entities.Tag{dinner}, ingredientItem(flour, 100)),
		bob.ID.String())
	require.NoError(t, err)

	res, count, err := env.service.GetRecipes(ctx,
		domain.RecipeListFilter{TagSlugs: []string{"breakfast"}, Limit: 10}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, res, 1)
	assert.Equal(t, "Pancakes", res[0].Name)

	res, count, err = env.service.GetRecipes(ctx,
		domain.RecipeListFilter{AuthorID: bob.ID.String(), Limit: 10}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, "Stew", res[0].Name)

	_, err = env.service.AddFavorite(ctx, pancakes.ID, bob.ID.String())
	require.NoError(t, err)

	res, count, err = env.service.GetRecipes(ctx,
		domain.RecipeListFilter{IsFavorited: true, Limit: 10}, bob.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, "Pancakes", res[0].Name)
	assert.True(t, res[0].IsFavorited)
}

func TestGetRecipesAnonymousViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	created, err := env.service.CreateRecipe(ctx,
		recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200)),
		alice.ID.String())
	require.NoError(t, err)

	_, err = env.service.AddFavorite(ctx, created.ID, alice.ID.String())
	require.NoError(t, err)

	res, count, err := env.service.GetRecipes(ctx, domain.RecipeListFilter{Limit: 10}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.False(t, res[0].IsFavorited)
	assert.False(t, res[0].IsInShoppingCart)
	assert.False(t, res[0].Author.IsSubscribed)
}

func TestShortLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newUser(t, "alice")
	breakfast := env.newTag(t, "breakfast")
	flour := env.newIngredient(t, "Flour", "g")

	created, err := env.service.CreateRecipe(ctx,
		recipeRequest("Pancakes", []entities.Tag{breakfast}, ingredientItem(flour, 200)),
		alice.ID.String())
	require.NoError(t, err)

	link, err := env.service.GetShortLink(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.ShortLink, "https://foodgram.test/s/"))

	code := strings.TrimPrefix(link.ShortLink, "https://foodgram.test/s/")
	resolved, err := env.service.ResolveShortLink(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved)

	_, err = env.service.ResolveShortLink(ctx, "zzzzzz")
	assert.ErrorIs(t, err, domain.ErrShortLinkNotFound)
}
