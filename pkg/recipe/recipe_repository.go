package recipe

import (
	"context"
	"errors"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/relation"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/shortlink"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attempts at drawing a free short code before giving up and surfacing the
// duplicate-key error as-is.
const maxShortURLAttempts = 10

var (
	favoriteRelation = relation.Descriptor{
		Kind:        "favorite",
		ErrConflict: domain.ErrAlreadyFavorited,
		ErrMissing:  domain.ErrNotFavorited,
	}
	cartRelation = relation.Descriptor{
		Kind:        "shopping cart",
		ErrConflict: domain.ErrAlreadyInCart,
		ErrMissing:  domain.ErrNotInCart,
	}
)

type (
	ShoppingListRow struct {
		Name            string
		MeasurementUnit string
		Total           int
	}

	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.RecipeTag, ingredients []entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.RecipeTag, ingredients []entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, id uuid.UUID) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipeByShortURL(ctx context.Context, code string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeListFilter, viewerID string) ([]*entities.Recipe, int64, error)
		CountByNameAndAuthor(ctx context.Context, name string, authorID, excludeID uuid.UUID) (int64, error)
		FavoriteIDSet(ctx context.Context, userID string, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error)
		CartIDSet(ctx context.Context, userID string, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error)
		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		AddToCart(ctx context.Context, item *entities.ShoppingCartItem) error
		RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error
		GetShoppingList(ctx context.Context, userID string) ([]ShoppingListRow, error)
	}

	recipeRepository struct {
		db           *gorm.DB
		generateCode shortlink.Generator
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db, generateCode: shortlink.Generate}
}

// CreateRecipe persists the recipe and its full line-item set as one atomic
// unit. Each attempt runs in its own transaction: a short-code collision
// aborts the whole transaction, so the retry must restart it rather than keep
// inserting into an aborted one.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.RecipeTag, ingredients []entities.RecipeIngredient) error {
	var err error
	for attempt := 0; attempt < maxShortURLAttempts; attempt++ {
		recipe.ShortURL = r.generateCode()
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(recipe).Error; err != nil {
				return err
			}
			if len(tags) > 0 {
				if err := tx.Create(&tags).Error; err != nil {
					return err
				}
			}
			if len(ingredients) > 0 {
				return tx.Create(&ingredients).Error
			}
			return nil
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

// UpdateRecipe replaces the scalar fields and the entire tag and ingredient
// sets in a single transaction, so readers never observe a half-replaced
// line-item set.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.RecipeTag, ingredients []entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]any{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"image_url":    recipe.ImageURL,
				"cooking_time": recipe.CookingTime,
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Create(&tags).Error; err != nil {
				return err
			}
		}
		if len(ingredients) > 0 {
			return tx.Create(&ingredients).Error
		}
		return nil
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	// Join rows cascade at the storage layer; sqlite test fixtures do not
	// always enforce that, so they are removed explicitly in the same
	// transaction.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&entities.RecipeTag{}, &entities.RecipeIngredient{},
			&entities.Favorite{}, &entities.ShoppingCartItem{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags.Tag").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipeByShortURL(ctx context.Context, code string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).Where("short_url = ?", code).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) listQuery(ctx context.Context, filter domain.RecipeListFilter, viewerID string) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.IsFavorited && viewerID != "" {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", viewerID)
	}
	if filter.IsInShoppingCart && viewerID != "" {
		query = query.
			Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipes.id").
			Where("shopping_cart_items.user_id = ?", viewerID)
	}

	return query
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeListFilter, viewerID string) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64

	if err := r.listQuery(ctx, filter, viewerID).
		Distinct("recipes.id").
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	query := r.listQuery(ctx, filter, viewerID).
		Distinct("recipes.*").
		Preload("Author").
		Preload("Tags.Tag").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at desc").
		Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) CountByNameAndAuthor(ctx context.Context, name string, authorID, excludeID uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("name = ? AND author_id = ?", name, authorID)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FavoriteIDSet answers "which of these recipes has the viewer favorited"
// with a single membership query.
func (r *recipeRepository) FavoriteIDSet(ctx context.Context, userID string, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return r.pairIDSet(ctx, &entities.Favorite{}, userID, recipeIDs)
}

func (r *recipeRepository) CartIDSet(ctx context.Context, userID string, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return r.pairIDSet(ctx, &entities.ShoppingCartItem{}, userID, recipeIDs)
}

func (r *recipeRepository) pairIDSet(ctx context.Context, model any, userID string, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}

	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return relation.Add(ctx, r.db, favoriteRelation, favorite)
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return relation.Remove[entities.Favorite](ctx, r.db, favoriteRelation, map[string]any{
		"user_id":   userID,
		"recipe_id": recipeID,
	})
}

func (r *recipeRepository) AddToCart(ctx context.Context, item *entities.ShoppingCartItem) error {
	return relation.Add(ctx, r.db, cartRelation, item)
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return relation.Remove[entities.ShoppingCartItem](ctx, r.db, cartRelation, map[string]any{
		"user_id":   userID,
		"recipe_id": recipeID,
	})
}

// GetShoppingList sums ingredient amounts across every recipe in the user's
// cart, grouped by (name, measurement unit), in one query.
func (r *recipeRepository) GetShoppingList(ctx context.Context, userID string) ([]ShoppingListRow, error) {
	var rows []ShoppingListRow
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_items ON shopping_cart_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
