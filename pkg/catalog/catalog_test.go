package catalog

import (
	"context"
	"testing"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (CatalogService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Tag{}, &entities.Ingredient{}))
	return NewCatalogService(NewCatalogRepository(db)), db
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) entities.Ingredient {
	t.Helper()
	ingredient := entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient
}

func TestGetIngredientsPrefixFilter(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	seedIngredient(t, db, "Flour", "g")
	seedIngredient(t, db, "flaxseed", "g")
	seedIngredient(t, db, "Sugar", "g")

	res, err := service.GetIngredients(ctx, "fl")
	require.NoError(t, err)
	require.Len(t, res, 2)

	names := []string{res[0].Name, res[1].Name}
	assert.Contains(t, names, "Flour")
	assert.Contains(t, names, "flaxseed")
}

func TestGetIngredientsNoFilterReturnsAll(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	seedIngredient(t, db, "Flour", "g")
	seedIngredient(t, db, "Sugar", "g")

	res, err := service.GetIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestSameNameDifferentUnitAreDistinctRows(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	seedIngredient(t, db, "Milk", "ml")
	seedIngredient(t, db, "Milk", "g")

	res, err := service.GetIngredients(ctx, "milk")
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestGetTagDetail(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	tag := entities.Tag{ID: uuid.New(), Name: "Breakfast", Slug: "breakfast"}
	require.NoError(t, db.Create(&tag).Error)

	res, err := service.GetTagDetail(ctx, tag.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "breakfast", res.Slug)

	_, err = service.GetTagDetail(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestGetIngredientDetailNotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetIngredientDetail(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
}
