package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/internal/utils"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/internal/utils/storage"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/catalog"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeListFilter, viewerID string) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID, viewerID string) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID, userID string) error
		AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFavorite(ctx context.Context, recipeID, userID string) error
		AddToCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error)
		RemoveFromCart(ctx context.Context, recipeID, userID string) error
		DownloadShoppingCart(ctx context.Context, userID string) ([]byte, error)
		GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, code string) (string, error)
	}

	recipeService struct {
		recipeRepository  RecipeRepository
		catalogRepository catalog.CatalogRepository
		userRepository    user.UserRepository
		s3                storage.Storage
		appURL            string
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	catalogRepository catalog.CatalogRepository,
	userRepository user.UserRepository,
	s3 storage.Storage,
	appURL string,
) RecipeService {
	return &recipeService{
		recipeRepository:  recipeRepository,
		catalogRepository: catalogRepository,
		userRepository:    userRepository,
		s3:                s3,
		appURL:            strings.TrimSuffix(appURL, "/"),
	}
}

// resolveLineItems validates the tag and ingredient submissions: both
// non-empty, no duplicate ids within either sequence, every referenced id
// present in the catalog.
func (s *recipeService) resolveLineItems(ctx context.Context, req domain.RecipeRequest) ([]uuid.UUID, []uuid.UUID, error) {
	if len(req.Tags) == 0 {
		return nil, nil, domain.ErrEmptyTags
	}
	if len(req.Ingredients) == 0 {
		return nil, nil, domain.ErrEmptyIngredients
	}

	tagIDs := make([]uuid.UUID, 0, len(req.Tags))
	seenTags := make(map[uuid.UUID]bool, len(req.Tags))
	for _, raw := range req.Tags {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		if seenTags[id] {
			return nil, nil, domain.ErrDuplicateTag
		}
		seenTags[id] = true
		tagIDs = append(tagIDs, id)
	}

	ingredientIDs := make([]uuid.UUID, 0, len(req.Ingredients))
	seenIngredients := make(map[uuid.UUID]bool, len(req.Ingredients))
	for _, item := range req.Ingredients {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		if seenIngredients[id] {
			return nil, nil, domain.ErrDuplicateIngredient
		}
		seenIngredients[id] = true
		ingredientIDs = append(ingredientIDs, id)
	}

	tags, err := s.catalogRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	ingredients, err := s.catalogRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	return tagIDs, ingredientIDs, nil
}

func buildLineItems(recipeID uuid.UUID, tagIDs []uuid.UUID, req domain.RecipeRequest, ingredientIDs []uuid.UUID) ([]entities.RecipeTag, []entities.RecipeIngredient) {
	tags := make([]entities.RecipeTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		tags = append(tags, entities.RecipeTag{
			ID:       uuid.New(),
			RecipeID: recipeID,
			TagID:    tagID,
		})
	}

	ingredients := make([]entities.RecipeIngredient, 0, len(ingredientIDs))
	for i, ingredientID := range ingredientIDs {
		ingredients = append(ingredients, entities.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Amount:       req.Ingredients[i].Amount,
		})
	}

	return tags, ingredients
}

func (s *recipeService) uploadImage(ctx context.Context, recipeID uuid.UUID, image string) (string, error) {
	raw, ext, contentType, err := utils.DecodeBase64Image(image)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("recipes/images/%s.%s", recipeID, ext)
	return s.s3.Upload(ctx, key, raw, contentType)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error) {
	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	tagIDs, ingredientIDs, err := s.resolveLineItems(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if req.Image == "" {
		return domain.RecipeResponse{}, domain.ErrInvalidImage
	}

	taken, err := s.recipeRepository.CountByNameAndAuthor(ctx, req.Name, authorID, uuid.Nil)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if taken > 0 {
		return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
	}

	recipeID := uuid.New()
	imageURL, err := s.uploadImage(ctx, recipeID, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
	}
	tags, ingredients := buildLineItems(recipeID, tagIDs, req, ingredientIDs)

	if err := s.recipeRepository.CreateRecipe(ctx, &recipe, tags, ingredients); err != nil {
		// The pre-check can lose a race with a concurrent creator of the
		// same (name, author) pair.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeRequest, userID string) (domain.RecipeResponse, error) {
	existing, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	if existing.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeOwner
	}

	tagIDs, ingredientIDs, err := s.resolveLineItems(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	taken, err := s.recipeRepository.CountByNameAndAuthor(ctx, req.Name, existing.AuthorID, existing.ID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if taken > 0 {
		return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
	}

	imageURL := existing.ImageURL
	if req.Image != "" {
		imageURL, err = s.uploadImage(ctx, existing.ID, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	updated := entities.Recipe{
		ID:          existing.ID,
		AuthorID:    existing.AuthorID,
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
	}
	tags, ingredients := buildLineItems(existing.ID, tagIDs, req, ingredientIDs)

	if err := s.recipeRepository.UpdateRecipe(ctx, &updated, tags, ingredients); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID, userID string) error {
	existing, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	if existing.AuthorID.String() != userID {
		return domain.ErrNotRecipeOwner
	}
	return s.recipeRepository.DeleteRecipe(ctx, existing.ID)
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeListFilter, viewerID string) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID)
	if err != nil {
		return nil, 0, err
	}

	responses, err := s.annotate(ctx, recipes, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return responses, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	responses, err := s.annotate(ctx, []*entities.Recipe{recipe}, viewerID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return responses[0], nil
}

// annotate computes the viewer-relative fields for a batch of recipes: one
// membership query for favorites, one for the cart, one for followed authors.
// Anonymous viewers get all-false booleans with no relation queries at all.
func (s *recipeService) annotate(ctx context.Context, recipes []*entities.Recipe, viewerID string) ([]domain.RecipeResponse, error) {
	favorites := map[uuid.UUID]bool{}
	cart := map[uuid.UUID]bool{}
	following := map[uuid.UUID]bool{}

	if viewerID != "" && len(recipes) > 0 {
		ids := make([]uuid.UUID, 0, len(recipes))
		authorSeen := make(map[uuid.UUID]bool)
		authorIDs := make([]uuid.UUID, 0, len(recipes))
		for _, r := range recipes {
			ids = append(ids, r.ID)
			if !authorSeen[r.AuthorID] {
				authorSeen[r.AuthorID] = true
				authorIDs = append(authorIDs, r.AuthorID)
			}
		}

		var err error
		if favorites, err = s.recipeRepository.FavoriteIDSet(ctx, viewerID, ids); err != nil {
			return nil, err
		}
		if cart, err = s.recipeRepository.CartIDSet(ctx, viewerID, ids); err != nil {
			return nil, err
		}
		if following, err = s.userRepository.FollowingIDSet(ctx, viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	responses := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		responses = append(responses, recipeResponse(r, favorites[r.ID], cart[r.ID], following[r.AuthorID]))
	}
	return responses, nil
}

func recipeResponse(r *entities.Recipe, isFavorited, isInCart, authorFollowed bool) domain.RecipeResponse {
	tags := make([]domain.TagResponse, 0, len(r.Tags))
	for _, rt := range r.Tags {
		if rt.Tag == nil {
			continue
		}
		tags = append(tags, domain.TagResponse{
			ID:   rt.Tag.ID.String(),
			Name: rt.Tag.Name,
			Slug: rt.Tag.Slug,
		})
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		if ri.Ingredient == nil {
			continue
		}
		ingredients = append(ingredients, domain.RecipeIngredientResponse{
			ID:              ri.Ingredient.ID.String(),
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	author := domain.UserResponse{ID: r.AuthorID.String(), IsSubscribed: authorFollowed}
	if r.Author != nil {
		author = domain.UserResponse{
			ID:           r.Author.ID.String(),
			Email:        r.Author.Email,
			Username:     r.Author.Username,
			FirstName:    r.Author.FirstName,
			LastName:     r.Author.LastName,
			IsSubscribed: authorFollowed,
			Avatar:       r.Author.AvatarURL,
		}
	}

	return domain.RecipeResponse{
		ID:               r.ID.String(),
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		Name:             r.Name,
		Image:            r.ImageURL,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		CreatedAt:        r.CreatedAt,
	}
}

func (s *recipeService) relationTarget(ctx context.Context, recipeID, userID string) (*entities.Recipe, uuid.UUID, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, domain.ErrRecipeNotFound
		}
		return nil, uuid.Nil, err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, uuid.Nil, domain.ErrParseUUID
	}
	return recipe, userUUID, nil
}

func shortResponse(r *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Image:       r.ImageURL,
		CookingTime: r.CookingTime,
	}
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, userUUID, err := s.relationTarget(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	favorite := entities.Favorite{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipe.ID,
	}
	if err := s.recipeRepository.AddFavorite(ctx, &favorite); err != nil {
		return domain.RecipeShortResponse{}, err
	}
	return shortResponse(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID, userID string) error {
	recipe, userUUID, err := s.relationTarget(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	return s.recipeRepository.RemoveFavorite(ctx, userUUID, recipe.ID)
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID, userID string) (domain.RecipeShortResponse, error) {
	recipe, userUUID, err := s.relationTarget(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}

	item := entities.ShoppingCartItem{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipe.ID,
	}
	if err := s.recipeRepository.AddToCart(ctx, &item); err != nil {
		return domain.RecipeShortResponse{}, err
	}
	return shortResponse(recipe), nil
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID, userID string) error {
	recipe, userUUID, err := s.relationTarget(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	return s.recipeRepository.RemoveFromCart(ctx, userUUID, recipe.ID)
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) ([]byte, error) {
	rows, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Shopping list:\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%s: %d%s | Purchased: [ ]\n", row.Name, row.Total, row.MeasurementUnit)
	}
	return []byte(b.String()), nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID string) (domain.ShortLinkResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortLinkResponse{}, domain.ErrRecipeNotFound
		}
		return domain.ShortLinkResponse{}, err
	}

	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", s.appURL, recipe.ShortURL),
	}, nil
}

func (s *recipeService) ResolveShortLink(ctx context.Context, code string) (string, error) {
	recipe, err := s.recipeRepository.GetRecipeByShortURL(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrShortLinkNotFound
		}
		return "", err
	}
	return recipe.ID.String(), nil
}
