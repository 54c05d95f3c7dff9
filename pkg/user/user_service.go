package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/domain"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/entities"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/internal/utils"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/internal/utils/storage"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/pkg/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		GetUsers(ctx context.Context, viewerID string, limit, offset int) ([]domain.UserResponse, int64, error)
		GetUserDetail(ctx context.Context, id, viewerID string) (domain.UserResponse, error)
		UpdateAvatar(ctx context.Context, userID string, req domain.AvatarRequest) (string, error)
		DeleteAvatar(ctx context.Context, userID string) error
		Subscribe(ctx context.Context, userID, targetID string, recipesLimit int) (domain.UserWithRecipes, error)
		Unsubscribe(ctx context.Context, userID, targetID string) error
		GetSubscriptions(ctx context.Context, userID string, limit, offset, recipesLimit int) ([]domain.UserWithRecipes, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		s3             storage.Storage
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, s3 storage.Storage) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		s3:             s3,
	}
}

func userResponse(user *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       user.AvatarURL,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.UserResponse{}, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.UserResponse{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user := entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}

	if err := s.userRepository.CreateUser(ctx, &user); err != nil {
		// Races the pre-checks: the unique index has the final word.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrEmailAlreadyExists
		}
		return domain.UserResponse{}, err
	}

	return userResponse(&user, false), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	return domain.LoginResponse{
		Token: s.jwtService.GenerateTokenUser(user.ID.String()),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return userResponse(user, false), nil
}

func (s *userService) GetUsers(ctx context.Context, viewerID string, limit, offset int) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	following, err := s.followingSet(ctx, viewerID, users)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, userResponse(u, following[u.ID]))
	}
	return result, count, nil
}

func (s *userService) GetUserDetail(ctx context.Context, id, viewerID string) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}

	following, err := s.followingSet(ctx, viewerID, []*entities.User{user})
	if err != nil {
		return domain.UserResponse{}, err
	}

	return userResponse(user, following[user.ID]), nil
}

// followingSet resolves viewer follow membership for a batch of users in one
// query. An anonymous viewer short-circuits: everything false, no query.
func (s *userService) followingSet(ctx context.Context, viewerID string, users []*entities.User) (map[uuid.UUID]bool, error) {
	if viewerID == "" || len(users) == 0 {
		return map[uuid.UUID]bool{}, nil
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return s.userRepository.FollowingIDSet(ctx, viewerID, ids)
}

func (s *userService) UpdateAvatar(ctx context.Context, userID string, req domain.AvatarRequest) (string, error) {
	if _, err := s.userRepository.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}

	raw, ext, contentType, err := utils.DecodeBase64Image(req.Avatar)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("users/images/%s.%s", userID, ext)
	url, err := s.s3.Upload(ctx, key, raw, contentType)
	if err != nil {
		return "", err
	}

	if err := s.userRepository.UpdateAvatar(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return s.userRepository.UpdateAvatar(ctx, userID, "")
}

func (s *userService) Subscribe(ctx context.Context, userID, targetID string, recipesLimit int) (domain.UserWithRecipes, error) {
	if userID == targetID {
		return domain.UserWithRecipes{}, domain.ErrSelfSubscribe
	}

	target, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserWithRecipes{}, domain.ErrUserNotFound
		}
		return domain.UserWithRecipes{}, err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.UserWithRecipes{}, domain.ErrParseUUID
	}

	follow := entities.Follow{
		ID:          uuid.New(),
		UserID:      userUUID,
		FollowingID: target.ID,
	}
	if err := s.userRepository.Subscribe(ctx, &follow); err != nil {
		return domain.UserWithRecipes{}, err
	}

	counts, err := s.userRepository.RecipeCountsByAuthor(ctx, []uuid.UUID{target.ID})
	if err != nil {
		return domain.UserWithRecipes{}, err
	}

	return s.userWithRecipes(ctx, target, true, recipesLimit, counts[target.ID])
}

func (s *userService) Unsubscribe(ctx context.Context, userID, targetID string) error {
	target, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	return s.userRepository.Unsubscribe(ctx, userUUID, target.ID)
}

func (s *userService) GetSubscriptions(ctx context.Context, userID string, limit, offset, recipesLimit int) ([]domain.UserWithRecipes, int64, error) {
	users, count, err := s.userRepository.GetFollowedUsers(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts := map[uuid.UUID]int64{}
	if len(ids) > 0 {
		counts, err = s.userRepository.RecipeCountsByAuthor(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
	}

	result := make([]domain.UserWithRecipes, 0, len(users))
	for _, u := range users {
		// Rows come from the viewer's own follow set, so is_subscribed is
		// true by construction.
		item, err := s.userWithRecipes(ctx, u, true, recipesLimit, counts[u.ID])
		if err != nil {
			return nil, 0, err
		}
		result = append(result, item)
	}
	return result, count, nil
}

func (s *userService) userWithRecipes(ctx context.Context, user *entities.User, isSubscribed bool, recipesLimit int, recipesCount int64) (domain.UserWithRecipes, error) {
	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, user.ID, recipesLimit)
	if err != nil {
		return domain.UserWithRecipes{}, err
	}

	short := make([]domain.RecipeShortResponse, 0, len(recipes))
	for _, r := range recipes {
		short = append(short, domain.RecipeShortResponse{
			ID:          r.ID.String(),
			Name:        r.Name,
			Image:       r.ImageURL,
			CookingTime: r.CookingTime,
		})
	}

	return domain.UserWithRecipes{
		UserResponse: userResponse(user, isSubscribed),
		Recipes:      short,
		RecipesCount: recipesCount,
	}, nil
}
