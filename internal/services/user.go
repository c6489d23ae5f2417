package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

type UserService interface {
	GetByFolder(ctx context.Context, userFolder string) (*types.User, error)
	GetOrCreateByFolder(ctx context.Context, userFolder string) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetByFolder(ctx context.Context, userFolder string) (*types.User, error) {
	folder := strings.TrimSpace(userFolder)
	if folder == "" {
		return nil, fmt.Errorf("user folder is empty")
	}
	return us.userRepo.GetByUserFolder(ctx, nil, folder)
}

func (us *userService) GetOrCreateByFolder(ctx context.Context, userFolder string) (*types.User, error) {
	folder := strings.TrimSpace(userFolder)
	if folder == "" {
		return nil, fmt.Errorf("user folder is empty")
	}
	existing, err := us.userRepo.GetByUserFolder(ctx, nil, folder)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	user := &types.User{ID: uuid.New(), UserFolder: folder}
	created, err := us.userRepo.Create(ctx, nil, []*types.User{user})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	us.log.Info("Created user", "user_id", user.ID.String())
	return created[0], nil
}
