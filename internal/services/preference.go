package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

// PreferenceInput is the parsed preference submission.
type PreferenceInput struct {
	Gender        string   `json:"gender"`
	Size          string   `json:"size"`
	Styles        []string `json:"styles"`
	ClothingTypes []string `json:"clothing_types"`
	Budget        string   `json:"budget"`
	Colors        string   `json:"colors"`
	Notes         string   `json:"notes"`
}

type PreferenceService interface {
	Save(ctx context.Context, user *types.User, input PreferenceInput) (*types.Preference, error)
	Get(ctx context.Context, user *types.User) (*types.Preference, error)
}

type preferenceService struct {
	log            *logger.Logger
	preferenceRepo repos.PreferenceRepo
}

func NewPreferenceService(log *logger.Logger, preferenceRepo repos.PreferenceRepo) PreferenceService {
	return &preferenceService{
		log:            log.With("service", "PreferenceService"),
		preferenceRepo: preferenceRepo,
	}
}

func (ps *preferenceService) Save(ctx context.Context, user *types.User, input PreferenceInput) (*types.Preference, error) {
	styles, err := json.Marshal(input.Styles)
	if err != nil {
		return nil, fmt.Errorf("failed to encode styles: %w", err)
	}
	clothingTypes, err := json.Marshal(input.ClothingTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode clothing types: %w", err)
	}

	pref := &types.Preference{
		ID:            uuid.New(),
		UserID:        user.ID,
		Gender:        input.Gender,
		Size:          input.Size,
		Styles:        datatypes.JSON(styles),
		ClothingTypes: datatypes.JSON(clothingTypes),
		Budget:        input.Budget,
		Colors:        input.Colors,
		Notes:         input.Notes,
	}
	saved, err := ps.preferenceRepo.Upsert(ctx, nil, pref)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return saved, nil
}

func (ps *preferenceService) Get(ctx context.Context, user *types.User) (*types.Preference, error) {
	return ps.preferenceRepo.GetByUserID(ctx, nil, user.ID)
}
