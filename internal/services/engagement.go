package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

// EngagementService appends the analytics event stream. Events are
// derived data: a failed append never rolls back the state change that
// produced it.
type EngagementService interface {
	RecordSwipe(ctx context.Context, userID uuid.UUID, productID uuid.UUID, liked bool)
	RecordClick(ctx context.Context, userID *uuid.UUID, productID uuid.UUID, referrer string) (*types.EngagementEvent, error)
}

type engagementService struct {
	log       *logger.Logger
	eventRepo repos.EngagementEventRepo
}

func NewEngagementService(log *logger.Logger, eventRepo repos.EngagementEventRepo) EngagementService {
	return &engagementService{
		log:       log.With("service", "EngagementService"),
		eventRepo: eventRepo,
	}
}

func (es *engagementService) RecordSwipe(ctx context.Context, userID uuid.UUID, productID uuid.UUID, liked bool) {
	uid := userID
	event := &types.EngagementEvent{
		ID:        uuid.New(),
		UserID:    &uid,
		ProductID: productID,
		Type:      types.EngagementSwipe,
		Liked:     &liked,
	}
	if _, err := es.eventRepo.Create(ctx, nil, []*types.EngagementEvent{event}); err != nil {
		es.log.Warn("Failed to record swipe event",
			"user_id", userID.String(), "error", err.Error())
	}
}

func (es *engagementService) RecordClick(ctx context.Context, userID *uuid.UUID, productID uuid.UUID, referrer string) (*types.EngagementEvent, error) {
	event := &types.EngagementEvent{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Type:      types.EngagementClick,
		Referrer:  referrer,
	}
	created, err := es.eventRepo.Create(ctx, nil, []*types.EngagementEvent{event})
	if err != nil {
		return nil, fmt.Errorf("failed to record click: %w", err)
	}
	return created[0], nil
}
