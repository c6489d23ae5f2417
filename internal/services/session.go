package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

var (
	// ErrUnknownProduct means the swiped product is not part of the
	// user's current deck at all.
	ErrUnknownProduct = errors.New("product not in current deck")
	// ErrCursorMismatch means the swiped product is in the deck but is
	// not the card the cursor points at.
	ErrCursorMismatch = errors.New("swipe does not match current position")
	// ErrSessionComplete means every card in the deck has been decided.
	ErrSessionComplete = errors.New("session already complete")
)

// SwipeStatus is the externally visible session state. Completion is
// derived from the cursor, never stored.
type SwipeStatus struct {
	Position      int  `json:"position"`
	Total         int  `json:"total"`
	Completed     bool `json:"completed"`
	LikedCount    int  `json:"liked_count"`
	DislikedCount int  `json:"disliked_count"`
	Remaining     int  `json:"remaining"`
}

// SwipeResult reports the outcome of one swipe submission.
type SwipeResult struct {
	Duplicate bool        `json:"duplicate"`
	Status    SwipeStatus `json:"status"`
}

// SessionService drives the swipe cursor. All swipe mutations for one
// user are serialized through a per-user lock, so concurrent submissions
// resolve to exactly one accepted decision per card.
type SessionService interface {
	Status(ctx context.Context, user *types.User) (SwipeStatus, error)
	Swipe(ctx context.Context, user *types.User, productID uuid.UUID, liked bool) (*SwipeResult, error)
	Next(ctx context.Context, user *types.User) (*ProductView, SwipeStatus, error)
	Liked(ctx context.Context, user *types.User) ([]ProductView, error)
	Reset(ctx context.Context, user *types.User) (SwipeStatus, error)
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	deckService DeckService
	engagement  EngagementService
	productRepo repos.ProductRepo
	sessionRepo repos.SwipeSessionRepo
	swipeRepo   repos.SwipeRepo

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	deckService DeckService,
	engagement EngagementService,
	productRepo repos.ProductRepo,
	sessionRepo repos.SwipeSessionRepo,
	swipeRepo repos.SwipeRepo,
) SessionService {
	return &sessionService{
		db:          db,
		log:         log.With("service", "SessionService"),
		deckService: deckService,
		engagement:  engagement,
		productRepo: productRepo,
		sessionRepo: sessionRepo,
		swipeRepo:   swipeRepo,
	}
}

func (ss *sessionService) userLock(userID uuid.UUID) *sync.Mutex {
	v, _ := ss.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (ss *sessionService) ensureSession(ctx context.Context, user *types.User) (*types.SwipeSession, error) {
	session, err := ss.sessionRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}
	generation, err := ss.productRepo.MaxGeneration(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}
	return ss.sessionRepo.Create(ctx, nil, &types.SwipeSession{
		ID:         uuid.New(),
		UserID:     user.ID,
		Generation: generation,
	})
}

func (ss *sessionService) status(ctx context.Context, user *types.User, session *types.SwipeSession, total int) (SwipeStatus, error) {
	liked, err := ss.swipeRepo.CountByLiked(ctx, nil, user.ID, true)
	if err != nil {
		return SwipeStatus{}, err
	}
	disliked, err := ss.swipeRepo.CountByLiked(ctx, nil, user.ID, false)
	if err != nil {
		return SwipeStatus{}, err
	}
	remaining := total - session.Position
	if remaining < 0 {
		remaining = 0
	}
	return SwipeStatus{
		Position:      session.Position,
		Total:         total,
		Completed:     session.Position >= total,
		LikedCount:    int(liked),
		DislikedCount: int(disliked),
		Remaining:     remaining,
	}, nil
}

func (ss *sessionService) Status(ctx context.Context, user *types.User) (SwipeStatus, error) {
	session, err := ss.ensureSession(ctx, user)
	if err != nil {
		return SwipeStatus{}, err
	}
	deck, err := ss.productRepo.GetDeck(ctx, nil, user.ID, session.Generation)
	if err != nil {
		return SwipeStatus{}, err
	}
	return ss.status(ctx, user, session, len(deck))
}

func (ss *sessionService) Swipe(ctx context.Context, user *types.User, productID uuid.UUID, liked bool) (*SwipeResult, error) {
	mu := ss.userLock(user.ID)
	mu.Lock()
	defer mu.Unlock()

	session, err := ss.ensureSession(ctx, user)
	if err != nil {
		return nil, err
	}
	deck, err := ss.productRepo.GetDeck(ctx, nil, user.ID, session.Generation)
	if err != nil {
		return nil, err
	}
	total := len(deck)
	pos := session.Position

	// Retransmission of the decision that just advanced the cursor.
	if pos > 0 && deck[pos-1].ID == productID {
		status, err := ss.status(ctx, user, session, total)
		if err != nil {
			return nil, err
		}
		return &SwipeResult{Duplicate: true, Status: status}, nil
	}

	if pos >= total {
		return nil, ErrSessionComplete
	}
	if deck[pos].ID != productID {
		for _, p := range deck {
			if p.ID == productID {
				return nil, ErrCursorMismatch
			}
		}
		return nil, ErrUnknownProduct
	}

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.swipeRepo.Create(ctx, tx, []*types.Swipe{{
			ID:        uuid.New(),
			UserID:    user.ID,
			ProductID: productID,
			Liked:     liked,
			Position:  pos,
		}}); err != nil {
			return err
		}
		advanced, err := ss.sessionRepo.AdvancePosition(ctx, tx, session.ID, pos)
		if err != nil {
			return err
		}
		if !advanced {
			return fmt.Errorf("session cursor moved concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	session.Position = pos + 1

	ss.engagement.RecordSwipe(ctx, user.ID, productID, liked)

	status, err := ss.status(ctx, user, session, total)
	if err != nil {
		return nil, err
	}
	ss.log.Info("Recorded swipe",
		"user_id", user.ID.String(), "position", pos, "liked", liked)
	return &SwipeResult{Status: status}, nil
}

func (ss *sessionService) Next(ctx context.Context, user *types.User) (*ProductView, SwipeStatus, error) {
	session, err := ss.ensureSession(ctx, user)
	if err != nil {
		return nil, SwipeStatus{}, err
	}
	views, err := ss.deckService.Current(ctx, user)
	if err != nil {
		return nil, SwipeStatus{}, err
	}
	status, err := ss.status(ctx, user, session, len(views))
	if err != nil {
		return nil, SwipeStatus{}, err
	}
	if status.Completed {
		return nil, status, nil
	}
	view := views[session.Position]
	return &view, status, nil
}

func (ss *sessionService) Liked(ctx context.Context, user *types.User) ([]ProductView, error) {
	swipes, err := ss.swipeRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}
	views, err := ss.deckService.Current(ctx, user)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]ProductView, len(views))
	for _, v := range views {
		byID[v.ProductID] = v
	}
	liked := make([]ProductView, 0, len(swipes))
	for _, s := range swipes {
		if !s.Liked {
			continue
		}
		if v, ok := byID[s.ProductID]; ok {
			liked = append(liked, v)
		}
	}
	return liked, nil
}

func (ss *sessionService) Reset(ctx context.Context, user *types.User) (SwipeStatus, error) {
	mu := ss.userLock(user.ID)
	mu.Lock()
	defer mu.Unlock()

	session, err := ss.ensureSession(ctx, user)
	if err != nil {
		return SwipeStatus{}, err
	}
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.sessionRepo.UpdateFields(ctx, tx, session.ID, map[string]any{"position": 0}); err != nil {
			return err
		}
		return ss.swipeRepo.DeleteByUserID(ctx, tx, user.ID)
	})
	if err != nil {
		return SwipeStatus{}, err
	}
	session.Position = 0

	deck, err := ss.productRepo.GetDeck(ctx, nil, user.ID, session.Generation)
	if err != nil {
		return SwipeStatus{}, err
	}
	ss.log.Info("Reset swipe session", "user_id", user.ID.String())
	return ss.status(ctx, user, session, len(deck))
}
