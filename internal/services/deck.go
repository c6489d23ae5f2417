package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

// ProductView is the API shape of one deck entry. Images maps each
// angle to the composite view URL, or null while the view is not ready.
type ProductView struct {
	ProductID   uuid.UUID          `json:"product_id"`
	Position    int                `json:"position"`
	Title       string             `json:"title"`
	Price       string             `json:"price"`
	OldPrice    string             `json:"old_price,omitempty"`
	ProductLink string             `json:"product_link"`
	Thumbnail   string             `json:"thumbnail"`
	Source      string             `json:"source"`
	SourceIcon  string             `json:"source_icon,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
	Reviews     *int               `json:"reviews,omitempty"`
	Snippet     string             `json:"snippet,omitempty"`
	Delivery    string             `json:"delivery,omitempty"`
	Tag         string             `json:"tag,omitempty"`
	ProductType string             `json:"product_type"`
	Images      map[string]*string `json:"images"`
}

// DeckService owns deck assembly and presentation. Each preference
// submission produces a fresh generation; older generations stay in the
// table but are never served again.
type DeckService interface {
	Assemble(ctx context.Context, user *types.User, pref *types.Preference) ([]ProductView, error)
	Current(ctx context.Context, user *types.User) ([]ProductView, error)
}

type deckService struct {
	db               *gorm.DB
	log              *logger.Logger
	sourcingService  SourcingService
	enrichment       EnrichmentService
	bucketService    BucketService
	productRepo      repos.ProductRepo
	productImageRepo repos.ProductImageRepo
	sessionRepo      repos.SwipeSessionRepo
	swipeRepo        repos.SwipeRepo
}

func NewDeckService(
	db *gorm.DB,
	log *logger.Logger,
	sourcingService SourcingService,
	enrichment EnrichmentService,
	bucketService BucketService,
	productRepo repos.ProductRepo,
	productImageRepo repos.ProductImageRepo,
	sessionRepo repos.SwipeSessionRepo,
	swipeRepo repos.SwipeRepo,
) DeckService {
	return &deckService{
		db:               db,
		log:              log.With("service", "DeckService"),
		sourcingService:  sourcingService,
		enrichment:       enrichment,
		bucketService:    bucketService,
		productRepo:      productRepo,
		productImageRepo: productImageRepo,
		sessionRepo:      sessionRepo,
		swipeRepo:        swipeRepo,
	}
}

func (ds *deckService) Assemble(ctx context.Context, user *types.User, pref *types.Preference) ([]ProductView, error) {
	maxGen, err := ds.productRepo.MaxGeneration(ctx, nil, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck generation: %w", err)
	}
	generation := maxGen + 1

	products, err := ds.sourcingService.Fetch(ctx, user, pref)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		p.Generation = generation
	}

	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(products) > 0 {
			if _, err := ds.productRepo.Create(ctx, tx, products); err != nil {
				return fmt.Errorf("failed to persist deck: %w", err)
			}
		}
		session, err := ds.sessionRepo.GetByUserID(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		if session == nil {
			_, err = ds.sessionRepo.Create(ctx, tx, &types.SwipeSession{
				ID:         uuid.New(),
				UserID:     user.ID,
				Generation: generation,
			})
			return err
		}
		if err := ds.sessionRepo.UpdateFields(ctx, tx, session.ID, map[string]any{
			"generation": generation,
			"position":   0,
		}); err != nil {
			return err
		}
		return ds.swipeRepo.DeleteByUserID(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	ds.log.Info("Assembled deck",
		"user_id", user.ID.String(), "generation", generation, "count", len(products))

	ds.enrichment.EnqueueDeck(user, products)

	return ds.views(ctx, products)
}

func (ds *deckService) Current(ctx context.Context, user *types.User) ([]ProductView, error) {
	session, err := ds.sessionRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		return nil, err
	}
	generation := 0
	if session != nil {
		generation = session.Generation
	} else {
		generation, err = ds.productRepo.MaxGeneration(ctx, nil, user.ID)
		if err != nil {
			return nil, err
		}
	}
	products, err := ds.productRepo.GetDeck(ctx, nil, user.ID, generation)
	if err != nil {
		return nil, err
	}
	return ds.views(ctx, products)
}

func (ds *deckService) views(ctx context.Context, products []*types.Product) ([]ProductView, error) {
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	images, err := ds.productImageRepo.GetByProductIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	ready := make(map[uuid.UUID]map[string]string, len(products))
	for _, img := range images {
		if img.Status != types.ProductImageReady || img.BucketKey == "" {
			continue
		}
		if ready[img.ProductID] == nil {
			ready[img.ProductID] = make(map[string]string, len(types.Angles))
		}
		ready[img.ProductID][img.Angle] = img.BucketKey
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		imageURLs := make(map[string]*string, len(types.Angles))
		for _, angle := range types.Angles {
			if key, ok := ready[p.ID][angle]; ok {
				url := ds.bucketService.GetPublicURL(key)
				imageURLs[angle] = &url
			} else {
				imageURLs[angle] = nil
			}
		}
		thumbnail := p.Thumbnail
		if p.SourceImageKey != "" {
			thumbnail = ds.bucketService.GetPublicURL(p.SourceImageKey)
		}
		views = append(views, ProductView{
			ProductID:   p.ID,
			Position:    p.Position,
			Title:       p.Title,
			Price:       p.Price,
			OldPrice:    p.OldPrice,
			ProductLink: p.ProductLink,
			Thumbnail:   thumbnail,
			Source:      p.Source,
			SourceIcon:  p.SourceIcon,
			Rating:      p.Rating,
			Reviews:     p.Reviews,
			Snippet:     p.Snippet,
			Delivery:    p.Delivery,
			Tag:         p.Tag,
			ProductType: p.ProductType,
			Images:      imageURLs,
		})
	}
	return views, nil
}
