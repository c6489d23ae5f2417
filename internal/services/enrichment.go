package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/observability"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

const (
	compositeWidth   = 1080
	compositeHeight  = 1920
	compositeQuality = 95
)

// EnrichmentService generates the composite try-on views for a deck in
// the background. Work is keyed per (product, angle) and is idempotent:
// re-enqueueing a deck only fills in views that are not ready yet.
type EnrichmentService interface {
	EnqueueDeck(user *types.User, products []*types.Product)
}

type enrichmentService struct {
	log              *logger.Logger
	photoService     PhotoService
	bucketService    BucketService
	imageGenClient   ImageGenClient
	productImageRepo repos.ProductImageRepo
	concurrency      int
	callTimeout      time.Duration
}

func NewEnrichmentService(
	log *logger.Logger,
	photoService PhotoService,
	bucketService BucketService,
	imageGenClient ImageGenClient,
	productImageRepo repos.ProductImageRepo,
	concurrency int,
	callTimeout time.Duration,
) EnrichmentService {
	if concurrency <= 0 {
		concurrency = 3
	}
	if callTimeout <= 0 {
		callTimeout = 2 * time.Minute
	}
	return &enrichmentService{
		log:              log.With("service", "EnrichmentService"),
		photoService:     photoService,
		bucketService:    bucketService,
		imageGenClient:   imageGenClient,
		productImageRepo: productImageRepo,
		concurrency:      concurrency,
		callTimeout:      callTimeout,
	}
}

func (es *enrichmentService) EnqueueDeck(user *types.User, products []*types.Product) {
	if es.imageGenClient == nil {
		es.log.Warn("Image generation client not configured, skipping enrichment",
			"user_id", user.ID.String())
		return
	}
	if len(products) == 0 {
		return
	}

	go func() {
		ctx := context.Background()
		start := time.Now()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(es.concurrency)
		for _, product := range products {
			for _, angle := range types.Angles {
				product := product
				angle := angle
				g.Go(func() error {
					es.enrichOne(gctx, user, product, angle)
					return nil
				})
			}
		}
		_ = g.Wait()

		es.log.Info("Deck enrichment finished",
			"user_id", user.ID.String(),
			"products", len(products),
			"elapsed", time.Since(start).String())
	}()
}

// enrichOne fills in a single (product, angle) view. All failures are
// recorded on the row; none abort the rest of the deck.
func (es *enrichmentService) enrichOne(ctx context.Context, user *types.User, product *types.Product, angle string) {
	row, err := es.ensureRow(ctx, product.ID, angle)
	if err != nil {
		es.log.Warn("Failed to load image row",
			"product_id", product.ID.String(), "angle", angle, "error", err.Error())
		return
	}
	if row.Status == types.ProductImageReady {
		return
	}

	key, err := es.generate(ctx, user, product, angle)
	if err != nil {
		observability.Current().IncViewGeneration("failed")
		es.log.Warn("View generation failed",
			"product_id", product.ID.String(), "angle", angle, "error", err.Error())
		if uErr := es.productImageRepo.UpdateFields(ctx, nil, row.ID, map[string]any{
			"status": types.ProductImageFailed,
			"error":  err.Error(),
		}); uErr != nil {
			es.log.Error("Failed to mark view failed",
				"product_id", product.ID.String(), "angle", angle, "error", uErr.Error())
		}
		return
	}

	if err := es.productImageRepo.UpdateFields(ctx, nil, row.ID, map[string]any{
		"status":     types.ProductImageReady,
		"bucket_key": key,
		"error":      "",
	}); err != nil {
		es.log.Error("Failed to mark view ready",
			"product_id", product.ID.String(), "angle", angle, "error", err.Error())
		return
	}
	observability.Current().IncViewGeneration("ready")
}

func (es *enrichmentService) ensureRow(ctx context.Context, productID uuid.UUID, angle string) (*types.ProductImage, error) {
	existing, err := es.productImageRepo.GetByProductAndAngle(ctx, nil, productID, angle)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	row := &types.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		Angle:     angle,
		Status:    types.ProductImagePending,
	}
	if _, err := es.productImageRepo.Create(ctx, nil, []*types.ProductImage{row}); err != nil {
		// A concurrent worker may have inserted the row first.
		existing, getErr := es.productImageRepo.GetByProductAndAngle(ctx, nil, productID, angle)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return row, nil
}

func (es *enrichmentService) generate(ctx context.Context, user *types.User, product *types.Product, angle string) (string, error) {
	personImage, err := es.photoService.GetReferencePhoto(ctx, user, angle)
	if err != nil {
		return "", fmt.Errorf("reference photo: %w", err)
	}

	productImage, err := es.productImageBytes(ctx, product)
	if err != nil {
		return "", fmt.Errorf("product image: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, es.callTimeout)
	defer cancel()
	raw, err := es.imageGenClient.GenerateTryOn(callCtx, personImage, productImage, angle)
	if err != nil {
		return "", err
	}

	img, err := decodeImage(raw)
	if err != nil {
		return "", fmt.Errorf("decode generated image: %w", err)
	}
	data, err := encodeJPEG(portraitFrame(img, compositeWidth, compositeHeight), compositeQuality)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/combined_images/product_%d_%s.jpg", user.UserFolder, product.Position+1, angle)
	if err := es.bucketService.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload composite: %w", err)
	}
	return key, nil
}

func (es *enrichmentService) productImageBytes(ctx context.Context, product *types.Product) ([]byte, error) {
	if product.SourceImageKey != "" {
		return es.bucketService.DownloadFile(ctx, product.SourceImageKey)
	}
	if product.Thumbnail == "" {
		return nil, fmt.Errorf("product has no image")
	}
	return httpGetWithUA(ctx, product.Thumbnail)
}
