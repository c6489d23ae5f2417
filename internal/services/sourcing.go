package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/observability"
	"github.com/styleswipe/backend/internal/types"
)

const (
	productImageMaxSide = 512
	productImageQuality = 85

	downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// SourcingService turns a saved preference profile into an ordered list
// of candidate products. Provider failures are absorbed: callers get an
// empty deck, never an error they must branch on.
type SourcingService interface {
	Fetch(ctx context.Context, user *types.User, pref *types.Preference) ([]*types.Product, error)
}

type sourcingService struct {
	log           *logger.Logger
	searchClient  SearchClient
	bucketService BucketService
	placeholder   PlaceholderService
	taxonomy      *Taxonomy
	numResults    int
}

func NewSourcingService(
	log *logger.Logger,
	searchClient SearchClient,
	bucketService BucketService,
	placeholder PlaceholderService,
	taxonomy *Taxonomy,
	numResults int,
) SourcingService {
	if numResults <= 0 {
		numResults = 5
	}
	return &sourcingService{
		log:           log.With("service", "SourcingService"),
		searchClient:  searchClient,
		bucketService: bucketService,
		placeholder:   placeholder,
		taxonomy:      taxonomy,
		numResults:    numResults,
	}
}

func (ss *sourcingService) Fetch(ctx context.Context, user *types.User, pref *types.Preference) ([]*types.Product, error) {
	query := ss.buildQuery(pref)
	if query == "" {
		ss.log.Warn("Preferences produced an empty query", "user_id", user.ID.String())
		return []*types.Product{}, nil
	}
	if ss.searchClient == nil {
		ss.log.Warn("Search client not configured, returning empty deck")
		return []*types.Product{}, nil
	}

	ss.log.Info("Searching shopping results", "user_id", user.ID.String(), "query", query)

	// Over-fetch to leave room for filtering.
	results, err := ss.searchClient.SearchShopping(ctx, query, ss.numResults*2)
	if err != nil {
		observability.Current().IncSearchRequest("error")
		ss.log.Warn("Shopping search failed, returning empty deck",
			"user_id", user.ID.String(), "error", err.Error())
		return []*types.Product{}, nil
	}
	observability.Current().IncSearchRequest("ok")

	productType := firstClothingType(pref)

	products := make([]*types.Product, 0, ss.numResults)
	for _, item := range results {
		if len(products) >= ss.numResults {
			break
		}
		title := strings.TrimSpace(item.Title)
		thumbnail := strings.TrimSpace(item.Thumbnail)
		if title == "" && thumbnail == "" {
			continue
		}

		price := strings.TrimSpace(item.Price)
		if price == "" && item.ExtractedPrice != nil {
			price = fmt.Sprintf("£%g", *item.ExtractedPrice)
		}

		position := len(products)
		product := &types.Product{
			ID:              uuid.New(),
			UserID:          user.ID,
			Position:        position,
			SourceProductID: item.ProductID,
			Title:           title,
			Price:           price,
			ExtractedPrice:  item.ExtractedPrice,
			OldPrice:        item.OldPrice,
			ProductLink:     item.ProductLink,
			Thumbnail:       thumbnail,
			Source:          item.Source,
			SourceIcon:      item.SourceIcon,
			Rating:          item.Rating,
			Reviews:         item.Reviews,
			Snippet:         item.Snippet,
			Delivery:        item.Delivery,
			Tag:             item.Tag,
			ProductType:     productType,
		}
		product.SourceImageKey = ss.cacheCatalogImage(ctx, user, product, position)
		products = append(products, product)
	}

	ss.log.Info("Assembled candidate products",
		"user_id", user.ID.String(), "count", len(products))
	return products, nil
}

// cacheCatalogImage stores a bounded copy of the listing thumbnail in
// the bucket, falling back to a rendered placeholder card. Failures are
// logged and leave the key empty; the provider thumbnail URL still
// serves as a last resort.
func (ss *sourcingService) cacheCatalogImage(ctx context.Context, user *types.User, product *types.Product, position int) string {
	if ss.bucketService == nil {
		return ""
	}
	key := fmt.Sprintf("%s/products/product_%d.jpg", user.UserFolder, position+1)

	if product.Thumbnail != "" {
		if err := ss.cacheThumbnail(ctx, key, product.Thumbnail); err != nil {
			ss.log.Warn("Failed to cache product thumbnail",
				"user_id", user.ID.String(), "position", position, "error", err.Error())
		} else {
			return key
		}
	}

	if ss.placeholder == nil {
		return ""
	}
	card, err := ss.placeholder.RenderCard(product.Title, product.Source)
	if err != nil {
		ss.log.Warn("Failed to render placeholder card",
			"user_id", user.ID.String(), "position", position, "error", err.Error())
		return ""
	}
	cardKey := fmt.Sprintf("%s/products/product_%d.png", user.UserFolder, position+1)
	if err := ss.bucketService.UploadFile(ctx, cardKey, bytes.NewReader(card)); err != nil {
		ss.log.Warn("Failed to upload placeholder card",
			"user_id", user.ID.String(), "position", position, "error", err.Error())
		return ""
	}
	return cardKey
}

func (ss *sourcingService) cacheThumbnail(ctx context.Context, key string, imageURL string) error {
	raw, err := httpGetWithUA(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	img, err := decodeImage(raw)
	if err != nil {
		return err
	}
	data, err := encodeJPEG(scaleDown(img, productImageMaxSide), productImageQuality)
	if err != nil {
		return err
	}
	if err := ss.bucketService.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

var imageHTTPClient = &http.Client{Timeout: 15 * time.Second}

func httpGetWithUA(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", downloadUserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")

	resp, err := imageHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (ss *sourcingService) buildQuery(pref *types.Preference) string {
	if pref == nil {
		return ""
	}
	parts := []string{}
	if g := strings.TrimSpace(pref.Gender); g != "" {
		parts = append(parts, g)
	}
	for _, s := range decodeStringList(pref.Styles) {
		parts = append(parts, ss.taxonomy.StyleKeyword(s))
	}
	for _, ct := range decodeStringList(pref.ClothingTypes) {
		parts = append(parts, ss.taxonomy.ClothingKeyword(ct))
	}
	if c := strings.TrimSpace(pref.Colors); c != "" {
		parts = append(parts, c)
	}
	if sz := strings.TrimSpace(pref.Size); sz != "" {
		parts = append(parts, "size "+sz)
	}
	return strings.Join(parts, " ")
}

func firstClothingType(pref *types.Preference) string {
	if pref == nil {
		return ""
	}
	list := decodeStringList(pref.ClothingTypes)
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	clean := out[:0]
	for _, v := range out {
		if strings.TrimSpace(v) != "" {
			clean = append(clean, strings.TrimSpace(v))
		}
	}
	return clean
}
