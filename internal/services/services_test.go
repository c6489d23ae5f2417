package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserPhoto{},
		&types.Preference{},
		&types.Product{},
		&types.ProductImage{},
		&types.SwipeSession{},
		&types.Swipe{},
		&types.EngagementEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func createTestUser(t *testing.T, db *gorm.DB, folder string) *types.User {
	t.Helper()
	user := &types.User{ID: uuid.New(), UserFolder: folder}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestDeck(t *testing.T, db *gorm.DB, user *types.User, generation, n int) []*types.Product {
	t.Helper()
	products := make([]*types.Product, 0, n)
	for i := 0; i < n; i++ {
		p := &types.Product{
			ID:         uuid.New(),
			UserID:     user.ID,
			Generation: generation,
			Position:   i,
			Title:      "Product",
			Thumbnail:  "https://example.test/p.jpg",
		}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("create product: %v", err)
		}
		products = append(products, p)
	}
	return products
}

// memoryBucket is an in-process BucketService.
type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string][]byte{}}
}

func (b *memoryBucket) UploadFile(_ context.Context, key string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()
	return nil
}

func (b *memoryBucket) DownloadFile(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return data, nil
}

func (b *memoryBucket) DeleteFile(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

func (b *memoryBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (b *memoryBucket) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// fakeSearchClient records queries and replays canned results.
type fakeSearchClient struct {
	mu      sync.Mutex
	queries []string
	results []ShoppingResult
	err     error
}

func (f *fakeSearchClient) SearchShopping(_ context.Context, query string, _ int) ([]ShoppingResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeImageGen returns fixed bytes and counts invocations.
type fakeImageGen struct {
	mu    sync.Mutex
	calls int
	out   []byte
	err   error
}

func (f *fakeImageGen) GenerateTryOn(_ context.Context, _ []byte, _ []byte, _ string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func (f *fakeImageGen) Close() error { return nil }

func (f *fakeImageGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type noopEnrichment struct{}

func (noopEnrichment) EnqueueDeck(*types.User, []*types.Product) {}

func newTestDeckService(t *testing.T, db *gorm.DB, bucket BucketService, sourcing SourcingService, enrichment EnrichmentService) DeckService {
	t.Helper()
	log := newTestLogger(t)
	if enrichment == nil {
		enrichment = noopEnrichment{}
	}
	return NewDeckService(
		db, log, sourcing, enrichment, bucket,
		repos.NewProductRepo(db, log),
		repos.NewProductImageRepo(db, log),
		repos.NewSwipeSessionRepo(db, log),
		repos.NewSwipeRepo(db, log),
	)
}

func newTestSessionService(t *testing.T, db *gorm.DB, deck DeckService) SessionService {
	t.Helper()
	log := newTestLogger(t)
	engagement := NewEngagementService(log, repos.NewEngagementEventRepo(db, log))
	return NewSessionService(
		db, log, deck, engagement,
		repos.NewProductRepo(db, log),
		repos.NewSwipeSessionRepo(db, log),
		repos.NewSwipeRepo(db, log),
	)
}
