package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

func newTestEnrichment(t *testing.T, db *gorm.DB, bucket BucketService, gen ImageGenClient) (*enrichmentService, PhotoService) {
	t.Helper()
	log := newTestLogger(t)
	photos := NewPhotoService(log, repos.NewUserPhotoRepo(db, log), bucket)
	svc := NewEnrichmentService(log, photos, bucket, gen, repos.NewProductImageRepo(db, log), 2, time.Minute)
	return svc.(*enrichmentService), photos
}

func uploadTestPhotos(t *testing.T, photos PhotoService, user *types.User) {
	t.Helper()
	img := testJPEG(t, 64, 64)
	_, err := photos.SaveReferencePhotos(context.Background(), user, map[string][]byte{
		types.AngleFront: img,
		types.AngleSide:  img,
		types.AngleBack:  img,
	})
	if err != nil {
		t.Fatalf("save photos: %v", err)
	}
}

func imageRow(t *testing.T, db *gorm.DB, product *types.Product, angle string) *types.ProductImage {
	t.Helper()
	var row types.ProductImage
	if err := db.Where("product_id = ? AND angle = ?", product.ID, angle).First(&row).Error; err != nil {
		t.Fatalf("load image row: %v", err)
	}
	return &row
}

func TestEnrichOneGeneratesCompositeView(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user_1")
	bucket := newMemoryBucket()
	gen := &fakeImageGen{out: testJPEG(t, 90, 160)}
	svc, photos := newTestEnrichment(t, db, bucket, gen)
	uploadTestPhotos(t, photos, user)

	deck := createTestDeck(t, db, user, 1, 1)
	product := deck[0]
	product.SourceImageKey = "user_1/products/product_1.jpg"
	bucket.objects[product.SourceImageKey] = testJPEG(t, 64, 64)

	svc.enrichOne(context.Background(), user, product, types.AngleFront)

	row := imageRow(t, db, product, types.AngleFront)
	if row.Status != types.ProductImageReady {
		t.Fatalf("status: got=%q want=ready (error=%q)", row.Status, row.Error)
	}
	wantKey := "user_1/combined_images/product_1_front.jpg"
	if row.BucketKey != wantKey {
		t.Fatalf("bucket key: got=%q want=%q", row.BucketKey, wantKey)
	}
	if !bucket.has(wantKey) {
		t.Fatal("composite image missing from bucket")
	}
}

func TestEnrichOneIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user_1")
	bucket := newMemoryBucket()
	gen := &fakeImageGen{out: testJPEG(t, 90, 160)}
	svc, photos := newTestEnrichment(t, db, bucket, gen)
	uploadTestPhotos(t, photos, user)

	deck := createTestDeck(t, db, user, 1, 1)
	product := deck[0]
	product.SourceImageKey = "user_1/products/product_1.jpg"
	bucket.objects[product.SourceImageKey] = testJPEG(t, 64, 64)

	svc.enrichOne(context.Background(), user, product, types.AngleFront)
	if got := gen.callCount(); got != 1 {
		t.Fatalf("generator calls: got=%d want=1", got)
	}

	// A ready view is never regenerated.
	svc.enrichOne(context.Background(), user, product, types.AngleFront)
	if got := gen.callCount(); got != 1 {
		t.Fatalf("ready view was regenerated: calls=%d", got)
	}
}

func TestEnrichOneMarksFailureAndRetries(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user_1")
	bucket := newMemoryBucket()
	gen := &fakeImageGen{err: errors.New("model unavailable")}
	svc, photos := newTestEnrichment(t, db, bucket, gen)
	uploadTestPhotos(t, photos, user)

	deck := createTestDeck(t, db, user, 1, 1)
	product := deck[0]
	product.SourceImageKey = "user_1/products/product_1.jpg"
	bucket.objects[product.SourceImageKey] = testJPEG(t, 64, 64)

	svc.enrichOne(context.Background(), user, product, types.AngleFront)

	row := imageRow(t, db, product, types.AngleFront)
	if row.Status != types.ProductImageFailed {
		t.Fatalf("status: got=%q want=failed", row.Status)
	}
	if row.Error == "" {
		t.Fatal("failure reason not recorded")
	}

	// Failed views are retried on the next enqueue.
	gen.err = nil
	gen.out = testJPEG(t, 90, 160)
	svc.enrichOne(context.Background(), user, product, types.AngleFront)

	row = imageRow(t, db, product, types.AngleFront)
	if row.Status != types.ProductImageReady {
		t.Fatalf("retry did not recover: status=%q error=%q", row.Status, row.Error)
	}
	if row.Error != "" {
		t.Fatalf("stale error survived retry: %q", row.Error)
	}
}

func TestEnrichOneWithoutReferencePhotoFails(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user_1")
	bucket := newMemoryBucket()
	gen := &fakeImageGen{out: testJPEG(t, 90, 160)}
	svc, _ := newTestEnrichment(t, db, bucket, gen)

	deck := createTestDeck(t, db, user, 1, 1)
	svc.enrichOne(context.Background(), user, deck[0], types.AngleFront)

	row := imageRow(t, db, deck[0], types.AngleFront)
	if row.Status != types.ProductImageFailed {
		t.Fatalf("status: got=%q want=failed", row.Status)
	}
	if gen.callCount() != 0 {
		t.Fatal("generator should not run without a reference photo")
	}
}
