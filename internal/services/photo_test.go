package services

import (
	"context"
	"testing"

	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

func TestSaveReferencePhotosRequiresAllAngles(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	user := createTestUser(t, db, "user_1")
	svc := NewPhotoService(log, repos.NewUserPhotoRepo(db, log), newMemoryBucket())

	img := testJPEG(t, 64, 64)
	_, err := svc.SaveReferencePhotos(context.Background(), user, map[string][]byte{
		types.AngleFront: img,
		types.AngleSide:  img,
	})
	if err == nil {
		t.Fatal("expected error for missing back photo")
	}
}

func TestSaveReferencePhotosStoresBoundedJPEGs(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	user := createTestUser(t, db, "user_1")
	bucket := newMemoryBucket()
	svc := NewPhotoService(log, repos.NewUserPhotoRepo(db, log), bucket)

	img := testJPEG(t, 3000, 1500)
	keys, err := svc.SaveReferencePhotos(context.Background(), user, map[string][]byte{
		types.AngleFront: img,
		types.AngleSide:  img,
		types.AngleBack:  img,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("key count: got=%d want=3", len(keys))
	}
	if keys[types.AngleFront] != "user_1/front.jpg" {
		t.Fatalf("unexpected key: %q", keys[types.AngleFront])
	}

	stored, err := svc.GetReferencePhoto(context.Background(), user, types.AngleFront)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	decoded, err := decodeImage(stored)
	if err != nil {
		t.Fatalf("stored photo is not an image: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() > 1024 || b.Dy() > 1024 {
		t.Fatalf("photo not resized: %dx%d", b.Dx(), b.Dy())
	}

	// Re-upload replaces, not duplicates.
	if _, err := svc.SaveReferencePhotos(context.Background(), user, map[string][]byte{
		types.AngleFront: img,
		types.AngleSide:  img,
		types.AngleBack:  img,
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	var count int64
	if err := db.Model(&types.UserPhoto{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("photo rows: got=%d want=3", count)
	}
}
