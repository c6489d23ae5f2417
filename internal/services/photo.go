package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/types"
)

const (
	referencePhotoMaxSide = 1024
	referencePhotoQuality = 90
)

// PhotoService stores the user's reference photos, one per angle. Photos
// are re-encoded to bounded JPEGs before upload so the generation
// pipeline works from a predictable format.
type PhotoService interface {
	SaveReferencePhotos(ctx context.Context, user *types.User, photos map[string][]byte) (map[string]string, error)
	GetReferencePhoto(ctx context.Context, user *types.User, angle string) ([]byte, error)
}

type photoService struct {
	log           *logger.Logger
	userPhotoRepo repos.UserPhotoRepo
	bucketService BucketService
}

func NewPhotoService(log *logger.Logger, userPhotoRepo repos.UserPhotoRepo, bucketService BucketService) PhotoService {
	return &photoService{
		log:           log.With("service", "PhotoService"),
		userPhotoRepo: userPhotoRepo,
		bucketService: bucketService,
	}
}

func (ps *photoService) SaveReferencePhotos(ctx context.Context, user *types.User, photos map[string][]byte) (map[string]string, error) {
	for _, angle := range types.Angles {
		if len(photos[angle]) == 0 {
			return nil, fmt.Errorf("missing %s photo", angle)
		}
	}

	keys := make(map[string]string, len(types.Angles))
	rows := make([]*types.UserPhoto, 0, len(types.Angles))
	for _, angle := range types.Angles {
		img, err := decodeImage(photos[angle])
		if err != nil {
			return nil, fmt.Errorf("invalid %s photo: %w", angle, err)
		}
		data, err := encodeJPEG(scaleDown(img, referencePhotoMaxSide), referencePhotoQuality)
		if err != nil {
			return nil, fmt.Errorf("failed to process %s photo: %w", angle, err)
		}
		key := fmt.Sprintf("%s/%s.jpg", user.UserFolder, angle)
		if err := ps.bucketService.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to upload %s photo: %w", angle, err)
		}
		keys[angle] = key
		rows = append(rows, &types.UserPhoto{
			ID:        uuid.New(),
			UserID:    user.ID,
			Angle:     angle,
			BucketKey: key,
		})
	}

	if _, err := ps.userPhotoRepo.Upsert(ctx, nil, rows); err != nil {
		return nil, fmt.Errorf("failed to save photo records: %w", err)
	}
	ps.log.Info("Saved reference photos", "user_id", user.ID.String(), "count", len(rows))
	return keys, nil
}

func (ps *photoService) GetReferencePhoto(ctx context.Context, user *types.User, angle string) ([]byte, error) {
	row, err := ps.userPhotoRepo.GetByUserAndAngle(ctx, nil, user.ID, angle)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("no %s reference photo for user", angle)
	}
	return ps.bucketService.DownloadFile(ctx, row.BucketKey)
}
