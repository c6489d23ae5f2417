package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/styleswipe/backend/internal/services"
	"github.com/styleswipe/backend/internal/types"
)

const maxPhotoBytes = 20 << 20

type PhotoHandler struct {
	userSvc  services.UserService
	photoSvc services.PhotoService
	bucket   services.BucketService
}

func NewPhotoHandler(userSvc services.UserService, photoSvc services.PhotoService, bucket services.BucketService) *PhotoHandler {
	return &PhotoHandler{userSvc: userSvc, photoSvc: photoSvc, bucket: bucket}
}

// POST /upload-images
func (h *PhotoHandler) Upload(c *gin.Context) {
	photos := make(map[string][]byte, len(types.Angles))
	for _, angle := range types.Angles {
		fh, err := c.FormFile(angle)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "missing_photo", fmt.Errorf("missing %s image", angle))
			return
		}
		data, err := readUpload(fh)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_photo", fmt.Errorf("could not read %s image: %w", angle, err))
			return
		}
		photos[angle] = data
	}

	folder := strings.TrimSpace(c.PostForm("user_id"))
	if folder == "" {
		folder = fmt.Sprintf("user_%d", time.Now().Unix())
	}

	user, err := h.userSvc.GetOrCreateByFolder(c.Request.Context(), folder)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "user_create_failed", err)
		return
	}

	keys, err := h.photoSvc.SaveReferencePhotos(c.Request.Context(), user, photos)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "photo_save_failed", err)
		return
	}

	urls := make(map[string]string, len(keys))
	for angle, key := range keys {
		urls[angle] = h.bucket.GetPublicURL(key)
	}

	RespondOK(c, gin.H{
		"message":     "Images uploaded successfully",
		"user_id":     user.ID,
		"user_folder": user.UserFolder,
		"images":      urls,
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxPhotoBytes {
		return nil, fmt.Errorf("file too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxPhotoBytes))
}
