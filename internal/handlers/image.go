package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/styleswipe/backend/internal/services"
)

type ImageHandler struct {
	bucket services.BucketService
}

func NewImageHandler(bucket services.BucketService) *ImageHandler {
	return &ImageHandler{bucket: bucket}
}

// GET /api/image/*key
//
// Images live in object storage; this endpoint exists so older clients
// that expect the API to serve files keep working.
func (h *ImageHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "missing_key", fmt.Errorf("image key is empty"))
		return
	}
	c.Redirect(http.StatusFound, h.bucket.GetPublicURL(key))
}
