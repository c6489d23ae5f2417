package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/services"
)

type ClickHandler struct {
	userSvc       services.UserService
	engagementSvc services.EngagementService
	productRepo   repos.ProductRepo
}

func NewClickHandler(userSvc services.UserService, engagementSvc services.EngagementService, productRepo repos.ProductRepo) *ClickHandler {
	return &ClickHandler{userSvc: userSvc, engagementSvc: engagementSvc, productRepo: productRepo}
}

type productClickRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	Referrer   string    `json:"referrer"`
	UserFolder string    `json:"user_folder"`
}

// POST /api/product/click
func (h *ClickHandler) Track(c *gin.Context) {
	var req productClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	products, err := h.productRepo.GetByIDs(c.Request.Context(), nil, []uuid.UUID{req.ProductID})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "product_lookup_failed", err)
		return
	}
	if len(products) == 0 {
		RespondError(c, http.StatusNotFound, "product_not_found", fmt.Errorf("product not found"))
		return
	}

	var userID *uuid.UUID
	if folder := lastPathSegment(req.UserFolder); folder != "" {
		user, err := h.userSvc.GetByFolder(c.Request.Context(), folder)
		if err == nil && user != nil {
			userID = &user.ID
		}
	}

	referrer := strings.TrimSpace(req.Referrer)
	if referrer == "" {
		referrer = "unknown"
	}

	event, err := h.engagementSvc.RecordClick(c.Request.Context(), userID, req.ProductID, referrer)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "click_record_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"success":  true,
		"message":  "Click tracked",
		"click_id": event.ID,
	})
}
