package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/styleswipe/backend/internal/services"
	"github.com/styleswipe/backend/internal/types"
)

type SwipeHandler struct {
	userSvc    services.UserService
	deckSvc    services.DeckService
	sessionSvc services.SessionService
}

func NewSwipeHandler(userSvc services.UserService, deckSvc services.DeckService, sessionSvc services.SessionService) *SwipeHandler {
	return &SwipeHandler{userSvc: userSvc, deckSvc: deckSvc, sessionSvc: sessionSvc}
}

func (h *SwipeHandler) user(c *gin.Context) (*types.User, bool) {
	folder := lastPathSegment(c.Param("userFolder"))
	user, err := h.userSvc.GetByFolder(c.Request.Context(), folder)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "user_lookup_failed", err)
		return nil, false
	}
	if user == nil {
		RespondError(c, http.StatusNotFound, "user_not_found", fmt.Errorf("user not found"))
		return nil, false
	}
	return user, true
}

// GET /api/swipe/:userFolder/products
func (h *SwipeHandler) Products(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	views, err := h.deckSvc.Current(c.Request.Context(), user)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "deck_load_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"products": views,
		"total":    len(views),
	})
}

// GET /api/swipe/:userFolder/next
func (h *SwipeHandler) Next(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	view, status, err := h.sessionSvc.Next(c.Request.Context(), user)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "session_load_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"product": view,
		"status":  status,
	})
}

type swipeRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Liked     *bool     `json:"liked" binding:"required"`
}

// POST /api/swipe/:userFolder/action
func (h *SwipeHandler) Action(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.sessionSvc.Swipe(c.Request.Context(), user, req.ProductID, *req.Liked)
	switch {
	case errors.Is(err, services.ErrUnknownProduct):
		RespondError(c, http.StatusNotFound, "product_not_found", err)
		return
	case errors.Is(err, services.ErrCursorMismatch):
		RespondError(c, http.StatusConflict, "cursor_mismatch", err)
		return
	case errors.Is(err, services.ErrSessionComplete):
		RespondError(c, http.StatusConflict, "session_complete", err)
		return
	case err != nil:
		RespondError(c, http.StatusInternalServerError, "swipe_failed", err)
		return
	}
	RespondOK(c, result)
}

// GET /api/swipe/:userFolder/status
func (h *SwipeHandler) Status(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	status, err := h.sessionSvc.Status(c.Request.Context(), user)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "session_load_failed", err)
		return
	}
	RespondOK(c, status)
}

// GET /api/swipe/:userFolder/liked
func (h *SwipeHandler) Liked(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	liked, err := h.sessionSvc.Liked(c.Request.Context(), user)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "session_load_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"liked_products": liked,
		"total":          len(liked),
	})
}

// POST /api/swipe/:userFolder/reset
func (h *SwipeHandler) Reset(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	status, err := h.sessionSvc.Reset(c.Request.Context(), user)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "reset_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"message": "Swipe session reset",
		"status":  status,
	})
}
