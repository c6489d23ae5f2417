package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/styleswipe/backend/internal/services"
)

type PreferenceHandler struct {
	userSvc services.UserService
	prefSvc services.PreferenceService
	deckSvc services.DeckService
}

func NewPreferenceHandler(userSvc services.UserService, prefSvc services.PreferenceService, deckSvc services.DeckService) *PreferenceHandler {
	return &PreferenceHandler{userSvc: userSvc, prefSvc: prefSvc, deckSvc: deckSvc}
}

type savePreferencesRequest struct {
	UserFolder    string   `json:"user_folder" binding:"required"`
	Gender        string   `json:"gender" binding:"required"`
	Size          string   `json:"size" binding:"required"`
	Styles        []string `json:"styles" binding:"required"`
	ClothingTypes []string `json:"clothing_types" binding:"required"`
	Budget        string   `json:"budget"`
	Colors        string   `json:"colors"`
	Notes         string   `json:"notes"`
}

// POST /save-preferences
//
// Saving preferences is also the deck trigger: the previous deck and
// session are superseded in the same request.
func (h *PreferenceHandler) Save(c *gin.Context) {
	var req savePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user, err := h.userSvc.GetByFolder(c.Request.Context(), lastPathSegment(req.UserFolder))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "user_lookup_failed", err)
		return
	}
	if user == nil {
		RespondError(c, http.StatusNotFound, "user_not_found",
			fmt.Errorf("user not found, upload images first"))
		return
	}

	pref, err := h.prefSvc.Save(c.Request.Context(), user, services.PreferenceInput{
		Gender:        req.Gender,
		Size:          req.Size,
		Styles:        req.Styles,
		ClothingTypes: req.ClothingTypes,
		Budget:        req.Budget,
		Colors:        req.Colors,
		Notes:         req.Notes,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "preference_save_failed", err)
		return
	}

	views, err := h.deckSvc.Assemble(c.Request.Context(), user, pref)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "deck_assembly_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"message":              "Preferences saved successfully",
		"preferences":          pref,
		"recommended_products": views,
		"products_count":       len(views),
	})
}

func lastPathSegment(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
