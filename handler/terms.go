package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

type TermsAPI interface {
	CreateTerms(ctx context.Context, req *model.TermsCreateRequest) error
	ListTerms(ctx context.Context, types []model.TermsType) ([]model.TermItem, error)
	GetTerms(ctx context.Context, id int64) (*model.TermContent, error)
	ListSignupTerms(ctx context.Context) ([]model.TermItem, error)
}

type TermsHandler struct {
	api TermsAPI
	loc *time.Location
}

// NewTermsHandler creates the handler; effective dates are read in loc.
func NewTermsHandler(api TermsAPI, loc *time.Location) *TermsHandler {
	return &TermsHandler{api: api, loc: loc}
}

// List accepts ?types=A,B and defaults to every terms type.
func (h *TermsHandler) List(c *gin.Context) {
	var types []model.TermsType
	for _, raw := range strings.Split(c.Query("types"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		t := model.TermsType(strings.ToUpper(raw))
		if !knownTermsType(t) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown terms type: " + raw})
			return
		}
		types = append(types, t)
	}

	items, err := h.api.ListTerms(c.Request.Context(), types)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terms": items})
}

func (h *TermsHandler) Signup(c *gin.Context) {
	items, err := h.api.ListSignupTerms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terms": items})
}

func (h *TermsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid terms id"})
		return
	}
	content, err := h.api.GetTerms(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// Create publishes a terms document.
func (h *TermsHandler) Create(c *gin.Context) {
	var form model.TermsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	req, err := form.ToRequest(h.loc)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.api.CreateTerms(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "Terms published", "code", req.Code, "role", req.TargetRole, "effective_at", req.EffectiveAt)
	c.JSON(http.StatusCreated, gin.H{"message": "Terms published", "effectiveAt": req.EffectiveAt})
}

func knownTermsType(t model.TermsType) bool {
	for _, known := range model.AllTermsTypes {
		if t == known {
			return true
		}
	}
	return false
}
