package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

type OwnerAPI interface {
	GenerateNickname(ctx context.Context) (string, error)
	CreateOwner(ctx context.Context, req *model.OwnerCreateRequest) error
}

type OwnerHandler struct {
	api OwnerAPI
}

func NewOwnerHandler(api OwnerAPI) *OwnerHandler {
	return &OwnerHandler{api: api}
}

func (h *OwnerHandler) Nickname(c *gin.Context) {
	name, err := h.api.GenerateNickname(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nickname": name})
}

// Create registers an owner with a generated nickname and a phone number.
func (h *OwnerHandler) Create(c *gin.Context) {
	var req model.OwnerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		respondError(c, err)
		return
	}

	if err := h.api.CreateOwner(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	logger.Info(c.Request.Context(), "Owner registered", "nickname", req.Nickname)
	c.JSON(http.StatusCreated, gin.H{"message": "Owner registered", "nickname": req.Nickname})
}
