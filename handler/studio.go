package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

// StudioAPI is the part of the upstream client the studio pages read from.
type StudioAPI interface {
	FilterOptions(ctx context.Context) (*model.FilterOptions, error)
	NearbyStations(ctx context.Context, address string) (*model.NearbyStations, error)
	ListStudios(ctx context.Context, page, size int) (*model.StudioPage, error)
	GetStudio(ctx context.Context, id int64) (*model.StudioDetail, error)
}

// Previewer signs read URLs for stored images.
type Previewer interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

type StudioHandler struct {
	api     StudioAPI
	preview Previewer
}

// NewStudioHandler creates the handler. preview may be nil when no object
// storage is configured; image keys are then returned without read URLs.
func NewStudioHandler(api StudioAPI, preview Previewer) *StudioHandler {
	return &StudioHandler{api: api, preview: preview}
}

func (h *StudioHandler) FilterOptions(c *gin.Context) {
	opts, err := h.api.FilterOptions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *StudioHandler) NearbyStations(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}
	stations, err := h.api.NearbyStations(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stations)
}

// List returns one page of studios, newest first.
func (h *StudioHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	result, err := h.api.ListStudios(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get returns a studio with read URLs for its images when storage is configured.
func (h *StudioHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid studio id"})
		return
	}

	ctx := c.Request.Context()
	detail, err := h.api.GetStudio(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.preview != nil {
		keys := detail.StudioImages.AllKeys()
		detail.ImagePreviews = make(map[string]string, len(keys))
		for _, key := range keys {
			u, err := h.preview.PresignGet(ctx, key)
			if err != nil {
				logger.Warn(ctx, "Failed to sign preview url", "key", key, "error", err)
				continue
			}
			detail.ImagePreviews[key] = u
		}
	}
	c.JSON(http.StatusOK, detail)
}
