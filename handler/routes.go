package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/middleware"
)

// Handlers bundles everything RegisterRoutes mounts. Proxy may be nil.
type Handlers struct {
	Drafts  *DraftHandler
	Studios *StudioHandler
	Owners  *OwnerHandler
	Terms   *TermsHandler
	Proxy   gin.HandlerFunc
}

// RegisterRoutes mounts the health check, the upstream pass-through and the
// /admin workflow routes.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	if h.Proxy != nil {
		router.Any("/api/*path", h.Proxy)
	}

	admin := router.Group("/admin")

	admin.GET("/drafts", h.Drafts.List)
	admin.POST("/drafts", h.Drafts.Create)
	admin.GET("/upload-rules", h.Drafts.Rules)
	draft := admin.Group("/drafts/:id", middleware.DraftContext())
	{
		draft.GET("", h.Drafts.Get)
		draft.PUT("/form", h.Drafts.UpdateForm)
		draft.POST("/files", h.Drafts.AddFile)
		draft.DELETE("/files/:itemId", h.Drafts.RemoveFile)
		draft.POST("/submit", h.Drafts.Submit)
		draft.POST("/reset", h.Drafts.Reset)
		draft.DELETE("", h.Drafts.Delete)
	}

	admin.GET("/studios", h.Studios.List)
	admin.GET("/studios/filter-options", h.Studios.FilterOptions)
	admin.GET("/studios/nearby-stations", h.Studios.NearbyStations)
	admin.GET("/studios/:id", h.Studios.Get)

	admin.GET("/owners/nickname", h.Owners.Nickname)
	admin.POST("/owners", h.Owners.Create)

	admin.GET("/terms", h.Terms.List)
	admin.POST("/terms", h.Terms.Create)
	admin.GET("/terms/signup", h.Terms.Signup)
	admin.GET("/terms/:id", h.Terms.Get)
}
