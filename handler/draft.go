package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
	"github.com/muroom-studio/muroom-admin/service"
	"github.com/muroom-studio/muroom-admin/upload"
)

// DraftHandler serves the multi-step studio creation workflow.
type DraftHandler struct {
	store        *service.DraftStore
	flow         *upload.Flow
	maxFileBytes int64
}

func NewDraftHandler(store *service.DraftStore, flow *upload.Flow, maxFileBytes int64) *DraftHandler {
	return &DraftHandler{store: store, flow: flow, maxFileBytes: maxFileBytes}
}

// Create starts an empty draft.
func (h *DraftHandler) Create(c *gin.Context) {
	draft := h.store.Create()
	logger.Info(logger.WithDraft(c.Request.Context(), draft.ID()), "Draft created")
	c.JSON(http.StatusCreated, draft.Snapshot())
}

func (h *DraftHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"drafts": h.store.List()})
}

func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

// Rules lists the per-category image limits for the form.
func (h *DraftHandler) Rules(c *gin.Context) {
	rules := h.flow.Rules()
	out := make([]gin.H, 0, len(rules))
	for _, cat := range model.Categories {
		if l, ok := rules[cat]; ok {
			out = append(out, gin.H{"category": cat, "min": l.Min, "max": l.Max})
		}
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// UpdateForm replaces the draft's form values.
func (h *DraftHandler) UpdateForm(c *gin.Context) {
	draft, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var form model.StudioForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form: " + err.Error()})
		return
	}
	if err := draft.SetForm(form); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

// AddFile attaches a selected image to the draft. Nothing is uploaded yet.
func (h *DraftHandler) AddFile(c *gin.Context) {
	draft, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	category, ok := model.ParseCategory(c.PostForm("category"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category: " + c.PostForm("category")})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if h.maxFileBytes > 0 && header.Size > h.maxFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	contentType := service.SniffContentType(data, header.Header.Get("Content-Type"))
	if !service.IsImage(contentType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Only image files are allowed, got " + contentType})
		return
	}

	item := &model.UploadItem{
		Category:    category,
		FileName:    filepath.Base(header.Filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     data,
	}
	if err := draft.AddItem(item, h.flow.Rules()); err != nil {
		respondError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "Image selected",
		"file", item.FileName, "category", category, "size", item.Size, "content_type", contentType)
	c.JSON(http.StatusCreated, draft.Snapshot())
}

func (h *DraftHandler) RemoveFile(c *gin.Context) {
	draft, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := draft.RemoveItem(c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

// Submit runs validation, uploads and the create call. An upload that has
// started is not aborted when the browser goes away. With ?async=true the
// call returns 202 at once and progress is read from the draft snapshot.
func (h *DraftHandler) Submit(c *gin.Context) {
	draft, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())

	if c.Query("async") == "true" {
		err := h.flow.Start(ctx, draft, func(_ *model.StudioCreated, err error) {
			if err != nil {
				logger.Warn(ctx, "Background submission failed", "error", err)
			}
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": draft.ID(), "phase": draft.Phase()})
		return
	}

	created, err := h.flow.Submit(ctx, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"studioId": created.StudioID,
		"draft":    draft.Snapshot(),
	})
}

func (h *DraftHandler) Reset(c *gin.Context) {
	draft, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := draft.Reset(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft.Snapshot())
}

func (h *DraftHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft deleted"})
}
