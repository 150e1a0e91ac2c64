package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/pkg/apperr"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

type itemFailureView struct {
	ItemID   string `json:"itemId"`
	FileName string `json:"fileName"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// respondError maps the error taxonomy onto HTTP answers.
func respondError(c *gin.Context, err error) {
	var (
		validation *apperr.ValidationError
		failures   *apperr.UploadFailures
		submission *apperr.SubmissionError
		upstream   *apperr.UpstreamError
		issuance   *apperr.URLIssuanceError
		write      *apperr.StorageWriteError
		parse      *apperr.ParseError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "problems": validation.Problems})
	case errors.As(err, &failures):
		views := make([]itemFailureView, len(failures.Items))
		for i, f := range failures.Items {
			views[i] = itemFailureView{ItemID: f.ItemID, FileName: f.FileName, Category: f.Category, Kind: f.Kind(), Error: f.Err.Error()}
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "failures": views})
	case errors.As(err, &submission):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          err.Error(),
			"upstreamStatus": submission.Status,
			"upstreamBody":   submission.Body,
		})
	case errors.As(err, &upstream):
		status := http.StatusBadGateway
		if upstream.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error(), "upstreamStatus": upstream.Status})
	case errors.As(err, &issuance), errors.As(err, &write), errors.As(err, &parse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrDraftNotFound), errors.Is(err, apperr.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrDraftBusy), errors.Is(err, apperr.ErrAlreadySubmitted), errors.Is(err, apperr.ErrCategoryFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrStorageNotEnabled):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	default:
		logger.Error(c.Request.Context(), "Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
