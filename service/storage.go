package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

// ObjectWriter performs the direct PUT of file bytes to a pre-signed URL.
type ObjectWriter struct {
	httpClient *http.Client
}

func NewObjectWriter(timeout time.Duration) *ObjectWriter {
	return &ObjectWriter{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Put streams body to url. The signed URL carries its own authorization, so
// no credentials are attached.
func (w *ObjectWriter) Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return &apperr.StorageWriteError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.ContentLength = size
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return &apperr.StorageWriteError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyInLogs))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return &apperr.StorageWriteError{Status: resp.StatusCode, Err: errors.New(text)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
