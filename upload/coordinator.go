// Package upload orchestrates studio image uploads: each file gets its own
// pre-signed write URL, is written straight to object storage and only the
// resulting keys travel with the studio creation request.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

// Issuer hands out one pre-signed write URL per file.
type Issuer interface {
	IssueUploadURL(ctx context.Context, req model.PresignRequest) (model.PresignedURL, error)
}

// Storage writes bytes to a pre-signed URL.
type Storage interface {
	Put(ctx context.Context, url string, body io.Reader, size int64, contentType string) error
}

// Inspector reports on an object that was just written.
type Inspector interface {
	Stat(ctx context.Context, key string) (model.ObjectInfo, error)
}

// Coordinator uploads the outstanding items of a session with bounded
// concurrency.
type Coordinator struct {
	issuer      Issuer
	storage     Storage
	inspector   Inspector
	concurrency int
}

// NewCoordinator creates a coordinator. concurrency below 1 means one upload at a time.
func NewCoordinator(issuer Issuer, storage Storage, concurrency int) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Coordinator{issuer: issuer, storage: storage, concurrency: concurrency}
}

// WithInspector enables post-write verification of every object.
func (c *Coordinator) WithInspector(i Inspector) *Coordinator {
	c.inspector = i
	return c
}

// Upload sends every item that has not yet succeeded. Items are independent:
// one failure does not stop the others. The returned error is
// *apperr.UploadFailures when at least one item ended Failed.
func (c *Coordinator) Upload(ctx context.Context, s *Session) error {
	items := s.uploadable()
	if len(items) == 0 {
		return nil
	}
	logger.Info(ctx, "Uploading images", "count", len(items), "concurrency", c.concurrency)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs = make(map[string]error, len(items))
	)
	g.SetLimit(c.concurrency)
	for _, it := range items {
		it := it
		g.Go(func() error {
			if err := c.uploadOne(ctx, s, it); err != nil {
				s.markFailed(it, err)
				mu.Lock()
				errs[it.ID] = err
				mu.Unlock()
				logger.Warn(ctx, "Image upload failed", "file", it.FileName, "category", it.Category, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	// Selection order, each with the error its upload returned.
	var failures []apperr.ItemFailure
	for _, it := range items {
		if err, ok := errs[it.ID]; ok {
			failures = append(failures, apperr.ItemFailure{
				ItemID:   it.ID,
				FileName: it.FileName,
				Category: string(it.Category),
				Err:      err,
			})
		}
	}
	if len(failures) > 0 {
		return &apperr.UploadFailures{Items: failures}
	}
	return nil
}

func (c *Coordinator) uploadOne(ctx context.Context, s *Session, it *model.UploadItem) error {
	s.markInFlight(it)

	presigned, err := c.issuer.IssueUploadURL(ctx, model.PresignRequest{
		FileName:    it.FileName,
		Category:    it.Category,
		ContentType: it.ContentType,
	})
	if err != nil {
		var ie *apperr.URLIssuanceError
		if errors.As(err, &ie) {
			if ie.FileName == "" {
				ie.FileName = it.FileName
			}
			return err
		}
		return &apperr.URLIssuanceError{FileName: it.FileName, Category: string(it.Category), Err: err}
	}
	if presigned.URL == "" || presigned.Key == "" {
		return &apperr.URLIssuanceError{
			FileName: it.FileName,
			Category: string(it.Category),
			Err:      errors.New("response carries no url or key"),
		}
	}

	body := &progressReader{
		r:      bytes.NewReader(it.Content),
		onRead: func(n int) { s.addProgress(it, int64(n)) },
	}
	if err := c.storage.Put(ctx, presigned.URL, body, int64(len(it.Content)), it.ContentType); err != nil {
		var we *apperr.StorageWriteError
		if errors.As(err, &we) {
			if we.FileName == "" {
				we.FileName = it.FileName
			}
			if we.Key == "" {
				we.Key = presigned.Key
			}
			return err
		}
		return &apperr.StorageWriteError{FileName: it.FileName, Key: presigned.Key, Err: err}
	}

	if c.inspector != nil {
		info, err := c.inspector.Stat(ctx, presigned.Key)
		if err != nil {
			return &apperr.StorageWriteError{FileName: it.FileName, Key: presigned.Key, Err: fmt.Errorf("verify: %w", err)}
		}
		if info.Size != int64(len(it.Content)) {
			return &apperr.StorageWriteError{
				FileName: it.FileName,
				Key:      presigned.Key,
				Err:      fmt.Errorf("verify: stored %d bytes, sent %d", info.Size, len(it.Content)),
			}
		}
	}

	s.markSucceeded(it, presigned.Key)
	logger.Debug(ctx, "Image uploaded", "file", it.FileName, "category", it.Category, "key", presigned.Key)
	return nil
}

// progressReader reports how many bytes the storage client has consumed.
type progressReader struct {
	r      io.Reader
	onRead func(n int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.onRead(n)
	}
	return n, err
}
