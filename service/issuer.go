package service

import (
	"context"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

// StorageIssuer issues write URLs from the dashboard's own bucket credentials
// instead of asking the backend.
type StorageIssuer struct {
	signer Signer
	prefix string
}

func NewStorageIssuer(signer Signer) *StorageIssuer {
	return &StorageIssuer{signer: signer, prefix: "studios"}
}

func (i *StorageIssuer) IssueUploadURL(ctx context.Context, req model.PresignRequest) (model.PresignedURL, error) {
	key := i.objectKey(req)
	u, err := i.signer.PresignPut(ctx, key, req.ContentType)
	if err != nil {
		return model.PresignedURL{}, &apperr.URLIssuanceError{
			FileName: req.FileName,
			Category: string(req.Category),
			Err:      err,
		}
	}
	return model.PresignedURL{URL: u, Key: key}, nil
}

// objectKey is studios/<category>/<uuid><ext>; the client file name never
// becomes part of the key.
func (i *StorageIssuer) objectKey(req model.PresignRequest) string {
	return path.Join(i.prefix, strings.ToLower(string(req.Category)), uuid.New().String()+extensionFor(req))
}

func extensionFor(req model.PresignRequest) string {
	if ext := strings.ToLower(path.Ext(req.FileName)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if m := mimetype.Lookup(req.ContentType); m != nil {
		return m.Extension()
	}
	return ""
}

// SniffContentType detects the media type from the file header. The declared
// type is used only when detection finds nothing more specific.
func SniffContentType(data []byte, declared string) string {
	detected := mimetype.Detect(data)
	if detected.Is("application/octet-stream") && declared != "" {
		return declared
	}
	// Drop parameters such as charset.
	mt, _, _ := strings.Cut(detected.String(), ";")
	return mt
}

// IsImage reports whether the media type is an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
