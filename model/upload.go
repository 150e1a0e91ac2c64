package model

import (
	"strings"
	"time"
)

// Category tags the semantic role of an uploaded studio image.
type Category string

const (
	CategoryMain             Category = "MAIN"
	CategoryBuilding         Category = "BUILDING"
	CategoryRoom             Category = "ROOM"
	CategoryBlueprint        Category = "BLUEPRINT"
	CategoryOptionCommon     Category = "OPTION_COMMON"
	CategoryOptionIndividual Category = "OPTION_INDIVIDUAL"
)

// Categories lists every category in form display order.
var Categories = []Category{
	CategoryMain,
	CategoryBuilding,
	CategoryRoom,
	CategoryBlueprint,
	CategoryOptionCommon,
	CategoryOptionIndividual,
}

var categoryAliases = map[string]Category{
	"primary":           CategoryMain,
	"main":              CategoryMain,
	"building":          CategoryBuilding,
	"room":              CategoryRoom,
	"blueprint":         CategoryBlueprint,
	"option-common":     CategoryOptionCommon,
	"option_common":     CategoryOptionCommon,
	"option-individual": CategoryOptionIndividual,
	"option_individual": CategoryOptionIndividual,
}

// ParseCategory accepts the wire name or one of the form aliases.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	c, ok := categoryAliases[strings.ToLower(s)]
	return c, ok
}

// ItemState is the lifecycle of a single upload.
type ItemState string

const (
	ItemPending   ItemState = "pending"
	ItemInFlight  ItemState = "in_flight"
	ItemSucceeded ItemState = "succeeded"
	ItemFailed    ItemState = "failed"
)

// UploadItem is one locally selected file and its upload progress.
// A succeeded item always carries the storage key it was written under.
type UploadItem struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Key         string    `json:"key,omitempty"`
	State       ItemState `json:"state"`
	BytesSent   int64     `json:"bytesSent"`
	Attempts    int       `json:"attempts"`
	Error       string    `json:"error,omitempty"`
	Content     []byte    `json:"-"`
}

// Phase is the step of the multi-step studio creation flow.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseValidating Phase = "validating"
	PhaseUploading  Phase = "uploading"
	PhaseSubmitting Phase = "submitting"
	PhaseDone       Phase = "done"
)

// PresignRequest asks the backend for a write URL for one file.
type PresignRequest struct {
	FileName    string   `json:"fileName"`
	Category    Category `json:"category"`
	ContentType string   `json:"contentType"`
}

// PresignedURL is a time-limited direct write URL and the key the object
// will be stored under.
type PresignedURL struct {
	URL string `json:"url"`
	Key string `json:"fileKey"`
}

// DraftView is a read-only copy of a studio draft.
type DraftView struct {
	ID        string       `json:"id"`
	Phase     Phase        `json:"phase"`
	Form      StudioForm   `json:"form"`
	Items     []UploadItem `json:"items"`
	LastError string       `json:"lastError,omitempty"`
	StudioID  int64        `json:"studioId,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ObjectInfo describes a stored object as reported by the storage backend.
type ObjectInfo struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}
