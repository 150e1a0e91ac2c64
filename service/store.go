package service

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
	"github.com/muroom-studio/muroom-admin/upload"
)

// DraftStore keeps studio drafts in memory. Drafts do not survive a restart.
type DraftStore struct {
	drafts    map[string]*upload.Session
	mu        sync.RWMutex
	maxDrafts int // 0 = unlimited
}

func NewDraftStore(maxDrafts int) *DraftStore {
	if maxDrafts < 0 {
		maxDrafts = 0
	}
	slog.Info("draft store initialized", "max_drafts", maxDrafts)
	return &DraftStore{
		drafts:    make(map[string]*upload.Session),
		maxDrafts: maxDrafts,
	}
}

// Create starts a new empty draft.
func (s *DraftStore) Create() *upload.Session {
	session := upload.NewSession("")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[session.ID()] = session
	s.cleanupIfNeeded()
	return session
}

func (s *DraftStore) Get(id string) (*upload.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.drafts[id]
	if !ok {
		return nil, apperr.ErrDraftNotFound
	}
	return session, nil
}

// Delete discards a draft. A draft in the middle of a submission is kept.
func (s *DraftStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.drafts[id]
	if !ok {
		return apperr.ErrDraftNotFound
	}
	if busy(session) {
		return apperr.ErrDraftBusy
	}
	delete(s.drafts, id)
	return nil
}

// List returns a snapshot of every draft, newest first.
func (s *DraftStore) List() []model.DraftView {
	s.mu.RLock()
	views := make([]model.DraftView, 0, len(s.drafts))
	for _, d := range s.drafts {
		views = append(views, d.Snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}

// Count returns the number of drafts in the store
func (s *DraftStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drafts)
}

func busy(session *upload.Session) bool {
	switch session.Phase() {
	case model.PhaseValidating, model.PhaseUploading, model.PhaseSubmitting:
		return true
	}
	return false
}

// cleanupIfNeeded removes the oldest idle drafts once the store exceeds
// maxDrafts. Must be called with lock held
func (s *DraftStore) cleanupIfNeeded() {
	if s.maxDrafts <= 0 || len(s.drafts) <= s.maxDrafts {
		return
	}

	drafts := make([]*upload.Session, 0, len(s.drafts))
	for _, d := range s.drafts {
		if !busy(d) {
			drafts = append(drafts, d)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt().Before(drafts[j].CreatedAt())
	})

	removeCount := len(s.drafts) - s.maxDrafts
	for i := 0; i < removeCount && i < len(drafts); i++ {
		slog.Info("auto-cleaning old draft",
			"draft_id", drafts[i].ID(),
			"created_at", drafts[i].CreatedAt(),
		)
		delete(s.drafts, drafts[i].ID())
	}
}
