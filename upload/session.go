package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
)

// Session is the state container of one studio draft: form values, the
// selected files and where the draft is in the creation flow. All access goes
// through its methods.
type Session struct {
	mu        sync.RWMutex
	id        string
	phase     model.Phase
	form      model.StudioForm
	items     []*model.UploadItem
	lastErr   error
	studioID  int64
	createdAt time.Time
	updatedAt time.Time
}

// NewSession creates an empty draft in the Editing phase.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	return &Session{
		id:        id,
		phase:     model.PhaseEditing,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) Phase() model.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Session) Form() model.StudioForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form
}

// editable must be called with the lock held.
func (s *Session) editable() error {
	switch s.phase {
	case model.PhaseEditing:
		return nil
	case model.PhaseDone:
		return apperr.ErrAlreadySubmitted
	default:
		return apperr.ErrDraftBusy
	}
}

// SetForm replaces the form values.
func (s *Session) SetForm(form model.StudioForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.form = form
	s.touch()
	return nil
}

// AddItem appends a selected file as a Pending item. The category must be
// known to rules and not already at its maximum.
func (s *Session) AddItem(item *model.UploadItem, rules Rules) error {
	limit, ok := rules[item.Category]
	if !ok {
		return apperr.ErrUnknownCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	count := 0
	for _, it := range s.items {
		if it.Category == item.Category {
			count++
		}
	}
	if count >= limit.Max {
		return apperr.ErrCategoryFull
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Size == 0 {
		item.Size = int64(len(item.Content))
	}
	item.State = model.ItemPending
	item.Key = ""
	item.Error = ""
	item.BytesSent = 0
	s.items = append(s.items, item)
	s.touch()
	return nil
}

// RemoveItem discards a selected file. Its object, if any, stays in storage.
func (s *Session) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.touch()
			return nil
		}
	}
	return apperr.ErrItemNotFound
}

// Reset clears the form and every item. A submitted draft can be reset to
// start over; a draft in flight cannot.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseEditing && s.phase != model.PhaseDone {
		return apperr.ErrDraftBusy
	}
	s.phase = model.PhaseEditing
	s.form = model.StudioForm{}
	s.items = nil
	s.lastErr = nil
	s.studioID = 0
	s.touch()
	return nil
}

// Snapshot copies the draft for display. File contents are not included.
func (s *Session) Snapshot() model.DraftView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := model.DraftView{
		ID:        s.id,
		Phase:     s.phase,
		Form:      s.form,
		Items:     s.copyItems(),
		StudioID:  s.studioID,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.lastErr != nil {
		view.LastError = s.lastErr.Error()
	}
	return view
}

// copyItems must be called with the lock held.
func (s *Session) copyItems() []model.UploadItem {
	out := make([]model.UploadItem, len(s.items))
	for i, it := range s.items {
		out[i] = *it
		out[i].Content = nil
	}
	return out
}

func (s *Session) itemsCopy() []model.UploadItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyItems()
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

// begin moves an Editing draft into Validating.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.phase = model.PhaseValidating
	s.lastErr = nil
	s.touch()
	return nil
}

func (s *Session) setPhase(p model.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
	s.touch()
}

// fail returns the draft to Editing and remembers why.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = model.PhaseEditing
	s.lastErr = err
	s.touch()
}

func (s *Session) finish(studioID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = model.PhaseDone
	s.studioID = studioID
	s.touch()
}

// uploadable returns the items that still need a successful upload.
func (s *Session) uploadable() []*model.UploadItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.UploadItem
	for _, it := range s.items {
		if it.State != model.ItemSucceeded {
			out = append(out, it)
		}
	}
	return out
}

func (s *Session) markInFlight(it *model.UploadItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.State = model.ItemInFlight
	it.Attempts++
	it.Key = ""
	it.Error = ""
	it.BytesSent = 0
	s.touch()
}

func (s *Session) addProgress(it *model.UploadItem, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.BytesSent += n
}

// markFailed never keeps a key: an object whose write failed is not referenced.
func (s *Session) markFailed(it *model.UploadItem, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.State = model.ItemFailed
	it.Key = ""
	it.Error = err.Error()
	s.touch()
}

func (s *Session) markSucceeded(it *model.UploadItem, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.State = model.ItemSucceeded
	it.Key = key
	it.Error = ""
	it.BytesSent = it.Size
	s.touch()
}
