package upload

import (
	"context"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
)

// Submitter sends the composite studio payload.
type Submitter interface {
	CreateStudio(ctx context.Context, req *model.StudioCreateRequest) (*model.StudioCreated, error)
}

// Flow drives a session through validation, upload and submission.
type Flow struct {
	coordinator *Coordinator
	submitter   Submitter
	rules       Rules
}

func NewFlow(coordinator *Coordinator, submitter Submitter, rules Rules) *Flow {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Flow{coordinator: coordinator, submitter: submitter, rules: rules}
}

func (f *Flow) Rules() Rules { return f.rules }

// Submit validates the draft, uploads outstanding images and issues exactly
// one create call. On any failure the session returns to Editing with the
// error recorded; images that already succeeded keep their keys and are not
// sent again on the next attempt. The create call is never retried here.
func (f *Flow) Submit(ctx context.Context, s *Session) (*model.StudioCreated, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	return f.run(ctx, s)
}

// Start claims the session and runs the rest of the submission in the
// background. The session has left Editing when Start returns, so it can no
// longer be edited, deleted or evicted until the run settles. done, if not
// nil, receives the outcome.
func (f *Flow) Start(ctx context.Context, s *Session, done func(*model.StudioCreated, error)) error {
	if err := s.begin(); err != nil {
		return err
	}
	go func() {
		created, err := f.run(ctx, s)
		if done != nil {
			done(created, err)
		}
	}()
	return nil
}

func (f *Flow) run(ctx context.Context, s *Session) (*model.StudioCreated, error) {
	ctx = logger.WithDraft(ctx, s.ID())

	if err := Validate(s.Form(), s.itemsCopy(), f.rules); err != nil {
		s.fail(err)
		logger.Info(ctx, "Draft rejected by validation", "error", err)
		return nil, err
	}

	s.setPhase(model.PhaseUploading)
	if err := f.coordinator.Upload(ctx, s); err != nil {
		s.fail(err)
		return nil, err
	}

	req, err := BuildStudio(s.Form(), s.itemsCopy(), f.rules)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.setPhase(model.PhaseSubmitting)
	created, err := f.submitter.CreateStudio(ctx, req)
	if err != nil {
		s.fail(err)
		logger.Error(ctx, "Studio creation failed, uploaded objects are left unreferenced",
			"objects", len(req.ImageKeys.AllKeys()), "error", err)
		return nil, err
	}

	if created == nil {
		created = &model.StudioCreated{}
	}
	s.finish(created.StudioID)
	logger.Info(ctx, "Studio created", "studio_id", created.StudioID, "images", len(req.ImageKeys.AllKeys()))
	return created, nil
}
