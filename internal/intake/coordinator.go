// Package intake turns a posted application into stored rows.  A submission
// moves through Validating, WritingParent and WritingChildren and ends in
// Committed or Failed; Failed always means no rows were persisted and the
// uploaded resume was removed again.
package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/queue"
	"github.com/joshuacenter/applicant-intake/internal/repository"
)

// State is a step of the submission state machine.
type State uint8

const (
	StateValidating State = iota
	StateWritingParent
	StateWritingChildren
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateWritingParent:
		return "writing_parent"
	case StateWritingChildren:
		return "writing_children"
	case StateCommitted:
		return "committed"
	default:
		return "failed"
	}
}

// SubmissionError reports the state in which a submission failed.  The
// kind of the wrapped error decides the HTTP status.
type SubmissionError struct {
	State State
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed while %s: %v", e.State, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Store runs fn inside one atomic unit of work.  If fn returns an error
// nothing it wrote may remain visible.
type Store interface {
	WithSubmission(ctx context.Context, fn func(ctx context.Context, w repository.SubmissionWriter) error) error
}

// DocumentStore persists the resume.  Save must reject non-PDF content
// with a validation error.
type DocumentStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Remove(path string) error
}

// EventPublisher receives a notification after commit.
type EventPublisher interface {
	PublishApplicationSubmitted(ctx context.Context, ev queue.ApplicationSubmittedEvent) error
}

// Result is returned for a committed submission.
type Result struct {
	ApplicantID uint64
	ResumePath  string
}

// Service is the submission coordinator.
type Service struct {
	validator *Validator
	store     Store
	docs      DocumentStore
	events    EventPublisher
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewService wires a coordinator.  events may be nil.  A zero timeout
// leaves the request context as the only bound.
func NewService(v *Validator, store Store, docs DocumentStore, events EventPublisher, logger *slog.Logger, timeout time.Duration) *Service {
	return &Service{
		validator: v,
		store:     store,
		docs:      docs,
		events:    events,
		logger:    logger,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Submit validates raw, stores the resume and writes the applicant with
// all of its references and applied locations in one transaction.  The
// child rows are written concurrently once the applicant id is known.
func (s *Service) Submit(ctx context.Context, raw RawSubmission) (Result, error) {
	sub, doc, err := s.validator.Validate(raw)
	if err != nil {
		return Result{}, s.fail(StateValidating, 0, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resumePath, err := s.docs.Save(ctx, doc.Content)
	if err != nil {
		return Result{}, s.fail(StateValidating, 0, err)
	}

	state := StateWritingParent
	var id uint64
	err = s.store.WithSubmission(ctx, func(ctx context.Context, w repository.SubmissionWriter) error {
		s.logger.Debug("submission state", "state", StateWritingParent.String(), "email", sub.Email)
		newID, err := w.CreateApplicant(ctx, sub.applicant(resumePath))
		if err != nil {
			return err
		}
		id = newID

		state = StateWritingChildren
		s.logger.Debug("submission state", "state", StateWritingChildren.String(), "applicant_id", id)
		refs := sub.references()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return w.CreateReferences(gctx, id, refs) })
		g.Go(func() error { return w.CreateAppliedLocations(gctx, id, sub.Locations) })
		return g.Wait()
	})
	if err != nil {
		if rerr := s.docs.Remove(resumePath); rerr != nil {
			s.logger.Warn("could not remove resume of failed submission", "path", resumePath, "err", rerr)
		}
		return Result{}, s.fail(state, id, err)
	}

	s.logger.Info("application submitted", "applicant_id", id, "references", len(sub.References), "locations", len(sub.Locations))
	s.publish(ctx, queue.ApplicationSubmittedEvent{
		ApplicantID:    id,
		Email:          sub.Email,
		Name:           sub.Name,
		ReferenceCount: len(sub.References),
		LocationIDs:    sub.Locations,
		SubmittedAt:    s.now().UTC().Format(time.RFC3339),
	})
	return Result{ApplicantID: id, ResumePath: resumePath}, nil
}

// fail logs at debug level only; storage faults are reported once, by the
// HTTP layer.
func (s *Service) fail(state State, id uint64, err error) error {
	s.logger.Debug("submission failed", "state", state.String(), "kind", apperr.KindOf(err).String(), "applicant_id", id, "err", err)
	return &SubmissionError{State: state, Err: err}
}

// publish is best-effort: the submission has already committed, so a
// broker failure is only logged.
func (s *Service) publish(ctx context.Context, ev queue.ApplicationSubmittedEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.PublishApplicationSubmitted(ctx, ev); err != nil {
		s.logger.Warn("publish applicant.submitted failed", "applicant_id", ev.ApplicantID, "err", err)
	}
}
