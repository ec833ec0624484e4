package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"ai-stylist/internal/imagedata"
	"ai-stylist/internal/stylist"
)

type Stylist interface {
	GenerateSuggestions(ctx context.Context, closeup, fullBody imagedata.Image, occasion, style string) (stylist.StyleSuggestion, error)
	SynthesizeStyledImage(ctx context.Context, closeup, fullBody imagedata.Image, suggestion stylist.StyleSuggestion, occasion, style string) (imagedata.Image, error)
	RefineStyledImage(ctx context.Context, base imagedata.Image, instruction string, closeup imagedata.Image) (imagedata.Image, error)
}

// Orchestrator owns one Session. The lock is never held across a round
// trip; the busy states keep a second generate or refine from starting.
type Orchestrator struct {
	mu      sync.Mutex
	sess    Session
	stylist Stylist
	logger  *slog.Logger
	now     func() time.Time
}

func NewOrchestrator(id string, st Stylist, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := &Orchestrator{
		stylist: st,
		logger:  logger.With("session", id),
		now:     time.Now,
	}
	o.sess = newSession(id, o.now())
	return o
}

func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess
}

func (o *Orchestrator) SetImage(slot Slot, img imagedata.Image) (Session, error) {
	return o.apply(func(s Session, now time.Time) (Session, error) {
		return s.withInput(slot, img, now)
	})
}

func (o *Orchestrator) ClearImage(slot Slot) (Session, error) {
	return o.SetImage(slot, "")
}

func (o *Orchestrator) SetPreferences(occasion, style string) (Session, error) {
	return o.apply(func(s Session, now time.Time) (Session, error) {
		return s.withPreferences(occasion, style, now)
	})
}

// Reset drops the reference photos and every derived result.
func (o *Orchestrator) Reset() (Session, error) {
	return o.apply(func(s Session, now time.Time) (Session, error) {
		if s.State.Busy() {
			return s, ErrBusy
		}
		next := newSession(s.ID, s.CreatedAt)
		next.UpdatedAt = now
		return next, nil
	})
}

// Generate runs analysis then synthesis. Synthesis only starts after a
// successful analysis. The round trips are detached from ctx cancellation.
func (o *Orchestrator) Generate(ctx context.Context) (Session, error) {
	started, err := o.apply(func(s Session, now time.Time) (Session, error) {
		return s.beginGenerate(now)
	})
	if err != nil {
		return started, err
	}

	ctx = context.WithoutCancel(ctx)
	o.logger.Info("generate started", "occasion", started.Occasion, "style", started.Style)

	suggestion, err := o.stylist.GenerateSuggestions(ctx, started.Closeup, started.FullBody, started.Occasion, started.Style)
	if err != nil {
		o.logger.Error("suggestion generation failed", "err", err, "kind", stylist.KindOf(err))
		return o.finish(func(s Session, now time.Time) Session { return s.generateFailed(err, now) }), err
	}
	o.finish(func(s Session, now time.Time) Session { return s.analysed(suggestion, now) })

	img, err := o.stylist.SynthesizeStyledImage(ctx, started.Closeup, started.FullBody, suggestion, started.Occasion, started.Style)
	if err != nil {
		o.logger.Error("image synthesis failed", "err", err, "kind", stylist.KindOf(err))
		return o.finish(func(s Session, now time.Time) Session { return s.generateFailed(err, now) }), err
	}

	o.logger.Info("generate finished", "face_shape", suggestion.FaceShape, "body_shape", suggestion.BodyShape)
	return o.finish(func(s Session, now time.Time) Session { return s.generated(img, now) }), nil
}

// Refine edits the current styled image. A failure keeps the previous image.
func (o *Orchestrator) Refine(ctx context.Context, instruction string) (Session, error) {
	started, err := o.apply(func(s Session, now time.Time) (Session, error) {
		return s.beginRefine(instruction, now)
	})
	if err != nil {
		return started, err
	}

	ctx = context.WithoutCancel(ctx)
	o.logger.Info("refine started", "instruction", instruction, "round", len(started.Refinements)+1)

	img, err := o.stylist.RefineStyledImage(ctx, started.StyledImage, instruction, started.Closeup)
	if err != nil {
		o.logger.Error("image refinement failed", "err", err, "kind", stylist.KindOf(err))
		return o.finish(func(s Session, now time.Time) Session { return s.refineFailed(err, now) }), err
	}

	return o.finish(func(s Session, now time.Time) Session { return s.refined(instruction, img, now) }), nil
}

func (o *Orchestrator) apply(fn func(Session, time.Time) (Session, error)) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, err := fn(o.sess, o.now())
	if err != nil {
		return o.sess, err
	}
	o.sess = next
	return next, nil
}

func (o *Orchestrator) finish(fn func(Session, time.Time) Session) Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sess = fn(o.sess, o.now())
	return o.sess
}
