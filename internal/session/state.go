package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-stylist/internal/imagedata"
	"ai-stylist/internal/stylist"
)

type State int

const (
	StateIdle State = iota
	StateGenerating
	StateReady
	StateRefining
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateReady:
		return "ready"
	case StateRefining:
		return "refining"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for candidate := StateIdle; candidate <= StateFailed; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

// Busy reports whether a round trip is in flight.
func (s State) Busy() bool {
	return s == StateGenerating || s == StateRefining
}

type Slot string

const (
	SlotCloseup  Slot = "closeup"
	SlotFullBody Slot = "full_body"
)

func ParseSlot(value string) (Slot, bool) {
	switch Slot(strings.ToLower(strings.TrimSpace(value))) {
	case SlotCloseup:
		return SlotCloseup, true
	case SlotFullBody, "fullbody", "full-body":
		return SlotFullBody, true
	}
	return "", false
}

var ErrBusy = errors.New("a request is already in progress")

// Session is replaced wholesale on every transition; the methods below
// never modify their receiver.
type Session struct {
	ID string

	State State

	Closeup  imagedata.Image
	FullBody imagedata.Image
	Occasion string
	Style    string

	Suggestion  *stylist.StyleSuggestion
	StyledImage imagedata.Image
	Refinements []string

	Err     string
	ErrKind stylist.Kind

	CreatedAt time.Time
	UpdatedAt time.Time
}

func newSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		State:     StateIdle,
		Style:     stylist.StyleAuto,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) HasInputs() bool {
	return !s.Closeup.IsZero() && !s.FullBody.IsZero()
}

func (s Session) Image(slot Slot) imagedata.Image {
	if slot == SlotCloseup {
		return s.Closeup
	}
	return s.FullBody
}

// withInput replaces one reference photo. A zero image clears the slot.
// Downstream results are discarded either way.
func (s Session) withInput(slot Slot, img imagedata.Image, now time.Time) (Session, error) {
	if s.State.Busy() {
		return s, ErrBusy
	}
	next := s.restarted(now)
	switch slot {
	case SlotCloseup:
		next.Closeup = img
	case SlotFullBody:
		next.FullBody = img
	}
	return next, nil
}

func (s Session) withPreferences(occasion, style string, now time.Time) (Session, error) {
	if s.State.Busy() {
		return s, ErrBusy
	}
	next := s
	next.Occasion = strings.TrimSpace(occasion)
	next.Style = style
	next.UpdatedAt = now
	return next, nil
}

// restarted keeps inputs and preferences and drops everything derived.
func (s Session) restarted(now time.Time) Session {
	next := s
	next.State = StateIdle
	next.Suggestion = nil
	next.StyledImage = ""
	next.Refinements = nil
	next.Err = ""
	next.ErrKind = ""
	next.UpdatedAt = now
	return next
}

func (s Session) beginGenerate(now time.Time) (Session, error) {
	if s.State.Busy() {
		return s, ErrBusy
	}
	if !s.HasInputs() {
		return s, stylist.ErrMissingImages
	}
	next := s.restarted(now)
	next.State = StateGenerating
	return next, nil
}

func (s Session) analysed(suggestion stylist.StyleSuggestion, now time.Time) Session {
	next := s
	next.Suggestion = &suggestion
	next.UpdatedAt = now
	return next
}

func (s Session) generated(img imagedata.Image, now time.Time) Session {
	next := s
	next.State = StateReady
	next.StyledImage = img
	next.UpdatedAt = now
	return next
}

func (s Session) generateFailed(err error, now time.Time) Session {
	next := s
	next.State = StateFailed
	next.StyledImage = ""
	next.Err = stylist.UserMessage(err, stylist.FallbackGenerateMessage)
	next.ErrKind = stylist.KindOf(err)
	next.UpdatedAt = now
	return next
}

func (s Session) beginRefine(instruction string, now time.Time) (Session, error) {
	if s.State.Busy() {
		return s, ErrBusy
	}
	if s.State != StateReady || s.StyledImage.IsZero() || s.Closeup.IsZero() {
		return s, stylist.ErrNoStyledImage
	}
	if strings.TrimSpace(instruction) == "" {
		return s, stylist.ErrEmptyInstruction
	}
	next := s
	next.State = StateRefining
	next.Err = ""
	next.ErrKind = ""
	next.UpdatedAt = now
	return next, nil
}

func (s Session) refined(instruction string, img imagedata.Image, now time.Time) Session {
	next := s
	next.State = StateReady
	next.StyledImage = img
	next.Refinements = append(append([]string(nil), s.Refinements...), strings.TrimSpace(instruction))
	next.UpdatedAt = now
	return next
}

// refineFailed returns to Ready with the previous image and suggestion.
func (s Session) refineFailed(err error, now time.Time) Session {
	next := s
	next.State = StateReady
	next.Err = stylist.UserMessage(err, stylist.FallbackRefineMessage)
	next.ErrKind = stylist.KindOf(err)
	next.UpdatedAt = now
	return next
}
