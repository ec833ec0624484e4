package web

import (
	"encoding/json"
	"net/http"
	"time"

	"ai-stylist/internal/imagedata"
	"ai-stylist/internal/session"
	"ai-stylist/internal/stylist"
)

type imageView struct {
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type sessionView struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`

	HasCloseup  bool       `json:"has_closeup"`
	HasFullBody bool       `json:"has_full_body"`
	Closeup     *imageView `json:"closeup,omitempty"`
	FullBody    *imageView `json:"full_body,omitempty"`

	Occasion string `json:"occasion"`
	Style    string `json:"style"`

	Suggestion  *stylist.StyleSuggestion `json:"suggestion,omitempty"`
	StyledImage string                   `json:"styled_image,omitempty"`
	Refinements []string                 `json:"refinements,omitempty"`

	Generating bool `json:"generating"`
	Refining   bool `json:"refining"`

	Error  string       `json:"error,omitempty"`
	Kind   stylist.Kind `json:"kind,omitempty"`
	Notice string       `json:"notice,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func newSessionView(s session.Session) sessionView {
	return sessionView{
		ID:          s.ID,
		State:       s.State,
		HasCloseup:  !s.Closeup.IsZero(),
		HasFullBody: !s.FullBody.IsZero(),
		Closeup:     probeView(s.Closeup),
		FullBody:    probeView(s.FullBody),
		Occasion:    s.Occasion,
		Style:       s.Style,
		Suggestion:  s.Suggestion,
		StyledImage: s.StyledImage.String(),
		Refinements: s.Refinements,
		Generating:  s.State == session.StateGenerating,
		Refining:    s.State == session.StateRefining,
		Error:       s.Err,
		Kind:        s.ErrKind,
		UpdatedAt:   s.UpdatedAt,
	}
}

// probeView is nil for an empty slot. Formats the decoder does not know
// still count as present, just without dimensions.
func probeView(img imagedata.Image) *imageView {
	if img.IsZero() {
		return nil
	}
	info, err := imagedata.Probe(img)
	if err != nil {
		return &imageView{}
	}
	return &imageView{Format: info.Format, Width: info.Width, Height: info.Height}
}

type styleView struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type apiError struct {
	Error   string       `json:"error"`
	Kind    stylist.Kind `json:"kind,omitempty"`
	Session *sessionView `json:"session,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
