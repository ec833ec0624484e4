package handlers

import (
	"strings"

	"ai-stylist/internal/session"
)

var (
	closeupWords  = []string{"closeup", "close-up", "close up", "face", "selfie", "headshot", "portrait"}
	fullBodyWords = []string{"full body", "full-body", "fullbody", "body", "full", "outfit", "figure"}
)

// slotFromCaption reads an explicit slot hint. Closeup words win when both
// kinds appear.
func slotFromCaption(caption string) (session.Slot, bool) {
	c := strings.ToLower(strings.TrimSpace(caption))
	if c == "" {
		return "", false
	}
	for _, kw := range closeupWords {
		if strings.Contains(c, kw) {
			return session.SlotCloseup, true
		}
	}
	for _, kw := range fullBodyWords {
		if strings.Contains(c, kw) {
			return session.SlotFullBody, true
		}
	}
	return "", false
}

// chooseSlot falls back to the first empty slot. It reports false when
// both are taken and the caption gives no hint.
func chooseSlot(caption string, sess session.Session) (session.Slot, bool) {
	if slot, ok := slotFromCaption(caption); ok {
		return slot, true
	}
	switch {
	case sess.Closeup.IsZero():
		return session.SlotCloseup, true
	case sess.FullBody.IsZero():
		return session.SlotFullBody, true
	}
	return "", false
}

func slotLabel(slot session.Slot) string {
	if slot == session.SlotCloseup {
		return "Closeup photo"
	}
	return "Full body photo"
}
