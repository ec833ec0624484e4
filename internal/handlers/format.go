package handlers

import (
	"fmt"
	"strings"

	"ai-stylist/internal/session"
	"ai-stylist/internal/stylist"
)

func formatSuggestion(s stylist.StyleSuggestion) string {
	var b strings.Builder
	b.WriteString("✨ Your style analysis\n\n")
	fmt.Fprintf(&b, "Face shape: %s\n", s.FaceShape)
	fmt.Fprintf(&b, "Body shape: %s\n\n", s.BodyShape)
	for _, c := range s.Categories() {
		fmt.Fprintf(&b, "%s: %s\n%s\n\n", c.Name, c.Item, c.Description)
	}
	b.WriteString("Why it works:\n")
	b.WriteString(s.OverallReasoning)
	return b.String()
}

func formatStatus(s session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", s.State)
	fmt.Fprintf(&b, "Closeup photo: %s\n", present(!s.Closeup.IsZero()))
	fmt.Fprintf(&b, "Full body photo: %s\n", present(!s.FullBody.IsZero()))

	occasion := s.Occasion
	if occasion == "" {
		occasion = "not set"
	}
	fmt.Fprintf(&b, "Occasion: %s\n", occasion)
	fmt.Fprintf(&b, "Style: %s\n", s.Style)

	if !s.StyledImage.IsZero() {
		fmt.Fprintf(&b, "Styled image: ready (%d refinements)\n", len(s.Refinements))
	}
	if s.Err != "" {
		fmt.Fprintf(&b, "Last error: %s\n", s.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}

func present(ok bool) string {
	if ok {
		return "✅"
	}
	return "missing"
}

const helpText = "👗 AI Stylist\n\n" +
	"Send me two photos: a closeup of your face and a full body shot. " +
	"Caption them \"face\" and \"body\", or send them as one album (closeup first).\n\n" +
	"Commands:\n" +
	"/styles - pick a style\n" +
	"/style <name> - set the style directly\n" +
	"/occasion <text> - e.g. /occasion summer wedding\n" +
	"/generate - analyse and create your styled look\n" +
	"/refine <change> - edit the styled image, e.g. /refine make the jacket red\n" +
	"/download - get the styled image as a file\n" +
	"/status - show what I have so far\n" +
	"/reset - start over\n\n" +
	"Once a look is ready, any plain message is treated as a refinement."
