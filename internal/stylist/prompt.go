package stylist

import (
	"fmt"
	"strings"
)

// AspectRatio of every synthesized or refined image.
const AspectRatio = "9:16"

const (
	defaultOccasion   = "Not specified"
	autoStyleLine     = "You have complete creative freedom."
	defaultBackground = "A fashionable, neutral setting"
	defaultAesthetic  = "Modern and fashionable"
)

const (
	labelCloseup     = "Closeup Photo:"
	labelFullBody    = "Full Body Photo:"
	labelRefCloseup  = "REFERENCE CLOSEUP PHOTO (FOR FACE):"
	labelRefFullBody = "REFERENCE FULL BODY PHOTO (FOR BODY):"
	labelEditInstr   = "EDIT INSTRUCTION:"
	labelBaseImage   = "BASE IMAGE (TO BE EDITED):"
)

func suggestionPrompt(occasion, style string) string {
	occasionLine := strings.TrimSpace(occasion)
	if occasionLine == "" {
		occasionLine = defaultOccasion
	}
	styleLine := strings.TrimSpace(style)
	if isAutoStyle(style) {
		styleLine = autoStyleLine
	}

	var b strings.Builder
	b.Grow(2048)

	b.WriteString("ROLE: You are a world-class personal stylist. Two photos of the same person are attached: a closeup and a full body shot.\n")
	b.WriteString("Determine their face shape and body shape, then build one complete, personalized look.\n\n")

	b.WriteString("CONTEXT:\n")
	b.WriteString("- Occasion: " + occasionLine + "\n")
	b.WriteString("- Preferred Style: " + styleLine + "\n\n")

	b.WriteString("ANALYSIS:\n")
	writeSection(&b, "Face shape (from the closeup photo)", []string{
		"Pick one of Oval, Round, Square, Heart, Diamond or a close equivalent",
	})
	writeSection(&b, "Body shape (from the full body photo)", []string{
		"Pick one of Hourglass, Pear, Apple, Rectangle, Inverted Triangle or a close equivalent",
	})
	b.WriteString("\n")

	b.WriteString("RECOMMENDATIONS (specific and fashionable, one entry per category):\n")
	writeSection(&b, "outfit", []string{"A complete outfit"})
	writeSection(&b, "sunglasses", []string{"A frame style that complements the face shape"})
	writeSection(&b, "accessories", []string{"Watch, necklace, bracelet, bag or similar"})
	writeSection(&b, "shoes", []string{"Footwear that completes the look"})
	b.WriteString("Each category has an \"item\" (short name) and a \"description\" (why it suits this person).\n\n")

	b.WriteString("REASONING:\n")
	b.WriteString("- overallReasoning: why these pieces form a cohesive, flattering look for this person, the occasion and the style preference.\n\n")

	b.WriteString("OUTPUT RULES:\n")
	b.WriteString("- Return exactly one raw JSON object that follows the provided schema.\n")
	b.WriteString("- No markdown fences, no text before or after the object.\n")

	return b.String()
}

func synthesisPrompt(s StyleSuggestion, occasion, style string) string {
	background := strings.TrimSpace(occasion)
	if background == "" {
		background = defaultBackground
	}
	aesthetic := strings.TrimSpace(style)
	if isAutoStyle(style) {
		aesthetic = defaultAesthetic
	}

	var b strings.Builder
	b.Grow(2048)

	b.WriteString("HIGHEST PRIORITY: EXACT FACE REPLICATION\n")
	b.WriteString("- Replicate the face from the CLOSEUP PHOTO with 100% accuracy.\n")
	b.WriteString("- The generated face MUST be an exact, photorealistic copy of the person's face.\n")
	b.WriteString("- DO NOT ALTER facial features, skin tone, hair style or expression. This is not optional.\n\n")

	b.WriteString("GOAL: A photorealistic, high-resolution, full-body photo of this person wearing the recommended look.\n\n")

	b.WriteString("REQUIREMENTS:\n")
	writeSection(&b, "Body shape", []string{
		"The body shape MUST match the FULL BODY PHOTO",
	})

	outfitLines := make([]string, 0, 4)
	for _, c := range s.Categories() {
		outfitLines = append(outfitLines, fmt.Sprintf("%s: %s - %s", c.Name, c.Item, c.Description))
	}
	writeSection(&b, "Styled outfit (follow each description precisely)", outfitLines)

	writeSection(&b, "Background and aesthetic", []string{
		"Setting appropriate for the occasion: \"" + background + "\"",
		"Overall image style: \"" + aesthetic + "\"",
		"Professional fashion lookbook photography",
	})
	writeSection(&b, "Image format", []string{
		"Aspect ratio " + AspectRatio + " (portrait), suitable for social media stories",
		"Highest available resolution",
	})

	return b.String()
}

func refinementPrompt(instruction string) string {
	var b strings.Builder
	b.Grow(1024)

	b.WriteString("HIGHEST PRIORITY: FACE PRESERVATION\n")
	b.WriteString("- Preserve the face from the REFERENCE CLOSEUP PHOTO with 100% accuracy.\n")
	b.WriteString("- The face in the edited image MUST remain an exact, photorealistic copy of the closeup face.\n")
	b.WriteString("- DO NOT ALTER facial features, skin tone, hair style or expression. This is not optional.\n\n")

	b.WriteString("GOAL: Edit the BASE IMAGE according to the edit instruction while keeping the face intact.\n\n")

	b.WriteString("REQUIREMENTS:\n")
	writeSection(&b, "Apply the edit", []string{
		"Change to apply: \"" + instruction + "\"",
		"Apply only this change; keep the rest of the outfit and background as they are",
	})
	writeSection(&b, "Quality and composition", []string{
		"High-resolution, photorealistic result",
		"Keep the original composition, lighting and " + AspectRatio + " aspect ratio",
	})

	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + title + ":\n")
	for _, line := range lines {
		b.WriteString("  - " + line + "\n")
	}
}
