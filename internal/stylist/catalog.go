package stylist

import "strings"

// StyleAuto leaves the style choice to the model.
const StyleAuto = "Let AI Decide"

type NamedOption struct {
	Key  string
	Name string
}

var styleOrder = []NamedOption{
	{Key: "auto", Name: StyleAuto},
	{Key: "streetwear", Name: "Streetwear"},
	{Key: "casual", Name: "Casual"},
	{Key: "business_casual", Name: "Business Casual"},
	{Key: "formal", Name: "Formal"},
	{Key: "vintage", Name: "Vintage"},
	{Key: "bohemian", Name: "Bohemian"},
	{Key: "minimalist", Name: "Minimalist"},
	{Key: "sporty", Name: "Sporty"},
}

func StyleCategories() []NamedOption {
	out := make([]NamedOption, len(styleOrder))
	copy(out, styleOrder)
	return out
}

// LookupStyle resolves a key or display name case-insensitively. An empty
// value resolves to StyleAuto.
func LookupStyle(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return StyleAuto, true
	}
	for _, opt := range styleOrder {
		if strings.EqualFold(opt.Key, value) || strings.EqualFold(opt.Name, value) {
			return opt.Name, true
		}
	}
	return "", false
}

func isAutoStyle(style string) bool {
	style = strings.TrimSpace(style)
	return style == "" || strings.EqualFold(style, StyleAuto)
}
