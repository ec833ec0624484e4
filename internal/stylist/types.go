package stylist

type SuggestionItem struct {
	Item        string `json:"item"`
	Description string `json:"description"`
}

type StyleSuggestion struct {
	FaceShape        string         `json:"faceShape"`
	BodyShape        string         `json:"bodyShape"`
	Outfit           SuggestionItem `json:"outfit"`
	Sunglasses       SuggestionItem `json:"sunglasses"`
	Accessories      SuggestionItem `json:"accessories"`
	Shoes            SuggestionItem `json:"shoes"`
	OverallReasoning string         `json:"overallReasoning"`
}

// Categories lists the four recommendation slots in display order.
func (s StyleSuggestion) Categories() []NamedItem {
	return []NamedItem{
		{Name: "Outfit", SuggestionItem: s.Outfit},
		{Name: "Sunglasses", SuggestionItem: s.Sunglasses},
		{Name: "Accessories", SuggestionItem: s.Accessories},
		{Name: "Shoes", SuggestionItem: s.Shoes},
	}
}

type NamedItem struct {
	Name string
	SuggestionItem
}
