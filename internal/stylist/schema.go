package stylist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-stylist/internal/gemini"
)

func suggestionItemSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"item":        {Type: gemini.TypeString, Description: "The name of the suggested item (e.g., 'Classic Aviator Sunglasses')."},
			"description": {Type: gemini.TypeString, Description: "A brief reason why this item is a good choice for the user."},
		},
		Required:         []string{"item", "description"},
		PropertyOrdering: []string{"item", "description"},
	}
}

// SuggestionSchema is the response schema sent with every suggestion
// request. All seven top-level fields are required.
func SuggestionSchema() *gemini.Schema {
	fields := []string{"faceShape", "bodyShape", "outfit", "sunglasses", "accessories", "shoes", "overallReasoning"}
	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"faceShape":        {Type: gemini.TypeString, Description: "The identified face shape of the person."},
			"bodyShape":        {Type: gemini.TypeString, Description: "The identified body shape of the person."},
			"outfit":           suggestionItemSchema(),
			"sunglasses":       suggestionItemSchema(),
			"accessories":      suggestionItemSchema(),
			"shoes":            suggestionItemSchema(),
			"overallReasoning": {Type: gemini.TypeString, Description: "A summary explaining the styling choices."},
		},
		Required:         fields,
		PropertyOrdering: fields,
	}
}

type rawItem struct {
	Item        *string `json:"item"`
	Description *string `json:"description"`
}

type rawSuggestion struct {
	FaceShape        *string  `json:"faceShape"`
	BodyShape        *string  `json:"bodyShape"`
	Outfit           *rawItem `json:"outfit"`
	Sunglasses       *rawItem `json:"sunglasses"`
	Accessories      *rawItem `json:"accessories"`
	Shoes            *rawItem `json:"shoes"`
	OverallReasoning *string  `json:"overallReasoning"`
}

// DecodeSuggestion parses the model's JSON text. Values are copied as is;
// any missing required field rejects the whole result.
func DecodeSuggestion(text string) (StyleSuggestion, error) {
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return StyleSuggestion{}, fmt.Errorf("unmarshal suggestion: %w", err)
	}

	var missing []string
	str := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return *v
	}
	item := func(name string, v *rawItem) SuggestionItem {
		if v == nil {
			missing = append(missing, name)
			return SuggestionItem{}
		}
		return SuggestionItem{
			Item:        str(name+".item", v.Item),
			Description: str(name+".description", v.Description),
		}
	}

	out := StyleSuggestion{
		FaceShape:        str("faceShape", raw.FaceShape),
		BodyShape:        str("bodyShape", raw.BodyShape),
		Outfit:           item("outfit", raw.Outfit),
		Sunglasses:       item("sunglasses", raw.Sunglasses),
		Accessories:      item("accessories", raw.Accessories),
		Shoes:            item("shoes", raw.Shoes),
		OverallReasoning: str("overallReasoning", raw.OverallReasoning),
	}
	if len(missing) > 0 {
		return StyleSuggestion{}, errors.New("missing required fields: " + strings.Join(missing, ", "))
	}
	return out, nil
}
