package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"ai-stylist/internal/stylist"
)

type preferencesRequest struct {
	Occasion string `json:"occasion" validate:"max=200"`
	Style    string `json:"style" validate:"known_style"`
}

type refineRequest struct {
	Instruction string `json:"instruction" validate:"max=2000"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("known_style", validateKnownStyle)
	return v
}

func validateKnownStyle(fl validator.FieldLevel) bool {
	_, ok := stylist.LookupStyle(fl.Field().String())
	return ok
}

// validationMessage turns validator output into one sentence for the page.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request."
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters.", strings.ToLower(fe.Field()), fe.Param()))
		case "known_style":
			msgs = append(msgs, fmt.Sprintf("Unknown style %q.", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid.", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(msgs, " ")
}
