package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bububa/calorielens/components"
)

// foodItemPayload mirrors FoodItem with pointers so that a missing or null field
// can be told apart from a zero value.
type foodItemPayload struct {
	Name           *string  `json:"name" validate:"required,min=1"`
	QuantityG      *float64 `json:"quantity_g" validate:"required,gte=0"`
	CaloriesKcal   *float64 `json:"calories_kcal" validate:"required,gte=0"`
	ProteinG       *float64 `json:"protein_g" validate:"required,gte=0"`
	CarbsG         *float64 `json:"carbs_g" validate:"required,gte=0"`
	FatG           *float64 `json:"fat_g" validate:"required,gte=0"`
	ReasoningShort *string  `json:"reasoning_short"`
}

type estimatePayload struct {
	Items             []*foodItemPayload `json:"items" validate:"required,dive,required"`
	TotalCaloriesKcal *float64           `json:"total_calories_kcal" validate:"required,gte=0"`
	TotalProteinG     *float64           `json:"total_protein_g" validate:"required,gte=0"`
	TotalCarbsG       *float64           `json:"total_carbs_g" validate:"required,gte=0"`
	TotalFatG         *float64           `json:"total_fat_g" validate:"required,gte=0"`
	Notes             *string            `json:"notes"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses a raw model response into a NutritionEstimate.
// Validation is all-or-nothing: any syntax error, unknown field, wrong type,
// missing required field or negative number returns a SchemaValidationError
// carrying raw, never a partial estimate.
func Decode(raw string) (*NutritionEstimate, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var payload estimatePayload
	if err := dec.Decode(&payload); err != nil {
		return nil, &components.SchemaValidationError{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &components.SchemaValidationError{Raw: raw, Err: errors.New("unexpected data after JSON object")}
	}
	if err := validate.Struct(&payload); err != nil {
		return nil, &components.SchemaValidationError{Raw: raw, Err: describeValidation(err)}
	}
	return payload.estimate(), nil
}

func (p *estimatePayload) estimate() *NutritionEstimate {
	ret := &NutritionEstimate{
		Items:             make([]FoodItem, 0, len(p.Items)),
		TotalCaloriesKcal: *p.TotalCaloriesKcal,
		TotalProteinG:     *p.TotalProteinG,
		TotalCarbsG:       *p.TotalCarbsG,
		TotalFatG:         *p.TotalFatG,
		Notes:             p.Notes,
	}
	for _, item := range p.Items {
		ret.Items = append(ret.Items, FoodItem{
			Name:           *item.Name,
			QuantityG:      *item.QuantityG,
			CaloriesKcal:   *item.CaloriesKcal,
			ProteinG:       *item.ProteinG,
			CarbsG:         *item.CarbsG,
			FatG:           *item.FatG,
			ReasoningShort: item.ReasoningShort,
		})
	}
	return ret
}

// describeValidation turns validator errors into "items[0].calories_kcal: required" lines
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	buf := new(bytes.Buffer)
	for idx, fe := range verrs {
		if idx > 0 {
			buf.WriteString("; ")
		}
		field := fe.Namespace()
		if _, rest, found := strings.Cut(field, "."); found {
			field = rest
		}
		if fe.Param() != "" {
			fmt.Fprintf(buf, "%s: %s=%s", field, fe.Tag(), fe.Param())
		} else {
			fmt.Fprintf(buf, "%s: %s", field, fe.Tag())
		}
	}
	return errors.New(buf.String())
}
