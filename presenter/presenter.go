// Package presenter renders pipeline results for the console and the web UI
package presenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bububa/calorielens/agents"
	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/schema"
)

// NoItemsMessage shown when the model detected nothing to eat or drink
const NoItemsMessage = "No items detected."

// maxRawPreview bytes of a rejected response shown to the user
const maxRawPreview = 500

// Kcal formats calories the way every renderer shows them
func Kcal(v float64) string {
	return fmt.Sprintf("%.0f kcal", v)
}

// Grams formats a macro amount
func Grams(v float64) string {
	return fmt.Sprintf("%.1f g", v)
}

// Headline returns the user facing title of a failed request
func Headline(kind components.ErrorKind) string {
	switch kind {
	case components.ConfigurationErrorKind:
		return "Configuration error"
	case components.InvalidInputErrorKind:
		return "Invalid image"
	case components.ProviderErrorKind:
		return "Provider error"
	case components.SchemaValidationErrorKind:
		return "Unexpected model answer"
	}
	return "Error"
}

// RawResponse returns the rejected model response of a schema validation failure, shortened for display
func RawResponse(err error) string {
	var schemaErr *components.SchemaValidationError
	if err == nil || !errors.As(err, &schemaErr) {
		return ""
	}
	raw := strings.TrimSpace(schemaErr.Raw)
	if len(raw) > maxRawPreview {
		raw = raw[:maxRawPreview] + "..."
	}
	return raw
}

// Warnings lists declared totals that disagree with the per-item sums
func Warnings(est *schema.NutritionEstimate) []string {
	if est == nil {
		return nil
	}
	list := est.Reconcile(schema.DefaultTolerance)
	ret := make([]string, 0, len(list))
	for _, d := range list {
		ret = append(ret, fmt.Sprintf("total %s is %.1f but items add up to %.1f", d.Field, d.Declared, d.ItemSum))
	}
	return ret
}

func errorMessage(r *agents.Result) string {
	if r.Err == nil {
		return "no estimate produced"
	}
	return r.Err.Error()
}

// FactsLine the nutrients of f not shown in the item breakdown
func FactsLine(f schema.NutritionFacts) string {
	return fmt.Sprintf("saturated fat %s | fiber %s | sugar %s | sodium %.0f mg | potassium %.0f mg | cholesterol %.0f mg",
		Grams(f.FatSaturatedG), Grams(f.FiberG), Grams(f.SugarG), f.SodiumMg, f.PotassiumMg, f.CholesterolMg)
}
