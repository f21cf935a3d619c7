package presenter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bububa/calorielens/agents"
)

// Text renders r for a terminal
func Text(w io.Writer, r *agents.Result) error {
	buf := new(bytes.Buffer)
	if r == nil || !r.OK() {
		if r == nil {
			r = new(agents.Result)
		}
		fmt.Fprintf(buf, "%s: %s\n", Headline(r.Kind), errorMessage(r))
		if raw := RawResponse(r.Err); raw != "" {
			fmt.Fprintf(buf, "Raw response:\n%s\n", raw)
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
	est := r.Estimate
	if r.Query != "" {
		fmt.Fprintf(buf, "Food query: %s\n\n", r.Query)
	}
	buf.WriteString("Estimated totals\n")
	fmt.Fprintf(buf, "  Calories: %s\n", Kcal(est.TotalCaloriesKcal))
	fmt.Fprintf(buf, "  Protein:  %s\n", Grams(est.TotalProteinG))
	fmt.Fprintf(buf, "  Carbs:    %s\n", Grams(est.TotalCarbsG))
	fmt.Fprintf(buf, "  Fat:      %s\n", Grams(est.TotalFatG))
	buf.WriteString("\nItem breakdown\n")
	if est.IsEmpty() {
		fmt.Fprintf(buf, "  %s\n", NoItemsMessage)
	}
	for idx, item := range est.Items {
		fmt.Fprintf(buf, "  %d. %s - %s\n", idx+1, item.Name, Kcal(item.CaloriesKcal))
		fmt.Fprintf(buf, "     Quantity: %s | Protein: %s | Carbs: %s | Fat: %s\n", Grams(item.QuantityG), Grams(item.ProteinG), Grams(item.CarbsG), Grams(item.FatG))
		if item.ReasoningShort != nil && *item.ReasoningShort != "" {
			fmt.Fprintf(buf, "     %s\n", *item.ReasoningShort)
		}
	}
	if est.Notes != nil && *est.Notes != "" {
		fmt.Fprintf(buf, "\nNotes: %s\n", *est.Notes)
	}
	for _, warning := range Warnings(est) {
		fmt.Fprintf(buf, "Warning: %s\n", warning)
	}
	if len(r.Facts) > 0 {
		buf.WriteString("\nNutrition facts\n")
		for _, f := range r.Facts {
			fmt.Fprintf(buf, "  %s (%s): %s\n", f.Name, Grams(f.ServingSizeG), FactsLine(f))
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
