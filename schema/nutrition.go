package schema

import (
	"math"
)

// FoodItem a single food or drink item detected in the meal photo
type FoodItem struct {
	// Name of the detected food or drink item
	Name string `json:"name" jsonschema:"title=name,description=Name of the detected food or drink item."`
	// QuantityG estimated portion size in grams
	QuantityG float64 `json:"quantity_g" jsonschema:"title=quantity_g,description=Estimated portion size in grams.,minimum=0"`
	// CaloriesKcal estimated calories in kilocalories
	CaloriesKcal float64 `json:"calories_kcal" jsonschema:"title=calories_kcal,description=Estimated calories in kilocalories.,minimum=0"`
	// ProteinG estimated protein in grams
	ProteinG float64 `json:"protein_g" jsonschema:"title=protein_g,description=Estimated protein in grams.,minimum=0"`
	// CarbsG estimated carbohydrates in grams
	CarbsG float64 `json:"carbs_g" jsonschema:"title=carbs_g,description=Estimated carbohydrates in grams.,minimum=0"`
	// FatG estimated fat in grams
	FatG float64 `json:"fat_g" jsonschema:"title=fat_g,description=Estimated fat in grams.,minimum=0"`
	// ReasoningShort short high-level explanation of the estimate, nil when the model gave none
	ReasoningShort *string `json:"reasoning_short,omitempty" jsonschema:"title=reasoning_short,description=Short explanation of how this estimate was made (high-level)."`
}

// NutritionEstimate calories and macros for one meal photo.
// Totals are the values reported by the producer of the estimate and are not recomputed;
// use ItemTotals and Reconcile to compare them against the per-item fields.
type NutritionEstimate struct {
	// Items detected items in detection order
	Items []FoodItem `json:"items" jsonschema:"title=items,description=Detected food and drink items in the order they were identified."`
	// TotalCaloriesKcal sum of calories of all items
	TotalCaloriesKcal float64 `json:"total_calories_kcal" jsonschema:"title=total_calories_kcal,description=Sum of calories of all items.,minimum=0"`
	// TotalProteinG sum of protein of all items
	TotalProteinG float64 `json:"total_protein_g" jsonschema:"title=total_protein_g,description=Sum of protein of all items.,minimum=0"`
	// TotalCarbsG sum of carbohydrates of all items
	TotalCarbsG float64 `json:"total_carbs_g" jsonschema:"title=total_carbs_g,description=Sum of carbohydrates of all items.,minimum=0"`
	// TotalFatG sum of fat of all items
	TotalFatG float64 `json:"total_fat_g" jsonschema:"title=total_fat_g,description=Sum of fat of all items.,minimum=0"`
	// Notes optional high-level notes or assumptions
	Notes *string `json:"notes,omitempty" jsonschema:"title=notes,description=Optional high-level notes or assumptions about the estimates."`
}

var _ Schema = (*NutritionEstimate)(nil)

func (e NutritionEstimate) SchemaName() string {
	return "nutrition_estimate"
}

// Totals macro totals of a meal
type Totals struct {
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
}

// NewEstimateFromItems builds an estimate whose totals are the sums of items
func NewEstimateFromItems(items []FoodItem, notes *string) *NutritionEstimate {
	if items == nil {
		items = []FoodItem{}
	}
	ret := &NutritionEstimate{
		Items: items,
		Notes: notes,
	}
	sums := ret.ItemTotals()
	ret.TotalCaloriesKcal = sums.CaloriesKcal
	ret.TotalProteinG = sums.ProteinG
	ret.TotalCarbsG = sums.CarbsG
	ret.TotalFatG = sums.FatG
	return ret
}

// IsEmpty reports whether no item was detected
func (e NutritionEstimate) IsEmpty() bool {
	return len(e.Items) == 0
}

// Totals returns the declared totals
func (e NutritionEstimate) Totals() Totals {
	return Totals{
		CaloriesKcal: e.TotalCaloriesKcal,
		ProteinG:     e.TotalProteinG,
		CarbsG:       e.TotalCarbsG,
		FatG:         e.TotalFatG,
	}
}

// ItemTotals returns the sums of the per-item fields
func (e NutritionEstimate) ItemTotals() Totals {
	var ret Totals
	for _, item := range e.Items {
		ret.CaloriesKcal += item.CaloriesKcal
		ret.ProteinG += item.ProteinG
		ret.CarbsG += item.CarbsG
		ret.FatG += item.FatG
	}
	return ret
}

// Discrepancy a declared total that does not match the sum of its items
type Discrepancy struct {
	Field    string  `json:"field"`
	Declared float64 `json:"declared"`
	ItemSum  float64 `json:"item_sum"`
}

// DefaultTolerance relative deviation accepted by Reconcile
const DefaultTolerance = 0.05

// Reconcile compares declared totals with item sums. A field is reported when the
// difference exceeds tolerance relative to the larger value and is at least one unit.
func (e NutritionEstimate) Reconcile(tolerance float64) []Discrepancy {
	declared := e.Totals()
	sums := e.ItemTotals()
	pairs := []Discrepancy{
		{Field: "calories_kcal", Declared: declared.CaloriesKcal, ItemSum: sums.CaloriesKcal},
		{Field: "protein_g", Declared: declared.ProteinG, ItemSum: sums.ProteinG},
		{Field: "carbs_g", Declared: declared.CarbsG, ItemSum: sums.CarbsG},
		{Field: "fat_g", Declared: declared.FatG, ItemSum: sums.FatG},
	}
	var ret []Discrepancy
	for _, p := range pairs {
		diff := math.Abs(p.Declared - p.ItemSum)
		if diff < 1 {
			continue
		}
		if diff > tolerance*math.Max(p.Declared, p.ItemSum) {
			ret = append(ret, p)
		}
	}
	return ret
}
