package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/bububa/calorielens/components"
)

const conformantResponse = `{
  "items": [
    {"name": "scrambled eggs", "quantity_g": 100, "calories_kcal": 150, "protein_g": 12, "carbs_g": 2, "fat_g": 10, "reasoning_short": "two large eggs"},
    {"name": "white toast", "quantity_g": 30, "calories_kcal": 80, "protein_g": 3, "carbs_g": 15, "fat_g": 1}
  ],
  "total_calories_kcal": 230,
  "total_protein_g": 15,
  "total_carbs_g": 17,
  "total_fat_g": 11,
  "notes": "butter not visible"
}`

func TestDecodeConformant(t *testing.T) {
	est, err := Decode(conformantResponse)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(est.Items) != 2 {
		t.Fatalf("expect 2 items, but got %d", len(est.Items))
	}
	eggs := est.Items[0]
	if eggs.Name != "scrambled eggs" || eggs.QuantityG != 100 || eggs.CaloriesKcal != 150 || eggs.ProteinG != 12 || eggs.CarbsG != 2 || eggs.FatG != 10 {
		t.Errorf("unexpected first item: %+v", eggs)
	}
	if eggs.ReasoningShort == nil || *eggs.ReasoningShort != "two large eggs" {
		t.Errorf("expect reasoning 'two large eggs', but got %v", eggs.ReasoningShort)
	}
	if est.Items[1].ReasoningShort != nil {
		t.Errorf("expect absent reasoning to stay nil, but got %q", *est.Items[1].ReasoningShort)
	}
	if est.TotalCaloriesKcal != 230 || est.TotalProteinG != 15 || est.TotalCarbsG != 17 || est.TotalFatG != 11 {
		t.Errorf("unexpected totals: %+v", est.Totals())
	}
	if est.Notes == nil || *est.Notes != "butter not visible" {
		t.Errorf("expect notes, but got %v", est.Notes)
	}
}

func TestDecodeKeepsDeclaredTotals(t *testing.T) {
	raw := `{"items":[{"name":"rice","quantity_g":200,"calories_kcal":260,"protein_g":5,"carbs_g":56,"fat_g":0.6}],
		"total_calories_kcal":999,"total_protein_g":5,"total_carbs_g":56,"total_fat_g":0.6}`
	est, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if est.TotalCaloriesKcal != 999 {
		t.Errorf("expect declared total 999 kept, but got %v", est.TotalCaloriesKcal)
	}
	diffs := est.Reconcile(DefaultTolerance)
	if len(diffs) != 1 || diffs[0].Field != "calories_kcal" || diffs[0].ItemSum != 260 {
		t.Errorf("expect one calories discrepancy, but got %+v", diffs)
	}
}

func TestDecodeEmptyItems(t *testing.T) {
	est, err := Decode(`{"items":[],"total_calories_kcal":0,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !est.IsEmpty() {
		t.Errorf("expect empty estimate, but got %d items", len(est.Items))
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `Here is your estimate: 250 kcal`,
		"truncated":        `{"items": [`,
		"missing calories": `{"items":[{"name":"egg","quantity_g":50,"protein_g":6,"carbs_g":0.5,"fat_g":5}],"total_calories_kcal":70,"total_protein_g":6,"total_carbs_g":0.5,"total_fat_g":5}`,
		"missing items":    `{"total_calories_kcal":0,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`,
		"null items":       `{"items":null,"total_calories_kcal":0,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`,
		"missing total":    `{"items":[],"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`,
		"null total":       `{"items":[],"total_calories_kcal":null,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`,
		"wrong type":       `{"items":[],"total_calories_kcal":"250","total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`,
		"negative":         `{"items":[{"name":"egg","quantity_g":-1,"calories_kcal":70,"protein_g":6,"carbs_g":0.5,"fat_g":5}],"total_calories_kcal":70,"total_protein_g":6,"total_carbs_g":0.5,"total_fat_g":5}`,
		"empty name":       `{"items":[{"name":"","quantity_g":1,"calories_kcal":70,"protein_g":6,"carbs_g":0.5,"fat_g":5}],"total_calories_kcal":70,"total_protein_g":6,"total_carbs_g":0.5,"total_fat_g":5}`,
		"null item":        `{"items":[null],"total_calories_kcal":0,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0}`,
		"extra field":      `{"items":[],"total_calories_kcal":0,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0,"confidence":0.9}`,
		"trailing text":    `{"items":[],"total_calories_kcal":0,"total_protein_g":0,"total_carbs_g":0,"total_fat_g":0} thanks!`,
		"array at top":     `[]`,
	}
	for name, raw := range cases {
		est, err := Decode(raw)
		if est != nil {
			t.Errorf("%s: expect no estimate, but got %+v", name, est)
		}
		var schemaErr *components.SchemaValidationError
		if !errors.As(err, &schemaErr) {
			t.Errorf("%s: expect SchemaValidationError, but got %T %v", name, err, err)
			continue
		}
		if schemaErr.Raw != raw {
			t.Errorf("%s: expect raw response kept, but got %q", name, schemaErr.Raw)
		}
	}
}

func TestDecodeNamesMissingField(t *testing.T) {
	raw := `{"items":[{"name":"egg","quantity_g":50,"protein_g":6,"carbs_g":0.5,"fat_g":5}],"total_calories_kcal":70,"total_protein_g":6,"total_carbs_g":0.5,"total_fat_g":5}`
	_, err := Decode(raw)
	if err == nil || !strings.Contains(err.Error(), "items[0].calories_kcal: required") {
		t.Errorf("expect error naming items[0].calories_kcal, but got %v", err)
	}
}

func TestNewEstimateFromItems(t *testing.T) {
	est := NewEstimateFromItems([]FoodItem{
		{Name: "egg", CaloriesKcal: 70, ProteinG: 6, CarbsG: 0.5, FatG: 5},
		{Name: "toast", CaloriesKcal: 80, ProteinG: 3, CarbsG: 15, FatG: 1},
	}, nil)
	if est.TotalCaloriesKcal != 150 || est.TotalProteinG != 9 || est.TotalCarbsG != 15.5 || est.TotalFatG != 6 {
		t.Errorf("unexpected totals: %+v", est.Totals())
	}
	if diffs := est.Reconcile(DefaultTolerance); len(diffs) != 0 {
		t.Errorf("expect no discrepancy, but got %+v", diffs)
	}
	if empty := NewEstimateFromItems(nil, nil); empty.Items == nil || !empty.IsEmpty() {
		t.Errorf("expect empty non-nil items, but got %+v", empty.Items)
	}
}

func TestReflect(t *testing.T) {
	s := Reflect(NutritionEstimate{})
	if s == nil {
		t.Fatal("expect schema, but got nil")
	}
	if s.Type != "object" {
		t.Errorf("expect object schema, but got %q", s.Type)
	}
	for _, field := range []string{"items", "total_calories_kcal", "total_protein_g", "total_carbs_g", "total_fat_g"} {
		found := false
		for _, r := range s.Required {
			if r == field {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expect %s to be required, but got %v", field, s.Required)
		}
	}
	for _, r := range s.Required {
		if r == "notes" {
			t.Errorf("expect notes to be optional")
		}
	}
	items, ok := s.Properties.Get("items")
	if !ok || items.Items == nil || items.Items.Type != "object" {
		t.Fatalf("expect items to be an array of objects, but got %+v", items)
	}
	if Reflect(String("")) != nil {
		t.Errorf("expect plain text schema to be nil")
	}
}
