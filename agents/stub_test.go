package agents

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/schema"
)

const mealJSON = `{
  "items": [
    {"name": "fried egg", "quantity_g": 100, "calories_kcal": 180, "protein_g": 12.6, "carbs_g": 0.8, "fat_g": 14, "reasoning_short": "two medium eggs"},
    {"name": "white toast", "quantity_g": 30, "calories_kcal": 70, "protein_g": 2.4, "carbs_g": 13, "fat_g": 1}
  ],
  "total_calories_kcal": 250,
  "total_protein_g": 15,
  "total_carbs_g": 13.8,
  "total_fat_g": 15,
  "notes": "butter not visible"
}`

// stubModel is a VisionModel answering with a fixed text
type stubModel struct {
	text        string
	uploadErr   error
	generateErr error
	deleteErr   error
	block       bool

	uploads   int
	generates int
	deletes   int
	lastReq   *components.GenerateRequest
	staged    bool
}

func (m *stubModel) Name() components.Provider {
	return "stub"
}

func (m *stubModel) Upload(ctx context.Context, file components.ImageFile) (*components.UploadedFile, error) {
	m.uploads++
	if _, err := os.Stat(file.Path()); err == nil {
		m.staged = true
	}
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &components.UploadedFile{Name: "files/" + file.ID(), MIMEType: file.MIMEType()}, nil
}

func (m *stubModel) Generate(ctx context.Context, req *components.GenerateRequest, resp *components.LLMResponse) (string, error) {
	m.generates++
	m.lastReq = req
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	if resp != nil {
		resp.Provider = m.Name()
		resp.Model = req.Model
		resp.Usage = &components.LLMUsage{InputTokens: 258, OutputTokens: 120}
	}
	return m.text, nil
}

func (m *stubModel) Delete(ctx context.Context, file *components.UploadedFile) error {
	m.deletes++
	return m.deleteErr
}

// stubLookup resolves every query into a fixed estimate
type stubLookup struct {
	items []schema.FoodItem
	facts []schema.NutritionFacts
	err   error
	query string
	// block waits for the context to end
	block bool
}

func (l *stubLookup) Lookup(ctx context.Context, query string) (*schema.NutritionEstimate, []schema.NutritionFacts, error) {
	l.query = query
	if l.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	if l.err != nil {
		return nil, nil, l.err
	}
	return schema.NewEstimateFromItems(l.items, &query), l.facts, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	list, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(list)
}
