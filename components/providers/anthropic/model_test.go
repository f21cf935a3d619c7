package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bububa/calorielens/components"
	"github.com/bububa/calorielens/schema"
)

type stubImage struct{}

func (stubImage) Path() string     { return "meal.jpg" }
func (stubImage) MIMEType() string { return "image/jpeg" }
func (stubImage) ID() string       { return "meal" }
func (stubImage) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("jpg")), nil
}

func TestTrimFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                 "{\"a\":1}",
		"```json\n{\"a\":1}\n```":   "{\"a\":1}",
		"```\n{\"a\":1}\n```":       "{\"a\":1}",
		"  ```json\n{\"a\":1}```  ": "{\"a\":1}",
		"```{\"a\":1}```":           "{\"a\":1}",
		"not json":                  "not json",
	}
	for input, expect := range cases {
		if got := TrimFence(input); got != expect {
			t.Errorf("expect %q, but got %q", expect, got)
		}
	}
}

func TestPromptWithSchema(t *testing.T) {
	req := &components.GenerateRequest{Prompt: "estimate"}
	if prompt, _ := PromptWithSchema(req); prompt != "estimate" {
		t.Errorf("expect plain prompt, but got %s", prompt)
	}
	req.Schema = schema.Reflect(new(schema.NutritionEstimate))
	prompt, err := PromptWithSchema(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(prompt, "estimate\n\n") || !strings.Contains(prompt, `"total_calories_kcal"`) {
		t.Errorf("expect schema embedded in prompt, but got %s", prompt)
	}
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-sonnet-latest","content":[{"type":"text","text":"`+"```json\\n{\\\"items\\\":[]}\\n```"+`"}],"stop_reason":"end_turn","usage":{"input_tokens":20,"output_tokens":4}}`)
	}))
	defer srv.Close()

	model, err := New("key", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	file, err := model.Upload(ctx, stubImage{})
	if err != nil {
		t.Fatal(err)
	}
	resp := new(components.LLMResponse)
	txt, err := model.Generate(ctx, &components.GenerateRequest{
		Model:  "claude-3-5-sonnet-latest",
		Prompt: "estimate",
		File:   file,
		Schema: schema.Reflect(new(schema.NutritionEstimate)),
	}, resp)
	if err != nil {
		t.Fatal(err)
	}
	if txt != `{"items":[]}` {
		t.Errorf("expect fence stripped, but got %q", txt)
	}
	if resp.Usage == nil || resp.Usage.InputTokens != 20 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
	if got["max_tokens"] != float64(DefaultMaxTokens) {
		t.Errorf("expect default max tokens, but got %v", got["max_tokens"])
	}
	messages, _ := got["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expect one message, but got %d", len(messages))
	}
	content, _ := messages[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("expect image and text content, but got %d", len(content))
	}
	if typ := content[0].(map[string]any)["type"]; typ != "image" {
		t.Errorf("expect image first, but got %v", typ)
	}
}

func TestGenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad image"}}`)
	}))
	defer srv.Close()

	model, err := New("key", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = model.Generate(context.Background(), &components.GenerateRequest{Model: "claude-3-5-sonnet-latest", Prompt: "estimate"}, nil)
	if kind := components.KindOf(err); kind != components.ProviderErrorKind {
		t.Fatalf("expect provider error, but got %v", err)
	}
}
