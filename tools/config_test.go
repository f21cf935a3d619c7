package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type echoTool struct {
	Config
}

func (t *echoTool) Run(ctx context.Context, in *string) (*string, error) {
	t.Start(ctx, t, in)
	if *in == "" {
		return nil, t.Fail(ctx, t, in, errors.New("empty"))
	}
	out := strings.ToUpper(*in)
	t.End(ctx, t, in, &out)
	return &out, nil
}

func TestHooks(t *testing.T) {
	var events []string
	tool := new(echoTool)
	for _, opt := range []Option{
		WithTitle("echo"),
		WithDescription("upper cases the input"),
		WithStartHook(func(ctx context.Context, tool ITool, in any) { events = append(events, "start:"+tool.Title()) }),
		WithEndHook(func(ctx context.Context, tool ITool, in any, out any) { events = append(events, "end:"+*out.(*string)) }),
		WithErrorHook(func(ctx context.Context, tool ITool, in any, err error) { events = append(events, "error:"+err.Error()) }),
	} {
		opt(&tool.Config)
	}
	var _ Tool[string, string] = tool
	ctx := context.Background()
	in := "egg"
	if _, err := tool.Run(ctx, &in); err != nil {
		t.Fatal(err)
	}
	in = ""
	if _, err := tool.Run(ctx, &in); err == nil {
		t.Fatal("expect error")
	}
	if got := strings.Join(events, ","); got != "start:echo,end:EGG,start:echo,error:empty" {
		t.Errorf("unexpected hook events %s", got)
	}
	if tool.Description() != "upper cases the input" {
		t.Errorf("unexpected description %s", tool.Description())
	}
}
