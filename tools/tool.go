package tools

import "context"

type ITool interface {
	SetTitle(string)
	Title() string
	SetDescription(string)
	Description() string
	SetStartHook(fn func(context.Context, ITool, any))
	SetEndHook(fn func(context.Context, ITool, any, any))
	SetErrorHook(fn func(context.Context, ITool, any, error))
}

// Tool is a typed external lookup
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}
