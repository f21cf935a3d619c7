package presenter

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/bububa/calorielens/agents"
	"github.com/bububa/calorielens/components/ingest"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates the web UI template set, the page is named "index"
var Templates = template.Must(template.New("").Funcs(template.FuncMap{
	"kcal":     Kcal,
	"grams":    Grams,
	"headline": Headline,
	"raw":      RawResponse,
	"warnings": Warnings,
	"message":  errorMessage,
	"facts":    FactsLine,
}).ParseFS(templateFS, "templates/*.html"))

// Page data rendered by the index template
type Page struct {
	Provider string
	Model    string
	Mode     string
	// Accept value of the file input accept attribute
	Accept string
	// Result nil before the first submission
	Result *agents.Result
}

// NewPage returns a Page accepting the ingest allow-list
func NewPage(provider string, model string, mode string) *Page {
	exts := ingest.Extensions()
	accept := make([]string, 0, len(exts))
	for _, ext := range exts {
		accept = append(accept, "."+ext)
	}
	return &Page{
		Provider: provider,
		Model:    model,
		Mode:     mode,
		Accept:   strings.Join(accept, ","),
	}
}

// HTML renders the page with r as the latest result
func HTML(w io.Writer, page *Page) error {
	return Templates.ExecuteTemplate(w, "index", page)
}
