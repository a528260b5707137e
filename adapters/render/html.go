package render

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"modelcheck/domain/report"
)

// HTMLRenderer renders the report by composing the markdown artifact and
// converting it, so the two formats can never drift apart.
type HTMLRenderer struct {
	md *MarkdownRenderer
}

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{md: NewMarkdownRenderer()}
}

// Render returns the HTML artifact
func (r *HTMLRenderer) Render(rep report.Report) ([]byte, string, error) {
	source, _, err := r.md.Render(rep)
	if err != nil {
		return nil, "", err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse(source)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Model evaluation: " + rep.Dataset,
	})
	return markdown.Render(doc, renderer), ".html", nil
}
