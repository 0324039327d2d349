package behavior

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// descriptionRenderer turns relation config descriptions (markdown) into
// sanitized HTML for the render plan.
type descriptionRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newDescriptionRenderer() *descriptionRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	)
	return &descriptionRenderer{
		md:     md,
		policy: bluemonday.UGCPolicy(),
	}
}

func (r *descriptionRenderer) Render(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		// Fall back to the sanitized raw text rather than failing the plan.
		return template.HTML(r.policy.Sanitize(text))
	}
	return template.HTML(r.policy.Sanitize(strings.TrimSpace(buf.String())))
}
