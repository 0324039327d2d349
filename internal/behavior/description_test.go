package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptionRender(t *testing.T) {
	r := newDescriptionRenderer()

	t.Run("markdown", func(t *testing.T) {
		html := string(r.Render("Images on the **public** page"))
		assert.Contains(t, html, "<strong>public</strong>")
	})

	t.Run("strikethrough extension", func(t *testing.T) {
		html := string(r.Render("~~old~~ new"))
		assert.Contains(t, html, "<del>old</del>")
	})

	t.Run("script tags are stripped", func(t *testing.T) {
		html := string(r.Render(`hello <script>alert("x")</script>`))
		assert.NotContains(t, html, "<script>")
		assert.Contains(t, html, "hello")
	})

	t.Run("empty input renders nothing", func(t *testing.T) {
		assert.Empty(t, string(r.Render("   ")))
	})
}
