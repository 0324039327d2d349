package behavior

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/registry"
	"github.com/curator-cms/curator/internal/relation"
)

const engineSiteYaml = `
models:
  article:
    relations:
      featured_image:
        type: has_one
        target: attachment
      gallery:
        type: has_many
        target: attachment
      categories:
        type: belongs_to_many
        target: category
        pivot: [sort_order]
      author:
        type: belongs_to
        target: author
    config:
      featured_image:
        label: Featured image
        view:
          form: forms/preview.yaml
        manage:
          form: forms/edit.yaml
      gallery:
        label: Gallery
        description: "Shown on the *public* page"
        deferredBinding: true
        view:
          list: lists/attachments.yaml
          showSearch: true
          recordsPerPage: 20
        manage:
          list: lists/attachments.yaml
          form: forms/edit.yaml
      categories:
        view:
          list: lists/categories.yaml
        manage:
          list: lists/categories.yaml
        pivot:
          form: forms/pivot.yaml
      author:
        label: Author
        readOnly: true
        view:
          form: forms/author.yaml
`

func newEngine(t *testing.T, ext *Extensions) *Engine {
	t.Helper()
	reg := registry.New()
	docs, err := relation.ParseSite([]byte(engineSiteYaml), reg)
	require.NoError(t, err)
	return New(reg, docs, ext)
}

func article(id int64) domain.OwnerRef {
	return domain.OwnerRef{Kind: "article", Id: id}
}

func findButton(t *testing.T, plan *RenderPlan, a relation.Action) Button {
	t.Helper()
	for _, b := range plan.Toolbar {
		if b.Action == a {
			return b
		}
	}
	t.Fatalf("no %q button in toolbar %v", a, plan.Toolbar)
	return Button{}
}

func TestPlanSingular(t *testing.T) {
	e := newEngine(t, nil)

	plan, err := e.Plan(article(1), "featured_image", ModeView)
	require.NoError(t, err)

	assert.Equal(t, domain.HasOne, plan.Type)
	assert.Equal(t, "Featured image", plan.Label)
	assert.Equal(t, StatePreviewForm, plan.InitialState)

	t.Run("view mode renders the preview form", func(t *testing.T) {
		require.Len(t, plan.Widgets, 1)
		assert.Equal(t, WidgetForm, plan.Widgets[0].Kind)
		assert.Equal(t, "forms/preview.yaml", plan.Widgets[0].Definition)
	})

	t.Run("link disabled without a selection list", func(t *testing.T) {
		assert.False(t, findButton(t, plan, relation.ActionLink).Enabled)
		assert.False(t, findButton(t, plan, relation.ActionUnlink).Enabled)
	})

	t.Run("create enabled by the manage form", func(t *testing.T) {
		assert.True(t, findButton(t, plan, relation.ActionCreate).Enabled)
		assert.True(t, findButton(t, plan, relation.ActionUpdate).Enabled)
	})

	t.Run("transitions", func(t *testing.T) {
		assert.Equal(t, StateEditForm, plan.Transitions[StatePreviewForm][Event("create")])
		assert.Equal(t, StateSelectionList, plan.Transitions[StatePreviewForm][Event("link")])
		assert.Equal(t, StatePreviewForm, plan.Transitions[StateEditForm][EventBack])
	})
}

func TestPlanPlural(t *testing.T) {
	e := newEngine(t, nil)

	plan, err := e.Plan(article(1), "gallery", ModeView)
	require.NoError(t, err)

	assert.Equal(t, domain.HasMany, plan.Type)
	assert.True(t, plan.DeferredBinding)
	assert.Equal(t, StateListView, plan.InitialState)

	t.Run("view list carries its options", func(t *testing.T) {
		require.Len(t, plan.Widgets, 1)
		w := plan.Widgets[0]
		assert.Equal(t, WidgetList, w.Kind)
		assert.True(t, w.ShowSearch)
		assert.Equal(t, 20, w.RecordsPerPage)
	})

	t.Run("description is rendered and sanitized", func(t *testing.T) {
		html := string(plan.DescriptionHTML)
		assert.Contains(t, html, "<em>public</em>")
	})

	t.Run("default plural toolbar", func(t *testing.T) {
		var actions []relation.Action
		for _, b := range plan.Toolbar {
			actions = append(actions, b.Action)
		}
		assert.Equal(t, relation.DefaultActions(domain.HasMany), actions)
	})

	t.Run("no pivot form state for plain plural", func(t *testing.T) {
		_, ok := plan.Transitions[StateListView][EventClickRecord]
		assert.False(t, ok)
	})
}

func TestPlanPivot(t *testing.T) {
	e := newEngine(t, nil)

	plan, err := e.Plan(article(1), "categories", ModeManage)
	require.NoError(t, err)

	assert.Equal(t, domain.BelongsToManyPivot, plan.Type)

	t.Run("label falls back to relation name", func(t *testing.T) {
		assert.Equal(t, "categories", plan.Label)
	})

	t.Run("click record opens the pivot form", func(t *testing.T) {
		assert.Equal(t, StatePivotForm, plan.Transitions[StateListView][EventClickRecord])
		assert.Equal(t, StateListView, plan.Transitions[StatePivotForm][EventBack])
	})

	t.Run("manage mode renders selection list and pivot form", func(t *testing.T) {
		require.Len(t, plan.Widgets, 2)
		assert.Equal(t, WidgetList, plan.Widgets[0].Kind)
		assert.Equal(t, WidgetPivotForm, plan.Widgets[1].Kind)
		assert.Equal(t, "forms/pivot.yaml", plan.Widgets[1].Definition)
	})

	t.Run("pivot toolbar is add and remove only", func(t *testing.T) {
		require.Len(t, plan.Toolbar, 2)
		assert.Equal(t, relation.ActionAdd, plan.Toolbar[0].Action)
		assert.Equal(t, relation.ActionRemove, plan.Toolbar[1].Action)
	})
}

func TestPlanReadOnly(t *testing.T) {
	e := newEngine(t, nil)

	plan, err := e.Plan(article(1), "author", ModeView)
	require.NoError(t, err)

	assert.True(t, plan.ReadOnly)
	for _, b := range plan.Toolbar {
		assert.False(t, b.Enabled, "action %q must be disabled on a read-only relation", b.Action)
	}
}

func TestPlanToolbarPartial(t *testing.T) {
	ext := NewExtensions()
	ext.Register(PointConfig, func(ctx *Context) error {
		if ctx.Relation.Name == "gallery" {
			ctx.Config.View.ToolbarPartial = "partials/toolbar.htm"
			ctx.Config.View.ToolbarButtons = "add remove"
		}
		return nil
	})
	e := newEngine(t, ext)

	plan, err := e.Plan(article(1), "gallery", ModeView)
	require.NoError(t, err)

	// The partial replaces the computed buttons even when both are set.
	assert.Equal(t, "partials/toolbar.htm", plan.ToolbarPartial)
	assert.Empty(t, plan.Toolbar)
}

func TestPlanErrors(t *testing.T) {
	e := newEngine(t, nil)

	t.Run("unknown owner kind", func(t *testing.T) {
		_, err := e.Plan(domain.OwnerRef{Kind: "ghost", Id: 1}, "gallery", ModeView)
		assert.True(t, internal_errors.Is[*internal_errors.ConfigurationError](err))
	})

	t.Run("unknown relation", func(t *testing.T) {
		_, err := e.Plan(article(1), "comments", ModeView)
		assert.True(t, internal_errors.Is[*internal_errors.ConfigurationError](err))
	})
}

func TestExtensionDispatch(t *testing.T) {
	t.Run("handlers run in registration order on a private copy", func(t *testing.T) {
		ext := NewExtensions()
		ext.Register(PointConfig, func(ctx *Context) error {
			ctx.Config.Label = "First"
			return nil
		})
		ext.Register(PointConfig, func(ctx *Context) error {
			ctx.Config.Label += " Second"
			return nil
		})
		e := newEngine(t, ext)

		plan, err := e.Plan(article(1), "gallery", ModeView)
		require.NoError(t, err)
		assert.Equal(t, "First Second", plan.Label)

		// The shared document must not see the mutation.
		plan2, err := e.Plan(article(1), "gallery", ModeView)
		require.NoError(t, err)
		assert.Equal(t, "First Second", plan2.Label)
	})

	t.Run("handler errors surface to the caller", func(t *testing.T) {
		ext := NewExtensions()
		boom := errors.New("boom")
		ext.Register(PointViewWidget, func(ctx *Context) error { return boom })
		e := newEngine(t, ext)

		_, err := e.Plan(article(1), "gallery", ModeView)
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.True(t, strings.Contains(err.Error(), string(PointViewWidget)))
	})

	t.Run("widget handlers can adjust the spec", func(t *testing.T) {
		ext := NewExtensions()
		ext.Register(PointViewFilter, func(ctx *Context) error {
			ctx.Widget.Scope = "published"
			return nil
		})
		e := newEngine(t, ext)

		plan, err := e.Plan(article(1), "gallery", ModeView)
		require.NoError(t, err)
		require.Len(t, plan.Widgets, 1)
		assert.Equal(t, "published", plan.Widgets[0].Scope)
	})
}

func TestRefresh(t *testing.T) {
	ext := NewExtensions()
	ext.Register(PointRefreshResults, func(ctx *Context) error {
		ctx.Refresh["#counter"] = "5"
		ctx.Refresh["#banner"] = "first"
		return nil
	})
	ext.Register(PointRefreshResults, func(ctx *Context) error {
		ctx.Refresh["#banner"] = "second"
		return nil
	})
	e := newEngine(t, ext)

	out, err := e.Refresh(article(1), "gallery", map[string]string{"#list": "partial"})
	require.NoError(t, err)

	assert.Equal(t, "partial", out["#list"])
	assert.Equal(t, "5", out["#counter"])

	t.Run("later handlers win on conflicts", func(t *testing.T) {
		assert.Equal(t, "second", out["#banner"])
	})
}
