package behavior

import (
	"fmt"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/registry"
	"github.com/curator-cms/curator/internal/relation"
)

// Engine composes render plans for relation widgets from the owner registry,
// validated per-kind relation config documents and the registered extensions.
type Engine struct {
	registry *registry.Registry
	docs     map[string]*relation.Document
	ext      *Extensions
	desc     *descriptionRenderer
}

func New(reg *registry.Registry, docs map[string]*relation.Document, ext *Extensions) *Engine {
	if ext == nil {
		ext = NewExtensions()
	}
	return &Engine{
		registry: reg,
		docs:     docs,
		ext:      ext,
		desc:     newDescriptionRenderer(),
	}
}

func (e *Engine) docFor(ownerKind string) (*relation.Document, error) {
	doc, ok := e.docs[ownerKind]
	if !ok {
		return nil, &internal_errors.ConfigurationError{Message: fmt.Sprintf("no relation config for owner kind %q", ownerKind)}
	}
	return doc, nil
}

// Extensions exposes the extension registry for host registration.
func (e *Engine) Extensions() *Extensions {
	return e.ext
}

// Plan produces the render plan for one relation of one owner record.
func (e *Engine) Plan(owner domain.OwnerRef, relName string, mode Mode) (*RenderPlan, error) {
	doc, err := e.docFor(owner.Kind)
	if err != nil {
		return nil, err
	}
	rel, cfg, err := doc.RelationFor(e.registry, owner.Kind, relName)
	if err != nil {
		return nil, err
	}

	// Handlers get a private copy; the shared document stays pristine.
	cfg = cfg.Clone()
	ctx := &Context{Owner: owner, Relation: rel, Config: cfg}
	if err := e.ext.dispatch(PointConfig, ctx); err != nil {
		return nil, err
	}

	label := cfg.Label
	if label == "" {
		label = relName
	}

	initial, transitions := transitionsFor(rel.Type)
	plan := &RenderPlan{
		Owner:           owner,
		Relation:        relName,
		Type:            rel.Type,
		Mode:            mode,
		Label:           label,
		DescriptionHTML: e.desc.Render(cfg.Description),
		ReadOnly:        cfg.ReadOnly,
		DeferredBinding: cfg.DeferredBinding,
		InitialState:    initial,
		Transitions:     transitions,
	}
	ctx.Plan = plan

	if err := e.buildWidgets(ctx, cfg, rel, mode, plan); err != nil {
		return nil, err
	}
	if err := e.buildToolbar(ctx, cfg, rel, plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func (e *Engine) buildWidgets(ctx *Context, cfg *relation.Config, rel domain.Relation, mode Mode, plan *RenderPlan) error {
	addWidget := func(spec WidgetSpec, points ...Point) error {
		ctx.Widget = &spec
		for _, p := range points {
			if err := e.ext.dispatch(p, ctx); err != nil {
				return err
			}
		}
		plan.Widgets = append(plan.Widgets, spec)
		ctx.Widget = nil
		return nil
	}

	if mode == ModeView {
		if rel.Type.Singular() {
			if cfg.View != nil && cfg.View.Form != "" {
				return addWidget(WidgetSpec{Kind: WidgetForm, Definition: cfg.View.Form}, PointViewWidget)
			}
			return nil
		}
		if cfg.View != nil && cfg.View.List != "" {
			spec := WidgetSpec{
				Kind:           WidgetList,
				Definition:     cfg.View.List,
				ShowSearch:     cfg.View.ShowSearch,
				RecordsPerPage: cfg.View.RecordsPerPage,
				Scope:          cfg.View.Scope,
			}
			return addWidget(spec, PointViewWidget, PointViewFilter)
		}
		return nil
	}

	// Manage mode: every configured manage sub-widget is instantiated, plus
	// the pivot form for pivot relations.
	if cfg.Manage != nil && cfg.Manage.List != "" {
		spec := WidgetSpec{
			Kind:           WidgetList,
			Definition:     cfg.Manage.List,
			ShowSearch:     cfg.Manage.ShowSearch,
			RecordsPerPage: cfg.Manage.RecordsPerPage,
			Scope:          cfg.Manage.Scope,
		}
		if err := addWidget(spec, PointManageWidget, PointManageFilter); err != nil {
			return err
		}
	}
	if cfg.Manage != nil && cfg.Manage.Form != "" {
		if err := addWidget(WidgetSpec{Kind: WidgetForm, Definition: cfg.Manage.Form}, PointManageWidget); err != nil {
			return err
		}
	}
	if rel.Type.HasPivot() && cfg.HasPivotForm() {
		if err := addWidget(WidgetSpec{Kind: WidgetPivotForm, Definition: cfg.Pivot.Form}, PointPivotWidget); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) buildToolbar(ctx *Context, cfg *relation.Config, rel domain.Relation, plan *RenderPlan) error {
	if cfg.View != nil && cfg.View.ToolbarPartial != "" {
		// A custom partial replaces the computed button set entirely.
		plan.ToolbarPartial = cfg.View.ToolbarPartial
		return nil
	}

	var raw string
	if cfg.View != nil {
		raw = cfg.View.ToolbarButtons
	}
	actions, err := relation.ParseToolbarButtons(raw, rel.Type)
	if err != nil {
		// Validate() catches this at init; extensions can still inject a bad
		// override at plan time.
		return err
	}

	plan.Toolbar = make([]Button, 0, len(actions))
	for _, a := range actions {
		plan.Toolbar = append(plan.Toolbar, Button{
			Action:  a,
			Label:   cfg.ActionLabel(a),
			Enabled: actionEnabled(a, cfg),
		})
	}
	return nil
}

// Refresh runs the refresh-results extensions after a manage-mode mutation
// and merges their payloads into base. Later handlers win on key conflicts.
func (e *Engine) Refresh(owner domain.OwnerRef, relName string, base map[string]string) (map[string]string, error) {
	doc, err := e.docFor(owner.Kind)
	if err != nil {
		return nil, err
	}
	rel, cfg, err := doc.RelationFor(e.registry, owner.Kind, relName)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]string, len(base))
	for k, v := range base {
		payload[k] = v
	}

	ctx := &Context{Owner: owner, Relation: rel, Config: cfg.Clone(), Refresh: payload}
	if err := e.ext.dispatch(PointRefreshResults, ctx); err != nil {
		return nil, err
	}
	return ctx.Refresh, nil
}
