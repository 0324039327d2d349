package behavior

import (
	"html/template"

	"github.com/curator-cms/curator/internal/domain"
	"github.com/curator-cms/curator/internal/relation"
)

type Mode string

const (
	ModeView   Mode = "view"
	ModeManage Mode = "manage"
)

// State names a screen the relation widget can be in.
type State string

const (
	StateListView              State = "list-view"
	StateSelectionOrCreateForm State = "selection-or-create-form"
	StatePivotForm             State = "pivot-form"
	StatePreviewForm           State = "preview-form"
	StateEditForm              State = "edit-form"
	StateSelectionList         State = "selection-list"
)

// Event triggers a state transition. Toolbar actions double as events;
// EventBack and EventClickRecord come from the hosting UI.
type Event string

const (
	EventBack        Event = "back"
	EventClickRecord Event = "click-record"
)

func actionEvent(a relation.Action) Event {
	return Event(a)
}

type WidgetKind string

const (
	WidgetList      WidgetKind = "list"
	WidgetForm      WidgetKind = "form"
	WidgetPivotForm WidgetKind = "pivot-form"
)

// WidgetSpec describes one sub-widget the renderer should instantiate.
// The behavior never generates markup itself; Definition references a
// list/form definition the rendering collaborator resolves.
type WidgetSpec struct {
	Kind           WidgetKind `json:"kind"`
	Definition     string     `json:"definition"`
	ShowSearch     bool       `json:"show_search,omitempty"`
	RecordsPerPage int        `json:"records_per_page,omitempty"`
	Scope          string     `json:"scope,omitempty"`
}

type Button struct {
	Action  relation.Action `json:"action"`
	Label   string          `json:"label"`
	Enabled bool            `json:"enabled"`
}

// RenderPlan is the full instruction set for rendering one relation widget:
// which sub-widgets to build, which toolbar actions are legal, and how the
// screens transition.
type RenderPlan struct {
	Owner           domain.OwnerRef           `json:"owner"`
	Relation        string                    `json:"relation"`
	Type            domain.RelationType       `json:"type"`
	Mode            Mode                      `json:"mode"`
	Label           string                    `json:"label"`
	DescriptionHTML template.HTML             `json:"description_html,omitempty"`
	ReadOnly        bool                      `json:"read_only"`
	DeferredBinding bool                      `json:"deferred_binding"`
	InitialState    State                     `json:"initial_state"`
	Transitions     map[State]map[Event]State `json:"transitions"`
	Widgets         []WidgetSpec              `json:"widgets"`
	Toolbar         []Button                  `json:"toolbar"`
	ToolbarPartial  string                    `json:"toolbar_partial,omitempty"`
}

// transitionsFor builds the per-type state table. Tables are data; the
// engine never branches on type beyond this lookup.
func transitionsFor(t domain.RelationType) (State, map[State]map[Event]State) {
	if t.Singular() {
		return StatePreviewForm, map[State]map[Event]State{
			StatePreviewForm: {
				actionEvent(relation.ActionCreate): StateEditForm,
				actionEvent(relation.ActionUpdate): StateEditForm,
				actionEvent(relation.ActionLink):   StateSelectionList,
				actionEvent(relation.ActionUnlink): StatePreviewForm,
				actionEvent(relation.ActionDelete): StatePreviewForm,
			},
			StateEditForm:      {EventBack: StatePreviewForm},
			StateSelectionList: {EventBack: StatePreviewForm},
		}
	}

	table := map[State]map[Event]State{
		StateListView: {
			actionEvent(relation.ActionAdd):    StateSelectionOrCreateForm,
			actionEvent(relation.ActionCreate): StateSelectionOrCreateForm,
			actionEvent(relation.ActionDelete): StateListView,
			actionEvent(relation.ActionRemove): StateListView,
		},
		StateSelectionOrCreateForm: {EventBack: StateListView},
	}
	if t.HasPivot() {
		table[StateListView][EventClickRecord] = StatePivotForm
		table[StatePivotForm] = map[Event]State{EventBack: StateListView}
	}
	return StateListView, table
}

// actionGates maps each action to the sub-config it depends on. A missing
// optional sub-config disables the action instead of erroring.
var actionGates = map[relation.Action]string{
	relation.ActionLink:   "manage.list",
	relation.ActionAdd:    "manage.list",
	relation.ActionCreate: "manage.form",
	relation.ActionUpdate: "manage.form",
}

func actionEnabled(a relation.Action, cfg *relation.Config) bool {
	if cfg.ReadOnly {
		return false
	}
	switch actionGates[a] {
	case "manage.list":
		return cfg.HasManageList()
	case "manage.form":
		return cfg.HasManageForm()
	}
	return true
}
