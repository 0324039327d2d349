package relation

import (
	"fmt"
	"strings"

	"github.com/curator-cms/curator/internal/domain"
)

// Action is a toolbar action the admin UI can offer for a relation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionDelete Action = "delete"
	ActionLink   Action = "link"
	ActionUnlink Action = "unlink"
)

var knownActions = map[Action]bool{
	ActionCreate: true,
	ActionUpdate: true,
	ActionAdd:    true,
	ActionRemove: true,
	ActionDelete: true,
	ActionLink:   true,
	ActionUnlink: true,
}

// defaultActions is the per-type toolbar default table. Overrides replace
// this set unless expressed with the additive pipe syntax.
var defaultActions = map[domain.RelationType][]Action{
	domain.HasOne:             {ActionCreate, ActionUpdate, ActionLink, ActionUnlink, ActionDelete},
	domain.BelongsTo:          {ActionCreate, ActionUpdate, ActionLink, ActionUnlink},
	domain.HasMany:            {ActionCreate, ActionAdd, ActionDelete, ActionRemove},
	domain.BelongsToMany:      {ActionCreate, ActionAdd, ActionDelete, ActionRemove},
	domain.BelongsToManyPivot: {ActionAdd, ActionRemove},
}

// DefaultActions returns a copy of the default toolbar set for a type.
func DefaultActions(t domain.RelationType) []Action {
	defaults := defaultActions[t]
	out := make([]Action, len(defaults))
	copy(out, defaults)
	return out
}

// defaultLabels are the stock button captions, overridable per relation
// through the labels config map.
var defaultLabels = map[Action]string{
	ActionCreate: "Create",
	ActionUpdate: "Update",
	ActionAdd:    "Add",
	ActionRemove: "Remove",
	ActionDelete: "Delete",
	ActionLink:   "Link",
	ActionUnlink: "Unlink",
}

func DefaultLabel(a Action) string {
	return defaultLabels[a]
}

// ParseToolbarButtons resolves a toolbarButtons override against the
// defaults for the relation type.
//
//	""            -> defaults unchanged
//	"add remove"  -> replaces the default set
//	"link|unlink" -> appends to the default set
func ParseToolbarButtons(raw string, t domain.RelationType) ([]Action, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultActions(t), nil
	}

	var names []string
	actions := []Action{}
	if strings.Contains(raw, "|") {
		actions = DefaultActions(t)
		names = strings.Split(raw, "|")
	} else {
		names = strings.Fields(raw)
	}

	seen := make(map[Action]bool, len(actions))
	for _, a := range actions {
		seen[a] = true
	}
	for _, name := range names {
		a := Action(strings.TrimSpace(name))
		if !knownActions[a] {
			return nil, fmt.Errorf("unknown toolbar action %q", name)
		}
		if seen[a] {
			continue
		}
		seen[a] = true
		actions = append(actions, a)
	}
	return actions, nil
}

// subConfigRequirements maps relation types to the sub-config fields that
// must be present, checked once at initialization.
var subConfigRequirements = map[domain.RelationType][]string{
	domain.HasOne:             {"view.form"},
	domain.BelongsTo:          {"view.form"},
	domain.HasMany:            {"view.list"},
	domain.BelongsToMany:      {"view.list"},
	domain.BelongsToManyPivot: {"view.list", "pivot.form"},
}
