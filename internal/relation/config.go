package relation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/registry"
)

// Document is a relation configuration document, keyed by relationship name.
// Keys must exactly match relations declared by the owner model.
type Document struct {
	Relations map[string]*Config `yaml:"relations"`
}

// Config configures the admin behavior of a single relation.
type Config struct {
	Label           string            `yaml:"label"`
	Description     string            `yaml:"description"`
	ReadOnly        bool              `yaml:"readOnly"`
	DeferredBinding bool              `yaml:"deferredBinding"`
	View            *ViewConfig       `yaml:"view"`
	Manage          *ManageConfig     `yaml:"manage"`
	Pivot           *PivotConfig      `yaml:"pivot"`
	Labels          map[string]string `yaml:"labels"`
}

// ViewConfig drives the widget shown on the host form in view mode.
type ViewConfig struct {
	List           string `yaml:"list"` // list definition reference, for plural relations
	Form           string `yaml:"form"` // form definition reference, for singular relations
	ToolbarButtons string `yaml:"toolbarButtons"`
	ToolbarPartial string `yaml:"toolbarPartial"`
	ShowSearch     bool   `yaml:"showSearch"`
	RecordsPerPage int    `yaml:"recordsPerPage"`
	Scope          string `yaml:"scope"`
}

// ManageConfig drives the selection/create popups in manage mode.
type ManageConfig struct {
	List           string `yaml:"list"`
	Form           string `yaml:"form"`
	ShowSearch     bool   `yaml:"showSearch"`
	RecordsPerPage int    `yaml:"recordsPerPage"`
	Scope          string `yaml:"scope"`
}

// PivotConfig drives the pivot data form of a many-to-many relation.
type PivotConfig struct {
	Form string `yaml:"form"`
}

// Parse decodes a relation configuration document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &internal_errors.ConfigurationError{Message: fmt.Sprintf("invalid yaml: %v", err)}
	}
	if len(doc.Relations) == 0 {
		return nil, &internal_errors.ConfigurationError{Message: "document declares no relations"}
	}
	return &doc, nil
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &internal_errors.ConfigurationError{Message: fmt.Sprintf("can't read %s: %v", path, err)}
	}
	return Parse(data)
}

// Get returns the config entry for a relation name.
func (d *Document) Get(name string) (*Config, error) {
	cfg, ok := d.Relations[name]
	if !ok {
		return nil, &internal_errors.ConfigurationError{Relation: name, Message: "relation is not configured"}
	}
	return cfg, nil
}

// has resolves a dotted sub-config path like "view.list" against a config.
func (c *Config) has(path string) bool {
	switch path {
	case "view.list":
		return c.View != nil && c.View.List != ""
	case "view.form":
		return c.View != nil && c.View.Form != ""
	case "manage.list":
		return c.Manage != nil && c.Manage.List != ""
	case "manage.form":
		return c.Manage != nil && c.Manage.Form != ""
	case "pivot.form":
		return c.Pivot != nil && c.Pivot.Form != ""
	}
	return false
}

// HasManageList reports whether a selection list is configured. Actions that
// depend on it (link, add) are disabled when it is absent.
func (c *Config) HasManageList() bool { return c.has("manage.list") }

// HasManageForm reports whether a create/update form is configured.
func (c *Config) HasManageForm() bool { return c.has("manage.form") }

// HasPivotForm reports whether a pivot data form is configured.
func (c *Config) HasPivotForm() bool { return c.has("pivot.form") }

// ActionLabel returns the configured caption for an action, falling back to
// the stock one.
func (c *Config) ActionLabel(a Action) string {
	if c.Labels != nil {
		if label, ok := c.Labels[string(a)]; ok && label != "" {
			return label
		}
	}
	return DefaultLabel(a)
}

// Validate checks the document against the relations the owner model
// declares. Unknown relation keys are a ConfigurationError; a missing
// required sub-config for the declared type is a RelationTypeMismatchError.
// Both are fatal at initialization.
func (d *Document) Validate(reg *registry.Registry, ownerKind string) error {
	model, err := reg.Model(ownerKind)
	if err != nil {
		return &internal_errors.ConfigurationError{Message: fmt.Sprintf("unknown owner kind %q", ownerKind)}
	}

	for name, cfg := range d.Relations {
		declared, ok := model.Relations[name]
		if !ok {
			return &internal_errors.ConfigurationError{
				Relation: name,
				Message:  fmt.Sprintf("owner kind %q declares no such relation", ownerKind),
			}
		}
		relType := declared.EffectiveType()

		for _, required := range subConfigRequirements[relType] {
			if !cfg.has(required) {
				return &internal_errors.RelationTypeMismatchError{
					Relation: name,
					Type:     string(relType),
					Missing:  required,
				}
			}
		}

		// Surface bad toolbar overrides at init instead of first render.
		if cfg.View != nil {
			if _, err := ParseToolbarButtons(cfg.View.ToolbarButtons, relType); err != nil {
				return &internal_errors.ConfigurationError{Relation: name, Message: err.Error()}
			}
		}
		for action := range cfg.Labels {
			if !knownActions[Action(action)] {
				return &internal_errors.ConfigurationError{
					Relation: name,
					Message:  fmt.Sprintf("label override for unknown action %q", action),
				}
			}
		}
	}
	return nil
}

// Clone deep-copies a relation config so extension handlers can mutate their
// copy without touching the shared document.
func (c *Config) Clone() *Config {
	out := *c
	if c.View != nil {
		view := *c.View
		out.View = &view
	}
	if c.Manage != nil {
		manage := *c.Manage
		out.Manage = &manage
	}
	if c.Pivot != nil {
		pivot := *c.Pivot
		out.Pivot = &pivot
	}
	if c.Labels != nil {
		out.Labels = make(map[string]string, len(c.Labels))
		for k, v := range c.Labels {
			out.Labels[k] = v
		}
	}
	return &out
}

// RelationFor is a convenience joining registry lookup and config lookup,
// used by the behavior engine at plan time.
func (d *Document) RelationFor(reg *registry.Registry, ownerKind, name string) (domain.Relation, *Config, error) {
	rel, err := reg.Relation(ownerKind, name)
	if err != nil {
		return domain.Relation{}, nil, &internal_errors.ConfigurationError{
			Relation: name,
			Message:  fmt.Sprintf("owner kind %q declares no such relation", ownerKind),
		}
	}
	cfg, err := d.Get(name)
	if err != nil {
		return domain.Relation{}, nil, err
	}
	return rel, cfg, nil
}
