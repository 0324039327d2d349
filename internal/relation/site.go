package relation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/registry"
)

// SiteFile declares the owner models the standalone server exposes, together
// with their relation configs. Embedding applications register models in
// code instead and load plain Documents.
type SiteFile struct {
	Models map[string]*ModelFile `yaml:"models"`
}

type ModelFile struct {
	Relations map[string]RelationDecl `yaml:"relations"`
	Config    map[string]*Config      `yaml:"config"`
}

type RelationDecl struct {
	Type   string   `yaml:"type"`
	Target string   `yaml:"target"`
	Pivot  []string `yaml:"pivot"`
}

// genericOwner backs site-file models, which have no Go struct of their own.
type genericOwner struct {
	kind string
	id   int64
}

func (o genericOwner) OwnerKind() string { return o.kind }

// LoadSite reads a site file, registers every declared model and returns the
// validated per-kind relation config documents.
func LoadSite(path string, reg *registry.Registry) (map[string]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &internal_errors.ConfigurationError{Message: fmt.Sprintf("can't read %s: %v", path, err)}
	}
	return ParseSite(data, reg)
}

func ParseSite(data []byte, reg *registry.Registry) (map[string]*Document, error) {
	var site SiteFile
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, &internal_errors.ConfigurationError{Message: fmt.Sprintf("invalid yaml: %v", err)}
	}
	if len(site.Models) == 0 {
		return nil, &internal_errors.ConfigurationError{Message: "site file declares no models"}
	}

	// Register all models first so cross-kind target references resolve.
	for kind, model := range site.Models {
		relations := make(map[string]domain.Relation, len(model.Relations))
		for name, decl := range model.Relations {
			relType := domain.RelationType(decl.Type)
			if !relType.Valid() || relType == domain.BelongsToManyPivot {
				return nil, &internal_errors.ConfigurationError{
					Relation: name,
					Message:  fmt.Sprintf("unknown relation type %q", decl.Type),
				}
			}
			relations[name] = domain.Relation{
				Name:         name,
				Type:         relType,
				Target:       decl.Target,
				PivotColumns: decl.Pivot,
			}
		}

		k := kind
		err := reg.Register(registry.Model{
			Kind:      k,
			Relations: relations,
			New:       func(id int64) registry.Owner { return genericOwner{kind: k, id: id} },
		})
		if err != nil {
			return nil, &internal_errors.ConfigurationError{Message: err.Error()}
		}
	}

	docs := make(map[string]*Document, len(site.Models))
	for kind, model := range site.Models {
		if len(model.Config) == 0 {
			continue
		}
		doc := &Document{Relations: model.Config}
		if err := doc.Validate(reg, kind); err != nil {
			return nil, err
		}
		docs[kind] = doc
	}
	return docs, nil
}
