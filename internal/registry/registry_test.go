package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

type article struct{ id int64 }

func (a *article) OwnerKind() string { return "article" }

func articleModel() Model {
	return Model{
		Kind: "article",
		Relations: map[string]domain.Relation{
			"gallery": {Name: "gallery", Type: domain.HasMany, Target: "attachment"},
			"categories": {
				Name:         "categories",
				Type:         domain.BelongsToMany,
				Target:       "category",
				PivotColumns: []string{"sort_order"},
			},
		},
		New: func(id int64) Owner { return &article{id: id} },
	}
}

func TestRegister(t *testing.T) {
	t.Run("lookup after register", func(t *testing.T) {
		reg := New()
		require.NoError(t, reg.Register(articleModel()))

		m, err := reg.Model("article")
		require.NoError(t, err)
		assert.Equal(t, "article", m.Kind)
		assert.Len(t, m.Relations, 2)
	})

	t.Run("duplicate kind", func(t *testing.T) {
		reg := New()
		require.NoError(t, reg.Register(articleModel()))
		assert.Error(t, reg.Register(articleModel()))
	})

	t.Run("empty kind", func(t *testing.T) {
		assert.Error(t, New().Register(Model{}))
	})

	t.Run("relation key must match name", func(t *testing.T) {
		err := New().Register(Model{
			Kind: "article",
			Relations: map[string]domain.Relation{
				"gallery": {Name: "images", Type: domain.HasMany},
			},
		})
		assert.Error(t, err)
	})

	t.Run("invalid relation type", func(t *testing.T) {
		err := New().Register(Model{
			Kind: "article",
			Relations: map[string]domain.Relation{
				"gallery": {Name: "gallery", Type: "has_lots"},
			},
		})
		assert.Error(t, err)
	})
}

func TestRelation(t *testing.T) {
	reg := New()
	reg.MustRegister(articleModel())

	t.Run("plain relation", func(t *testing.T) {
		rel, err := reg.Relation("article", "gallery")
		require.NoError(t, err)
		assert.Equal(t, domain.HasMany, rel.Type)
	})

	t.Run("pivot columns switch the type", func(t *testing.T) {
		rel, err := reg.Relation("article", "categories")
		require.NoError(t, err)
		assert.Equal(t, domain.BelongsToManyPivot, rel.Type)
	})

	t.Run("unknown relation", func(t *testing.T) {
		_, err := reg.Relation("article", "comments")
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := reg.Relation("ghost", "gallery")
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestReconstruct(t *testing.T) {
	reg := New()
	reg.MustRegister(articleModel())

	owner, err := reg.Reconstruct(domain.OwnerRef{Kind: "article", Id: 42})
	require.NoError(t, err)

	a, ok := owner.(*article)
	require.True(t, ok)
	assert.Equal(t, int64(42), a.id)
}

func TestKinds(t *testing.T) {
	reg := New()
	reg.MustRegister(Model{Kind: "zebra"})
	reg.MustRegister(Model{Kind: "article"})
	assert.Equal(t, []string{"article", "zebra"}, reg.Kinds())
}
