package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationType(t *testing.T) {
	assert.True(t, HasOne.Valid())
	assert.False(t, RelationType("has_lots").Valid())

	assert.True(t, HasOne.Singular())
	assert.True(t, BelongsTo.Singular())
	assert.False(t, HasMany.Singular())
	assert.False(t, BelongsToManyPivot.Singular())

	assert.True(t, BelongsToManyPivot.HasPivot())
	assert.False(t, BelongsToMany.HasPivot())
}

func TestEffectiveType(t *testing.T) {
	plain := Relation{Name: "categories", Type: BelongsToMany}
	assert.Equal(t, BelongsToMany, plain.EffectiveType())

	withPivot := Relation{Name: "categories", Type: BelongsToMany, PivotColumns: []string{"sort_order"}}
	assert.Equal(t, BelongsToManyPivot, withPivot.EffectiveType())

	hasMany := Relation{Name: "gallery", Type: HasMany, PivotColumns: []string{"x"}}
	assert.Equal(t, HasMany, hasMany.EffectiveType())
}

func TestIsImage(t *testing.T) {
	assert.True(t, (&Attachment{MimeType: "image/png"}).IsImage())
	assert.True(t, (&Attachment{MimeType: "image/jpeg"}).IsImage())
	assert.False(t, (&Attachment{MimeType: "application/pdf"}).IsImage())
	assert.False(t, (&Attachment{MimeType: "image/svg+xml"}).IsImage())
}
