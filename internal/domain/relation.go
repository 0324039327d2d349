package domain

// RelationType classifies a declared model relationship. It is fixed for the
// lifetime of a relation definition and drives which admin actions are valid.
type RelationType string

const (
	HasOne             RelationType = "has_one"
	HasMany            RelationType = "has_many"
	BelongsTo          RelationType = "belongs_to"
	BelongsToMany      RelationType = "belongs_to_many"
	BelongsToManyPivot RelationType = "belongs_to_many_pivot"
)

func (t RelationType) Valid() bool {
	switch t {
	case HasOne, HasMany, BelongsTo, BelongsToMany, BelongsToManyPivot:
		return true
	}
	return false
}

// Singular relations render a preview/edit form, plural ones a list.
func (t RelationType) Singular() bool {
	return t == HasOne || t == BelongsTo
}

func (t RelationType) HasPivot() bool {
	return t == BelongsToManyPivot
}

// Relation describes one relationship declared by an owner model.
type Relation struct {
	Name         string       `json:"name"`
	Type         RelationType `json:"type"`
	Target       string       `json:"target"` // owner-kind tag of the related model
	PivotColumns []string     `json:"pivot_columns,omitempty"`
}

// EffectiveType upgrades belongs-to-many to the pivot variant when the
// declaration carries extra join columns.
func (r Relation) EffectiveType() RelationType {
	if r.Type == BelongsToMany && len(r.PivotColumns) > 0 {
		return BelongsToManyPivot
	}
	return r.Type
}
