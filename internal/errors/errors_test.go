package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound))
	assert.True(t, IsNotFound(fmt.Errorf("attachment 7: %w", NotFound)))
	assert.False(t, IsNotFound(errors.New("something else")))
	assert.False(t, IsNotFound(nil))
}

func TestIs(t *testing.T) {
	var err error = &ValidationError{Message: "too big"}

	assert.True(t, Is[*ValidationError](err))
	assert.False(t, Is[*AuthorizationError](err))

	t.Run("sees through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("upload failed: %w", err)
		assert.True(t, Is[*ValidationError](wrapped))
	})

	t.Run("unwraps nested causes", func(t *testing.T) {
		inner := &StorageError{Op: "save", Err: errors.New("disk full")}
		outer := &RetrievalError{URL: "http://x", Err: inner}
		assert.True(t, Is[*StorageError](error(outer)))
	})
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"configuration without relation", &ConfigurationError{Message: "bad yaml"}, `Configuration error: bad yaml`},
		{"configuration with relation", &ConfigurationError{Relation: "gallery", Message: "no such relation"}, `Configuration error in relation "gallery": no such relation`},
		{"type mismatch", &RelationTypeMismatchError{Relation: "gallery", Type: "has_many", Missing: "view.list"}, `Relation "gallery" of type has_many requires view.list`},
		{"authorization", &AuthorizationError{Message: "protected"}, `Not authorized: protected`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
