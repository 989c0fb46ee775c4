package apperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(KindCache, "hint", nil))
}

func TestWrap_UnwrapsToOriginal(t *testing.T) {
	original := errors.New("boom")
	wrapped := Wrap(KindPublish, "publishing", original)
	assert.ErrorIs(t, wrapped, original)
	assert.Contains(t, wrapped.Error(), "publish")
	assert.Contains(t, wrapped.Error(), "publishing")
}
