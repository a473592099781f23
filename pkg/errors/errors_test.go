package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIsMatchesKindThroughWrapping(t *testing.T) {
	sentinel := New(KindArtifactNotFound, "artifact not found")
	wrapped := fmt.Errorf("serve: %w", Wrap(KindArtifactNotFound, "artifact not found", errors.New("missing key")))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.False(t, errors.Is(wrapped, New(KindArtifactBusy, "busy")))
	assert.Equal(t, KindArtifactNotFound, KindOf(wrapped))
	assert.Equal(t, "artifact not found", MessageOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Empty(t, MessageOf(errors.New("boom")))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(KindEmptyVariableSet))
	assert.True(t, IsValidation(KindInvalidLocation))
	assert.True(t, IsValidation(KindInvalidDayOfYear))
	assert.False(t, IsValidation(KindUnsupportedUnitConversion))
	assert.False(t, IsValidation(KindSerialization))
}
