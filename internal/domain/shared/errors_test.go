package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("promote s1: %w", ErrNoNextClass)

	assert.True(t, IsInvalidState(wrapped))
	assert.True(t, errors.Is(wrapped, ErrNoNextClass))
	assert.False(t, IsNotFound(wrapped))

	var de *DomainError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "no next class available", de.Message)
	assert.Equal(t, "student.Promote: no next class available", ErrNoNextClass.Error())
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsValidation(ErrInvalidMarks))
	assert.True(t, IsValidation(Validationf("result", "Create", "subject %q is empty", "")))
	assert.True(t, IsConflict(ErrStudentClassChanged))
	assert.True(t, IsConflict(ErrPromotionInProgress))
	assert.True(t, IsAlreadyExists(ErrUserAlreadyExists))
	assert.True(t, IsUnauthorized(ErrInvalidCredentials))
	assert.True(t, IsForbidden(ErrAccessDenied))
	assert.True(t, IsNotFound(ErrStudentNotFound))
}
