package aiform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormNameValidator(t *testing.T) {
	rv := NewRequestValidator()

	type req struct {
		Name string `validate:"formName"`
	}

	assert.NoError(t, rv.Validate(req{Name: "Анкета сотрудника 2026"}))
	assert.NoError(t, rv.Validate(req{Name: "Employee survey #1 (draft)"}))

	assert.Error(t, rv.Validate(req{Name: ""}))
	assert.Error(t, rv.Validate(req{Name: strings.Repeat("ф", 201)}))
}
