package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/validator"
)

type sample struct {
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Name     string `json:"name" validate:"max=5"`
}

func TestValidateStruct_Valido(t *testing.T) {
	assert.Nil(t, validator.ValidateStruct(sample{Quantity: 1, Name: "ok"}))
}

func TestValidateStruct_UsaNombreJSON(t *testing.T) {
	errs := validator.ValidateStruct(sample{Quantity: -1, Name: "demasiado largo"})
	require.Len(t, errs, 2)
	assert.True(t, validator.HasField(errs, "quantity"))
	assert.True(t, validator.HasField(errs, "name"))
	assert.False(t, validator.HasField(errs, "Quantity"))
	assert.Contains(t, validator.Message(errs), "quantity: gt=0")
}

func TestValidateStruct_RequiredEnCero(t *testing.T) {
	errs := validator.ValidateStruct(sample{})
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Tag)
}
