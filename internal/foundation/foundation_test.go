package foundation

import (
	"testing"

	"git.home.luguber.info/inful/lava/internal/foundation/errors"
	"github.com/stretchr/testify/require"
)

type site struct {
	Source string
	Format string
}

func TestValidatorChain(t *testing.T) {
	chain := NewValidatorChain(
		NotEmpty("source", func(s site) string { return s.Source }),
	).Add(func(s site) ValidationResult {
		return OneOf("format", []string{"text", "json"})(s.Format)
	})

	t.Run("valid", func(t *testing.T) {
		result := chain.Validate(site{Source: ".", Format: "json"})
		require.True(t, result.IsValid())
		require.NoError(t, result.ToError())
	})

	t.Run("collects every failure", func(t *testing.T) {
		result := chain.Validate(site{Source: "  ", Format: "xml"})
		require.False(t, result.IsValid())
		require.Len(t, result.Errors, 2)
		require.Equal(t, "required", result.Errors[0].Code)
		require.Equal(t, "one_of", result.Errors[1].Code)

		err := result.ToError()
		require.Error(t, err)
		require.True(t, errors.HasCategory(err, errors.CategoryValidation))
		require.Contains(t, err.Error(), "field 'source': must not be empty")
		require.Contains(t, err.Error(), "field 'format'")
	})
}

func TestFieldError_Error(t *testing.T) {
	require.Equal(t, "field 'x': bad", NewFieldError("x", "c", "bad").Error())
	require.Equal(t, "bad", NewFieldError("", "c", "bad").Error())
}

func TestCombine_KeepsOrder(t *testing.T) {
	a := Invalid(NewFieldError("a", "c", "m"))
	b := Invalid(NewFieldError("b", "c", "m"))
	combined := a.Combine(Valid()).Combine(b)
	require.Equal(t, []string{"a", "b"}, []string{combined.Errors[0].Field, combined.Errors[1].Field})
}
