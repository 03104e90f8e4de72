package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formbase/pkg/model"
)

func TestEnsureSafeFieldID_Accepts(t *testing.T) {
	for _, id := range []string{"field-1_2", "a", "ABC", "0", "snake_case", "kebab-case-9"} {
		got, err := EnsureSafeFieldID(id)
		require.NoError(t, err, "id %q", id)
		assert.Equal(t, id, got)
	}
}

func TestEnsureSafeFieldID_Rejects(t *testing.T) {
	unsafe := []string{
		"",
		"field'); DROP TABLE response;--",
		"a.b",
		"data->>'x'",
		"field id",
		"路径",
		"x;",
		"$gt",
	}
	for _, id := range unsafe {
		_, err := EnsureSafeFieldID(id)
		require.Error(t, err, "id %q", id)
		assert.ErrorIs(t, err, model.ErrUnsafeFieldID)
	}
}
