package utils_test

import (
	"testing"

	"github.com/jrsteele09/cirota-portal/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	require.Equal(t, 0, utils.Value[int](nil))
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, 42, utils.Value(utils.Ptr(42)))
}

func TestValueOr(t *testing.T) {
	require.Equal(t, 7, utils.ValueOr[int](nil, 7))
	require.Equal(t, 3, utils.ValueOr(utils.Ptr(3), 7))
}
