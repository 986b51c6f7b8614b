package utils_test

import (
	"testing"

	"github.com/jrsteele09/recharge-dashboard/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, ok := utils.ParseID("7")
	require.True(t, ok)
	require.Equal(t, int64(7), id)

	_, ok = utils.ParseID("")
	require.False(t, ok)

	_, ok = utils.ParseID("seven")
	require.False(t, ok)
}

func TestIDFromAny(t *testing.T) {
	id, ok := utils.IDFromAny(float64(42))
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	id, ok = utils.IDFromAny("12")
	require.True(t, ok)
	require.Equal(t, int64(12), id)

	_, ok = utils.IDFromAny(1.5)
	require.False(t, ok)

	_, ok = utils.IDFromAny(nil)
	require.False(t, ok)
}

func TestPtrValue(t *testing.T) {
	require.Equal(t, "abc", utils.Value(utils.Ptr("abc")))
	require.Equal(t, int64(0), utils.Value[int64](nil))
}

func TestNonEmpty(t *testing.T) {
	require.Nil(t, utils.NonEmpty(""))
	require.Equal(t, "k", *utils.NonEmpty("k"))
}
