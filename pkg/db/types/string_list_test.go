package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringListValueAndScan(t *testing.T) {
	list := StringList{"health_drop", "usage_decline"}
	raw, err := list.Value()
	require.NoError(t, err)
	require.Equal(t, `["health_drop","usage_decline"]`, raw)

	var scanned StringList
	require.NoError(t, scanned.Scan([]byte(raw.(string))))
	require.Equal(t, list, scanned)
}

func TestStringListEmpty(t *testing.T) {
	raw, err := StringList(nil).Value()
	require.NoError(t, err)
	require.Equal(t, "[]", raw)

	var scanned StringList
	require.NoError(t, scanned.Scan(nil))
	require.Empty(t, scanned)

	require.Error(t, scanned.Scan(42))
	require.Error(t, scanned.Scan("{not json"))
}
