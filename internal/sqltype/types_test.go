package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommon_NumericLadder(t *testing.T) {
	tests := []struct {
		name string
		a, b Kind
		want Kind
	}{
		{"int widens to bigint", KindInt, KindBigInt, KindBigInt},
		{"bigint widens to decimal", KindBigInt, KindDecimal, KindDecimal},
		{"decimal widens to float", KindDecimal, KindFloat, KindFloat},
		{"int widens to float", KindInt, KindFloat, KindFloat},
		{"order does not matter", KindFloat, KindInt, KindFloat},
		{"same kind unifies", KindInt, KindInt, KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Common(Of(tt.a), Of(tt.b))
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestCommon_AnyUnifiesWithEverything(t *testing.T) {
	for _, k := range []Kind{KindBoolean, KindInt, KindVarchar, KindTimestamp} {
		got, ok := Common(Of(KindAny), Of(k))
		require.True(t, ok, "ANY vs %s", k)
		assert.Equal(t, k, got.Kind)

		got, ok = Common(Of(k), Of(KindAny))
		require.True(t, ok, "%s vs ANY", k)
		assert.Equal(t, k, got.Kind)
	}
}

func TestCommon_IncompatibleKinds(t *testing.T) {
	_, ok := Common(Of(KindInt), Of(KindVarchar))
	assert.False(t, ok, "INT and VARCHAR have no common type")

	_, ok = Common(Of(KindDate), Of(KindBoolean))
	assert.False(t, ok)

	_, ok = Common(Of(KindUnknown), Of(KindInt))
	assert.False(t, ok, "UNKNOWN never unifies")
}

func TestCommon_PrecisionTakesMax(t *testing.T) {
	got, ok := Common(Type{Kind: KindVarchar, Precision: 10}, Type{Kind: KindVarchar, Precision: 20})
	require.True(t, ok)
	assert.Equal(t, Type{Kind: KindVarchar, Precision: 20}, got)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("BIGINT")
	require.True(t, ok)
	assert.Equal(t, KindBigInt, k)

	// SQLite affinity spellings.
	k, ok = ParseKind("INTEGER")
	require.True(t, ok)
	assert.Equal(t, KindInt, k)

	k, ok = ParseKind("TEXT")
	require.True(t, ok)
	assert.Equal(t, KindVarchar, k)

	_, ok = ParseKind("BLOB5000")
	assert.False(t, ok)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "VARCHAR(32)", Type{Kind: KindVarchar, Precision: 32}.String())
	assert.Equal(t, "INT", Of(KindInt).String())
}
