package inspect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreservesKeyOrder(t *testing.T) {
	raw := []byte(`{"zebra":1,"apple":{"nested":true,"also":null},"mango":[1,2,3]}`)
	v, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"zebra", "apple", "mango"}, v.Keys())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(out), "encode must round-trip without reshuffling keys")
}

func TestParsePreservesNumbersVerbatim(t *testing.T) {
	raw := []byte(`{"amount":1204.80,"big":90071992547409923}`)
	v, err := Parse(raw)
	require.NoError(t, err)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(out))
}

func TestGetWalksNestedObjects(t *testing.T) {
	v, err := Parse([]byte(`{"metadata":{"statement_period":"03/2024"}}`))
	require.NoError(t, err)

	sub, ok := v.Get("metadata", "statement_period")
	require.True(t, ok)
	s, ok := sub.StringValue()
	require.True(t, ok)
	assert.Equal(t, "03/2024", s)

	_, ok = v.Get("metadata", "missing")
	assert.False(t, ok)
	_, ok = v.Get("metadata", "statement_period", "deeper")
	assert.False(t, ok, "descending through a string must report false")
}

func TestItemsAndMember(t *testing.T) {
	v, err := Parse([]byte(`{"transactions":[{"date":"2024-03-01"},{"date":"2024-03-05"}]}`))
	require.NoError(t, err)

	txns, ok := v.Member("transactions")
	require.True(t, ok)
	require.Len(t, txns.Items(), 2)
	assert.Equal(t, Array, txns.Kind())
	assert.Nil(t, v.Items(), "Items on a non-array is nil")
}

func TestParseRejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestParseScalars(t *testing.T) {
	for _, raw := range []string{`null`, `true`, `"text"`, `42`} {
		v, err := Parse([]byte(raw))
		require.NoError(t, err, raw)
		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, raw, string(out))
	}
}

func TestMarshalEscapesStrings(t *testing.T) {
	v := NewString(`a "quoted" value`)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	var back string
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, `a "quoted" value`, back)
}
