package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/runtree/types"
)

func TestCanonicalize_SortsMapKeys(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "c": []any{"x", "y"}}
	b := map[string]any{"c": []any{"x", "y"}, "a": 1, "b": 2}

	ca, err := Canonicalize(a)
	require.NoError(t, err)
	cb, err := Canonicalize(b)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestCanonicalize_DistinguishesValues(t *testing.T) {
	ca, err := Canonicalize(map[string]any{"a": 1})
	require.NoError(t, err)
	cb, err := Canonicalize(map[string]any{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, ca, cb)
}

func TestCanonicalize_NestedAndScalar(t *testing.T) {
	c, err := Canonicalize(map[string]any{
		"n":    nil,
		"ok":   true,
		"list": []any{1, "two", 3.5},
		"deep": map[string]any{"z": map[string]any{"y": "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"deep":{"z":{"y":"x"}},"list":[1,"two",3.5],"n":null,"ok":true}`, c)
}

func TestCanonicalize_MapKeyKindsStayDistinct(t *testing.T) {
	byInt, err := Canonicalize(map[any]any{1: "x"})
	require.NoError(t, err)
	byString, err := Canonicalize(map[string]any{"1": "x"})
	require.NoError(t, err)
	assert.NotEqual(t, byInt, byString, "numeric and string keys with the same text are different inputs")

	// Same entries, mixed key kinds, still deterministic.
	a, err := Canonicalize(map[any]any{1: "x", "1": "y"})
	require.NoError(t, err)
	b, err := Canonicalize(map[any]any{"1": "y", 1: "x"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalize_Struct(t *testing.T) {
	type in struct {
		Name  string
		Count int
		skip  bool
	}
	c, err := Canonicalize(in{Name: "job", Count: 3, skip: true})
	require.NoError(t, err)
	assert.Equal(t, `{"Name":"job","Count":3}`, c)
}

func TestCanonicalize_SelfReference(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	_, err := Canonicalize(m)
	require.Error(t, err)
	assert.Equal(t, types.ErrSerialization, types.GetErrorCode(err))
}

func TestCanonicalize_SelfReferentialSlice(t *testing.T) {
	s := make([]any, 1)
	s[0] = s

	_, err := Canonicalize(s)
	require.Error(t, err)
	assert.Equal(t, types.ErrSerialization, types.GetErrorCode(err))
}

func TestCanonicalize_SharedValueIsNotACycle(t *testing.T) {
	shared := map[string]any{"k": "v"}
	_, err := Canonicalize(map[string]any{"a": shared, "b": shared})
	require.NoError(t, err)
}

func TestDeriveKey_Namespace(t *testing.T) {
	key, err := DeriveKey("summarize", map[string]any{"doc": "hello"})
	require.NoError(t, err)
	assert.Regexp(t, `^summarize:[0-9a-f]{64}$`, key)
}

// TestDeriveKey_OrderIndependence builds two maps with the same entries
// inserted in different orders and checks the derived keys match.
func TestDeriveKey_OrderIndependence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "entries")
		keys := make([]string, n)
		vals := make([]int, n)
		for i := range keys {
			// Index suffix keeps the drawn keys distinct so both insertion
			// orders build the same map.
			keys[i] = fmt.Sprintf("%s%d", rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "key"), i)
			vals[i] = rapid.Int().Draw(rt, "val")
		}

		forward := make(map[string]any, n)
		backward := make(map[string]any, n)
		for i := range keys {
			forward[keys[i]] = vals[i]
			backward[keys[n-1-i]] = vals[n-1-i]
		}

		k1, err := DeriveKey("ns", forward)
		if err != nil {
			rt.Fatalf("derive forward: %v", err)
		}
		k2, err := DeriveKey("ns", backward)
		if err != nil {
			rt.Fatalf("derive backward: %v", err)
		}
		if k1 != k2 {
			rt.Fatalf("keys diverged: %s vs %s", k1, k2)
		}
	})
}
