package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitives(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		v, err := String().ParseJSON([]byte(`"hi"`))
		require.NoError(t, err)
		assert.Equal(t, "hi", v)

		_, err = String().ParseJSON([]byte(`7`))
		assertParseError(t, err, "string")
	})

	t.Run("number", func(t *testing.T) {
		v, err := Number().ParseJSON([]byte(`4.5`))
		require.NoError(t, err)
		assert.Equal(t, 4.5, v)

		_, err = Number().ParseJSON([]byte(`"4.5"`))
		assertParseError(t, err, "number")
	})

	t.Run("boolean", func(t *testing.T) {
		v, err := Boolean().ParseJSON([]byte(`true`))
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("null", func(t *testing.T) {
		_, err := Null[string]().ParseJSON([]byte(`null`))
		require.NoError(t, err)
		_, err = Null[string]().ParseJSON([]byte(`"x"`))
		assertParseError(t, err, "null")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := String().ParseJSON([]byte(`{`))
		var pe *Error
		assert.ErrorAs(t, err, &pe)
	})
}

func TestArray(t *testing.T) {
	v, err := Array(Number()).ParseJSON([]byte(`[1, 2, 3]`))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v)

	_, err = Array(Number()).ParseJSON([]byte(`[1, "two", 3]`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "[1]", pe.Path)
}

func TestDict(t *testing.T) {
	v, err := Dict(Number()).ParseJSON([]byte(`{"a": 1, "b": 2}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, v)
}

func TestTuple(t *testing.T) {
	p := Tuple(Raw(String()), Raw(Number()))
	v, err := p.ParseJSON([]byte(`["x", 9]`))
	require.NoError(t, err)
	assert.Equal(t, []any{"x", float64(9)}, v)

	_, err = p.ParseJSON([]byte(`["x"]`))
	assertParseError(t, err, "array of length 2")
}

func TestOrElse(t *testing.T) {
	p := OrElse(
		Fmap(String(), func(s string) (any, error) { return s, nil }),
		Fmap(Number(), func(n float64) (any, error) { return n, nil }),
	)
	v, err := p.ParseJSON([]byte(`"s"`))
	require.NoError(t, err)
	assert.Equal(t, "s", v)

	v, err = p.ParseJSON([]byte(`1`))
	require.NoError(t, err)
	assert.Equal(t, float64(1), v)

	_, err = p.ParseJSON([]byte(`true`))
	var pe *Error
	require.ErrorAs(t, err, &pe)
	// Aggregated error mentions both failed alternatives.
	assert.Contains(t, pe.Expected, "string")
	assert.Contains(t, pe.Expected, "number")
}

func TestFmap(t *testing.T) {
	p := Fmap(Number(), func(n float64) (int, error) {
		if n != float64(int(n)) {
			return 0, errors.New("not an integer")
		}
		return int(n), nil
	})

	v, err := p.ParseJSON([]byte(`4`))
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	_, err = p.ParseJSON([]byte(`4.5`))
	var pe *Error
	assert.ErrorAs(t, err, &pe)
}

func TestNullable(t *testing.T) {
	p := Nullable(String())

	v, err := p.ParseJSON([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = p.ParseJSON([]byte(`"memo"`))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "memo", *v)
}

func TestExactly(t *testing.T) {
	p := Exactly("A", "B")

	v, err := p.Parse("B")
	require.NoError(t, err)
	assert.Equal(t, "B", v)

	_, err = p.Parse("C")
	var pe *Error
	assert.ErrorAs(t, err, &pe)
}

func TestObject(t *testing.T) {
	p := Object(
		map[string]Field{
			"name": Key(String()),
			"age":  Key(Number()),
		},
		map[string]Field{
			"nickname": Key(String()),
		},
	)

	t.Run("all keys", func(t *testing.T) {
		v, err := p.ParseJSON([]byte(`{"name": "a", "age": 3, "nickname": "n"}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "a", "age": float64(3), "nickname": "n"}, v)
	})

	t.Run("optional absent", func(t *testing.T) {
		v, err := p.ParseJSON([]byte(`{"name": "a", "age": 3}`))
		require.NoError(t, err)
		_, present := v["nickname"]
		assert.False(t, present)
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		_, err := p.ParseJSON([]byte(`{"name": "a", "age": 3, "extra": true}`))
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := p.ParseJSON([]byte(`{"name": "a"}`))
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "age", pe.Path)
	})

	t.Run("nested path", func(t *testing.T) {
		nested := Object(map[string]Field{"inner": Key(p)}, nil)
		_, err := nested.ParseJSON([]byte(`{"inner": {"name": "a", "age": "old"}}`))
		var pe *Error
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "inner.age", pe.Path)
	})
}

func TestRename(t *testing.T) {
	p := Object(map[string]Field{
		"weight": Rename("cost", Number()),
	}, nil)

	t.Run("current key", func(t *testing.T) {
		v, err := p.ParseJSON([]byte(`{"weight": 2}`))
		require.NoError(t, err)
		assert.Equal(t, float64(2), v["weight"])
	})

	t.Run("legacy key", func(t *testing.T) {
		v, err := p.ParseJSON([]byte(`{"cost": 3}`))
		require.NoError(t, err)
		assert.Equal(t, float64(3), v["weight"])
	})

	t.Run("current key wins", func(t *testing.T) {
		v, err := p.ParseJSON([]byte(`{"weight": 2, "cost": 3}`))
		require.NoError(t, err)
		assert.Equal(t, float64(2), v["weight"])
	})
}

func TestPure(t *testing.T) {
	v, err := Pure(42).Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func assertParseError(t *testing.T, err error, expected string) {
	t.Helper()
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Expected, expected)
}
