package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceBool(t *testing.T) {

	assert := assert.New(t)

	for _, raw := range []any{true, "true", "on", "1", "ON", " True ", 1, float64(1)} {
		v, err := CoerceValue(raw, ValueTypeBool)
		require.NoError(t, err, "raw %v", raw)
		assert.Equal(BoolValue(true), v, "raw %v", raw)
	}
	for _, raw := range []any{false, "false", "off", "0", 0, float64(0)} {
		v, err := CoerceValue(raw, ValueTypeBool)
		require.NoError(t, err, "raw %v", raw)
		assert.Equal(BoolValue(false), v, "raw %v", raw)
	}
	for _, raw := range []any{"maybe", "2", 2, 0.5, nil, []string{}} {
		_, err := CoerceValue(raw, ValueTypeBool)
		assert.Error(err, "raw %v", raw)
	}
}

func TestCoerceInt(t *testing.T) {

	assert := assert.New(t)

	v, err := CoerceValue("42", ValueTypeInt)
	require.NoError(t, err)
	assert.Equal(IntValue(42), v)

	v, err = CoerceValue(float64(42), ValueTypeInt)
	require.NoError(t, err)
	assert.Equal(IntValue(42), v)

	// fractional floats do not silently truncate
	_, err = CoerceValue(42.5, ValueTypeInt)
	assert.Error(err)

	_, err = CoerceValue("forty-two", ValueTypeInt)
	assert.Error(err)
}

func TestCoerceFloat(t *testing.T) {

	assert := assert.New(t)

	v, err := CoerceValue("17.3", ValueTypeFloat)
	require.NoError(t, err)
	assert.Equal(FloatValue(17.3), v)

	v, err = CoerceValue(21, ValueTypeFloat)
	require.NoError(t, err)
	assert.Equal(FloatValue(21), v)

	_, err = CoerceValue("unavailable", ValueTypeFloat)
	assert.Error(err)
}

func TestPointValueNarrowing(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(1.0, BoolValue(true).AsFloat())
	assert.Equal(21.0, IntValue(21).AsFloat())

	i, err := FloatValue(21).AsInt()
	require.NoError(t, err)
	assert.Equal(int64(21), i)

	_, err = FloatValue(21.5).AsInt()
	assert.Error(err)
}

func TestCategoryOf(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(CategoryLight, CategoryOf("light.kitchen"))
	assert.Equal(CategoryClimate, CategoryOf("climate.downstairs"))
	assert.Equal(CategoryFan, CategoryOf("fan.bedroom"))
	assert.Equal(CategorySwitch, CategoryOf("switch.heater"))
	assert.Equal(CategoryInputBoolean, CategoryOf("input_boolean.away_mode"))
	assert.Equal(CategoryCover, CategoryOf("cover.garage"))
	assert.Equal(CategoryGeneric, CategoryOf("sensor.outside_temperature"))
	assert.Equal(CategoryGeneric, CategoryOf("no_dot"))
}

func TestParseValueType(t *testing.T) {

	assert := assert.New(t)

	for _, s := range []string{"bool", "boolean", "BOOLEAN"} {
		vt, ok := ParseValueType(s)
		assert.True(ok)
		assert.Equal(ValueTypeBool, vt)
	}
	vt, ok := ParseValueType(" int ")
	assert.True(ok)
	assert.Equal(ValueTypeInt, vt)

	_, ok = ParseValueType("decimal")
	assert.False(ok)
}
