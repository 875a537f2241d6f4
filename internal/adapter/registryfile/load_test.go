package registryfile

import (
	"testing"

	"hapoints2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistryFile(t *testing.T) {

	assert := assert.New(t)

	defs, err := Load("testdata/apartment.json")
	require.NoError(t, err)
	require.Len(t, defs, 10)

	byName := make(map[string]domain.PointDefinition, len(defs))
	for _, def := range defs {
		byName[def.PointName] = def
	}

	light := byName["LivingRoomLightState"]
	assert.Equal("light.living_room", light.EntityID)
	assert.Equal("state", light.EntityPoint)
	assert.True(light.Writable)
	assert.Equal(domain.ValueTypeBool, light.Type)
	assert.Equal(domain.CategoryLight, light.Category)
	require.NotNil(t, light.StartingValue)
	assert.Equal(domain.BoolValue(false), *light.StartingValue)

	mode := byName["DownstairsThermostatMode"]
	assert.Equal(domain.CategoryClimate, mode.Category)
	assert.Equal(domain.ValueTypeInt, mode.Type)

	temp := byName["DownstairsTemperature"]
	assert.False(temp.Writable)

	weather := byName["OutsideTemperature"]
	assert.Equal(domain.CategoryGeneric, weather.Category)
}

func TestLoadRegistryFileMissing(t *testing.T) {

	_, err := Load("testdata/does_not_exist.json")
	assert.Error(t, err)
}
