package registry

import (
	"errors"
	"testing"

	"hapoints2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *MappingTable {
	t.Helper()

	defs, err := ParseRegistry([]RegistryRow{
		{EntityID: "light.living_room", EntityPoint: "state", PointName: "LivingRoomLightState", Writable: true, Type: "boolean"},
		{EntityID: "light.living_room", EntityPoint: "brightness", PointName: "LivingRoomLightBrightness", Writable: true, Type: "int"},
		{EntityID: "climate.downstairs", EntityPoint: "temperature", PointName: "ZoneTemperatureSetPoint", Writable: true, Type: "float"},
		{EntityID: "sensor.outside_temperature", EntityPoint: "state", PointName: "OutsideTemperature", Type: "float"},
	})
	require.NoError(t, err)

	table, err := NewMappingTable(defs)
	require.NoError(t, err)
	return table
}

func TestMappingTableLookups(t *testing.T) {

	assert := assert.New(t)
	table := testTable(t)

	def, err := table.LookupByPointName("ZoneTemperatureSetPoint")
	require.NoError(t, err)
	assert.Equal("climate.downstairs", def.EntityID)
	assert.Equal("temperature", def.EntityPoint)

	def, err = table.LookupByEntityPoint("light.living_room", "brightness")
	require.NoError(t, err)
	assert.Equal("LivingRoomLightBrightness", def.PointName)
}

func TestMappingTableUnknownPoint(t *testing.T) {

	table := testTable(t)

	_, err := table.LookupByPointName("NoSuchPoint")
	require.Error(t, err)
	var unknownErr *domain.UnknownPointError
	assert.True(t, errors.As(err, &unknownErr))

	_, err = table.LookupByEntityPoint("light.living_room", "color_temp")
	require.Error(t, err)
	assert.True(t, errors.As(err, &unknownErr))
}

func TestMappingTableOrder(t *testing.T) {

	assert := assert.New(t)
	table := testTable(t)

	points := table.Points()
	require.Len(t, points, 4)
	assert.Equal("LivingRoomLightState", points[0].PointName)
	assert.Equal("OutsideTemperature", points[3].PointName)
	assert.Equal(4, table.Len())

	assert.Equal([]string{
		"light.living_room",
		"climate.downstairs",
		"sensor.outside_temperature",
	}, table.EntityIDs())
}

func TestMappingTablePointsForEntity(t *testing.T) {

	table := testTable(t)

	points := table.PointsForEntity("light.living_room")
	require.Len(t, points, 2)
	assert.Equal(t, "LivingRoomLightState", points[0].PointName)
	assert.Equal(t, "LivingRoomLightBrightness", points[1].PointName)

	assert.Empty(t, table.PointsForEntity("switch.unknown"))
}

func TestMappingTableDuplicateEntityPointKeepsFirst(t *testing.T) {

	defs, err := ParseRegistry([]RegistryRow{
		{EntityID: "switch.heater", EntityPoint: "state", PointName: "HeaterSwitch", Writable: true, Type: "boolean"},
		{EntityID: "switch.heater", EntityPoint: "state", PointName: "HeaterSwitchAlias", Type: "boolean"},
	})
	require.NoError(t, err)

	table, err := NewMappingTable(defs)
	require.NoError(t, err)

	def, err := table.LookupByEntityPoint("switch.heater", "state")
	require.NoError(t, err)
	assert.Equal(t, "HeaterSwitch", def.PointName)
}

func TestMappingTableDuplicatePointName(t *testing.T) {

	_, err := NewMappingTable([]domain.PointDefinition{
		{EntityID: "switch.a", EntityPoint: "state", PointName: "Same", Type: domain.ValueTypeBool},
		{EntityID: "switch.b", EntityPoint: "state", PointName: "Same", Type: domain.ValueTypeBool},
	})
	require.Error(t, err)
	var regErr *domain.RegistryError
	assert.True(t, errors.As(err, &regErr))
}
