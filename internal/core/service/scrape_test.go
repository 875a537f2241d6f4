package service

import (
	"testing"

	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serviceTestTable(t *testing.T) *registry.MappingTable {
	t.Helper()

	defs, err := registry.ParseRegistry([]registry.RegistryRow{
		{EntityID: "light.living_room", EntityPoint: "state", PointName: "LivingRoomLightState", Writable: true, Type: "boolean"},
		{EntityID: "light.living_room", EntityPoint: "brightness", PointName: "LivingRoomLightBrightness", Writable: true, Type: "int"},
		{EntityID: "climate.downstairs", EntityPoint: "state", PointName: "HvacMode", Writable: true, Type: "int"},
		{EntityID: "climate.downstairs", EntityPoint: "temperature", PointName: "ZoneTemperatureSetPoint", Writable: true, Type: "float"},
		{EntityID: "climate.downstairs", EntityPoint: "current_temperature", PointName: "ZoneTemperature", Type: "float"},
		{EntityID: "fan.bedroom", EntityPoint: "percentage", PointName: "FanSpeed", Writable: true, Type: "int"},
		{EntityID: "sensor.outside_temperature", EntityPoint: "state", PointName: "OutsideTemperature", Type: "float"},
	})
	require.NoError(t, err)

	table, err := registry.NewMappingTable(defs)
	require.NoError(t, err)
	return table
}

func testSnapshot() domain.EntitySnapshot {
	return domain.EntitySnapshot{
		"light.living_room": {
			EntityID:   "light.living_room",
			State:      "on",
			Attributes: map[string]any{"brightness": float64(128)},
		},
		"climate.downstairs": {
			EntityID: "climate.downstairs",
			State:    "heat",
			Attributes: map[string]any{
				"temperature":         21.5,
				"current_temperature": 20.8,
			},
		},
		"fan.bedroom": {
			EntityID:   "fan.bedroom",
			State:      "off",
			Attributes: map[string]any{"percentage": float64(0)},
		},
		"sensor.outside_temperature": {
			EntityID: "sensor.outside_temperature",
			State:    "17.3",
		},
	}
}

func TestScrape(t *testing.T) {

	assert := assert.New(t)

	scraper := NewScrapeExecutor(zap.NewNop())
	result := scraper.Scrape(serviceTestTable(t), testSnapshot())

	assert.Empty(result.Warnings)
	require.Len(t, result.Values, 7)

	assert.Equal(domain.BoolValue(true), result.Values["LivingRoomLightState"])
	assert.Equal(domain.IntValue(128), result.Values["LivingRoomLightBrightness"])
	assert.Equal(domain.IntValue(2), result.Values["HvacMode"])
	assert.Equal(domain.FloatValue(21.5), result.Values["ZoneTemperatureSetPoint"])
	assert.Equal(domain.FloatValue(20.8), result.Values["ZoneTemperature"])
	assert.Equal(domain.IntValue(0), result.Values["FanSpeed"])
	assert.Equal(domain.FloatValue(17.3), result.Values["OutsideTemperature"])

	meta := result.Meta["ZoneTemperature"]
	assert.Equal("climate.downstairs", meta.EntityID)
	assert.Equal("current_temperature", meta.EntityPoint)
	assert.False(meta.Writable)
}

func TestScrapeMissingEntity(t *testing.T) {

	scraper := NewScrapeExecutor(zap.NewNop())
	snapshot := testSnapshot()
	delete(snapshot, "sensor.outside_temperature")

	result := scraper.Scrape(serviceTestTable(t), snapshot)

	assert.Len(t, result.Values, 6)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "OutsideTemperature", result.Warnings[0].PointName)
	assert.Equal(t, "sensor.outside_temperature", result.Warnings[0].EntityID)
	_, ok := result.Values["OutsideTemperature"]
	assert.False(t, ok)
}

func TestScrapeMissingAttribute(t *testing.T) {

	scraper := NewScrapeExecutor(zap.NewNop())
	snapshot := testSnapshot()
	entity := snapshot["fan.bedroom"]
	entity.Attributes = map[string]any{}
	snapshot["fan.bedroom"] = entity

	result := scraper.Scrape(serviceTestTable(t), snapshot)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "FanSpeed", result.Warnings[0].PointName)
}

func TestScrapeDecodeFailure(t *testing.T) {

	scraper := NewScrapeExecutor(zap.NewNop())
	snapshot := testSnapshot()
	entity := snapshot["climate.downstairs"]
	entity.State = "dry"
	snapshot["climate.downstairs"] = entity

	result := scraper.Scrape(serviceTestTable(t), snapshot)

	// only the mode point fails; the sibling temperature points survive
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "HvacMode", result.Warnings[0].PointName)
	assert.Contains(t, result.Values, "ZoneTemperatureSetPoint")
	assert.Contains(t, result.Values, "ZoneTemperature")
}

func TestScrapeIsRepeatable(t *testing.T) {

	scraper := NewScrapeExecutor(zap.NewNop())
	table := serviceTestTable(t)

	first := scraper.Scrape(table, testSnapshot())
	second := scraper.Scrape(table, testSnapshot())

	assert.Equal(t, first.Values, second.Values)
}
