package actor

import (
	"sync/atomic"
	"testing"
	"time"

	"hapoints2mqtt/internal/config"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pollerTestTable(t *testing.T, rows []registry.RegistryRow) *registry.MappingTable {
	t.Helper()

	defs, err := registry.ParseRegistry(rows)
	require.NoError(t, err)
	table, err := registry.NewMappingTable(defs)
	require.NoError(t, err)
	return table
}

// A poller rebuilt by its supervisor goes through the props producer again.
// The replacement must resume with the reloaded table, not the boot one.
func TestPollerRespawnKeepsReloadedTable(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	logger := zap.Must(zap.NewDevelopment())

	shared := NewDeviceState(pollerTestTable(t, []registry.RegistryRow{
		{EntityID: "switch.heater", EntityPoint: "state", PointName: "HeaterSwitch", Writable: true, Type: "boolean"},
	}))
	device := config.DeviceConfig{Name: "apartment"}
	es := &eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(device, shared, nil, es, logger)
	})
	pid := context.Spawn(props)

	newDefs, err := registry.ParseRegistry([]registry.RegistryRow{
		{EntityID: "switch.heater", EntityPoint: "state", PointName: "HeaterSwitch", Writable: true, Type: "boolean"},
		{EntityID: "sensor.outside_temperature", EntityPoint: "state", PointName: "OutsideTemperature", Type: "float"},
	})
	require.NoError(t, err)

	res, err := context.RequestFuture(pid, domain.ReloadRegistryRequest{Definitions: newDefs}, 5*time.Second).Result()
	require.NoError(t, err)
	reloadResp, ok := res.(domain.ReloadRegistryResponse)
	require.True(t, ok)
	assert.False(t, reloadResp.HasResponseError())
	assert.Equal(t, 2, reloadResp.Points)

	context.Stop(pid)
	time.Sleep(500 * time.Millisecond)

	// same producer, as a supervisor restart would run it
	pid2 := context.Spawn(props)
	res, err = context.RequestFuture(pid2, domain.GetPointInventoryRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	invResp, ok := res.(domain.GetPointInventoryResponse)
	require.True(t, ok)
	require.Len(t, invResp.Points, 2)
	assert.Equal(t, "OutsideTemperature", invResp.Points[1].PointName)

	context.Stop(pid2)

	as.Shutdown()
}

func TestPollerStartingValuesSkippedAfterScrape(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root
	logger := zap.Must(zap.NewDevelopment())

	table := pollerTestTable(t, []registry.RegistryRow{
		{EntityID: "switch.heater", EntityPoint: "state", PointName: "HeaterSwitch", Writable: true, StartingValue: "off", Type: "boolean"},
	})

	var published atomic.Int32
	es := &eventstream.EventStream{}
	sub := es.Subscribe(func(value any) {
		if _, ok := value.(domain.BoolPointUpdateEvent); ok {
			published.Add(1)
		}
	})
	defer es.Unsubscribe(sub)

	shared := NewDeviceState(table)
	device := config.DeviceConfig{Name: "apartment"}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(device, shared, nil, es, logger)
	})

	pid := context.Spawn(props)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), published.Load(), "boot publishes the scaffolding default")

	context.Stop(pid)
	time.Sleep(500 * time.Millisecond)

	// once a real read has succeeded, a respawned poller must not publish
	// the defaults again
	shared.scrapedOnce.Store(true)
	pid2 := context.Spawn(props)
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), published.Load(), "defaults stay unpublished after a scrape")

	context.Stop(pid2)

	as.Shutdown()
}
