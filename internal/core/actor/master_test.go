package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "hapoints2mqtt/internal/adapter/actor"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"
	"hapoints2mqtt/internal/util"
	"hapoints2mqtt/pkg/hass_rest"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDevicePoints(t *testing.T) DevicePoints {
	t.Helper()

	defs, err := registry.ParseRegistry([]registry.RegistryRow{
		{
			EntityID:    "light.living_room",
			EntityPoint: "state",
			PointName:   "LivingRoomLightState",
			Writable:    true,
			Type:        "boolean",
		},
		{
			EntityID:    "switch.heater",
			EntityPoint: "state",
			PointName:   "HeaterSwitch",
			Writable:    true,
			Type:        "boolean",
		},
		{
			EntityID:    "climate.downstairs",
			EntityPoint: "temperature",
			PointName:   "DownstairsTemperatureSetPoint",
			Writable:    true,
			Type:        "float",
		},
		{
			EntityID:    "sensor.outside_temperature",
			EntityPoint: "state",
			PointName:   "OutsideTemperature",
			Writable:    false,
			Type:        "float",
		},
	})
	require.NoError(t, err)

	table, err := registry.NewMappingTable(defs)
	require.NoError(t, err)

	cfg := util.LoadTestConfig()
	return DevicePoints{
		Device: cfg.Devices[0],
		Table:  table,
	}
}

func spawnTestMaster(t *testing.T, as *actor.ActorSystem, client hass_rest.ControllerClient) *actor.PID {
	t.Helper()

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	devices := []DevicePoints{testDevicePoints(t)}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterActor(cfg, devices, func() *adactor.HassActor {
			return adactor.NewHassActor(client, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "master")
	require.NoError(t, err)
	return pid
}

func TestMasterActorHealthCheck(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	client := hass_rest.CreateTestControllerClient()
	pid := spawnTestMaster(t, as, client)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorPointWrite(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	client := hass_rest.CreateTestControllerClient()
	pid := spawnTestMaster(t, as, client)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.PointWriteRequest{
		PointName: "HeaterSwitch",
		Value:     "on",
	}, 10*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.PointWriteResponse)
	require.True(t, ok)
	assert.False(t, resp.HasResponseError(), "no response error")
	assert.Equal(t, 1, resp.Operations, "one operation invoked")
	require.Len(t, client.Calls, 1)
	assert.Equal(t, "switch", client.Calls[0].Domain)
	assert.Equal(t, "turn_on", client.Calls[0].Service)
	assert.Equal(t, "switch.heater", client.Calls[0].Data["entity_id"])

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorPointWriteUnknownPoint(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	client := hass_rest.CreateTestControllerClient()
	pid := spawnTestMaster(t, as, client)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.PointWriteRequest{
		PointName: "NoSuchPoint",
		Value:     "on",
	}, 10*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.PointWriteResponse)
	require.True(t, ok)
	assert.True(t, resp.HasResponseError(), "unknown point rejected")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorReloadDevice(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	client := hass_rest.CreateTestControllerClient()
	pid := spawnTestMaster(t, as, client)

	time.Sleep(2 * time.Second)

	defs, err := registry.ParseRegistry([]registry.RegistryRow{
		{
			EntityID:    "switch.heater",
			EntityPoint: "state",
			PointName:   "ReplacementHeaterSwitch",
			Writable:    true,
			Type:        "boolean",
		},
	})
	require.NoError(t, err)

	res, err := context.RequestFuture(pid, domain.ReloadDeviceRequest{
		Device:      "apartment",
		Definitions: defs,
	}, 10*time.Second).Result()
	require.NoError(t, err)

	reloadResp, ok := res.(domain.ReloadDeviceResponse)
	require.True(t, ok)
	assert.False(t, reloadResp.HasResponseError(), "reload accepted")
	assert.Equal(t, 1, reloadResp.Points)

	// writes route through the replacement table
	res, err = context.RequestFuture(pid, domain.PointWriteRequest{
		PointName: "ReplacementHeaterSwitch",
		Value:     "on",
	}, 10*time.Second).Result()
	require.NoError(t, err)
	writeResp, ok := res.(domain.PointWriteResponse)
	require.True(t, ok)
	assert.False(t, writeResp.HasResponseError(), "new point writable")

	// the old point name is gone from the index
	res, err = context.RequestFuture(pid, domain.PointWriteRequest{
		PointName: "HeaterSwitch",
		Value:     "on",
	}, 10*time.Second).Result()
	require.NoError(t, err)
	writeResp, ok = res.(domain.PointWriteResponse)
	require.True(t, ok)
	assert.True(t, writeResp.HasResponseError(), "old point rejected")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorPointInventory(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	client := hass_rest.CreateTestControllerClient()
	pid := spawnTestMaster(t, as, client)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetPointInventoryRequest{}, 10*time.Second).Result()
	require.NoError(t, err)

	resp, ok := res.(domain.GetPointInventoryResponse)
	require.True(t, ok)
	assert.Len(t, resp.Points, 4)

	context.Stop(pid)

	as.Shutdown()
}
