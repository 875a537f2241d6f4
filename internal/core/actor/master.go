package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "hapoints2mqtt/internal/adapter/actor"
	"hapoints2mqtt/internal/config"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/events"
	"hapoints2mqtt/internal/core/registry"
	. "hapoints2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type HassActorProvider func() *adactor.HassActor

// DevicePoints pairs one configured device with its parsed mapping table.
type DevicePoints struct {
	Device config.DeviceConfig
	Table  *registry.MappingTable
}

// MasterActor supervises the actor tree: the controller and MQTT adapters,
// one poller per device, and the meta publisher. It routes point writes to
// the poller that owns the point.
type MasterActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	hassActor          *actor.PID
	mqttActor          *actor.PID
	pollerActors       map[string]*actor.PID
	devices            map[string]DevicePoints
	deviceStates       map[string]*DeviceState
	pointIndex         map[string]string
	hassActorProvider  HassActorProvider
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	healthyByID    map[string]bool
	checksReceived int
	checksExpected int
	respondTo      *actor.PID
}

func NewMasterActor(config config.Config, devices []DevicePoints, hassActorProvider HassActorProvider,
	mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger("master", logger),
		eventStream:       &eventstream.EventStream{},
		hassActorProvider: hassActorProvider,
		mqttActorProvider: mqttActorProvider,
		pollerActors:      make(map[string]*actor.PID, len(devices)),
		devices:           make(map[string]DevicePoints, len(devices)),
		deviceStates:      make(map[string]*DeviceState, len(devices)),
		pointIndex:        make(map[string]string),
	}
	for _, dev := range devices {
		act.devices[dev.Device.Name] = dev
		act.deviceStates[dev.Device.Name] = NewDeviceState(dev.Table)
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Hass child
		hassActorPID, err := state.startHassActor(ctx)
		if err != nil {
			panic(err)
		}
		state.hassActor = hassActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start one poller per device
		for name, dev := range state.devices {
			pollerPID, err := state.startPollerActor(ctx, dev)
			if err != nil {
				panic(err)
			}
			state.pollerActors[name] = pollerPID
			state.indexDevice(name, dev.Table)
		}

		// start meta publisher
		if _, err := state.startMetaActor(ctx); err != nil {
			panic(err)
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		state.currentHealthCheck.checksExpected = 2 + len(state.pollerActors)
		// Hass Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.hassActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_HASS,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Poller Actor Requests
		for name := range state.pollerActors {
			id := domain.PollerActorID(name)
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.pollerActors[name], domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect point write to the owning poller
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToPointWrite(*msg.Command)
			if err == nil && cmd != nil {
				state.routePointWrite(ctx, cmd.(domain.PointWriteRequest))
			}
		}
	case domain.PointWriteRequest:
		state.logger.Debug("master@default PointWriteRequest", zap.String("point", msg.PointName))
		state.routePointWrite(ctx, msg)
	case domain.GetPointInventoryRequest:
		state.logger.Debug("master@default GetPointInventoryRequest")
		var points []domain.PointInventoryEntry
		for name, dev := range state.devices {
			points = append(points, events.PointInventory(name, dev.Table)...)
		}
		ForRequest(msg).Respond(ctx, domain.GetPointInventoryResponse{
			Points: points,
		})
	case domain.ReloadDeviceRequest:
		state.logger.Debug("master@default ReloadDeviceRequest", zap.String("device", msg.Device))
		state.handleReloadDevice(ctx, msg)
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_HASS) {
			state.logger.Error("master@default hass error")
			panic(errors.New("hass terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		state.currentHealthCheck.healthyByID[msg.Id] = msg.Healthy
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// routePointWrite forwards a write to the poller that owns the point. An
// unknown point is answered directly with an UnknownPointError.
func (state *MasterActor) routePointWrite(ctx actor.Context, msg domain.PointWriteRequest) {
	device, ok := state.pointIndex[msg.PointName]
	if !ok {
		state.logger.Warn("master@write unknown point", zap.String("point", msg.PointName))
		if sender := ForRequest(msg).ReplyTo(ctx); sender != nil {
			ctx.Send(sender, domain.PointWriteResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: &domain.UnknownPointError{PointName: msg.PointName},
				},
			})
		}
		return
	}
	if msg.ReplyToRef == nil && ctx.Sender() != nil {
		msg.ReplyToRef = (*domain.ActorRef)(ctx.Sender())
	}
	ctx.Send(state.pollerActors[device], msg)
}

// handleReloadDevice builds the replacement table, swaps it into the poller
// and rebuilds the master's point index for that device.
func (state *MasterActor) handleReloadDevice(ctx actor.Context, msg domain.ReloadDeviceRequest) {
	req := ForRequest(msg)
	dev, ok := state.devices[msg.Device]
	if !ok {
		req.Respond(ctx, domain.ReloadDeviceResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: fmt.Errorf("unknown device %q", msg.Device),
			},
		})
		return
	}
	table, err := registry.NewMappingTable(msg.Definitions)
	if err != nil {
		req.Respond(ctx, domain.ReloadDeviceResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		})
		return
	}
	// point names must stay unique across devices, the write router depends
	// on it
	for i, def := range table.Points() {
		if owner, taken := state.pointIndex[def.PointName]; taken && owner != msg.Device {
			req.Respond(ctx, domain.ReloadDeviceResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: &domain.RegistryError{
						Row:       i,
						PointName: def.PointName,
						Reason:    fmt.Sprintf("point name already declared by device %q", owner),
					},
				},
			})
			return
		}
	}

	sender := req.ReplyTo(ctx)
	pollerPID := state.pollerActors[msg.Device]
	future := ctx.RequestFuture(pollerPID, domain.ReloadRegistryRequest{Definitions: msg.Definitions}, 5*time.Second)
	ctx.ReenterAfter(future, func(res any, err error) {
		if err != nil {
			if sender != nil {
				ctx.Send(sender, domain.ReloadDeviceResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				})
			}
			return
		}
		resp := res.(domain.ReloadRegistryResponse)
		if !resp.HasResponseError() {
			state.unindexDevice(msg.Device)
			state.devices[msg.Device] = DevicePoints{Device: dev.Device, Table: table}
			state.indexDevice(msg.Device, table)
			// republish retained meta for the new table
			ctx.Send(state.mqttActor, domain.PublishPointMetaRequest{
				Entries: events.PointMetaEntries(msg.Device, table),
			})
		}
		if sender != nil {
			ctx.Send(sender, domain.ReloadDeviceResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: resp.GetResponseError(),
				},
				Points: resp.Points,
			})
		}
	})
}

func (state *MasterActor) indexDevice(device string, table *registry.MappingTable) {
	for _, def := range table.Points() {
		state.pointIndex[def.PointName] = device
	}
}

func (state *MasterActor) unindexDevice(device string) {
	for name, dev := range state.pointIndex {
		if dev == device {
			delete(state.pointIndex, name)
		}
	}
}

func (state *MasterActor) startHassActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	hassProps := actor.PropsFromProducer(func() actor.Actor {
		return state.hassActorProvider()
	}, actor.WithSupervisor(supervisor))
	hassActorPID, err := ctx.SpawnNamed(hassProps, domain.ACTOR_ID_HASS)
	if err != nil {
		return nil, err
	}

	return hassActorPID, nil
}

func (state *MasterActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterActor) startPollerActor(ctx actor.Context, dev DevicePoints) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	// the producer runs again on every supervisor restart: it must pick up
	// the shared device state, not the boot table
	shared := state.deviceStates[dev.Device.Name]
	pollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(dev.Device, shared, state.hassActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	pollerActorPID, err := ctx.SpawnNamed(pollerProps, domain.PollerActorID(dev.Device.Name))
	if err != nil {
		return nil, err
	}

	return pollerActorPID, nil
}

func (state *MasterActor) startMetaActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	var entries []domain.PointMetaEntry
	for name, dev := range state.devices {
		entries = append(entries, events.PointMetaEntries(name, dev.Table)...)
	}

	metaProps := actor.PropsFromProducer(func() actor.Actor {
		return NewMetaActor(&state.config, entries, state.hassActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	metaPID, err := ctx.SpawnNamed(metaProps, domain.ACTOR_ID_META)
	if err != nil {
		return nil, err
	}

	return metaPID, nil
}

func (state *healthCheckResult) reset() {
	state.healthyByID = make(map[string]bool)
	state.checksReceived = 0
	state.checksExpected = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == state.checksExpected
}

func (state *healthCheckResult) allHealthy() bool {
	if len(state.healthyByID) < state.checksExpected {
		return false
	}
	for _, healthy := range state.healthyByID {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      "master",
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
