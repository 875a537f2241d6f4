package actor

import (
	"fmt"
	"sync/atomic"
	"time"

	"hapoints2mqtt/internal/config"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/events"
	"hapoints2mqtt/internal/core/registry"
	"hapoints2mqtt/internal/core/service"
	. "hapoints2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// DeviceState is the per-device state that must outlive one poller actor
// incarnation: the supervisor rebuilds a crashed poller through its props
// producer, and the replacement has to resume with the current table, not
// the boot one, and must not republish scaffolding defaults.
type DeviceState struct {
	table       atomic.Pointer[registry.MappingTable]
	scrapedOnce atomic.Bool
}

func NewDeviceState(table *registry.MappingTable) *DeviceState {
	ds := &DeviceState{}
	ds.table.Store(table)
	return ds
}

func (s *DeviceState) Table() *registry.MappingTable {
	return s.table.Load()
}

// PollerActor owns one device: its mapping table, its scrape cycle and its
// point writes. The table is immutable and swapped by reference on reload.
type PollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	hassActor    *actor.PID
	device       config.DeviceConfig
	eventStream  *eventstream.EventStream
	shared       *DeviceState
	scraper      *service.ScrapeExecutor
	planner      *service.WriteDispatcher
	lastSnapshot domain.EntitySnapshot

	logger *zap.Logger
}

type pollTick struct {
}

func NewPollerActor(device config.DeviceConfig, shared *DeviceState, hassActor *actor.PID,
	eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		device:      device,
		shared:      shared,
		hassActor:   hassActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.PollerActorID(device.Name), logger),
		eventStream: eventStream,
		scraper:     service.NewScrapeExecutor(logger),
		planner:     service.NewWriteDispatcher(logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")

		// scaffolding defaults are published once, before the first scrape;
		// a respawned poller that has already scraped skips them
		if !state.shared.scrapedOnce.Load() {
			for _, ev := range events.StartingValueEvents(state.shared.Table()) {
				state.eventStream.Publish(ev)
			}
		}

		if state.device.PollIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.device.PollIntervalMillis)*time.Millisecond, ctx.Self(), pollTick{})
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.PollerActorID(state.device.Name),
			Healthy: true,
			State:   "idle",
		})
	case pollTick:
		state.logger.Debug("poller@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.hassActor, domain.GetEntityStatesRequest{}, 10*time.Second), func(err error) any {
			return domain.GetEntityStatesResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduler.RequestOnce(time.Duration(state.device.PollIntervalMillis)*time.Millisecond, ctx.Self(), pollTick{})
		state.behavior.BecomeStacked(state.WaitingScrapeReceive)
	case domain.PointWriteRequest:
		state.logger.Debug("poller@default PointWriteRequest", zap.String("point", msg.PointName))
		state.handlePointWrite(ctx, msg)
	case domain.ReloadRegistryRequest:
		state.logger.Debug("poller@default ReloadRegistryRequest")
		table, err := registry.NewMappingTable(msg.Definitions)
		if err != nil {
			ForRequest(msg).Respond(ctx, domain.ReloadRegistryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
			return
		}
		state.shared.table.Store(table)
		ForRequest(msg).Respond(ctx, domain.ReloadRegistryResponse{
			Points: table.Len(),
		})
	case domain.GetPointInventoryRequest:
		state.logger.Debug("poller@default GetPointInventoryRequest")
		ForRequest(msg).Respond(ctx, domain.GetPointInventoryResponse{
			Points: events.PointInventory(state.device.Name, state.shared.Table()),
		})
	default:
		state.logger.Debug("poller@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) WaitingScrapeReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetEntityStatesResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@waiting GetEntityStatesResponse error", zap.Error(msg.GetResponseError()))
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
			return
		}
		state.logger.Debug("poller@waiting GetEntityStatesResponse")
		state.lastSnapshot = msg.Snapshot
		state.shared.scrapedOnce.Store(true)

		result := state.scraper.Scrape(state.shared.Table(), msg.Snapshot)
		for _, warn := range result.Warnings {
			state.logger.Warn("poller@waiting scrape warning",
				zap.String("point", warn.PointName),
				zap.String("entity_id", warn.EntityID),
				zap.Error(warn.Err))
		}
		for _, ev := range events.ScrapeResultToUpdateEvents(result) {
			state.eventStream.Publish(ev)
		}

		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// handlePointWrite plans the write against the current table and dispatches
// the plan to the controller actor. Planning errors are returned without any
// controller traffic.
func (state *PollerActor) handlePointWrite(ctx actor.Context, msg domain.PointWriteRequest) {
	sender := ForRequest(msg).ReplyTo(ctx)

	ops, err := state.planner.Plan(state.shared.Table(), msg.PointName, msg.Value, state.currentState())
	if err != nil {
		state.logger.Warn("poller@write rejected", zap.String("point", msg.PointName), zap.Error(err))
		if sender != nil {
			ctx.Send(sender, domain.PointWriteResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
		}
		return
	}

	future := ctx.RequestFuture(state.hassActor, domain.CallServicesRequest{Operations: ops}, 15*time.Second)
	ctx.ReenterAfter(future, func(res any, err error) {
		if sender == nil {
			return
		}
		if err != nil {
			ctx.Send(sender, domain.PointWriteResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
			return
		}
		resp := res.(domain.CallServicesResponse)
		ctx.Send(sender, domain.PointWriteResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: resp.GetResponseError(),
			},
			Operations: resp.Invoked,
		})
	})
}

func (state *PollerActor) currentState() domain.CurrentStateFn {
	snapshot := state.lastSnapshot
	return func(entityID string) (domain.EntityState, bool) {
		s, ok := snapshot[entityID]
		return s, ok
	}
}
