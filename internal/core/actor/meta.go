package actor

import (
	"errors"
	"fmt"
	"time"

	"hapoints2mqtt/internal/config"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// MetaActor waits for the controller and MQTT adapters to come up, then
// publishes the retained per-point meta documents. One shot per boot.
type MetaActor struct {
	config           *config.Config
	behavior         actor.Behavior
	stash            *actorutil.Stash
	entries          []domain.PointMetaEntry
	hassActor        *actor.PID
	mqttActor        *actor.PID
	hassActorHealthy bool
	mqttActorHealthy bool
	healthyRecv      int

	logger *zap.Logger
}

func NewMetaActor(config *config.Config, entries []domain.PointMetaEntry, hassActor *actor.PID,
	mqttActor *actor.PID, logger *zap.Logger) *MetaActor {
	act := &MetaActor{
		config:    config,
		entries:   entries,
		hassActor: hassActor,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_META, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MetaActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MetaActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("pointmeta@starting started")

		// Check Hass and MQTT actor healthy
		state.healthyRecv = 0
		state.hassActorHealthy = false
		state.mqttActorHealthy = false
		// Hass Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.hassActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_HASS,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("pointmeta@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MetaActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("pointmeta@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_HASS:
				state.hassActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.hassActorHealthy && state.mqttActorHealthy {
				ctx.Send(state.mqttActor, domain.PublishPointMetaRequest{
					Entries: state.entries,
				})
				state.behavior.Become(state.Done)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Hass Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("pointmeta@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MetaActor) Done(ctx actor.Context) {

}
