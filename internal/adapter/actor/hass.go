package actor

import (
	"fmt"
	"time"

	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/util/actorutil"
	"hapoints2mqtt/pkg/hass_rest"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	HASS_ACTOR_ID = "hass"

	hassCallTimeout = 10 * time.Second
)

type HassActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   hass_rest.ControllerClient
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewHassActor(client hass_rest.ControllerClient, logger *zap.Logger) *HassActor {
	act := &HassActor{
		client:   client,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger("hass", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HassActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HassActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hass@starting started")
		if err := state.client.Validate(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hass@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HassActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("hass@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      HASS_ACTOR_ID,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetEntityStatesRequest:
		state.logger.Debug("hass@default: GetEntityStatesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getEntityStates),
			mapTaskResult[domain.GetEntityStatesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetEntityStatesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(hassCallTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingHass)
	case domain.CallServicesRequest:
		state.logger.Debug("hass@default: CallServicesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		ops := msg.Operations
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.CallServicesResponse, error) {
			return state.callServices(ops)
		}),
			mapTaskResult[domain.CallServicesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.CallServicesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(hassCallTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingHass)
	default:
		state.logger.Debug("hass@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HassActor) WaitingHass(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("hass@WaitingHass backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hass@WaitingHass stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *HassActor) getEntityStates() (*domain.GetEntityStatesResponse, error) {
	entities, err := a.client.GetStates()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	snapshot := make(domain.EntitySnapshot, len(entities))
	for _, entity := range entities {
		snapshot[entity.EntityID] = domain.EntityState{
			EntityID:   entity.EntityID,
			State:      entity.State,
			Attributes: entity.Attributes,
		}
	}
	return &domain.GetEntityStatesResponse{
		Snapshot: snapshot,
	}, nil
}

// callServices invokes the plan in order. The first failure stops the
// sequence: earlier calls are already applied and are not rolled back.
func (a *HassActor) callServices(ops []domain.ControllerOperation) (*domain.CallServicesResponse, error) {
	for i, op := range ops {
		if err := a.client.CallService(op.Domain, op.Service, op.Data); err != nil {
			logger.Error(err)
			return &domain.CallServicesResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
				Invoked: i,
			}, nil
		}
	}
	return &domain.CallServicesResponse{
		Invoked: len(ops),
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
