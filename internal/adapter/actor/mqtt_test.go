package actor

import (
	"testing"
	"time"

	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/util"
	"hapoints2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	time.Sleep(2 * time.Second)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.NotNil(t, resp)

	context.Send(pid, domain.PublishPointUpdateRequest{
		Event: domain.FloatPointUpdateEvent{
			PointUpdateEventMixIn: domain.PointUpdateEventMixIn{
				Name: "ZoneTemperature",
			},
			Value:    21.52,
			Decimals: 2,
		},
	})

	time.Sleep(1 * time.Second)

	context.Stop(pid)

	time.Sleep(1 * time.Second)

	as.Shutdown()
}

// The client only exists after Started. Stopping an actor whose broker
// connection never came up must not dereference it.
func TestMQTTActorStopBeforeConnect(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	es := eventstream.EventStream{}
	act := NewMQTTActor(&cfg, &es, logger)

	assert.NotPanics(t, func() { act.stop() })
}
