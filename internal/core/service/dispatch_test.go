package service

import (
	"errors"
	"testing"

	"hapoints2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPlanStateWrite(t *testing.T) {

	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	ops, err := dispatcher.Plan(table, "LivingRoomLightState", true, nil)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "light", ops[0].Domain)
	assert.Equal(t, "turn_on", ops[0].Service)
	assert.Equal(t, "light.living_room", ops[0].Data["entity_id"])
}

func TestPlanCoercesStringPayloads(t *testing.T) {

	assert := assert.New(t)
	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	// MQTT payloads arrive as strings and are coerced to the declared type
	ops, err := dispatcher.Plan(table, "ZoneTemperatureSetPoint", "22.5", nil)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal("set_temperature", ops[0].Service)
	assert.Equal(22.5, ops[0].Data["temperature"])

	ops, err = dispatcher.Plan(table, "LivingRoomLightState", "off", nil)
	require.NoError(t, err)
	assert.Equal("turn_off", ops[0].Service)
}

func TestPlanUnknownPoint(t *testing.T) {

	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	_, err := dispatcher.Plan(table, "NoSuchPoint", 1, nil)
	require.Error(t, err)
	var unknownErr *domain.UnknownPointError
	assert.True(t, errors.As(err, &unknownErr))
}

func TestPlanReadOnlyPoint(t *testing.T) {

	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	_, err := dispatcher.Plan(table, "OutsideTemperature", 20.0, nil)
	require.Error(t, err)
	var roErr *domain.ReadOnlyPointError
	assert.True(t, errors.As(err, &roErr))
}

func TestPlanValidationError(t *testing.T) {

	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	// declared type rejects the payload before any strategy runs
	_, err := dispatcher.Plan(table, "ZoneTemperatureSetPoint", "warm", nil)
	require.Error(t, err)
	var valErr *domain.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "ZoneTemperatureSetPoint", valErr.PointName)
}

func TestPlanFanPercentageUsesCurrentState(t *testing.T) {

	assert := assert.New(t)
	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	running := func(entityID string) (domain.EntityState, bool) {
		return domain.EntityState{EntityID: entityID, State: "on"}, true
	}
	ops, err := dispatcher.Plan(table, "FanSpeed", "75", running)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal("set_percentage", ops[0].Service)

	stopped := func(entityID string) (domain.EntityState, bool) {
		return domain.EntityState{EntityID: entityID, State: "off"}, true
	}
	ops, err = dispatcher.Plan(table, "FanSpeed", "75", stopped)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal("turn_on", ops[0].Service)
	assert.Equal("set_percentage", ops[1].Service)

	unseen := func(entityID string) (domain.EntityState, bool) {
		return domain.EntityState{}, false
	}
	ops, err = dispatcher.Plan(table, "FanSpeed", "75", unseen)
	require.NoError(t, err)
	require.Len(t, ops, 2)
}

func TestPlanEnforcementOrder(t *testing.T) {

	dispatcher := NewWriteDispatcher(zap.NewNop())
	table := serviceTestTable(t)

	// a bogus value against an unknown point reports the unknown point, not
	// the value
	_, err := dispatcher.Plan(table, "NoSuchPoint", "warm", nil)
	var unknownErr *domain.UnknownPointError
	require.True(t, errors.As(err, &unknownErr))

	// a bogus value against a read-only point reports read-only
	_, err = dispatcher.Plan(table, "OutsideTemperature", "warm", nil)
	var roErr *domain.ReadOnlyPointError
	require.True(t, errors.As(err, &roErr))
}
