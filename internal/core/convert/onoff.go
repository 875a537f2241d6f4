package convert

import (
	"hapoints2mqtt/internal/core/domain"
)

// onOffStrategy covers the categories whose only writable point is their
// on/off state: switches and input booleans. Other attributes pass through
// on decode with best-effort coercion.
type onOffStrategy struct {
	serviceDomain string
}

func (s onOffStrategy) Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		return decodeOnOff(def, raw)
	default:
		return decodeCoerced(def, raw)
	}
}

func (s onOffStrategy) EncodeCommand(def *domain.PointDefinition, value domain.PointValue, _ *domain.EntityState) ([]domain.ControllerOperation, error) {
	if def.EntityPoint != domain.EntityPointState {
		return nil, unexpectedWrite(def)
	}
	on, err := writeStateBool(def, value)
	if err != nil {
		return nil, err
	}
	return []domain.ControllerOperation{turnOnOff(s.serviceDomain, def.EntityID, on)}, nil
}
