package convert

import (
	"hapoints2mqtt/internal/core/domain"
)

const (
	lightPointBrightness = "brightness"

	brightnessMin = 0
	brightnessMax = 255
)

type lightStrategy struct{}

func (lightStrategy) Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		return decodeOnOff(def, raw)
	default:
		// brightness and any other attribute pass through, 0-255 for
		// brightness is the controller's own contract.
		return decodeCoerced(def, raw)
	}
}

func (lightStrategy) EncodeCommand(def *domain.PointDefinition, value domain.PointValue, _ *domain.EntityState) ([]domain.ControllerOperation, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		on, err := writeStateBool(def, value)
		if err != nil {
			return nil, err
		}
		return []domain.ControllerOperation{turnOnOff("light", def.EntityID, on)}, nil
	case lightPointBrightness:
		b, err := writeIntInRange(def, value, brightnessMin, brightnessMax, "brightness")
		if err != nil {
			return nil, err
		}
		// brightness implies "on": a light that is off and receives a
		// brightness write is turned on by the same call.
		op := operation("light", serviceTurnOn, def.EntityID)
		op.Data["brightness"] = b
		return []domain.ControllerOperation{op}, nil
	default:
		return nil, unexpectedWrite(def)
	}
}
