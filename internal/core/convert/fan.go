package convert

import (
	"hapoints2mqtt/internal/core/domain"
)

const (
	fanPointPercentage = "percentage"

	percentageMin = 0
	percentageMax = 100
)

type fanStrategy struct{}

func (fanStrategy) Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		return decodeOnOff(def, raw)
	default:
		// percentage passes through unclamped so out-of-range readings
		// stay visible to operators
		return decodeCoerced(def, raw)
	}
}

func (fanStrategy) EncodeCommand(def *domain.PointDefinition, value domain.PointValue, current *domain.EntityState) ([]domain.ControllerOperation, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		on, err := writeStateBool(def, value)
		if err != nil {
			return nil, err
		}
		return []domain.ControllerOperation{turnOnOff("fan", def.EntityID, on)}, nil
	case fanPointPercentage:
		pct, err := writeIntInRange(def, value, percentageMin, percentageMax, "percentage")
		if err != nil {
			return nil, err
		}
		op := operation("fan", "set_percentage", def.EntityID)
		op.Data["percentage"] = pct

		// setting a percentage requires the fan to be running. When the fan
		// is off, or no scrape has told us yet, turn it on first.
		if current == nil || current.State != "on" {
			return []domain.ControllerOperation{
				operation("fan", serviceTurnOn, def.EntityID),
				op,
			}, nil
		}
		return []domain.ControllerOperation{op}, nil
	default:
		return nil, unexpectedWrite(def)
	}
}
