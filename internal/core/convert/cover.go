package convert

import (
	"fmt"

	"hapoints2mqtt/internal/core/domain"
)

const (
	coverPointPosition = "position"
)

type coverStrategy struct{}

func (coverStrategy) Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		state, ok := raw.(string)
		if !ok {
			return domain.PointValue{}, conversionError(def, raw, fmt.Sprintf("state of type %T is not a string", raw))
		}
		switch state {
		case "open", "opening":
			return domain.CoerceValue(true, def.Type)
		case "closed", "closing":
			return domain.CoerceValue(false, def.Type)
		default:
			return domain.PointValue{}, conversionError(def, raw, fmt.Sprintf("unsupported cover state %q", state))
		}
	default:
		return decodeCoerced(def, raw)
	}
}

func (coverStrategy) EncodeCommand(def *domain.PointDefinition, value domain.PointValue, _ *domain.EntityState) ([]domain.ControllerOperation, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		open, err := writeStateBool(def, value)
		if err != nil {
			return nil, err
		}
		if open {
			return []domain.ControllerOperation{operation("cover", "open_cover", def.EntityID)}, nil
		}
		return []domain.ControllerOperation{operation("cover", "close_cover", def.EntityID)}, nil
	case coverPointPosition:
		pos, err := writeIntInRange(def, value, percentageMin, percentageMax, "position")
		if err != nil {
			return nil, err
		}
		op := operation("cover", "set_cover_position", def.EntityID)
		op.Data["position"] = pos
		return []domain.ControllerOperation{op}, nil
	default:
		return nil, unexpectedWrite(def)
	}
}
