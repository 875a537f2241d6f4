package convert

import (
	"fmt"

	"hapoints2mqtt/internal/core/domain"
)

const (
	climatePointTemperature        = "temperature"
	climatePointCurrentTemperature = "current_temperature"
)

// Thermostat modes use a fixed ordinal encoding on the bus side. Ordinal 1
// is deliberately unassigned.
var climateModeByOrdinal = map[int64]string{
	0: "off",
	2: "heat",
	3: "cool",
	4: "auto",
}

var climateOrdinalByMode = func() map[string]int64 {
	m := make(map[string]int64, len(climateModeByOrdinal))
	for ord, mode := range climateModeByOrdinal {
		m[mode] = ord
	}
	return m
}()

type climateStrategy struct{}

func (climateStrategy) Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		mode, ok := raw.(string)
		if !ok {
			return domain.PointValue{}, conversionError(def, raw, fmt.Sprintf("mode of type %T is not a string", raw))
		}
		ord, ok := climateOrdinalByMode[mode]
		if !ok {
			// unknown modes fail loudly instead of defaulting
			return domain.PointValue{}, conversionError(def, raw, fmt.Sprintf("unsupported thermostat mode %q", mode))
		}
		return domain.CoerceValue(ord, def.Type)
	default:
		// current_temperature, temperature and other attributes pass
		// through as declared (floats for the temperatures).
		return decodeCoerced(def, raw)
	}
}

func (climateStrategy) EncodeCommand(def *domain.PointDefinition, value domain.PointValue, _ *domain.EntityState) ([]domain.ControllerOperation, error) {
	switch def.EntityPoint {
	case domain.EntityPointState:
		ord, err := value.AsInt()
		if err != nil {
			return nil, &domain.ValidationError{
				PointName: def.PointName,
				Reason:    fmt.Sprintf("mode ordinal must be an integer: %s", err),
			}
		}
		mode, ok := climateModeByOrdinal[ord]
		if !ok {
			return nil, &domain.ValidationError{
				PointName: def.PointName,
				Reason:    fmt.Sprintf("mode ordinal must be one of 0, 2, 3, 4, got %d", ord),
			}
		}
		op := operation("climate", "set_hvac_mode", def.EntityID)
		op.Data["hvac_mode"] = mode
		return []domain.ControllerOperation{op}, nil
	case climatePointTemperature:
		op := operation("climate", "set_temperature", def.EntityID)
		op.Data["temperature"] = value.AsFloat()
		return []domain.ControllerOperation{op}, nil
	case climatePointCurrentTemperature:
		// measured temperature is telemetry, regardless of the registry's
		// writable flag
		return nil, &domain.ReadOnlyPointError{PointName: def.PointName}
	default:
		return nil, unexpectedWrite(def)
	}
}
