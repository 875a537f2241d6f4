// Package convert holds one conversion strategy per device category. Each
// strategy knows how to read a raw controller value into a typed point value
// and how to render a point write into controller service calls. Strategies
// are stateless singletons selected once per point at table build time.
package convert

import (
	"fmt"

	"hapoints2mqtt/internal/core/domain"
)

const (
	serviceTurnOn  = "turn_on"
	serviceTurnOff = "turn_off"
)

type Strategy interface {
	// Decode converts a raw snapshot value for one entity point into the
	// point's declared type.
	Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error)

	// EncodeCommand renders a validated point write into an ordered list of
	// controller operations. current is the entity's last-known raw state,
	// nil when no scrape has seen the entity yet.
	EncodeCommand(def *domain.PointDefinition, value domain.PointValue, current *domain.EntityState) ([]domain.ControllerOperation, error)
}

var (
	light        Strategy = lightStrategy{}
	climate      Strategy = climateStrategy{}
	fan          Strategy = fanStrategy{}
	sw           Strategy = onOffStrategy{serviceDomain: "switch"}
	inputBoolean Strategy = onOffStrategy{serviceDomain: "input_boolean"}
	cover        Strategy = coverStrategy{}
	generic      Strategy = genericStrategy{}
)

// ForCategory returns the strategy singleton for a device category.
func ForCategory(c domain.DeviceCategory) Strategy {
	switch c {
	case domain.CategoryLight:
		return light
	case domain.CategoryClimate:
		return climate
	case domain.CategoryFan:
		return fan
	case domain.CategorySwitch:
		return sw
	case domain.CategoryInputBoolean:
		return inputBoolean
	case domain.CategoryCover:
		return cover
	default:
		return generic
	}
}

// decodeOnOff maps a raw "on"/"off" state (string or bool) to the point's
// declared type.
func decodeOnOff(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	var on bool
	switch v := raw.(type) {
	case bool:
		on = v
	case string:
		switch v {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return domain.PointValue{}, conversionError(def, raw, fmt.Sprintf("state %q is not on/off", v))
		}
	default:
		return domain.PointValue{}, conversionError(def, raw, fmt.Sprintf("state of type %T is not on/off", raw))
	}
	return domain.CoerceValue(on, def.Type)
}

// decodeCoerced is the passthrough decode path: best-effort coercion of the
// raw value to the declared type, failures reported as conversion errors.
func decodeCoerced(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	v, err := domain.CoerceValue(raw, def.Type)
	if err != nil {
		return domain.PointValue{}, conversionError(def, raw, err.Error())
	}
	return v, nil
}

func conversionError(def *domain.PointDefinition, raw any, reason string) error {
	return &domain.ConversionError{
		EntityID:    def.EntityID,
		EntityPoint: def.EntityPoint,
		Raw:         raw,
		Reason:      reason,
	}
}

// writeStateBool interprets a write value as an on/off state. Integer and
// float points only accept exactly 0 or 1.
func writeStateBool(def *domain.PointDefinition, value domain.PointValue) (bool, error) {
	switch value.Type {
	case domain.ValueTypeBool:
		return value.Bool, nil
	case domain.ValueTypeInt:
		if value.Int == 0 || value.Int == 1 {
			return value.Int == 1, nil
		}
	case domain.ValueTypeFloat:
		if value.Float == 0 || value.Float == 1 {
			return value.Float == 1, nil
		}
	}
	return false, &domain.ValidationError{
		PointName: def.PointName,
		Reason:    fmt.Sprintf("state value must be 0 or 1, got %s", value),
	}
}

// writeIntInRange narrows a write value to an integer within [min, max],
// naming the violated bound.
func writeIntInRange(def *domain.PointDefinition, value domain.PointValue, min, max int64, what string) (int64, error) {
	i, err := value.AsInt()
	if err != nil {
		return 0, &domain.ValidationError{
			PointName: def.PointName,
			Reason:    fmt.Sprintf("%s must be an integer: %s", what, err),
		}
	}
	if i < min {
		return 0, &domain.ValidationError{
			PointName: def.PointName,
			Reason:    fmt.Sprintf("%s %d below minimum %d", what, i, min),
		}
	}
	if i > max {
		return 0, &domain.ValidationError{
			PointName: def.PointName,
			Reason:    fmt.Sprintf("%s %d above maximum %d", what, i, max),
		}
	}
	return i, nil
}

func operation(serviceDomain, service, entityID string) domain.ControllerOperation {
	return domain.ControllerOperation{
		Domain:  serviceDomain,
		Service: service,
		Data:    map[string]any{"entity_id": entityID},
	}
}

func turnOnOff(serviceDomain, entityID string, on bool) domain.ControllerOperation {
	if on {
		return operation(serviceDomain, serviceTurnOn, entityID)
	}
	return operation(serviceDomain, serviceTurnOff, entityID)
}

func unexpectedWrite(def *domain.PointDefinition) error {
	return &domain.ValidationError{
		PointName: def.PointName,
		Reason:    fmt.Sprintf("entity point %q of %s is not writable through the %s strategy", def.EntityPoint, def.EntityID, def.Category),
	}
}
