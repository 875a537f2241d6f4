package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityPointState is the reserved entity point name that resolves against
// an entity's primary status field instead of its attribute dictionary.
const EntityPointState = "state"

type ValueType int

const (
	ValueTypeBool ValueType = iota
	ValueTypeInt
	ValueTypeFloat
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeBool:
		return "boolean"
	case ValueTypeInt:
		return "integer"
	case ValueTypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// ParseValueType accepts the type names allowed in a registry row.
func ParseValueType(s string) (ValueType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return ValueTypeBool, true
	case "int", "integer":
		return ValueTypeInt, true
	case "float":
		return ValueTypeFloat, true
	default:
		return 0, false
	}
}

// PointValue is a small tagged union. Exactly one of the value fields is
// meaningful, selected by Type. Values are comparable with ==.
type PointValue struct {
	Type  ValueType
	Bool  bool
	Int   int64
	Float float64
}

func BoolValue(v bool) PointValue {
	return PointValue{Type: ValueTypeBool, Bool: v}
}

func IntValue(v int64) PointValue {
	return PointValue{Type: ValueTypeInt, Int: v}
}

func FloatValue(v float64) PointValue {
	return PointValue{Type: ValueTypeFloat, Float: v}
}

func (v PointValue) String() string {
	switch v.Type {
	case ValueTypeBool:
		return strconv.FormatBool(v.Bool)
	case ValueTypeInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueTypeFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return ""
	}
}

// AsFloat widens any point value to a float64. Booleans map to 1/0.
func (v PointValue) AsFloat() float64 {
	switch v.Type {
	case ValueTypeBool:
		if v.Bool {
			return 1
		}
		return 0
	case ValueTypeInt:
		return float64(v.Int)
	default:
		return v.Float
	}
}

// AsInt narrows to int64. Fractional floats fail.
func (v PointValue) AsInt() (int64, error) {
	switch v.Type {
	case ValueTypeBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case ValueTypeInt:
		return v.Int, nil
	default:
		if v.Float != float64(int64(v.Float)) {
			return 0, fmt.Errorf("value %v is not an integer", v.Float)
		}
		return int64(v.Float), nil
	}
}

// CoerceValue converts a raw value (JSON-decoded or an MQTT payload string)
// into a typed point value. Boolean coercion only accepts unambiguously
// truthy/falsy inputs.
func CoerceValue(raw any, t ValueType) (PointValue, error) {
	switch t {
	case ValueTypeBool:
		b, err := coerceBool(raw)
		if err != nil {
			return PointValue{}, err
		}
		return BoolValue(b), nil
	case ValueTypeInt:
		i, err := coerceInt(raw)
		if err != nil {
			return PointValue{}, err
		}
		return IntValue(i), nil
	case ValueTypeFloat:
		f, err := coerceFloat(raw)
		if err != nil {
			return PointValue{}, err
		}
		return FloatValue(f), nil
	}
	return PointValue{}, fmt.Errorf("unknown value type %d", t)
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1":
			return true, nil
		case "false", "off", "0":
			return false, nil
		}
		return false, fmt.Errorf("string %q is not a boolean", v)
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		f, _ := coerceFloat(raw)
		if f == 1 {
			return true, nil
		}
		if f == 0 {
			return false, nil
		}
		return false, fmt.Errorf("number %v is not a boolean", raw)
	}
	return false, fmt.Errorf("type %T is not a boolean", raw)
}

func coerceInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return FloatValue(float64(v)).AsInt()
	case float64:
		return FloatValue(v).AsInt()
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("string %q is not an integer", v)
		}
		return i, nil
	}
	return 0, fmt.Errorf("type %T is not an integer", raw)
}

func coerceFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("string %q is not a float", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("type %T is not a float", raw)
}

// DeviceCategory is derived from the entity id prefix and selects the
// conversion strategy for a point. Derived once at parse time, never
// re-derived on decode/encode.
type DeviceCategory int

const (
	CategoryGeneric DeviceCategory = iota
	CategoryLight
	CategoryClimate
	CategoryFan
	CategorySwitch
	CategoryInputBoolean
	CategoryCover
)

func (c DeviceCategory) String() string {
	switch c {
	case CategoryLight:
		return "light"
	case CategoryClimate:
		return "climate"
	case CategoryFan:
		return "fan"
	case CategorySwitch:
		return "switch"
	case CategoryInputBoolean:
		return "input_boolean"
	case CategoryCover:
		return "cover"
	default:
		return "generic"
	}
}

// CategoryOf returns the device category for a fully-qualified entity id
// (e.g. "light.kitchen" => CategoryLight).
func CategoryOf(entityID string) DeviceCategory {
	prefix, _, found := strings.Cut(entityID, ".")
	if !found {
		return CategoryGeneric
	}
	switch prefix {
	case "light":
		return CategoryLight
	case "climate":
		return CategoryClimate
	case "fan":
		return CategoryFan
	case "switch":
		return CategorySwitch
	case "input_boolean":
		return CategoryInputBoolean
	case "cover":
		return CategoryCover
	default:
		return CategoryGeneric
	}
}

// PointDefinition is one parsed registry row. Immutable after parse.
type PointDefinition struct {
	EntityID      string
	EntityPoint   string
	PointName     string
	Writable      bool
	Type          ValueType
	Category      DeviceCategory
	StartingValue *PointValue
	Units         string
	UnitsDetails  string
	Notes         string
}

// PointMeta is the publication metadata attached to every scraped value.
// Passed through from the registry, never interpreted.
type PointMeta struct {
	EntityID     string
	EntityPoint  string
	Type         ValueType
	Units        string
	UnitsDetails string
	Writable     bool
}

func MetaOf(def *PointDefinition) PointMeta {
	return PointMeta{
		EntityID:     def.EntityID,
		EntityPoint:  def.EntityPoint,
		Type:         def.Type,
		Units:        def.Units,
		UnitsDetails: def.UnitsDetails,
		Writable:     def.Writable,
	}
}

// EntityState is the raw state of one entity as reported by the controller.
type EntityState struct {
	EntityID   string
	State      string
	Attributes map[string]any
}

// EntitySnapshot is the raw controller state for one scrape cycle.
// Consumed read-only and discarded.
type EntitySnapshot map[string]EntityState

// CurrentStateFn resolves the last-known raw state of an entity, used by
// write encoding that depends on the current on/off state.
type CurrentStateFn func(entityID string) (EntityState, bool)

// ControllerOperation is one outbound service call against the controller.
type ControllerOperation struct {
	Domain  string
	Service string
	Data    map[string]any
}

// ScrapeWarning is a soft per-point failure. It never aborts a scrape.
type ScrapeWarning struct {
	PointName string
	EntityID  string
	Err       error
}

// ScrapeResult is one cycle's point values plus publication metadata.
type ScrapeResult struct {
	Values   map[string]PointValue
	Meta     map[string]PointMeta
	Warnings []ScrapeWarning
}
