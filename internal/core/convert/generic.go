package convert

import (
	"hapoints2mqtt/internal/core/domain"
)

// genericStrategy serves entity prefixes without a dedicated strategy.
// Values are coerced to the declared type with no semantic remapping, and
// writes are rejected: unknown categories are telemetry only.
type genericStrategy struct{}

func (genericStrategy) Decode(def *domain.PointDefinition, raw any) (domain.PointValue, error) {
	return decodeCoerced(def, raw)
}

func (genericStrategy) EncodeCommand(def *domain.PointDefinition, _ domain.PointValue, _ *domain.EntityState) ([]domain.ControllerOperation, error) {
	return nil, &domain.ReadOnlyPointError{PointName: def.PointName}
}
