package service

import (
	"hapoints2mqtt/internal/core/convert"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/port"
	"hapoints2mqtt/internal/core/registry"

	"go.uber.org/zap"
)

// WriteDispatcher turns a point write request into the controller
// operations needed to effect it. It returns a plan; executing the calls is
// the transport's job, and no failure is retried here.
type WriteDispatcher struct {
	logger *zap.Logger
}

func NewWriteDispatcher(logger *zap.Logger) *WriteDispatcher {
	return &WriteDispatcher{
		logger: logger.With(zap.String("service", "dispatch")),
	}
}

// Plan resolves the point, enforces writability and declared-type
// validation, then hands off to the category strategy. Enforcement order:
// unknown point, read-only, value validation.
func (d *WriteDispatcher) Plan(table *registry.MappingTable, pointName string, value any, current domain.CurrentStateFn) ([]domain.ControllerOperation, error) {
	def, err := table.LookupByPointName(pointName)
	if err != nil {
		return nil, err
	}
	if !def.Writable {
		return nil, &domain.ReadOnlyPointError{PointName: def.PointName}
	}

	typed, err := domain.CoerceValue(value, def.Type)
	if err != nil {
		return nil, &domain.ValidationError{
			PointName: def.PointName,
			Reason:    err.Error(),
		}
	}

	var state *domain.EntityState
	if current != nil {
		if s, ok := current(def.EntityID); ok {
			state = &s
		}
	}

	ops, err := convert.ForCategory(def.Category).EncodeCommand(def, typed, state)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("write plan",
		zap.String("point", def.PointName),
		zap.String("entity_id", def.EntityID),
		zap.Int("operations", len(ops)))

	return ops, nil
}

// ensure interface compliance
var _ port.WritePlanner = (*WriteDispatcher)(nil)
