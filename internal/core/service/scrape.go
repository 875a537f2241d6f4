package service

import (
	"fmt"

	"hapoints2mqtt/internal/core/convert"
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/port"
	"hapoints2mqtt/internal/core/registry"

	"go.uber.org/zap"
)

// ScrapeExecutor produces one cycle's point values from a raw entity
// snapshot. Stateless: safe to share across concurrent scrapes.
type ScrapeExecutor struct {
	logger *zap.Logger
}

func NewScrapeExecutor(logger *zap.Logger) *ScrapeExecutor {
	return &ScrapeExecutor{
		logger: logger.With(zap.String("service", "scrape")),
	}
}

// Scrape resolves every point in the table against the snapshot. Points
// whose entity is missing from the snapshot, or whose raw value fails to
// decode, are omitted from the result and reported as warnings; a scrape
// never fails as a whole.
func (e *ScrapeExecutor) Scrape(table *registry.MappingTable, snapshot domain.EntitySnapshot) domain.ScrapeResult {
	result := domain.ScrapeResult{
		Values: make(map[string]domain.PointValue, table.Len()),
		Meta:   make(map[string]domain.PointMeta, table.Len()),
	}

	for _, def := range table.Points() {
		entity, ok := snapshot[def.EntityID]
		if !ok {
			// unreachable or removed entity: skip its points this cycle
			result.Warnings = append(result.Warnings, domain.ScrapeWarning{
				PointName: def.PointName,
				EntityID:  def.EntityID,
				Err:       fmt.Errorf("entity %q not present in snapshot", def.EntityID),
			})
			continue
		}

		raw, err := rawValue(def, entity)
		if err != nil {
			result.Warnings = append(result.Warnings, domain.ScrapeWarning{
				PointName: def.PointName,
				EntityID:  def.EntityID,
				Err:       err,
			})
			continue
		}

		value, err := convert.ForCategory(def.Category).Decode(def, raw)
		if err != nil {
			e.logger.Warn("point decode failed",
				zap.String("point", def.PointName),
				zap.String("entity_id", def.EntityID),
				zap.Error(err))
			result.Warnings = append(result.Warnings, domain.ScrapeWarning{
				PointName: def.PointName,
				EntityID:  def.EntityID,
				Err:       err,
			})
			continue
		}

		result.Values[def.PointName] = value
		result.Meta[def.PointName] = domain.MetaOf(def)
	}

	return result
}

// rawValue pulls the point's raw value from an entity: the primary state
// for the reserved "state" point, an attribute otherwise.
func rawValue(def *domain.PointDefinition, entity domain.EntityState) (any, error) {
	if def.EntityPoint == domain.EntityPointState {
		return entity.State, nil
	}
	raw, ok := entity.Attributes[def.EntityPoint]
	if !ok {
		return nil, fmt.Errorf("entity %q has no attribute %q", def.EntityID, def.EntityPoint)
	}
	return raw, nil
}

// ensure interface compliance
var _ port.PointScraper = (*ScrapeExecutor)(nil)
