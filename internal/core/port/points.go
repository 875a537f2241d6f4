package port

import (
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"
)

// PointScraper turns one raw entity snapshot into point values using a
// mapping table.
type PointScraper interface {
	Scrape(table *registry.MappingTable, snapshot domain.EntitySnapshot) domain.ScrapeResult
}

// WritePlanner translates one point write into the ordered controller
// operations needed to effect it. It never performs I/O.
type WritePlanner interface {
	Plan(table *registry.MappingTable, pointName string, value any, current domain.CurrentStateFn) ([]domain.ControllerOperation, error)
}
