package registry

import (
	"hapoints2mqtt/internal/core/domain"
)

type entityPointKey struct {
	entityID    string
	entityPoint string
}

// MappingTable indexes point definitions by point name and by
// (entity id, entity point). Immutable after construction: a registry
// reload builds a brand-new table and swaps the reference.
type MappingTable struct {
	order         []*domain.PointDefinition
	byName        map[string]*domain.PointDefinition
	byEntityPoint map[entityPointKey]*domain.PointDefinition
	byEntity      map[string][]*domain.PointDefinition
}

// NewMappingTable builds the two-way index. Point name uniqueness is
// re-validated here even though the parser already enforces it.
func NewMappingTable(defs []domain.PointDefinition) (*MappingTable, error) {
	t := &MappingTable{
		order:         make([]*domain.PointDefinition, 0, len(defs)),
		byName:        make(map[string]*domain.PointDefinition, len(defs)),
		byEntityPoint: make(map[entityPointKey]*domain.PointDefinition, len(defs)),
		byEntity:      make(map[string][]*domain.PointDefinition),
	}
	for i := range defs {
		def := defs[i]
		if _, dup := t.byName[def.PointName]; dup {
			return nil, &domain.RegistryError{
				Row:       i,
				PointName: def.PointName,
				Reason:    "duplicate point name",
			}
		}
		p := &def
		t.order = append(t.order, p)
		t.byName[def.PointName] = p
		key := entityPointKey{def.EntityID, def.EntityPoint}
		if _, exists := t.byEntityPoint[key]; !exists {
			t.byEntityPoint[key] = p
		}
		t.byEntity[def.EntityID] = append(t.byEntity[def.EntityID], p)
	}
	return t, nil
}

func (t *MappingTable) LookupByPointName(name string) (*domain.PointDefinition, error) {
	def, ok := t.byName[name]
	if !ok {
		return nil, &domain.UnknownPointError{PointName: name}
	}
	return def, nil
}

// LookupByEntityPoint resolves the scrape fan-out key. The reserved entity
// point "state" resolves like any other key here; what it reads from the
// snapshot is the scrape executor's concern.
func (t *MappingTable) LookupByEntityPoint(entityID, entityPoint string) (*domain.PointDefinition, error) {
	def, ok := t.byEntityPoint[entityPointKey{entityID, entityPoint}]
	if !ok {
		return nil, &domain.UnknownPointError{EntityID: entityID, EntityPoint: entityPoint}
	}
	return def, nil
}

// PointsForEntity returns all points belonging to one entity, in registry
// order.
func (t *MappingTable) PointsForEntity(entityID string) []*domain.PointDefinition {
	return t.byEntity[entityID]
}

// Points returns every definition in registry order.
func (t *MappingTable) Points() []*domain.PointDefinition {
	return t.order
}

func (t *MappingTable) Len() int {
	return len(t.order)
}

// EntityIDs returns the distinct entity ids referenced by the table, in
// first-seen registry order.
func (t *MappingTable) EntityIDs() []string {
	var ids []string
	seen := make(map[string]struct{}, len(t.byEntity))
	for _, def := range t.order {
		if _, ok := seen[def.EntityID]; ok {
			continue
		}
		seen[def.EntityID] = struct{}{}
		ids = append(ids, def.EntityID)
	}
	return ids
}
