package registry

import (
	"fmt"
	"strings"

	"hapoints2mqtt/internal/core/domain"
)

// RegistryRow is one semi-structured record from a device registry file.
// Field names follow the VOLTTRON registry convention.
type RegistryRow struct {
	EntityID      string `json:"Entity ID"`
	EntityPoint   string `json:"Entity Point"`
	PointName     string `json:"Volttron Point Name"`
	Writable      any    `json:"Writable"`
	StartingValue any    `json:"Starting Value"`
	Type          string `json:"Type"`
	Units         string `json:"Units"`
	UnitsDetails  string `json:"Units Details"`
	Notes         string `json:"Notes"`
}

// ParseRegistry turns raw registry rows into point definitions. Rows with an
// empty Entity ID are skipped. Any malformed row, unknown type or duplicate
// point name fails the whole load with a RegistryError.
func ParseRegistry(rows []RegistryRow) ([]domain.PointDefinition, error) {
	defs := make([]domain.PointDefinition, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		if strings.TrimSpace(row.EntityID) == "" {
			continue
		}
		def, err := parseRow(i, row)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[def.PointName]; dup {
			return nil, &domain.RegistryError{
				Row:       i,
				PointName: def.PointName,
				Reason:    "duplicate point name",
			}
		}
		seen[def.PointName] = struct{}{}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseRow(i int, row RegistryRow) (domain.PointDefinition, error) {
	if strings.TrimSpace(row.EntityPoint) == "" {
		return domain.PointDefinition{}, &domain.RegistryError{
			Row: i, PointName: row.PointName, Reason: "missing Entity Point",
		}
	}
	if strings.TrimSpace(row.PointName) == "" {
		return domain.PointDefinition{}, &domain.RegistryError{
			Row: i, Reason: "missing Volttron Point Name",
		}
	}
	valueType, ok := domain.ParseValueType(row.Type)
	if !ok {
		return domain.PointDefinition{}, &domain.RegistryError{
			Row: i, PointName: row.PointName,
			Reason: fmt.Sprintf("unrecognized type %q", row.Type),
		}
	}

	def := domain.PointDefinition{
		EntityID:     row.EntityID,
		EntityPoint:  row.EntityPoint,
		PointName:    row.PointName,
		Writable:     parseWritable(row.Writable),
		Type:         valueType,
		Category:     domain.CategoryOf(row.EntityID),
		Units:        row.Units,
		UnitsDetails: row.UnitsDetails,
		Notes:        row.Notes,
	}

	if hasStartingValue(row.StartingValue) {
		sv, err := domain.CoerceValue(row.StartingValue, valueType)
		if err != nil {
			return domain.PointDefinition{}, &domain.RegistryError{
				Row: i, PointName: row.PointName,
				Reason: fmt.Sprintf("starting value: %s", err),
			}
		}
		def.StartingValue = &sv
	}

	return def, nil
}

// parseWritable accepts a bool or the string "true" (any case). Anything
// else means read only, matching the registry convention.
func parseWritable(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

func hasStartingValue(raw any) bool {
	if raw == nil {
		return false
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}
