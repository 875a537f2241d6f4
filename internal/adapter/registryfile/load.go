package registryfile

import (
	"encoding/json"
	"fmt"
	"os"

	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"
)

// Load reads a JSON registry file (an array of registry rows) and parses it
// into point definitions.
func Load(path string) ([]domain.PointDefinition, error) {
	rows, err := ReadRows(path)
	if err != nil {
		return nil, err
	}
	return registry.ParseRegistry(rows)
}

func ReadRows(path string) ([]registry.RegistryRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read registry file %s: %w", path, err)
	}
	var rows []registry.RegistryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("could not parse registry file %s: %w", path, err)
	}
	return rows, nil
}
