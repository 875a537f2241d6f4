package hass_rest

// Entity is one entity state document as returned by the controller's
// /api/states endpoint.
type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

type ControllerClient interface {
	Validate() error
	GetStates() ([]Entity, error)
	GetState(entityID string) (*Entity, error)
	CallService(domain string, service string, data map[string]any) error
}
