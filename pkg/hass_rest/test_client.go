package hass_rest

// RecordedServiceCall captures one CallService invocation on the test client.
type RecordedServiceCall struct {
	Domain  string
	Service string
	Data    map[string]any
}

func CreateTestControllerClient() *TestControllerClient {
	return &TestControllerClient{
		Entities: []Entity{
			{
				EntityID: "light.living_room",
				State:    "on",
				Attributes: map[string]any{
					"brightness":    float64(128),
					"friendly_name": "Living Room Light",
				},
			},
			{
				EntityID: "climate.downstairs",
				State:    "heat",
				Attributes: map[string]any{
					"temperature":         float64(21.5),
					"current_temperature": float64(20.8),
				},
			},
			{
				EntityID: "fan.bedroom",
				State:    "off",
				Attributes: map[string]any{
					"percentage": float64(0),
				},
			},
			{
				EntityID:   "switch.heater",
				State:      "on",
				Attributes: map[string]any{},
			},
			{
				EntityID: "cover.garage",
				State:    "open",
				Attributes: map[string]any{
					"current_position": float64(100),
				},
			},
			{
				EntityID: "sensor.outside_temperature",
				State:    "17.3",
				Attributes: map[string]any{
					"unit_of_measurement": "°C",
				},
			},
		},
	}
}

type TestControllerClient struct {
	Entities []Entity
	Calls    []RecordedServiceCall
}

func (c *TestControllerClient) Validate() error {
	return nil
}

func (c *TestControllerClient) GetStates() ([]Entity, error) {
	return c.Entities, nil
}

func (c *TestControllerClient) GetState(entityID string) (*Entity, error) {
	for i := range c.Entities {
		if c.Entities[i].EntityID == entityID {
			return &c.Entities[i], nil
		}
	}
	return nil, nil
}

func (c *TestControllerClient) CallService(domain string, service string, data map[string]any) error {
	c.Calls = append(c.Calls, RecordedServiceCall{
		Domain:  domain,
		Service: service,
		Data:    data,
	})
	return nil
}
