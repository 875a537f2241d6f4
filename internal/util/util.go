package util

import (
	"hapoints2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		HomeAssistant: config.HomeAssistantConfig{
			Host:        "-.-.-.-",
			Port:        8123,
			AccessToken: "lorem_token",
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "hapoints",
		},
		Devices: []config.DeviceConfig{
			{
				Name:               "apartment",
				RegistryPath:       "testdata/apartment.json",
				PollIntervalMillis: 5000,
			},
		},
		Port: 8080,
	}
}
