package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	HomeAssistant HomeAssistantConfig `mapstructure:"home_assistant"`
	MQTT          MQTTConfig          `mapstructure:"mqtt"`

	Devices []DeviceConfig `mapstructure:"devices"`
	Port    uint           `mapstructure:"port"`
	HttpLog bool           `mapstructure:"http_log"`
}

type HomeAssistantConfig struct {
	Host        string
	Port        uint
	AccessToken string `mapstructure:"access_token"`
}

// DeviceConfig declares one scraped device: a registry file of points plus
// its poll interval.
type DeviceConfig struct {
	Name               string
	RegistryPath       string `mapstructure:"registry_path"`
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type MQTTConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	BaseTopic string `mapstructure:"base_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Validate checks the cross-field constraints that viper cannot express.
func (cfg *Config) Validate() error {
	if cfg.HomeAssistant.Host == "" {
		return errors.New("config param home_assistant.host is required")
	}
	if cfg.HomeAssistant.AccessToken == "" {
		return errors.New("config param home_assistant.access_token is required")
	}
	if cfg.HomeAssistant.Port == 0 {
		return errors.New("config param home_assistant.port is required")
	}
	if len(cfg.Devices) == 0 {
		return errors.New("at least one device must be configured")
	}
	seen := make(map[string]struct{}, len(cfg.Devices))
	for _, dev := range cfg.Devices {
		if dev.Name == "" {
			return errors.New("config param devices[].name is required")
		}
		if _, dup := seen[dev.Name]; dup {
			return fmt.Errorf("duplicate device name %q", dev.Name)
		}
		seen[dev.Name] = struct{}{}
		if dev.RegistryPath == "" {
			return fmt.Errorf("device %q: registry_path is required", dev.Name)
		}
		if dev.PollIntervalMillis < 1000 {
			return fmt.Errorf("device %q: poll_interval_millis should be >= 1000", dev.Name)
		}
	}
	return nil
}
