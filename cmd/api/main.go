package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "hapoints2mqtt/internal/adapter/actor"
	"hapoints2mqtt/internal/adapter/registryfile"
	"hapoints2mqtt/internal/config"
	"hapoints2mqtt/internal/core/actor"
	"hapoints2mqtt/internal/core/registry"
	"hapoints2mqtt/internal/server"
	"hapoints2mqtt/internal/util/actorutil"
	"hapoints2mqtt/pkg/hass_rest"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// load and parse device registries before any actor spawns
	devices, err := loadDevices(cfg)
	if err != nil {
		logger.Error("registry load failed", zap.Error(err))
		return
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(*cfg, devices, hassActorProvider(cfg, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => HAPOINTS_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("HAPOINTS_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("hapoints")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check bounds
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDevices(cfg *config.Config) ([]actor.DevicePoints, error) {
	devices := make([]actor.DevicePoints, 0, len(cfg.Devices))
	owner := make(map[string]string)
	for _, dev := range cfg.Devices {
		defs, err := registryfile.Load(dev.RegistryPath)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", dev.Name, err)
		}
		table, err := registry.NewMappingTable(defs)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", dev.Name, err)
		}
		// point names must be unique across devices, writes are routed by
		// point name alone
		for _, def := range table.Points() {
			if other, taken := owner[def.PointName]; taken {
				return nil, fmt.Errorf("device %q: point %q already declared by device %q",
					dev.Name, def.PointName, other)
			}
			owner[def.PointName] = dev.Name
		}
		devices = append(devices, actor.DevicePoints{
			Device: dev,
			Table:  table,
		})
	}
	return devices, nil
}

func hassActorProvider(cfg *config.Config, logger *zap.Logger) actor.HassActorProvider {
	restLogger := logrus.New()
	if cfg.LogLevel == zap.DebugLevel {
		restLogger.SetLevel(logrus.TraceLevel)
	}
	client := hass_rest.CreateRestControllerClient(cfg.HomeAssistant.Host, cfg.HomeAssistant.Port,
		cfg.HomeAssistant.AccessToken, 10*time.Second, restLogger)
	return func() *adactor.HassActor {
		return adactor.NewHassActor(client, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.base_topic", "hapoints")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.HomeAssistant.AccessToken = "*redacted*"
	slog.Info("Using", "config", cfg)
}
