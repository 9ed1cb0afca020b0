// HASS Bridge - Home Assistant MQTT Bridge
//
// This is the main entry point for the Home Assistant bridge. The bridge
// exposes Home Assistant entities as named points for a building automation
// platform:
//   - Polls the hub REST API on an interval and publishes per-point state
//   - Accepts write commands over MQTT and acknowledges them
//   - Serves a REST API for point reads, writes, and bulk scrapes
//   - Reports bridge health with an MQTT last-will fallback
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/hass-bridge/internal/api"
	"github.com/nerrad567/hass-bridge/internal/bridges/hass"
	"github.com/nerrad567/hass-bridge/internal/infrastructure/config"
	"github.com/nerrad567/hass-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/hass-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/hass-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/hass-bridge/internal/registry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting HASS Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Load the register table
	entries, err := registry.LoadFile(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("loading register table: %w", err)
	}
	table, err := registry.Build(entries)
	if err != nil {
		return fmt.Errorf("building register table: %w", err)
	}
	log.Info("register table loaded",
		"path", cfg.Registry.Path,
		"points", table.Len(),
	)

	// Create the hub client and driver
	hubClient, err := hass.NewClient(hass.ClientOptions{
		Host:        cfg.Hub.Host,
		Port:        cfg.Hub.Port,
		AccessToken: cfg.Hub.AccessToken,
		Timeout:     cfg.GetHubTimeout(),
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating hub client: %w", err)
	}

	driver, err := hass.NewDriver(table, hubClient, log)
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	// The hub may be temporarily unreachable at startup; the health reporter
	// tracks reachability, so a failed ping is a warning rather than fatal.
	if pingErr := hubClient.Ping(ctx); pingErr != nil {
		log.Warn("hub not reachable at startup", "error", pingErr)
	} else {
		log.Info("hub reachable",
			"host", cfg.Hub.Host,
			"port", cfg.Hub.Port,
		)
	}

	// Connect to MQTT broker with the bridge's last-will message so the
	// broker reports us offline if the connection drops uncleanly
	willPayload, err := json.Marshal(hass.NewLWTMessage(cfg.Bridge.ID))
	if err != nil {
		return fmt.Errorf("building last-will payload: %w", err)
	}
	mqttClient, err := mqtt.ConnectWithWill(cfg.MQTT, hass.HealthTopic(), willPayload)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the bridge (poll loop, command dispatch, health reporting)
	bridge, err := startBridge(ctx, cfg, driver, hubClient, mqttClient, influxClient, log)
	if err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		bridge.Stop()
	}()

	// Start the REST API server
	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Driver:  driver,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"addr", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Bridge (publishes "stopping" health status)
	// 3. InfluxDB (if enabled)
	// 4. MQTT

	log.Info("HASS Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HASSBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HASSBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Check API server
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	// Hub reachability is tracked continuously by the bridge's health
	// reporter rather than gating startup.

	return nil
}

// startBridge initialises and starts the Home Assistant bridge.
//
// Parameters:
//   - ctx: Context for startup/cancellation
//   - cfg: Application configuration
//   - driver: Point driver backed by the register table
//   - hubClient: Hub client for reachability checks
//   - mqttClient: MQTT client for publishing/subscribing
//   - influxClient: InfluxDB client for telemetry (may be nil if disabled)
//   - log: Logger instance
//
// Returns:
//   - *hass.Bridge: Running bridge
//   - error: If bridge fails to start
func startBridge(ctx context.Context, cfg *config.Config, driver *hass.Driver, hubClient *hass.Client, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) (*hass.Bridge, error) {
	// Create MQTT adapter to satisfy the bridge interface
	mqttAdapter := &mqttBridgeAdapter{client: mqttClient, log: log}

	// Wire telemetry only when InfluxDB is enabled
	var telemetry hass.TelemetrySink
	if influxClient != nil {
		telemetry = &influxTelemetrySink{client: influxClient}
	}

	bridge, err := hass.NewBridge(hass.BridgeOptions{
		BridgeID:       cfg.Bridge.ID,
		Version:        version,
		PollInterval:   cfg.GetPollInterval(),
		HealthInterval: cfg.GetHealthInterval(),
		MQTTClient:     mqttAdapter,
		Driver:         driver,
		Hub:            hubClient,
		Telemetry:      telemetry,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bridge: %w", err)
	}

	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge started",
		"bridge_id", cfg.Bridge.ID,
		"poll_interval", cfg.GetPollInterval().String(),
	)

	return bridge, nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The primary difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - Bridge expects: func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client *mqtt.Client
	log    *logging.Logger
}

// Publish implements hass.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements hass.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	// Wrap the void handler to return nil error (bridge handlers don't return errors)
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements hass.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// Disconnect implements hass.MQTTClient.
// Note: the MQTT client is owned by run(), so this is a no-op. The actual
// disconnect happens via the defer chain.
func (a *mqttBridgeAdapter) Disconnect(_ uint) {
	// No-op: MQTT client lifecycle is managed by run()'s defer chain
}

// influxTelemetrySink adapts the InfluxDB client to the bridge's
// TelemetrySink interface, keeping the influxdb package free of
// bridge-specific types.
type influxTelemetrySink struct {
	client *influxdb.Client
}

// RecordPointValue implements hass.TelemetrySink.
func (s *influxTelemetrySink) RecordPointValue(point, entityID string, value any, ts time.Time) {
	s.client.WritePointValue(point, entityID, value, ts)
}

// RecordScrape implements hass.TelemetrySink.
func (s *influxTelemetrySink) RecordScrape(stats hass.ScrapeStats, ts time.Time) {
	s.client.WriteScrapeStats(stats.Points, stats.Scraped, stats.Failed, stats.Duration, ts)
}
