package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/hass-bridge/internal/registry"
)

// Bridge operation constants.
const (
	// minTopicParts is the minimum number of parts in a valid command topic.
	minTopicParts = 3

	// commandTimeout is the timeout for executing a single write command.
	commandTimeout = 10 * time.Second

	// defaultPollInterval is used when no poll interval is configured.
	defaultPollInterval = 30 * time.Second
)

// PointDriver is the driver interface used by the bridge.
// This allows mocking in tests.
type PointDriver interface {
	// WritePoint writes a single point and returns the coerced value.
	WritePoint(ctx context.Context, name string, value any) (any, error)

	// ScrapeAll reads every configured point, isolating per-point failures.
	ScrapeAll(ctx context.Context) (map[string]any, ScrapeStats)

	// Table returns the register table backing the driver.
	Table() *registry.Table
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool

	// Disconnect closes the connection gracefully.
	Disconnect(quiesce uint)
}

// TelemetrySink records scraped values and scrape statistics.
// This is optional; if nil, the bridge operates without telemetry.
type TelemetrySink interface {
	// RecordPointValue records one observed point value.
	RecordPointValue(point, entityID string, value any, ts time.Time)

	// RecordScrape records the statistics of one bulk scrape pass.
	RecordScrape(stats ScrapeStats, ts time.Time)
}

// Bridge orchestrates the Home Assistant driver over MQTT:
//   - Polls the hub on an interval and publishes per-point state
//   - Accepts write commands and acknowledges them
//   - Reports bridge health with an MQTT last-will fallback
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	bridgeID     string
	pollInterval time.Duration
	mqtt         MQTTClient
	driver       PointDriver
	health       *HealthReporter
	telemetry    TelemetrySink // optional

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	// Logger
	logger   Logger
	loggerMu sync.RWMutex
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// BridgeID identifies this bridge in health messages. Default: "hass".
	BridgeID string

	// Version is the bridge software version for health messages.
	Version string

	// PollInterval is how often the bridge scrapes all points.
	// Default: 30 seconds.
	PollInterval time.Duration

	// HealthInterval is how often health status is published.
	HealthInterval time.Duration

	// MQTTClient is the MQTT client implementation. Required.
	MQTTClient MQTTClient

	// Driver is the point driver. Required.
	Driver PointDriver

	// Hub provides hub reachability checks for health reporting.
	Hub HubChecker

	// Telemetry is optional sink for scraped values and scrape stats.
	Telemetry TelemetrySink

	// Logger is optional structured logger.
	Logger Logger
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("hass: MQTT client is required")
	}
	if opts.Driver == nil {
		return nil, fmt.Errorf("hass: driver is required")
	}

	bridgeID := opts.BridgeID
	if bridgeID == "" {
		bridgeID = "hass"
	}
	pollInterval := opts.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	// Bridge-level context aborts in-flight commands on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		bridgeID:     bridgeID,
		pollInterval: pollInterval,
		mqtt:         opts.MQTTClient,
		driver:       opts.Driver,
		telemetry:    opts.Telemetry,
		done:         make(chan struct{}),
		ctx:          ctx,
		ctxCancel:    ctxCancel,
		logger:       opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  bridgeID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Hub:       opts.Hub,
	})
	b.health.SetPointCount(opts.Driver.Table().Len())
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Health returns the bridge's health reporter, used to wire the MQTT
// last-will message before connecting.
func (b *Bridge) Health() *HealthReporter {
	return b.health
}

// Start begins bridge operation: subscribes to command topics, starts the
// poll loop, and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	commandTopic := CommandSubscribeTopic()
	if err := b.mqtt.Subscribe(commandTopic, 1, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	b.wg.Add(1)
	go b.pollLoop(ctx)

	b.health.Start(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logError("failed to publish health status", err)
	}

	b.logInfo("bridge started",
		"bridge_id", b.bridgeID,
		"points", b.driver.Table().Len(),
		"poll_interval", b.pollInterval.String())
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)

		// Cancel bridge context to abort in-flight commands
		b.ctxCancel()

		// Stop health reporting (publishes "stopping" status)
		b.health.Stop()

		// Wait for pending operations
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// pollLoop scrapes all points on the configured interval.
func (b *Bridge) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	// Initial scrape so retained state is populated at startup
	b.runScrape()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			b.runScrape()
		}
	}
}

// runScrape performs one scrape pass and publishes the results.
func (b *Bridge) runScrape() {
	values, stats := b.driver.ScrapeAll(b.ctx)
	now := time.Now().UTC()

	for name, value := range values {
		b.publishState(name, value, now)
	}

	if b.telemetry != nil {
		b.telemetry.RecordScrape(stats, now)
	}

	if stats.Failed > 0 {
		b.logWarn("scrape completed with failures",
			"scraped", stats.Scraped,
			"failed", stats.Failed,
			"duration", stats.Duration.String())
	} else {
		b.logDebug("scrape completed",
			"scraped", stats.Scraped,
			"duration", stats.Duration.String())
	}
}

// publishState publishes one point value (QoS 1, retained).
func (b *Bridge) publishState(point string, value any, ts time.Time) {
	entityID := ""
	if def, err := b.driver.Table().Lookup(point); err == nil {
		entityID = def.EntityID
	}

	msg := NewStateMessage(point, entityID, value)
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}

	if err := b.mqtt.Publish(StateTopic(point), payload, 1, true); err != nil {
		b.logError("failed to publish state", err)
		return
	}

	if b.telemetry != nil {
		b.telemetry.RecordPointValue(point, entityID, value, ts)
	}
}

// handleCommandMessage processes an incoming write command.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) < minTopicParts {
		b.logError("invalid command topic", fmt.Errorf("topic: %s", topic))
		return
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("failed to parse command", err)
		return
	}
	if cmd.Point == "" {
		cmd.Point = parts[minTopicParts-1]
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"point", cmd.Point,
		"source", cmd.Source)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	written, err := b.driver.WritePoint(ctx, cmd.Point, cmd.Value)
	if err != nil {
		b.publishAckError(cmd, ackCode(err), err.Error())
		return
	}

	b.publishAck(NewAckMessage(cmd, written))
	b.publishState(cmd.Point, written, time.Now().UTC())
}

// publishAck publishes a command acknowledgment.
func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}

	if err := b.mqtt.Publish(AckTopic(ack.Point), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

// publishAckError publishes a failed command acknowledgment.
func (b *Bridge) publishAckError(cmd CommandMessage, code, message string) {
	b.publishAck(NewAckError(cmd, code, message))
	b.logError("command failed",
		fmt.Errorf("command_id=%s point=%s code=%s message=%s", cmd.ID, cmd.Point, code, message))
}

// ackCode maps a driver error to a command ack error code.
func ackCode(err error) string {
	switch {
	case errors.Is(err, registry.ErrPointNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrReadOnly):
		return ErrCodeReadOnly
	case errors.Is(err, registry.ErrTypeMismatch), errors.Is(err, ErrValidation):
		return ErrCodeInvalidValue
	case errors.Is(err, ErrUnsupportedDomain), errors.Is(err, ErrUnsupportedPoint):
		return ErrCodeUnsupported
	case errors.Is(err, ErrTransport):
		return ErrCodeHubUnreachable
	default:
		return ErrCodeBridgeError
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

// logInfo logs an info message if logger is set.
func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning if logger is set.
func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logDebug logs a debug message if logger is set.
func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
