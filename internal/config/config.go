package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// Sampled attitude channel
	Iterations    int    // loop iterations per role
	RandomSeed    uint64 // 0 = seed from the clock
	VelocityRange int    // velocities are drawn from [-range, range]

	// Resource pair
	HoldDelayMS     int // how long an actor holds its first resource
	JoinHeartbeatMS int // "still waiting" log interval while joining, 0 = off

	// Scheduling
	SchedPolicy   string // "none", "fifo" or "rr"
	SchedPriority int    // 1-99 for fifo/rr

	// MQTT (optional: empty broker disables publishing)
	MQTTBroker           string
	MQTTClientIDAttitude string
	MQTTClientIDDeadlock string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDBridge   string

	// Topics
	TopicAttitude  string
	TopicResources string

	// Web Server
	WebServerPort int

	// Display (optional: 0 disables the panel)
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// Serial telemetry (optional: empty port disables it)
	TelemetrySerialPort string
	TelemetryBaudRate   int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Iterations:    100,
		VelocityRange: 250,

		HoldDelayMS:     1000,
		JoinHeartbeatMS: 5000,

		SchedPolicy: "none",

		MQTTClientIDAttitude: "resource-sync-attitude",
		MQTTClientIDDeadlock: "resource-sync-deadlock",
		MQTTClientIDConsole:  "resource-sync-console",
		MQTTClientIDWeb:      "resource-sync-web",
		MQTTClientIDDisplay:  "resource-sync-display",
		MQTTClientIDBridge:   "resource-sync-bridge",

		TopicAttitude:  "sync/attitude",
		TopicResources: "sync/resources",

		WebServerPort: 8080,

		DisplayUpdateInterval: 250,

		TelemetryBaudRate: 9600,
	}
}

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their Default value. An empty path returns the
// defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sampled attitude channel
	case "ITERATIONS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ITERATIONS %q: %w", value, err)
		}
		c.Iterations = n
	case "RANDOM_SEED":
		seed, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid RANDOM_SEED %q: %w", value, err)
		}
		c.RandomSeed = seed
	case "VELOCITY_RANGE":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid VELOCITY_RANGE %q: %w", value, err)
		}
		c.VelocityRange = n

	// Resource pair
	case "HOLD_DELAY_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HOLD_DELAY_MS %q: %w", value, err)
		}
		c.HoldDelayMS = ms
	case "JOIN_HEARTBEAT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid JOIN_HEARTBEAT_MS %q: %w", value, err)
		}
		c.JoinHeartbeatMS = ms

	// Scheduling
	case "SCHED_POLICY":
		c.SchedPolicy = strings.ToLower(value)
	case "SCHED_PRIORITY":
		prio, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SCHED_PRIORITY %q: %w", value, err)
		}
		if prio < 1 || prio > 99 {
			return fmt.Errorf("SCHED_PRIORITY must be 1-99, got %d", prio)
		}
		c.SchedPriority = prio

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_ATTITUDE":
		c.MQTTClientIDAttitude = value
	case "MQTT_CLIENT_ID_DEADLOCK":
		c.MQTTClientIDDeadlock = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value

	// Topics
	case "TOPIC_ATTITUDE":
		c.TopicAttitude = value
	case "TOPIC_RESOURCES":
		c.TopicResources = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, err)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	// Serial telemetry
	case "TELEMETRY_SERIAL_PORT":
		c.TelemetrySerialPort = value
	case "TELEMETRY_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TELEMETRY_BAUD_RATE %q: %w", value, err)
		}
		c.TelemetryBaudRate = rate

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that the values are usable together.
func (c *Config) validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("ITERATIONS must be positive, got %d", c.Iterations)
	}
	if c.VelocityRange <= 0 {
		return fmt.Errorf("VELOCITY_RANGE must be positive, got %d", c.VelocityRange)
	}
	if c.HoldDelayMS < 0 {
		return fmt.Errorf("HOLD_DELAY_MS must not be negative, got %d", c.HoldDelayMS)
	}
	if c.JoinHeartbeatMS < 0 {
		return fmt.Errorf("JOIN_HEARTBEAT_MS must not be negative, got %d", c.JoinHeartbeatMS)
	}
	switch c.SchedPolicy {
	case "", "none":
	case "fifo", "rr":
		if c.SchedPriority == 0 {
			return fmt.Errorf("SCHED_PRIORITY is required when SCHED_POLICY is %s", c.SchedPolicy)
		}
	default:
		return fmt.Errorf("SCHED_POLICY must be none, fifo or rr, got %q", c.SchedPolicy)
	}
	if c.MQTTBroker != "" && (c.TopicAttitude == "" || c.TopicResources == "") {
		return fmt.Errorf("TOPIC_ATTITUDE and TOPIC_RESOURCES are required with MQTT_BROKER")
	}
	if c.TelemetrySerialPort != "" && c.TelemetryBaudRate == 0 {
		return fmt.Errorf("TELEMETRY_BAUD_RATE is required with TELEMETRY_SERIAL_PORT")
	}
	if c.DisplayI2CAddr != 0 && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL is required with DISPLAY_I2C_ADDR")
	}
	return nil
}

// HoldDelay returns HoldDelayMS as a duration.
func (c *Config) HoldDelay() time.Duration {
	return time.Duration(c.HoldDelayMS) * time.Millisecond
}

// JoinHeartbeat returns JoinHeartbeatMS as a duration.
func (c *Config) JoinHeartbeat() time.Duration {
	return time.Duration(c.JoinHeartbeatMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// An empty path initializes the defaults.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
