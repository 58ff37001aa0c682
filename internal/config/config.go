// Package config loads the simulator's configuration: broker address, zone
// table, physics constants, control thresholds, and telemetry cadence.
//
// Values come from three layers, each overriding the previous: built-in
// defaults, an optional JSON file, and environment variables for the
// deployment-specific broker settings. Fields omitted from the JSON file keep
// their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/smartspeed/speedguard/internal/control"
	"github.com/smartspeed/speedguard/internal/physics"
	"github.com/smartspeed/speedguard/internal/telemetry"
	"github.com/smartspeed/speedguard/internal/zones"
)

// maxFileSize caps config files at 1MB.
const maxFileSize = 1 << 20

// Config is the root configuration document.
type Config struct {
	Broker    Broker     `json:"broker"`
	Physics   Physics    `json:"physics"`
	Control   Control    `json:"control"`
	Zones     []Zone     `json:"zones"`
	Telemetry Telemetry  `json:"telemetry"`
	Sim       Simulation `json:"sim"`
}

// Broker holds the MQTT connection settings. Environment variables override
// the file so deployments can repoint the broker without editing config.
type Broker struct {
	URL      string `json:"url" env:"SPEEDGUARD_BROKER_URL"`
	ClientID string `json:"client_id" env:"SPEEDGUARD_CLIENT_ID"`
}

// Physics holds the vehicle's physical constants.
type Physics struct {
	MaxSpeed     float64 `json:"max_speed"`     // km/h
	AccelRate    float64 `json:"accel_rate"`    // km/h per second
	BrakeRate    float64 `json:"brake_rate"`    // km/h per second
	FrictionRate float64 `json:"friction_rate"` // km/h per second
	SteerRate    float64 `json:"steer_rate"`    // degrees per second
	InitialX     float64 `json:"initial_x"`     // metres
	InitialY     float64 `json:"initial_y"`     // metres
}

// Control holds the classifier thresholds.
type Control struct {
	WarningTolerance float64 `json:"warning_tolerance"` // km/h
	MinDamping       float64 `json:"min_damping"`
}

// Zone is one entry of the zone table, in table order.
type Zone struct {
	Name       string      `json:"name"`
	SpeedLimit float64     `json:"speed_limit"` // km/h
	MinX       float64     `json:"min_x"`       // metres
	MaxX       float64     `json:"max_x"`       // metres
	Color      zones.Color `json:"color"`
}

// Telemetry holds the publisher schedule. Durations are strings like "500ms".
type Telemetry struct {
	PublishInterval  string              `json:"publish_interval"`
	ReconnectBackoff string              `json:"reconnect_backoff"`
	Origin           telemetry.GeoOrigin `json:"origin"`
}

// Simulation holds the tick schedule and the scripted drive.
type Simulation struct {
	TickInterval string `json:"tick_interval"`
	DriveScript  string `json:"drive_script"`
}

// Default returns the built-in configuration: the three-zone course and the
// stock vehicle.
func Default() Config {
	return Config{
		Broker: Broker{
			URL:      "tcp://127.0.0.1:1883",
			ClientID: "speedguard",
		},
		Physics: Physics{
			MaxSpeed:     120,
			AccelRate:    30,
			BrakeRate:    40,
			FrictionRate: 5,
			SteerRate:    90,
		},
		Control: Control{
			WarningTolerance: 5,
			MinDamping:       0.1,
		},
		Zones: []Zone{
			{Name: "School Zone", SpeedLimit: 50, MinX: -100, MaxX: 0, Color: zones.Color{R: 255, G: 204, B: 0}},
			{Name: "City Road", SpeedLimit: 60, MinX: 0, MaxX: 100, Color: zones.Color{R: 204, G: 204, B: 204}},
			{Name: "Highway", SpeedLimit: 80, MinX: 100, MaxX: 300, Color: zones.Color{R: 102, G: 102, B: 102}},
		},
		Telemetry: Telemetry{
			PublishInterval:  "500ms",
			ReconnectBackoff: "5s",
		},
		Sim: Simulation{
			TickInterval: "16ms",
			DriveScript:  "accel:8s,coast:4s,accel:10s,brake:3s",
		},
	}
}

// Load reads a JSON config file over the defaults, then applies environment
// overrides. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		cleanPath := filepath.Clean(path)
		if ext := filepath.Ext(cleanPath); ext != ".json" {
			return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
		}
		info, err := os.Stat(cleanPath)
		if err != nil {
			return Config{}, fmt.Errorf("stat config file: %w", err)
		}
		if info.Size() > maxFileSize {
			return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
		}
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", cleanPath, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// PhysicsConfig materialises the physics constants.
func (c Config) PhysicsConfig() physics.Config {
	return physics.Config{
		MaxSpeed:     c.Physics.MaxSpeed,
		AccelRate:    c.Physics.AccelRate,
		BrakeRate:    c.Physics.BrakeRate,
		FrictionRate: c.Physics.FrictionRate,
		SteerRate:    c.Physics.SteerRate,
		InitialX:     c.Physics.InitialX,
		InitialY:     c.Physics.InitialY,
	}
}

// ControlConfig materialises the classifier thresholds.
func (c Config) ControlConfig() control.Config {
	return control.Config{
		WarningTolerance: c.Control.WarningTolerance,
		MinDamping:       c.Control.MinDamping,
	}
}

// ZoneTable materialises the zone table, validating it.
func (c Config) ZoneTable() (*zones.Table, error) {
	zs := make([]zones.Zone, 0, len(c.Zones))
	for _, z := range c.Zones {
		zs = append(zs, zones.Zone{
			Name:       z.Name,
			SpeedLimit: z.SpeedLimit,
			MinX:       z.MinX,
			MaxX:       z.MaxX,
			Color:      z.Color,
		})
	}
	return zones.NewTable(zs)
}

// PublishInterval parses the telemetry cadence.
func (c Config) PublishInterval() (time.Duration, error) {
	return parseDuration("publish_interval", c.Telemetry.PublishInterval)
}

// ReconnectBackoff parses the link retry interval.
func (c Config) ReconnectBackoff() (time.Duration, error) {
	return parseDuration("reconnect_backoff", c.Telemetry.ReconnectBackoff)
}

// TickInterval parses the simulation tick period.
func (c Config) TickInterval() (time.Duration, error) {
	return parseDuration("tick_interval", c.Sim.TickInterval)
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", field, d)
	}
	return d, nil
}
