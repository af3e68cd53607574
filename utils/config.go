package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	control "vsss-drive/closed_loop/drive_control"
	"vsss-drive/field"
)

// EndpointConfig describes a multicast feed to listen on.
type EndpointConfig struct {
	Addr       string `yaml:"addr"`
	Iface      string `yaml:"iface"`
	ReadBuffer int    `yaml:"read_buffer"`
}

// ActuatorConfig selects how wheel commands leave the process.
type ActuatorConfig struct {
	Kind        string `yaml:"kind"` // "udp" or "can"
	Addr        string `yaml:"addr"`
	CANIface    string `yaml:"can_iface"` // "log" writes frames to the log instead of a bus
	CANMap      string `yaml:"can_map"`
	FramePrefix string `yaml:"frame_prefix"`
}

type ReplacerConfig struct {
	Addr string `yaml:"addr"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	Stdout   bool   `yaml:"stdout"`
	Encoding string `yaml:"encoding"`
}

// AppConfig aggregates all configuration sections.
type AppConfig struct {
	Team      string              `yaml:"team"`
	CycleMS   int                 `yaml:"cycle_ms"`
	Log       LogConfig           `yaml:"log"`
	Vision    EndpointConfig      `yaml:"vision"`
	Referee   EndpointConfig      `yaml:"referee"`
	Actuator  ActuatorConfig      `yaml:"actuator"`
	Replacer  ReplacerConfig      `yaml:"replacer"`
	Telemetry TelemetryConfig     `yaml:"telemetry"`
	Drive     control.DriveConfig `yaml:"drive"`
	Placement string              `yaml:"placement"`
}

// DefaultAppConfig matches the stock simulator setup.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Team:    "blue",
		CycleMS: 16,
		Log: LogConfig{
			Level:  "info",
			File:   "match.log",
			Stdout: true,
		},
		Vision:  EndpointConfig{Addr: "224.0.0.1:10002", ReadBuffer: 4096},
		Referee: EndpointConfig{Addr: "224.5.23.2:10003", ReadBuffer: 1024},
		Actuator: ActuatorConfig{
			Kind:        "udp",
			Addr:        "127.0.0.1:20011",
			CANIface:    "can0",
			CANMap:      "config/can/wheel_map.csv",
			FramePrefix: "WHEEL_CMD_",
		},
		Replacer:  ReplacerConfig{Addr: "224.5.23.2:10004"},
		Telemetry: TelemetryConfig{Addr: "127.0.0.1:7070"},
		Drive:     control.DefaultDriveConfig(),
	}
}

// LoadConfig overlays the YAML file at path on the defaults.
func LoadConfig(path string) (AppConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig overlays YAML read from r on the defaults. Empty input
// yields the defaults.
func DecodeConfig(r io.Reader) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c AppConfig) Validate() error {
	if _, err := field.ParseTeamColor(c.Team); err != nil {
		return err
	}
	if c.CycleMS <= 0 {
		return fmt.Errorf("invalid cycle_ms %d", c.CycleMS)
	}
	switch c.Actuator.Kind {
	case "udp":
		if c.Actuator.Addr == "" {
			return fmt.Errorf("actuator.addr must be set for udp actuator")
		}
	case "can":
		if c.Actuator.CANIface == "" || c.Actuator.CANMap == "" {
			return fmt.Errorf("actuator.can_iface and actuator.can_map must be set for can actuator")
		}
	default:
		return fmt.Errorf("unknown actuator kind %q", c.Actuator.Kind)
	}
	if c.Vision.Addr == "" || c.Referee.Addr == "" {
		return fmt.Errorf("vision.addr and referee.addr must be set")
	}
	if err := c.Drive.Validate(); err != nil {
		return fmt.Errorf("drive: %w", err)
	}
	return nil
}

// TeamColor returns the parsed team. Call after Validate.
func (c AppConfig) TeamColor() field.TeamColor {
	color, _ := field.ParseTeamColor(c.Team)
	return color
}

// Cycle is the match loop period.
func (c AppConfig) Cycle() time.Duration {
	return time.Duration(c.CycleMS) * time.Millisecond
}
