package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"vsss-drive/field"
	"vsss-drive/transport"
	"vsss-drive/utils"
)

// Formation is a named set of pre-match robot placements.
type Formation struct {
	Name        string
	Description string
	Placements  []transport.Placement
}

// formationFile is the on-disk layout, the same in YAML and JSON.
type formationFile struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Placements  []formationEntry `json:"placements" yaml:"placements"`
}

type formationEntry struct {
	Index int     `json:"index" yaml:"index"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Angle float64 `json:"angle" yaml:"angle"`
}

// Placer moves robots before the match starts.
type Placer interface {
	PlaceAll(ctx context.Context, placements []transport.Placement) error
}

// LoadFormation reads a formation from YAML, or JSON when the file ends
// in .json.
func LoadFormation(path string) (Formation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Formation{}, fmt.Errorf("read file: %w", err)
	}

	var file formationFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return Formation{}, fmt.Errorf("unmarshal: %w", err)
	}

	f := Formation{Name: file.Name, Description: file.Description}
	for _, e := range file.Placements {
		f.Placements = append(f.Placements, transport.Placement{Index: e.Index, X: e.X, Y: e.Y, Angle: e.Angle})
	}

	if err := f.Validate(); err != nil {
		return Formation{}, err
	}
	return f, nil
}

// Validate checks indices and that every robot lands on the field.
func (f Formation) Validate() error {
	if len(f.Placements) == 0 {
		return fmt.Errorf("formation %q has no placements", f.Name)
	}
	seen := make(map[int]bool, len(f.Placements))
	for _, p := range f.Placements {
		if p.Index < 0 || p.Index >= field.NumRobots {
			return fmt.Errorf("invalid robot index %d", p.Index)
		}
		if seen[p.Index] {
			return fmt.Errorf("robot %d placed twice", p.Index)
		}
		seen[p.Index] = true

		for _, v := range []float64{p.X, p.Y, p.Angle} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("robot %d: non-finite placement", p.Index)
			}
		}
		if math.Abs(p.X) > field.FieldHalfLength || math.Abs(p.Y) > field.FieldHalfWidth {
			return fmt.Errorf("robot %d: (%.2f, %.2f) is off the field", p.Index, p.X, p.Y)
		}
	}
	return nil
}

// ApplyFormation loads the formation at path and sends it in one batch.
// An empty path does nothing.
func ApplyFormation(ctx context.Context, path string, placer Placer, log *utils.Logger) error {
	if path == "" {
		return nil
	}
	f, err := LoadFormation(path)
	if err != nil {
		return fmt.Errorf("formation %s: %w", path, err)
	}
	if err := placer.PlaceAll(ctx, f.Placements); err != nil {
		return fmt.Errorf("place %q: %w", f.Name, err)
	}
	log.Info("Formation %q placed: robots=%d", f.Name, len(f.Placements))
	return nil
}

// overrides are command line values that win over the config file.
// Empty strings leave the file value alone.
type overrides struct {
	Team          string
	LogLevel      string
	VisionAddr    string
	RefereeAddr   string
	ActuatorKind  string
	ActuatorAddr  string
	TelemetryAddr string
	Placement     string
}

func applyOverrides(cfg utils.AppConfig, o overrides) (utils.AppConfig, error) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Team, o.Team)
	set(&cfg.Log.Level, o.LogLevel)
	set(&cfg.Vision.Addr, o.VisionAddr)
	set(&cfg.Referee.Addr, o.RefereeAddr)
	set(&cfg.Actuator.Kind, o.ActuatorKind)
	set(&cfg.Actuator.Addr, o.ActuatorAddr)
	set(&cfg.Placement, o.Placement)
	if o.TelemetryAddr != "" {
		cfg.Telemetry.Addr = o.TelemetryAddr
		cfg.Telemetry.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return utils.AppConfig{}, err
	}
	return cfg, nil
}
