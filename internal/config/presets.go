package config

import (
	"sort"

	"github.com/san-kum/swervesim/internal/physics"
)

// Gearing describes a module's drive reduction. Drive feedforward and the
// simulated plant scale with the ratio.
type Gearing struct {
	Description   string
	DriveRatio    float64
	WheelDiameter float64 // m
}

var Presets = map[string]Gearing{
	"l1": {Description: "8.14:1 drive, 4in wheel", DriveRatio: 8.14, WheelDiameter: 0.1016},
	"l2": {Description: "6.75:1 drive, 4in wheel", DriveRatio: 6.75, WheelDiameter: 0.1016},
	"l3": {Description: "6.12:1 drive, 4in wheel", DriveRatio: 6.12, WheelDiameter: 0.1016},
	"l2_worn": {
		Description:   "6.75:1 drive, 3.85in worn tread",
		DriveRatio:    6.75,
		WheelDiameter: 0.0978,
	},
}

// GetPreset returns the default config adjusted for a named gearing, or nil.
func GetPreset(name string) *Config {
	g, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	g.Apply(cfg)
	return cfg
}

// Apply rewrites the gearing dependent fields of cfg.
func (g Gearing) Apply(cfg *Config) {
	scale := (g.DriveRatio / defaultDriveRatio) * (defaultWheelDiameter / g.WheelDiameter)
	cfg.Module.DriveDistancePerPulse = distancePerPulse(g.WheelDiameter, g.DriveRatio)
	cfg.Drive.Kv *= scale
	if cfg.Sim.Plant == nil {
		cfg.Sim.Plant = make(map[string]float64)
	}
	cfg.Sim.Plant["drive_kv"] = physics.NewWheelModule().DriveKv * scale
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
