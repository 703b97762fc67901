package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/swervesim/internal/device"
	"github.com/san-kum/swervesim/internal/swerve"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Run.Period <= 0 {
		t.Error("period should be positive")
	}
	want := swerve.DefaultModuleConfig().DriveDistancePerPulse
	if math.Abs(cfg.Module.DriveDistancePerPulse-want) > 1e-15 {
		t.Errorf("expected distance per pulse %g, got %g", want, cfg.Module.DriveDistancePerPulse)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swerve.yaml")
	data := []byte(`
module:
  channels: {drive: 11, turn: 12, sensor: 13}
  sensor_offset_deg: -93.5
  flip_policy: reverse_drive
sim:
  fault_rate: 0.05
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Module.Channels.Turn != 12 {
		t.Errorf("expected turn channel 12, got %d", cfg.Module.Channels.Turn)
	}
	if cfg.Module.TurnKP != 0.6 {
		t.Errorf("expected default turn kp to survive, got %g", cfg.Module.TurnKP)
	}
	if cfg.Sim.Integrator != "rk4" {
		t.Errorf("expected default integrator, got %q", cfg.Sim.Integrator)
	}

	mc, err := cfg.SwerveConfig()
	if err != nil {
		t.Fatal(err)
	}
	if mc.FlipPolicy != swerve.FlipReverseDrive {
		t.Errorf("expected reverse_drive, got %s", mc.FlipPolicy)
	}
	if mc.SensorOffsetDeg != -93.5 {
		t.Errorf("expected offset -93.5, got %g", mc.SensorOffsetDeg)
	}
}

func TestLoadOverPreset(t *testing.T) {
	base := GetPreset("l1")
	presetKv := base.Drive.Kv
	presetPlantKv := base.Sim.Plant["drive_kv"]

	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.yaml")
	if err := os.WriteFile(plain, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadOver(plain, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Drive.Kv != presetKv {
		t.Errorf("expected preset kv %g, got %g", presetKv, cfg.Drive.Kv)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected file log level, got %q", cfg.LogLevel)
	}

	pinned := filepath.Join(dir, "pinned.yaml")
	data := []byte("drive:\n  kv: 3.0\nsim:\n  plant:\n    drive_kv: 3.1\n")
	if err := os.WriteFile(pinned, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOver(pinned, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Drive.Kv != 3.0 {
		t.Errorf("expected file kv 3.0 to win unscaled, got %g", cfg.Drive.Kv)
	}
	if cfg.Sim.Plant["drive_kv"] != 3.1 {
		t.Errorf("expected file plant kv 3.1, got %g", cfg.Sim.Plant["drive_kv"])
	}
	if base.Sim.Plant["drive_kv"] != presetPlantKv || base.Drive.Kv != presetKv {
		t.Error("base config was modified")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swerve.yaml")
	cfg := DefaultConfig()
	cfg.Module.SensorOffsetDeg = 12.25
	cfg.Drive.Kp = 0.3

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Module.SensorOffsetDeg != 12.25 || got.Drive.Kp != 0.3 {
		t.Errorf("round trip lost values: %+v", got.Module)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"bad channel", func(c *Config) { c.Module.Channels.Sensor = 70 }, device.ErrInvalidChannel},
		{"shared channel", func(c *Config) { c.Module.Channels.Turn = c.Module.Channels.Drive }, nil},
		{"zero cpr", func(c *Config) { c.Module.EncoderCPR = 0 }, swerve.ErrInvalidConfig},
		{"bad policy", func(c *Config) { c.Module.FlipPolicy = "sideways" }, nil},
		{"zero period", func(c *Config) { c.Run.Period = 0 }, nil},
		{"fault rate", func(c *Config) { c.Sim.FaultRate = 2 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("run:\n  period: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative period")
	}
}

func TestPlantOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sim.Plant = map[string]float64{"steer_kv": 0.8}
	plant, err := cfg.Plant()
	if err != nil {
		t.Fatal(err)
	}
	if plant.SteerKv != 0.8 {
		t.Errorf("expected steer kv 0.8, got %g", plant.SteerKv)
	}

	cfg.Sim.Plant = map[string]float64{"mass": 1}
	if _, err := cfg.Plant(); err == nil {
		t.Error("expected error for unknown plant param")
	}
}

func TestSimParamsFollowModule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Module.Channels = swerve.Channels{Drive: 4, Turn: 5, Sensor: 6}
	p := cfg.SimParams()
	if p.DriveChannel != 4 || p.TurnChannel != 5 || p.SensorChannel != 6 {
		t.Errorf("channels not carried over: %+v", p)
	}
	if p.DriveDistancePerPulse != cfg.Module.DriveDistancePerPulse {
		t.Error("sim and module disagree on distance per pulse")
	}
}

func TestDriveController(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Drive.Kp = 0
	ctrl := cfg.DriveController()

	got := ctrl.Calculate(0, 1.0)
	want := cfg.Drive.Ks + cfg.Drive.Kv
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected pure feedforward %g, got %g", want, got)
	}
}

func TestDriveControllerIntegralLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Drive.Kp = 0
	cfg.Drive.Ks = 0
	cfg.Drive.Kv = 0
	cfg.Drive.Ki = 10
	cfg.Drive.IntegralLimit = 1.5
	ctrl := cfg.DriveController()

	var got float64
	for i := 0; i < 100; i++ {
		got = ctrl.Calculate(0, 2.0)
	}
	if math.Abs(got-1.5) > 1e-9 {
		t.Errorf("expected integral clamped at 1.5 V, got %g", got)
	}

	cfg.Drive.IntegralLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected negative integral limit to be rejected")
	}
}

func TestMaxSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Drive.Ks = 0.2
	cfg.Drive.Kv = 2.0
	cfg.Drive.MaxVolts = 12.2
	if got := cfg.MaxSpeed(); math.Abs(got-6.0) > 1e-12 {
		t.Errorf("expected 6.0 m/s, got %g", got)
	}

	cfg.Drive.MaxVolts = 0
	if !math.IsInf(cfg.MaxSpeed(), 1) {
		t.Error("expected unbounded speed without a voltage clamp")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("l1")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	def := DefaultConfig()
	if cfg.Module.DriveDistancePerPulse >= def.Module.DriveDistancePerPulse {
		t.Error("l1 should travel less per count than l2")
	}
	if cfg.Drive.Kv <= def.Drive.Kv {
		t.Error("l1 should need more volts per m/s than l2")
	}
	if cfg.Sim.Plant["drive_kv"] != cfg.Drive.Kv {
		t.Errorf("plant and feedforward disagree: %g vs %g", cfg.Sim.Plant["drive_kv"], cfg.Drive.Kv)
	}

	l2 := GetPreset("l2")
	if math.Abs(l2.Module.DriveDistancePerPulse-def.Module.DriveDistancePerPulse) > 1e-15 {
		t.Error("l2 should match the defaults")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Error("presets not sorted")
		}
	}
}
