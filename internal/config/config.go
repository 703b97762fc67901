package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/swervesim/internal/control"
	"github.com/san-kum/swervesim/internal/device"
	"github.com/san-kum/swervesim/internal/device/simdev"
	"github.com/san-kum/swervesim/internal/physics"
	"github.com/san-kum/swervesim/internal/swerve"
)

const (
	DefaultPeriod   = 0.02
	DefaultDuration = 5.0
	DefaultMaxVolts = 12.0
	DefaultIface    = "can0"

	// wheel diameter and falcon encoder resolution for the default L2 gearing
	defaultWheelDiameter = 0.1016
	defaultDriveCPR      = 2048
	defaultDriveRatio    = 6.75
)

type Config struct {
	Module   ModuleConfig `yaml:"module"`
	Drive    DriveConfig  `yaml:"drive"`
	Run      RunConfig    `yaml:"run"`
	Sim      SimConfig    `yaml:"sim"`
	CAN      CANConfig    `yaml:"can"`
	LogLevel string       `yaml:"log_level"`
}

type ModuleConfig struct {
	Channels              swerve.Channels `yaml:"channels"`
	SensorOffsetDeg       float64         `yaml:"sensor_offset_deg"`
	SensorInverted        bool            `yaml:"sensor_inverted"`
	TurnKP                float64         `yaml:"turn_kp"`
	EncoderCPR            float64         `yaml:"encoder_cpr"`
	DriveDistancePerPulse float64         `yaml:"drive_distance_per_pulse"`
	VoltageCompSaturation float64         `yaml:"voltage_comp_saturation"`
	OpenLoopRamp          float64         `yaml:"open_loop_ramp"`
	ClosedLoopRamp        float64         `yaml:"closed_loop_ramp"`
	FlipPolicy            string          `yaml:"flip_policy"`
}

// DriveConfig holds the translation velocity controller gains.
type DriveConfig struct {
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	Ks       float64 `yaml:"ks"`
	Kv       float64 `yaml:"kv"`
	Ka       float64 `yaml:"ka"`
	MaxVolts float64 `yaml:"max_volts"`

	// IntegralLimit bounds the integral term in volts; zero leaves it unbounded.
	IntegralLimit float64 `yaml:"integral_limit"`
}

type RunConfig struct {
	Profile  string  `yaml:"profile"`
	Period   float64 `yaml:"period"`
	Duration float64 `yaml:"duration"`
	Speed    float64 `yaml:"speed"`
	AngleDeg float64 `yaml:"angle_deg"`
}

type SimConfig struct {
	Integrator        string             `yaml:"integrator"`
	Substeps          int                `yaml:"substeps"`
	SupplyVolts       float64            `yaml:"supply_volts"`
	SensorMountDeg    float64            `yaml:"sensor_mount_deg"`
	InitialHeadingDeg float64            `yaml:"initial_heading_deg"`
	FaultRate         float64            `yaml:"fault_rate"`
	Seed              int64              `yaml:"seed"`
	Plant             map[string]float64 `yaml:"plant,omitempty"`
}

type CANConfig struct {
	Interface      string `yaml:"interface"`
	ProbeTimeoutMs int    `yaml:"probe_timeout_ms"`
	StaleAfterMs   int    `yaml:"stale_after_ms"`
}

func DefaultConfig() *Config {
	mc := swerve.DefaultModuleConfig()
	plant := physics.NewWheelModule()
	return &Config{
		Module: ModuleConfig{
			Channels:              swerve.Channels{Drive: 1, Turn: 2, Sensor: 3},
			SensorInverted:        mc.SensorInverted,
			TurnKP:                mc.TurnKP,
			EncoderCPR:            mc.EncoderCPR,
			DriveDistancePerPulse: distancePerPulse(defaultWheelDiameter, defaultDriveRatio),
			VoltageCompSaturation: mc.VoltageCompSaturation,
			OpenLoopRamp:          mc.OpenLoopRamp,
			ClosedLoopRamp:        mc.ClosedLoopRamp,
			FlipPolicy:            mc.FlipPolicy.String(),
		},
		Drive: DriveConfig{
			Kp:       1.0,
			Ks:       plant.DriveKs,
			Kv:       plant.DriveKv,
			MaxVolts: DefaultMaxVolts,
		},
		Run: RunConfig{
			Profile:  "step",
			Period:   DefaultPeriod,
			Duration: DefaultDuration,
			Speed:    2.0,
			AngleDeg: 90,
		},
		Sim: SimConfig{
			Integrator:  "rk4",
			Substeps:    20,
			SupplyVolts: 12,
		},
		CAN: CANConfig{
			Interface:      DefaultIface,
			ProbeTimeoutMs: 250,
			StaleAfterMs:   100,
		},
		LogLevel: "info",
	}
}

func distancePerPulse(wheelDiameter, ratio float64) float64 {
	return wheelDiameter * math.Pi / (defaultDriveCPR * ratio)
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base, e.g. a preset. Values in the
// file win; base is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if base.Sim.Plant != nil {
		cfg.Sim.Plant = make(map[string]float64, len(base.Sim.Plant))
		for k, v := range base.Sim.Plant {
			cfg.Sim.Plant[k] = v
		}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	mc, err := c.SwerveConfig()
	if err != nil {
		return err
	}
	if err := mc.Validate(); err != nil {
		return err
	}
	ch := c.Module.Channels
	for _, n := range []int{ch.Drive, ch.Turn, ch.Sensor} {
		if !device.ValidChannel(n) {
			return fmt.Errorf("channel %d: %w", n, device.ErrInvalidChannel)
		}
	}
	if ch.Drive == ch.Turn {
		return fmt.Errorf("drive and turn share channel %d", ch.Drive)
	}
	if c.Run.Period <= 0 {
		return fmt.Errorf("run period must be positive, got %g", c.Run.Period)
	}
	if c.Run.Duration < 0 {
		return fmt.Errorf("run duration must not be negative, got %g", c.Run.Duration)
	}
	if c.Drive.MaxVolts < 0 {
		return fmt.Errorf("drive max volts must not be negative, got %g", c.Drive.MaxVolts)
	}
	if c.Drive.IntegralLimit < 0 {
		return fmt.Errorf("drive integral limit must not be negative, got %g", c.Drive.IntegralLimit)
	}
	if c.Sim.FaultRate < 0 || c.Sim.FaultRate > 1 {
		return fmt.Errorf("sim fault rate must be within [0, 1], got %g", c.Sim.FaultRate)
	}
	return nil
}

// SwerveConfig converts the module section into the calibration the module
// is constructed with.
func (c *Config) SwerveConfig() (swerve.ModuleConfig, error) {
	policy, err := swerve.ParseFlipPolicy(c.Module.FlipPolicy)
	if err != nil {
		return swerve.ModuleConfig{}, err
	}
	return swerve.ModuleConfig{
		SensorOffsetDeg:       c.Module.SensorOffsetDeg,
		SensorInverted:        c.Module.SensorInverted,
		TurnKP:                c.Module.TurnKP,
		EncoderCPR:            c.Module.EncoderCPR,
		DriveDistancePerPulse: c.Module.DriveDistancePerPulse,
		VoltageCompSaturation: c.Module.VoltageCompSaturation,
		OpenLoopRamp:          c.Module.OpenLoopRamp,
		ClosedLoopRamp:        c.Module.ClosedLoopRamp,
		FlipPolicy:            policy,
	}, nil
}

// DriveController builds the translation velocity controller. The PID runs
// at the loop period.
func (c *Config) DriveController() *control.Velocity {
	pid := control.NewPID(c.Drive.Kp, c.Drive.Ki, c.Drive.Kd, c.Run.Period)
	pid.IntegralLimit = c.Drive.IntegralLimit
	return control.NewVelocity(pid, c.feedforward(), c.Drive.MaxVolts)
}

func (c *Config) feedforward() control.Feedforward {
	return control.Feedforward{Ks: c.Drive.Ks, Kv: c.Drive.Kv, Ka: c.Drive.Ka}
}

// MaxSpeed is the steady-state wheel speed the drive feedforward can reach
// at the voltage clamp, or +Inf when no clamp or kv is configured.
func (c *Config) MaxSpeed() float64 {
	if c.Drive.MaxVolts <= 0 {
		return math.Inf(1)
	}
	return c.feedforward().MaxVelocity(c.Drive.MaxVolts)
}

func (c *Config) Plant() (*physics.WheelModule, error) {
	plant := physics.NewWheelModule()
	for name, v := range c.Sim.Plant {
		if err := plant.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	return plant, nil
}

func (c *Config) SimParams() simdev.Params {
	p := simdev.DefaultParams()
	p.DriveChannel = c.Module.Channels.Drive
	p.TurnChannel = c.Module.Channels.Turn
	p.SensorChannel = c.Module.Channels.Sensor
	p.DriveDistancePerPulse = c.Module.DriveDistancePerPulse
	p.SupplyVolts = c.Sim.SupplyVolts
	p.SensorMountDeg = c.Sim.SensorMountDeg
	p.InitialHeadingDeg = c.Sim.InitialHeadingDeg
	p.Substeps = c.Sim.Substeps
	p.Integrator = c.Sim.Integrator
	p.FaultRate = c.Sim.FaultRate
	p.Seed = c.Sim.Seed
	return p
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.CAN.ProbeTimeoutMs) * time.Millisecond
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.CAN.StaleAfterMs) * time.Millisecond
}
