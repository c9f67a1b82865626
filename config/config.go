// Package config loads firmware tuning parameters the way the teacher's
// cmd/multiserver loads its device table: koanf seeded first from the
// compiled-in defaults (structs.Provider), then optionally overlaid from a
// YAML file on disk (file.Provider + koanf's yaml parser).
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/weftlabs/enginecore/arc"
	"github.com/weftlabs/enginecore/gcode"
	"github.com/weftlabs/enginecore/protocol"
	"github.com/weftlabs/enginecore/stepper"
	"github.com/weftlabs/enginecore/supervisor"
)

// SoftLimits mirrors supervisor.SoftLimitBounds with koanf/yaml struct tags
// (tags can't be attached to an imported type).
type SoftLimits struct {
	MinX float64 `koanf:"min_x" yaml:"min_x"`
	MaxX float64 `koanf:"max_x" yaml:"max_x"`
	MinY float64 `koanf:"min_y" yaml:"min_y"`
	MaxY float64 `koanf:"max_y" yaml:"max_y"`
	MinZ float64 `koanf:"min_z" yaml:"min_z"`
	MaxZ float64 `koanf:"max_z" yaml:"max_z"`
}

// ToBounds converts to the type supervisor.Config expects.
func (s SoftLimits) ToBounds() supervisor.SoftLimitBounds {
	return supervisor.SoftLimitBounds{
		MinX: s.MinX, MaxX: s.MaxX,
		MinY: s.MinY, MaxY: s.MaxY,
		MinZ: s.MinZ, MaxZ: s.MaxZ,
	}
}

// Config is the full set of tunables a host loop needs to construct the
// core: protocol framing limits, executor/planner constants, stepper
// timing, and supervisor limits — plus the transport and HTTP endpoints
// cmd/enginectl uses to wire a concrete host loop.
type Config struct {
	LineCapacity  int `koanf:"line_capacity" yaml:"line_capacity"`
	QueueCapacity int `koanf:"queue_capacity" yaml:"queue_capacity"`
	PlannerDepth  int `koanf:"planner_depth" yaml:"planner_depth"`

	DefaultFeedrate float64 `koanf:"default_feedrate" yaml:"default_feedrate"`
	RapidRate       float64 `koanf:"rapid_rate" yaml:"rapid_rate"`
	Acceleration    float64 `koanf:"acceleration" yaml:"acceleration"`

	ArcSegmentLen float64 `koanf:"arc_segment_len" yaml:"arc_segment_len"`
	ArcRadiusMin  float64 `koanf:"arc_radius_min" yaml:"arc_radius_min"`

	StepsPerMM    float64 `koanf:"steps_per_mm" yaml:"steps_per_mm"`
	DirSetupUs    uint32  `koanf:"dir_setup_us" yaml:"dir_setup_us"`
	StepPulseUs   uint32  `koanf:"step_pulse_us" yaml:"step_pulse_us"`
	IdleDisable   bool    `koanf:"idle_disable" yaml:"idle_disable"`
	IdleTimeoutMs uint32  `koanf:"idle_timeout_ms" yaml:"idle_timeout_ms"`

	LimitsEnabled     bool       `koanf:"limits_enabled" yaml:"limits_enabled"`
	SoftLimitsEnabled bool       `koanf:"soft_limits_enabled" yaml:"soft_limits_enabled"`
	SoftLimits        SoftLimits `koanf:"soft_limits" yaml:"soft_limits"`

	TransportAddr   string `koanf:"transport_addr" yaml:"transport_addr"`
	TransportSerial bool   `koanf:"transport_serial" yaml:"transport_serial"`
	SerialBaud      int    `koanf:"serial_baud" yaml:"serial_baud"`
	ChecksumEnabled bool   `koanf:"checksum_enabled" yaml:"checksum_enabled"`

	HTTPAddr  string  `koanf:"http_addr" yaml:"http_addr"`
	TickHz    float64 `koanf:"tick_hz" yaml:"tick_hz"`
}

// Default returns the compiled-in defaults: the protocol/arc/executor
// package-level defaults plus a bench-safe supervisor/transport baseline
// (limits disabled, no transport address configured).
func Default() Config {
	exec := gcode.DefaultConfig()
	st := stepper.DefaultConfig()
	sl := supervisor.DefaultSoftLimits()
	return Config{
		LineCapacity:  protocol.DefaultLineCapacity,
		QueueCapacity: protocol.DefaultQueueCapacity,
		PlannerDepth:  16,

		DefaultFeedrate: 100.0,
		RapidRate:       exec.RapidRate,
		Acceleration:    exec.Acceleration,

		ArcSegmentLen: exec.Arc.SegmentLen,
		ArcRadiusMin:  exec.Arc.RadiusMin,

		StepsPerMM:    1.0,
		DirSetupUs:    st.DirSetupUs,
		StepPulseUs:   st.StepPulseUs,
		IdleDisable:   st.IdleDisable,
		IdleTimeoutMs: st.IdleTimeoutMs,

		LimitsEnabled:     false,
		SoftLimitsEnabled: false,
		SoftLimits: SoftLimits{
			MinX: sl.MinX, MaxX: sl.MaxX,
			MinY: sl.MinY, MaxY: sl.MaxY,
			MinZ: sl.MinZ, MaxZ: sl.MaxZ,
		},

		TransportAddr:   "",
		TransportSerial: false,
		SerialBaud:      115200,
		ChecksumEnabled: false,

		HTTPAddr: ":8080",
		TickHz:   1000,
	}
}

// ArcParams converts the loaded arc tunables to arc.Params.
func (c Config) ArcParams() arc.Params {
	return arc.Params{SegmentLen: c.ArcSegmentLen, RadiusMin: c.ArcRadiusMin}
}

// ExecutorConfig converts the loaded executor tunables to gcode.Config.
func (c Config) ExecutorConfig() gcode.Config {
	return gcode.Config{
		RapidRate:    c.RapidRate,
		Acceleration: c.Acceleration,
		Arc:          c.ArcParams(),
	}
}

// StepperConfig converts the loaded stepper tunables to stepper.Config.
func (c Config) StepperConfig() stepper.Config {
	return stepper.Config{
		DirSetupUs:    c.DirSetupUs,
		StepPulseUs:   c.StepPulseUs,
		IdleDisable:   c.IdleDisable,
		IdleTimeoutMs: c.IdleTimeoutMs,
	}
}

// SupervisorConfig converts the loaded supervisor tunables to supervisor.Config.
func (c Config) SupervisorConfig() supervisor.Config {
	return supervisor.Config{
		LimitsEnabled:     c.LimitsEnabled,
		SoftLimitsEnabled: c.SoftLimitsEnabled,
		SoftLimits:        c.SoftLimits.ToBounds(),
	}
}

// Load seeds a koanf instance with Default(), then overlays path if it
// exists — mirroring cmd/multiserver's setupconfig: a missing file is not
// an error, any other read/parse failure is wrapped and returned.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "config: loading compiled-in defaults")
	}
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return Config{}, errors.Wrapf(err, "config: loading %s", path)
		}
	}
	var out Config
	if err := k.Unmarshal("", &out); err != nil {
		return Config{}, errors.Wrap(err, "config: unmarshal")
	}
	return out, nil
}

// WriteDefault writes Default() to path as YAML, the way `mkconf` does.
func WriteDefault(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "config: creating %s", path)
	}
	defer f.Close()
	if err := yaml.NewEncoder(f).Encode(Default()); err != nil {
		return errors.Wrap(err, "config: encoding defaults")
	}
	return nil
}
