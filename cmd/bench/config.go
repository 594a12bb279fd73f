package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a benchmark profile. Flags given on the command line override
// the values loaded from a profile file.
type Config struct {
	Code    CodeConfig    `yaml:"code"`
	Channel ChannelConfig `yaml:"channel"`
	Decoder DecoderConfig `yaml:"decoder"`
	Run     RunConfig     `yaml:"run"`
}

// CodeConfig selects the code under test. Path takes precedence; without it
// a random regular code is generated.
type CodeConfig struct {
	Path        string `yaml:"path"` // text description, or compiled graph if it ends in .ldpc
	VNodes      int    `yaml:"vnodes"`
	VNodeDegree int    `yaml:"vnode_degree"`
	CNodeDegree int    `yaml:"cnode_degree"`
	Seed        uint64 `yaml:"seed"`
}

// ChannelConfig lists the BPSK/AWGN operating points, in dB of Eb/N0.
type ChannelConfig struct {
	EbN0dB []float64 `yaml:"ebn0_db"`
}

type DecoderConfig struct {
	Iterations int `yaml:"iterations"`
	Workers    int `yaml:"workers"` // goroutines per decode
}

type RunConfig struct {
	Frames         int    `yaml:"frames"`           // frames per operating point
	MaxFrameErrors int    `yaml:"max_frame_errors"` // stop a point early after this many; 0 = never
	Concurrency    int    `yaml:"concurrency"`      // frames decoded at once
	Seed           uint32 `yaml:"seed"`             // noise seed
	MetricsAddr    string `yaml:"metrics_addr"`     // serve /metrics here when set
}

// DefaultConfig returns the profile used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Code: CodeConfig{
			VNodes:      1008,
			VNodeDegree: 3,
			CNodeDegree: 6,
			Seed:        1,
		},
		Channel: ChannelConfig{
			EbN0dB: []float64{1.0, 1.5, 2.0, 2.5},
		},
		Decoder: DecoderConfig{
			Iterations: 50,
			Workers:    1,
		},
		Run: RunConfig{
			Frames:         1000,
			MaxFrameErrors: 100,
			Concurrency:    1,
			Seed:           0x1234,
		},
	}
}

// LoadConfig reads a YAML profile. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return config, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Code.Path == "" {
		if c.Code.VNodes <= 0 || c.Code.VNodeDegree <= 0 || c.Code.CNodeDegree <= 0 {
			errs = append(errs, fmt.Errorf("code: vnodes, vnode_degree and cnode_degree must be positive without a path"))
		} else if c.Code.CNodeDegree <= c.Code.VNodeDegree {
			errs = append(errs, fmt.Errorf("code: cnode_degree %d must exceed vnode_degree %d for a positive rate",
				c.Code.CNodeDegree, c.Code.VNodeDegree))
		}
	}
	if len(c.Channel.EbN0dB) == 0 {
		errs = append(errs, errors.New("channel: ebn0_db must list at least one point"))
	}
	for _, p := range c.Channel.EbN0dB {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, fmt.Errorf("channel: ebn0_db point %v is not finite", p))
		}
	}
	if c.Decoder.Iterations < 1 {
		errs = append(errs, fmt.Errorf("decoder: iterations must be at least 1, got %d", c.Decoder.Iterations))
	}
	if c.Run.Frames < 1 {
		errs = append(errs, fmt.Errorf("run: frames must be at least 1, got %d", c.Run.Frames))
	}
	if c.Run.MaxFrameErrors < 0 {
		errs = append(errs, fmt.Errorf("run: max_frame_errors must not be negative, got %d", c.Run.MaxFrameErrors))
	}
	return errors.Join(errs...)
}

// Sigma returns the AWGN noise standard deviation for BPSK at ebn0dB on a
// code of the given rate: Es/N0 = R·Eb/N0 and σ² = 1/(2·Es/N0).
func Sigma(ebn0dB, rate float64) float64 {
	esn0 := rate * math.Pow(10, ebn0dB/10)
	return math.Sqrt(1 / (2 * esn0))
}
