package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/waypoint-inspection/internal/led"
	"github.com/roman-kulish/waypoint-inspection/internal/mission"
	"github.com/roman-kulish/waypoint-inspection/internal/navigation"
	"github.com/roman-kulish/waypoint-inspection/internal/report"
	"github.com/roman-kulish/waypoint-inspection/internal/sim"
	"github.com/roman-kulish/waypoint-inspection/internal/vision"
)

// Config represents the main application configuration
type Config struct {
	Settings     Settings         `yaml:"settings"`
	Mission      mission.Config   `yaml:"mission"`
	Navigation   NavigationConfig `yaml:"navigation"`
	Vision       VisionConfig     `yaml:"vision"`
	Camera       CameraConfig     `yaml:"camera"`
	LED          LEDConfig        `yaml:"led"`
	ReportLabels report.Labels    `yaml:"reportLabels"`
	Sim          SimConfig        `yaml:"sim"`
}

// Settings represents global application settings. They can be overridden
// from the environment.
type Settings struct {
	LogLevel      string `yaml:"logLevel" env:"MISSION_LOG_LEVEL"`
	DataDirectory string `yaml:"dataDirectory" env:"MISSION_DATA_DIR"`
	ReportPath    string `yaml:"reportPath" env:"MISSION_REPORT_PATH"`
}

// NavigationConfig represents the navigation client settings
type NavigationConfig struct {
	PollInterval   time.Duration `yaml:"pollInterval"`
	ArrivalTimeout time.Duration `yaml:"arrivalTimeout"`
	TakeoffSettle  time.Duration `yaml:"takeoffSettle"`
	LandSettle     time.Duration `yaml:"landSettle"`
	Speed          float64       `yaml:"speed"`
	Tolerance      float64       `yaml:"tolerance"`
}

// VisionConfig represents the classifier settings
type VisionConfig struct {
	Bands          vision.Bands  `yaml:"bands"`
	ColorRounds    int           `yaml:"colorRounds"`
	ColorInterval  time.Duration `yaml:"colorInterval"`
	SymbolRounds   int           `yaml:"symbolRounds"`
	SymbolInterval time.Duration `yaml:"symbolInterval"`
	DebugDirectory string        `yaml:"debugDirectory"` // Mask mosaics are written here when set
}

// CameraConfig selects the frame source. With no directory the simulated
// camera and decoder are used.
type CameraConfig struct {
	Directory string `yaml:"directory"`
}

// LEDConfig represents the LED strip settings. With no serial port the
// effects are only logged.
type LEDConfig struct {
	SerialPort string `yaml:"serialPort"`
	BaudRate   int    `yaml:"baudRate"`
}

// SimConfig represents the simulated field
type SimConfig struct {
	Step    time.Duration `yaml:"step"`
	Markers []sim.Marker  `yaml:"markers"`
}

// NewConfig returns a configuration populated with defaults
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel:      "info",
			DataDirectory: "data",
			ReportPath:    "report.txt",
		},
		Mission: mission.DefaultConfig(),
		Navigation: NavigationConfig{
			PollInterval:   navigation.DefaultPollInterval,
			ArrivalTimeout: navigation.DefaultArrivalTimeout,
			TakeoffSettle:  navigation.DefaultTakeoffSettle,
			LandSettle:     navigation.DefaultLandSettle,
			Speed:          navigation.DefaultSpeed,
			Tolerance:      navigation.DefaultTolerance,
		},
		Vision: VisionConfig{
			Bands:          vision.DefaultBands(),
			ColorRounds:    vision.DefaultColorRounds,
			ColorInterval:  vision.DefaultColorInterval,
			SymbolRounds:   vision.DefaultSymbolRounds,
			SymbolInterval: vision.DefaultSymbolInterval,
		},
		LED: LEDConfig{
			BaudRate: led.DefaultBaudRate,
		},
		ReportLabels: report.DefaultLabels(),
		Sim: SimConfig{
			Step: sim.DefaultStep,
		},
	}
}

// LoadConfig reads the YAML configuration at path over the defaults, applies
// the environment overrides and validates the result
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	c := NewConfig()
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	if err = env.Parse(&c.Settings); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if _, err := c.Settings.Level(); err != nil {
		return err
	}
	if c.Settings.ReportPath == "" {
		return errors.New("report path is required")
	}

	if err := c.Mission.Validate(); err != nil {
		return err
	}
	if err := c.Navigation.Validate(); err != nil {
		return err
	}
	if err := c.Vision.Validate(); err != nil {
		return err
	}
	if err := c.ReportLabels.Validate(); err != nil {
		return err
	}

	if c.LED.SerialPort != "" && c.LED.BaudRate <= 0 {
		return fmt.Errorf("led: baud rate must be positive: %d given", c.LED.BaudRate)
	}

	for _, m := range c.Sim.Markers {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("sim: %w", err)
		}
	}
	if c.Sim.Step <= 0 {
		return fmt.Errorf("sim: step must be positive: %s given", c.Sim.Step)
	}

	return nil
}

// Level parses the configured log level
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

func (c NavigationConfig) Validate() error {
	switch {
	case c.Tolerance <= 0:
		return fmt.Errorf("navigation: tolerance must be positive: %g given", c.Tolerance)
	case c.Speed <= 0:
		return fmt.Errorf("navigation: speed must be positive: %g given", c.Speed)
	case c.ArrivalTimeout <= 0:
		return fmt.Errorf("navigation: arrival timeout must be positive: %s given", c.ArrivalTimeout)
	case c.PollInterval < 0 || c.TakeoffSettle < 0 || c.LandSettle < 0:
		return errors.New("navigation: poll interval and settle times cannot be negative")
	}
	return nil
}

func (c VisionConfig) Validate() error {
	if c.ColorRounds <= 0 || c.SymbolRounds <= 0 {
		return fmt.Errorf("vision: sampling rounds must be positive: %d color, %d symbol given", c.ColorRounds, c.SymbolRounds)
	}
	if c.ColorInterval < 0 || c.SymbolInterval < 0 {
		return errors.New("vision: sampling intervals cannot be negative")
	}
	if err := c.Bands.Validate(); err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	return nil
}
