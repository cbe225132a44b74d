package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultVelocity    = 1.0
	DefaultD50         = 0.2
	DefaultAlkalinity  = 2300.0
	DefaultDIC         = 2000.0
	DefaultTemperature = 20.0
	DefaultSalinity    = 35.0
	DefaultRate        = 0.5
	DefaultYears       = 10
	DefaultAddr        = ":8501"
	DefaultDataDir     = ".coastkit"
	DefaultPlotWidth   = 800
	DefaultPlotHeight  = 500
	DefaultMaxUploadMB = 200
)

type Config struct {
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
	Sediment  SedimentConfig  `yaml:"sediment"`
	Carbonate CarbonateConfig `yaml:"carbonate"`
	Shoreline ShorelineConfig `yaml:"shoreline"`
	Wave      WaveConfig      `yaml:"wave"`
	Server    ServerConfig    `yaml:"server"`
}

type SedimentConfig struct {
	Velocity float64 `yaml:"velocity"`
	D50      float64 `yaml:"d50"`
}

type CarbonateConfig struct {
	Alkalinity  float64 `yaml:"alkalinity"`
	DIC         float64 `yaml:"dic"`
	Temperature float64 `yaml:"temperature"`
	Salinity    float64 `yaml:"salinity"`
}

type ShorelineConfig struct {
	Rate  float64 `yaml:"rate"`
	Years int     `yaml:"years"`
}

type WaveConfig struct {
	TimeDim    string `yaml:"time_dim"`
	PlotWidth  int    `yaml:"plot_width"`
	PlotHeight int    `yaml:"plot_height"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		LogLevel: "info",
		Sediment: SedimentConfig{
			Velocity: DefaultVelocity,
			D50:      DefaultD50,
		},
		Carbonate: CarbonateConfig{
			Alkalinity:  DefaultAlkalinity,
			DIC:         DefaultDIC,
			Temperature: DefaultTemperature,
			Salinity:    DefaultSalinity,
		},
		Shoreline: ShorelineConfig{
			Rate:  DefaultRate,
			Years: DefaultYears,
		},
		Wave: WaveConfig{
			TimeDim:    "time",
			PlotWidth:  DefaultPlotWidth,
			PlotHeight: DefaultPlotHeight,
		},
		Server: ServerConfig{
			Addr:        DefaultAddr,
			MaxUploadMB: DefaultMaxUploadMB,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ErrExists is returned by Init when the target file is already there.
var ErrExists = errors.New("config file already exists")

// Init writes cfg as a starting config file. An existing file is kept
// unless force is set.
func Init(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return Save(path, cfg)
}

// Apply copies the inputs of a preset over the matching section.
func (c *Config) Apply(p *Preset) {
	switch p.Module {
	case ModuleSediment:
		c.Sediment = p.Sediment
	case ModuleCarbonate:
		c.Carbonate = p.Carbonate
	case ModuleShoreline:
		c.Shoreline = p.Shoreline
	}
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
