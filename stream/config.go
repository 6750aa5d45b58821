package stream

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/matt-g-everett/ledkey/timeline"
	"gopkg.in/yaml.v2"
)

// Config is the application configuration, read from YAML with selected
// fields overridable from the environment.
type Config struct {
	Mqtt      MqttConfig          `yaml:"mqtt"`
	Http      HttpConfig          `yaml:"http"`
	Playback  PlaybackConfig      `yaml:"playback"`
	Led       LedConfig           `yaml:"led"`
	Log       LogConfig           `yaml:"log"`
	Keyframes []timeline.Keyframe `yaml:"keyframes"`
}

// MqttConfig names the broker, credentials and topics.
type MqttConfig struct {
	URL      string `yaml:"url" env:"LEDKEY_MQTT_URL"`
	Username string `yaml:"username" env:"LEDKEY_MQTT_USERNAME"`
	Password string `yaml:"password" env:"LEDKEY_MQTT_PASSWORD"`
	Qos      byte   `yaml:"qos"`
	Topics   struct {
		Stream  string `yaml:"stream"`
		Control string `yaml:"control"`
	} `yaml:"topics"`
	PublishTimeout time.Duration `yaml:"publishTimeout"`
}

// HttpConfig locates the web client and its listen address.
type HttpConfig struct {
	Addr   string `yaml:"addr" env:"LEDKEY_HTTP_ADDR"`
	Static string `yaml:"static"`
}

// PlaybackConfig controls the frame range and tick cadence.
type PlaybackConfig struct {
	MaxFrame   int           `yaml:"maxFrame"`
	TickPeriod time.Duration `yaml:"tickPeriod"`
}

// LedConfig maps the animated position onto the strip.
type LedConfig struct {
	Pixels      int           `yaml:"pixels"`
	PositionMin float64       `yaml:"positionMin"`
	PositionMax float64       `yaml:"positionMax"`
	GlowRadius  int           `yaml:"glowRadius"`
	Background  string        `yaml:"background"`
	Chroma      float64       `yaml:"chroma"`
	Luminance   float64       `yaml:"luminance"`
	Gradient    GradientTable `yaml:"gradient"`
}

// LogConfig sets the log level and an optional JSON log file.
type LogConfig struct {
	Level string `yaml:"level" env:"LEDKEY_LOG_LEVEL"`
	File  string `yaml:"file" env:"LEDKEY_LOG_FILE"`
}

// DefaultKeyframes is the seed timeline used when the config names none.
func DefaultKeyframes() []timeline.Keyframe {
	return []timeline.Keyframe{
		{Frame: 0, Position: 50, TimelinePos: 0},
		{Frame: 50, Position: 300, TimelinePos: 30},
		{Frame: 100, Position: 50, TimelinePos: 60},
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.Topics.Stream = "home/xmastree/stream"
	c.Mqtt.Topics.Control = "home/xmastree/timeline"
	c.Mqtt.PublishTimeout = time.Second
	c.Http.Addr = ":3000"
	c.Http.Static = "client/dist"
	c.Playback.MaxFrame = 100
	c.Playback.TickPeriod = 50 * time.Millisecond
	c.Led.Pixels = 500
	c.Led.PositionMin = 0
	c.Led.PositionMax = 500
	c.Led.GlowRadius = 6
	c.Led.Background = "#000005"
	c.Led.Chroma = 1.0
	c.Led.Luminance = 0.3
	c.Led.Gradient = DefaultGradient
	c.Log.Level = "info"
	c.Keyframes = DefaultKeyframes()
	return c
}

// ReadConfig decodes YAML from r over the defaults and then applies
// environment overrides.
func ReadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	for _, target := range []interface{}{&c.Mqtt, &c.Http, &c.Log} {
		if err := env.Parse(target); err != nil {
			return Config{}, fmt.Errorf("parse env: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ReadConfigFile reads the YAML config at path.
func ReadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return ReadConfig(f)
}

// Validate reports settings the controller or renderer cannot run with.
func (c Config) Validate() error {
	if c.Playback.MaxFrame <= 0 {
		return fmt.Errorf("playback.maxFrame must be positive, got %d", c.Playback.MaxFrame)
	}
	if c.Playback.TickPeriod <= 0 {
		return fmt.Errorf("playback.tickPeriod must be positive, got %s", c.Playback.TickPeriod)
	}
	if c.Led.Pixels <= 0 || c.Led.Pixels > 0xFFFF {
		return fmt.Errorf("led.pixels must be in 1..65535, got %d", c.Led.Pixels)
	}
	if c.Led.PositionMax <= c.Led.PositionMin {
		return fmt.Errorf("led.positionMax (%v) must exceed led.positionMin (%v)", c.Led.PositionMax, c.Led.PositionMin)
	}
	for _, kf := range c.Keyframes {
		if kf.Frame < 0 {
			return fmt.Errorf("keyframe frame must be non-negative, got %d", kf.Frame)
		}
	}
	return nil
}
