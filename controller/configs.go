package controller

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/calvinmclean/stewart"
)

// Config is read from the environment by NewFromEnv. The UI fills it from preferences instead
type Config struct {
	SerialPort     string        `env:"SERIAL_PORT"`
	BaudRate       int           `env:"BAUD_RATE" envDefault:"115200"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`

	// MotorMapFile is an optional YAML file describing how logical motors map to board channels
	MotorMapFile string `env:"MOTOR_MAP_FILE"`

	HTTPAddr   string `env:"HTTP_ADDR"`
	MQTTBroker string `env:"MQTT_BROKER"`
	MQTTTopic  string `env:"MQTT_TOPIC" envDefault:"stewart/speeds"`
}

// ConfigFromEnv parses the environment into a Config
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = stewart.DefaultBaudRate
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.MQTTTopic == "" {
		c.MQTTTopic = "stewart/speeds"
	}
}

// MotorMapping places one logical motor on a board channel. Invert flips the direction for motors that are
// mounted mirrored
type MotorMapping struct {
	Channel int  `yaml:"channel"`
	Invert  bool `yaml:"invert"`
}

// MotorMap holds one MotorMapping per logical motor
type MotorMap struct {
	Motors []MotorMapping `yaml:"motors"`
}

// DefaultMotorMap sends logical motor i to channel i without inversion
func DefaultMotorMap() MotorMap {
	m := MotorMap{Motors: make([]MotorMapping, stewart.NumMotors)}
	for i := range m.Motors {
		m.Motors[i].Channel = i
	}
	return m
}

// LoadMotorMap reads and validates a motor map file
func LoadMotorMap(path string) (MotorMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MotorMap{}, fmt.Errorf("error reading motor map: %w", err)
	}

	var m MotorMap
	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return MotorMap{}, fmt.Errorf("error parsing motor map: %w", err)
	}

	err = m.Validate()
	if err != nil {
		return MotorMap{}, fmt.Errorf("invalid motor map: %w", err)
	}

	return m, nil
}

// Validate checks that every channel is used exactly once
func (m MotorMap) Validate() error {
	if len(m.Motors) != stewart.NumMotors {
		return fmt.Errorf("expected %d motors but got %d", stewart.NumMotors, len(m.Motors))
	}

	var used [stewart.NumMotors]bool
	for i, mm := range m.Motors {
		if mm.Channel < 0 || mm.Channel >= stewart.NumMotors {
			return fmt.Errorf("motor %d: channel %d out of range", i, mm.Channel)
		}
		if used[mm.Channel] {
			return fmt.Errorf("motor %d: channel %d used more than once", i, mm.Channel)
		}
		used[mm.Channel] = true
	}

	return nil
}

// Apply converts logical speeds into the payload order expected by the board. Speeds are clamped first
func (m MotorMap) Apply(speeds Speeds) [stewart.NumMotors]int8 {
	var payload [stewart.NumMotors]int8
	for i, mm := range m.Motors {
		s := stewart.ClampSpeed(speeds[i])
		if mm.Invert {
			s = -s
		}
		payload[mm.Channel] = s
	}
	return payload
}

var errNoSerialPort = errors.New("missing serial port")
