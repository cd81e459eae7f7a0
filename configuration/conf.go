/*
Package configuration - reads the YAML configuration of the link service.
The result is an explicit value passed to every component, there is no global store
*/
package configuration

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/blabu/nanoporeLinkService/parser"
)

// ConfigFile - structure of the configuration file
type ConfigFile struct {
	ServerHost      string `yaml:"ServerHost"`      // Host (interface) where the instrument connects
	ServerPort      string `yaml:"ServerPort"`      // TCP port for the instrument
	AutoStart       bool   `yaml:"AutoStart"`       // Start listening right after launch, otherwise wait for the panel
	HTTPGatewayAddr string `yaml:"HTTPGatewayAddr"` // Address of the panel API, empty disables it
	SessionStore    string `yaml:"SessionStore"`    // Path to the session journal, empty disables it
	LogPath         string `yaml:"LogPath"`         // Directory for log files, empty means stdout only
	SaveDuration    uint32 `yaml:"SaveDuration"`    // Minutes between log file changes
	SinkQueueSize   int    `yaml:"SinkQueueSize"`   // Events buffered between the receive loop and the panel
	ControlBitOrder string `yaml:"ControlBitOrder"` // msb-first or lsb-first
	Verbose         bool   `yaml:"Verbose"`         // Debug and Trace logging
}

// Default - configuration used for absent values
func Default() ConfigFile {
	return ConfigFile{
		ServerHost:      "0.0.0.0",
		ServerPort:      "8888",
		AutoStart:       true,
		HTTPGatewayAddr: "127.0.0.1:6060",
		SessionStore:    "./sessions.db",
		SaveDuration:    60 * 24,
		SinkQueueSize:   256,
		ControlBitOrder: parser.MSBFirst.String(),
	}
}

// ReadConfig - reads the file over the defaults and validates the result
func ReadConfig(filePath string) (ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return ConfigFile{}, fmt.Errorf("config load failed (%s): %w", filePath, err)
	}
	return ParseConfig(data)
}

// ParseConfig - same as ReadConfig for already loaded content
func ParseConfig(data []byte) (ConfigFile, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ConfigFile{}, fmt.Errorf("config parse failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ConfigFile{}, err
	}
	return cfg, nil
}

// Validate - checks values which can not be fixed by defaults
func (c ConfigFile) Validate() error {
	if strings.TrimSpace(c.ServerHost) == "" {
		return fmt.Errorf("config missing ServerHost")
	}
	port, err := strconv.ParseUint(strings.TrimSpace(c.ServerPort), 10, 16)
	if err != nil {
		return fmt.Errorf("config ServerPort %q is not a port number", c.ServerPort)
	}
	if port == 0 && c.AutoStart {
		return fmt.Errorf("config ServerPort must not be 0 with AutoStart")
	}
	if c.SinkQueueSize < 0 {
		return fmt.Errorf("config SinkQueueSize must not be negative")
	}
	if _, err := parser.ParseBitOrder(c.ControlBitOrder); err != nil {
		return fmt.Errorf("config ControlBitOrder: %w", err)
	}
	return nil
}

// BitOrder - parsed ControlBitOrder
func (c ConfigFile) BitOrder() parser.BitOrder {
	o, _ := parser.ParseBitOrder(c.ControlBitOrder)
	return o
}

// Show - writes the effective configuration
func (c ConfigFile) Show(w io.Writer) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
