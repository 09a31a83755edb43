package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConverterConfig holds the external converter service settings.
type ConverterConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// ServerConfig holds HTTP server settings from the config file.
type ServerConfig struct {
	Host  string
	Port  int
	Debug bool
	// TrustProxyHeaders enables X-Forwarded-For identity extraction. Only
	// safe behind a proxy that strips the header from client traffic.
	TrustProxyHeaders bool
	Converter         ConverterConfig
}

// LoadServerConfig loads server settings from the YAML config file. A missing
// file yields defaults; defaultPort applies when the file omits the port.
func LoadServerConfig(configPath string, defaultPort int) (ServerConfig, error) {
	// fileConfig maps the YAML fields needed for server settings.
	type fileConfig struct {
		Host              string `yaml:"host"`
		Port              int    `yaml:"port"`
		Debug             bool   `yaml:"debug"`
		TrustProxyHeaders bool   `yaml:"trust-proxy-headers"`
		Converter         struct {
			Endpoint string   `yaml:"endpoint"`
			Timeout  Duration `yaml:"timeout"`
		} `yaml:"converter"`
	}

	result := ServerConfig{Port: defaultPort}

	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return result, nil
		}
		return result, fmt.Errorf("read config file: %w", errRead)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return result, fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	result = ServerConfig{
		Host:              cfg.Host,
		Port:              cfg.Port,
		Debug:             cfg.Debug,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		Converter: ConverterConfig{
			Endpoint: cfg.Converter.Endpoint,
			Timeout:  cfg.Converter.Timeout.Std(),
		},
	}
	if result.Port <= 0 {
		result.Port = defaultPort
	}
	return result, nil
}
