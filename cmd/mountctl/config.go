package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/skyfoundry/mount-commander/model"
)

// serviceConfig is everything mountctl needs to reach a mount.
type serviceConfig struct {
	Connection  model.ConnectionConfig
	MetricsAddr string
}

// mountctl config.toml key mapping.
type fileConfig struct {
	Transport   string `toml:"transport"` // "serial" | "tcp"
	SerialPort  string `toml:"serial_port"`
	BaudRate    int    `toml:"baud_rate"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	IOTimeoutMS int    `toml:"io_timeout_ms"`
	AutoConnect bool   `toml:"auto_connect"`
	MetricsAddr string `toml:"metrics_addr"`
}

// loadServiceConfig reads a TOML config with defaults overlaid only for keys
// the file actually defines.
func loadServiceConfig(path string) (serviceConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load mount config: %w", err)
	}

	transport := "serial"
	if meta.IsDefined("transport") {
		transport = strings.ToLower(strings.TrimSpace(raw.Transport))
	}

	var conn model.ConnectionConfig
	switch transport {
	case "serial":
		port := "/dev/ttyUSB0"
		if meta.IsDefined("serial_port") {
			port = strings.TrimSpace(raw.SerialPort)
		}
		baud := model.DefaultBaudRate
		if meta.IsDefined("baud_rate") {
			baud = raw.BaudRate
		}
		conn, err = model.NewSerialConfig(port, baud)
	case "tcp":
		if !meta.IsDefined("host") || !meta.IsDefined("port") {
			return serviceConfig{}, fmt.Errorf("load mount config: tcp transport needs host and port")
		}
		conn, err = model.NewTCPConfig(strings.TrimSpace(raw.Host), raw.Port)
	default:
		return serviceConfig{}, fmt.Errorf("load mount config: unknown transport %q", transport)
	}
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load mount config: %w", err)
	}

	if meta.IsDefined("io_timeout_ms") {
		conn = conn.WithIOTimeout(time.Duration(raw.IOTimeoutMS) * time.Millisecond)
	}
	if meta.IsDefined("auto_connect") {
		conn = conn.WithAutoConnect(raw.AutoConnect)
	}

	cfg := serviceConfig{Connection: conn}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	return cfg, nil
}
