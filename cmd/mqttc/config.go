package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/vitalvas/mqttv3"
)

// config holds the resolved client settings.
type config struct {
	Server         string
	ClientID       string
	Username       string
	Password       string
	KeepAlive      uint16
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxPacketSize  uint32
	LogLevel       mqttv3.LogLevel
	MetricsAddr    string
}

// mqttc config.toml key mapping.
type fileConfig struct {
	Server         string `toml:"server"`
	ClientID       string `toml:"client_id"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	KeepAlive      int64  `toml:"keep_alive"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	MaxPacketSize  int64  `toml:"max_packet_size"`
	LogLevel       string `toml:"log_level"`
	MetricsAddr    string `toml:"metrics_addr"`
}

func defaultConfig() config {
	return config{
		Server:         "tcp://localhost:1883",
		ClientID:       "mqttc",
		KeepAlive:      60,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxPacketSize:  mqttv3.MaxPacketSizeDefault,
		LogLevel:       mqttv3.LogLevelInfo,
	}
}

// loadConfig overlays the keys defined in the TOML file at path on the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		slices.Sort(keys)
		return config{}, fmt.Errorf("load config: unknown keys %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("server") {
		cfg.Server = strings.TrimSpace(raw.Server)
	}
	if meta.IsDefined("client_id") {
		cfg.ClientID = strings.TrimSpace(raw.ClientID)
	}
	if meta.IsDefined("username") {
		cfg.Username = raw.Username
	}
	if meta.IsDefined("password") {
		cfg.Password = raw.Password
	}
	if meta.IsDefined("keep_alive") {
		if raw.KeepAlive < 0 || raw.KeepAlive > 65535 {
			return config{}, fmt.Errorf("load config: keep_alive %d out of range 0-65535", raw.KeepAlive)
		}
		cfg.KeepAlive = uint16(raw.KeepAlive)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return config{}, fmt.Errorf("load config: %s: %w", d.key, err)
		}
		if v < 0 {
			return config{}, fmt.Errorf("load config: %s must not be negative", d.key)
		}
		*d.dst = v
	}

	if meta.IsDefined("max_packet_size") {
		if raw.MaxPacketSize < 0 || raw.MaxPacketSize > int64(mqttv3.MaxPacketSizeProtocol) {
			return config{}, fmt.Errorf("load config: max_packet_size %d out of range", raw.MaxPacketSize)
		}
		cfg.MaxPacketSize = uint32(raw.MaxPacketSize)
	}
	if meta.IsDefined("log_level") {
		level, err := mqttv3.ParseLogLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return config{}, fmt.Errorf("load config: log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	return cfg, nil
}

// clientOptions translates cfg into client options.
func (c config) clientOptions(logger mqttv3.Logger, metrics mqttv3.Metrics) []mqttv3.Option {
	return []mqttv3.Option{
		mqttv3.WithConnectTimeout(c.ConnectTimeout),
		mqttv3.WithReadTimeout(c.ReadTimeout),
		mqttv3.WithWriteTimeout(c.WriteTimeout),
		mqttv3.WithMaxPacketSize(c.MaxPacketSize),
		mqttv3.WithProxyFromEnvironment(true),
		mqttv3.WithLogger(logger),
		mqttv3.WithMetrics(metrics),
	}
}

// connectPacket builds the CONNECT packet announcing this client.
func (c config) connectPacket() *mqttv3.ConnectPacket {
	pkt := &mqttv3.ConnectPacket{
		ClientID:     c.ClientID,
		CleanSession: true,
		KeepAlive:    c.KeepAlive,
		Username:     c.Username,
	}
	if c.Password != "" {
		pkt.Password = []byte(c.Password)
	}
	return pkt
}
