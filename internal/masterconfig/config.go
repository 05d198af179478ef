// Package masterconfig loads a Master's JSON config file. Config is
// load-on-start only (internal/config's "v1 is load-on-start only, no
// hot-reload" principle carried over unchanged) — there is no running
// reconfiguration path.
package masterconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds every recognized option from spec.md §6.
type Config struct {
	MasterAddrs               []string      `json:"masterAddrs"`
	HeartbeatInterval         time.Duration `json:"heartbeatInterval"`
	ShadowMasterPingInterval  time.Duration `json:"shadowMasterPingInterval"`
	ChunkSize                 int64         `json:"chunkSize"`
	MaxAllowedChunks          int           `json:"maxAllowedChunks"`
	ReplicationFactor         int           `json:"replicationFactor"`
	CronInterval              time.Duration `json:"cronInterval"`
	HeartbeatFailureThreshold int           `json:"heartbeatFailureThreshold"`
	OtpValidDuration          time.Duration `json:"otpValidDuration"`
	UseAuthentication         bool          `json:"useAuthentication"`
	AuthenticationFilePath    string        `json:"authenticationFilePath"`
	LogLevel                  string        `json:"logLevel"`
	LogPath                   string        `json:"logPath"`
}

// rawConfig mirrors Config but with duration fields as strings, matching
// the JSON-file idiom of internal/config/file (durations are not valid
// bare JSON numbers without a unit).
type rawConfig struct {
	MasterAddrs               []string `json:"masterAddrs"`
	HeartbeatInterval         string   `json:"heartbeatInterval"`
	ShadowMasterPingInterval  string   `json:"shadowMasterPingInterval"`
	ChunkSize                 int64    `json:"chunkSize"`
	MaxAllowedChunks          int      `json:"maxAllowedChunks"`
	ReplicationFactor         int      `json:"replicationFactor"`
	CronInterval              string   `json:"cronInterval"`
	HeartbeatFailureThreshold int      `json:"heartbeatFailureThreshold"`
	OtpValidDuration          string   `json:"otpValidDuration"`
	UseAuthentication         bool     `json:"useAuthentication"`
	AuthenticationFilePath    string   `json:"authenticationFilePath"`
	LogLevel                  string   `json:"logLevel"`
	LogPath                   string   `json:"logPath"`
}

// WithDefaults fills in zero-valued fields with spec.md's implied
// defaults, so a minimal config file is enough to boot a single-node
// cluster for local testing.
func (c Config) WithDefaults() Config {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	if c.ShadowMasterPingInterval == 0 {
		c.ShadowMasterPingInterval = 5 * time.Second
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 64 * 1024 * 1024
	}
	if c.MaxAllowedChunks == 0 {
		c.MaxAllowedChunks = 1000
	}
	if c.ReplicationFactor == 0 {
		c.ReplicationFactor = 3
	}
	if c.CronInterval == 0 {
		c.CronInterval = 10 * time.Second
	}
	if c.HeartbeatFailureThreshold == 0 {
		c.HeartbeatFailureThreshold = 3
	}
	if c.OtpValidDuration == 0 {
		c.OtpValidDuration = 15 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("masterconfig: read %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("masterconfig: parse %s: %w", path, err)
	}

	cfg := Config{
		MasterAddrs:               raw.MasterAddrs,
		ChunkSize:                 raw.ChunkSize,
		MaxAllowedChunks:          raw.MaxAllowedChunks,
		ReplicationFactor:         raw.ReplicationFactor,
		HeartbeatFailureThreshold: raw.HeartbeatFailureThreshold,
		UseAuthentication:         raw.UseAuthentication,
		AuthenticationFilePath:    raw.AuthenticationFilePath,
		LogLevel:                  raw.LogLevel,
		LogPath:                   raw.LogPath,
	}

	durations := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"heartbeatInterval", raw.HeartbeatInterval, &cfg.HeartbeatInterval},
		{"shadowMasterPingInterval", raw.ShadowMasterPingInterval, &cfg.ShadowMasterPingInterval},
		{"cronInterval", raw.CronInterval, &cfg.CronInterval},
		{"otpValidDuration", raw.OtpValidDuration, &cfg.OtpValidDuration},
	}
	for _, d := range durations {
		if d.src == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.src)
		if err != nil {
			return Config{}, fmt.Errorf("masterconfig: parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return cfg.WithDefaults(), nil
}
