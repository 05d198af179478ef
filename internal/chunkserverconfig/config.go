// Package chunkserverconfig loads a ChunkServer's JSON config file,
// mirroring masterconfig's load-on-start-only idiom.
package chunkserverconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	MasterAddrs       []string      `json:"masterAddrs"`
	HeartbeatInterval time.Duration `json:"heartbeatInterval"`
	ChunkSize         int64         `json:"chunkSize"`
	UseAuthentication bool          `json:"useAuthentication"`
	LogLevel          string        `json:"logLevel"`
	LogPath           string        `json:"logPath"`
	DataPath          string        `json:"dataPath"`

	// Backend selects the chunkstore implementation: "localfs" (default),
	// "s3", "gcs", or "azblob".
	Backend string `json:"backend"`
	Bucket  string `json:"bucket"` // object-storage backends only
	Prefix  string `json:"prefix"` // object-storage backends only
}

type rawConfig struct {
	MasterAddrs       []string `json:"masterAddrs"`
	HeartbeatInterval string   `json:"heartbeatInterval"`
	ChunkSize         int64    `json:"chunkSize"`
	UseAuthentication bool     `json:"useAuthentication"`
	LogLevel          string   `json:"logLevel"`
	LogPath           string   `json:"logPath"`
	DataPath          string   `json:"dataPath"`
	Backend           string   `json:"backend"`
	Bucket            string   `json:"bucket"`
	Prefix            string   `json:"prefix"`
}

func (c Config) WithDefaults() Config {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 64 * 1024 * 1024
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataPath == "" {
		c.DataPath = "data"
	}
	if c.Backend == "" {
		c.Backend = "localfs"
	}
	return c
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("chunkserverconfig: read %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("chunkserverconfig: parse %s: %w", path, err)
	}

	cfg := Config{
		MasterAddrs:       raw.MasterAddrs,
		ChunkSize:         raw.ChunkSize,
		UseAuthentication: raw.UseAuthentication,
		LogLevel:          raw.LogLevel,
		LogPath:           raw.LogPath,
		DataPath:          raw.DataPath,
		Backend:           raw.Backend,
		Bucket:            raw.Bucket,
		Prefix:            raw.Prefix,
	}

	if raw.HeartbeatInterval != "" {
		d, err := time.ParseDuration(raw.HeartbeatInterval)
		if err != nil {
			return Config{}, fmt.Errorf("chunkserverconfig: parse heartbeatInterval: %w", err)
		}
		cfg.HeartbeatInterval = d
	}

	return cfg.WithDefaults(), nil
}
