/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package appconfig is the application level configuration. It is loaded first, from
// logprofiler.yaml, then logprofiler.toml, then HI_* environment variables.
package appconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
)

const (
	DefaultTopK          = 4
	DefaultContextWindow = 3
	defaultLegacyYear    = 2016
	configName           = "logprofiler"
)

var StdConfig = Default()

type (
	Config struct {
		Miner   logminer.Config `json:"miner" yaml:"miner" toml:"miner"`
		Profile ProfileConfig   `json:"profile" yaml:"profile" toml:"profile"`
		Session SessionConfig   `json:"session" yaml:"session" toml:"session"`
		Format  FormatConfig    `json:"format" yaml:"format" toml:"format"`
		Log     LogConfig       `json:"log" yaml:"log" toml:"log"`
	}
	ProfileConfig struct {
		// Windows are the candidate window lengths. Empty means one window chosen from the sequence length.
		Windows []int `json:"windows" yaml:"windows" toml:"windows"`
		// DiscordK and MotifK bound the findings per window
		DiscordK int `json:"discordK" yaml:"discordK" toml:"discordK"`
		MotifK   int `json:"motifK" yaml:"motifK" toml:"motifK"`
		// ExclusionZone below 0 means floor(n/10)
		ExclusionZone int     `json:"exclusionZone" yaml:"exclusionZone" toml:"exclusionZone"`
		MotifCutoff   float64 `json:"motifCutoff" yaml:"motifCutoff" toml:"motifCutoff"`
		Workers       int     `json:"workers" yaml:"workers" toml:"workers"`
	}
	SessionConfig struct {
		ContextWindow int    `json:"contextWindow" yaml:"contextWindow" toml:"contextWindow"`
		Timezone      string `json:"timezone" yaml:"timezone" toml:"timezone"`
		LegacyYear    int    `json:"legacyYear" yaml:"legacyYear" toml:"legacyYear"`
		// MinerWorkers above 1 enables partitioned mining
		MinerWorkers int    `json:"minerWorkers" yaml:"minerWorkers" toml:"minerWorkers"`
		Filter       string `json:"filter" yaml:"filter" toml:"filter"`
	}
	FormatConfig struct {
		// Preset names a known dataset, 'auto' picks one from the input file name
		Preset string `json:"preset" yaml:"preset" toml:"preset"`
		Layout string `json:"layout" yaml:"layout" toml:"layout"`
	}
	LogConfig struct {
		Dir   string `json:"dir" yaml:"dir" toml:"dir"`
		Debug bool   `json:"debug" yaml:"debug" toml:"debug"`
	}
)

func Default() Config {
	return Config{
		Miner: logminer.DefaultConfig(),
		Profile: ProfileConfig{
			DiscordK:      DefaultTopK,
			MotifK:        DefaultTopK,
			ExclusionZone: -1,
			MotifCutoff:   -1,
		},
		Session: SessionConfig{
			ContextWindow: DefaultContextWindow,
			LegacyYear:    defaultLegacyYear,
		},
		Format: FormatConfig{Preset: "auto"},
	}
}

// SetupAppConfig loads StdConfig. An empty path searches the working directory and conf/.
func SetupAppConfig(path string) error {
	c, err := Load(path, os.Getenv)
	if err != nil {
		return err
	}
	StdConfig = *c
	return nil
}

// Load builds a Config from defaults, config files and environment variables, in that order.
func Load(path string, getenv func(string) string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := loadFile(&c, path); err != nil {
			return nil, err
		}
	} else {
		for _, ext := range []string{".yaml", ".toml"} {
			for _, p := range []string{configName + ext, filepath.Join("conf", configName+ext)} {
				if _, err := os.Stat(p); err != nil {
					continue
				}
				if err := loadFile(&c, p); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	if err := applyEnv(&c, getenv); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadFile(c *Config, path string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(bs, c)
	default:
		err = yaml.Unmarshal(bs, c)
	}
	return errors.Wrapf(err, "parse %s", path)
}

func applyEnv(c *Config, getenv func(string) string) error {
	var err error
	if s := getenv("HI_MINER_DEPTH"); s != "" {
		if c.Miner.Depth, err = cast.ToIntE(s); err != nil {
			return errors.Wrap(err, "HI_MINER_DEPTH")
		}
	}
	if s := getenv("HI_MINER_SIM_THRESHOLD"); s != "" {
		if c.Miner.SimThreshold, err = cast.ToFloat64E(s); err != nil {
			return errors.Wrap(err, "HI_MINER_SIM_THRESHOLD")
		}
	}
	if s := getenv("HI_MINER_MAX_CHILDREN"); s != "" {
		if c.Miner.MaxChildren, err = cast.ToIntE(s); err != nil {
			return errors.Wrap(err, "HI_MINER_MAX_CHILDREN")
		}
	}
	if s := getenv("HI_PROFILE_WINDOWS"); s != "" {
		if c.Profile.Windows, err = cast.ToIntSliceE(strings.Split(s, ",")); err != nil {
			return errors.Wrap(err, "HI_PROFILE_WINDOWS")
		}
	}
	if s := getenv("HI_PROFILE_K"); s != "" {
		k, err := cast.ToIntE(s)
		if err != nil {
			return errors.Wrap(err, "HI_PROFILE_K")
		}
		c.Profile.DiscordK, c.Profile.MotifK = k, k
	}
	if s := getenv("HI_SESSION_CONTEXT_WINDOW"); s != "" {
		if c.Session.ContextWindow, err = cast.ToIntE(s); err != nil {
			return errors.Wrap(err, "HI_SESSION_CONTEXT_WINDOW")
		}
	}
	if s := getenv("HI_SESSION_LEGACY_YEAR"); s != "" {
		if c.Session.LegacyYear, err = cast.ToIntE(s); err != nil {
			return errors.Wrap(err, "HI_SESSION_LEGACY_YEAR")
		}
	}
	if s := getenv("HI_SESSION_TIMEZONE"); s != "" {
		c.Session.Timezone = s
	}
	if s := getenv("HI_FORMAT_PRESET"); s != "" {
		c.Format.Preset = s
	}
	if s := getenv("HI_FORMAT_LAYOUT"); s != "" {
		c.Format.Layout = s
	}
	if s := getenv("HI_LOG_DIR"); s != "" {
		c.Log.Dir = s
	}
	if s := getenv("HI_LOG_DEBUG"); s != "" {
		c.Log.Debug = cast.ToBool(s)
	}
	return nil
}
