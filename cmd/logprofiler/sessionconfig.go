/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/appconfig"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logformat"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logger"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/recordio"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/session"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/text"
)

// sessionConfig maps the application config to a session config for the given input file.
// The format preset 'auto' picks a preset from the file name; an explicit layout always wins.
func sessionConfig(c appconfig.Config, filename string) (session.Config, error) {
	sc := session.DefaultConfig()
	sc.Miner = c.Miner
	sc.DefaultYear = c.Session.LegacyYear
	sc.MinerWorkers = c.Session.MinerWorkers
	sc.Windows = c.Profile.Windows
	sc.DiscordK = c.Profile.DiscordK
	sc.MotifK = c.Profile.MotifK
	sc.ExclusionZone = c.Profile.ExclusionZone
	sc.MotifCutoff = c.Profile.MotifCutoff
	sc.ProfileWorkers = c.Profile.Workers
	if c.Session.ContextWindow > 0 {
		sc.ContextWindow = c.Session.ContextWindow
	}

	loc, err := location(c)
	if err != nil {
		return sc, err
	}
	sc.Location = loc

	var preset logformat.Preset
	var ok bool
	switch c.Format.Preset {
	case "", "none":
	case "auto":
		if preset, ok = logformat.PresetFor(filepath.Base(filename)); !ok {
			sc.Layout = logformat.DefaultLayout
		}
	default:
		if preset, ok = logformat.PresetByName(c.Format.Preset); !ok {
			return sc, errors.Errorf("unknown format preset %s", c.Format.Preset)
		}
	}
	if ok {
		sc.Layout = preset.Layout
		sc.Miner = withPreset(c.Miner, preset)
		logger.Infoz("[bootstrap] format preset", zap.String("preset", preset.Name), zap.String("file", filename))
	}
	if c.Format.Layout != "" {
		sc.Layout = c.Format.Layout
	}
	return sc, nil
}

// withPreset fills the miner settings the config left at their defaults from the preset.
func withPreset(mc logminer.Config, preset logformat.Preset) logminer.Config {
	pc := preset.MinerConfig()
	def := logminer.DefaultConfig()
	if len(mc.Masking) == 0 {
		mc.Masking = pc.Masking
	}
	if mc.Depth == 0 || mc.Depth == def.Depth {
		mc.Depth = pc.Depth
	}
	if mc.SimThreshold == 0 || mc.SimThreshold == def.SimThreshold {
		mc.SimThreshold = pc.SimThreshold
	}
	return mc
}

// location resolves the configured timezone, nil means time.Local.
func location(c appconfig.Config) (*time.Location, error) {
	if c.Session.Timezone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "bad timezone %s", c.Session.Timezone)
	}
	return loc, nil
}

func isCsv(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

// load fills s from a structured csv file or a raw log file.
func load(ctx context.Context, s *session.Session, filename string, c appconfig.Config, loc *time.Location) error {
	if isCsv(filename) {
		f, err := os.Open(filename)
		if err != nil {
			return errors.Wrapf(err, "open %s", filename)
		}
		defer f.Close()
		records, err := recordio.ReadRecords(f, recordio.Options{Location: loc, LegacyYear: c.Session.LegacyYear})
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}
		return s.LoadRecords(records)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "read %s", filename)
	}
	lines, charset, err := text.ReadLines(bs)
	if err != nil {
		return errors.Wrapf(err, "decode %s", filename)
	}
	logger.Infoz("[bootstrap] input", zap.String("file", filename), zap.String("charset", charset), zap.Int("lines", len(lines)))
	return s.LoadLines(ctx, lines)
}

func writeRecords(filename string, records []*model.LogRecord) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	if err := recordio.WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRecordsTo(w io.Writer, records []*model.LogRecord) error {
	return recordio.WriteRecords(w, records)
}
