/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package session

import (
	"time"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/timeparser"
)

type (
	Config struct {
		Miner logminer.Config
		// Layout splits raw lines into header fields, see logformat. Empty means a line is all content.
		Layout string
		// Location of timestamps without zone. Defaults to time.Local.
		Location *time.Location
		// DefaultYear completes timestamps without year
		DefaultYear int
		// MinerWorkers above 1 mines partitions in parallel
		MinerWorkers int

		// Windows are the candidate matrix profile windows. Empty picks one from the sequence length.
		Windows        []int
		DiscordK       int
		MotifK         int
		ExclusionZone  int
		MotifCutoff    float64
		ProfileWorkers int

		// ContextWindow is the number of records shown on each side of a discord
		ContextWindow int
	}
)

func DefaultConfig() Config {
	return Config{
		Miner:         logminer.DefaultConfig(),
		DefaultYear:   timeparser.DefaultLegacyYear,
		DiscordK:      4,
		MotifK:        4,
		ExclusionZone: -1,
		MotifCutoff:   -1,
		ContextWindow: 3,
	}
}
