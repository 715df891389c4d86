/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package timeparser

import (
	"fmt"
	"strings"
	"time"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
)

// DefaultLegacyYear is used for legacy Date/Day/Time rows, which carry no year.
const DefaultLegacyYear = 2016

// ParseTimeFull parses a TimeFull value (DD-MM-YYYY HH:MM:SS).
func ParseTimeFull(s string, tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = time.Local
	}
	return time.ParseInLocation(model.TimeFullLayout, strings.TrimSpace(s), tz)
}

// ParseLegacy builds a timestamp from the legacy Date (month abbreviation), Day and Time columns.
func ParseLegacy(month, day, clock string, year int, tz *time.Location) (time.Time, error) {
	if year <= 0 {
		year = DefaultLegacyYear
	}
	m, err := time.Parse("Jan", strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad month %q", month)
	}
	s := fmt.Sprintf("%s-%02d-%d %s", strings.TrimSpace(day), int(m.Month()), year, strings.TrimSpace(clock))
	if len(strings.TrimSpace(day)) == 1 {
		s = "0" + s
	}
	return ParseTimeFull(s, tz)
}
