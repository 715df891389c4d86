/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package timeparser

import (
	"strconv"
	"time"
)

const (
	millisTimestampDemo  = "1668517987046"
	secondsTimestampDemo = "1668517987"
)

type (
	// timestamp style time elector
	timestampTimeElector struct {
	}
)

func (t *timestampTimeElector) ParseTimeStyle(line string) *TimeStyle {
	if leadingDigits(line) >= len(millisTimestampDemo) {
		return &TimeStyle{TimestampMillisMode: true}
	}
	if leadingDigits(line) >= len(secondsTimestampDemo) {
		return &TimeStyle{TimestampSecondsMode: true}
	}
	return nil
}

func (t *timestampTimeElector) Parse(style *TimeStyle, line string, tz *time.Location) (time.Time, error) {
	if style.TimestampMillisMode && len(line) >= len(millisTimestampDemo) {
		i64, err := strconv.ParseInt(line[:len(millisTimestampDemo)], 10, 64)
		if err != nil {
			return time.Time{}, ErrNoTime
		}
		return time.UnixMilli(i64).In(tz), nil
	}

	if style.TimestampSecondsMode && len(line) >= len(secondsTimestampDemo) {
		i64, err := strconv.ParseInt(line[:len(secondsTimestampDemo)], 10, 64)
		if err != nil {
			return time.Time{}, ErrNoTime
		}
		return time.Unix(i64, 0).In(tz), nil
	}

	return time.Time{}, ErrNoTime
}

func leadingDigits(line string) int {
	n := 0
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	return n
}
