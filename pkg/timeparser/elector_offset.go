/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package timeparser

import "time"

type (
	offsetTimeElector struct {
		maxOffset int
		layouts   []timeLayout
	}
)

func (o *offsetTimeElector) containsLayout(layout string) bool {
	for _, tl := range o.layouts {
		if tl.layout == layout {
			return true
		}
	}
	return false
}

func (o *offsetTimeElector) ParseTimeStyle(line string) *TimeStyle {
	for i := 0; i <= o.maxOffset; i++ {
		for _, tl := range o.layouts {
			end := i + len(tl.layout)
			if end > len(line) {
				continue
			}
			if _, err := time.ParseInLocation(tl.layout, line[i:end], time.Local); err == nil {
				return &TimeStyle{
					Offset:  i,
					Layout:  tl.layout,
					HasYear: tl.hasYear,
				}
			}
		}
	}
	return nil
}

func (o *offsetTimeElector) Parse(style *TimeStyle, line string, tz *time.Location) (time.Time, error) {
	end := style.Offset + len(style.Layout)
	if len(line) < end {
		return time.Time{}, ErrNoTime
	}
	if tz == nil {
		tz = time.Local
	}
	t, err := time.ParseInLocation(style.Layout, line[style.Offset:end], tz)
	if err != nil {
		return time.Time{}, ErrNoTime
	}
	return t, nil
}
