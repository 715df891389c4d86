/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package timeparser detects where and in which layout a log line carries its timestamp.
package timeparser

import (
	"errors"
	"os"
	"sort"
	"strings"
	"time"
)

const (
	maxOffset = 4
)

var (
	ErrNoTime = errors.New("no time found")
)

type (
	TimeElector interface {
		ParseTimeStyle(line string) *TimeStyle
		Parse(style *TimeStyle, line string, tz *time.Location) (time.Time, error)
	}
	TimeStyle struct {
		// Offset is the byte offset of the timestamp inside the line
		Offset               int
		Layout               string
		TimestampMillisMode  bool
		TimestampSecondsMode bool
		// HasYear is false for syslog style stamps like 'Dec 10 06:55:46'
		HasYear bool
	}
	timeLayout struct {
		layout  string
		hasYear bool
	}
)

var basicLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
}

var offset = &offsetTimeElector{
	maxOffset: maxOffset,
	layouts: []timeLayout{
		{layout: "02-01-2006 15:04:05", hasYear: true},
		{layout: "060102 150405", hasYear: true},
		{layout: time.UnixDate, hasYear: true},
		{layout: time.ANSIC, hasYear: true},
		{layout: "02/Jan/2006:15:04:05", hasYear: true},
		{layout: "02/Jan/2006 15:04:05", hasYear: true},
		{layout: "Jan 02 2006 15:04:05", hasYear: true},
		{layout: "01/02/2006 15:04:05", hasYear: true},
		{layout: "Jan _2 15:04:05"},
	},
}

var timestamp = &timestampTimeElector{}

func init() {
	for _, layout := range basicLayouts {
		// .000 matches .000 or ,111
		// Z07:00 matches Z or +07:00
		for _, suffix := range []string{".000 Z07:00", ".000Z07:00", ".000", " Z07:00", "Z07:00", ""} {
			offset.layouts = append(offset.layouts, timeLayout{layout: layout + suffix, hasYear: true})
		}
	}

	if s := os.Getenv("TIME_LAYOUTS"); s != "" {
		for _, layout := range strings.Split(s, "|") {
			layout = strings.TrimSpace(layout)
			if layout == "" || offset.containsLayout(layout) {
				continue
			}
			now := time.Now()
			parsed, err := time.Parse(layout, now.Format(layout))
			if err != nil || now.Truncate(time.Minute) != parsed.Truncate(time.Minute) {
				continue
			}
			offset.layouts = append(offset.layouts, timeLayout{layout: layout, hasYear: true})
		}
	}

	// longer layouts first, so '.000' variants win over their prefixes
	sort.SliceStable(offset.layouts, func(i, j int) bool {
		return len(offset.layouts[i].layout) > len(offset.layouts[j].layout)
	})
}

// ParseTimeStyle finds the elector and style able to parse the time of the line.
func ParseTimeStyle(line string) (TimeElector, *TimeStyle) {
	if ts := offset.ParseTimeStyle(line); ts != nil {
		return offset, ts
	}
	if ts := timestamp.ParseTimeStyle(line); ts != nil {
		return timestamp, ts
	}
	return nil, nil
}

// Parser remembers the style detected on a previous line and tries it first,
// since all lines of one file usually share it.
type Parser struct {
	// Location used for layouts without zone. Defaults to time.Local.
	Location *time.Location
	// DefaultYear completes stamps without year. Zero keeps the current year.
	DefaultYear int

	elector TimeElector
	style   *TimeStyle
}

func NewParser(tz *time.Location, defaultYear int) *Parser {
	return &Parser{Location: tz, DefaultYear: defaultYear}
}

func (p *Parser) Parse(line string) (time.Time, error) {
	tz := p.Location
	if tz == nil {
		tz = time.Local
	}
	if p.style != nil {
		if t, err := p.elector.Parse(p.style, line, tz); err == nil {
			return p.completeYear(p.style, t), nil
		}
	}
	te, ts := ParseTimeStyle(line)
	if te == nil {
		return time.Time{}, ErrNoTime
	}
	t, err := te.Parse(ts, line, tz)
	if err != nil {
		return time.Time{}, err
	}
	p.elector, p.style = te, ts
	return p.completeYear(ts, t), nil
}

func (p *Parser) completeYear(style *TimeStyle, t time.Time) time.Time {
	if style.HasYear || style.TimestampMillisMode || style.TimestampSecondsMode {
		return t
	}
	year := p.DefaultYear
	if year == 0 {
		year = time.Now().Year()
	}
	return t.AddDate(year-t.Year(), 0, 0)
}
