/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

type (
	// FieldKind is the value kind of an addressable record field.
	FieldKind int

	// LogRecord is one structured log line. It is never mutated after it is produced.
	LogRecord struct {
		LineId        int       `json:"lineId" yaml:"lineId"`
		Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
		Pid           int       `json:"pid,omitempty" yaml:"pid,omitempty"`
		Component     string    `json:"component,omitempty" yaml:"component,omitempty"`
		Level         string    `json:"level,omitempty" yaml:"level,omitempty"`
		Content       string    `json:"content" yaml:"content"`
		EventId       string    `json:"eventId" yaml:"eventId"`
		EventTemplate string    `json:"eventTemplate" yaml:"eventTemplate"`
		Parameters    []string  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	}
)

const (
	KindString FieldKind = iota
	KindInt
	KindTime
)

const (
	FieldLineId        = "LineId"
	FieldTimeFull      = "TimeFull"
	FieldTimestamp     = "Timestamp"
	FieldPid           = "Pid"
	FieldComponent     = "Component"
	FieldLevel         = "Level"
	FieldContent       = "Content"
	FieldEventId       = "EventId"
	FieldEventTemplate = "EventTemplate"

	// TimeFullLayout is the unified timestamp layout of the TimeFull column: DD-MM-YYYY HH:MM:SS
	TimeFullLayout = "02-01-2006 15:04:05"

	eventIdPrefix = "E"
)

var (
	ErrBadEventId = errors.New("event id is not numeric")

	fieldKinds = map[string]FieldKind{
		FieldLineId:        KindInt,
		FieldTimeFull:      KindTime,
		FieldTimestamp:     KindTime,
		FieldPid:           KindInt,
		FieldComponent:     KindString,
		FieldLevel:         KindString,
		FieldContent:       KindString,
		FieldEventId:       KindString,
		FieldEventTemplate: KindString,
	}
)

func (k FieldKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// LookupField returns the kind of the named field. Names are case-sensitive, like CSV headers.
func LookupField(name string) (FieldKind, bool) {
	k, ok := fieldKinds[name]
	return k, ok
}

// Get returns the value of the named field: int, time.Time or string depending on its kind.
func (r *LogRecord) Get(name string) (interface{}, bool) {
	switch name {
	case FieldLineId:
		return r.LineId, true
	case FieldTimeFull, FieldTimestamp:
		return r.Timestamp, true
	case FieldPid:
		return r.Pid, true
	case FieldComponent:
		return r.Component, true
	case FieldLevel:
		return r.Level, true
	case FieldContent:
		return r.Content, true
	case FieldEventId:
		return r.EventId, true
	case FieldEventTemplate:
		return r.EventTemplate, true
	}
	return nil, false
}

// TimeFull formats Timestamp with TimeFullLayout.
func (r *LogRecord) TimeFull() string {
	if r.Timestamp.IsZero() {
		return ""
	}
	return r.Timestamp.Format(TimeFullLayout)
}

// EventNumber converts the event id to the number used in the event sequence.
// "E12" and "12" both yield 12.
func (r *LogRecord) EventNumber() (int, error) {
	return ParseEventId(r.EventId)
}

// FormatEventId builds the event id of a template cluster.
func FormatEventId(clusterId int) string {
	return eventIdPrefix + strconv.Itoa(clusterId)
}

// ParseEventId is the inverse of FormatEventId. A single leading non digit prefix is dropped.
func ParseEventId(eventId string) (int, error) {
	s := strings.TrimSpace(eventId)
	if s != "" && (s[0] < '0' || s[0] > '9') {
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrBadEventId
	}
	return n, nil
}
