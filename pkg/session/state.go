/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package session

import "errors"

// State of a Session:
//
//	Idle -> Loaded -> [Filtered] -> Profiled -> Ready
//	Idle -> Error (malformed input)
//
// ApplyFilter may also be called on Filtered and Ready sessions; it drops earlier findings.
type State int

const (
	Idle State = iota
	Loaded
	Filtered
	Profiled
	Ready
	Error
)

var ErrIllegalState = errors.New("illegal session state")

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Filtered:
		return "filtered"
	case Profiled:
		return "profiled"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s State) in(states ...State) bool {
	for _, x := range states {
		if s == x {
			return true
		}
	}
	return false
}
