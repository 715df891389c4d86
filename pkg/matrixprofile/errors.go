/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package matrixprofile

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySequence      = errors.New("empty sequence")
	ErrTooFewPoints       = errors.New("too few points")
	ErrWindowTooSmall     = errors.New("window too small")
	ErrDegenerateSequence = errors.New("degenerate sequence")
)

func windowError(window, n int) error {
	return fmt.Errorf("%w: window=%d requires 3 <= window < %d", ErrWindowTooSmall, window, n)
}
