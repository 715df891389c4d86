/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import (
	"errors"
	"fmt"
)

var ErrAlignment = errors.New("line does not align with template")

type (
	// AlignmentError reports a line that cannot be tokenized or aligned with a template.
	// Callers usually count it and skip the line.
	AlignmentError struct {
		Line     string
		Template string
		Reason   string
	}
)

func (e *AlignmentError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("%s: %s, line=[%s]", ErrAlignment.Error(), e.Reason, e.Line)
	}
	return fmt.Sprintf("%s: %s, template=[%s] line=[%s]", ErrAlignment.Error(), e.Reason, e.Template, e.Line)
}

func (e *AlignmentError) Is(target error) bool {
	return target == ErrAlignment
}
