/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package filterexpr

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrTypeMismatch = errors.New("type mismatch")
)

// ParseError reports the part of an expression that matched no condition pattern.
// Compile keeps everything before it; CompileStrict returns it.
type ParseError struct {
	Expression string
	// Offset of the unrecognized condition in the normalized expression
	Offset int
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized condition %q at offset %d in %q", e.Text, e.Offset, e.Expression)
}

func unknownField(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func typeMismatch(field string, kind fmt.Stringer, literal string) error {
	return fmt.Errorf("%w: field %q is %s, literal %q", ErrTypeMismatch, field, kind, literal)
}
