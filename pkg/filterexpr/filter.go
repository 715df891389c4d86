/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package filterexpr compiles the record filter mini-language:
//
//	condition  := VALUE " in " FIELD | FIELD " == " VALUE | FIELD " < " VALUE | FIELD " > " VALUE
//	expression := condition ( ("&&" | "||") condition )*
//
// There is no precedence and no parentheses. If the expression contains an AND
// connective anywhere, all conditions are AND-combined, otherwise they are
// OR-combined. Mixed expressions therefore do not follow boolean precedence.
package filterexpr

import (
	"strings"
	"time"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
)

type (
	// Record is anything whose fields can be addressed by name.
	Record interface {
		Get(name string) (interface{}, bool)
	}

	Combinator int

	// Filter is a compiled expression. It is safe for concurrent use.
	Filter struct {
		Expression  string
		Comparisons []*Comparison
		Combinator  Combinator
		// Unparsed is the tail of the expression starting at the first unrecognized condition
		Unparsed string
		unparsed *ParseError
	}

	Option func(*options)

	options struct {
		loc *time.Location
	}

	segment struct {
		text   string
		offset int
	}
)

const (
	Or Combinator = iota
	And
)

func (c Combinator) String() string {
	if c == And {
		return "and"
	}
	return "or"
}

// WithLocation sets the location used for time literals without zone.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.loc = loc
	}
}

// Compile parses expression. Compilation stops silently at the first condition matching no
// pattern; see Filter.Unparsed. Unknown fields and bad literals are errors.
func Compile(expression string, opts ...Option) (*Filter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	normalized := normalize(expression)
	f := &Filter{Expression: expression}
	if strings.Contains(normalized, "&") {
		f.Combinator = And
	}

	for _, seg := range split(normalized) {
		text := strings.TrimSpace(seg.text)
		c, err := parseCondition(text, o.loc)
		if err != nil {
			return nil, err
		}
		if c == nil {
			f.Unparsed = strings.TrimSpace(normalized[seg.offset:])
			f.unparsed = &ParseError{Expression: expression, Offset: seg.offset, Text: text}
			break
		}
		f.Comparisons = append(f.Comparisons, c)
	}
	return f, nil
}

// CompileStrict is Compile, but an unrecognized condition is returned as *ParseError.
func CompileStrict(expression string, opts ...Option) (*Filter, error) {
	f, err := Compile(expression, opts...)
	if err != nil {
		return nil, err
	}
	if f.unparsed != nil && strings.TrimSpace(expression) != "" {
		return nil, f.unparsed
	}
	return f, nil
}

// Test evaluates the filter against r.
func (f *Filter) Test(r Record) (bool, error) {
	if len(f.Comparisons) == 0 {
		return false, nil
	}
	ret := false
	for i, c := range f.Comparisons {
		b, err := c.Test(r)
		if err != nil {
			return false, err
		}
		if f.Combinator == And && i > 0 {
			ret = ret && b
		} else {
			ret = ret || b
		}
	}
	return ret, nil
}

// Evaluate is Test with errors treated as "not selected".
func (f *Filter) Evaluate(r Record) bool {
	ok, err := f.Test(r)
	return err == nil && ok
}

// Select returns the records selected by the filter, preserving order.
func (f *Filter) Select(records []*model.LogRecord) []*model.LogRecord {
	ret := make([]*model.LogRecord, 0, len(records))
	for _, r := range records {
		if f.Evaluate(r) {
			ret = append(ret, r)
		}
	}
	return ret
}

// Mask returns one flag per record.
func (f *Filter) Mask(records []*model.LogRecord) []bool {
	mask := make([]bool, len(records))
	for i, r := range records {
		mask[i] = f.Evaluate(r)
	}
	return mask
}

func (f *Filter) String() string {
	parts := make([]string, 0, len(f.Comparisons))
	for _, c := range f.Comparisons {
		parts = append(parts, c.String())
	}
	sep := " || "
	if f.Combinator == And {
		sep = " && "
	}
	return strings.Join(parts, sep)
}

// normalize turns '&&' and '||' into their single character form.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "||", "|")
	return strings.ReplaceAll(s, "&&", "&")
}

func split(s string) []segment {
	var ret []segment
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '|' || s[i] == '&' {
			ret = append(ret, segment{text: s[start:i], offset: start})
			start = i + 1
		}
	}
	return append(ret, segment{text: s[start:], offset: start})
}
