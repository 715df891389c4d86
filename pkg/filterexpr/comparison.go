/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package filterexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
)

type (
	Op string

	// Comparison is a leaf of the filter AST: FIELD op LITERAL, or LITERAL in FIELD.
	Comparison struct {
		Field   string
		Op      Op
		Literal string

		kind model.FieldKind
		num  int64
		t    time.Time
	}

	conditionPattern struct {
		op Op
		re *regexp.Regexp
		// index of the field and value sub matches
		field int
		value int
	}
)

const (
	OpIn Op = "in"
	OpEq Op = "=="
	OpLt Op = "<"
	OpGt Op = ">"
)

// conditionPatterns are tried in order, the first match wins.
var conditionPatterns = []conditionPattern{
	{op: OpIn, re: regexp.MustCompile(`^(\S+)\s+in\s+(\S+)`), field: 2, value: 1},
	{op: OpEq, re: regexp.MustCompile(`^\s*(\S+)\s*==\s*(\S+)\s*`), field: 1, value: 2},
	{op: OpLt, re: regexp.MustCompile(`^\s*(\S+)\s*<\s*(\S+)\s*`), field: 1, value: 2},
	{op: OpGt, re: regexp.MustCompile(`^\s*(\S+)\s*>\s*(\S+)\s*`), field: 1, value: 2},
}

var timeLiteralLayouts = []string{
	"02-01-2006T15:04:05",
	"02-01-2006",
}

// parseCondition returns (nil, nil) when no pattern matches the text.
func parseCondition(text string, loc *time.Location) (*Comparison, error) {
	for _, p := range conditionPatterns {
		ss := p.re.FindStringSubmatch(text)
		if ss == nil {
			continue
		}
		return newComparison(ss[p.field], p.op, unquote(ss[p.value]), loc)
	}
	return nil, nil
}

func newComparison(field string, op Op, literal string, loc *time.Location) (*Comparison, error) {
	kind, ok := model.LookupField(field)
	if !ok {
		return nil, unknownField(field)
	}
	c := &Comparison{Field: field, Op: op, Literal: literal, kind: kind}
	if op == OpIn {
		// containment is always tested on the string form
		return c, nil
	}
	switch kind {
	case model.KindInt:
		n, err := cast.ToInt64E(literal)
		if err != nil {
			return nil, typeMismatch(field, kind, literal)
		}
		c.num = n
	case model.KindTime:
		t, err := parseTimeLiteral(literal, loc)
		if err != nil {
			return nil, typeMismatch(field, kind, literal)
		}
		c.t = t
	}
	return c, nil
}

func (c *Comparison) Test(r Record) (bool, error) {
	v, ok := r.Get(c.Field)
	if !ok {
		return false, unknownField(c.Field)
	}

	if c.Op == OpIn {
		return strings.Contains(toText(v), c.Literal), nil
	}

	var cmp int
	switch c.kind {
	case model.KindInt:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return false, typeMismatch(c.Field, c.kind, c.Literal)
		}
		cmp = compareInt64(n, c.num)
	case model.KindTime:
		t, ok := v.(time.Time)
		if !ok {
			return false, typeMismatch(c.Field, c.kind, c.Literal)
		}
		cmp = t.Compare(c.t)
	default:
		cmp = strings.Compare(toText(v), c.Literal)
	}

	switch c.Op {
	case OpEq:
		return cmp == 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpGt:
		return cmp > 0, nil
	}
	return false, nil
}

func (c *Comparison) String() string {
	if c.Op == OpIn {
		return c.Literal + " in " + c.Field
	}
	return c.Field + " " + string(c.Op) + " " + c.Literal
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toText(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(model.TimeFullLayout)
	}
	return cast.ToString(v)
}

func parseTimeLiteral(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).In(loc), nil
	}
	for _, layout := range timeLiteralLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return cast.ToTimeE(s)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
