/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package logformat splits raw log lines into named header fields.
// A layout such as '<Date> <Time> <Level> <Component>: <Content>' is compiled into a grok expression:
// every <Name> becomes a lazy named capture and runs of spaces match any whitespace.
package logformat

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/vjeantet/grok"
)

const (
	HeaderContent   = "Content"
	HeaderPid       = "Pid"
	HeaderLevel     = "Level"
	HeaderComponent = "Component"
)

var (
	ErrNotMatched  = errors.New("line does not match log format")
	ErrBadLayout   = errors.New("bad log format")
	headerRegexp   = regexp.MustCompile(`<[^<>]+>`)
	spacesRegexp   = regexp.MustCompile(` +`)
	pidHeaders     = []string{"Pid", "PID", "Process"}
	timeHeaders    = map[string]bool{"Month": true, "Date": true, "Day": true, "Time": true, "Timestamp": true}
	grokNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type (
	Format struct {
		Layout     string
		Headers    []string
		expression string
		g          *grok.Grok
	}

	// Fields are the header values of one line.
	Fields map[string]string
)

// Compile turns layout into a Format. The layout must declare a Content header.
func Compile(layout string) (*Format, error) {
	if strings.TrimSpace(layout) == "" {
		return nil, ErrBadLayout
	}

	var sb strings.Builder
	var headers []string
	last := 0
	for _, loc := range headerRegexp.FindAllStringIndex(layout, -1) {
		sb.WriteString(spacesRegexp.ReplaceAllLiteralString(layout[last:loc[0]], `\s+`))
		name := layout[loc[0]+1 : loc[1]-1]
		if !grokNameRegexp.MatchString(name) {
			return nil, errors.Wrapf(ErrBadLayout, "bad header name %s", name)
		}
		headers = append(headers, name)
		sb.WriteString("%{DATA:" + name + "}")
		last = loc[1]
	}
	sb.WriteString(spacesRegexp.ReplaceAllLiteralString(layout[last:], `\s+`))

	if !contains(headers, HeaderContent) {
		return nil, errors.Wrap(ErrBadLayout, "no <Content> header")
	}

	g, err := grok.NewWithConfig(&grok.Config{NamedCapturesOnly: true})
	if err != nil {
		return nil, err
	}
	f := &Format{
		Layout:     layout,
		Headers:    headers,
		expression: "^" + sb.String() + "$",
		g:          g,
	}
	// fail fast on layouts that are not valid regular expressions
	if _, err := g.Parse(f.expression, ""); err != nil {
		return nil, errors.Wrap(ErrBadLayout, err.Error())
	}
	return f, nil
}

func (f *Format) Expression() string {
	return f.expression
}

// Split matches line against the format.
func (f *Format) Split(line string) (Fields, error) {
	m, err := f.g.Parse(f.expression, strings.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotMatched
	}
	return m, nil
}

func (fs Fields) Content() string {
	return fs[HeaderContent]
}

func (fs Fields) Pid() string {
	for _, h := range pidHeaders {
		if v := fs[h]; v != "" {
			return v
		}
	}
	return ""
}

// TimeText joins the time related headers in layout order, e.g. 'Dec 10 06:55:46' for <Date> <Day> <Time>.
func (f *Format) TimeText(fs Fields) string {
	var parts []string
	for _, h := range f.Headers {
		if timeHeaders[h] && fs[h] != "" {
			parts = append(parts, fs[h])
		}
	}
	return strings.Join(parts, " ")
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
