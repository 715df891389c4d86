/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import (
	"fmt"
	"regexp"
	"strings"
)

type (
	masker struct {
		rules []compiledMask
		// placeholder matches any placeholder this masker can produce
		placeholder *regexp.Regexp
	}
	compiledMask struct {
		re   *regexp.Regexp
		with string
	}
)

func newMasker(rules []MaskRule) (*masker, error) {
	m := &masker{}
	names := []string{regexp.QuoteMeta(Wildcard)}
	seen := map[string]bool{Wildcard: true}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bad masking pattern %q: %w", r.Pattern, err)
		}
		with := placeholderOf(r.MaskWith)
		m.rules = append(m.rules, compiledMask{re: re, with: with})
		if !seen[with] {
			seen[with] = true
			names = append(names, regexp.QuoteMeta(with))
		}
	}
	m.placeholder = regexp.MustCompile(strings.Join(names, "|"))
	return m, nil
}

func placeholderOf(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "<>")
	if name == "" {
		return Wildcard
	}
	return "<" + name + ">"
}

func (m *masker) mask(content string) string {
	for _, r := range m.rules {
		content = r.re.ReplaceAllLiteralString(content, r.with)
	}
	return content
}

func (m *masker) isPlaceholder(token string) bool {
	loc := m.placeholder.FindStringIndex(token)
	return loc != nil && loc[0] == 0 && loc[1] == len(token)
}

func (m *masker) containsPlaceholder(token string) bool {
	return m.placeholder.MatchString(token)
}

// tokenPattern turns a template token like 'blk_<NUM>' into an anchored regexp with one group per placeholder.
func (m *masker) tokenPattern(token string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	last := 0
	for _, loc := range m.placeholder.FindAllStringIndex(token, -1) {
		sb.WriteString(regexp.QuoteMeta(token[last:loc[0]]))
		sb.WriteString("(.*?)")
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(token[last:]))
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// linePattern turns a whole template into an anchored regexp. Literal whitespace matches any run of
// whitespace, so it still fits lines whose masked values swallowed the separators around them.
func (m *masker) linePattern(template string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString(`^\s*`)
	literal := func(s string) {
		for i, part := range strings.Split(s, " ") {
			if i > 0 {
				sb.WriteString(`\s+`)
			}
			sb.WriteString(regexp.QuoteMeta(part))
		}
	}
	last := 0
	for _, loc := range m.placeholder.FindAllStringIndex(template, -1) {
		literal(template[last:loc[0]])
		sb.WriteString("(.*?)")
		last = loc[1]
	}
	literal(template[last:])
	sb.WriteString(`\s*$`)
	return regexp.Compile(sb.String())
}
