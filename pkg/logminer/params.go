/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import (
	"errors"
	"regexp"
	"strings"
)

// template tokens never contain spaces, so whole line patterns cannot collide with token patterns
const lineKeyPrefix = " "

type (
	// Parameter is the value a line carries at a variable template position.
	Parameter struct {
		// Position is the template token index
		Position int    `json:"position" yaml:"position"`
		Key      string `json:"key" yaml:"key"`
		Value    string `json:"value" yaml:"value"`
	}
)

// ExtractParameters aligns content with template by position and returns the values behind
// wildcards and masking placeholders. A placeholder in the last template position takes the rest of the line.
// When positions do not line up, e.g. because a mask consumed whitespace, the whole template is matched
// as one pattern instead.
func (m *Miner) ExtractParameters(template []string, content string) ([]Parameter, error) {
	params, err := m.extractPositional(template, content)
	if err == nil {
		return params, nil
	}
	var ae *AlignmentError
	if !errors.As(err, &ae) || len(template) == 0 {
		return nil, err
	}
	if params, ok := m.extractByPattern(strings.Join(template, " "), content); ok {
		return params, nil
	}
	return nil, err
}

func (m *Miner) extractPositional(template []string, content string) ([]Parameter, error) {
	tokens := strings.Fields(m.split(content))
	joined := strings.Join(template, " ")
	if len(tokens) == 0 || len(template) == 0 {
		return nil, &AlignmentError{Line: content, Template: joined, Reason: "no tokens"}
	}

	last := len(template) - 1
	trailing := m.masker.isPlaceholder(template[last])
	switch {
	case len(tokens) < len(template):
		return nil, &AlignmentError{Line: content, Template: joined, Reason: "line shorter than template"}
	case len(tokens) > len(template) && !trailing:
		return nil, &AlignmentError{Line: content, Template: joined, Reason: "line longer than template"}
	}

	var params []Parameter
	for i, tt := range template {
		value := tokens[i]
		if i == last && trailing {
			value = strings.Join(tokens[last:], " ")
		}

		switch {
		case m.masker.isPlaceholder(tt):
			params = append(params, Parameter{Position: i, Key: keyOf(tt), Value: value})
		case m.masker.containsPlaceholder(tt):
			re, err := m.pattern(tt)
			if err != nil {
				return nil, err
			}
			sub := re.FindStringSubmatch(value)
			if sub == nil {
				return nil, &AlignmentError{Line: content, Template: joined, Reason: "token [" + value + "] does not match [" + tt + "]"}
			}
			keys := m.masker.placeholder.FindAllString(tt, -1)
			for j, v := range sub[1:] {
				params = append(params, Parameter{Position: i, Key: keyOf(keys[j]), Value: v})
			}
		case tt != value:
			return nil, &AlignmentError{Line: content, Template: joined, Reason: "literal [" + tt + "] differs from [" + value + "]"}
		}
	}
	return params, nil
}

// extractByPattern matches content against the joined template. Positions are the template token indexes.
func (m *Miner) extractByPattern(joined, content string) ([]Parameter, bool) {
	key := lineKeyPrefix + joined
	re, ok := m.patterns[key]
	if !ok {
		var err error
		if re, err = m.masker.linePattern(joined); err != nil {
			return nil, false
		}
		m.patterns[key] = re
	}
	sub := re.FindStringSubmatch(m.split(content))
	if sub == nil {
		return nil, false
	}
	locs := m.masker.placeholder.FindAllStringIndex(joined, -1)
	params := make([]Parameter, 0, len(locs))
	for j, loc := range locs {
		params = append(params, Parameter{
			Position: strings.Count(joined[:loc[0]], " "),
			Key:      keyOf(joined[loc[0]:loc[1]]),
			Value:    sub[j+1],
		})
	}
	return params, true
}

// ParameterValues is ExtractParameters without positions and keys.
func (m *Miner) ParameterValues(template []string, content string) ([]string, error) {
	params, err := m.ExtractParameters(template, content)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(params))
	for i := range params {
		values[i] = params[i].Value
	}
	return values, nil
}

func (m *Miner) pattern(token string) (*regexp.Regexp, error) {
	if re, ok := m.patterns[token]; ok {
		return re, nil
	}
	re, err := m.masker.tokenPattern(token)
	if err != nil {
		return nil, err
	}
	m.patterns[token] = re
	return re, nil
}

func keyOf(placeholder string) string {
	return strings.Trim(placeholder, "<>")
}
