/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import "strings"

type (
	// TemplateCluster groups the lines sharing one event template.
	TemplateCluster struct {
		Id        int      `json:"id" yaml:"id"`
		Template  []string `json:"template" yaml:"template"`
		SeenCount int      `json:"seenCount" yaml:"seenCount"`
	}
)

func (c *TemplateCluster) TemplateString() string {
	return strings.Join(c.Template, " ")
}

// similarity is the share of non wildcard template positions equal to tokens.
// A template made only of wildcards matches anything of the same length.
func (c *TemplateCluster) similarity(tokens []string) float64 {
	if len(c.Template) != len(tokens) {
		return 0
	}
	literal, same := 0, 0
	for i, t := range c.Template {
		if t == Wildcard {
			continue
		}
		literal++
		if t == tokens[i] {
			same++
		}
	}
	if literal == 0 {
		return 1
	}
	return float64(same) / float64(literal)
}

// merge turns every position where tokens disagree with the template into a wildcard.
// It reports whether the template changed.
func (c *TemplateCluster) merge(tokens []string) bool {
	changed := false
	for i, t := range c.Template {
		if t != Wildcard && t != tokens[i] {
			c.Template[i] = Wildcard
			changed = true
		}
	}
	return changed
}

func (c *TemplateCluster) clone() *TemplateCluster {
	return &TemplateCluster{
		Id:        c.Id,
		Template:  append([]string(nil), c.Template...),
		SeenCount: c.SeenCount,
	}
}
