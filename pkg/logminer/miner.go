/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package logminer clusters log contents into event templates with a fixed depth prefix tree.
// Lines are routed by token count and their first tokens, then compared with the clusters of the leaf.
package logminer

import (
	"regexp"
	"strings"
)

const (
	ChangeNone            ChangeType = "none"
	ChangeClusterCreated  ChangeType = "cluster_created"
	ChangeTemplateChanged ChangeType = "cluster_template_changed"
)

type (
	ChangeType string

	// TemplateAssignment is the outcome of ingesting one line.
	TemplateAssignment struct {
		ClusterId      int
		TemplateTokens []string
		Template       string
		// CleanedLine is the content after delimiter replacement and masking
		CleanedLine string
		Change      ChangeType
	}

	// Miner is not safe for concurrent use. See IngestPartitioned for parallel mining.
	Miner struct {
		config     Config
		masker     *masker
		delimiters *strings.Replacer
		root       *node
		// clusters[i] has id i+1
		clusters []*TemplateCluster
		patterns map[string]*regexp.Regexp
	}
)

func New(config Config) (*Miner, error) {
	config.fill()
	mk, err := newMasker(config.Masking)
	if err != nil {
		return nil, err
	}
	m := &Miner{
		config:   config,
		masker:   mk,
		root:     newNode(),
		patterns: make(map[string]*regexp.Regexp),
	}
	if len(config.ExtraDelimiters) > 0 {
		pairs := make([]string, 0, 2*len(config.ExtraDelimiters))
		for _, d := range config.ExtraDelimiters {
			if d != "" {
				pairs = append(pairs, d, " ")
			}
		}
		m.delimiters = strings.NewReplacer(pairs...)
	}
	return m, nil
}

func (m *Miner) Config() Config {
	return m.config
}

func (m *Miner) split(content string) string {
	content = strings.TrimSpace(content)
	if m.delimiters != nil {
		content = m.delimiters.Replace(content)
	}
	return content
}

func (m *Miner) clean(content string) (string, []string) {
	cleaned := m.masker.mask(m.split(content))
	return cleaned, strings.Fields(cleaned)
}

// Ingest assigns content to the most similar cluster, creating one when none is similar enough.
func (m *Miner) Ingest(content string) (*TemplateAssignment, error) {
	cleaned, tokens := m.clean(content)
	if len(tokens) == 0 {
		return nil, &AlignmentError{Line: content, Reason: "no tokens"}
	}

	change := ChangeNone
	c := m.search(tokens, m.config.SimThreshold)
	if c == nil {
		c = &TemplateCluster{
			Id:        len(m.clusters) + 1,
			Template:  append([]string(nil), tokens...),
			SeenCount: 1,
		}
		m.clusters = append(m.clusters, c)
		m.addToTree(c)
		change = ChangeClusterCreated
	} else {
		if c.merge(tokens) {
			change = ChangeTemplateChanged
		}
		c.SeenCount++
	}

	return &TemplateAssignment{
		ClusterId:      c.Id,
		TemplateTokens: append([]string(nil), c.Template...),
		Template:       c.TemplateString(),
		CleanedLine:    cleaned,
		Change:         change,
	}, nil
}

// Match finds the cluster whose literal positions all agree with content, without changing any state.
func (m *Miner) Match(content string) (*TemplateCluster, bool) {
	_, tokens := m.clean(content)
	if len(tokens) == 0 {
		return nil, false
	}
	c := m.search(tokens, 1)
	if c == nil {
		return nil, false
	}
	return c.clone(), true
}

// Clusters returns copies of all clusters ordered by id.
func (m *Miner) Clusters() []*TemplateCluster {
	ret := make([]*TemplateCluster, len(m.clusters))
	for i, c := range m.clusters {
		ret[i] = c.clone()
	}
	return ret
}

func (m *Miner) Cluster(id int) (*TemplateCluster, bool) {
	if id < 1 || id > len(m.clusters) {
		return nil, false
	}
	return m.clusters[id-1].clone(), true
}

func (m *Miner) ClusterCount() int {
	return len(m.clusters)
}

// absorb folds a cluster mined elsewhere into m and returns the id it now has in m.
func (m *Miner) absorb(other *TemplateCluster) int {
	if c := m.search(other.Template, m.config.SimThreshold); c != nil {
		c.merge(other.Template)
		c.SeenCount += other.SeenCount
		return c.Id
	}
	c := &TemplateCluster{
		Id:        len(m.clusters) + 1,
		Template:  append([]string(nil), other.Template...),
		SeenCount: other.SeenCount,
	}
	m.clusters = append(m.clusters, c)
	m.addToTree(c)
	return c.Id
}
