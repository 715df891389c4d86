/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import (
	"strconv"
	"unicode"
)

type (
	// node is a layer of the prefix tree. The root is keyed by token count, inner layers
	// by prefix tokens, and leaves hold cluster ids.
	node struct {
		children   map[string]*node
		clusterIds []int
	}
)

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func hasDigit(s string) bool {
	for _, c := range s {
		if unicode.IsDigit(c) {
			return true
		}
	}
	return false
}

// leaf walks down to the leaf responsible for tokens, without creating nodes.
func (m *Miner) leaf(tokens []string) *node {
	cur := m.root.children[strconv.Itoa(len(tokens))]
	if cur == nil {
		return nil
	}
	depth := 1
	for _, token := range tokens {
		if depth >= m.config.maxNodeDepth() || depth >= len(tokens) {
			break
		}
		next := cur.children[token]
		if next == nil {
			next = cur.children[Wildcard]
		}
		if next == nil {
			return nil
		}
		cur = next
		depth++
	}
	return cur
}

// search returns the most similar cluster at or above threshold, ties going to the lowest id.
func (m *Miner) search(tokens []string, threshold float64) *TemplateCluster {
	leaf := m.leaf(tokens)
	if leaf == nil {
		return nil
	}
	var best *TemplateCluster
	bestScore := -1.0
	for _, id := range leaf.clusterIds {
		c := m.clusters[id-1]
		score := c.similarity(tokens)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == nil || bestScore < threshold {
		return nil
	}
	return best
}

// addToTree places a new cluster, creating the path of its template on the way.
func (m *Miner) addToTree(c *TemplateCluster) {
	tokens := c.Template
	key := strconv.Itoa(len(tokens))
	cur := m.root.children[key]
	if cur == nil {
		cur = newNode()
		m.root.children[key] = cur
	}

	depth := 1
	for _, token := range tokens {
		if depth >= m.config.maxNodeDepth() || depth >= len(tokens) {
			break
		}
		cur = m.childFor(cur, token)
		depth++
	}
	cur.clusterIds = append(cur.clusterIds, c.Id)
}

func (m *Miner) childFor(cur *node, token string) *node {
	if next, ok := cur.children[token]; ok {
		return next
	}

	if !m.config.KeepNumericTokens && hasDigit(token) {
		return getOrCreate(cur, Wildcard)
	}

	_, hasWildcard := cur.children[Wildcard]
	switch {
	case hasWildcard && len(cur.children) < m.config.MaxChildren:
		return getOrCreate(cur, token)
	case hasWildcard:
		return cur.children[Wildcard]
	case len(cur.children)+1 < m.config.MaxChildren:
		return getOrCreate(cur, token)
	default:
		// the last free slot goes to the wildcard
		return getOrCreate(cur, Wildcard)
	}
}

func getOrCreate(cur *node, key string) *node {
	next := cur.children[key]
	if next == nil {
		next = newNode()
		cur.children[key] = next
	}
	return next
}
