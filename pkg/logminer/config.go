/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

const (
	// Wildcard replaces template positions whose value varies between lines.
	Wildcard = "<*>"

	DefaultDepth        = 4
	DefaultSimThreshold = 0.5
	DefaultMaxChildren  = 100
	minDepth            = 3
)

type (
	// MaskRule replaces every match of Pattern by <MaskWith> before mining, e.g. an IP by <IP>.
	MaskRule struct {
		Pattern  string `json:"pattern" yaml:"pattern" toml:"pattern"`
		MaskWith string `json:"maskWith" yaml:"maskWith" toml:"maskWith"`
	}

	Config struct {
		// Depth counts every tree level: root, token count, prefix tokens and leaf.
		// So the default 4 routes on one prefix token.
		Depth int `json:"depth" yaml:"depth" toml:"depth"`
		// SimThreshold is the minimum share of equal non wildcard positions for a line to join a cluster.
		SimThreshold float64 `json:"simThreshold" yaml:"simThreshold" toml:"simThreshold"`
		// MaxChildren bounds the fan-out of prefix nodes. Overflowing tokens go through the wildcard child.
		MaxChildren int `json:"maxChildren" yaml:"maxChildren" toml:"maxChildren"`
		// KeepNumericTokens disables routing tokens containing digits through the wildcard child.
		KeepNumericTokens bool       `json:"keepNumericTokens" yaml:"keepNumericTokens" toml:"keepNumericTokens"`
		Masking           []MaskRule `json:"masking" yaml:"masking" toml:"masking"`
		// ExtraDelimiters are replaced by spaces before tokenization.
		ExtraDelimiters []string `json:"extraDelimiters" yaml:"extraDelimiters" toml:"extraDelimiters"`
	}
)

func DefaultConfig() Config {
	return Config{
		Depth:        DefaultDepth,
		SimThreshold: DefaultSimThreshold,
		MaxChildren:  DefaultMaxChildren,
	}
}

func (c *Config) fill() {
	if c.Depth == 0 {
		c.Depth = DefaultDepth
	}
	if c.Depth < minDepth {
		c.Depth = minDepth
	}
	if c.SimThreshold <= 0 {
		c.SimThreshold = DefaultSimThreshold
	}
	if c.MaxChildren <= 0 {
		c.MaxChildren = DefaultMaxChildren
	}
	// a prefix node always keeps room for the wildcard child
	if c.MaxChildren < 2 {
		c.MaxChildren = 2
	}
}

// maxNodeDepth is the depth of the leaf layer, counted from the token count layer.
func (c *Config) maxNodeDepth() int {
	return c.Depth - 2
}
