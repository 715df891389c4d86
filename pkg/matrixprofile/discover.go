/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package matrixprofile

import (
	"math"
)

type (
	// Discord is the start offset of a subsequence far from every other one.
	Discord struct {
		Index      int     `json:"index" yaml:"index"`
		Distance   float64 `json:"distance" yaml:"distance"`
		WindowSize int     `json:"windowSize" yaml:"windowSize"`
	}

	// Motif is a pair of subsequences close to each other. Pair[0] < Pair[1].
	Motif struct {
		Pair       [2]int  `json:"pair" yaml:"pair"`
		Distance   float64 `json:"distance" yaml:"distance"`
		WindowSize int     `json:"windowSize" yaml:"windowSize"`
	}
)

// WithMotifCutoff rejects motif pairs farther apart than cutoff.
// Defaults to half of MaxDistance for the window.
func WithMotifCutoff(cutoff float64) Option {
	return func(o *options) {
		o.motifCutoff = cutoff
	}
}

// excluder tracks the offsets covered by earlier picks.
type excluder struct {
	excluded []bool
	zone     int
}

func newExcluder(p *DistanceProfile) *excluder {
	return &excluder{excluded: make([]bool, len(p.Values)), zone: p.ExclusionZone}
}

func (e *excluder) exclude(i int) {
	begin, end := i-e.zone, i+e.zone
	if begin < 0 {
		begin = 0
	}
	if end >= len(e.excluded) {
		end = len(e.excluded) - 1
	}
	for j := begin; j <= end; j++ {
		e.excluded[j] = true
	}
}

// GetDiscords returns up to k discords ordered by decreasing distance.
// Each pick excludes [i-zone, i+zone] from later picks, ties go to the lowest offset.
func GetDiscords(p *DistanceProfile, k int) []Discord {
	if p == nil || k <= 0 {
		return nil
	}
	ex := newExcluder(p)
	var ret []Discord
	for len(ret) < k {
		best := -1
		for i, v := range p.Values {
			if ex.excluded[i] || math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			if best < 0 || v > p.Values[best] {
				best = i
			}
		}
		if best < 0 {
			break
		}
		ret = append(ret, Discord{Index: best, Distance: p.Values[best], WindowSize: p.WindowSize})
		ex.exclude(best)
	}
	return ret
}

// GetMotifs returns up to k motif pairs ordered by increasing distance.
// A pair is an offset with its nearest neighbor, both must be outside earlier picks' neighborhoods.
func GetMotifs(p *DistanceProfile, k int, opts ...Option) []Motif {
	if p == nil || k <= 0 {
		return nil
	}
	o := &options{motifCutoff: -1}
	for _, opt := range opts {
		opt(o)
	}
	cutoff := o.motifCutoff
	if cutoff < 0 {
		cutoff = MaxDistance(p.WindowSize) / 2
	}

	ex := newExcluder(p)
	// offsets whose pair was rejected are not considered again
	tried := make([]bool, len(p.Values))
	var ret []Motif
	for len(ret) < k {
		best := -1
		for i, v := range p.Values {
			if tried[i] || ex.excluded[i] || p.Indices[i] < 0 || math.IsNaN(v) {
				continue
			}
			if best < 0 || v < p.Values[best] {
				best = i
			}
		}
		if best < 0 || p.Values[best] > cutoff {
			break
		}
		tried[best] = true
		nn := p.Indices[best]
		if ex.excluded[nn] {
			continue
		}
		pair := [2]int{best, nn}
		if nn < best {
			pair = [2]int{nn, best}
		}
		ret = append(ret, Motif{Pair: pair, Distance: p.Values[best], WindowSize: p.WindowSize})
		ex.exclude(best)
		ex.exclude(nn)
	}
	return ret
}
