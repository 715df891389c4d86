/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package matrixprofile computes self join matrix profiles of numeric sequences with STOMP
// and derives discords and motifs from them.
package matrixprofile

import (
	"errors"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	MinWindow = 3
	minPoints = 4
	// standard deviations below this are treated as constant subsequences
	constantEps = 1e-8
	// correlations this close to 1 are rounding noise of identical shapes
	corrEps = 1e-12
	// rows computed by one worker at least
	minBlockRows = 64
)

type (
	// DistanceProfile holds, for every offset, the z-normalized distance to its nearest
	// non trivial neighbor and that neighbor's offset.
	// Offsets without any neighbor outside the exclusion zone have +Inf and index -1.
	DistanceProfile struct {
		Values        []float64 `json:"values" yaml:"values"`
		Indices       []int     `json:"indices" yaml:"indices"`
		WindowSize    int       `json:"windowSize" yaml:"windowSize"`
		ExclusionZone int       `json:"exclusionZone" yaml:"exclusionZone"`
	}

	Option func(*options)

	options struct {
		exclusionZone int
		workers       int
		motifCutoff   float64
	}

	// rolling window statistics
	windowStats struct {
		mean []float64
		std  []float64
	}
)

// WithExclusionZone overrides the default floor(n/10).
func WithExclusionZone(zone int) Option {
	return func(o *options) {
		o.exclusionZone = zone
	}
}

// WithWorkers bounds the goroutines used by Compute. Defaults to GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

func buildOptions(n int, opts []Option) *options {
	o := &options{
		exclusionZone: -1,
		workers:       runtime.GOMAXPROCS(0),
		motifCutoff:   -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.exclusionZone < 0 {
		o.exclusionZone = n / 10
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// Validate checks sequence and window without computing anything.
func Validate(sequence []float64, window int) error {
	n := len(sequence)
	switch {
	case n == 0:
		return ErrEmptySequence
	case n < minPoints:
		return ErrTooFewPoints
	case window < MinWindow || window >= n:
		return windowError(window, n)
	}
	return nil
}

// DefaultWindow picks a window for a sequence of n points when none is configured.
func DefaultWindow(n int) int {
	w := n / 20
	if w < MinWindow {
		w = MinWindow
	}
	if w > 32 {
		w = 32
	}
	return w
}

// Compute returns the matrix profile of sequence for one window.
func Compute(sequence []float64, window int, opts ...Option) (*DistanceProfile, error) {
	if err := Validate(sequence, window); err != nil {
		return nil, err
	}
	o := buildOptions(len(sequence), opts)

	ws, err := computeStats(sequence, window)
	if err != nil {
		return nil, err
	}

	m := len(sequence) - window + 1
	p := &DistanceProfile{
		Values:        make([]float64, m),
		Indices:       make([]int, m),
		WindowSize:    window,
		ExclusionZone: o.exclusionZone,
	}

	workers := o.workers
	if limit := (m + minBlockRows - 1) / minBlockRows; workers > limit {
		workers = limit
	}
	block := (m + workers - 1) / workers

	var wg sync.WaitGroup
	for begin := 0; begin < m; begin += block {
		end := begin + block
		if end > m {
			end = m
		}
		wg.Add(1)
		go func(begin, end int) {
			defer wg.Done()
			stompRows(sequence, window, ws, o.exclusionZone, begin, end, p)
		}(begin, end)
	}
	wg.Wait()
	return p, nil
}

// ComputeAll computes one profile per accepted window. Rejected windows are skipped,
// the call only fails when no window is accepted or the sequence itself is unusable.
func ComputeAll(sequence []float64, windows []int, opts ...Option) ([]*DistanceProfile, error) {
	var profiles []*DistanceProfile
	var lastErr error
	for _, w := range windows {
		p, err := Compute(sequence, w, opts...)
		if err != nil {
			if !errors.Is(err, ErrWindowTooSmall) {
				return nil, err
			}
			lastErr = err
			continue
		}
		profiles = append(profiles, p)
	}
	if len(profiles) == 0 {
		if lastErr == nil {
			lastErr = windowError(0, len(sequence))
		}
		return nil, lastErr
	}
	return profiles, nil
}

func computeStats(sequence []float64, window int) (*windowStats, error) {
	m := len(sequence) - window + 1
	ws := &windowStats{
		mean: make([]float64, m),
		std:  make([]float64, m),
	}
	constant := 0
	for i := 0; i < m; i++ {
		mean, variance := stat.PopMeanVariance(sequence[i:i+window], nil)
		ws.mean[i] = mean
		ws.std[i] = math.Sqrt(variance)
		if ws.std[i] < constantEps {
			ws.std[i] = 0
			constant++
		}
	}
	if constant == m {
		return nil, ErrDegenerateSequence
	}
	return ws, nil
}

// stompRows fills the profile rows [begin, end). The first row's dot products are computed
// directly, the following ones with the sliding update of the previous row.
func stompRows(sequence []float64, window int, ws *windowStats, zone int, begin, end int, p *DistanceProfile) {
	m := len(sequence) - window + 1
	sep := zone
	if sep < 1 {
		sep = 1
	}

	qt := make([]float64, m)
	query := sequence[begin : begin+window]
	for j := 0; j < m; j++ {
		qt[j] = floats.Dot(query, sequence[j:j+window])
	}

	for i := begin; i < end; i++ {
		if i > begin {
			// update in place from the right so qt[j-1] still belongs to row i-1
			for j := m - 1; j > 0; j-- {
				qt[j] = qt[j-1] - sequence[i-1]*sequence[j-1] + sequence[i+window-1]*sequence[j+window-1]
			}
			qt[0] = floats.Dot(sequence[i:i+window], sequence[0:window])
		}

		best, bestIdx := math.Inf(1), -1
		for j := 0; j < m; j++ {
			if abs(i-j) < sep {
				continue
			}
			d := distance(window, qt[j], ws.mean[i], ws.mean[j], ws.std[i], ws.std[j])
			if d < best {
				best, bestIdx = d, j
			}
		}
		p.Values[i] = best
		p.Indices[i] = bestIdx
	}
}

// distance is the z-normalized euclidean distance derived from the dot product qt.
func distance(window int, qt, meanA, meanB, stdA, stdB float64) float64 {
	w := float64(window)
	switch {
	case stdA == 0 && stdB == 0:
		return 0
	case stdA == 0 || stdB == 0:
		return math.Sqrt(w)
	}
	corr := (qt - w*meanA*meanB) / (w * stdA * stdB)
	if corr > 1-corrEps {
		return 0
	}
	d := 2 * w * (1 - corr)
	if d < 0 {
		return 0
	}
	return math.Sqrt(d)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// MaxDistance is the largest z-normalized distance two subsequences of window points can have.
func MaxDistance(window int) float64 {
	return 2 * math.Sqrt(float64(window))
}
