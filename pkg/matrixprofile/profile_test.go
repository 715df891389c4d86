/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package matrixprofile

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenario = []float64{1, 2, 1, 2, 1, 2, 1, 2, 9, 9, 1, 2, 1, 2}

// naive recomputes the profile with explicit z-normalization of every pair
func naive(sequence []float64, window, zone int) ([]float64, []int) {
	m := len(sequence) - window + 1
	norm := func(x []float64) ([]float64, bool) {
		mean, sd := 0.0, 0.0
		for _, v := range x {
			mean += v
		}
		mean /= float64(len(x))
		for _, v := range x {
			sd += (v - mean) * (v - mean)
		}
		sd = math.Sqrt(sd / float64(len(x)))
		if sd < constantEps {
			return nil, true
		}
		ret := make([]float64, len(x))
		for i, v := range x {
			ret[i] = (v - mean) / sd
		}
		return ret, false
	}
	sep := zone
	if sep < 1 {
		sep = 1
	}
	values := make([]float64, m)
	indices := make([]int, m)
	for i := 0; i < m; i++ {
		values[i], indices[i] = math.Inf(1), -1
		a, ca := norm(sequence[i : i+window])
		for j := 0; j < m; j++ {
			if abs(i-j) < sep {
				continue
			}
			b, cb := norm(sequence[j : j+window])
			var d float64
			switch {
			case ca && cb:
				d = 0
			case ca || cb:
				d = math.Sqrt(float64(window))
			default:
				for k := range a {
					d += (a[k] - b[k]) * (a[k] - b[k])
				}
				d = math.Sqrt(d)
			}
			if d < values[i] {
				values[i], indices[i] = d, j
			}
		}
	}
	return values, indices
}

func randomSequence(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(r.Intn(12) + 1)
	}
	return s
}

func TestComputeScenario(t *testing.T) {
	p, err := Compute(scenario, 3)
	require.NoError(t, err)
	assert.Len(t, p.Values, len(scenario)-3+1)
	assert.Equal(t, 1, p.ExclusionZone)

	assert.InDelta(t, math.Sqrt(3), p.Values[8], 1e-6)
	for _, i := range []int{6, 7, 9} {
		assert.InDelta(t, 1.5568, p.Values[i], 1e-3)
	}
	for _, i := range []int{0, 1, 2, 3, 4, 5, 10, 11} {
		assert.InDelta(t, 0, p.Values[i], 1e-6)
	}

	discords := GetDiscords(p, 2)
	require.Len(t, discords, 2)
	assert.Equal(t, 8, discords[0].Index)
	assert.Equal(t, 6, discords[1].Index)
	assert.Equal(t, 3, discords[0].WindowSize)

	motifs := GetMotifs(p, 4)
	require.NotEmpty(t, motifs)
	assert.Equal(t, [2]int{0, 2}, motifs[0].Pair)
	assert.InDelta(t, 0, motifs[0].Distance, 1e-6)
	for _, m := range motifs {
		assert.True(t, m.Pair[0] < m.Pair[1])
		assert.True(t, m.Pair[1] < len(p.Values))
		assert.True(t, m.Distance <= math.Sqrt(3)+1e-9)
	}
}

func TestComputeMatchesNaive(t *testing.T) {
	s := randomSequence(300, 7)
	for _, w := range []int{3, 5, 16} {
		p, err := Compute(s, w, WithWorkers(4))
		require.NoError(t, err)
		values, indices := naive(s, w, len(s)/10)
		assert.InDeltaSlice(t, values, p.Values, 1e-6)
		for i := range indices {
			// ties may resolve to a different neighbor through rounding, the distance must still agree
			if indices[i] != p.Indices[i] {
				assert.InDelta(t, values[i], p.Values[i], 1e-6)
			}
		}
	}
}

func TestComputeWorkersAgree(t *testing.T) {
	s := randomSequence(700, 3)
	single, err := Compute(s, 8, WithWorkers(1))
	require.NoError(t, err)
	parallel, err := Compute(s, 8, WithWorkers(8))
	require.NoError(t, err)
	assert.InDeltaSlice(t, single.Values, parallel.Values, 1e-9)
}

func TestProfileLength(t *testing.T) {
	for n := 4; n < 40; n += 5 {
		s := randomSequence(n, int64(n))
		for w := MinWindow; w < n; w++ {
			p, err := Compute(s, w)
			if errors.Is(err, ErrDegenerateSequence) {
				continue
			}
			require.NoError(t, err)
			assert.Len(t, p.Values, n-w+1)
			assert.Len(t, p.Indices, n-w+1)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	{
		_, err := Compute(nil, 3)
		assert.True(t, errors.Is(err, ErrEmptySequence))
	}
	{
		_, err := Compute([]float64{1, 2, 3}, 3)
		assert.True(t, errors.Is(err, ErrTooFewPoints))
	}
	{
		_, err := Compute(scenario, 2)
		assert.True(t, errors.Is(err, ErrWindowTooSmall))
		_, err = Compute(scenario, len(scenario))
		assert.True(t, errors.Is(err, ErrWindowTooSmall))
	}
	{
		_, err := Compute([]float64{5, 5, 5, 5, 5, 5}, 3)
		assert.True(t, errors.Is(err, ErrDegenerateSequence))
	}
}

func TestConstantSubsequences(t *testing.T) {
	s := []float64{3, 3, 3, 3, 1, 5, 2, 3, 3, 3, 3}
	p, err := Compute(s, 3, WithExclusionZone(0))
	require.NoError(t, err)
	// two constant runs are identical
	assert.InDelta(t, 0, p.Values[0], 1e-9)
	for _, v := range p.Values {
		assert.False(t, math.IsNaN(v))
	}
}

func TestComputeAll(t *testing.T) {
	{
		profiles, err := ComputeAll(scenario, []int{2, 3, 4, 20})
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, 3, profiles[0].WindowSize)
		assert.Equal(t, 4, profiles[1].WindowSize)
	}
	{
		_, err := ComputeAll(scenario, []int{1, 2})
		assert.True(t, errors.Is(err, ErrWindowTooSmall))
	}
	{
		_, err := ComputeAll(nil, []int{3})
		assert.True(t, errors.Is(err, ErrEmptySequence))
	}
}

func TestDiscordsSeparated(t *testing.T) {
	s := randomSequence(200, 11)
	p, err := Compute(s, 6)
	require.NoError(t, err)

	discords := GetDiscords(p, 3)
	require.Len(t, discords, 3)
	for i := range discords {
		for j := i + 1; j < len(discords); j++ {
			assert.Greater(t, abs(discords[i].Index-discords[j].Index), p.ExclusionZone)
			assert.GreaterOrEqual(t, discords[i].Distance, discords[j].Distance)
		}
	}

	assert.Empty(t, GetDiscords(p, 0))
	assert.Empty(t, GetDiscords(nil, 3))
}

func TestMotifCutoff(t *testing.T) {
	p, err := Compute(scenario, 3)
	require.NoError(t, err)

	motifs := GetMotifs(p, 4, WithMotifCutoff(0.1))
	for _, m := range motifs {
		assert.True(t, m.Distance <= 0.1)
	}
	assert.NotEmpty(t, motifs)
}

func TestDefaultWindow(t *testing.T) {
	assert.Equal(t, MinWindow, DefaultWindow(14))
	assert.Equal(t, 10, DefaultWindow(200))
	assert.Equal(t, 32, DefaultWindow(100000))
}
