/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logminer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiner(t *testing.T, config Config) *Miner {
	m, err := New(config)
	require.NoError(t, err)
	return m
}

func TestIngestIdempotent(t *testing.T) {
	m := newTestMiner(t, DefaultConfig())

	a, err := m.Ingest("connected to server alpha")
	assert.NoError(t, err)
	assert.Equal(t, 1, a.ClusterId)
	assert.Equal(t, ChangeClusterCreated, a.Change)

	for i := 2; i <= 4; i++ {
		a, err = m.Ingest("connected to server alpha")
		assert.NoError(t, err)
		assert.Equal(t, 1, a.ClusterId)
		assert.Equal(t, ChangeNone, a.Change)
		c, ok := m.Cluster(1)
		assert.True(t, ok)
		assert.Equal(t, i, c.SeenCount)
	}
	assert.Equal(t, 1, m.ClusterCount())
}

func TestIngestMerge(t *testing.T) {
	m := newTestMiner(t, DefaultConfig())

	_, err := m.Ingest("user alice logged in")
	assert.NoError(t, err)

	a, err := m.Ingest("user bob logged in")
	assert.NoError(t, err)
	assert.Equal(t, 1, a.ClusterId)
	assert.Equal(t, ChangeTemplateChanged, a.Change)
	assert.Equal(t, "user <*> logged in", a.Template)

	a, err = m.Ingest("user carol logged in")
	assert.NoError(t, err)
	assert.Equal(t, ChangeNone, a.Change)

	// a different token count never joins
	a, err = m.Ingest("user dave logged in twice")
	assert.NoError(t, err)
	assert.Equal(t, 2, a.ClusterId)

	clusters := m.Clusters()
	assert.Len(t, clusters, 2)
	assert.Equal(t, 3, clusters[0].SeenCount)
	assert.Equal(t, 1, clusters[1].SeenCount)

	// returned clusters are copies
	clusters[0].Template[0] = "changed"
	c, _ := m.Cluster(1)
	assert.Equal(t, "user", c.Template[0])
}

func TestNumericPrefixGoesThroughWildcard(t *testing.T) {
	m := newTestMiner(t, DefaultConfig())

	_, err := m.Ingest("123 items processed")
	assert.NoError(t, err)
	a, err := m.Ingest("456 items processed")
	assert.NoError(t, err)
	assert.Equal(t, 1, a.ClusterId)
	assert.Equal(t, []string{Wildcard, "items", "processed"}, a.TemplateTokens)
}

func TestMaxChildren(t *testing.T) {
	config := DefaultConfig()
	config.MaxChildren = 2
	m := newTestMiner(t, config)

	for _, line := range []string{"a one", "b one", "c one"} {
		_, err := m.Ingest(line)
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, m.ClusterCount())
	c, _ := m.Cluster(2)
	assert.Equal(t, "<*> one", c.TemplateString())
	assert.Equal(t, 2, c.SeenCount)
}

func TestSearchTiesGoToLowerId(t *testing.T) {
	config := DefaultConfig()
	config.SimThreshold = 0.9
	m := newTestMiner(t, config)

	_, err := m.Ingest("a b c d")
	assert.NoError(t, err)
	_, err = m.Ingest("a x y z")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.ClusterCount())

	c := m.search(strings.Fields("a b y w"), 0.5)
	if assert.NotNil(t, c) {
		assert.Equal(t, 1, c.Id)
	}
}

func TestMatch(t *testing.T) {
	m := newTestMiner(t, DefaultConfig())
	_, err := m.Ingest("user alice logged in")
	assert.NoError(t, err)

	_, ok := m.Match("user zed logged in")
	assert.False(t, ok)

	_, err = m.Ingest("user bob logged in")
	assert.NoError(t, err)

	c, ok := m.Match("user zed logged in")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Id)
	assert.Equal(t, 2, c.SeenCount)

	_, ok = m.Match("")
	assert.False(t, ok)
}

func TestIngestEmptyLine(t *testing.T) {
	m := newTestMiner(t, DefaultConfig())
	_, err := m.Ingest("   \t ")
	assert.True(t, errors.Is(err, ErrAlignment))

	var ae *AlignmentError
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, "no tokens", ae.Reason)
	assert.Equal(t, 0, m.ClusterCount())
}

func TestMaskingAndParameters(t *testing.T) {
	config := DefaultConfig()
	config.Masking = []MaskRule{
		{Pattern: `(\d{1,3}\.){3}\d{1,3}`, MaskWith: "IP"},
	}
	m := newTestMiner(t, config)

	a, err := m.Ingest("connect from 10.0.0.1 port 22")
	assert.NoError(t, err)
	assert.Equal(t, "connect from <IP> port 22", a.CleanedLine)

	a, err = m.Ingest("connect from 10.0.0.2 port 2222")
	assert.NoError(t, err)
	assert.Equal(t, 1, a.ClusterId)
	assert.Equal(t, "connect from <IP> port <*>", a.Template)

	params, err := m.ExtractParameters(a.TemplateTokens, "connect from 192.168.1.9 port 80")
	assert.NoError(t, err)
	assert.Equal(t, []Parameter{
		{Position: 2, Key: "IP", Value: "192.168.1.9"},
		{Position: 4, Key: "*", Value: "80"},
	}, params)
}

func TestPartiallyMaskedToken(t *testing.T) {
	config := DefaultConfig()
	config.Masking = []MaskRule{{Pattern: `\d+`, MaskWith: "NUM"}}
	m := newTestMiner(t, config)

	a, err := m.Ingest("Receiving block blk_3587 src")
	assert.NoError(t, err)
	assert.Equal(t, "Receiving block blk_<NUM> src", a.Template)

	values, err := m.ParameterValues(a.TemplateTokens, "Receiving block blk_3587 src")
	assert.NoError(t, err)
	assert.Equal(t, []string{"3587"}, values)

	_, err = m.ExtractParameters(a.TemplateTokens, "Receiving block rdd_3587 src")
	assert.True(t, errors.Is(err, ErrAlignment))
}

func TestExtractParametersAlignment(t *testing.T) {
	m := newTestMiner(t, DefaultConfig())

	{
		params, err := m.ExtractParameters([]string{"failed", "with", Wildcard}, "failed with disk full now")
		assert.NoError(t, err)
		assert.Equal(t, []Parameter{{Position: 2, Key: "*", Value: "disk full now"}}, params)
	}
	{
		_, err := m.ExtractParameters([]string{"a", "b"}, "a c")
		assert.True(t, errors.Is(err, ErrAlignment))
	}
	{
		_, err := m.ExtractParameters([]string{"a", "b", "c"}, "a b")
		assert.True(t, errors.Is(err, ErrAlignment))
	}
	{
		_, err := m.ExtractParameters([]string{"a", "b"}, "a b c")
		assert.True(t, errors.Is(err, ErrAlignment))
	}
	{
		params, err := m.ExtractParameters([]string{"a", "b"}, "a b")
		assert.NoError(t, err)
		assert.Empty(t, params)
	}
}

func TestParametersAfterWhitespaceMask(t *testing.T) {
	config := DefaultConfig()
	config.Masking = []MaskRule{{Pattern: `/.+?\s`, MaskWith: "*"}, {Pattern: `\d+`, MaskWith: "*"}}
	m := newTestMiner(t, config)

	a, err := m.Ingest("GET /v2/abc/servers HTTP status 200")
	require.NoError(t, err)
	assert.Equal(t, "GET <*>HTTP status <*>", a.Template)

	params, err := m.ExtractParameters(a.TemplateTokens, "GET /v2/abc/servers HTTP status 200")
	assert.NoError(t, err)
	assert.Equal(t, []Parameter{
		{Position: 1, Key: "*", Value: "/v2/abc/servers "},
		{Position: 3, Key: "*", Value: "200"},
	}, params)

	_, err = m.ExtractParameters(a.TemplateTokens, "POST /v2/abc/servers HTTP status 200")
	assert.True(t, errors.Is(err, ErrAlignment))
}

func TestExtraDelimiters(t *testing.T) {
	config := DefaultConfig()
	config.ExtraDelimiters = []string{"=", ","}
	m := newTestMiner(t, config)

	a, err := m.Ingest("size=10,name=x")
	assert.NoError(t, err)
	assert.Equal(t, []string{"size", "10", "name", "x"}, a.TemplateTokens)
}

func TestBadMaskingPattern(t *testing.T) {
	config := DefaultConfig()
	config.Masking = []MaskRule{{Pattern: `(`, MaskWith: "X"}}
	_, err := New(config)
	assert.Error(t, err)
}

func TestIngestPartitioned(t *testing.T) {
	lines := []string{
		"user alice logged in",
		"user bob logged in",
		"disk full",
		"user carol logged in",
		"disk full",
		"   ",
	}
	p, err := IngestPartitioned(context.Background(), DefaultConfig(), lines, 2)
	require.NoError(t, err)
	require.Len(t, p.Lines, len(lines))

	ids := make([]int, len(lines))
	for i, l := range p.Lines {
		ids[i] = l.ClusterId
	}
	assert.Equal(t, []int{1, 1, 2, 1, 2, 0}, ids)
	assert.True(t, errors.Is(p.Lines[5].Err, ErrAlignment))

	clusters := p.Miner.Clusters()
	assert.Len(t, clusters, 2)
	assert.Equal(t, "user <*> logged in", clusters[0].TemplateString())
	assert.Equal(t, 3, clusters[0].SeenCount)
	assert.Equal(t, 2, clusters[1].SeenCount)
}

func TestIngestPartitionedMatchesSingleThread(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "worker "+strings.Repeat("x", i%3+1)+" finished job")
		lines = append(lines, "heartbeat ok")
	}
	p, err := IngestPartitioned(context.Background(), DefaultConfig(), lines, 4)
	require.NoError(t, err)

	single := newTestMiner(t, DefaultConfig())
	for _, line := range lines {
		_, err := single.Ingest(line)
		assert.NoError(t, err)
	}
	assert.Equal(t, single.ClusterCount(), p.Miner.ClusterCount())
	for _, l := range p.Lines {
		assert.NotZero(t, l.ClusterId)
	}
}

func TestIngestPartitionedErrors(t *testing.T) {
	config := DefaultConfig()
	config.Masking = []MaskRule{{Pattern: `(`, MaskWith: "X"}}
	p, err := IngestPartitioned(context.Background(), config, []string{"a b", "c d"}, 2)
	assert.Error(t, err)
	assert.Nil(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = IngestPartitioned(ctx, DefaultConfig(), []string{"a b", "c d"}, 2)
	assert.True(t, errors.Is(err, context.Canceled))
}
