/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logformat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
)

func TestSplitOpenSSH(t *testing.T) {
	p, ok := PresetByName("OpenSSH")
	require.True(t, ok)
	f, err := Compile(p.Layout)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Day", "Time", "Component", "Pid", "Content"}, f.Headers)

	fields, err := f.Split("Dec 10 06:55:46 LabSZ sshd[24200]: reverse mapping checking getaddrinfo for ns.example.com [173.234.31.186] failed - POSSIBLE BREAK-IN ATTEMPT!")
	require.NoError(t, err)
	assert.Equal(t, "Dec", fields["Date"])
	assert.Equal(t, "10", fields["Day"])
	assert.Equal(t, "06:55:46", fields["Time"])
	assert.Equal(t, "LabSZ", fields["Component"])
	assert.Equal(t, "24200", fields.Pid())
	assert.Equal(t, "reverse mapping checking getaddrinfo for ns.example.com [173.234.31.186] failed - POSSIBLE BREAK-IN ATTEMPT!", fields.Content())
	assert.Equal(t, "Dec 10 06:55:46", f.TimeText(fields))
}

func TestSplitHDFS(t *testing.T) {
	f, err := Compile(DefaultLayout)
	require.NoError(t, err)

	fields, err := f.Split("081109 203615 148 INFO dfs.DataNode$PacketResponder: PacketResponder 1 for block blk_38865049064139660 terminating")
	require.NoError(t, err)
	assert.Equal(t, "148", fields.Pid())
	assert.Equal(t, "INFO", fields["Level"])
	assert.Equal(t, "dfs.DataNode$PacketResponder", fields["Component"])
	assert.Equal(t, "PacketResponder 1 for block blk_38865049064139660 terminating", fields.Content())
	assert.Equal(t, "081109 203615", f.TimeText(fields))

	_, err = f.Split("garbage")
	assert.True(t, errors.Is(err, ErrNotMatched))
}

func TestOptionalGroup(t *testing.T) {
	p, _ := PresetByName("Linux")
	f, err := Compile(p.Layout)
	require.NoError(t, err)

	fields, err := f.Split("Jun 14 15:16:01 combo sshd(pam_unix)[19939]: authentication failure; logname= uid=0")
	require.NoError(t, err)
	assert.Equal(t, "19939", fields.Pid())
	assert.Equal(t, "authentication failure; logname= uid=0", fields.Content())
}

func TestCompileErrors(t *testing.T) {
	for _, layout := range []string{"", "<Date> <Time>", "<Bad-Name> <Content>", "<Date> ( <Content>"} {
		_, err := Compile(layout)
		assert.True(t, errors.Is(err, ErrBadLayout), layout)
	}
}

func TestPresetFor(t *testing.T) {
	{
		p, ok := PresetFor("OpenSSH_2k.log")
		assert.True(t, ok)
		assert.Equal(t, "OpenSSH", p.Name)
	}
	{
		p, ok := PresetFor("/data/HDFS.log")
		assert.True(t, ok)
		assert.Equal(t, "HDFS", p.Name)
	}
	{
		_, ok := PresetFor("SparkFoo.log")
		assert.False(t, ok)
		_, ok = PresetFor("app.log")
		assert.False(t, ok)
	}
}

func TestPresetsCompile(t *testing.T) {
	for _, p := range Presets {
		_, err := Compile(p.Layout)
		assert.NoError(t, err, p.Name)
		_, err = logminer.New(p.MinerConfig())
		assert.NoError(t, err, p.Name)
	}
}

func TestMinerConfig(t *testing.T) {
	p, _ := PresetByName("HDFS")
	c := p.MinerConfig()
	assert.Equal(t, 4, c.Depth)
	assert.Equal(t, 0.5, c.SimThreshold)
	require.Len(t, c.Masking, 2)
	assert.Equal(t, `blk_-?\d+`, c.Masking[0].Pattern)
}
