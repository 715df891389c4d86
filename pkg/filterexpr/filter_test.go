/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package filterexpr

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
	"testing"
	"time"
)

func sampleRecords() []*model.LogRecord {
	day := func(d int) time.Time {
		return time.Date(2016, 3, d, 10, 0, 0, 0, time.UTC)
	}
	return []*model.LogRecord{
		{LineId: 100, Pid: 24287, Content: "A", Timestamp: day(1), Component: "sshd"},
		{LineId: 150, Pid: 24287, Content: "B from 172.192.18.23", Timestamp: day(2), Component: "sshd"},
		{LineId: 130, Pid: 12345, Content: "C", Timestamp: day(3), Component: "kernel"},
		{LineId: 140, Pid: 56789, Content: "D", Timestamp: day(4), Component: "sshd"},
		{LineId: 160, Pid: 12345, Content: "E", Timestamp: day(5), Component: "cron"},
	}
}

func lineIds(records []*model.LogRecord) []int {
	ret := make([]int, 0, len(records))
	for _, r := range records {
		ret = append(ret, r.LineId)
	}
	return ret
}

func TestEmptyExpressionSelectsNothing(t *testing.T) {
	f, err := Compile("")
	require.NoError(t, err)
	assert.Empty(t, f.Comparisons)
	assert.Empty(t, f.Select(sampleRecords()))

	f, err = CompileStrict("   ")
	require.NoError(t, err)
	assert.Empty(t, f.Select(sampleRecords()))
}

func TestEquality(t *testing.T) {
	f, err := Compile("Pid==24287")
	require.NoError(t, err)
	assert.Equal(t, []int{100, 150}, lineIds(f.Select(sampleRecords())))

	f, err = Compile("Component == 'kernel'")
	require.NoError(t, err)
	assert.Equal(t, []int{130}, lineIds(f.Select(sampleRecords())))
}

func TestAndRange(t *testing.T) {
	f, err := Compile("LineId > 120 && LineId < 160")
	require.NoError(t, err)
	assert.Equal(t, And, f.Combinator)
	assert.Len(t, f.Comparisons, 2)
	assert.Equal(t, []int{150, 130, 140}, lineIds(f.Select(sampleRecords())))
}

func TestOr(t *testing.T) {
	f, err := Compile("172.192.18.23 in Content || Pid == 12345")
	require.NoError(t, err)
	assert.Equal(t, Or, f.Combinator)
	assert.Equal(t, OpIn, f.Comparisons[0].Op)
	assert.Equal(t, []int{150, 130, 160}, lineIds(f.Select(sampleRecords())))
}

func TestMixedConnectivesAreAllAnd(t *testing.T) {
	// any '&&' switches every connective to AND
	f, err := Compile("LineId > 120 && LineId < 160 || Pid == 24287")
	require.NoError(t, err)
	assert.Equal(t, []int{150}, lineIds(f.Select(sampleRecords())))
	assert.Equal(t, []bool{false, true, false, false, false}, f.Mask(sampleRecords()))
}

func TestUnknownFieldAndTypeMismatch(t *testing.T) {
	_, err := Compile("Foo == 1")
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = Compile("x in Nope")
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = Compile("Pid == abc")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = Compile("TimeFull > yesterday")
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestStopsAtUnrecognizedCondition(t *testing.T) {
	f, err := Compile("Pid == 24287 || garbage || LineId > 0")
	require.NoError(t, err)
	assert.Len(t, f.Comparisons, 1)
	assert.Equal(t, "garbage | LineId > 0", f.Unparsed)
	assert.Equal(t, []int{100, 150}, lineIds(f.Select(sampleRecords())))

	_, err = CompileStrict("Pid == 24287 || garbage")
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "garbage", pe.Text)
}

func TestTimeComparison(t *testing.T) {
	f, err := Compile("TimeFull > 03-03-2016", WithLocation(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []int{130, 140, 160}, lineIds(f.Select(sampleRecords())))

	f, err = Compile("03-2016 in TimeFull")
	require.NoError(t, err)
	assert.Len(t, f.Select(sampleRecords()), 5)
}

func TestLexicalComparison(t *testing.T) {
	f, err := Compile("Component < l")
	require.NoError(t, err)
	assert.Equal(t, []int{130, 160}, lineIds(f.Select(sampleRecords())))
	assert.Equal(t, "Component < l", f.String())
}
