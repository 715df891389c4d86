/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logger

import (
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupZapLogger(t *testing.T) {
	old := zapLogger
	defer func() { zapLogger = old }()

	dir := t.TempDir()
	assert.NoError(t, SetupZapLogger(dir))
	Infoz("[test] hello", zap.Int("n", 1))
	Sync()

	bs, err := os.ReadFile(filepath.Join(dir, "info.log"))
	assert.NoError(t, err)
	assert.Contains(t, string(bs), "[test] hello")
	assert.Contains(t, string(bs), "n")
}

func TestStatz(t *testing.T) {
	old := zapLogger
	defer func() { zapLogger = old }()

	dir := t.TempDir()
	assert.NoError(t, SetupZapLogger(dir))
	Statz("[stat] load", zap.Int("records", 42))
	Debugz("[test] hidden")
	Sync()

	bs, err := os.ReadFile(filepath.Join(dir, "stat.log"))
	assert.NoError(t, err)
	assert.Contains(t, string(bs), "[stat] load")
	assert.Contains(t, string(bs), "42")

	bs, err = os.ReadFile(filepath.Join(dir, "debug.log"))
	assert.NoError(t, err)
	assert.NotContains(t, string(bs), "[test] hidden")
}

func TestSetupZapLoggerConsole(t *testing.T) {
	old := zapLogger
	assert.NoError(t, SetupZapLogger(""))
	assert.Same(t, old, zapLogger)
}
