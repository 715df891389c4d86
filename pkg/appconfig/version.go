/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package appconfig

import (
	"runtime"
	"time"
)

// set by -ldflags
var (
	appVersion   string
	appBuildTime string
	gitcommit    string
)

var uptime = time.Now()

func VersionInfo() map[string]interface{} {
	return map[string]interface{}{
		"goversion": runtime.Version(),
		"version":   appVersion,
		"buildTime": appBuildTime,
		"commit":    gitcommit,
		"uptime":    uptime.Format(time.RFC3339),
	}
}
