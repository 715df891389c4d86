/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/appconfig"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logger"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/metrics"
)

type (
	globalFlags struct {
		config  string
		debug   bool
		logDir  string
		output  string
		metrics bool
	}
)

func bootstrap(args []string) error {
	defer logger.Sync()
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "logprofiler",
		Short:         "Mine log templates and find anomalies in the event sequence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(g)
		},
	}
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "config file (yaml or toml), defaults to logprofiler.yaml or conf/logprofiler.yaml")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logs")
	root.PersistentFlags().StringVar(&g.logDir, "log-dir", "", "write logs to files in this directory instead of stderr")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "yaml", "report format (yaml, json)")
	root.PersistentFlags().BoolVar(&g.metrics, "metrics", false, "print metrics in prometheus text format to stderr when done")

	root.AddCommand(newMineCmd(g), newAnalyzeCmd(g), newVersionCmd(g))
	return root
}

func setup(g *globalFlags) error {
	if err := appconfig.SetupAppConfig(g.config); err != nil {
		return err
	}
	c := &appconfig.StdConfig
	if g.logDir != "" {
		c.Log.Dir = g.logDir
	}
	if g.debug {
		c.Log.Debug = true
	}
	logger.DebugEnabled = c.Log.Debug
	if err := logger.SetupZapLogger(c.Log.Dir); err != nil {
		return errors.Wrap(err, "setup logger")
	}
	logger.Configz("[bootstrap] config", zap.Any("config", c))
	return nil
}

func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	case "yaml", "":
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	return errors.Errorf("unknown output format %q", format)
}

func dumpMetrics(g *globalFlags, m *metrics.Metrics) {
	if !g.metrics || m == nil {
		return
	}
	if err := m.WriteText(os.Stderr); err != nil {
		logger.Warnz("[metrics] dump error", zap.Error(err))
	}
}

func newVersionCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), g.output, appconfig.VersionInfo())
		},
	}
}
