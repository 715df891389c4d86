/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/appconfig"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logger"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/metrics"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/session"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newSession builds a session for filename from the global app config.
func newSession(c appconfig.Config, filename string) (*session.Session, error) {
	sc, err := sessionConfig(c, filename)
	if err != nil {
		return nil, err
	}
	return session.New(sc, session.WithMetrics(metrics.New()))
}

func newMineCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine <logfile>",
		Short: "Parse a raw log file into structured records with event templates",
		Long: `Parses every line with the format layout, mines event templates and
writes the structured records as csv. Lines that do not match the layout are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			filename := args[0]
			c := appconfig.StdConfig

			s, err := newSession(c, filename)
			if err != nil {
				return err
			}
			defer dumpMetrics(g, s.Metrics())

			ctx, cancel := signalContext()
			defer cancel()
			loc, err := location(c)
			if err != nil {
				return err
			}
			if err := load(ctx, s, filename, c, loc); err != nil {
				return err
			}
			stats := s.Stats()
			logger.Statz("[mine] done", zap.Int("records", stats.Records), zap.Int("dropped", stats.Dropped), zap.Int("clusters", stats.Clusters))

			if out == "" {
				return errors.Wrap(writeRecordsTo(cmd.OutOrStdout(), s.Records()), "write records")
			}
			return writeRecords(out, s.Records())
		},
	}
	cmd.Flags().String("out", "", "write the structured csv to this file instead of stdout")
	return cmd
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <logfile|csv>",
		Short: "Profile the event sequence of a log and report discords and motifs",
		Long: `Loads a raw log file (or a structured csv written by 'mine'), optionally narrows
it with a filter expression such as "Pid == 24200 && Level == 'INFO'", computes the
matrix profile of the event id sequence and prints the findings with their context.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			windows, _ := cmd.Flags().GetIntSlice("window")
			k, _ := cmd.Flags().GetInt("k")
			templates, _ := cmd.Flags().GetBool("templates")
			filename := args[0]

			c := appconfig.StdConfig
			if len(windows) > 0 {
				c.Profile.Windows = windows
			}
			if k > 0 {
				c.Profile.DiscordK = k
				c.Profile.MotifK = k
			}
			if filter == "" {
				filter = c.Session.Filter
			}

			s, err := newSession(c, filename)
			if err != nil {
				return err
			}
			defer dumpMetrics(g, s.Metrics())

			ctx, cancel := signalContext()
			defer cancel()
			loc, err := location(c)
			if err != nil {
				return err
			}
			if err := load(ctx, s, filename, c, loc); err != nil {
				return err
			}
			if filter != "" {
				if err := s.ApplyFilter(filter); err != nil {
					return err
				}
			}
			if err := s.Profile(ctx); err != nil {
				return err
			}
			if perr := s.ProfileErr(); perr != nil {
				logger.Warnz("[analyze] profile degraded", zap.Error(perr))
			}
			return render(cmd.OutOrStdout(), g.output, s.Report(templates))
		},
	}
	cmd.Flags().String("filter", "", "filter expression applied before profiling")
	cmd.Flags().IntSlice("window", nil, "subsequence window sizes, repeatable")
	cmd.Flags().Int("k", 0, "number of discords and motifs per window")
	cmd.Flags().Bool("templates", false, "include mined templates in the report")
	return cmd
}
