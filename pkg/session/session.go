/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package session orchestrates one analysis: mining raw lines into records, filtering them,
// profiling the event sequence and packaging context windows around the findings.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/filterexpr"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logformat"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logger"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/matrixprofile"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/metrics"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/timeparser"
)

const (
	dropFormat = "format"
	dropEmpty  = "empty"
)

type (
	// Stats counts what happened while loading and filtering.
	Stats struct {
		Lines      int    `json:"lines" yaml:"lines"`
		Records    int    `json:"records" yaml:"records"`
		Active     int    `json:"active" yaml:"active"`
		Dropped    int    `json:"dropped" yaml:"dropped"`
		FormatMiss int    `json:"formatMiss" yaml:"formatMiss"`
		EmptyLines int    `json:"emptyLines" yaml:"emptyLines"`
		// Misaligned records are kept but carry no parameters
		Misaligned int    `json:"misaligned" yaml:"misaligned"`
		TimeMiss   int    `json:"timeMiss" yaml:"timeMiss"`
		Clusters   int    `json:"clusters" yaml:"clusters"`
		Filtered   int    `json:"filtered" yaml:"filtered"`
		ProfileErr string `json:"profileError,omitempty" yaml:"profileError,omitempty"`
	}

	Option func(*Session)

	// Session is an explicit analysis context. Its methods are safe for concurrent use,
	// but the state machine decides which of them are legal at a time.
	Session struct {
		Id     string
		config Config

		mutex   sync.RWMutex
		state   State
		err     error
		format  *logformat.Format
		miner   *logminer.Miner
		metrics *metrics.Metrics

		records []*model.LogRecord
		// active is records after filtering
		active []*model.LogRecord
		filter *filterexpr.Filter

		profiles   []*matrixprofile.DistanceProfile
		discords   []matrixprofile.Discord
		motifs     []matrixprofile.Motif
		profileErr error
		stats      Stats
	}

	// pending is a line between mining and record assembly
	pending struct {
		lineId  int
		line    string
		content string
		fields  logformat.Fields
		cluster int
	}
)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New creates an Idle session. Bad layouts and masking rules fail here.
func New(config Config, opts ...Option) (*Session, error) {
	s := &Session{
		Id:     uuid.New().String(),
		config: config,
		state:  Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.config.Location == nil {
		s.config.Location = time.Local
	}
	if config.Layout != "" {
		f, err := logformat.Compile(config.Layout)
		if err != nil {
			return nil, err
		}
		s.format = f
	}
	miner, err := logminer.New(config.Miner)
	if err != nil {
		return nil, err
	}
	s.miner = miner
	return s, nil
}

func (s *Session) State() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// Err is the failure that moved the session to Error.
func (s *Session) Err() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.err
}

func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Session) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	st := s.stats
	st.Active = len(s.active)
	if s.profileErr != nil {
		st.ProfileErr = s.profileErr.Error()
	}
	return st
}

// Records returns the records in scope: all loaded ones, or the filtered subset.
func (s *Session) Records() []*model.LogRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.active
}

func (s *Session) Clusters() []*logminer.TemplateCluster {
	return s.miner.Clusters()
}

func illegal(op string, state State) error {
	return fmt.Errorf("%w: %s on %s session", ErrIllegalState, op, state)
}

// LoadLines mines raw lines into records. Lines that match no format or have no tokens are counted
// and skipped. Lines whose parameters cannot be extracted keep their event id with empty parameters.
// LineId is the 1-based line number.
func (s *Session) LoadLines(ctx context.Context, lines []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Idle {
		return illegal("LoadLines", s.state)
	}

	s.stats.Lines = len(lines)
	var ps []*pending
	for i, line := range lines {
		p := &pending{lineId: i + 1, line: line, content: line}
		if s.format != nil {
			fields, err := s.format.Split(line)
			if err != nil {
				s.drop(dropFormat, p, err)
				continue
			}
			p.fields = fields
			p.content = fields.Content()
		}
		ps = append(ps, p)
	}

	if err := s.mine(ctx, ps); err != nil {
		return s.fail(err)
	}

	parser := timeparser.NewParser(s.config.Location, s.config.DefaultYear)
	records := make([]*model.LogRecord, 0, len(ps))
	for _, p := range ps {
		if p.cluster == 0 {
			continue
		}
		r, err := s.assemble(p, parser)
		if err != nil {
			return s.fail(err)
		}
		records = append(records, r)
	}

	s.records = records
	s.active = records
	s.stats.Records = len(records)
	s.stats.Clusters = s.miner.ClusterCount()
	s.metrics.LinesIngested.Add(float64(len(records)))
	s.metrics.Clusters.Set(float64(s.stats.Clusters))
	s.state = Loaded

	logger.Statz("[session] lines loaded",
		zap.String("session", s.Id),
		zap.Int("lines", len(lines)),
		zap.Int("records", len(records)),
		zap.Int("dropped", s.stats.Dropped),
		zap.Int("misaligned", s.stats.Misaligned),
		zap.Int("clusters", s.stats.Clusters))
	return nil
}

// mine assigns a cluster to every pending line, single threaded unless MinerWorkers > 1.
func (s *Session) mine(ctx context.Context, ps []*pending) error {
	if s.config.MinerWorkers > 1 {
		contents := make([]string, len(ps))
		for i, p := range ps {
			contents[i] = p.content
		}
		result, err := logminer.IngestPartitioned(ctx, s.config.Miner, contents, s.config.MinerWorkers)
		if err != nil {
			return err
		}
		s.miner = result.Miner
		for i, l := range result.Lines {
			if l.Err != nil {
				s.drop(dropEmpty, ps[i], l.Err)
				continue
			}
			ps[i].cluster = l.ClusterId
		}
		return nil
	}

	for i, p := range ps {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		a, err := s.miner.Ingest(p.content)
		if err != nil {
			s.drop(dropEmpty, p, err)
			continue
		}
		p.cluster = a.ClusterId
	}
	return nil
}

// assemble builds the record of a mined line with the final template of its cluster.
func (s *Session) assemble(p *pending, parser *timeparser.Parser) (*model.LogRecord, error) {
	c, ok := s.miner.Cluster(p.cluster)
	if !ok {
		return nil, fmt.Errorf("unknown cluster %d", p.cluster)
	}
	params, err := s.miner.ParameterValues(c.Template, p.content)
	if err != nil {
		s.stats.Misaligned++
		logger.Debugz("[session] no parameters", zap.Int("lineId", p.lineId), zap.Error(err))
	}

	r := &model.LogRecord{
		LineId:        p.lineId,
		Content:       p.content,
		EventId:       model.FormatEventId(c.Id),
		EventTemplate: c.TemplateString(),
		Parameters:    params,
	}

	timeText := p.line
	if p.fields != nil {
		r.Component = p.fields[logformat.HeaderComponent]
		r.Level = p.fields[logformat.HeaderLevel]
		r.Pid = cast.ToInt(p.fields.Pid())
		timeText = s.format.TimeText(p.fields)
	}
	if t, err := parser.Parse(timeText); err == nil {
		r.Timestamp = t
	} else {
		s.stats.TimeMiss++
		logger.Debugz("[session] no timestamp", zap.Int("lineId", p.lineId), zap.Error(err))
	}
	return r, nil
}

func (s *Session) drop(reason string, p *pending, err error) {
	s.stats.Dropped++
	switch reason {
	case dropFormat:
		s.stats.FormatMiss++
	case dropEmpty:
		s.stats.EmptyLines++
	}
	s.metrics.LinesDropped.WithLabelValues(reason).Inc()
	logger.Debugz("[session] drop line",
		zap.String("session", s.Id),
		zap.String("reason", reason),
		zap.Int("lineId", p.lineId),
		zap.Error(err))
}

func (s *Session) fail(err error) error {
	s.state = Error
	s.err = err
	logger.Errorz("[session] fail", zap.String("session", s.Id), zap.Error(err))
	return err
}

// LoadRecords takes already structured records, e.g. from recordio.
// Records must be non nil and carry numeric event ids, otherwise the session moves to Error.
func (s *Session) LoadRecords(records []*model.LogRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != Idle {
		return illegal("LoadRecords", s.state)
	}

	for i, r := range records {
		if r == nil {
			return s.fail(fmt.Errorf("record %d is nil", i))
		}
		if _, err := r.EventNumber(); err != nil {
			return s.fail(fmt.Errorf("record %d: %w: %q", r.LineId, err, r.EventId))
		}
	}

	s.records = records
	s.active = records
	s.stats.Lines = len(records)
	s.stats.Records = len(records)
	s.metrics.LinesIngested.Add(float64(len(records)))
	s.state = Loaded
	logger.Infoz("[session] records loaded", zap.String("session", s.Id), zap.Int("records", len(records)))
	return nil
}

// ApplyFilter narrows the records in scope. An empty expression restores all loaded records.
// Compilation errors are returned before anything changes.
func (s *Session) ApplyFilter(expression string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.state.in(Loaded, Filtered, Ready) {
		return illegal("ApplyFilter", s.state)
	}

	s.resetFindings()
	if expression == "" {
		s.filter = nil
		s.active = s.records
		s.stats.Filtered = 0
		s.state = Filtered
		return nil
	}

	f, err := filterexpr.Compile(expression, filterexpr.WithLocation(s.config.Location))
	if err != nil {
		return err
	}
	if f.Unparsed != "" {
		logger.Warnz("[session] filter partially ignored",
			zap.String("session", s.Id),
			zap.String("expression", expression),
			zap.String("unparsed", f.Unparsed))
	}

	s.filter = f
	s.active = f.Select(s.records)
	s.stats.Filtered = len(s.records) - len(s.active)
	s.metrics.RecordsFiltered.Add(float64(s.stats.Filtered))
	s.state = Filtered
	logger.Infoz("[session] filter applied",
		zap.String("session", s.Id),
		zap.Stringer("filter", f),
		zap.Int("active", len(s.active)))
	return nil
}

func (s *Session) resetFindings() {
	s.profiles = nil
	s.discords = nil
	s.motifs = nil
	s.profileErr = nil
}

// EventSequence is the numeric event id of every record in scope.
func (s *Session) EventSequence() []float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return eventSequence(s.active)
}

func eventSequence(records []*model.LogRecord) []float64 {
	seq := make([]float64, len(records))
	for i, r := range records {
		n, _ := r.EventNumber()
		seq[i] = float64(n)
	}
	return seq
}

// Profile computes the matrix profiles of the event sequence and extracts discords and motifs.
// A profiler failure is recorded and leaves the session Ready with no findings.
func (s *Session) Profile(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.state.in(Loaded, Filtered) {
		return illegal("Profile", s.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	begin := time.Now()
	seq := eventSequence(s.active)
	windows := s.config.Windows
	if len(windows) == 0 {
		windows = []int{matrixprofile.DefaultWindow(len(seq))}
	}
	opts := []matrixprofile.Option{matrixprofile.WithExclusionZone(s.config.ExclusionZone)}
	if s.config.ProfileWorkers > 0 {
		opts = append(opts, matrixprofile.WithWorkers(s.config.ProfileWorkers))
	}

	profiles, err := matrixprofile.ComputeAll(seq, windows, opts...)
	s.metrics.ProfileDuration.Observe(time.Since(begin).Seconds())
	if err != nil {
		s.profileErr = err
		s.metrics.ProfileFailures.WithLabelValues(failureReason(err)).Inc()
		logger.Warnz("[session] no profile",
			zap.String("session", s.Id),
			zap.Int("points", len(seq)),
			zap.Ints("windows", windows),
			zap.Error(err))
		s.state = Ready
		return nil
	}
	s.profiles = profiles
	s.state = Profiled

	var motifOpts []matrixprofile.Option
	if s.config.MotifCutoff >= 0 {
		motifOpts = append(motifOpts, matrixprofile.WithMotifCutoff(s.config.MotifCutoff))
	}
	for _, p := range profiles {
		s.discords = append(s.discords, matrixprofile.GetDiscords(p, s.config.DiscordK)...)
		s.motifs = append(s.motifs, matrixprofile.GetMotifs(p, s.config.MotifK, motifOpts...)...)
	}
	s.metrics.Findings.WithLabelValues(string(KindDiscord)).Add(float64(len(s.discords)))
	s.metrics.Findings.WithLabelValues(string(KindMotif)).Add(float64(len(s.motifs)))
	s.state = Ready

	logger.Statz("[session] profiled",
		zap.String("session", s.Id),
		zap.Int("points", len(seq)),
		zap.Int("profiles", len(profiles)),
		zap.Int("discords", len(s.discords)),
		zap.Int("motifs", len(s.motifs)),
		zap.Duration("cost", time.Since(begin)))
	return nil
}

// ProfileErr is the failure of the last Profile call, nil when it produced profiles.
func (s *Session) ProfileErr() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.profileErr
}

func (s *Session) Profiles() []*matrixprofile.DistanceProfile {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.profiles
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, matrixprofile.ErrEmptySequence):
		return "empty_sequence"
	case errors.Is(err, matrixprofile.ErrTooFewPoints):
		return "too_few_points"
	case errors.Is(err, matrixprofile.ErrWindowTooSmall):
		return "window_too_small"
	case errors.Is(err, matrixprofile.ErrDegenerateSequence):
		return "degenerate_sequence"
	}
	return "other"
}
