/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package session

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/logminer"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/matrixprofile"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
)

const (
	KindDiscord Kind = "discord"
	KindMotif   Kind = "motif"

	// DefaultPrompt precedes the context window text handed to a Summarizer.
	DefaultPrompt = "Can you summarize this log data in English? It is only a partial list of the log entries, " +
		"so keep that in mind when making statements about the entire dataset. Is this usual or unusual? Any patterns or anomalies?\n"
)

type (
	Kind string

	// Finding is a discord or motif with the records around it.
	Finding struct {
		Kind Kind `json:"kind" yaml:"kind"`
		// Index is the offset of a discord, or of the first occurrence of a motif
		Index      int                `json:"index" yaml:"index"`
		Pair       []int              `json:"pair,omitempty" yaml:"pair,omitempty"`
		Distance   float64            `json:"distance" yaml:"distance"`
		WindowSize int                `json:"windowSize" yaml:"windowSize"`
		Records    []*model.LogRecord `json:"records" yaml:"records"`
	}

	// Summarizer turns text into a summary, e.g. with a language model. It is an external collaborator.
	Summarizer interface {
		Summarize(ctx context.Context, text string) (string, error)
	}

	SummarizerFunc func(ctx context.Context, text string) (string, error)

	// Report is everything a finished session produced.
	Report struct {
		Id        string                      `json:"id" yaml:"id"`
		State     State                       `json:"state" yaml:"state"`
		Stats     Stats                       `json:"stats" yaml:"stats"`
		Filter    string                      `json:"filter,omitempty" yaml:"filter,omitempty"`
		Templates []*logminer.TemplateCluster `json:"templates,omitempty" yaml:"templates,omitempty"`
		Findings  []Finding                   `json:"findings" yaml:"findings"`
	}
)

func (f SummarizerFunc) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// ContextWindow returns records[index-window : index+window+1] clamped to the slice bounds,
// or records[index : index+window+1] when extendForward is set. It returns nil for an index out of range.
func ContextWindow(records []*model.LogRecord, index, window int, extendForward bool) []*model.LogRecord {
	if index < 0 || index >= len(records) {
		return nil
	}
	if window < 0 {
		window = 0
	}
	begin := index - window
	if extendForward {
		begin = index
	}
	if begin < 0 {
		begin = 0
	}
	end := index + window
	if end > len(records)-1 {
		end = len(records) - 1
	}
	return records[begin : end+1]
}

// ContextWindow is the package function over the records in scope.
func (s *Session) ContextWindow(index, window int, extendForward bool) []*model.LogRecord {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return ContextWindow(s.active, index, window, extendForward)
}

// Findings lists discords, centered in ContextWindow records, then motifs, followed by WindowSize records.
func (s *Session) Findings() ([]Finding, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.state != Ready {
		return nil, illegal("Findings", s.state)
	}
	return s.findings(), nil
}

func (s *Session) findings() []Finding {
	ret := make([]Finding, 0, len(s.discords)+len(s.motifs))
	for _, d := range s.discords {
		ret = append(ret, discordFinding(d, s.active, s.config.ContextWindow))
	}
	for _, m := range s.motifs {
		ret = append(ret, motifFinding(m, s.active))
	}
	return ret
}

func discordFinding(d matrixprofile.Discord, records []*model.LogRecord, window int) Finding {
	return Finding{
		Kind:       KindDiscord,
		Index:      d.Index,
		Distance:   d.Distance,
		WindowSize: d.WindowSize,
		Records:    ContextWindow(records, d.Index, window, false),
	}
}

func motifFinding(m matrixprofile.Motif, records []*model.LogRecord) Finding {
	return Finding{
		Kind:       KindMotif,
		Index:      m.Pair[0],
		Pair:       []int{m.Pair[0], m.Pair[1]},
		Distance:   m.Distance,
		WindowSize: m.WindowSize,
		Records:    ContextWindow(records, m.Pair[0], m.WindowSize, true),
	}
}

// Text renders the records of a finding one per line.
func (f *Finding) Text() string {
	return RenderRecords(f.Records)
}

func RenderRecords(records []*model.LogRecord) string {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(strconv.Itoa(r.LineId))
		sb.WriteByte(' ')
		sb.WriteString(r.TimeFull())
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(r.Pid))
		sb.WriteByte(' ')
		sb.WriteString(r.Component)
		sb.WriteByte(' ')
		sb.WriteString(r.EventId)
		sb.WriteByte(' ')
		sb.WriteString(r.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summarize hands the text of a finding, after DefaultPrompt, to summarizer.
func Summarize(ctx context.Context, summarizer Summarizer, f *Finding) (string, error) {
	return summarizer.Summarize(ctx, DefaultPrompt+f.Text())
}

// Timeline returns the seconds elapsed since the first record in scope, one value per record.
// Records without timestamp get 0.
func (s *Session) Timeline() []float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ret := make([]float64, len(s.active))
	var first time.Time
	for i, r := range s.active {
		if r.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() {
			first = r.Timestamp
		}
		ret[i] = r.Timestamp.Sub(first).Seconds()
	}
	return ret
}

// SubsetByTime returns the event ids of the records in scope stamped within [start, end].
func (s *Session) SubsetByTime(start, end time.Time) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var ret []string
	for _, r := range s.active {
		if r.Timestamp.IsZero() || r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		ret = append(ret, r.EventId)
	}
	return ret
}

// Report snapshots the session. Findings are only filled on Ready sessions.
func (s *Session) Report(withTemplates bool) *Report {
	st := s.Stats()
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r := &Report{
		Id:    s.Id,
		State: s.state,
		Stats: st,
	}
	if s.filter != nil {
		r.Filter = s.filter.String()
	}
	if withTemplates {
		r.Templates = s.miner.Clusters()
	}
	if s.state == Ready {
		r.Findings = s.findings()
	}
	return r
}
