/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package metrics counts what an analysis run did. Collectors live on a private registry
// so several sessions in one process do not collide.
package metrics

import (
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

const namespace = "logprofiler"

type (
	Metrics struct {
		registry *prometheus.Registry

		LinesIngested   prometheus.Counter
		LinesDropped    *prometheus.CounterVec
		Clusters        prometheus.Gauge
		RecordsFiltered prometheus.Counter
		ProfileFailures *prometheus.CounterVec
		ProfileDuration prometheus.Histogram
		Findings        *prometheus.CounterVec
	}
)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LinesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_ingested_total",
			Help:      "Lines turned into records.",
		}),
		LinesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Lines skipped while loading, by reason.",
		}, []string{"reason"}),
		Clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "template_clusters",
			Help:      "Template clusters mined so far.",
		}),
		RecordsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_filtered_total",
			Help:      "Records removed by filter expressions.",
		}),
		ProfileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_failures_total",
			Help:      "Matrix profile computations that produced no profile, by reason.",
		}, []string{"reason"}),
		ProfileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "profile_duration_seconds",
			Help:      "Time spent computing matrix profiles.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Discords and motifs found, by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.LinesIngested,
		m.LinesDropped,
		m.Clusters,
		m.RecordsFiltered,
		m.ProfileFailures,
		m.ProfileDuration,
		m.Findings,
	)
	return m
}

// WriteText renders all collectors in the prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	mfs, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot flattens the current values, keyed like 'logprofiler_findings_total{kind="discord"}'.
// Histograms report their sample count.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	mfs, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	ret := make(map[string]float64)
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			ret[key(mf.GetName(), metric.GetLabel())] = value(mf.GetType(), metric)
		}
	}
	return ret, nil
}

func key(name string, pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return name
	}
	ls := make(model.LabelSet, len(pairs))
	for _, p := range pairs {
		ls[model.LabelName(p.GetName())] = model.LabelValue(p.GetValue())
	}
	return name + ls.String()
}

func value(t dto.MetricType, metric *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return metric.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return metric.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(metric.GetHistogram().GetSampleCount())
	case dto.MetricType_SUMMARY:
		return float64(metric.GetSummary().GetSampleCount())
	}
	return metric.GetUntyped().GetValue()
}

// Names lists the keys of a snapshot in order.
func Names(snapshot map[string]float64) []string {
	names := make([]string, 0, len(snapshot))
	for k := range snapshot {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
