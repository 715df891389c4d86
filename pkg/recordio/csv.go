/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package recordio reads and writes structured log records as CSV.
// Timestamps are either a TimeFull column (DD-MM-YYYY HH:MM:SS) or the legacy Date, Day and Time
// columns, which carry no year.
package recordio

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/traas-stack/holoinsight-logprofiler/pkg/model"
	"github.com/traas-stack/holoinsight-logprofiler/pkg/timeparser"
)

const (
	colDate       = "Date"
	colDay        = "Day"
	colTime       = "Time"
	colParameters = "Parameters"
)

var (
	ErrMissingColumn = errors.New("missing column")

	// Header is the column order of written files.
	Header = []string{
		model.FieldLineId,
		model.FieldTimeFull,
		model.FieldPid,
		model.FieldLevel,
		model.FieldComponent,
		model.FieldContent,
		model.FieldEventId,
		model.FieldEventTemplate,
		colParameters,
	}
)

type (
	Options struct {
		Location *time.Location
		// LegacyYear completes Date/Day/Time rows. Defaults to timeparser.DefaultLegacyYear.
		LegacyYear int
	}

	columns map[string]int
)

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return false
		}
	}
	return true
}

// ReadRecords loads records from r. Rows without LineId are numbered from 1.
func ReadRecords(r io.Reader, opts Options) ([]*model.LogRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	cols := make(columns, len(header))
	for i, h := range header {
		// an unnamed leading column is the index written by dataframe exports
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h != "" {
			cols[h] = i
		}
	}

	legacy := false
	switch {
	case cols.has(model.FieldTimeFull):
	case cols.has(colDate, colDay, colTime):
		legacy = true
	default:
		return nil, errors.Wrapf(ErrMissingColumn, "need %s or %s,%s,%s", model.FieldTimeFull, colDate, colDay, colTime)
	}
	for _, name := range []string{model.FieldContent, model.FieldEventId} {
		if !cols.has(name) {
			return nil, errors.Wrapf(ErrMissingColumn, "need %s", name)
		}
	}

	var records []*model.LogRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}
		record, err := parseRow(cols, row, legacy, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "csv line %d", line)
		}
		if record.LineId == 0 {
			record.LineId = len(records) + 1
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(cols columns, row []string, legacy bool, opts Options) (*model.LogRecord, error) {
	r := &model.LogRecord{
		Component:     cols.get(row, model.FieldComponent),
		Level:         cols.get(row, model.FieldLevel),
		Content:       cols.get(row, model.FieldContent),
		EventId:       cols.get(row, model.FieldEventId),
		EventTemplate: cols.get(row, model.FieldEventTemplate),
	}

	var err error
	if s := cols.get(row, model.FieldLineId); s != "" {
		if r.LineId, err = cast.ToIntE(s); err != nil {
			return nil, errors.Wrapf(err, "bad %s", model.FieldLineId)
		}
	}
	if s := cols.get(row, model.FieldPid); s != "" {
		if r.Pid, err = cast.ToIntE(s); err != nil {
			return nil, errors.Wrapf(err, "bad %s", model.FieldPid)
		}
	}

	if legacy {
		r.Timestamp, err = timeparser.ParseLegacy(cols.get(row, colDate), cols.get(row, colDay), cols.get(row, colTime), opts.LegacyYear, opts.Location)
	} else if tf := cols.get(row, model.FieldTimeFull); strings.TrimSpace(tf) != "" {
		// an empty TimeFull is a line without a timestamp
		r.Timestamp, err = timeparser.ParseTimeFull(tf, opts.Location)
	}
	if err != nil {
		return nil, errors.Wrap(err, "bad timestamp")
	}

	if _, err := model.ParseEventId(r.EventId); err != nil {
		return nil, errors.Wrapf(err, "bad %s %q", model.FieldEventId, r.EventId)
	}

	if s := cols.get(row, colParameters); s != "" {
		if err := json.Unmarshal([]byte(s), &r.Parameters); err != nil {
			return nil, errors.Wrapf(err, "bad %s", colParameters)
		}
	}
	return r, nil
}

// WriteRecords writes records with Header.
func WriteRecords(w io.Writer, records []*model.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range records {
		params := ""
		if len(r.Parameters) > 0 {
			bs, err := json.Marshal(r.Parameters)
			if err != nil {
				return err
			}
			params = string(bs)
		}
		row := []string{
			cast.ToString(r.LineId),
			r.TimeFull(),
			cast.ToString(r.Pid),
			r.Level,
			r.Component,
			r.Content,
			r.EventId,
			r.EventTemplate,
			params,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write record %d", r.LineId)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
