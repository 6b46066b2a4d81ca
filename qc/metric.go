// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qc

import (
	"encoding/json"
	"fmt"

	"github.com/czcorpus/msqc/stats"
)

// Metric identifies one per-file QC metric
type Metric int

const (
	MetricMS1TIC Metric = iota
	MetricMS2TIC
	MetricMS1Spectra
	MetricMS2Spectra
	MetricSpectraRatio
	MetricMaxBasepeakIntensity

	numMetrics
)

var metricNames = [numMetrics]string{
	"MS1 TIC",
	"MS2 TIC",
	"MS1 Spectra",
	"MS2 Spectra",
	"MS2/MS1 Spectra",
	"Max Basepeak Intensity",
}

var (
	// AllMetrics lists metrics in the order they are reported
	AllMetrics = []Metric{
		MetricMS1TIC,
		MetricMS2TIC,
		MetricMS1Spectra,
		MetricMS2Spectra,
		MetricSpectraRatio,
		MetricMaxBasepeakIntensity,
	}

	// OutlierMetrics are metrics monitored by the outlier detection
	OutlierMetrics = []Metric{
		MetricMS1TIC,
		MetricMS2TIC,
		MetricSpectraRatio,
		MetricMaxBasepeakIntensity,
	}

	// ThresholdMetrics are metrics which can be configured with
	// a minimum acceptable value
	ThresholdMetrics = []Metric{
		MetricMS1TIC,
		MetricMS2TIC,
		MetricMS1Spectra,
		MetricMS2Spectra,
		MetricMaxBasepeakIntensity,
	}

	// StatusMetrics are metrics with a composed per-sample QC verdict
	StatusMetrics = ThresholdMetrics
)

func (m Metric) String() string {
	if m < 0 || m >= numMetrics {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

func (m Metric) MarshalText() ([]byte, error) {
	if m < 0 || m >= numMetrics {
		return nil, fmt.Errorf("unknown metric %d", int(m))
	}
	return []byte(metricNames[m]), nil
}

func (m *Metric) UnmarshalText(text []byte) error {
	for i, name := range metricNames {
		if name == string(text) {
			*m = Metric(i)
			return nil
		}
	}
	return fmt.Errorf("unknown metric %q", string(text))
}

// outlierSource returns a metric whose outlier flag is relevant
// for the QC verdict of m. Spectra counts are judged by outliers
// of their ratio.
func (m Metric) outlierSource() Metric {
	switch m {
	case MetricMS1Spectra, MetricMS2Spectra:
		return MetricSpectraRatio
	default:
		return m
	}
}

// ----------------------------

// Status is a QC verdict
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"

	// StatusNA means the verdict is not applicable or cannot be determined
	// (e.g. no threshold configured, too few samples for CV)
	StatusNA Status = "N/A"
)

// ----------------------------

// FileMetric is an aggregated record of a single raw data file
type FileMetric struct {
	Filename             string  `json:"filename" msgpack:"filename"`
	MS1TIC               float64 `json:"ms1Tic" msgpack:"ms1Tic"`
	MS2TIC               float64 `json:"ms2Tic" msgpack:"ms2Tic"`
	MS1Spectra           int     `json:"ms1Spectra" msgpack:"ms1Spectra"`
	MS2Spectra           int     `json:"ms2Spectra" msgpack:"ms2Spectra"`
	SpectraRatio         float64 `json:"spectraRatio" msgpack:"spectraRatio"`
	MaxBasepeakIntensity float64 `json:"maxBasepeakIntensity" msgpack:"maxBasepeakIntensity"`
}

// Value returns the value of the metric m
func (fm FileMetric) Value(m Metric) float64 {
	switch m {
	case MetricMS1TIC:
		return fm.MS1TIC
	case MetricMS2TIC:
		return fm.MS2TIC
	case MetricMS1Spectra:
		return float64(fm.MS1Spectra)
	case MetricMS2Spectra:
		return float64(fm.MS2Spectra)
	case MetricSpectraRatio:
		return fm.SpectraRatio
	case MetricMaxBasepeakIntensity:
		return fm.MaxBasepeakIntensity
	}
	panic(fmt.Sprintf("unknown metric %d", int(m)))
}

// ----------------------------

// MetricCell holds everything the QC procedure derives
// for a single metric of a single file.
type MetricCell struct {
	Value float64 `json:"value"`

	// Threshold is nil if no threshold is configured for the metric
	Threshold       *float64 `json:"threshold,omitempty"`
	ThresholdStatus Status   `json:"thresholdStatus"`

	// Outlier is meaningful only for OutlierMetrics
	Outlier bool   `json:"outlier"`
	Verdict Status `json:"verdict,omitempty"`
}

// Row is a table row representing one raw file
type Row struct {
	FileMetric
	Cells [numMetrics]MetricCell `json:"-"`
}

// Cell returns a pointer to the cell of metric m
func (row *Row) Cell(m Metric) *MetricCell {
	return &row.Cells[m]
}

func (row *Row) MarshalJSON() ([]byte, error) {
	cells := make(map[Metric]MetricCell, len(AllMetrics))
	for _, m := range AllMetrics {
		cells[m] = row.Cells[m]
	}
	return json.Marshal(struct {
		FileMetric
		Cells map[Metric]MetricCell `json:"cells"`
	}{
		FileMetric: row.FileMetric,
		Cells:      cells,
	})
}

func newRow(fm FileMetric) *Row {
	row := &Row{FileMetric: fm}
	for _, m := range AllMetrics {
		row.Cells[m] = MetricCell{
			Value:           fm.Value(m),
			ThresholdStatus: StatusNA,
		}
	}
	return row
}

// OutlierDetection summarizes outlier detection for one metric
type OutlierDetection struct {
	Metric    Metric                   `json:"metric"`
	Method    OutlierMethod            `json:"method"`
	Normality *stats.ShapiroWilkResult `json:"normality,omitempty"`

	// Indeterminate is set when the normality test could not be
	// performed and the method was selected as a fallback
	Indeterminate bool `json:"indeterminate"`
	NumOutliers   int  `json:"numOutliers"`
}

// MetricTable is an ordered collection of rows, one per raw file.
// Stages of the QC procedure only annotate existing rows.
type MetricTable struct {
	Rows      []*Row                      `json:"rows"`
	Detection map[Metric]OutlierDetection `json:"detection"`
}

// NewMetricTable creates a table with rows sorted by filename
func NewMetricTable(metrics []FileMetric) *MetricTable {
	ans := &MetricTable{
		Rows:      make([]*Row, len(metrics)),
		Detection: make(map[Metric]OutlierDetection),
	}
	for i, fm := range metrics {
		ans.Rows[i] = newRow(fm)
	}
	sortRows(ans.Rows)
	return ans
}

// Column returns values of metric m in row order
func (table *MetricTable) Column(m Metric) []float64 {
	ans := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		ans[i] = row.Cells[m].Value
	}
	return ans
}

// FileMetrics returns the raw aggregated records in row order
func (table *MetricTable) FileMetrics() []FileMetric {
	ans := make([]FileMetric, len(table.Rows))
	for i, row := range table.Rows {
		ans[i] = row.FileMetric
	}
	return ans
}

// Outliers returns filenames flagged as outliers for metric m
func (table *MetricTable) Outliers(m Metric) []string {
	ans := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if row.Cells[m].Outlier {
			ans = append(ans, row.Filename)
		}
	}
	return ans
}
