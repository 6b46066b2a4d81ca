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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeVerdict(t *testing.T) {
	assert.Equal(t, StatusFail, ComposeVerdict(true, true, StatusPass))
	assert.Equal(t, StatusFail, ComposeVerdict(true, false, StatusNA))
	assert.Equal(t, StatusFail, ComposeVerdict(false, true, StatusFail))
	assert.Equal(t, StatusPass, ComposeVerdict(false, true, StatusPass))
	assert.Equal(t, StatusPass, ComposeVerdict(false, false, StatusNA))
}

func TestComposeSampleStatusUsesRatioOutliers(t *testing.T) {
	table := NewMetricTable([]FileMetric{
		{Filename: "a.mzML", MS1Spectra: 10, MS2Spectra: 20},
		{Filename: "b.mzML", MS1Spectra: 10, MS2Spectra: 20},
	})
	table.Rows[1].Cell(MetricSpectraRatio).Outlier = true
	samples := ComposeSampleStatus(table, nil)
	require.Len(t, samples, 2)
	assert.Equal(t, "", samples[0].Group)
	assert.Equal(t, StatusPass, samples[0].Verdict(MetricMS1Spectra))
	assert.Equal(t, StatusFail, samples[1].Verdict(MetricMS1Spectra))
	assert.Equal(t, StatusFail, samples[1].Verdict(MetricMS2Spectra))
	assert.Equal(t, StatusPass, samples[1].Verdict(MetricMS1TIC))
	assert.Equal(t, StatusFail, table.Rows[1].Cell(MetricMS2Spectra).Verdict)
	// the ratio itself has no composed verdict
	assert.Equal(t, StatusNA, samples[1].Verdict(MetricSpectraRatio))
}

func TestComposeGroupStatus(t *testing.T) {
	samples := []SampleQCStatus{
		{Filename: "a1", Group: "A", Verdicts: map[Metric]Status{
			MetricMS1TIC: StatusPass, MetricMS2TIC: StatusPass, MetricMS1Spectra: StatusPass,
			MetricMS2Spectra: StatusPass, MetricMaxBasepeakIntensity: StatusPass}},
		{Filename: "a2", Group: "A", Verdicts: map[Metric]Status{
			MetricMS1TIC: StatusFail, MetricMS2TIC: StatusPass, MetricMS1Spectra: StatusPass,
			MetricMS2Spectra: StatusPass, MetricMaxBasepeakIntensity: StatusPass}},
		{Filename: "b1", Group: "B", Verdicts: map[Metric]Status{
			MetricMS1TIC: StatusPass, MetricMS2TIC: StatusPass, MetricMS1Spectra: StatusPass,
			MetricMS2Spectra: StatusPass, MetricMaxBasepeakIntensity: StatusPass}},
		{Filename: "x", Verdicts: map[Metric]Status{MetricMS1TIC: StatusFail}},
	}
	groupCV := []GroupCV{
		{Group: "A", MS1TICStatus: StatusPass, MS2TICStatus: StatusFail},
		{Group: "B", MS1TICStatus: StatusNA, MS2TICStatus: StatusNA},
		{Group: "C", MS1TICStatus: StatusNA, MS2TICStatus: StatusNA},
	}
	groups := ComposeGroupStatus(samples, groupCV)
	require.Len(t, groups, 3)

	assert.Equal(t, StatusFail, groups[0].Verdicts[MetricMS1TIC])
	assert.Equal(t, StatusPass, groups[0].Verdicts[MetricMS2TIC])
	assert.Equal(t, StatusPass, groups[0].MS1TICCVStatus)
	assert.Equal(t, StatusFail, groups[0].MS2TICCVStatus)

	for _, m := range StatusMetrics {
		assert.Equal(t, StatusPass, groups[1].Verdicts[m])
		assert.Equal(t, StatusNA, groups[2].Verdicts[m])
	}
}
