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
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioSource(t *testing.T) (string, *fakeSource) {
	dir := t.TempDir()
	src := newFakeSource()
	for i, tic := range []float64{100, 105, 98, 102, 1000} {
		name := fmt.Sprintf("f%d.mzML", i+1)
		touchFiles(t, dir, name)
		src.addRun(name, tic, float64(50+i))
	}
	return dir, src
}

func TestRunSingleOutlier(t *testing.T) {
	dir, src := scenarioSource(t)
	res, err := Run(
		context.Background(),
		Settings{
			DataDir:    dir,
			Thresholds: ThresholdConfig{MS1TIC: ptr(50)},
		},
		src,
		nil,
	)
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 5)
	assert.False(t, res.GroupwiseComparison)
	assert.Empty(t, res.GroupCV)
	assert.Empty(t, res.GroupStatus)

	for i, row := range res.Table.Rows {
		assert.Equal(t, fmt.Sprintf("f%d.mzML", i+1), row.Filename)
		assert.Equal(t, StatusPass, row.Cell(MetricMS1TIC).ThresholdStatus)
	}
	assert.Equal(t, []string{"f5.mzML"}, res.Table.Outliers(MetricMS1TIC))
	require.Len(t, res.SampleStatus, 5)
	for i := 0; i < 4; i++ {
		assert.Equal(t, StatusPass, res.SampleStatus[i].Verdict(MetricMS1TIC))
	}
	assert.Equal(t, StatusFail, res.SampleStatus[4].Verdict(MetricMS1TIC))
	assert.Equal(t, StatusPass, res.SampleStatus[4].Verdict(MetricMS2TIC))
	assert.Equal(t, StatusPass, res.SampleStatus[4].Verdict(MetricMS1Spectra))
}

func TestRunGroupwise(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	for name, tic := range map[string]float64{
		"a1.mzML": 100, "a2.mzML": 102, "a3.mzML": 98,
		"b1.mzML": 1000, "b2.mzML": 1050, "x.mzML": 500,
	} {
		touchFiles(t, dir, name)
		src.addRun(name, tic, 10)
	}
	settings := Settings{
		DataDir:             dir,
		GroupwiseComparison: true,
		Groups: GroupAssignment{
			"A": {"a1.mzML", "a2.mzML", "a3.mzML"},
			"B": {"b1.mzML", "b2.mzML"},
		},
		Thresholds: ThresholdConfig{TICCV: 5},
	}
	res, err := Run(context.Background(), settings, src, nil)
	require.NoError(t, err)
	require.Len(t, res.GroupCV, 2)
	assert.Equal(t, 2.0, *res.GroupCV[0].MS1TICCV)
	assert.Equal(t, 3.45, *res.GroupCV[1].MS1TICCV)
	assert.Equal(t, StatusPass, res.GroupCV[0].MS1TICStatus)
	assert.Equal(t, StatusPass, res.GroupCV[1].MS1TICStatus)
	require.Len(t, res.GroupStatus, 2)
	assert.Equal(t, "A", res.GroupStatus[0].Group)

	// unassigned file stays in the per-file results
	require.Len(t, res.SampleStatus, 6)
	assert.Equal(t, "x.mzML", res.SampleStatus[5].Filename)
	assert.Equal(t, "", res.SampleStatus[5].Group)
	assert.Equal(t, "B", res.SampleStatus[4].Group)

	settings.Thresholds.TICCV = 1
	res, err = Analyze(res.Table, settings)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, res.GroupCV[0].MS1TICStatus)
	assert.Equal(t, StatusFail, res.GroupCV[1].MS1TICStatus)
	assert.Equal(t, StatusFail, res.GroupStatus[0].MS1TICCVStatus)
}

func TestRunConfigErrorsBeforeDecoding(t *testing.T) {
	dir, src := scenarioSource(t)

	_, err := Run(
		context.Background(),
		Settings{DataDir: dir, Thresholds: ThresholdConfig{MS1TIC: ptr(-1)}},
		src,
		nil,
	)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Run(
		context.Background(),
		Settings{
			DataDir:             dir,
			GroupwiseComparison: true,
			Groups:              GroupAssignment{"A": {"f1.mzML", "missing.mzML"}},
			Thresholds:          ThresholdConfig{TICCV: 5},
		},
		src,
		nil,
	)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Run(
		context.Background(),
		Settings{
			DataDir:             dir,
			GroupwiseComparison: true,
			Groups:              GroupAssignment{"A": {"f1.mzML"}},
		},
		src,
		nil,
	)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestRunEmptyDir(t *testing.T) {
	_, err := Run(context.Background(), Settings{DataDir: t.TempDir()}, newFakeSource(), nil)
	assert.ErrorIs(t, err, ErrIO)
}

func TestRunFilesUsesGivenPaths(t *testing.T) {
	dir, src := scenarioSource(t)
	paths, err := ListRawFiles(dir, DefaultRawFileExt)
	require.NoError(t, err)
	require.Len(t, paths, 5)

	var numDone atomic.Int32
	res, err := RunFiles(
		context.Background(),
		Settings{DataDir: dir},
		paths[:4],
		src,
		func(fm FileMetric) { numDone.Add(1) },
	)
	require.NoError(t, err)
	assert.Equal(t, int32(4), numDone.Load())
	assert.Equal(t, int32(4), src.calls.Load())
	require.Len(t, res.Table.Rows, 4)
	assert.Equal(t, "f4.mzML", res.Table.Rows[3].Filename)
	assert.Empty(t, res.Table.Outliers(MetricMS1TIC))
}

func TestRunFilesValidation(t *testing.T) {
	dir, src := scenarioSource(t)
	paths, err := ListRawFiles(dir, DefaultRawFileExt)
	require.NoError(t, err)

	_, err = RunFiles(context.Background(), Settings{DataDir: dir}, []string{}, src, nil)
	assert.ErrorIs(t, err, ErrIO)

	_, err = RunFiles(
		context.Background(),
		Settings{
			DataDir:             dir,
			GroupwiseComparison: true,
			Groups:              GroupAssignment{"A": {"f1.mzML", "missing.mzML"}},
			Thresholds:          ThresholdConfig{TICCV: 5},
		},
		paths,
		src,
		nil,
	)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestRunCancelled(t *testing.T) {
	dir, src := scenarioSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Settings{DataDir: dir}, src, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	dir, src := scenarioSource(t)
	settings := Settings{
		DataDir:    dir,
		Thresholds: ThresholdConfig{MS1TIC: ptr(99), MaxBasepeakIntensity: ptr(52)},
	}
	res1, err := Run(context.Background(), settings, src, nil)
	require.NoError(t, err)
	snapshot := make([]Row, len(res1.Table.Rows))
	for i, row := range res1.Table.Rows {
		snapshot[i] = *row
	}
	status1 := res1.SampleStatus

	res2, err := Analyze(res1.Table, settings)
	require.NoError(t, err)
	for i, row := range res2.Table.Rows {
		assert.Equal(t, snapshot[i], *row)
	}
	assert.Equal(t, status1, res2.SampleStatus)
}

func TestAnalyzeEmptyTable(t *testing.T) {
	_, err := Analyze(NewMetricTable([]FileMetric{}), Settings{})
	assert.ErrorIs(t, err, ErrIO)
}
