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

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/czcorpus/msqc/qc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

func ptr(v float64) *float64 {
	return &v
}

func testResult(t *testing.T, grouped bool) (*qc.Result, qc.Settings) {
	metrics := make([]qc.FileMetric, 0, 5)
	for i, tic := range []float64{100, 105, 98, 102, 1000} {
		metrics = append(metrics, qc.FileMetric{
			Filename:             fmt.Sprintf("f%d.mzML", i+1),
			MS1TIC:               tic,
			MS2TIC:               40,
			MS1Spectra:           2,
			MS2Spectra:           4,
			SpectraRatio:         2,
			MaxBasepeakIntensity: float64(50 + i),
		})
	}
	settings := qc.Settings{
		DataDir:    "/data/batch",
		Thresholds: qc.ThresholdConfig{MS1TIC: ptr(50)},
	}
	if grouped {
		settings.GroupwiseComparison = true
		settings.Thresholds.TICCV = 5
		settings.Groups = qc.GroupAssignment{
			"A": {"f1.mzML", "f2.mzML", "f3.mzML"},
			"B": {"f4.mzML", "f5.mzML"},
		}
	}
	res, err := qc.Analyze(qc.NewMetricTable(metrics), settings)
	require.NoError(t, err)
	return res, settings
}

func scatterAt(t *testing.T, fig *grob.Fig, i int) *grob.Scatter {
	t.Helper()
	require.Greater(t, len(fig.Data), i)
	tr, ok := fig.Data[i].(*grob.Scatter)
	require.True(t, ok, "trace %d is not a scatter", i)
	return tr
}

func barAt(t *testing.T, fig *grob.Fig, i int) *grob.Bar {
	t.Helper()
	require.Greater(t, len(fig.Data), i)
	tr, ok := fig.Data[i].(*grob.Bar)
	require.True(t, ok, "trace %d is not a bar", i)
	return tr
}

func TestTICFigure(t *testing.T) {
	res, _ := testResult(t, false)
	fig := TICFigure(res.Table, qc.ThresholdConfig{MS1TIC: ptr(50), MS2TIC: ptr(10.5)})
	require.Len(t, fig.Data, 2)
	ms1 := scatterAt(t, fig, 0)
	assert.Equal(t, types.S("MS1 TIC"), ms1.Name)
	assert.Equal(t, []float64{100, 105, 98, 102, 1000}, ms1.Y.Value())
	assert.Equal(
		t,
		[]string{"f1.mzML", "f2.mzML", "f3.mzML", "f4.mzML", "f5.mzML"},
		ms1.X.Value(),
	)
	assert.Equal(t, grob.ScatterLineShapeSpline, scatterAt(t, fig, 1).Line.Shape)
	require.Len(t, fig.Layout.Shapes, 2)
	assert.Equal(t, types.S("dot"), fig.Layout.Shapes[0].Line.Dash)
	assert.Equal(t, 10.5, fig.Layout.Shapes[1].Y0)
	assert.Equal(t, 10.5, fig.Layout.Shapes[1].Y1)
	require.Len(t, fig.Layout.Annotations, 2)
	assert.Equal(t, types.S("MS2 TIC Threshold = 10.5"), fig.Layout.Annotations[1].Text)

	fig = TICFigure(res.Table, qc.ThresholdConfig{})
	assert.Empty(t, fig.Layout.Shapes)
	assert.Empty(t, fig.Layout.Annotations)
}

func TestTICFigureJSON(t *testing.T) {
	res, _ := testResult(t, false)
	data, err := json.Marshal(TICFigure(res.Table, qc.ThresholdConfig{MS1TIC: ptr(50)}))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"type":"scatter"`)
	assert.Contains(t, out, `"mode":"lines+markers"`)
	assert.Contains(t, out, `"dash":"dot"`)
	assert.Contains(t, out, `"text":"MS1 TIC Threshold = 50"`)
}

func TestSpectralRatioFigure(t *testing.T) {
	res, _ := testResult(t, false)
	fig := SpectralRatioFigure(res.Table)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []float64{2, 2, 2, 2, 2}, scatterAt(t, fig, 0).Y.Value())
	assert.Empty(t, fig.Layout.Shapes)
}

func TestOutlierFigure(t *testing.T) {
	res, _ := testResult(t, false)
	fig := OutlierFigure(res.Table, qc.MetricMS1TIC)
	require.Len(t, fig.Data, 2)
	assert.Equal(
		t,
		[]string{"f1.mzML", "f2.mzML", "f3.mzML", "f4.mzML"},
		scatterAt(t, fig, 0).X.Value(),
	)
	outliers := scatterAt(t, fig, 1)
	assert.Equal(t, types.S("outlier"), outliers.Name)
	assert.Equal(t, []string{"f5.mzML"}, outliers.X.Value())
	assert.Equal(t, []float64{1000}, outliers.Y.Value())

	fig = OutlierFigure(res.Table, qc.MetricMS2TIC)
	assert.Equal(t, []string{}, scatterAt(t, fig, 1).X.Value())
}

func TestBasepeakFigure(t *testing.T) {
	res, settings := testResult(t, true)
	fig := BasepeakFigure(res.Table, settings.Groups, nil)
	require.Len(t, fig.Data, 2)
	assert.Equal(t, grob.BarBarmodeGroup, fig.Layout.Barmode)
	assert.Equal(t, types.S("A"), barAt(t, fig, 0).Name)
	assert.Equal(t, []float64{50, 51, 52}, barAt(t, fig, 0).Y.Value())
	assert.Equal(t, types.S("B"), barAt(t, fig, 1).Name)
	assert.Empty(t, fig.Layout.Shapes)

	fig = BasepeakFigure(res.Table, nil, ptr(51))
	require.Len(t, fig.Data, 1)
	assert.Len(t, barAt(t, fig, 0).X.Value(), 5)
	require.Len(t, fig.Layout.Annotations, 1)
	assert.Equal(t, types.S("Max Basepeak Intensity Threshold = 51"), fig.Layout.Annotations[0].Text)
}

func TestGroupCVFigure(t *testing.T) {
	cvs := []qc.GroupCV{
		{Group: "A", MS1TICCV: ptr(3.2)},
		{Group: "B"},
	}
	fig := GroupCVFigure(cvs, qc.MetricMS1TIC, 5)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []string{"A"}, barAt(t, fig, 0).X.Value())
	assert.Equal(t, []float64{3.2}, barAt(t, fig, 0).Y.Value())
	require.Len(t, fig.Layout.Annotations, 1)
	assert.Equal(t, types.S("TIC CV Threshold = 5"), fig.Layout.Annotations[0].Text)
	assert.Equal(t, 5.0, fig.Layout.Shapes[0].Y0)
	assert.Panics(t, func() { GroupCVFigure(cvs, qc.MetricSpectraRatio, 5) })
}

func TestNewParams(t *testing.T) {
	res, settings := testResult(t, false)
	params := NewParams("batch", res, settings)
	require.NotNil(t, params.TICMS1Outliers)
	assert.Equal(
		t,
		"1 outliers were found. The following files have been detected as outliers: f5.mzML",
		params.TICMS1Outliers.Description,
	)
	assert.Nil(t, params.TICMS2Outliers)
	assert.Nil(t, params.SpectralRatioOutliers)
	assert.Nil(t, params.TICCV)
	assert.NotNil(t, params.TotalIonCurrent.Plot)
	assert.NotNil(t, params.MaxBasepeakIntensity.Plot)
	assert.Len(t, params.Detection, len(qc.OutlierMetrics))
}

func TestNewParamsGrouped(t *testing.T) {
	res, settings := testResult(t, true)
	params := NewParams("batch", res, settings)
	require.NotNil(t, params.TICCV)
	assert.Equal(
		t,
		"The following groups have not met the CV Threshold: B",
		params.TICCV.MS1.Description,
	)
	assert.Equal(t, "All groups have passed the CV Threshold", params.TICCV.MS2.Description)
	assert.Len(t, params.MaxBasepeakIntensity.Plot.Data, 2)
	assert.Len(t, params.GroupStatus, 2)
}

func TestCVDescriptionUndetermined(t *testing.T) {
	cvs := []qc.GroupCV{
		{Group: "A", MS1TICStatus: qc.StatusPass},
		{Group: "B", MS1TICStatus: qc.StatusNA},
	}
	desc := cvDescription(cvs, func(g qc.GroupCV) qc.Status { return g.MS1TICStatus })
	assert.Equal(t, "No group has failed the CV Threshold. CV could not be determined for: B", desc)
}

func TestWriteWorkbook(t *testing.T) {
	res, settings := testResult(t, true)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, res, settings))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SummarySheet, GroupCVSheet}, f.GetSheetList())

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Filename", rows[0][0])
	assert.Equal(t, "MS2/MS1 Spectra", rows[0][5])
	assert.Equal(t, "MS1 TIC QC Threshold = 50", rows[0][7])
	assert.Equal(t, "MS1 TIC Outliers", rows[0][8])
	assert.Equal(t, "MS1 TIC QC Status", rows[0][12])
	f5 := rows[5]
	assert.Equal(t, "f5.mzML", f5[0])
	assert.Equal(t, "1000", f5[1])
	assert.Equal(t, "PASS", f5[7])
	assert.Equal(t, "1", f5[8])
	assert.Equal(t, "FAIL", f5[12])
	assert.Equal(t, "0", rows[1][8])

	rows, err = f.GetRows(GroupCVSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(
		t,
		[]string{"Group", "MS1 TIC CV%", "MS2 TIC CV%", "MS1 TIC CV% Threshold = 5", "MS2 TIC CV% Threshold = 5"},
		rows[0],
	)
	assert.Equal(t, []string{"A", "3.57", "0", "PASS", "PASS"}, rows[1])
	assert.Equal(t, "FAIL", rows[2][3])
}

func TestWriteWorkbookWithoutGroups(t *testing.T) {
	res, settings := testResult(t, false)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteWorkbook(path, res, settings))
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SummarySheet}, f.GetSheetList())
}

func TestSnapshotRoundTrip(t *testing.T) {
	res, _ := testResult(t, false)
	path := filepath.Join(t.TempDir(), "metrics.msgpack")
	require.NoError(t, WriteSnapshot(path, Snapshot{DataDir: "/data/batch", Files: res.Table.FileMetrics()}))
	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/batch", snap.DataDir)
	assert.Equal(t, res.Table.FileMetrics(), snap.Files)
}

func TestReadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadSnapshot(filepath.Join(dir, "missing.msgpack"))
	assert.ErrorIs(t, err, qc.ErrIO)

	data, err := msgpack.Marshal(&Snapshot{Version: 99})
	require.NoError(t, err)
	path := filepath.Join(dir, "future.msgpack")
	require.NoError(t, os.WriteFile(path, data, 0644))
	_, err = ReadSnapshot(path)
	assert.ErrorIs(t, err, qc.ErrDecode)

	path = filepath.Join(dir, "garbage.msgpack")
	require.NoError(t, os.WriteFile(path, []byte("definitely not msgpack"), 0644))
	_, err = ReadSnapshot(path)
	assert.ErrorIs(t, err, qc.ErrDecode)
}

func TestRenderHTML(t *testing.T) {
	res, settings := testResult(t, true)
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, NewParams("<b>batch</b>", res, settings)))
	html := buf.String()
	assert.Contains(t, html, "&lt;b&gt;batch&lt;/b&gt; - ID-Free QC Report")
	assert.Contains(t, html, `Plotly.newPlot("tic"`)
	assert.Contains(t, html, `id="tic-ms1-outliers"`)
	assert.Contains(t, html, `id="tic-ms1-cv"`)
	assert.NotContains(t, html, `id="tic-ms2-outliers"`)
	assert.Contains(t, html, "Group QC Status")
	assert.Contains(t, html, `<td class="status-fail">FAIL</td>`)
	assert.Contains(t, html, "f5.mzML")
}

func TestWriteAll(t *testing.T) {
	res, settings := testResult(t, false)
	outDir := filepath.Join(t.TempDir(), "out")
	files, err := WriteAll(outDir, "batch", res, settings)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "batch_ID-Free_QC_Report.xlsx"), files.Workbook)
	for _, p := range []string{files.Workbook, files.HTML, files.Snapshot} {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}
