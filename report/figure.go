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
	"fmt"
	"strconv"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	"github.com/MetalBlueberry/go-plotly/pkg/types"
	"github.com/czcorpus/msqc/qc"
)

const (
	colorRegular = "#636efa"
	colorOutlier = "#ef553b"

	unassignedGroup = "unassigned"
)

func newFig(title, yTitle string) *grob.Fig {
	return &grob.Fig{
		Data: []types.Trace{},
		Layout: &grob.Layout{
			Title: &grob.LayoutTitle{Text: types.S(title)},
			Margin: &grob.LayoutMargin{
				L: types.N(20), R: types.N(20), T: types.N(40), B: types.N(20),
			},
			Xaxis: &grob.LayoutXaxis{
				Title:    &grob.LayoutXaxisTitle{Text: "Filename"},
				Tickfont: &grob.LayoutXaxisTickfont{Size: types.N(8)},
			},
			Yaxis: &grob.LayoutYaxis{
				Title: &grob.LayoutYaxisTitle{Text: types.S(yTitle)},
			},
		},
	}
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// addThresholdLine adds a dotted horizontal line spanning
// the whole plot width along with a label
func addThresholdLine(fig *grob.Fig, y float64, label string) {
	fig.Layout.Shapes = append(
		fig.Layout.Shapes,
		grob.LayoutShape{
			Type: grob.LayoutShapeTypeLine,
			Xref: grob.LayoutShapeXrefPaper,
			Yref: grob.LayoutShapeYref("y"),
			X0:   0.0,
			X1:   1.0,
			Y0:   y,
			Y1:   y,
			Line: &grob.LayoutShapeLine{Dash: "dot"},
		},
	)
	fig.Layout.Annotations = append(
		fig.Layout.Annotations,
		grob.LayoutAnnotation{
			Xref:      grob.LayoutAnnotationXrefPaper,
			Yref:      grob.LayoutAnnotationYref("y"),
			X:         1.0,
			Y:         y,
			Xanchor:   grob.LayoutAnnotationXanchorRight,
			Yanchor:   grob.LayoutAnnotationYanchorBottom,
			Text:      types.S(label),
			Showarrow: types.False,
		},
	)
}

func filenames(table *qc.MetricTable) []string {
	ans := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		ans[i] = row.Filename
	}
	return ans
}

func splineTrace(name string, x []string, y []float64) *grob.Scatter {
	return &grob.Scatter{
		Mode: grob.ScatterModeLines + "+" + grob.ScatterModeMarkers,
		Name: types.S(name),
		X:    types.DataArray(x),
		Y:    types.DataArray(y),
		Line: &grob.ScatterLine{Shape: grob.ScatterLineShapeSpline},
	}
}

func markerTrace(name, color string, size float64) *grob.Scatter {
	return &grob.Scatter{
		Mode: grob.ScatterModeMarkers,
		Name: types.S(name),
		Marker: &grob.ScatterMarker{
			Color: types.ArrayOKValue(types.UseColor(types.C(color))),
			Size:  types.ArrayOKValue(types.N(size)),
		},
	}
}

// TICFigure plots MS1 and MS2 TIC of all files with optional
// threshold lines.
func TICFigure(table *qc.MetricTable, tc qc.ThresholdConfig) *grob.Fig {
	x := filenames(table)
	fig := newFig("Total Ion Current", "TIC")
	fig.AddTraces(
		splineTrace(qc.MetricMS1TIC.String(), x, table.Column(qc.MetricMS1TIC)),
		splineTrace(qc.MetricMS2TIC.String(), x, table.Column(qc.MetricMS2TIC)),
	)
	if tc.MS1TIC != nil {
		addThresholdLine(fig, *tc.MS1TIC, fmt.Sprintf("MS1 TIC Threshold = %s", formatNum(*tc.MS1TIC)))
	}
	if tc.MS2TIC != nil {
		addThresholdLine(fig, *tc.MS2TIC, fmt.Sprintf("MS2 TIC Threshold = %s", formatNum(*tc.MS2TIC)))
	}
	return fig
}

// SpectralRatioFigure plots MS2/MS1 spectra count ratio of all files
func SpectralRatioFigure(table *qc.MetricTable) *grob.Fig {
	fig := newFig("MS2/MS1 Spectra Count", qc.MetricSpectraRatio.String())
	fig.AddTraces(
		splineTrace(
			qc.MetricSpectraRatio.String(),
			filenames(table),
			table.Column(qc.MetricSpectraRatio),
		),
	)
	return fig
}

// OutlierFigure shows values of metric m as a scatter plot with
// outliers highlighted.
func OutlierFigure(table *qc.MetricTable, m qc.Metric) *grob.Fig {
	regularX := make([]string, 0, len(table.Rows))
	regularY := make([]float64, 0, len(table.Rows))
	outlierX := make([]string, 0, len(table.Rows))
	outlierY := make([]float64, 0, len(table.Rows))
	for _, row := range table.Rows {
		cell := row.Cell(m)
		if cell.Outlier {
			outlierX = append(outlierX, row.Filename)
			outlierY = append(outlierY, cell.Value)

		} else {
			regularX = append(regularX, row.Filename)
			regularY = append(regularY, cell.Value)
		}
	}
	regular := markerTrace("regular", colorRegular, 8)
	regular.X, regular.Y = types.DataArray(regularX), types.DataArray(regularY)
	outliers := markerTrace("outlier", colorOutlier, 10)
	outliers.X, outliers.Y = types.DataArray(outlierX), types.DataArray(outlierY)

	fig := newFig(fmt.Sprintf("%s Outliers", m), m.String())
	fig.AddTraces(regular, outliers)
	return fig
}

// BasepeakFigure plots max. base peak intensity as bars. With groups
// provided, there is one trace per group (files without group form
// their own trace).
func BasepeakFigure(table *qc.MetricTable, groups qc.GroupAssignment, threshold *float64) *grob.Fig {
	fig := newFig(qc.MetricMaxBasepeakIntensity.String(), "Intensity")
	if groups == nil {
		fig.AddTraces(&grob.Bar{
			Name: types.S(qc.MetricMaxBasepeakIntensity.String()),
			X:    types.DataArray(filenames(table)),
			Y:    types.DataArray(table.Column(qc.MetricMaxBasepeakIntensity)),
		})

	} else {
		fig.Layout.Barmode = grob.BarBarmodeGroup
		xs := make(map[string][]string)
		ys := make(map[string][]float64)
		order := make([]string, 0, len(groups)+1)
		for _, row := range table.Rows {
			g, ok := groups.GroupOf(row.Filename)
			if !ok {
				g = unassignedGroup
			}
			if _, ok := xs[g]; !ok {
				order = append(order, g)
			}
			xs[g] = append(xs[g], row.Filename)
			ys[g] = append(ys[g], row.MaxBasepeakIntensity)
		}
		for _, g := range order {
			fig.AddTraces(&grob.Bar{
				Name: types.S(g),
				X:    types.DataArray(xs[g]),
				Y:    types.DataArray(ys[g]),
			})
		}
	}
	if threshold != nil {
		addThresholdLine(
			fig,
			*threshold,
			fmt.Sprintf("Max Basepeak Intensity Threshold = %s", formatNum(*threshold)),
		)
	}
	return fig
}

// GroupCVFigure plots CV% of a TIC metric (MS1 or MS2) per group.
// Groups with undefined CV are omitted.
func GroupCVFigure(groupCV []qc.GroupCV, m qc.Metric, threshold float64) *grob.Fig {
	fig := newFig(fmt.Sprintf("%s CV%%", m), "CV%")
	fig.Layout.Xaxis.Title.Text = "Group"
	for _, gcv := range groupCV {
		var cv *float64
		switch m {
		case qc.MetricMS1TIC:
			cv = gcv.MS1TICCV
		case qc.MetricMS2TIC:
			cv = gcv.MS2TICCV
		default:
			panic(fmt.Sprintf("CV is not available for metric %s", m))
		}
		if cv == nil {
			continue
		}
		fig.AddTraces(&grob.Bar{
			Name: types.S(gcv.Group),
			X:    types.DataArray([]string{gcv.Group}),
			Y:    types.DataArray([]float64{*cv}),
		})
	}
	addThresholdLine(fig, threshold, fmt.Sprintf("TIC CV Threshold = %s", formatNum(threshold)))
	return fig
}
