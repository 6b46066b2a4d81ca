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
	"html/template"
	"io"
	"os"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	"github.com/czcorpus/msqc/qc"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Params.ReportName }} - ID-Free QC Report</title>
    <script src="https://cdn.plot.ly/plotly-2.35.2.min.js" charset="utf-8"></script>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            margin: 2em auto;
            max-width: 1200px;
            color: #333;
        }
        h1 {
            border-bottom: 2px solid #636efa;
            padding-bottom: 0.3em;
        }
        section {
            margin-bottom: 2.5em;
        }
        .plot {
            width: 100%;
            height: 450px;
        }
        table {
            border-collapse: collapse;
            margin-bottom: 2em;
        }
        th, td {
            border: 1px solid #ddd;
            padding: 0.3em 0.8em;
            text-align: left;
        }
        th {
            background-color: #f4f4f8;
        }
        .status-pass {
            color: #1a7f37;
            font-weight: bold;
        }
        .status-fail {
            color: #cf222e;
            font-weight: bold;
        }
        .status-na {
            color: #888;
        }
    </style>
</head>
<body>
    <h1>{{ .Params.ReportName }} - ID-Free QC Report</h1>
    {{ range .Blocks }}
    <section>
        <h2>{{ .Title }}</h2>
        <p>{{ .Description }}</p>
        <div id="{{ .ID }}" class="plot"></div>
        <script>Plotly.newPlot({{ .ID }}, {{ .Figure.Data }}, {{ .Figure.Layout }});</script>
    </section>
    {{ end }}

    <section>
        <h2>Outlier detection</h2>
        <table>
            <tr><th>Metric</th><th>Method</th><th>Shapiro-Wilk p-value</th><th>Outliers</th></tr>
            {{ range .Params.Detection }}
            <tr>
                <td>{{ .Metric }}</td>
                <td>{{ .Method }}</td>
                <td>{{ if .Normality }}{{ printf "%.4g" .Normality.PValue }}{{ else }}-{{ end }}</td>
                <td>{{ .NumOutliers }}</td>
            </tr>
            {{ end }}
        </table>
    </section>

    <section>
        <h2>Sample QC Status</h2>
        <table>
            <tr>
                <th>Filename</th>
                {{ if .Params.GroupStatus }}<th>Group</th>{{ end }}
                {{ range $.StatusMetrics }}<th>{{ . }}</th>{{ end }}
            </tr>
            {{ range $smpl := .Params.SampleStatus }}
            <tr>
                <td>{{ $smpl.Filename }}</td>
                {{ if $.Params.GroupStatus }}<td>{{ $smpl.Group }}</td>{{ end }}
                {{ range $.StatusMetrics }}
                {{ $v := $smpl.Verdict . }}<td class="{{ statusClass $v }}">{{ $v }}</td>
                {{ end }}
            </tr>
            {{ end }}
        </table>
    </section>

    {{ if .Params.GroupStatus }}
    <section>
        <h2>Group QC Status</h2>
        <table>
            <tr>
                <th>Group</th>
                {{ range $.StatusMetrics }}<th>{{ . }}</th>{{ end }}
                <th>MS1 TIC CV%</th>
                <th>MS2 TIC CV%</th>
            </tr>
            {{ range $grp := .Params.GroupStatus }}
            <tr>
                <td>{{ $grp.Group }}</td>
                {{ range $.StatusMetrics }}
                {{ $v := index $grp.Verdicts . }}<td class="{{ statusClass $v }}">{{ $v }}</td>
                {{ end }}
                <td class="{{ statusClass $grp.MS1TICCVStatus }}">{{ $grp.MS1TICCVStatus }}</td>
                <td class="{{ statusClass $grp.MS2TICCVStatus }}">{{ $grp.MS2TICCVStatus }}</td>
            </tr>
            {{ end }}
        </table>
    </section>
    {{ end }}
</body>
</html>
`

var reportTemplate = template.Must(
	template.New("report").
		Funcs(template.FuncMap{"statusClass": statusClass}).
		Parse(htmlTemplate),
)

func statusClass(s qc.Status) string {
	switch s {
	case qc.StatusPass:
		return "status-pass"
	case qc.StatusFail:
		return "status-fail"
	default:
		return "status-na"
	}
}

type plotBlock struct {
	ID          string
	Title       string
	Description string
	Figure      *grob.Fig
}

type htmlView struct {
	Params        *Params
	Blocks        []plotBlock
	StatusMetrics []qc.Metric
}

func newHTMLView(params *Params) htmlView {
	ans := htmlView{
		Params:        params,
		StatusMetrics: qc.StatusMetrics,
	}
	add := func(id, title string, sect *Section) {
		if sect == nil || sect.Plot == nil {
			return
		}
		ans.Blocks = append(
			ans.Blocks,
			plotBlock{ID: id, Title: title, Description: sect.Description, Figure: sect.Plot},
		)
	}
	add("tic", "Total Ion Current", &params.TotalIonCurrent)
	add("tic-ms1-outliers", "MS1 TIC Outliers", params.TICMS1Outliers)
	add("tic-ms2-outliers", "MS2 TIC Outliers", params.TICMS2Outliers)
	if params.TICCV != nil {
		add("tic-ms1-cv", "MS1 TIC CV%", &params.TICCV.MS1)
		add("tic-ms2-cv", "MS2 TIC CV%", &params.TICCV.MS2)
	}
	add("spectral-ratio", "MS2/MS1 Spectra Count", &params.SpectralRatio)
	add("spectral-ratio-outliers", "MS2/MS1 Spectra Outliers", params.SpectralRatioOutliers)
	add("max-basepeak", "Max Basepeak Intensity", &params.MaxBasepeakIntensity)
	add("max-basepeak-outliers", "Max Basepeak Intensity Outliers", params.MaxBasepeakIntensityOutliers)
	return ans
}

// RenderHTML writes a standalone HTML report. Plots are rendered
// client-side by plotly.js.
func RenderHTML(w io.Writer, params *Params) error {
	if err := reportTemplate.Execute(w, newHTMLView(params)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func WriteHTML(path string, params *Params) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create report file: %w", qc.ErrIO, err)
	}
	defer f.Close()
	return RenderHTML(f, params)
}
