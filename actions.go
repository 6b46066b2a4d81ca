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

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/czcorpus/msqc/cnf"
	"github.com/czcorpus/msqc/mzml"
	"github.com/czcorpus/msqc/qc"
	"github.com/czcorpus/msqc/report"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

const (
	errColor = color.FgHiRed
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7")).Padding(0, 1)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	titleColor = color.New(color.FgHiMagenta).SprintFunc()
)

func overrideOutput(conf *cnf.Conf, outDir, reportName string) {
	if outDir != "" {
		conf.OutputDir = outDir
	}
	if reportName != "" {
		conf.ReportName = reportName
	}
}

func statusTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			if row < 0 || row >= len(rows) || col >= len(rows[row]) {
				return cellStyle
			}
			switch rows[row][col] {
			case string(qc.StatusPass):
				return passStyle
			case string(qc.StatusFail):
				return failStyle
			}
			return cellStyle
		})
}

func sampleStatusRows(res *qc.Result) ([]string, [][]string) {
	headers := []string{"Filename"}
	if res.GroupwiseComparison {
		headers = append(headers, "Group")
	}
	for _, m := range qc.StatusMetrics {
		headers = append(headers, m.String())
	}
	rows := make([][]string, len(res.SampleStatus))
	for i, smpl := range res.SampleStatus {
		row := []string{smpl.Filename}
		if res.GroupwiseComparison {
			row = append(row, smpl.Group)
		}
		for _, m := range qc.StatusMetrics {
			row = append(row, string(smpl.Verdict(m)))
		}
		rows[i] = row
	}
	return headers, rows
}

func formatCV(cv *float64) string {
	if cv == nil {
		return string(qc.StatusNA)
	}
	return fmt.Sprintf("%.2f", *cv)
}

func groupStatusRows(res *qc.Result) ([]string, [][]string) {
	headers := []string{"Group"}
	for _, m := range qc.StatusMetrics {
		headers = append(headers, m.String())
	}
	headers = append(headers, "MS1 TIC CV%", "MS1 TIC CV Status", "MS2 TIC CV%", "MS2 TIC CV Status")
	rows := make([][]string, len(res.GroupStatus))
	for i, grp := range res.GroupStatus {
		row := []string{grp.Group}
		for _, m := range qc.StatusMetrics {
			row = append(row, string(grp.Verdicts[m]))
		}
		var ms1CV, ms2CV *float64
		if i < len(res.GroupCV) {
			ms1CV, ms2CV = res.GroupCV[i].MS1TICCV, res.GroupCV[i].MS2TICCV
		}
		row = append(
			row,
			formatCV(ms1CV), string(grp.MS1TICCVStatus),
			formatCV(ms2CV), string(grp.MS2TICCVStatus),
		)
		rows[i] = row
	}
	return headers, rows
}

func printDetection(w io.Writer, res *qc.Result) {
	for _, m := range qc.OutlierMetrics {
		det, ok := res.Table.Detection[m]
		if !ok {
			continue
		}
		note := ""
		if det.Indeterminate {
			note = " (normality not testable)"

		} else if det.Normality != nil {
			note = fmt.Sprintf(" (Shapiro-Wilk p = %.4g)", det.Normality.PValue)
		}
		fmt.Fprintf(w, "%s: %s%s, outliers: %d\n", titleColor(m.String()), det.Method, note, det.NumOutliers)
	}
}

func printResult(w io.Writer, res *qc.Result) {
	fmt.Fprintf(w, "\n%s\n", titleColor("Outlier detection"))
	printDetection(w, res)
	fmt.Fprintf(w, "\n%s\n", titleColor("Sample QC status"))
	fmt.Fprintln(w, statusTable(sampleStatusRows(res)))
	if res.GroupwiseComparison {
		fmt.Fprintf(w, "\n%s\n", titleColor("Group QC status"))
		fmt.Fprintln(w, statusTable(groupStatusRows(res)))
	}
}

func outputDir(conf *cnf.Conf) string {
	if conf.OutputDir == "" {
		return "."
	}
	return conf.OutputDir
}

func writeReport(conf *cnf.Conf, res *qc.Result, settings qc.Settings) {
	files, err := report.WriteAll(outputDir(conf), conf.ReportName, res, settings)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorReportFailed)
	}
	fmt.Fprintf(os.Stderr, "\n%s:\n", titleColor("Report files"))
	for _, f := range []string{files.Workbook, files.HTML, files.Snapshot} {
		fmt.Fprintf(os.Stderr, "  %s\n", f)
	}
}

func runActionRun(ctx context.Context, conf *cnf.Conf, dataDir string, withReport bool) {
	settings := conf.QCSettings(dataDir)
	paths, err := qc.ListRawFiles(dataDir, settings.RawFileExt)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorQCFailed)
	}
	bar := progressbar.Default(int64(len(paths)), "extracting metrics")
	res, err := qc.RunFiles(ctx, settings, paths, mzml.FileReader{}, func(fm qc.FileMetric) {
		bar.Add(1)
	})
	if err != nil {
		bar.Exit()
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorQCFailed)
	}
	bar.Finish()
	log.Info().Int("numFiles", len(res.Table.Rows)).Msg("QC finished")
	printResult(os.Stdout, res)
	if withReport {
		writeReport(conf, res, settings)
	}
}

func runActionReanalyze(conf *cnf.Conf, snapshotPath string) {
	snap, err := report.ReadSnapshot(snapshotPath)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorQCFailed)
	}
	settings := conf.QCSettings(snap.DataDir)
	res, err := qc.Analyze(qc.NewMetricTable(snap.Files), settings)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorQCFailed)
	}
	printResult(os.Stdout, res)
	writeReport(conf, res, settings)
}
