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

	"github.com/czcorpus/msqc/qc"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "ID-Free Metrics Summary"
	GroupCVSheet = "Group TIC CV"

	defaultSheet = "Sheet1"
)

func writeRow(f *excelize.File, sheet string, rowIdx int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func summaryHeader(tc qc.ThresholdConfig) []any {
	ans := make([]any, 0, 1+len(qc.AllMetrics)*2+len(qc.OutlierMetrics))
	ans = append(ans, "Filename")
	for _, m := range qc.AllMetrics {
		ans = append(ans, m.String())
	}
	for _, m := range qc.ThresholdMetrics {
		if t := tc.For(m); t != nil {
			ans = append(ans, qc.ThresholdLabel(m, *t))
		}
	}
	for _, m := range qc.OutlierMetrics {
		ans = append(ans, fmt.Sprintf("%s Outliers", m))
	}
	for _, m := range qc.StatusMetrics {
		ans = append(ans, fmt.Sprintf("%s QC Status", m))
	}
	return ans
}

func summaryRow(row *qc.Row, tc qc.ThresholdConfig) []any {
	ans := []any{
		row.Filename,
		row.MS1TIC,
		row.MS2TIC,
		row.MS1Spectra,
		row.MS2Spectra,
		row.SpectraRatio,
		row.MaxBasepeakIntensity,
	}
	for _, m := range qc.ThresholdMetrics {
		if tc.For(m) != nil {
			ans = append(ans, string(row.Cell(m).ThresholdStatus))
		}
	}
	for _, m := range qc.OutlierMetrics {
		if row.Cell(m).Outlier {
			ans = append(ans, 1)

		} else {
			ans = append(ans, 0)
		}
	}
	for _, m := range qc.StatusMetrics {
		ans = append(ans, string(row.Cell(m).Verdict))
	}
	return ans
}

func cvValue(cv *float64) any {
	if cv == nil {
		return string(qc.StatusNA)
	}
	return *cv
}

func writeSummarySheet(f *excelize.File, res *qc.Result, tc qc.ThresholdConfig) error {
	if err := writeRow(f, SummarySheet, 1, summaryHeader(tc)); err != nil {
		return err
	}
	for i, row := range res.Table.Rows {
		if err := writeRow(f, SummarySheet, i+2, summaryRow(row, tc)); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 40)
}

func writeGroupCVSheet(f *excelize.File, res *qc.Result, cvThreshold float64) error {
	if _, err := f.NewSheet(GroupCVSheet); err != nil {
		return err
	}
	header := []any{
		"Group",
		"MS1 TIC CV%",
		"MS2 TIC CV%",
		fmt.Sprintf("MS1 TIC CV%% Threshold = %s", formatNum(cvThreshold)),
		fmt.Sprintf("MS2 TIC CV%% Threshold = %s", formatNum(cvThreshold)),
	}
	if err := writeRow(f, GroupCVSheet, 1, header); err != nil {
		return err
	}
	for i, gcv := range res.GroupCV {
		row := []any{
			gcv.Group,
			cvValue(gcv.MS1TICCV),
			cvValue(gcv.MS2TICCV),
			string(gcv.MS1TICStatus),
			string(gcv.MS2TICStatus),
		}
		if err := writeRow(f, GroupCVSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// WriteWorkbook stores the metric table (and group CV table in case
// the groupwise comparison is enabled) as an xlsx workbook.
func WriteWorkbook(path string, res *qc.Result, settings qc.Settings) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(defaultSheet, SummarySheet); err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := writeSummarySheet(f, res, settings.Thresholds); err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", SummarySheet, err)
	}
	if res.GroupwiseComparison {
		if err := writeGroupCVSheet(f, res, settings.Thresholds.TICCV); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", GroupCVSheet, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: failed to save workbook %s: %w", qc.ErrIO, path, err)
	}
	return nil
}
