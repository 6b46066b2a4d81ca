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

// SampleQCStatus contains QC verdicts of a single file
type SampleQCStatus struct {
	Filename string            `json:"filename"`
	Group    string            `json:"group,omitempty"`
	Verdicts map[Metric]Status `json:"verdicts"`
}

// Verdict returns a verdict for m (StatusNA for metrics
// without composed verdict)
func (s SampleQCStatus) Verdict(m Metric) Status {
	if v, ok := s.Verdicts[m]; ok {
		return v
	}
	return StatusNA
}

// GroupQCStatus contains QC verdicts of a group of files along
// with the (independent) TIC CV verdicts
type GroupQCStatus struct {
	Group          string            `json:"group"`
	Verdicts       map[Metric]Status `json:"verdicts"`
	MS1TICCVStatus Status            `json:"ms1TicCvStatus"`
	MS2TICCVStatus Status            `json:"ms2TicCvStatus"`
}

// ComposeVerdict merges outlier and threshold results. An outlier always
// fails, a threshold is considered only if configured.
func ComposeVerdict(outlier, thresholdConfigured bool, thresholdStatus Status) Status {
	if outlier {
		return StatusFail
	}
	if thresholdConfigured && thresholdStatus == StatusFail {
		return StatusFail
	}
	return StatusPass
}

// ComposeSampleStatus sets verdicts of StatusMetrics cells and returns
// per-file summaries in row order. The groups argument may be nil.
func ComposeSampleStatus(table *MetricTable, groups GroupAssignment) []SampleQCStatus {
	ans := make([]SampleQCStatus, len(table.Rows))
	for i, row := range table.Rows {
		item := SampleQCStatus{
			Filename: row.Filename,
			Verdicts: make(map[Metric]Status, len(StatusMetrics)),
		}
		if groups != nil {
			item.Group, _ = groups.GroupOf(row.Filename)
		}
		for _, m := range StatusMetrics {
			cell := row.Cell(m)
			cell.Verdict = ComposeVerdict(
				row.Cell(m.outlierSource()).Outlier,
				cell.Threshold != nil,
				cell.ThresholdStatus,
			)
			item.Verdicts[m] = cell.Verdict
		}
		ans[i] = item
	}
	return ans
}

// ComposeGroupStatus creates a group verdict for each group in groupCV.
// A group fails a metric if any of its files does not pass it.
func ComposeGroupStatus(samples []SampleQCStatus, groupCV []GroupCV) []GroupQCStatus {
	ans := make([]GroupQCStatus, len(groupCV))
	for i, gcv := range groupCV {
		item := GroupQCStatus{
			Group:          gcv.Group,
			Verdicts:       make(map[Metric]Status, len(StatusMetrics)),
			MS1TICCVStatus: gcv.MS1TICStatus,
			MS2TICCVStatus: gcv.MS2TICStatus,
		}
		var numMembers int
		for _, m := range StatusMetrics {
			item.Verdicts[m] = StatusPass
		}
		for _, smpl := range samples {
			if smpl.Group != gcv.Group {
				continue
			}
			numMembers++
			for _, m := range StatusMetrics {
				if smpl.Verdict(m) != StatusPass {
					item.Verdicts[m] = StatusFail
				}
			}
		}
		if numMembers == 0 {
			for _, m := range StatusMetrics {
				item.Verdicts[m] = StatusNA
			}
		}
		ans[i] = item
	}
	return ans
}
