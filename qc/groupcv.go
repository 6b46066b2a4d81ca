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
	"github.com/czcorpus/msqc/stats"
	"github.com/rs/zerolog/log"
)

// GroupCV contains TIC variability within a group of files.
// A nil CV means it could not be determined (N/A).
type GroupCV struct {
	Group        string   `json:"group"`
	NumFiles     int      `json:"numFiles"`
	MS1TICCV     *float64 `json:"ms1TicCv"`
	MS2TICCV     *float64 `json:"ms2TicCv"`
	MS1TICStatus Status   `json:"ms1TicCvStatus"`
	MS2TICStatus Status   `json:"ms2TicCvStatus"`
}

// CVStatus evaluates a CV% value against the maximum acceptable value
func CVStatus(cv *float64, threshold float64) Status {
	if cv == nil {
		return StatusNA
	}
	if *cv <= threshold {
		return StatusPass
	}
	return StatusFail
}

func groupCV(group string, m Metric, values []float64) *float64 {
	cv, err := stats.CV(values)
	if err != nil {
		log.Warn().
			Err(err).
			Str("group", group).
			Str("metric", m.String()).
			Int("numFiles", len(values)).
			Msg("cannot calculate CV, reporting N/A")
		return nil
	}
	ans := stats.Round(cv, 2)
	return &ans
}

// AnalyzeGroupCV calculates CV% of MS1 and MS2 TIC for each group
// (in ascending order of group names). Files not assigned to any
// group are ignored.
func AnalyzeGroupCV(table *MetricTable, groups GroupAssignment, cvThreshold float64) []GroupCV {
	names := groups.Names()
	ans := make([]GroupCV, 0, len(names))
	for _, name := range names {
		members := make(map[string]bool, len(groups[name]))
		for _, f := range groups[name] {
			members[f] = true
		}
		ms1 := make([]float64, 0, len(members))
		ms2 := make([]float64, 0, len(members))
		for _, row := range table.Rows {
			if members[row.Filename] {
				ms1 = append(ms1, row.MS1TIC)
				ms2 = append(ms2, row.MS2TIC)
			}
		}
		item := GroupCV{
			Group:    name,
			NumFiles: len(ms1),
			MS1TICCV: groupCV(name, MetricMS1TIC, ms1),
			MS2TICCV: groupCV(name, MetricMS2TIC, ms2),
		}
		item.MS1TICStatus = CVStatus(item.MS1TICCV, cvThreshold)
		item.MS2TICStatus = CVStatus(item.MS2TICCV, cvThreshold)
		ans = append(ans, item)
	}
	return ans
}
