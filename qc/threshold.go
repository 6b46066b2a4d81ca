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
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
)

// CheckThreshold tells whether value reaches the minimum acceptable threshold
func CheckThreshold(value, threshold float64) Status {
	if value >= threshold {
		return StatusPass
	}
	return StatusFail
}

// ThresholdLabel creates a human readable label of a threshold column
func ThresholdLabel(m Metric, threshold float64) string {
	return fmt.Sprintf("%s QC Threshold = %s", m, strconv.FormatFloat(threshold, 'f', -1, 64))
}

// ClassifyThresholds annotates cells of all the metrics with a configured
// threshold. Cells of other metrics keep StatusNA.
func ClassifyThresholds(table *MetricTable, tc ThresholdConfig) {
	for _, m := range ThresholdMetrics {
		t := tc.For(m)
		if t == nil {
			continue
		}
		var numFailed int
		for _, row := range table.Rows {
			cell := row.Cell(m)
			threshold := *t
			cell.Threshold = &threshold
			cell.ThresholdStatus = CheckThreshold(cell.Value, threshold)
			if cell.ThresholdStatus == StatusFail {
				numFailed++
			}
		}
		log.Info().
			Str("metric", m.String()).
			Float64("threshold", *t).
			Int("numFailed", numFailed).
			Msg("applied metric threshold")
	}
}
