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

package stats

import (
	"fmt"
	"math"
	"slices"
)

// Quantile estimates the p-quantile of values using linear interpolation
// between the closest ranks (h = (n-1)p, i.e. "type 7" estimator).
// The input slice is not modified.
func Quantile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientSamples
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: invalid quantile %v", ErrStatistics, p)
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return quantileSorted(sorted, p), nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

// Quartiles returns the first and the third quartile of values
func Quartiles(values []float64) (q1, q3 float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrInsufficientSamples
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return quantileSorted(sorted, 0.25), quantileSorted(sorted, 0.75), nil
}
