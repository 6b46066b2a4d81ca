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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrStatistics is the common kind of all errors caused by
	// degenerate input of a statistical computation.
	ErrStatistics = errors.New("statistics error")

	// ErrInsufficientSamples indicates not enough samples for the computation.
	ErrInsufficientSamples = fmt.Errorf("%w: insufficient samples", ErrStatistics)

	// ErrZeroRange indicates all the samples are identical.
	ErrZeroRange = fmt.Errorf("%w: samples have zero range", ErrStatistics)

	// ErrZeroMean indicates a relative measure cannot be calculated
	// as the mean of the samples is zero.
	ErrZeroMean = fmt.Errorf("%w: samples have zero mean", ErrStatistics)
)

// Mean returns arithmetic mean of values. For an empty slice,
// ErrInsufficientSamples is returned.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInsufficientSamples
	}
	return stat.Mean(values, nil), nil
}

// SampleStdDev returns standard deviation with Bessel's correction (n-1).
// At least two values are required.
func SampleStdDev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, ErrInsufficientSamples
	}
	return stat.StdDev(values, nil), nil
}

// CV calculates coefficient of variation in percents
// (i.e. 100 * sample std. deviation / mean).
func CV(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, ErrInsufficientSamples
	}
	mean, std := stat.MeanStdDev(values, nil)
	if mean == 0 {
		return 0, ErrZeroMean
	}
	return 100 * std / math.Abs(mean), nil
}

// Round rounds v to the specified number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
