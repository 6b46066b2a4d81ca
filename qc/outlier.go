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
	"errors"
	"fmt"
	"math"

	"github.com/czcorpus/msqc/stats"
	"github.com/rs/zerolog/log"
)

// OutlierMethod is a method of outlier detection chosen
// for a metric based on normality of its values.
type OutlierMethod int

const (
	MethodZScore OutlierMethod = iota
	MethodIQR
)

func (om OutlierMethod) String() string {
	switch om {
	case MethodZScore:
		return "z-score"
	case MethodIQR:
		return "iqr"
	}
	return fmt.Sprintf("OutlierMethod(%d)", int(om))
}

func (om OutlierMethod) MarshalText() ([]byte, error) {
	switch om {
	case MethodZScore, MethodIQR:
		return []byte(om.String()), nil
	}
	return nil, fmt.Errorf("unknown outlier method %d", int(om))
}

// SelectOutlierMethod tests normality of values using the Shapiro-Wilk test
// and chooses z-score for normally distributed data, IQR otherwise.
// If the test cannot be performed, a fallback method is returned along
// with the error describing why:
//   - less than 3 values: IQR (which cannot flag anything for n <= 2)
//   - identical values: z-score (zero std. deviation flags nothing)
func SelectOutlierMethod(values []float64) (OutlierMethod, *stats.ShapiroWilkResult, error) {
	res, err := stats.ShapiroWilk(values)
	if errors.Is(err, stats.ErrZeroRange) {
		return MethodZScore, nil, err

	} else if err != nil {
		return MethodIQR, nil, err
	}
	if res.IsNormal(NormalityAlpha) {
		return MethodZScore, &res, nil
	}
	return MethodIQR, &res, nil
}

// ZScoreOutliers flags values with |v - mean| / std > threshold
// where std is the sample standard deviation. With zero (or undefined)
// std, nothing is flagged.
func ZScoreOutliers(values []float64, threshold float64) []bool {
	ans := make([]bool, len(values))
	mean, err := stats.Mean(values)
	if err != nil {
		return ans
	}
	std, err := stats.SampleStdDev(values)
	if err != nil || std == 0 {
		return ans
	}
	for i, v := range values {
		ans[i] = math.Abs(v-mean)/std > threshold
	}
	return ans
}

// IQROutliers flags values outside [Q1 - k*IQR, Q3 + k*IQR]
// where k = IQRMultiplier.
func IQROutliers(values []float64) []bool {
	ans := make([]bool, len(values))
	q1, q3, err := stats.Quartiles(values)
	if err != nil {
		return ans
	}
	iqr := q3 - q1
	lower := q1 - IQRMultiplier*iqr
	upper := q3 + IQRMultiplier*iqr
	for i, v := range values {
		ans[i] = v < lower || v > upper
	}
	return ans
}

// OutlierEngine annotates OutlierMetrics of a table with outlier flags
type OutlierEngine struct {
	ZScoreThreshold float64
}

func (oe OutlierEngine) Detect(table *MetricTable) {
	for _, m := range OutlierMetrics {
		table.Detection[m] = oe.detectMetric(table, m)
	}
}

func (oe OutlierEngine) detectMetric(table *MetricTable, m Metric) OutlierDetection {
	log.Info().Str("metric", m.String()).Msg("checking outliers")
	values := table.Column(m)
	method, normality, err := SelectOutlierMethod(values)
	ans := OutlierDetection{
		Metric:        m,
		Method:        method,
		Normality:     normality,
		Indeterminate: err != nil,
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("metric", m.String()).
			Int("numValues", len(values)).
			Str("method", method.String()).
			Msg("normality cannot be tested, using fallback outlier detection method")
	}

	var flags []bool
	switch method {
	case MethodZScore:
		if normality != nil {
			log.Info().
				Str("metric", m.String()).
				Float64("pValue", normality.PValue).
				Float64("zScoreThreshold", oe.ZScoreThreshold).
				Msg("values are normally distributed, z-score outlier detection will be used")
		}
		flags = ZScoreOutliers(values, oe.ZScoreThreshold)
	case MethodIQR:
		if normality != nil {
			log.Info().
				Str("metric", m.String()).
				Float64("pValue", normality.PValue).
				Msg("values are not normally distributed, iqr outlier detection will be used")
		}
		flags = IQROutliers(values)
	default:
		panic(fmt.Sprintf("unhandled outlier method %s", method))
	}

	for i, row := range table.Rows {
		row.Cell(m).Outlier = flags[i]
		if flags[i] {
			ans.NumOutliers++
		}
	}
	if ans.NumOutliers == 0 {
		log.Info().Str("metric", m.String()).Msg("no outliers found")

	} else {
		log.Info().
			Str("metric", m.String()).
			Int("numOutliers", ans.NumOutliers).
			Strs("files", table.Outliers(m)).
			Msg("outliers found")
	}
	return ans
}
