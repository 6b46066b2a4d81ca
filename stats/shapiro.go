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
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	swMinSamples = 3
	swSmall      = 1e-19
)

// polynomial approximations from Royston (1995), AS R94
var (
	swG  = []float64{-2.273, 0.459}
	swC1 = []float64{0.0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0.0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
)

// ShapiroWilkResult contains the test statistic W and the p-value
// for the null hypothesis that the sample comes from a normal distribution.
type ShapiroWilkResult struct {
	W      float64 `json:"w"`
	PValue float64 `json:"pValue"`
}

// IsNormal tells whether the null hypothesis (normality) cannot be rejected
// at the significance level alpha.
func (r ShapiroWilkResult) IsNormal(alpha float64) bool {
	return r.PValue > alpha
}

func poly(cc []float64, x float64) float64 {
	ans := 0.0
	for i := len(cc) - 1; i >= 0; i-- {
		ans = ans*x + cc[i]
	}
	return ans
}

func swCoefficients(n int) []float64 {
	n2 := n / 2
	a := make([]float64, n2)
	if n == 3 {
		a[0] = math.Sqrt2 / 2
		return a
	}
	an := float64(n)
	an25 := an + 0.25
	m := make([]float64, n2)
	var summ2 float64
	for i := 0; i < n2; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / an25)
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)
	a1 := poly(swC1, rsn) - m[0]/ssumm2

	var from int
	var fac float64
	if n > 5 {
		from = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2

	} else {
		from = 1
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := from; i < n2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func swPValue(w float64, n int) float64 {
	if n == 3 {
		pw := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Pi/3)
		return math.Max(0, math.Min(1, pw))
	}
	an := float64(n)
	y := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return swSmall
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))

	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}
	return distuv.UnitNormal.Survival((y - m) / s)
}

// ShapiroWilk performs the Shapiro-Wilk test of normality using
// Royston's approximation (valid for 3 <= n <= 5000).
// For less than three values, ErrInsufficientSamples is returned,
// for identical values, ErrZeroRange is returned.
func ShapiroWilk(values []float64) (ShapiroWilkResult, error) {
	n := len(values)
	if n < swMinSamples {
		return ShapiroWilkResult{}, ErrInsufficientSamples
	}
	x := slices.Clone(values)
	slices.Sort(x)
	rng := x[n-1] - x[0]
	if rng < swSmall {
		return ShapiroWilkResult{}, ErrZeroRange
	}
	a := swCoefficients(n)

	var mean float64
	for i := range x {
		x[i] /= rng
		mean += x[i]
	}
	mean /= float64(n)
	var ssq float64
	for _, v := range x {
		ssq += (v - mean) * (v - mean)
	}
	var num float64
	for i, ai := range a {
		num += ai * (x[n-1-i] - x[i])
	}
	w := math.Min(1, num*num/ssq)
	return ShapiroWilkResult{W: w, PValue: swPValue(w, n)}, nil
}
