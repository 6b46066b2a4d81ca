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
	"math"

	"github.com/czcorpus/cnc-gokit/collections"
)

const (
	DefaultRawFileExt      = ".mzML"
	DefaultZScoreThreshold = 2.0

	// NormalityAlpha is a significance level of the normality test
	// deciding between z-score and IQR outlier detection
	NormalityAlpha = 0.05

	// IQRMultiplier defines the IQR outlier fence. It is intentionally
	// wider than the common 1.5.
	IQRMultiplier = 3.0
)

// ThresholdConfig contains minimum acceptable values of metrics.
// A nil value means no threshold for the metric.
type ThresholdConfig struct {
	MS1TIC               *float64 `json:"ms1Tic"`
	MS2TIC               *float64 `json:"ms2Tic"`
	MS1Spectra           *float64 `json:"ms1Spectra"`
	MS2Spectra           *float64 `json:"ms2Spectra"`
	MaxBasepeakIntensity *float64 `json:"maxBasepeakIntensity"`

	// TICCV is the maximum acceptable CV% of TIC within a group
	TICCV float64 `json:"ticCv"`
}

// For returns a threshold configured for metric m (or nil)
func (tc ThresholdConfig) For(m Metric) *float64 {
	switch m {
	case MetricMS1TIC:
		return tc.MS1TIC
	case MetricMS2TIC:
		return tc.MS2TIC
	case MetricMS1Spectra:
		return tc.MS1Spectra
	case MetricMS2Spectra:
		return tc.MS2Spectra
	case MetricMaxBasepeakIntensity:
		return tc.MaxBasepeakIntensity
	}
	return nil
}

// ----------------------------

// GroupAssignment maps group names to filenames (without directory)
type GroupAssignment map[string][]string

// Names returns group names in ascending order
func (ga GroupAssignment) Names() []string {
	keys := make([]string, 0, len(ga))
	for k := range ga {
		keys = append(keys, k)
	}
	return collections.NewSet(keys...).ToOrderedSlice()
}

// GroupOf returns a name of a group containing filename
func (ga GroupAssignment) GroupOf(filename string) (string, bool) {
	for _, name := range ga.Names() {
		for _, f := range ga[name] {
			if f == filename {
				return name, true
			}
		}
	}
	return "", false
}

func (ga GroupAssignment) validate() error {
	if len(ga) == 0 {
		return fmt.Errorf("%w: group comparison enabled but no groups defined", ErrConfig)
	}
	seen := make(map[string]string)
	for _, name := range ga.Names() {
		if name == "" {
			return fmt.Errorf("%w: empty group name", ErrConfig)
		}
		if len(ga[name]) == 0 {
			return fmt.Errorf("%w: group %s has no files", ErrConfig, name)
		}
		for _, f := range ga[name] {
			if prev, ok := seen[f]; ok {
				return fmt.Errorf(
					"%w: file %s assigned to multiple groups (%s, %s)", ErrConfig, f, prev, name)
			}
			seen[f] = name
		}
	}
	return nil
}

// ValidateMembership tests whether all the grouped files
// are among the provided filenames.
func (ga GroupAssignment) ValidateMembership(filenames []string) error {
	available := make(map[string]bool, len(filenames))
	for _, f := range filenames {
		available[f] = true
	}
	for _, name := range ga.Names() {
		for _, f := range ga[name] {
			if !available[f] {
				return fmt.Errorf("%w: file %s of group %s not found in data", ErrConfig, f, name)
			}
		}
	}
	return nil
}

// ----------------------------

// Settings configure a single QC run
type Settings struct {
	DataDir              string
	RawFileExt           string
	Thresholds           ThresholdConfig
	GroupwiseComparison  bool
	Groups               GroupAssignment
	ZScoreThreshold      float64
	MaxNumConcurrentJobs int
}

// Validate checks settings consistency. It does not
// access any files.
func (s Settings) Validate() error {
	for _, m := range ThresholdMetrics {
		if t := s.Thresholds.For(m); t != nil && (*t < 0 || math.IsNaN(*t) || math.IsInf(*t, 0)) {
			return fmt.Errorf("%w: invalid threshold %v for %s", ErrConfig, *t, m)
		}
	}
	if s.ZScoreThreshold <= 0 || math.IsNaN(s.ZScoreThreshold) {
		return fmt.Errorf("%w: invalid z-score threshold %v", ErrConfig, s.ZScoreThreshold)
	}
	if s.MaxNumConcurrentJobs < 0 {
		return fmt.Errorf("%w: invalid max. number of concurrent jobs %d", ErrConfig, s.MaxNumConcurrentJobs)
	}
	if s.GroupwiseComparison {
		if s.Thresholds.TICCV <= 0 || math.IsNaN(s.Thresholds.TICCV) {
			return fmt.Errorf("%w: invalid TIC CV threshold %v", ErrConfig, s.Thresholds.TICCV)
		}
		if err := s.Groups.validate(); err != nil {
			return err
		}
	}
	return nil
}
