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
	"strings"

	grob "github.com/MetalBlueberry/go-plotly/generated/v2.34.0/graph_objects"
	"github.com/czcorpus/msqc/qc"
)

const (
	dfltTICDescription      = "MS1 and MS2 Total Ion Current Values extracted from given mzML files"
	dfltRatioDescription    = "MS2/MS1 Spectra Count Ratio extracted from given mzML files"
	dfltBasepeakDescription = "Maximum Basepeak Intensities identified from given mzML files"
	dfltCVDescription       = "CV is calculated across samples in each given group"
)

// Section is a described plot of the report
type Section struct {
	Description string    `json:"description"`
	Plot        *grob.Fig `json:"plot,omitempty"`
}

// CVSection describes group TIC variability. It is present only
// when the groupwise comparison is enabled.
type CVSection struct {
	Description string  `json:"description"`
	MS1         Section `json:"ms1"`
	MS2         Section `json:"ms2"`
}

// Params contains everything needed to render the QC report.
// Optional sections are nil in case they are not applicable
// (e.g. no outliers found).
type Params struct {
	ReportName string `json:"report_name"`

	TotalIonCurrent Section    `json:"total_ion_current"`
	TICMS1Outliers  *Section   `json:"tic_ms1_outlier,omitempty"`
	TICMS2Outliers  *Section   `json:"tic_ms2_outlier,omitempty"`
	TICCV           *CVSection `json:"tic_ms_cv,omitempty"`

	SpectralRatio         Section  `json:"ms2_ms1_spectral_ratio"`
	SpectralRatioOutliers *Section `json:"ms2_ms1_spectral_ratio_outlier,omitempty"`

	MaxBasepeakIntensity         Section  `json:"max_basepeak_intensity"`
	MaxBasepeakIntensityOutliers *Section `json:"max_basepeak_intensity_outlier,omitempty"`

	Detection    []qc.OutlierDetection `json:"detection"`
	SampleStatus []qc.SampleQCStatus   `json:"sample_status"`
	GroupCV      []qc.GroupCV          `json:"group_cv,omitempty"`
	GroupStatus  []qc.GroupQCStatus    `json:"group_status,omitempty"`
}

func outlierSection(table *qc.MetricTable, m qc.Metric) *Section {
	files := table.Outliers(m)
	if len(files) == 0 {
		return nil
	}
	return &Section{
		Description: fmt.Sprintf(
			"%d outliers were found. The following files have been detected as outliers: %s",
			len(files), strings.Join(files, ", "),
		),
		Plot: OutlierFigure(table, m),
	}
}

func cvDescription(groupCV []qc.GroupCV, status func(qc.GroupCV) qc.Status) string {
	var failed, undetermined []string
	for _, gcv := range groupCV {
		switch status(gcv) {
		case qc.StatusFail:
			failed = append(failed, gcv.Group)
		case qc.StatusNA:
			undetermined = append(undetermined, gcv.Group)
		}
	}
	if len(failed) > 0 {
		return fmt.Sprintf(
			"The following groups have not met the CV Threshold: %s", strings.Join(failed, ", "))
	}
	if len(undetermined) > 0 {
		return fmt.Sprintf(
			"No group has failed the CV Threshold. CV could not be determined for: %s",
			strings.Join(undetermined, ", "),
		)
	}
	return "All groups have passed the CV Threshold"
}

// NewParams creates report parameters out of a finished QC run
func NewParams(reportName string, res *qc.Result, settings qc.Settings) *Params {
	table := res.Table
	ans := &Params{
		ReportName: reportName,
		TotalIonCurrent: Section{
			Description: dfltTICDescription,
			Plot:        TICFigure(table, settings.Thresholds),
		},
		TICMS1Outliers: outlierSection(table, qc.MetricMS1TIC),
		TICMS2Outliers: outlierSection(table, qc.MetricMS2TIC),
		SpectralRatio: Section{
			Description: dfltRatioDescription,
			Plot:        SpectralRatioFigure(table),
		},
		SpectralRatioOutliers:        outlierSection(table, qc.MetricSpectraRatio),
		MaxBasepeakIntensityOutliers: outlierSection(table, qc.MetricMaxBasepeakIntensity),
		Detection:                    make([]qc.OutlierDetection, 0, len(qc.OutlierMetrics)),
		SampleStatus:                 res.SampleStatus,
		GroupCV:                      res.GroupCV,
		GroupStatus:                  res.GroupStatus,
	}
	for _, m := range qc.OutlierMetrics {
		if det, ok := table.Detection[m]; ok {
			ans.Detection = append(ans.Detection, det)
		}
	}
	var groups qc.GroupAssignment
	if res.GroupwiseComparison {
		groups = settings.Groups
		cvThreshold := settings.Thresholds.TICCV
		ans.TICCV = &CVSection{
			Description: dfltCVDescription,
			MS1: Section{
				Description: cvDescription(
					res.GroupCV, func(g qc.GroupCV) qc.Status { return g.MS1TICStatus }),
				Plot: GroupCVFigure(res.GroupCV, qc.MetricMS1TIC, cvThreshold),
			},
			MS2: Section{
				Description: cvDescription(
					res.GroupCV, func(g qc.GroupCV) qc.Status { return g.MS2TICStatus }),
				Plot: GroupCVFigure(res.GroupCV, qc.MetricMS2TIC, cvThreshold),
			},
		}
	}
	ans.MaxBasepeakIntensity = Section{
		Description: dfltBasepeakDescription,
		Plot: BasepeakFigure(
			table, groups, settings.Thresholds.MaxBasepeakIntensity),
	}
	return ans
}
