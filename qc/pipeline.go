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
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Result contains all the outputs of a QC run
type Result struct {
	Table               *MetricTable     `json:"table"`
	GroupwiseComparison bool             `json:"groupwiseComparison"`
	GroupCV             []GroupCV        `json:"groupCv,omitempty"`
	SampleStatus        []SampleQCStatus `json:"sampleStatus"`
	GroupStatus         []GroupQCStatus  `json:"groupStatus,omitempty"`
}

func (s Settings) withDefaults() Settings {
	if s.RawFileExt == "" {
		s.RawFileExt = DefaultRawFileExt
	}
	if s.ZScoreThreshold == 0 {
		s.ZScoreThreshold = DefaultZScoreThreshold
	}
	return s
}

// Run performs the whole QC procedure on raw files found in settings.DataDir.
// The onFileDone callback is optional (see TableBuilder.OnFileDone).
func Run(
	ctx context.Context,
	settings Settings,
	src SpectrumSource,
	onFileDone func(FileMetric),
) (*Result, error) {
	settings = settings.withDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	paths, err := ListRawFiles(settings.DataDir, settings.RawFileExt)
	if err != nil {
		return nil, err
	}
	return RunFiles(ctx, settings, paths, src, onFileDone)
}

// RunFiles is like Run but it works with an already obtained list
// of raw files (see ListRawFiles) so the data directory is not scanned.
func RunFiles(
	ctx context.Context,
	settings Settings,
	paths []string,
	src SpectrumSource,
	onFileDone func(FileMetric),
) (*Result, error) {
	settings = settings.withDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no raw files to process", ErrIO)
	}
	if settings.GroupwiseComparison {
		filenames := make([]string, len(paths))
		for i, p := range paths {
			filenames[i] = filepath.Base(p)
		}
		if err := settings.Groups.ValidateMembership(filenames); err != nil {
			return nil, err
		}
	}
	builder := &TableBuilder{
		Source:               src,
		MaxNumConcurrentJobs: settings.MaxNumConcurrentJobs,
		OnFileDone:           onFileDone,
	}
	table, err := builder.Build(ctx, paths)
	if err != nil {
		return nil, err
	}
	return Analyze(table, settings)
}

// Analyze applies thresholds, outlier detection, group CV analysis
// and verdict composition to an already extracted table. Previous
// annotations of the table are discarded so the function can be
// called repeatedly with different settings.
func Analyze(table *MetricTable, settings Settings) (*Result, error) {
	settings = settings.withDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: no files to analyze", ErrIO)
	}
	table.resetAnnotations()
	if err := table.validateFilenames(); err != nil {
		return nil, err
	}
	var groups GroupAssignment
	if settings.GroupwiseComparison {
		groups = settings.Groups
		filenames := make([]string, len(table.Rows))
		for i, row := range table.Rows {
			filenames[i] = row.Filename
		}
		if err := groups.ValidateMembership(filenames); err != nil {
			return nil, err
		}
	}

	ClassifyThresholds(table, settings.Thresholds)
	OutlierEngine{ZScoreThreshold: settings.ZScoreThreshold}.Detect(table)

	ans := &Result{
		Table:               table,
		GroupwiseComparison: settings.GroupwiseComparison,
	}
	if settings.GroupwiseComparison {
		for _, row := range table.Rows {
			if _, ok := groups.GroupOf(row.Filename); !ok {
				log.Warn().
					Str("file", row.Filename).
					Msg("file not assigned to any group, excluded from group comparison")
			}
		}
		ans.GroupCV = AnalyzeGroupCV(table, groups, settings.Thresholds.TICCV)
	}
	ans.SampleStatus = ComposeSampleStatus(table, groups)
	if settings.GroupwiseComparison {
		ans.GroupStatus = ComposeGroupStatus(ans.SampleStatus, ans.GroupCV)
	}
	return ans, nil
}

func (table *MetricTable) resetAnnotations() {
	sortRows(table.Rows)
	for i, row := range table.Rows {
		table.Rows[i] = newRow(row.FileMetric)
	}
	table.Detection = make(map[Metric]OutlierDetection)
}
